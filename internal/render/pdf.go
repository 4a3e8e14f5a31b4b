package render

import (
	"bytes"
	"fmt"
	"strconv"

	"farmacia-data/internal/domain"

	"github.com/go-pdf/fpdf"
)

const reportTitle = "Farmacia Ac - Reporte Oficial"

// PDFRenderer 使用 fpdf 生成 PDF（核心字体 + cp1252 转码）
type PDFRenderer struct{}

var _ Renderer = PDFRenderer{}

func (PDFRenderer) ContentType() string { return "application/pdf" }
func (PDFRenderer) Extension() string   { return "pdf" }

func newDocument() (*fpdf.Fpdf, func(string) string) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Arial", "B", 15)
		pdf.CellFormat(0, 10, tr(reportTitle), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Pag %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	return pdf, tr
}

func output(pdf *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderResidentReport 住户消耗报表：住户信息 + 过滤条件 + 明细表
func (PDFRenderer) RenderResidentReport(r ResidentReport) ([]byte, error) {
	pdf, tr := newDocument()
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 10, tr("Residente: "+r.Resident.Name), "", 1, "", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, tr("RUT: "+r.Resident.NationalID), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Ubicacion: Piso %s - Hab %s", r.Resident.Floor, r.Resident.Room)), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, tr("Apoderado: "+r.Resident.Guardian), "", 1, "", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "I", 9)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Filtro: %s | %s - %s", r.FilterLabel, r.From.Display(), r.To.Display())), "", 1, "", false, 0, "")
	pdf.Ln(5)

	widths := []float64{40, 70, 40, 30}
	pdf.SetFont("Arial", "B", 10)
	for i, h := range []string{"Fecha", "Insumo", "Gestion", "Cantidad"} {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range r.Rows {
		pdf.CellFormat(widths[0], 8, tr(rowTimestamp(row)), "1", 0, "", false, 0, "")
		pdf.CellFormat(widths[1], 8, tr(row.Movement.ItemName), "1", 0, "", false, 0, "")
		pdf.CellFormat(widths[2], 8, tr(string(row.Department)), "1", 0, "", false, 0, "")
		pdf.CellFormat(widths[3], 8, strconv.Itoa(row.Movement.Quantity), "1", 0, "", false, 0, "")
		pdf.Ln(-1)
	}
	return output(pdf)
}

// InventoryPDF 库存总表（Inventario General）
func InventoryPDF(items []domain.InventoryItem, generatedBy, date string) ([]byte, error) {
	pdf, tr := newDocument()
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, "Inventario General", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "I", 10)
	pdf.CellFormat(0, 10, tr(fmt.Sprintf("Gen: %s | %s", generatedBy, date)), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	widths := []float64{70, 30, 30, 30}
	pdf.SetFont("Arial", "B", 9)
	for i, h := range []string{"Nombre", "Gestion", "Unidad", "Stock"} {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, it := range items {
		pdf.CellFormat(widths[0], 8, tr(it.Name), "1", 0, "", false, 0, "")
		pdf.CellFormat(widths[1], 8, tr(string(it.Department)), "1", 0, "", false, 0, "")
		pdf.CellFormat(widths[2], 8, tr(it.Unit), "1", 0, "", false, 0, "")
		pdf.CellFormat(widths[3], 8, strconv.Itoa(it.Stock), "1", 0, "", false, 0, "")
		pdf.Ln(-1)
	}
	return output(pdf)
}
