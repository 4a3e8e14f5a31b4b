package render

import (
	"fmt"

	"farmacia-data/internal/report"

	"github.com/xuri/excelize/v2"
)

const consumptionSheet = "Consumos"

// ConsumptionHeader 消耗导出表头
var ConsumptionHeader = []string{"Fecha", "Residente", "RUT", "Insumo", "Gestion", "Cantidad"}

// XLSXRenderer 使用 excelize 生成 Excel 报表
type XLSXRenderer struct{}

var _ Renderer = XLSXRenderer{}

func (XLSXRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
func (XLSXRenderer) Extension() string { return "xlsx" }

// RenderResidentReport 单个住户的明细（同 PDF 内容，表格形式）
func (XLSXRenderer) RenderResidentReport(r ResidentReport) ([]byte, error) {
	return MovementsWorkbook(r.Rows, r.FilterLabel, r.From, r.To)
}

// MovementsWorkbook 导出消耗明细：第 1 行为过滤条件，第 3 行为表头
func MovementsWorkbook(rows []report.Row, filterLabel string, from, to report.Date) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(consumptionSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}

	caption := fmt.Sprintf("Filtro: %s | %s - %s", filterLabel, from.Display(), to.Display())
	if err := f.SetCellValue(consumptionSheet, "A1", caption); err != nil {
		return nil, fmt.Errorf("failed to set caption: %w", err)
	}
	if err := WriteHeader(f, consumptionSheet, 3, ConsumptionHeader, []float64{18, 30, 15, 30, 16, 10}); err != nil {
		return nil, err
	}

	for i, row := range rows {
		var nationalID string
		if row.Resident != nil {
			nationalID = row.Resident.NationalID
		}
		values := []any{
			rowTimestamp(row),
			row.ResidentName(),
			nationalID,
			row.Movement.ItemName,
			string(row.Department),
			row.Movement.Quantity,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+4)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(consumptionSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+4, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteHeader 写入带样式的表头并设置列宽
func WriteHeader(f *excelize.File, sheet string, row int, headers []string, widths []float64) error {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
		if col < len(widths) && widths[col] > 0 {
			name, err := excelize.ColumnNumberToName(col + 1)
			if err != nil {
				return fmt.Errorf("failed to convert column number: %w", err)
			}
			if err := f.SetColWidth(sheet, name, name, widths[col]); err != nil {
				return fmt.Errorf("failed to set column width: %w", err)
			}
		}
	}
	return nil
}
