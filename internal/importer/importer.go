// Package importer 解析批量导入的 Excel 文件（第一行为表头，第一列为名称）
package importer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"farmacia-data/internal/domain"
	"farmacia-data/internal/render"

	"github.com/xuri/excelize/v2"
)

// Kind 导入类型
type Kind string

const (
	KindInventory Kind = "inventory"
	KindResidents Kind = "residents"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindInventory, "inventario", "insumos":
		return KindInventory, nil
	case KindResidents, "residentes":
		return KindResidents, nil
	}
	return "", fmt.Errorf("%w: unknown import kind %q", domain.ErrInvalidInput, s)
}

// InventoryHeader 库存导入模板表头（Gestion 可省略）
var InventoryHeader = []string{"Nombre", "Stock", "Gestion"}

// ResidentsHeader 住户导入模板表头
var ResidentsHeader = []string{"Nombre", "RUT", "Piso", "Habitacion", "Apoderado"}

// RowError 单行校验失败，该行不导入
type RowError struct {
	Row  int // Excel 行号（从 1 开始，含表头）
	Name string
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d (%s): %v", e.Row, e.Name, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

func (e RowError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Row     int    `json:"row"`
		Name    string `json:"name,omitempty"`
		Message string `json:"message"`
	}{e.Row, e.Name, e.Err.Error()})
}

// Batch 解析结果
type Batch[T any] struct {
	Records []T
	Skipped []string   // 名称已存在（或文件内重复）
	Errors  []RowError // 校验失败
}

// ParseInventory reads an inventory workbook. Rows whose name is in existing (or repeats
// an earlier row) are skipped; bad stock or department cells are row errors.
func ParseInventory(r io.Reader, existing map[string]struct{}) (*Batch[domain.InventoryItem], error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, err
	}
	b := &Batch[domain.InventoryItem]{Records: []domain.InventoryItem{}}
	seen := copyNames(existing)
	for i, row := range rows {
		line := i + 2
		name := cell(row, 0)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			b.Skipped = append(b.Skipped, name)
			continue
		}
		stock, err := parseQuantity(cell(row, 1))
		if err != nil {
			b.Errors = append(b.Errors, RowError{Row: line, Name: name, Err: err})
			continue
		}
		dept := domain.DefaultDepartment
		if raw := cell(row, 2); raw != "" {
			d, ok := domain.ParseDepartment(raw)
			if !ok {
				b.Errors = append(b.Errors, RowError{Row: line, Name: name,
					Err: fmt.Errorf("%w: unknown department %q", domain.ErrInvalidInput, raw)})
				continue
			}
			dept = d
		}
		seen[name] = struct{}{}
		b.Records = append(b.Records, domain.InventoryItem{
			Name:         name,
			Unit:         domain.DefaultUnit,
			Stock:        stock,
			MinimumStock: domain.DefaultMinimumStock,
			Department:   dept,
		})
	}
	return b, nil
}

// ParseResidents reads a residents workbook; same skip rules as ParseInventory.
func ParseResidents(r io.Reader, existing map[string]struct{}) (*Batch[domain.Resident], error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, err
	}
	b := &Batch[domain.Resident]{Records: []domain.Resident{}}
	seen := copyNames(existing)
	for _, row := range rows {
		name := cell(row, 0)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			b.Skipped = append(b.Skipped, name)
			continue
		}
		seen[name] = struct{}{}
		b.Records = append(b.Records, domain.Resident{
			Name:       name,
			NationalID: cell(row, 1),
			Floor:      cell(row, 2),
			Room:       cell(row, 3),
			Guardian:   cell(row, 4),
		})
	}
	return b, nil
}

// Template 生成空白导入模板
func Template(kind Kind) ([]byte, error) {
	var headers []string
	var widths []float64
	switch kind {
	case KindInventory:
		headers, widths = InventoryHeader, []float64{35, 10, 18}
	case KindResidents:
		headers, widths = ResidentsHeader, []float64{35, 15, 8, 12, 30}
	default:
		return nil, fmt.Errorf("%w: unknown import kind %q", domain.ErrInvalidInput, kind)
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	if err := render.WriteHeader(f, sheet, 1, headers, widths); err != nil {
		return nil, err
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write template: %w", err)
	}
	return buf.Bytes(), nil
}

var errNoSheet = errors.New("workbook has no sheets")

// readRows 读取第一个工作表，去掉表头行
func readRows(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: not a valid xlsx file: %v", domain.ErrInvalidInput, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, errNoSheet)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", domain.ErrInvalidInput, sheets[0], err)
	}
	if len(rows) <= 1 {
		return [][]string{}, nil
	}
	return rows[1:], nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseQuantity 接受整数（或小数部分为 0 的数字），拒绝空值、非数字、负数和超过 MaxStock 的值
func parseQuantity(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: stock is empty", domain.ErrInvalidQuantity)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("%w: stock %q is not a number", domain.ErrInvalidQuantity, s)
		}
		if f > domain.MaxStock {
			return 0, fmt.Errorf("%w: stock %q exceeds %d", domain.ErrInvalidQuantity, s, domain.MaxStock)
		}
		n = int(f)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: stock %d is negative", domain.ErrInvalidQuantity, n)
	}
	if n > domain.MaxStock {
		return 0, fmt.Errorf("%w: stock %d exceeds %d", domain.ErrInvalidQuantity, n, domain.MaxStock)
	}
	return n, nil
}

func copyNames(existing map[string]struct{}) map[string]struct{} {
	seen := make(map[string]struct{}, len(existing))
	for k := range existing {
		seen[strings.TrimSpace(k)] = struct{}{}
	}
	return seen
}
