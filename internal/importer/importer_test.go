package importer

import (
	"bytes"
	"encoding/json"
	"testing"

	"farmacia-data/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestParseInventory(t *testing.T) {
	wb := buildWorkbook(t, [][]any{
		{"Nombre", "Stock", "Gestion"},
		{"Gasa", 10, "Enfermera Jefe"},
		{"Alcohol", 3},                   // 已存在
		{"Jeringa", "diez"},              // 非数字
		{"Guantes", -2},                  // 负数
		{"Suero", 4.0, ""},               // 默认 Farmacia
		{"", 99},                         // 空行
		{"Gasa", 1},                      // 文件内重复
		{"Venda", 2, "Cocina"},           // 未知部门
		{"  Apósito  ", "7", "pharmacy"}, // 去空格
	})

	b, err := ParseInventory(wb, map[string]struct{}{"Alcohol": {}})
	require.NoError(t, err)

	require.Len(t, b.Records, 3)
	assert.Equal(t, domain.InventoryItem{Name: "Gasa", Unit: "unidades", Stock: 10, MinimumStock: 5, Department: domain.DepartmentHeadNurse}, b.Records[0])
	assert.Equal(t, "Suero", b.Records[1].Name)
	assert.Equal(t, 4, b.Records[1].Stock)
	assert.Equal(t, domain.DepartmentPharmacy, b.Records[1].Department)
	assert.Equal(t, "Apósito", b.Records[2].Name)
	assert.Equal(t, domain.DepartmentPharmacy, b.Records[2].Department)
	for _, it := range b.Records {
		assert.Empty(t, it.ID)
	}

	assert.Equal(t, []string{"Alcohol", "Gasa"}, b.Skipped)

	require.Len(t, b.Errors, 3)
	assert.Equal(t, 4, b.Errors[0].Row)
	assert.Equal(t, "Jeringa", b.Errors[0].Name)
	assert.ErrorIs(t, b.Errors[0], domain.ErrInvalidQuantity)
	assert.Equal(t, "Guantes", b.Errors[1].Name)
	assert.ErrorIs(t, b.Errors[1], domain.ErrInvalidQuantity)
	assert.Equal(t, "Venda", b.Errors[2].Name)
	assert.ErrorIs(t, b.Errors[2], domain.ErrInvalidInput)

	raw, err := json.Marshal(b.Errors[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"row":4`)
	assert.Contains(t, string(raw), `"message":`)
}

func TestParseResidents(t *testing.T) {
	wb := buildWorkbook(t, [][]any{
		{"Nombre", "RUT", "Piso", "Habitacion", "Apoderado"},
		{"Ana Soto", "11.111.111-1", 2, "204", "Luis Soto"},
		{"Beto Rojas", "22.222.222-2"},
		{"Ana Soto", "otro"},
		{"Carla Díaz", "33.333.333-3", "1", "101", "Marta"},
	})

	b, err := ParseResidents(wb, map[string]struct{}{"Carla Díaz": {}})
	require.NoError(t, err)
	require.Len(t, b.Records, 2)
	assert.Equal(t, domain.Resident{Name: "Ana Soto", NationalID: "11.111.111-1", Floor: "2", Room: "204", Guardian: "Luis Soto"}, b.Records[0])
	assert.Equal(t, domain.Resident{Name: "Beto Rojas", NationalID: "22.222.222-2"}, b.Records[1])
	assert.Equal(t, []string{"Ana Soto", "Carla Díaz"}, b.Skipped)
	assert.Empty(t, b.Errors)
}

func TestParse_HeaderOnlyAndInvalidFile(t *testing.T) {
	b, err := ParseInventory(buildWorkbook(t, [][]any{{"Nombre", "Stock"}}), nil)
	require.NoError(t, err)
	assert.Empty(t, b.Records)

	_, err = ParseInventory(bytes.NewBufferString("not an xlsx"), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTemplate(t *testing.T) {
	for kind, header := range map[Kind][]string{KindInventory: InventoryHeader, KindResidents: ResidentsHeader} {
		out, err := Template(kind)
		require.NoError(t, err)

		f, err := excelize.OpenReader(bytes.NewReader(out))
		require.NoError(t, err)
		rows, err := f.GetRows(f.GetSheetName(0))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, header, rows[0])
		_ = f.Close()
	}

	_, err := Template("otro")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("Residentes")
	require.NoError(t, err)
	assert.Equal(t, KindResidents, k)
	k, err = ParseKind("inventory")
	require.NoError(t, err)
	assert.Equal(t, KindInventory, k)
	_, err = ParseKind("usuarios")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"0", 0, false},
		{"12", 12, false},
		{"12.0", 12, false},
		{"12.5", 0, true},
		{"-1", 0, true},
		{"", 0, true},
		{"abc", 0, true},
		{"2147483647", domain.MaxStock, false},
		{"2147483648", 0, true},
		{"9223372036854775807", 0, true},
		{"1e12", 0, true},
	}
	for _, tt := range tests {
		got, err := parseQuantity(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, domain.ErrInvalidQuantity, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
