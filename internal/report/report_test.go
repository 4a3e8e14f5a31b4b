package report

import (
	"testing"

	"farmacia-data/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2024-03-05 14:30", "2024-03-05"},
		{"2024-03-05 14:30:59", "2024-03-05"},
		{"2024-03-05", "2024-03-05"},
		{"2024-03-05T14:30:00", "2024-03-05"},
		{"2024-03-05T23:30:00-03:00", "2024-03-05"},
		{"2024/03/05", "2024-03-05"},
		{"03/05/2024", "2024-03-05"},
		{"3/5/2024", "2024-03-05"},
		{"3/5/2024 14:30", "2024-03-05"},
		{"3/5/2024 14:30:00", "2024-03-05"},
		{"2024-3-5 14:30", "2024-03-05"},
		{"2024-3-5 14:30:00", "2024-03-05"},
		{"2024-3-5", "2024-03-05"},
		{" 2024-03-05 14:30 ", "2024-03-05"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, DateOf(got).String())
		})
	}

	for _, bad := range []string{"", "ayer", "2024-13-45", "05-03-2024 xx"} {
		_, err := ParseTimestamp(bad)
		assert.ErrorIs(t, err, domain.ErrMalformedTimestamp, bad)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, Date{2024, 2, 29}, d)
	assert.Equal(t, "29/02/2024", d.Display())

	_, err = ParseDate("29/02/2024")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestResolveDepartment(t *testing.T) {
	inv := domain.IndexInventory([]domain.InventoryItem{
		{ID: "i-nurse", Department: domain.DepartmentHeadNurse},
		{ID: "i-pharm", Department: domain.DepartmentPharmacy},
	})

	tests := []struct {
		name string
		m    domain.Movement
		want domain.Department
	}{
		{"snapshot wins over current item", domain.Movement{ItemID: "i-nurse", DepartmentSnapshot: "Farmacia"}, domain.DepartmentPharmacy},
		{"empty snapshot falls back to item", domain.Movement{ItemID: "i-nurse"}, domain.DepartmentHeadNurse},
		{"deleted item defaults to pharmacy", domain.Movement{ItemID: "gone"}, domain.DepartmentPharmacy},
		{"deleted item keeps snapshot", domain.Movement{ItemID: "gone", DepartmentSnapshot: "Enfermera Jefe"}, domain.DepartmentHeadNurse},
		{"unknown snapshot treated as absent", domain.Movement{ItemID: "i-nurse", DepartmentSnapshot: "Cocina"}, domain.DepartmentHeadNurse},
		{"english snapshot label", domain.Movement{ItemID: "i-pharm", DepartmentSnapshot: "head nurse"}, domain.DepartmentHeadNurse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveDepartment(tt.m, inv))
		})
	}
}

// 固定数据：两位住户、一个已删除住户、一个已删除物品
func fixture() ([]domain.Movement, []domain.InventoryItem, []domain.Resident) {
	inventory := []domain.InventoryItem{
		{ID: "gasa", Name: "Gasa", Department: domain.DepartmentHeadNurse, Stock: 10},
		{ID: "para", Name: "Paracetamol", Department: domain.DepartmentPharmacy, Stock: 10},
	}
	residents := []domain.Resident{
		{ID: "ana", Name: "Ana Soto", NationalID: "1-9"},
		{ID: "beto", Name: "Beto Rojas", NationalID: "2-7"},
	}
	movements := []domain.Movement{
		{ID: "1", Timestamp: "2024-03-10 09:00", Type: domain.MovementConsumption, ResidentID: "beto", ItemID: "para", ItemName: "Paracetamol", Quantity: 1, DepartmentSnapshot: "Farmacia"},
		{ID: "2", Timestamp: "2024-03-01 08:00", Type: domain.MovementConsumption, ResidentID: "ana", ItemID: "gasa", ItemName: "Gasa", Quantity: 2},
		{ID: "3", Timestamp: "2024-03-05", Type: domain.MovementReceipt, ItemID: "gasa", ItemName: "Gasa", Quantity: 50},
		{ID: "4", Timestamp: "garbage", Type: domain.MovementConsumption, ResidentID: "ana", ItemID: "gasa", Quantity: 1},
		{ID: "5", Timestamp: "03/31/2024 23:59", Type: domain.MovementConsumption, ResidentID: "ana", ItemID: "para", ItemName: "Paracetamol", Quantity: 3, DepartmentSnapshot: "Farmacia"},
		{ID: "6", Timestamp: "2024-04-01 00:00", Type: domain.MovementConsumption, ResidentID: "ana", ItemID: "para", ItemName: "Paracetamol", Quantity: 9},
		{ID: "7", Timestamp: "2024-03-15 12:00", Type: domain.MovementConsumption, ResidentID: "ghost", ItemID: "old", ItemName: "Venda", Quantity: 4},
		{ID: "8", Timestamp: "2024-03-01 07:00", Type: domain.MovementConsumption, ResidentID: "ana", ItemID: "gasa", ItemName: "Gasa", Quantity: 1, DepartmentSnapshot: "Enfermera Jefe"},
		{ID: "9", Timestamp: "2024-02-29 23:59", Type: domain.MovementConsumption, ResidentID: "beto", ItemID: "gasa", ItemName: "Gasa", Quantity: 5},
	}
	return movements, inventory, residents
}

func march() Query {
	return Query{From: Date{2024, 3, 1}, To: Date{2024, 3, 31}}
}

func ids(rows []Row) []string {
	out := []string{}
	for _, r := range rows {
		out = append(out, r.Movement.ID)
	}
	return out
}

func TestQueryMovements_General(t *testing.T) {
	mv, inv, res := fixture()
	result := QueryMovements(mv, inv, res, march())

	// 只保留三月的 CONSUMO，区间两端包含，跳过无法解析的行
	assert.Equal(t, []string{"1", "2", "5", "7", "8"}, ids(result.Rows))
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, []string{"Ana Soto", "Beto Rojas"}, result.GroupByResident())
	assert.Equal(t, 11, TotalQuantity(result.Rows))
}

// 区间前一天和后一天都不包含
func TestQueryMovements_RangeBoundaries(t *testing.T) {
	mv, inv, res := fixture()
	result := QueryMovements(mv, inv, res, march())
	got := ids(result.Rows)
	assert.NotContains(t, got, "9")
	assert.NotContains(t, got, "6")
	assert.Contains(t, got, "8")
	assert.Contains(t, got, "5")

	feb := QueryMovements(mv, inv, res, Query{From: Date{2024, 2, 1}, To: Date{2024, 2, 29}})
	assert.Equal(t, []string{"9"}, ids(feb.Rows))
}

func TestQueryMovements_JanuaryRange(t *testing.T) {
	res := []domain.Resident{{ID: "r1", Name: "Ana"}}
	mv := []domain.Movement{
		{ID: "jan", Timestamp: "2024-01-05 10:00", Type: domain.MovementConsumption, ResidentID: "r1", ItemID: "x", Quantity: 1},
		{ID: "feb", Timestamp: "2024-02-01 10:00", Type: domain.MovementConsumption, ResidentID: "r1", ItemID: "x", Quantity: 1},
	}
	result := QueryMovements(mv, nil, res, Query{From: Date{2024, 1, 1}, To: Date{2024, 1, 31}})
	assert.Equal(t, []string{"jan"}, ids(result.Rows))
	assert.Equal(t, []string{"Ana"}, result.GroupByResident())
}

// 同样的输入查询两次，结果（含 Skipped）完全一致，输入不被修改
func TestQueryMovements_Idempotent(t *testing.T) {
	mv, inv, res := fixture()
	before := append([]domain.Movement(nil), mv...)

	for _, q := range []Query{march(), {}, {Department: domain.FilterHeadNurse}, {Type: domain.MovementReceipt}} {
		first := QueryMovements(mv, inv, res, q)
		second := QueryMovements(mv, inv, res, q)
		assert.Equal(t, first, second)
		assert.Equal(t, first.GroupByResident(), second.GroupByResident())
	}
	assert.Equal(t, before, mv)
}

// 表格软件导出的日期（月/日不补零且带时间）照常计入
func TestQueryMovements_UnpaddedTimestamps(t *testing.T) {
	res := []domain.Resident{{ID: "r1", Name: "Ana"}}
	mv := []domain.Movement{
		{ID: "a", Timestamp: "3/5/2024 14:30:00", Type: domain.MovementConsumption, ResidentID: "r1", ItemID: "x", Quantity: 1},
		{ID: "b", Timestamp: "2024-3-6 08:15", Type: domain.MovementConsumption, ResidentID: "r1", ItemID: "x", Quantity: 1},
	}
	result := QueryMovements(mv, nil, res, march())
	assert.Equal(t, []string{"a", "b"}, ids(result.Rows))
	assert.Zero(t, result.Skipped)
}

func TestQueryMovements_DepartmentFilter(t *testing.T) {
	mv, inv, res := fixture()

	q := march()
	q.Department = domain.FilterHeadNurse
	nurse := QueryMovements(mv, inv, res, q)
	assert.Equal(t, []string{"2", "8"}, ids(nurse.Rows))
	assert.Equal(t, []string{"Ana Soto"}, nurse.GroupByResident())

	q.Department = domain.FilterPharmacy
	pharm := QueryMovements(mv, inv, res, q)
	// 7: 物品已删除且无快照，归入 Farmacia
	assert.Equal(t, []string{"1", "5", "7"}, ids(pharm.Rows))
	for _, row := range pharm.Rows {
		assert.Equal(t, domain.DepartmentPharmacy, row.Department)
	}

	// 两个部门的结果互不重叠且合起来等于 General
	general := QueryMovements(mv, inv, res, march())
	assert.Len(t, general.Rows, len(nurse.Rows)+len(pharm.Rows))
}

func TestQueryMovements_Receipts(t *testing.T) {
	mv, inv, res := fixture()
	q := march()
	q.Type = domain.MovementReceipt
	result := QueryMovements(mv, inv, res, q)
	assert.Equal(t, []string{"3"}, ids(result.Rows))
	assert.Empty(t, result.GroupByResident())
}

func TestQueryMovements_OrphansCountedButNotGrouped(t *testing.T) {
	mv, inv, res := fixture()
	result := QueryMovements(mv, inv, res, march())

	var orphan *Row
	for i := range result.Rows {
		if result.Rows[i].Movement.ID == "7" {
			orphan = &result.Rows[i]
		}
	}
	require.NotNil(t, orphan)
	assert.Nil(t, orphan.Resident)
	assert.Equal(t, "", orphan.ResidentName())
	assert.NotContains(t, result.GroupByResident(), "")
	assert.Empty(t, result.ForResident(""))
}

func TestQueryMovements_EmptyResult(t *testing.T) {
	mv, inv, res := fixture()
	result := QueryMovements(mv, inv, res, Query{From: Date{2023, 1, 1}, To: Date{2023, 1, 31}})
	assert.Empty(t, result.Rows)
	assert.Empty(t, result.GroupByResident())

	inverted := QueryMovements(mv, inv, res, Query{From: Date{2024, 3, 31}, To: Date{2024, 3, 1}})
	assert.Empty(t, inverted.Rows)

	none := QueryMovements(nil, nil, nil, march())
	assert.Empty(t, none.Rows)
	assert.Zero(t, none.Skipped)
}

func TestQueryMovements_UnboundedRange(t *testing.T) {
	mv, inv, res := fixture()
	result := QueryMovements(mv, inv, res, Query{})
	assert.Equal(t, []string{"1", "2", "5", "6", "7", "8", "9"}, ids(result.Rows))
}

func TestForResident_SortedByTimestamp(t *testing.T) {
	mv, inv, res := fixture()
	result := QueryMovements(mv, inv, res, march())

	rows := result.ForResident("Ana Soto")
	assert.Equal(t, []string{"8", "2", "5"}, ids(rows))
	for i := 1; i < len(rows); i++ {
		assert.False(t, rows[i].Time.Before(rows[i-1].Time))
	}
	assert.Empty(t, result.ForResident("Nadie"))
}

func TestForResident_StableOnEqualTimestamps(t *testing.T) {
	res := []domain.Resident{{ID: "ana", Name: "Ana"}}
	mv := []domain.Movement{
		{ID: "a", Timestamp: "2024-03-01 10:00", Type: domain.MovementConsumption, ResidentID: "ana", Quantity: 1},
		{ID: "b", Timestamp: "2024-03-01 10:00", Type: domain.MovementConsumption, ResidentID: "ana", Quantity: 1},
		{ID: "c", Timestamp: "2024-03-01 09:00", Type: domain.MovementConsumption, ResidentID: "ana", Quantity: 1},
		{ID: "d", Timestamp: "2024-03-01 10:00", Type: domain.MovementConsumption, ResidentID: "ana", Quantity: 1},
	}
	rows := QueryMovements(mv, nil, res, Query{}).ForResident("Ana")
	assert.Equal(t, []string{"c", "a", "b", "d"}, ids(rows))
}

// 同名住户合并为一组
func TestGroupByResident_DuplicateNames(t *testing.T) {
	res := []domain.Resident{{ID: "a1", Name: "Ana"}, {ID: "a2", Name: "Ana"}}
	mv := []domain.Movement{
		{ID: "1", Timestamp: "2024-03-01 10:00", Type: domain.MovementConsumption, ResidentID: "a1", Quantity: 1},
		{ID: "2", Timestamp: "2024-03-02 10:00", Type: domain.MovementConsumption, ResidentID: "a2", Quantity: 1},
	}
	result := QueryMovements(mv, nil, res, Query{})
	assert.Equal(t, []string{"Ana"}, result.GroupByResident())
	assert.Len(t, result.ForResident("Ana"), 2)
}

func TestTotalsByItem(t *testing.T) {
	mv, inv, res := fixture()
	result := QueryMovements(mv, inv, res, march())
	totals := TotalsByItem(result.Rows)
	require.Len(t, totals, 3)
	assert.Equal(t, ItemTotal{ItemID: "gasa", ItemName: "Gasa", Department: domain.DepartmentHeadNurse, Quantity: 3}, totals[0])
	assert.Equal(t, ItemTotal{ItemID: "para", ItemName: "Paracetamol", Department: domain.DepartmentPharmacy, Quantity: 4}, totals[1])
	assert.Equal(t, "Venda", totals[2].ItemName)
}
