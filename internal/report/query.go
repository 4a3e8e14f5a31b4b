package report

import (
	"sort"
	"time"

	"farmacia-data/internal/domain"
)

// Query 报表查询条件
// From / To 为闭区间；零值表示不限
type Query struct {
	From       Date
	To         Date
	Department domain.DepartmentFilter // 空值等同 General
	Type       domain.MovementType     // 空值等同 CONSUMO
}

// Row 过滤后的一条流水（已解析日期、已确定部门、已关联住户）
type Row struct {
	Movement   domain.Movement   `json:"movement"`
	Time       time.Time         `json:"-"`
	Date       string            `json:"date"`
	Department domain.Department `json:"department"`
	// Resident 为 nil 表示住户已删除（孤立流水），仍计入汇总
	Resident *domain.Resident `json:"resident,omitempty"`
}

// ResidentName returns "" for orphaned rows.
func (r Row) ResidentName() string {
	if r.Resident == nil {
		return ""
	}
	return r.Resident.Name
}

// Result 查询结果；Skipped 为日期无法解析而被丢弃的行数
type Result struct {
	Rows    []Row
	Skipped int
}

// QueryMovements filters movements by type, inclusive date range and resolved department,
// and left-joins the residents snapshot. Rows keep the input order.
func QueryMovements(movements []domain.Movement, inventory []domain.InventoryItem, residents []domain.Resident, q Query) Result {
	typ := q.Type
	if typ == "" {
		typ = domain.MovementConsumption
	}
	filter := q.Department
	if filter == "" {
		filter = domain.FilterGeneral
	}
	invByID := domain.IndexInventory(inventory)
	resByID := domain.IndexResidents(residents)

	res := Result{Rows: []Row{}}
	for _, m := range movements {
		t, err := ParseTimestamp(m.Timestamp)
		if err != nil {
			res.Skipped++
			continue
		}
		if m.Type != typ {
			continue
		}
		d := DateOf(t)
		if !q.From.IsZero() && d.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && d.After(q.To) {
			continue
		}
		dept := ResolveDepartment(m, invByID)
		if !filter.Matches(dept) {
			continue
		}
		row := Row{Movement: m, Time: t, Date: d.String(), Department: dept}
		if r, ok := resByID[m.ResidentID]; ok {
			row.Resident = &r
		}
		res.Rows = append(res.Rows, row)
	}
	return res
}

// GroupByResident returns the distinct resident names present in the result, sorted.
// Orphaned rows are excluded.
func (r Result) GroupByResident() []string {
	seen := map[string]struct{}{}
	names := []string{}
	for _, row := range r.Rows {
		name := row.ResidentName()
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForResident returns the rows of the named resident ordered by timestamp ascending.
// Rows with equal timestamps keep their input order.
func (r Result) ForResident(name string) []Row {
	out := []Row{}
	if name == "" {
		return out
	}
	for _, row := range r.Rows {
		if row.ResidentName() == name {
			out = append(out, row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// ItemTotal 按物品汇总的数量
type ItemTotal struct {
	ItemID     string            `json:"item_id"`
	ItemName   string            `json:"item_name"`
	Department domain.Department `json:"department"`
	Quantity   int               `json:"quantity"`
}

// TotalsByItem sums quantities per item (orphans included), ordered by item name.
func TotalsByItem(rows []Row) []ItemTotal {
	idx := map[string]int{}
	out := []ItemTotal{}
	for _, row := range rows {
		key := row.Movement.ItemID + "\x00" + string(row.Department)
		i, ok := idx[key]
		if !ok {
			i = len(out)
			idx[key] = i
			out = append(out, ItemTotal{
				ItemID:     row.Movement.ItemID,
				ItemName:   row.Movement.ItemName,
				Department: row.Department,
			})
		}
		out[i].Quantity += row.Movement.Quantity
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ItemName < out[j].ItemName })
	return out
}

// TotalQuantity sums the quantity of every row.
func TotalQuantity(rows []Row) int {
	n := 0
	for _, row := range rows {
		n += row.Movement.Quantity
	}
	return n
}
