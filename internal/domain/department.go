package domain

import "strings"

// Department 管理部门（Gestión）
// 存储值沿用机构现有标签，便于与历史表格数据对齐
type Department string

const (
	DepartmentPharmacy  Department = "Farmacia"
	DepartmentHeadNurse Department = "Enfermera Jefe"
)

// DefaultDepartment is used when neither the movement nor the inventory item carries a department.
const DefaultDepartment = DepartmentPharmacy

// Departments lists every valid department in display order.
func Departments() []Department {
	return []Department{DepartmentPharmacy, DepartmentHeadNurse}
}

// ParseDepartment maps a stored or user-supplied label to a Department.
// Accepts the facility labels and the English names, case-insensitively.
func ParseDepartment(s string) (Department, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "farmacia", "pharmacy":
		return DepartmentPharmacy, true
	case "enfermera jefe", "enfermera", "headnurse", "head nurse", "head_nurse":
		return DepartmentHeadNurse, true
	default:
		return "", false
	}
}

func (d Department) String() string { return string(d) }

func (d Department) Valid() bool {
	_, ok := ParseDepartment(string(d))
	return ok
}

// DepartmentFilter 报表部门过滤
type DepartmentFilter string

const (
	FilterGeneral   DepartmentFilter = "General"
	FilterPharmacy  DepartmentFilter = DepartmentFilter(DepartmentPharmacy)
	FilterHeadNurse DepartmentFilter = DepartmentFilter(DepartmentHeadNurse)
)

// ParseDepartmentFilter accepts "" / "general" / "todos" for the unfiltered view, or any department label.
func ParseDepartmentFilter(s string) (DepartmentFilter, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "general", "general (todos)", "todos", "all":
		return FilterGeneral, true
	}
	d, ok := ParseDepartment(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "solo "))
	if !ok {
		return "", false
	}
	return DepartmentFilter(d), true
}

// Matches reports whether a resolved department passes the filter.
func (f DepartmentFilter) Matches(d Department) bool {
	if f == FilterGeneral || f == "" {
		return true
	}
	return Department(f) == d
}

// Label is the human readable filter caption printed on reports.
func (f DepartmentFilter) Label() string {
	switch f {
	case FilterPharmacy:
		return "Solo Farmacia"
	case FilterHeadNurse:
		return "Solo Enfermera Jefe"
	default:
		return "General (Todos)"
	}
}
