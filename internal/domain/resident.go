package domain

import (
	"fmt"
	"strings"
)

// Resident 住户（对应 residents 表）
type Resident struct {
	ID         string `json:"id" db:"id"`
	Name       string `json:"name" db:"name"`
	NationalID string `json:"national_id" db:"national_id"` // RUT
	Floor      string `json:"floor" db:"floor"`
	Room       string `json:"room" db:"room"`
	Guardian   string `json:"guardian" db:"guardian"` // 监护人（Apoderado）
}

// Label 出库下拉框显示：姓名 (RUT)
func (r Resident) Label() string {
	return fmt.Sprintf("%s (%s)", r.Name, r.NationalID)
}

func (r *Resident) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	r.NationalID = strings.TrimSpace(r.NationalID)
	r.Floor = strings.TrimSpace(r.Floor)
	r.Room = strings.TrimSpace(r.Room)
	r.Guardian = strings.TrimSpace(r.Guardian)
	return nil
}

// IndexResidents builds an ID lookup over a resident snapshot.
func IndexResidents(residents []Resident) map[string]Resident {
	m := make(map[string]Resident, len(residents))
	for _, r := range residents {
		m[r.ID] = r
	}
	return m
}
