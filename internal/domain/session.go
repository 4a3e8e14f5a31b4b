package domain

import "fmt"

// Session 调用方上下文（代替全局会话状态）
// LastResidentID / LastItemID 由调用方保存并在下次出库时回传
type Session struct {
	Username       string
	Role           Role
	LastResidentID string
	LastItemID     string
}

func (s Session) IsAdmin() bool { return s.Role == RoleAdministrator }

// CanViewInventory: every signed-in role.
func (s Session) CanViewInventory() bool {
	_, ok := ParseRole(string(s.Role))
	return ok
}

// CanOperate covers creating items, receiving stock, dispensing and reports.
func (s Session) CanOperate() bool {
	switch s.Role {
	case RolePharmacy, RoleHeadNurse, RoleAdministrator:
		return true
	}
	return false
}

func (s Session) CanViewResidents() bool { return s.CanOperate() }

func (s Session) CanManageResidents() bool {
	return s.Role == RoleHeadNurse || s.Role == RoleAdministrator
}

func (s Session) CanManageUsers() bool { return s.IsAdmin() }

func (s Session) CanDeleteInventory() bool { return s.IsAdmin() }

// Require returns ErrForbidden unless allowed is true.
func (s Session) Require(allowed bool, action string) error {
	if allowed {
		return nil
	}
	return fmt.Errorf("%w: role %q cannot %s", ErrForbidden, s.Role, action)
}
