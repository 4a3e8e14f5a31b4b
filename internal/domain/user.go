package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Role 用户角色，唯一的授权输入
type Role string

const (
	RoleVisitor       Role = "Visita"
	RolePharmacy      Role = "Farmacia"
	RoleHeadNurse     Role = "Enfermera Jefe"
	RoleAdministrator Role = "Administrador"
)

func Roles() []Role {
	return []Role{RoleVisitor, RolePharmacy, RoleHeadNurse, RoleAdministrator}
}

func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "visita", "visitor":
		return RoleVisitor, true
	case "farmacia", "pharmacy":
		return RolePharmacy, true
	case "enfermera jefe", "headnurse", "head nurse", "head_nurse":
		return RoleHeadNurse, true
	case "administrador", "administrator", "admin":
		return RoleAdministrator, true
	default:
		return "", false
	}
}

// User 登录用户
// Password 保存 HashPassword 的结果，不保存明文
type User struct {
	Username string `json:"username" db:"username"`
	Password string `json:"-" db:"password"`
	Role     Role   `json:"role" db:"role"`
}

// HashPassword hashes password only (hex sha256)
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// CheckPassword compares a plaintext password with the stored digest.
func (u User) CheckPassword(password string) bool {
	return u.Password == HashPassword(password)
}
