package httpapi

import (
	"net/http"
	"strings"

	"farmacia-data/internal/domain"
)

// 会话信息由前端登录后通过请求头回传
// 本服务不校验这些头：必须部署在负责认证的网关之后，由网关设置 X-User-Name / X-User-Role 并丢弃客户端自带的值
const (
	HeaderUserName       = "X-User-Name"
	HeaderUserRole       = "X-User-Role"
	HeaderLastResidentID = "X-Last-Resident-Id"
	HeaderLastItemID     = "X-Last-Item-Id"
)

// sessionFromReq 构造调用方会话；角色无法识别时保留原值，由权限检查拒绝
func sessionFromReq(r *http.Request) domain.Session {
	role := strings.TrimSpace(r.Header.Get(HeaderUserRole))
	if parsed, ok := domain.ParseRole(role); ok {
		role = string(parsed)
	}
	return domain.Session{
		Username:       strings.TrimSpace(r.Header.Get(HeaderUserName)),
		Role:           domain.Role(role),
		LastResidentID: strings.TrimSpace(r.Header.Get(HeaderLastResidentID)),
		LastItemID:     strings.TrimSpace(r.Header.Get(HeaderLastItemID)),
	}
}

// writeSession 回写出库后更新的上次选择
func writeSession(w http.ResponseWriter, sess domain.Session) {
	w.Header().Set(HeaderLastResidentID, sess.LastResidentID)
	w.Header().Set(HeaderLastItemID, sess.LastItemID)
}
