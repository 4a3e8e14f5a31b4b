package httpapi

import (
	"net/http"
	"strings"

	"farmacia-data/internal/service"

	"go.uber.org/zap"
)

// AuthHandler 登录
type AuthHandler struct {
	users  *service.UserService
	logger *zap.Logger
}

func NewAuthHandler(users *service.UserService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, logger: logger}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeError(w, err)
		return
	}
	sess, err := h.users.Login(r.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		h.logger.Info("Login rejected", zap.String("username", req.Username), zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"username": sess.Username,
		"role":     sess.Role,
	}))
}
