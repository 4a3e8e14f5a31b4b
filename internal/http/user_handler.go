package httpapi

import (
	"net/http"
	"strings"

	"farmacia-data/internal/service"

	"go.uber.org/zap"
)

const usersPrefix = "/api/v1/users/"

// UserHandler 用户管理（仅管理员）
type UserHandler struct {
	users  *service.UserService
	logger *zap.Logger
}

func NewUserHandler(users *service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

func (h *UserHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == "/api/v1/users" && r.Method == http.MethodGet:
		h.List(w, r)
	case path == "/api/v1/users" && r.Method == http.MethodPost:
		h.Create(w, r)
	case strings.HasPrefix(path, usersPrefix):
		username := pathID(path, usersPrefix)
		if username == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodPut:
			h.Update(w, r, username)
		case http.MethodDelete:
			h.Delete(w, r, username)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type userRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.users.List(r.Context(), sessionFromReq(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"items": list,
		"total": len(list),
	}))
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeError(w, err)
		return
	}
	u, err := h.users.Create(r.Context(), sessionFromReq(r), req.Username, req.Password, req.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(u))
}

// Update 修改角色；password 为空时保留原密码
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request, username string) {
	var req userRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeError(w, err)
		return
	}
	u, err := h.users.Update(r.Context(), sessionFromReq(r), username, req.Role, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(u))
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request, username string) {
	if err := h.users.Delete(r.Context(), sessionFromReq(r), username); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"username": username}))
}
