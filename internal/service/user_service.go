package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"farmacia-data/internal/domain"
	"farmacia-data/internal/repository"

	"go.uber.org/zap"
)

// defaultUsers 用户表为空时写入
var defaultUsers = []struct {
	username, password string
	role               domain.Role
}{
	{"visita", "visita123", domain.RoleVisitor},
	{"farma", "farma2024", domain.RolePharmacy},
	{"enfermera", "enfermera2024", domain.RoleHeadNurse},
	{"admin", "admin2024", domain.RoleAdministrator},
}

// UserService 登录与用户管理
type UserService struct {
	store  repository.Store
	logger *zap.Logger
}

func NewUserService(st repository.Store, logger *zap.Logger) *UserService {
	return &UserService{store: st, logger: logger}
}

// Login 校验用户名和密码，返回新的 Session
func (s *UserService) Login(ctx context.Context, username, password string) (*domain.Session, error) {
	u, err := s.store.GetUser(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !u.CheckPassword(password) {
		s.logger.Warn("Login failed", zap.String("username", u.Username))
		return nil, domain.ErrInvalidCredentials
	}
	s.logger.Info("Login", zap.String("username", u.Username), zap.String("role", string(u.Role)))
	return &domain.Session{Username: u.Username, Role: u.Role}, nil
}

// SeedDefaults 写入默认账号（仅当没有任何用户时），返回写入数量
func (s *UserService) SeedDefaults(ctx context.Context) (int, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return 0, err
	}
	if len(users) > 0 {
		return 0, nil
	}
	n := 0
	for _, d := range defaultUsers {
		u := domain.User{Username: d.username, Password: domain.HashPassword(d.password), Role: d.role}
		if err := s.store.CreateUser(ctx, &u); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				continue
			}
			return n, err
		}
		n++
	}
	s.logger.Info("Seeded default users", zap.Int("count", n))
	return n, nil
}

func (s *UserService) List(ctx context.Context, sess domain.Session) ([]domain.User, error) {
	if err := sess.Require(sess.CanManageUsers(), "manage users"); err != nil {
		return nil, err
	}
	return s.store.ListUsers(ctx)
}

// Create 新建用户；用户名已存在返回 domain.ErrConflict
func (s *UserService) Create(ctx context.Context, sess domain.Session, username, password, role string) (*domain.User, error) {
	if err := sess.Require(sess.CanManageUsers(), "manage users"); err != nil {
		return nil, err
	}
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrInvalidInput)
	}
	r, ok := domain.ParseRole(role)
	if !ok {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}
	u := domain.User{Username: username, Password: domain.HashPassword(password), Role: r}
	if err := s.store.CreateUser(ctx, &u); err != nil {
		return nil, err
	}
	s.logger.Info("User created", zap.String("username", username), zap.String("by", sess.Username))
	return &u, nil
}

// Update 修改角色；password 为空时保留原密码
func (s *UserService) Update(ctx context.Context, sess domain.Session, username, role, password string) (*domain.User, error) {
	if err := sess.Require(sess.CanManageUsers(), "manage users"); err != nil {
		return nil, err
	}
	u, err := s.store.GetUser(ctx, username)
	if err != nil {
		return nil, err
	}
	if role != "" {
		r, ok := domain.ParseRole(role)
		if !ok {
			return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
		}
		u.Role = r
	}
	if password != "" {
		u.Password = domain.HashPassword(password)
	}
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Delete 管理员不能删除自己
func (s *UserService) Delete(ctx context.Context, sess domain.Session, username string) error {
	if err := sess.Require(sess.CanManageUsers(), "manage users"); err != nil {
		return err
	}
	if username == sess.Username {
		return fmt.Errorf("%w: cannot delete the signed-in user", domain.ErrForbidden)
	}
	if err := s.store.DeleteUser(ctx, username); err != nil {
		return err
	}
	s.logger.Info("User deleted", zap.String("username", username), zap.String("by", sess.Username))
	return nil
}
