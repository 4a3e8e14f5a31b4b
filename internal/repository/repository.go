package repository

import (
	"context"

	"farmacia-data/internal/domain"
)

// InventoryRepo 库存物品
type InventoryRepo interface {
	ListInventory(ctx context.Context) ([]domain.InventoryItem, error)
	// GetInventoryItem returns domain.ErrNotFound when the item does not exist.
	GetInventoryItem(ctx context.Context, id string) (*domain.InventoryItem, error)
	// CreateInventoryItem assigns an ID when item.ID is empty.
	CreateInventoryItem(ctx context.Context, item *domain.InventoryItem) error
	// UpdateInventoryItem updates every field except Stock (stock only changes through movements).
	UpdateInventoryItem(ctx context.Context, item *domain.InventoryItem) error
	DeleteInventoryItem(ctx context.Context, id string) error
	// UpdateStock applies delta atomically and returns the new stock.
	// Returns domain.ErrInsufficientStock when the result would be negative and
	// domain.ErrInvalidQuantity when it would exceed domain.MaxStock (no change is made).
	// 单独的库存原语；台账的出入库只走 ApplyMovement（库存与流水一起提交）
	UpdateStock(ctx context.Context, id string, delta int) (int, error)
}

// ResidentsRepo 住户
type ResidentsRepo interface {
	ListResidents(ctx context.Context) ([]domain.Resident, error)
	GetResident(ctx context.Context, id string) (*domain.Resident, error)
	CreateResident(ctx context.Context, r *domain.Resident) error
	UpdateResident(ctx context.Context, r *domain.Resident) error
	DeleteResident(ctx context.Context, id string) error
}

// MovementsRepo 库存流水（只追加）
type MovementsRepo interface {
	// ListMovements returns movements in insertion order.
	ListMovements(ctx context.Context) ([]domain.Movement, error)
	// AppendMovement 只追加流水、不改库存（补录历史数据用）；台账不调用
	AppendMovement(ctx context.Context, m *domain.Movement) (string, error)
	// ApplyMovement is UpdateStock(m.ItemID, m.Delta()) followed by AppendMovement(m) as one unit:
	// either both are committed or neither is. Returns the new stock.
	ApplyMovement(ctx context.Context, m *domain.Movement) (int, error)
}

// UsersRepo 登录用户
type UsersRepo interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	GetUser(ctx context.Context, username string) (*domain.User, error)
	// CreateUser returns domain.ErrConflict when the username is taken.
	CreateUser(ctx context.Context, u *domain.User) error
	UpdateUser(ctx context.Context, u *domain.User) error
	DeleteUser(ctx context.Context, username string) error
}

// Store 记录存储（四类记录），后端可替换：memory / sqlite / postgres
type Store interface {
	InventoryRepo
	ResidentsRepo
	MovementsRepo
	UsersRepo

	Ping(ctx context.Context) error
	Close() error
}
