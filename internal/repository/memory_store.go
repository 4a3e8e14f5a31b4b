package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"farmacia-data/internal/domain"
)

// MemoryStore: 进程内存储，用于测试和 STORE_BACKEND=memory
// - 所有操作在同一把锁下完成，ApplyMovement 天然原子
// - movements 保持插入顺序
type MemoryStore struct {
	mu sync.RWMutex

	inventory map[string]domain.InventoryItem
	residents map[string]domain.Resident
	movements []domain.Movement
	users     map[string]domain.User
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		inventory: map[string]domain.InventoryItem{},
		residents: map[string]domain.Resident{},
		users:     map[string]domain.User{},
	}
}

func (s *MemoryStore) Ping(context.Context) error { return nil }
func (s *MemoryStore) Close() error               { return nil }

// ---- inventory ----

func (s *MemoryStore) ListInventory(context.Context) ([]domain.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.InventoryItem, 0, len(s.inventory))
	for _, it := range s.inventory {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) GetInventoryItem(_ context.Context, id string) (*domain.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.inventory[id]
	if !ok {
		return nil, fmt.Errorf("inventory item %q: %w", id, domain.ErrNotFound)
	}
	return &it, nil
}

func (s *MemoryStore) CreateInventoryItem(_ context.Context, item *domain.InventoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.ID == "" {
		item.ID = domain.NewID()
	}
	if _, ok := s.inventory[item.ID]; ok {
		return fmt.Errorf("inventory item %q: %w", item.ID, domain.ErrConflict)
	}
	s.inventory[item.ID] = *item
	return nil
}

func (s *MemoryStore) UpdateInventoryItem(_ context.Context, item *domain.InventoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.inventory[item.ID]
	if !ok {
		return fmt.Errorf("inventory item %q: %w", item.ID, domain.ErrNotFound)
	}
	cur.Name = item.Name
	cur.Unit = item.Unit
	cur.MinimumStock = item.MinimumStock
	cur.Department = item.Department
	s.inventory[item.ID] = cur
	return nil
}

func (s *MemoryStore) DeleteInventoryItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inventory[id]; !ok {
		return fmt.Errorf("inventory item %q: %w", id, domain.ErrNotFound)
	}
	delete(s.inventory, id)
	return nil
}

func (s *MemoryStore) UpdateStock(_ context.Context, id string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateStockLocked(id, delta)
}

func (s *MemoryStore) updateStockLocked(id string, delta int) (int, error) {
	it, ok := s.inventory[id]
	if !ok {
		return 0, fmt.Errorf("inventory item %q: %w", id, domain.ErrNotFound)
	}
	if delta > 0 && it.Stock > domain.MaxStock-delta {
		return 0, fmt.Errorf("inventory item %q: stock would exceed %d: %w", id, domain.MaxStock, domain.ErrInvalidQuantity)
	}
	if it.Stock+delta < 0 {
		return 0, fmt.Errorf("inventory item %q: %w", id, domain.ErrInsufficientStock)
	}
	it.Stock += delta
	s.inventory[id] = it
	return it.Stock, nil
}

// ---- residents ----

func (s *MemoryStore) ListResidents(context.Context) ([]domain.Resident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Resident, 0, len(s.residents))
	for _, r := range s.residents {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) GetResident(_ context.Context, id string) (*domain.Resident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.residents[id]
	if !ok {
		return nil, fmt.Errorf("resident %q: %w", id, domain.ErrNotFound)
	}
	return &r, nil
}

func (s *MemoryStore) CreateResident(_ context.Context, r *domain.Resident) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = domain.NewID()
	}
	if _, ok := s.residents[r.ID]; ok {
		return fmt.Errorf("resident %q: %w", r.ID, domain.ErrConflict)
	}
	s.residents[r.ID] = *r
	return nil
}

func (s *MemoryStore) UpdateResident(_ context.Context, r *domain.Resident) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.residents[r.ID]; !ok {
		return fmt.Errorf("resident %q: %w", r.ID, domain.ErrNotFound)
	}
	s.residents[r.ID] = *r
	return nil
}

func (s *MemoryStore) DeleteResident(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.residents[id]; !ok {
		return fmt.Errorf("resident %q: %w", id, domain.ErrNotFound)
	}
	delete(s.residents, id)
	return nil
}

// ---- movements ----

func (s *MemoryStore) ListMovements(context.Context) ([]domain.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Movement, len(s.movements))
	copy(out, s.movements)
	return out, nil
}

func (s *MemoryStore) AppendMovement(_ context.Context, m *domain.Movement) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(m), nil
}

func (s *MemoryStore) appendLocked(m *domain.Movement) string {
	if m.ID == "" {
		m.ID = domain.NewID()
	}
	s.movements = append(s.movements, *m)
	return m.ID
}

func (s *MemoryStore) ApplyMovement(_ context.Context, m *domain.Movement) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stock, err := s.updateStockLocked(m.ItemID, m.Delta())
	if err != nil {
		return 0, err
	}
	s.appendLocked(m)
	return stock, nil
}

// ---- users ----

func (s *MemoryStore) ListUsers(context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *MemoryStore) GetUser(_ context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return nil, fmt.Errorf("user %q: %w", username, domain.ErrNotFound)
	}
	return &u, nil
}

func (s *MemoryStore) CreateUser(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Username]; ok {
		return fmt.Errorf("user %q: %w", u.Username, domain.ErrConflict)
	}
	s.users[u.Username] = *u
	return nil
}

func (s *MemoryStore) UpdateUser(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Username]; !ok {
		return fmt.Errorf("user %q: %w", u.Username, domain.ErrNotFound)
	}
	s.users[u.Username] = *u
	return nil
}

func (s *MemoryStore) DeleteUser(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; !ok {
		return fmt.Errorf("user %q: %w", username, domain.ErrNotFound)
	}
	delete(s.users, username)
	return nil
}
