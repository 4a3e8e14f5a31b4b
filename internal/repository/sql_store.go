package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"farmacia-data/internal/domain"
)

// dialect 描述 PostgreSQL 与 SQLite 之间的差异（占位符、建表语句、流水排序列）
type dialect struct {
	name      string
	numbered  bool // true: $1, $2 ...; false: ?
	schema    []string
	moveOrder string
}

// rebind converts ? placeholders into the dialect's form.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// sqlStore database/sql 实现，PostgresStore 和 SQLiteStore 共用
type sqlStore struct {
	db *sql.DB
	d  dialect
}

var _ Store = (*sqlStore)(nil)

// storeErr wraps backend failures so callers can match domain.ErrStoreUnavailable.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}

// Migrate 创建表（幂等）
func (s *sqlStore) Migrate(ctx context.Context) error {
	for _, stmt := range s.d.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return storeErr("migrate "+s.d.name, err)
		}
	}
	return nil
}

func (s *sqlStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return storeErr("ping", err)
	}
	return nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

// ========== Inventory ==========

const inventoryColumns = `id, name, unit, stock, minimum_stock, department`

func scanInventory(row interface{ Scan(...any) error }) (domain.InventoryItem, error) {
	var it domain.InventoryItem
	var dept string
	if err := row.Scan(&it.ID, &it.Name, &it.Unit, &it.Stock, &it.MinimumStock, &dept); err != nil {
		return it, err
	}
	it.Department = domain.Department(dept)
	return it, nil
}

func (s *sqlStore) ListInventory(ctx context.Context) ([]domain.InventoryItem, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+inventoryColumns+` FROM inventory ORDER BY name, id`)
	if err != nil {
		return nil, storeErr("list inventory", err)
	}
	defer rows.Close()

	items := []domain.InventoryItem{}
	for rows.Next() {
		it, err := scanInventory(rows)
		if err != nil {
			return nil, storeErr("scan inventory", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate inventory", err)
	}
	return items, nil
}

func (s *sqlStore) GetInventoryItem(ctx context.Context, id string) (*domain.InventoryItem, error) {
	return s.getInventoryItem(ctx, s.db, id)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *sqlStore) getInventoryItem(ctx context.Context, q queryRower, id string) (*domain.InventoryItem, error) {
	it, err := scanInventory(q.QueryRowContext(ctx,
		s.d.rebind(`SELECT `+inventoryColumns+` FROM inventory WHERE id = ?`), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("inventory item %q: %w", id, domain.ErrNotFound)
		}
		return nil, storeErr("get inventory item", err)
	}
	return &it, nil
}

func (s *sqlStore) CreateInventoryItem(ctx context.Context, item *domain.InventoryItem) error {
	if item.ID == "" {
		item.ID = domain.NewID()
	}
	_, err := s.db.ExecContext(ctx,
		s.d.rebind(`INSERT INTO inventory (`+inventoryColumns+`) VALUES (?, ?, ?, ?, ?, ?)`),
		item.ID, item.Name, item.Unit, item.Stock, item.MinimumStock, string(item.Department),
	)
	if err != nil {
		return storeErr("create inventory item", err)
	}
	return nil
}

func (s *sqlStore) UpdateInventoryItem(ctx context.Context, item *domain.InventoryItem) error {
	res, err := s.db.ExecContext(ctx,
		s.d.rebind(`UPDATE inventory SET name = ?, unit = ?, minimum_stock = ?, department = ? WHERE id = ?`),
		item.Name, item.Unit, item.MinimumStock, string(item.Department), item.ID,
	)
	if err != nil {
		return storeErr("update inventory item", err)
	}
	return requireAffected(res, "inventory item", item.ID)
}

func (s *sqlStore) DeleteInventoryItem(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.d.rebind(`DELETE FROM inventory WHERE id = ?`), id)
	if err != nil {
		return storeErr("delete inventory item", err)
	}
	return requireAffected(res, "inventory item", id)
}

func (s *sqlStore) UpdateStock(ctx context.Context, id string, delta int) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storeErr("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	stock, err := s.updateStockTx(ctx, tx, id, delta)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, storeErr("commit", err)
	}
	return stock, nil
}

// updateStockTx 条件更新：0 <= stock + delta <= MaxStock 才会生效，受影响行数为 0 时区分不存在/超上限/库存不足
func (s *sqlStore) updateStockTx(ctx context.Context, tx *sql.Tx, id string, delta int) (int, error) {
	res, err := tx.ExecContext(ctx,
		s.d.rebind(`UPDATE inventory SET stock = stock + ? WHERE id = ? AND stock + ? BETWEEN 0 AND ?`),
		delta, id, delta, domain.MaxStock,
	)
	if err != nil {
		return 0, storeErr("update stock", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storeErr("update stock rows affected", err)
	}
	if n == 0 {
		if _, err := s.getInventoryItem(ctx, tx, id); err != nil {
			return 0, err
		}
		if delta > 0 {
			return 0, fmt.Errorf("inventory item %q: stock would exceed %d: %w", id, domain.MaxStock, domain.ErrInvalidQuantity)
		}
		return 0, fmt.Errorf("inventory item %q: %w", id, domain.ErrInsufficientStock)
	}

	var stock int
	if err := tx.QueryRowContext(ctx, s.d.rebind(`SELECT stock FROM inventory WHERE id = ?`), id).Scan(&stock); err != nil {
		return 0, storeErr("read stock", err)
	}
	return stock, nil
}

// ========== Residents ==========

const residentColumns = `id, name, national_id, floor, room, guardian`

func scanResident(row interface{ Scan(...any) error }) (domain.Resident, error) {
	var r domain.Resident
	err := row.Scan(&r.ID, &r.Name, &r.NationalID, &r.Floor, &r.Room, &r.Guardian)
	return r, err
}

func (s *sqlStore) ListResidents(ctx context.Context) ([]domain.Resident, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+residentColumns+` FROM residents ORDER BY name, id`)
	if err != nil {
		return nil, storeErr("list residents", err)
	}
	defer rows.Close()

	residents := []domain.Resident{}
	for rows.Next() {
		r, err := scanResident(rows)
		if err != nil {
			return nil, storeErr("scan resident", err)
		}
		residents = append(residents, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate residents", err)
	}
	return residents, nil
}

func (s *sqlStore) GetResident(ctx context.Context, id string) (*domain.Resident, error) {
	r, err := scanResident(s.db.QueryRowContext(ctx,
		s.d.rebind(`SELECT `+residentColumns+` FROM residents WHERE id = ?`), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("resident %q: %w", id, domain.ErrNotFound)
		}
		return nil, storeErr("get resident", err)
	}
	return &r, nil
}

func (s *sqlStore) CreateResident(ctx context.Context, r *domain.Resident) error {
	if r.ID == "" {
		r.ID = domain.NewID()
	}
	_, err := s.db.ExecContext(ctx,
		s.d.rebind(`INSERT INTO residents (`+residentColumns+`) VALUES (?, ?, ?, ?, ?, ?)`),
		r.ID, r.Name, r.NationalID, r.Floor, r.Room, r.Guardian,
	)
	if err != nil {
		return storeErr("create resident", err)
	}
	return nil
}

func (s *sqlStore) UpdateResident(ctx context.Context, r *domain.Resident) error {
	res, err := s.db.ExecContext(ctx,
		s.d.rebind(`UPDATE residents SET name = ?, national_id = ?, floor = ?, room = ?, guardian = ? WHERE id = ?`),
		r.Name, r.NationalID, r.Floor, r.Room, r.Guardian, r.ID,
	)
	if err != nil {
		return storeErr("update resident", err)
	}
	return requireAffected(res, "resident", r.ID)
}

func (s *sqlStore) DeleteResident(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.d.rebind(`DELETE FROM residents WHERE id = ?`), id)
	if err != nil {
		return storeErr("delete resident", err)
	}
	return requireAffected(res, "resident", id)
}

// ========== Movements ==========

const movementColumns = `id, recorded_at, type, resident_id, item_id, item_name, quantity, department`

func (s *sqlStore) ListMovements(ctx context.Context) ([]domain.Movement, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+movementColumns+` FROM movements ORDER BY `+s.d.moveOrder)
	if err != nil {
		return nil, storeErr("list movements", err)
	}
	defer rows.Close()

	movements := []domain.Movement{}
	for rows.Next() {
		var m domain.Movement
		var typ string
		if err := rows.Scan(&m.ID, &m.Timestamp, &typ, &m.ResidentID, &m.ItemID, &m.ItemName, &m.Quantity, &m.DepartmentSnapshot); err != nil {
			return nil, storeErr("scan movement", err)
		}
		m.Type = domain.MovementType(typ)
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate movements", err)
	}
	return movements, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *sqlStore) insertMovement(ctx context.Context, e execer, m *domain.Movement) error {
	if m.ID == "" {
		m.ID = domain.NewID()
	}
	_, err := e.ExecContext(ctx,
		s.d.rebind(`INSERT INTO movements (`+movementColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		m.ID, m.Timestamp, string(m.Type), m.ResidentID, m.ItemID, m.ItemName, m.Quantity, m.DepartmentSnapshot,
	)
	if err != nil {
		return storeErr("append movement", err)
	}
	return nil
}

func (s *sqlStore) AppendMovement(ctx context.Context, m *domain.Movement) (string, error) {
	if err := s.insertMovement(ctx, s.db, m); err != nil {
		return "", err
	}
	return m.ID, nil
}

func (s *sqlStore) ApplyMovement(ctx context.Context, m *domain.Movement) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storeErr("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	stock, err := s.updateStockTx(ctx, tx, m.ItemID, m.Delta())
	if err != nil {
		return 0, err
	}
	if err := s.insertMovement(ctx, tx, m); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, storeErr("commit", err)
	}
	return stock, nil
}

// ========== Users ==========

func (s *sqlStore) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT username, password, role FROM users ORDER BY username`)
	if err != nil {
		return nil, storeErr("list users", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		var u domain.User
		var role string
		if err := rows.Scan(&u.Username, &u.Password, &role); err != nil {
			return nil, storeErr("scan user", err)
		}
		u.Role = domain.Role(role)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate users", err)
	}
	return users, nil
}

func (s *sqlStore) GetUser(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	var role string
	err := s.db.QueryRowContext(ctx,
		s.d.rebind(`SELECT username, password, role FROM users WHERE username = ?`), username,
	).Scan(&u.Username, &u.Password, &role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %q: %w", username, domain.ErrNotFound)
		}
		return nil, storeErr("get user", err)
	}
	u.Role = domain.Role(role)
	return &u, nil
}

func (s *sqlStore) CreateUser(ctx context.Context, u *domain.User) error {
	res, err := s.db.ExecContext(ctx,
		s.d.rebind(`INSERT INTO users (username, password, role) VALUES (?, ?, ?) ON CONFLICT (username) DO NOTHING`),
		u.Username, u.Password, string(u.Role),
	)
	if err != nil {
		return storeErr("create user", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("create user rows affected", err)
	}
	if n == 0 {
		return fmt.Errorf("user %q: %w", u.Username, domain.ErrConflict)
	}
	return nil
}

func (s *sqlStore) UpdateUser(ctx context.Context, u *domain.User) error {
	res, err := s.db.ExecContext(ctx,
		s.d.rebind(`UPDATE users SET password = ?, role = ? WHERE username = ?`),
		u.Password, string(u.Role), u.Username,
	)
	if err != nil {
		return storeErr("update user", err)
	}
	return requireAffected(res, "user", u.Username)
}

func (s *sqlStore) DeleteUser(ctx context.Context, username string) error {
	res, err := s.db.ExecContext(ctx, s.d.rebind(`DELETE FROM users WHERE username = ?`), username)
	if err != nil {
		return storeErr("delete user", err)
	}
	return requireAffected(res, "user", username)
}

func requireAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr(kind+" rows affected", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", kind, id, domain.ErrNotFound)
	}
	return nil
}
