package repository

import (
	"database/sql"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS inventory (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		unit          TEXT NOT NULL DEFAULT 'unidades',
		stock         INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
		minimum_stock INTEGER NOT NULL DEFAULT 5 CHECK (minimum_stock >= 0),
		department    TEXT NOT NULL DEFAULT 'Farmacia'
	)`,
	`CREATE TABLE IF NOT EXISTS residents (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		national_id TEXT NOT NULL DEFAULT '',
		floor       TEXT NOT NULL DEFAULT '',
		room        TEXT NOT NULL DEFAULT '',
		guardian    TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS movements (
		id          TEXT PRIMARY KEY,
		recorded_at TEXT NOT NULL,
		type        TEXT NOT NULL,
		resident_id TEXT NOT NULL DEFAULT '',
		item_id     TEXT NOT NULL,
		item_name   TEXT NOT NULL DEFAULT '',
		quantity    INTEGER NOT NULL CHECK (quantity > 0),
		department  TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_movements_resident ON movements (resident_id)`,
	`CREATE TABLE IF NOT EXISTS users (
		username TEXT PRIMARY KEY,
		password TEXT NOT NULL,
		role     TEXT NOT NULL
	)`,
}

// SQLiteStore 嵌入式后端（modernc.org/sqlite，默认）
// 流水按 rowid 排序即插入顺序
type SQLiteStore struct {
	sqlStore
}

// NewSQLiteStore 包装已打开的连接（见 common/database.NewSQLiteDB）
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{sqlStore{
		db: db,
		d: dialect{
			name:      "sqlite",
			schema:    sqliteSchema,
			moveOrder: "rowid",
		},
	}}
}
