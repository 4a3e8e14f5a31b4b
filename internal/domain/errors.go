package domain

import "errors"

var (
	// ErrInsufficientStock 出库数量超过当前库存（不做任何修改）
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrNotFound 引用的记录不存在
	ErrNotFound = errors.New("not found")
	// ErrMalformedTimestamp 历史记录日期无法解析（报表中跳过该行）
	ErrMalformedTimestamp = errors.New("malformed timestamp")
	// ErrStoreUnavailable 存储后端不可用
	ErrStoreUnavailable = errors.New("store unavailable")

	ErrInvalidQuantity    = errors.New("quantity must be a positive integer")
	ErrInvalidInput       = errors.New("invalid input")
	ErrConflict           = errors.New("already exists")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
