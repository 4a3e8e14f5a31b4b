package domain

import (
	"strings"

	"github.com/google/uuid"
)

const idLength = 12

// NewID 生成短 ID（随机 UUID 的前 12 位十六进制字符）
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:idLength]
}
