package service

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// isDuplicateKey 唯一键冲突，兼容未开启 TranslateError 的连接
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key value")
}
