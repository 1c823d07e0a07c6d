package postgres

import (
	"errors"
	"fmt"
)

var (
	// ErrNilConfig 配置为空
	ErrNilConfig = errors.New("postgres: config is nil")

	// ErrInvalidConfig 配置无效
	ErrInvalidConfig = errors.New("postgres: invalid config")

	// ErrNoRows 没有查询到数据
	ErrNoRows = errors.New("postgres: no rows in result set")
)

func wrapInvalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, reason)
}
