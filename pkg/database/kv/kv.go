// Package kv 持久化键值存储抽象，提供 get/set/compare-and-swap 三种原子操作
package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound 键不存在
	ErrNotFound = errors.New("kv: key not found")
	// ErrClosed 存储已关闭
	ErrClosed = errors.New("kv: store closed")
)

// Store 持久化键值存储
type Store interface {
	// Get 读取键值，不存在时返回 ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)
	// Set 无条件写入
	Set(ctx context.Context, key string, value []byte) error
	// CompareAndSwap 当前值等于 old 时写入 new；old 为 nil 表示要求键不存在
	CompareAndSwap(ctx context.Context, key string, old, new []byte) (bool, error)
	Close() error
}

// Driver 存储后端类型
type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverRedis    Driver = "redis"
	DriverPostgres Driver = "postgres"
)

// ParseDriver 解析后端名称，空值为 memory
func ParseDriver(s string) (Driver, error) {
	switch d := Driver(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return DriverMemory, nil
	case DriverMemory, DriverRedis, DriverPostgres:
		return d, nil
	default:
		return "", fmt.Errorf("kv: unknown driver %q", s)
	}
}
