package postgres

import (
	"time"

	"github.com/Masterminds/squirrel"
)

// PoolStats 连接池统计信息
type PoolStats struct {
	AcquireCount    int64
	AcquireDuration time.Duration
	AcquiredConns   int32
	IdleConns       int32
	MaxConns        int32
	TotalConns      int32
}

// QueryBuilder SQL 查询构建器（基于 squirrel）
var QueryBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
