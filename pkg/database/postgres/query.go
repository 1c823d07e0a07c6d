package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

func (c *Client) applyQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.QueryTimeout > 0 {
		return context.WithTimeout(ctx, c.cfg.QueryTimeout)
	}
	return ctx, func() {}
}

// QueryOne 查询单条记录，按 db tag（缺省为字段名）映射到 T
func QueryOne[T any](c *Client, ctx context.Context, sql string, args ...any) (*T, error) {
	ctx, cancel := c.applyQueryTimeout(ctx)
	defer cancel()

	rows, err := c.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	v, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByNameLax[T])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	return v, nil
}

// QueryBuilt 执行 squirrel 构建的查询
func QueryBuilt[T any](c *Client, ctx context.Context, b squirrel.Sqlizer) (*T, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query failed: %w", err)
	}
	return QueryOne[T](c, ctx, sql, args...)
}

// Exec 执行写操作（INSERT/UPDATE/DELETE），返回影响行数
func (c *Client) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	ctx, cancel := c.applyQueryTimeout(ctx)
	defer cancel()

	result, err := c.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("exec failed: %w", err)
	}
	return result.RowsAffected(), nil
}

// ExecBuilt 执行 squirrel 构建的写操作
func (c *Client) ExecBuilt(ctx context.Context, b squirrel.Sqlizer) (int64, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query failed: %w", err)
	}
	return c.Exec(ctx, sql, args...)
}

// QueryRowBuilt 执行 squirrel 构建的单行查询并扫描到 dest，无结果返回 ErrNoRows
func (c *Client) QueryRowBuilt(ctx context.Context, b squirrel.Sqlizer, dest ...any) error {
	sql, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build query failed: %w", err)
	}

	ctx, cancel := c.applyQueryTimeout(ctx)
	defer cancel()

	if err := c.pool.QueryRow(ctx, sql, args...).Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNoRows
		}
		return fmt.Errorf("query row failed: %w", err)
	}
	return nil
}
