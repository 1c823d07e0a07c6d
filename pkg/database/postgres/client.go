package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Client PostgreSQL 客户端
type Client struct {
	pool *pgxpool.Pool
	cfg  *Config
}

// New 创建 PostgreSQL 客户端，cfg 可只包含部分字段
func New(cfg *Config) (*Client, error) {
	merged, err := MergeConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(buildConnString(merged))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool config: %w", err)
	}
	poolConfig.MaxConns = merged.Pool.MaxConns
	poolConfig.MinConns = merged.Pool.MinConns
	poolConfig.MaxConnLifetime = merged.Pool.MaxConnLifetime
	poolConfig.MaxConnIdleTime = merged.Pool.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = merged.Pool.HealthCheckPeriod

	ctx, cancel := context.WithTimeout(context.Background(), merged.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Client{pool: pool, cfg: merged}, nil
}

func buildConnString(cfg *Config) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		cfg.DB.Host,
		cfg.DB.Port,
		cfg.DB.User,
		cfg.DB.Password,
		cfg.DB.DBName,
		cfg.DB.SSLMode,
		int(cfg.ConnectTimeout.Seconds()),
	)
}

// Ping 检查数据库连接
func (c *Client) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

// Stats 连接池状态
func (c *Client) Stats() *PoolStats {
	stat := c.pool.Stat()
	return &PoolStats{
		AcquireCount:    stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration(),
		AcquiredConns:   stat.AcquiredConns(),
		IdleConns:       stat.IdleConns(),
		MaxConns:        stat.MaxConns(),
		TotalConns:      stat.TotalConns(),
	}
}

// Close 关闭连接池
func (c *Client) Close() error {
	c.pool.Close()
	return nil
}
