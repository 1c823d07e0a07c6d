package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client Redis 客户端（隐藏 go-redis 类型）
type Client struct {
	rdb redis.UniversalClient
	cfg *Config
}

// NewClient 创建 Redis 客户端
func NewClient(cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{cfg: cfg}
	if cfg.IsCluster() {
		c.rdb = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:           cfg.Cluster.Addrs,
			Password:        cfg.Cluster.Password,
			MaxIdleConns:    cfg.Pool.MaxIdleConns,
			MaxActiveConns:  cfg.Pool.MaxOpenConns,
			ConnMaxLifetime: cfg.Pool.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Pool.ConnMaxIdleTime,
			DialTimeout:     cfg.Pool.DialTimeout,
			ReadTimeout:     cfg.Pool.ReadTimeout,
			WriteTimeout:    cfg.Pool.WriteTimeout,
			PoolTimeout:     cfg.Pool.PoolTimeout,
		})
		return c, nil
	}

	c.rdb = redis.NewClient(&redis.Options{
		Addr:            fmt.Sprintf("%s:%d", cfg.Standalone.Host, cfg.Standalone.Port),
		Password:        cfg.Standalone.Password,
		DB:              cfg.Standalone.DB,
		MaxIdleConns:    cfg.Pool.MaxIdleConns,
		MaxActiveConns:  cfg.Pool.MaxOpenConns,
		ConnMaxLifetime: cfg.Pool.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Pool.ConnMaxIdleTime,
		DialTimeout:     cfg.Pool.DialTimeout,
		ReadTimeout:     cfg.Pool.ReadTimeout,
		WriteTimeout:    cfg.Pool.WriteTimeout,
		PoolTimeout:     cfg.Pool.PoolTimeout,
	})
	return c, nil
}

// Get 读取原始字节，键不存在返回 ErrNil
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNil
		}
		return nil, fmt.Errorf("get failed: %w", err)
	}
	return val, nil
}

// Set 写入原始字节，expiration 为 0 表示不过期
func (c *Client) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	if err := c.rdb.Set(ctx, key, value, expiration).Err(); err != nil {
		return fmt.Errorf("set failed: %w", err)
	}
	return nil
}

// Del 删除键
func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	n, err := c.rdb.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("del failed: %w", err)
	}
	return n, nil
}

// Ping 测试连接
func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// PoolStats 获取连接池统计信息
func (c *Client) PoolStats() PoolStats {
	stats := c.rdb.PoolStats()
	return PoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
		StaleConns: stats.StaleConns,
	}
}

// Close 关闭客户端
func (c *Client) Close() error {
	return c.rdb.Close()
}
