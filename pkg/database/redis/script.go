package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Script Lua 脚本，优先 EVALSHA，NOSCRIPT 时回退到 EVAL
type Script struct {
	src    string
	script *redis.Script
}

// NewScript 创建脚本
func NewScript(src string) *Script {
	return &Script{
		src:    src,
		script: redis.NewScript(src),
	}
}

// Source 脚本源码
func (s *Script) Source() string {
	return s.src
}

// Run 执行脚本，脚本返回 nil 时返回 ErrNil
func (c *Client) Run(ctx context.Context, s *Script, keys []string, args ...interface{}) (interface{}, error) {
	res, err := s.script.Run(ctx, c.rdb, keys, args...).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNil
		}
		return nil, fmt.Errorf("script run failed: %w", err)
	}
	return res, nil
}

// Eval 执行一次性 Lua 脚本
func (c *Client) Eval(ctx context.Context, src string, keys []string, args ...interface{}) (interface{}, error) {
	res, err := c.rdb.Eval(ctx, src, keys, args...).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNil
		}
		return nil, fmt.Errorf("eval failed: %w", err)
	}
	return res, nil
}
