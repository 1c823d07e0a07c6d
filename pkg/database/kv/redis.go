package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/strawxiguan/zzz-gachalog/pkg/database/redis"
)

// casScript ARGV[1]: '0' 要求键不存在，'1' 要求当前值等于 ARGV[2]；ARGV[3] 为新值
var casScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if ARGV[1] == '0' then
  if cur then return 0 end
else
  if not cur or cur ~= ARGV[2] then return 0 end
end
redis.call('SET', KEYS[1], ARGV[3])
return 1
`)

// RedisClient RedisStore 依赖的最小 Redis 能力，*redis.Client 满足该接口
type RedisClient interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Run(ctx context.Context, s *redis.Script, keys []string, args ...interface{}) (interface{}, error)
	Close() error
}

var _ RedisClient = (*redis.Client)(nil)

var _ Store = (*RedisStore)(nil)

// RedisStore 基于 Redis 的存储，CAS 通过 Lua 脚本保证原子性
type RedisStore struct {
	client RedisClient
	prefix string
}

// NewRedisStore prefix 会拼接在每个键前，例如 "gachalog:"
func NewRedisStore(client RedisClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.client.Get(ctx, s.prefix+key)
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, s.prefix+key, value, 0)
}

func (s *RedisStore) CompareAndSwap(ctx context.Context, key string, old, new []byte) (bool, error) {
	mode := "1"
	if old == nil {
		mode = "0"
	}
	if new == nil {
		new = []byte{}
	}

	res, err := s.client.Run(ctx, casScript, []string{s.prefix + key}, mode, old, new)
	if err != nil {
		return false, err
	}
	n, ok := res.(int64)
	if !ok {
		return false, fmt.Errorf("kv: unexpected cas reply %T", res)
	}
	return n == 1, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
