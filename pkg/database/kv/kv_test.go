package kv

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/strawxiguan/zzz-gachalog/pkg/database/postgres"
	"github.com/strawxiguan/zzz-gachalog/pkg/database/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis 在内存中模拟 GET/SET 与 CAS 脚本
type fakeRedis struct {
	mu      sync.Mutex
	data    map[string][]byte
	scripts []string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string][]byte)}
}

func (f *fakeRedis) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return nil, redis.ErrNil
	}
	return bytes.Clone(v), nil
}

func (f *fakeRedis) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = bytes.Clone(value)
	return nil
}

func (f *fakeRedis) Run(_ context.Context, s *redis.Script, keys []string, args ...interface{}) (interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts = append(f.scripts, s.Source())

	key := keys[0]
	mode := args[0].(string)
	old, _ := args[1].([]byte)
	next := args[2].([]byte)

	cur, ok := f.data[key]
	if mode == "0" && ok {
		return int64(0), nil
	}
	if mode == "1" && (!ok || !bytes.Equal(cur, old)) {
		return int64(0), nil
	}
	f.data[key] = bytes.Clone(next)
	return int64(1), nil
}

func (f *fakeRedis) Close() error { return nil }

// fakePostgres 解析 squirrel 生成的 SQL，模拟单表行为
type fakePostgres struct {
	mu   sync.Mutex
	rows map[string][]byte
	sqls []string
}

func newFakePostgres() *fakePostgres {
	return &fakePostgres{rows: make(map[string][]byte)}
}

func (f *fakePostgres) Exec(_ context.Context, sql string, _ ...any) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sqls = append(f.sqls, sql)
	return 0, nil
}

func (f *fakePostgres) ExecBuilt(_ context.Context, b squirrel.Sqlizer) (int64, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.sqls = append(f.sqls, sql)

	switch {
	case strings.HasPrefix(sql, "INSERT") && strings.Contains(sql, "DO NOTHING"):
		key := args[0].(string)
		if _, ok := f.rows[key]; ok {
			return 0, nil
		}
		f.rows[key] = bytes.Clone(args[1].([]byte))
		return 1, nil
	case strings.HasPrefix(sql, "INSERT"):
		f.rows[args[0].(string)] = bytes.Clone(args[1].([]byte))
		return 1, nil
	case strings.HasPrefix(sql, "UPDATE"):
		// SET value = $1, updated_at = now() WHERE key = $2 AND value = $3
		key := args[1].(string)
		cur, ok := f.rows[key]
		if !ok || !bytes.Equal(cur, args[2].([]byte)) {
			return 0, nil
		}
		f.rows[key] = bytes.Clone(args[0].([]byte))
		return 1, nil
	}
	return 0, nil
}

func (f *fakePostgres) QueryRowBuilt(_ context.Context, b squirrel.Sqlizer, dest ...any) error {
	_, args, err := b.ToSql()
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.rows[args[0].(string)]
	if !ok {
		return postgres.ErrNoRows
	}
	*(dest[0].(*[]byte)) = bytes.Clone(v)
	return nil
}

func (f *fakePostgres) Close() error { return nil }

func storeContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	// 键不存在时的 CAS
	ok, err := s.CompareAndSwap(ctx, "k", nil, []byte("v1"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.CompareAndSwap(ctx, "k", nil, []byte("other"))
	require.NoError(t, err)
	assert.False(t, ok)

	// 旧值不匹配
	ok, err = s.CompareAndSwap(ctx, "k", []byte("stale"), []byte("v2"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.CompareAndSwap(ctx, "k", []byte("v1"), []byte("v2"))
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	require.NoError(t, s.Set(ctx, "k", []byte("v3")))
	got, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v3"), got)

	// 空值表示存在
	ok, err = s.CompareAndSwap(ctx, "empty", nil, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	got, err = s.Get(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	storeContract(t, s)
	assert.Equal(t, 2, s.Len())

	require.NoError(t, s.Close())
	_, err := s.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMemoryStore_ConcurrentCAS(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	wins := make(chan int, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := s.CompareAndSwap(ctx, "race", nil, []byte{byte(i)})
			if err == nil && ok {
				wins <- i
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	assert.Len(t, wins, 1)
}

func TestRedisStore(t *testing.T) {
	fake := newFakeRedis()
	s := NewRedisStore(fake, "gachalog:")
	storeContract(t, s)

	_, ok := fake.data["gachalog:k"]
	assert.True(t, ok)
	require.NotEmpty(t, fake.scripts)
	assert.Equal(t, casScript.Source(), fake.scripts[0])
}

func TestPostgresStore(t *testing.T) {
	fake := newFakePostgres()
	s := NewPostgresStore(fake, "")
	require.NoError(t, s.Migrate(context.Background()))
	assert.Contains(t, fake.sqls[0], "CREATE TABLE IF NOT EXISTS gachalog_kv")

	storeContract(t, s)
	assert.Contains(t, fake.sqls, "UPDATE gachalog_kv SET value = $1, updated_at = now() WHERE key = $2 AND value = $3")
}

func TestParseDriver(t *testing.T) {
	d, err := ParseDriver("")
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, d)

	d, err = ParseDriver(" Redis ")
	require.NoError(t, err)
	assert.Equal(t, DriverRedis, d)

	_, err = ParseDriver("etcd")
	assert.Error(t, err)
}
