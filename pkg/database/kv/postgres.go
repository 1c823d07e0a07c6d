package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/strawxiguan/zzz-gachalog/pkg/database/postgres"
)

// DefaultTable 默认表名
const DefaultTable = "gachalog_kv"

// PostgresClient PostgresStore 依赖的最小能力，*postgres.Client 满足该接口
type PostgresClient interface {
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
	ExecBuilt(ctx context.Context, b squirrel.Sqlizer) (int64, error)
	QueryRowBuilt(ctx context.Context, b squirrel.Sqlizer, dest ...any) error
	Close() error
}

var _ PostgresClient = (*postgres.Client)(nil)

var _ Store = (*PostgresStore)(nil)

// PostgresStore 基于单表的存储，CAS 通过条件 UPDATE / INSERT ON CONFLICT 实现
type PostgresStore struct {
	client PostgresClient
	table  string
}

func NewPostgresStore(client PostgresClient, table string) *PostgresStore {
	if table == "" {
		table = DefaultTable
	}
	return &PostgresStore{client: client, table: table}
}

// Migrate 建表（幂等）
func (s *PostgresStore) Migrate(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, s.table)
	if _, err := s.client.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("kv: migrate %s: %w", s.table, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	q := postgres.QueryBuilder.Select("value").From(s.table).Where(squirrel.Eq{"key": key})
	if err := s.client.QueryRowBuilt(ctx, q, &value); err != nil {
		if errors.Is(err, postgres.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return value, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, value []byte) error {
	q := postgres.QueryBuilder.Insert(s.table).
		Columns("key", "value").
		Values(key, nonNil(value)).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()")
	_, err := s.client.ExecBuilt(ctx, q)
	return err
}

func (s *PostgresStore) CompareAndSwap(ctx context.Context, key string, old, new []byte) (bool, error) {
	var q squirrel.Sqlizer
	if old == nil {
		q = postgres.QueryBuilder.Insert(s.table).
			Columns("key", "value").
			Values(key, nonNil(new)).
			Suffix("ON CONFLICT (key) DO NOTHING")
	} else {
		// squirrel.Eq 会把 []byte 展开成 IN 列表，这里手写条件
		q = postgres.QueryBuilder.Update(s.table).
			Set("value", nonNil(new)).
			Set("updated_at", squirrel.Expr("now()")).
			Where("key = ? AND value = ?", key, old)
	}

	n, err := s.client.ExecBuilt(ctx, q)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *PostgresStore) Close() error {
	return s.client.Close()
}

// BYTEA NOT NULL 不接受 nil
func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
