package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeConfig_PartialOverride(t *testing.T) {
	cfg, err := MergeConfig(&Config{DB: DBConfig{Host: "db.internal", Password: "secret"}})
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, "gachalog", cfg.DB.DBName)
	assert.EqualValues(t, 25, cfg.Pool.MaxConns)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	var nilCfg *Config
	assert.ErrorIs(t, nilCfg.Validate(), ErrNilConfig)

	cases := map[string]func(c *Config){
		"empty host":    func(c *Config) { c.DB.Host = "" },
		"bad port":      func(c *Config) { c.DB.Port = 70000 },
		"empty user":    func(c *Config) { c.DB.User = "" },
		"empty db":      func(c *Config) { c.DB.DBName = "" },
		"zero max":      func(c *Config) { c.Pool.MaxConns = 0 },
		"min above max": func(c *Config) { c.Pool.MinConns = 100 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestBuildConnString(t *testing.T) {
	cfg := DefaultConfig()
	s := buildConnString(cfg)
	assert.Contains(t, s, "host=localhost")
	assert.Contains(t, s, "dbname=gachalog")
	assert.Contains(t, s, "connect_timeout=10")
}

func TestQueryBuilder_Dollar(t *testing.T) {
	sql, args, err := QueryBuilder.Select("value").From("kv").Where("key = ?", "k").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT value FROM kv WHERE key = $1", sql)
	assert.Equal(t, []any{"k"}, args)
}
