package postgres

import (
	"time"

	"github.com/strawxiguan/zzz-gachalog/pkg/config"
)

// DBConfig 数据库实例配置
type DBConfig struct {
	Host     string `mapstructure:"host" json:"host" yaml:"host"`
	Port     int    `mapstructure:"port" json:"port" yaml:"port"`
	User     string `mapstructure:"user" json:"user" yaml:"user"`
	Password string `mapstructure:"password" json:"password" yaml:"password"`
	DBName   string `mapstructure:"db_name" json:"db_name" yaml:"db_name"`
	SSLMode  string `mapstructure:"ssl_mode" json:"ssl_mode" yaml:"ssl_mode"` // disable, require, verify-ca, verify-full
}

// PoolConfig 连接池配置
type PoolConfig struct {
	MaxConns          int32         `mapstructure:"max_conns" json:"max_conns" yaml:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns" json:"min_conns" yaml:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime" json:"max_conn_lifetime" yaml:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time" json:"max_conn_idle_time" yaml:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period" json:"health_check_period" yaml:"health_check_period"`
}

// Config PostgreSQL 配置
type Config struct {
	DB   DBConfig   `mapstructure:"db" json:"db" yaml:"db"`
	Pool PoolConfig `mapstructure:"pool" json:"pool" yaml:"pool"`

	ConnectTimeout time.Duration `mapstructure:"connect_timeout" json:"connect_timeout" yaml:"connect_timeout"`
	QueryTimeout   time.Duration `mapstructure:"query_timeout" json:"query_timeout" yaml:"query_timeout"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		DB: DBConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			DBName:  "gachalog",
			SSLMode: "disable",
		},
		Pool: PoolConfig{
			MaxConns:          25,
			MinConns:          2,
			MaxConnLifetime:   time.Hour,
			MaxConnIdleTime:   30 * time.Minute,
			HealthCheckPeriod: time.Minute,
		},
		ConnectTimeout: 10 * time.Second,
		QueryTimeout:   30 * time.Second,
	}
}

// MergeConfig 将 cfg 合并到默认配置上
func MergeConfig(cfg *Config) (*Config, error) {
	return config.MergeConfig(DefaultConfig(), cfg)
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	switch {
	case c.DB.Host == "":
		return wrapInvalid("host is empty")
	case c.DB.Port <= 0 || c.DB.Port > 65535:
		return wrapInvalid("invalid port")
	case c.DB.User == "":
		return wrapInvalid("user is empty")
	case c.DB.DBName == "":
		return wrapInvalid("db_name is empty")
	case c.Pool.MaxConns <= 0:
		return wrapInvalid("max_conns must be positive")
	case c.Pool.MinConns < 0 || c.Pool.MinConns > c.Pool.MaxConns:
		return wrapInvalid("min_conns must be within [0, max_conns]")
	}
	return nil
}
