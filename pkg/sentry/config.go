package sentry

import (
	"time"

	"github.com/getsentry/sentry-go"
)

// Config Sentry 配置
type Config struct {
	// Enabled 关闭时不创建客户端
	Enabled bool `mapstructure:"enabled"`

	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"` // dev/test/prod
	Release     string `mapstructure:"release"`
	ServerName  string `mapstructure:"server_name"`

	// SampleRate 错误采样率 (0.0-1.0)
	SampleRate float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1"`

	AttachStacktrace bool `mapstructure:"attach_stacktrace"`
	MaxBreadcrumbs   int  `mapstructure:"max_breadcrumbs" validate:"gte=0"`

	// ShutdownTimeout 关闭时等待事件发送的时间
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	Debug bool `mapstructure:"debug"`

	// Tags 全局标签
	Tags map[string]string `mapstructure:"tags"`

	// transport 测试时替换发送通道
	transport sentry.Transport
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Environment:      "production",
		SampleRate:       1.0,
		AttachStacktrace: true,
		MaxBreadcrumbs:   100,
		ShutdownTimeout:  2 * time.Second,
		Tags:             make(map[string]string),
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	if c.DSN == "" && c.transport == nil {
		return ErrInvalidDSN
	}
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return ErrInvalidConfig
	}
	if c.MaxBreadcrumbs < 0 {
		return ErrInvalidConfig
	}
	return nil
}

func (c *Config) toClientOptions() sentry.ClientOptions {
	return sentry.ClientOptions{
		Dsn:              c.DSN,
		Environment:      c.Environment,
		Release:          c.Release,
		ServerName:       c.ServerName,
		SampleRate:       c.SampleRate,
		AttachStacktrace: c.AttachStacktrace,
		MaxBreadcrumbs:   c.MaxBreadcrumbs,
		Debug:            c.Debug,
		Transport:        c.transport,
	}
}
