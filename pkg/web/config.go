package web

import (
	"time"

	"github.com/gin-gonic/gin"
)

// Config Web 服务配置
type Config struct {
	Port         int           `mapstructure:"port" validate:"min=0,max=65535"`
	Mode         string        `mapstructure:"mode" validate:"omitempty,oneof=debug release test"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	StopTimeout  time.Duration `mapstructure:"stop_timeout"`
	EnableTLS    bool          `mapstructure:"enable_tls"`
	CertFile     string        `mapstructure:"cert_file"`
	KeyFile      string        `mapstructure:"key_file"`
	EnableCORS   bool          `mapstructure:"enable_cors"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`

	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig 限流配置，RequestsPerSecond<=0 时关闭
// KeyParam 为空时按 IP 分桶，否则按同名路由参数分桶
type RateLimitConfig struct {
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	KeyParam          string        `mapstructure:"key_param"`
	MaxLimiters       int           `mapstructure:"max_limiters"`
	LimiterTTL        time.Duration `mapstructure:"limiter_ttl"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Port:         8080,
		Mode:         gin.ReleaseMode,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		StopTimeout:  5 * time.Second,
		RateLimit: RateLimitConfig{
			Burst:       20,
			MaxLimiters: 10000,
			LimiterTTL:  10 * time.Minute,
		},
	}
}
