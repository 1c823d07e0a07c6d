package main

import (
	"time"

	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/client"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/metrics"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/service"
	"github.com/strawxiguan/zzz-gachalog/pkg/cache/lru"
	"github.com/strawxiguan/zzz-gachalog/pkg/database/postgres"
	"github.com/strawxiguan/zzz-gachalog/pkg/database/redis"
	"github.com/strawxiguan/zzz-gachalog/pkg/logger"
	"github.com/strawxiguan/zzz-gachalog/pkg/mq/kafka"
	"github.com/strawxiguan/zzz-gachalog/pkg/otel"
	"github.com/strawxiguan/zzz-gachalog/pkg/prometheus"
	"github.com/strawxiguan/zzz-gachalog/pkg/scheduler"
	"github.com/strawxiguan/zzz-gachalog/pkg/security"
	"github.com/strawxiguan/zzz-gachalog/pkg/sentry"
	"github.com/strawxiguan/zzz-gachalog/pkg/web"
)

// Config gachalog 服务完整配置
type Config struct {
	Log logger.Config `mapstructure:"log"`

	// 持久化存储
	Store StoreConfig `mapstructure:"store"`

	// Store.Driver=redis 时使用
	Redis redis.Config `mapstructure:"redis"`

	// Store.Driver=postgres 时使用
	Postgres postgres.Config `mapstructure:"postgres"`

	// 同步参数与远端接口
	Gacha service.Config `mapstructure:"gacha"`

	// authkey 来源
	AuthKey client.AuthKeyConfig `mapstructure:"authkey"`

	// 粘贴链接会话
	Capture lru.Config `mapstructure:"capture"`

	// HTTP 服务
	Web web.Config `mapstructure:"web"`

	// 接口访问令牌
	Auth security.JWTConfig `mapstructure:"auth"`

	// Prometheus 配置
	Prometheus prometheus.Config `mapstructure:"prometheus"`

	// 业务指标配置
	Metrics metrics.Config `mapstructure:"metrics"`

	// 错误上报
	Sentry sentry.Config `mapstructure:"sentry"`

	// 链路追踪
	Tracing otel.Config `mapstructure:"tracing"`

	// 同步完成事件
	Kafka kafka.Config `mapstructure:"kafka"`

	// 定时任务
	Scheduler scheduler.Config `mapstructure:"scheduler"`

	// 定时刷新
	AutoRefresh service.AutoRefreshConfig `mapstructure:"auto_refresh"`
}

// StoreConfig 存储配置
type StoreConfig struct {
	// Driver memory / redis / postgres
	Driver string `mapstructure:"driver" validate:"omitempty,oneof=memory redis postgres"`
	// Compression 历史记录压缩算法 none / snappy / zstd / lz4
	Compression string `mapstructure:"compression" validate:"omitempty,oneof=none snappy zstd lz4"`
	// Serializer 历史记录编码 msgpack / json
	Serializer string `mapstructure:"serializer" validate:"omitempty,oneof=msgpack json"`
	// KeyPrefix redis 键前缀
	KeyPrefix string `mapstructure:"key_prefix"`
	// Table postgres 表名
	Table string `mapstructure:"table"`
}

func defaultConfig() *Config {
	return &Config{
		Log: *logger.DefaultConfig(),
		Store: StoreConfig{
			Driver:      "memory",
			Compression: "snappy",
			Serializer:  "msgpack",
			KeyPrefix:   "gachalog:",
		},
		Redis:    *redis.DefaultConfig(),
		Postgres: *postgres.DefaultConfig(),
		Gacha:    *service.DefaultConfig(),
		AuthKey:  client.AuthKeyConfig{Timeout: 10 * time.Second},
		Capture: lru.Config{
			MaxSize:         10000,
			DefaultTTL:      5 * time.Minute,
			CleanupInterval: time.Minute,
		},
		Web:        *web.DefaultConfig(),
		Auth:       *security.DefaultJWTConfig(),
		Prometheus: defaultPrometheusConfig(),
		Metrics:    *metrics.DefaultConfig(),
		Sentry:     *sentry.DefaultConfig(),
		Tracing:    *otel.DefaultConfig(),
		Kafka:      *kafka.DefaultConfig(),
		Scheduler:  defaultSchedulerConfig(),
		AutoRefresh: service.AutoRefreshConfig{
			Spec: "0 */6 * * *",
		},
	}
}

func defaultPrometheusConfig() prometheus.Config {
	cfg := *prometheus.DefaultConfig()
	cfg.Namespace = "gachalog"
	return cfg
}

func defaultSchedulerConfig() scheduler.Config {
	cfg := *scheduler.DefaultConfig()
	cfg.SkipIfStillRunning = true
	cfg.DefaultJobOptions.MaxRetries = 2
	return cfg
}
