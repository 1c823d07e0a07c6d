package scheduler

import (
	"time"
)

// BackoffStrategy 重试退避策略
type BackoffStrategy string

const (
	BackoffFixed       BackoffStrategy = "fixed"
	BackoffExponential BackoffStrategy = "exponential"
)

// Config 调度器配置
type Config struct {
	// Timezone 为空时使用本地时区
	Timezone string `mapstructure:"timezone"`
	// WithSeconds 表达式是否包含秒字段
	WithSeconds bool `mapstructure:"with_seconds"`
	// SkipIfStillRunning 上一次仍在执行时跳过本次触发
	SkipIfStillRunning bool `mapstructure:"skip_if_still_running"`
	// StopTimeout 停止时等待运行中任务的最长时间
	StopTimeout time.Duration `mapstructure:"stop_timeout"`

	DefaultJobOptions JobOptions `mapstructure:"default_job_options"`
}

// JobOptions 单个任务的重试参数
type JobOptions struct {
	MaxRetries        int             `mapstructure:"max_retries" validate:"gte=0"`
	BackoffStrategy   BackoffStrategy `mapstructure:"backoff_strategy" validate:"omitempty,oneof=fixed exponential"`
	InitialBackoff    time.Duration   `mapstructure:"initial_backoff"`
	MaxBackoff        time.Duration   `mapstructure:"max_backoff"`
	BackoffMultiplier float64         `mapstructure:"backoff_multiplier"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		StopTimeout: 30 * time.Second,
		DefaultJobOptions: JobOptions{
			BackoffStrategy:   BackoffExponential,
			InitialBackoff:    time.Second,
			MaxBackoff:        30 * time.Second,
			BackoffMultiplier: 2,
		},
	}
}

// JobOption 覆盖默认任务参数
type JobOption func(*JobOptions)

func WithMaxRetries(n int) JobOption {
	return func(o *JobOptions) { o.MaxRetries = n }
}

func WithNoRetry() JobOption {
	return func(o *JobOptions) { o.MaxRetries = 0 }
}

func WithBackoffStrategy(s BackoffStrategy) JobOption {
	return func(o *JobOptions) { o.BackoffStrategy = s }
}

func WithInitialBackoff(d time.Duration) JobOption {
	return func(o *JobOptions) { o.InitialBackoff = d }
}

// backoff 第 attempt 次重试前的等待时间，attempt 从 1 开始
func (o JobOptions) backoff(attempt int) time.Duration {
	d := o.InitialBackoff
	if o.BackoffStrategy == BackoffExponential {
		mult := o.BackoffMultiplier
		if mult < 1 {
			mult = 2
		}
		for i := 1; i < attempt; i++ {
			d = time.Duration(float64(d) * mult)
			if o.MaxBackoff > 0 && d >= o.MaxBackoff {
				return o.MaxBackoff
			}
		}
	}
	if o.MaxBackoff > 0 && d > o.MaxBackoff {
		return o.MaxBackoff
	}
	return d
}
