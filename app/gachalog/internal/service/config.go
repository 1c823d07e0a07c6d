package service

import (
	"time"

	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/client"
)

// Config 抽卡记录同步配置
type Config struct {
	// Interval 同一玩家两次刷新的最小间隔
	Interval time.Duration `mapstructure:"interval"`
	// MaxPages 单个频段单次同步的翻页上限，达到后软截断
	MaxPages int `mapstructure:"max_pages" validate:"min=1"`
	// PageInterval 同一频段相邻两页请求的最小间隔
	PageInterval time.Duration `mapstructure:"page_interval"`
	// Workers 频段拉取协程池大小（所有玩家共享）
	Workers int `mapstructure:"workers" validate:"min=1"`

	API client.Config `mapstructure:"api"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Interval:     300 * time.Second,
		MaxPages:     500,
		PageInterval: 200 * time.Millisecond,
		Workers:      16,
		API:          *client.DefaultConfig(),
	}
}
