package logger

import (
	"os"
	"sync"
)

var (
	defaultLogger   Logger
	defaultLoggerMu sync.RWMutex
)

// InitDefault 初始化默认 logger
func InitDefault(cfg *Config, opts ...Option) error {
	l, err := New(cfg, opts...)
	if err != nil {
		return err
	}
	SetDefault(l)
	return nil
}

// InitDefaultFromEnv 从环境变量初始化默认 logger
// 环境变量前缀: GACHALOG_LOG_
func InitDefaultFromEnv() error {
	envConfig := &Config{}

	if level := os.Getenv("GACHALOG_LOG_LEVEL"); level != "" {
		envConfig.Level = Level(level)
	}
	if format := os.Getenv("GACHALOG_LOG_FORMAT"); format != "" {
		envConfig.Format = Format(format)
	}
	if path := os.Getenv("GACHALOG_LOG_PATH"); path != "" {
		envConfig.EnableFile = true
		envConfig.OutputPath = path
	}
	if os.Getenv("GACHALOG_LOG_DEVELOPMENT") == "true" {
		envConfig.Development = true
	}

	return InitDefault(envConfig)
}

// SetDefault 设置默认 logger
func SetDefault(l Logger) {
	defaultLoggerMu.Lock()
	defer defaultLoggerMu.Unlock()
	defaultLogger = l
}

// Default 获取默认 logger，未初始化时懒加载控制台 logger
func Default() Logger {
	defaultLoggerMu.RLock()
	l := defaultLogger
	defaultLoggerMu.RUnlock()
	if l != nil {
		return l
	}

	defaultLoggerMu.Lock()
	defer defaultLoggerMu.Unlock()
	if defaultLogger == nil {
		bl, err := New(DefaultConfig())
		if err != nil {
			panic(err)
		}
		defaultLogger = bl
	}
	return defaultLogger
}

// Named 基于默认 logger 创建具名 logger
func Named(name string) Logger {
	return Default().Named(name)
}
