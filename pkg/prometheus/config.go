package prometheus

// Config Prometheus 配置
type Config struct {
	// Enabled 是否在 Web 服务上暴露指标
	Enabled bool `mapstructure:"enabled"`

	// Namespace 命名空间（应用名称）
	Namespace string `mapstructure:"namespace"`

	// Path 指标路径
	Path string `mapstructure:"path"`

	// EnableGoCollector 是否注册默认 Go 采集器
	EnableGoCollector bool `mapstructure:"enable_go_collector"`

	// EnableProcessCollector 是否注册默认进程采集器
	EnableProcessCollector bool `mapstructure:"enable_process_collector"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Enabled:                true,
		Namespace:              "app",
		Path:                   "/metrics",
		EnableGoCollector:      true,
		EnableProcessCollector: true,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.Namespace == "" {
		return ErrInvalidConfig
	}
	if c.Path == "" {
		c.Path = "/metrics"
	}
	return nil
}
