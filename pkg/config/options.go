package config

// Option 配置选项函数
type Option func(*manager)

// WithEnvPrefix 绑定环境变量，key 中的 "." 映射为 "_"
// 例如前缀 GACHALOG 时 gacha.interval 对应 GACHALOG_GACHA_INTERVAL
func WithEnvPrefix(prefix string) Option {
	return func(m *manager) {
		m.bindEnv(prefix)
	}
}

// WithDefaults 设置 key 级默认值，优先级低于文件与环境变量
func WithDefaults(defaults map[string]any) Option {
	return func(m *manager) {
		for key, value := range defaults {
			m.v.SetDefault(key, value)
		}
	}
}
