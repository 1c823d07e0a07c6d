package config

// Load 读取配置文件并叠加环境变量，合并到 defaults 后校验
// path 为空时只使用 defaults 与环境变量
func Load[T any](path, envPrefix string, defaults *T) (*T, error) {
	m := NewManager(WithEnvPrefix(envPrefix))
	if path != "" {
		if err := m.LoadFile(path); err != nil {
			return nil, err
		}
	}

	loaded := new(T)
	if err := m.Unmarshal(loaded); err != nil {
		return nil, err
	}

	cfg, err := MergeConfig(defaults, loaded)
	if err != nil {
		return nil, err
	}

	if err := NewValidator().Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
