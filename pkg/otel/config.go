package otel

import "time"

// Config 链路追踪配置
type Config struct {
	// Enabled 关闭时使用全局 noop provider
	Enabled bool `mapstructure:"enabled"`

	ServiceName string `mapstructure:"service_name"`

	// Endpoint OTLP HTTP 端点，如 localhost:4318
	Endpoint string `mapstructure:"endpoint"`

	// ExporterType otlp-http / stdout / noop
	ExporterType ExporterType `mapstructure:"exporter_type" validate:"omitempty,oneof=otlp-http stdout noop"`

	Sampler SamplerConfig `mapstructure:"sampler"`

	BatchExport BatchExportConfig `mapstructure:"batch_export"`

	// Attributes 额外的资源属性
	Attributes map[string]string `mapstructure:"attributes"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// Insecure 不使用 TLS 连接端点
	Insecure bool `mapstructure:"insecure"`
}

// ExporterType 导出器类型
type ExporterType string

const (
	ExporterTypeOTLPHTTP ExporterType = "otlp-http"
	// ExporterTypeStdout 输出到标准输出，调试用
	ExporterTypeStdout ExporterType = "stdout"
	ExporterTypeNoop   ExporterType = "noop"
)

// SamplerConfig 采样配置
type SamplerConfig struct {
	// Type always / never / ratio / parent
	Type SamplerType `mapstructure:"type" validate:"omitempty,oneof=always never ratio parent"`
	// Ratio 仅 Type 为 ratio 时生效
	Ratio float64 `mapstructure:"ratio"`
}

// SamplerType 采样类型
type SamplerType string

const (
	SamplerTypeAlways SamplerType = "always"
	SamplerTypeNever  SamplerType = "never"
	SamplerTypeRatio  SamplerType = "ratio"
	// SamplerTypeParent 跟随上游决策，无上游时采样
	SamplerTypeParent SamplerType = "parent"
)

// BatchExportConfig 批量导出配置
type BatchExportConfig struct {
	BatchSize     int           `mapstructure:"batch_size"`
	ExportTimeout time.Duration `mapstructure:"export_timeout"`
	MaxQueueSize  int           `mapstructure:"max_queue_size"`
	BatchTimeout  time.Duration `mapstructure:"batch_timeout"`
}

// DefaultConfig 默认配置，默认不启用
func DefaultConfig() *Config {
	return &Config{
		ServiceName:  "gachalog",
		Endpoint:     "localhost:4318",
		ExporterType: ExporterTypeOTLPHTTP,
		Sampler: SamplerConfig{
			Type:  SamplerTypeParent,
			Ratio: 1.0,
		},
		BatchExport: BatchExportConfig{
			BatchSize:     512,
			ExportTimeout: 30 * time.Second,
			MaxQueueSize:  2048,
			BatchTimeout:  5 * time.Second,
		},
		ShutdownTimeout: 5 * time.Second,
		Insecure:        true,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.ServiceName == "" {
		return ErrInvalidServiceName
	}
	if c.Sampler.Type == SamplerTypeRatio && (c.Sampler.Ratio < 0 || c.Sampler.Ratio > 1) {
		return ErrInvalidSamplerRatio
	}
	return nil
}
