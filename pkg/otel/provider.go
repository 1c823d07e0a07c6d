package otel

import (
	"context"
	"sync/atomic"

	"github.com/strawxiguan/zzz-gachalog/pkg/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerProvider 追踪提供者
type TracerProvider struct {
	config   *Config
	provider *sdktrace.TracerProvider
	closed   atomic.Bool
}

// New 创建追踪提供者并设置为全局，未启用时不做任何设置
// opts 附加到底层 sdk provider，用于注入额外的 SpanProcessor
func New(cfg *Config, opts ...sdktrace.TracerProviderOption) (*TracerProvider, error) {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, err
	}
	if err := newCfg.Validate(); err != nil {
		return nil, err
	}

	if !newCfg.Enabled {
		return &TracerProvider{config: newCfg}, nil
	}

	exporter, err := createExporter(context.Background(), newCfg)
	if err != nil {
		return nil, err
	}

	providerOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(createResource(newCfg)),
		sdktrace.WithSampler(createSampler(newCfg.Sampler)),
	}
	if exporter != nil {
		providerOpts = append(providerOpts, sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(newCfg.BatchExport.BatchTimeout),
			sdktrace.WithExportTimeout(newCfg.BatchExport.ExportTimeout),
			sdktrace.WithMaxExportBatchSize(newCfg.BatchExport.BatchSize),
			sdktrace.WithMaxQueueSize(newCfg.BatchExport.MaxQueueSize),
		))
	}
	provider := sdktrace.NewTracerProvider(append(providerOpts, opts...)...)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &TracerProvider{
		config:   newCfg,
		provider: provider,
	}, nil
}

func createResource(cfg *Config) *resource.Resource {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.ServiceName),
	}
	for k, v := range cfg.Attributes {
		attrs = append(attrs, attribute.String(k, v))
	}
	return resource.NewWithAttributes(semconv.SchemaURL, attrs...)
}

func createSampler(cfg SamplerConfig) sdktrace.Sampler {
	switch cfg.Type {
	case SamplerTypeAlways:
		return sdktrace.AlwaysSample()
	case SamplerTypeNever:
		return sdktrace.NeverSample()
	case SamplerTypeRatio:
		return sdktrace.TraceIDRatioBased(cfg.Ratio)
	default:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
}

// Tracer 获取 Tracer，未启用时返回全局 noop 实现
func (p *TracerProvider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	if p.provider == nil {
		return otel.GetTracerProvider().Tracer(name, opts...)
	}
	return p.provider.Tracer(name, opts...)
}

// Shutdown 导出剩余 span 并关闭
func (p *TracerProvider) Shutdown(ctx context.Context) error {
	if p.closed.Swap(true) {
		return ErrProviderClosed
	}
	if p.provider == nil {
		return nil
	}
	return p.provider.Shutdown(ctx)
}

// Close 使用 ShutdownTimeout 关闭
func (p *TracerProvider) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.ShutdownTimeout)
	defer cancel()
	return p.Shutdown(ctx)
}

// IsEnabled 是否启用
func (p *TracerProvider) IsEnabled() bool {
	return p.provider != nil
}

// Config 获取配置
func (p *TracerProvider) Config() *Config {
	return p.config
}
