package prometheus

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Client Prometheus 客户端，持有独立的 Registry
type Client struct {
	config   *Config
	registry *prometheus.Registry
	closed   atomic.Bool
}

// New 创建 Prometheus 客户端
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		config:   cfg,
		registry: prometheus.NewRegistry(),
	}

	if cfg.EnableGoCollector {
		c.registry.MustRegister(collectors.NewGoCollector())
	}

	if cfg.EnableProcessCollector {
		c.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	return c, nil
}

// Registry 获取底层 Registry
func (c *Client) Registry() *prometheus.Registry {
	return c.registry
}

// Register 注册采集器
func (c *Client) Register(cs ...prometheus.Collector) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	for _, col := range cs {
		if err := c.registry.Register(col); err != nil {
			return err
		}
	}
	return nil
}

// Handler 返回 HTTP Handler（挂载到现有 HTTP 服务器）
func (c *Client) Handler() http.Handler {
	return promhttp.HandlerFor(
		c.registry,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		},
	)
}

// Config 获取配置
func (c *Client) Config() *Config {
	return c.config
}

// Close 关闭客户端，之后不再接受注册
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}
	return nil
}
