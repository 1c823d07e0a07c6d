package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics HTTP 接口指标
type HTTPMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewHTTPMetrics 创建 HTTP 指标，namespace 为空时使用 "http"
func NewHTTPMetrics(namespace string) *HTTPMetrics {
	if namespace == "" {
		namespace = "http"
	}
	return &HTTPMetrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http_server",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests.",
			},
			[]string{"path", "method", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http_server",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),
	}
}

// Register 注册到指定的注册器
func (m *HTTPMetrics) Register(registerer prometheus.Registerer) error {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{m.RequestsTotal, m.RequestDuration} {
		if err := registerer.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Observe 记录一次请求
func (m *HTTPMetrics) Observe(path, method, status string, seconds float64) {
	m.RequestsTotal.WithLabelValues(path, method, status).Inc()
	m.RequestDuration.WithLabelValues(path, method).Observe(seconds)
}
