package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/strawxiguan/zzz-gachalog/pkg/config"
)

// Config 指标配置
type Config struct {
	// Namespace 指标命名空间
	Namespace string `mapstructure:"namespace"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Namespace: "gachalog",
	}
}

// GachaMetrics 抽卡记录同步指标
// 所有 Record 方法允许 nil 接收者，便于测试时不注入指标
type GachaMetrics struct {
	config *Config

	// 刷新指标
	RefreshTotal     *prometheus.CounterVec // 刷新请求总数（按结果）
	CooldownRejected prometheus.Counter     // 冷却拒绝次数
	SyncDuration     prometheus.Histogram   // 单次同步耗时

	// 拉取指标
	PoolFetchTotal *prometheus.CounterVec // 频段拉取次数（按频段、结果）
	PagesFetched   *prometheus.CounterVec // 拉取的页数（按频段）

	// 合并指标
	RecordsInserted *prometheus.CounterVec // 新增记录数（按频段）
	MergeConflicts  *prometheus.CounterVec // CAS 冲突重试次数（按频段）

	// 存储指标
	StoreOpTotal    *prometheus.CounterVec   // 存储操作总数（按操作、结果）
	StoreOpDuration *prometheus.HistogramVec // 存储操作延迟
}

// New 创建指标
func New(cfg *Config) (*GachaMetrics, error) {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to merge metrics config: %w", err)
	}

	ns := newCfg.Namespace
	return &GachaMetrics{
		config: newCfg,

		RefreshTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "refresh_total",
				Help:      "刷新请求总数",
			},
			[]string{"result"}, // result: success/cooldown/token_unavailable/malformed/store_error
		),
		CooldownRejected: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "cooldown_rejected_total",
				Help:      "冷却期内被拒绝的刷新次数",
			},
		),
		SyncDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: ns,
				Name:      "sync_duration_seconds",
				Help:      "单次同步耗时（秒）",
				Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
		),

		PoolFetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "pool_fetch_total",
				Help:      "频段拉取总数",
			},
			[]string{"pool", "result"}, // result: success/truncated/failed
		),
		PagesFetched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "pages_fetched_total",
				Help:      "拉取的远端页数",
			},
			[]string{"pool"},
		),

		RecordsInserted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "records_inserted_total",
				Help:      "合并新增的记录数",
			},
			[]string{"pool"},
		),
		MergeConflicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "merge_conflicts_total",
				Help:      "合并时 CAS 冲突次数",
			},
			[]string{"pool"},
		),

		StoreOpTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "store_ops_total",
				Help:      "存储操作总数",
			},
			[]string{"operation", "result"}, // operation: get/set/cas
		),
		StoreOpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Name:      "store_op_duration_seconds",
				Help:      "存储操作延迟（秒）",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"operation"},
		),
	}, nil
}

// Register 注册指标到 Prometheus Registry
func (m *GachaMetrics) Register(registerer prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.RefreshTotal,
		m.CooldownRejected,
		m.SyncDuration,
		m.PoolFetchTotal,
		m.PagesFetched,
		m.RecordsInserted,
		m.MergeConflicts,
		m.StoreOpTotal,
		m.StoreOpDuration,
	}

	for _, c := range collectors {
		if err := registerer.Register(c); err != nil {
			return err
		}
	}

	return nil
}

// RecordRefresh 记录一次刷新请求
func (m *GachaMetrics) RecordRefresh(result string) {
	if m == nil {
		return
	}
	m.RefreshTotal.WithLabelValues(result).Inc()
	if result == "cooldown" {
		m.CooldownRejected.Inc()
	}
}

// RecordSync 记录一次同步耗时
func (m *GachaMetrics) RecordSync(duration float64) {
	if m == nil {
		return
	}
	m.SyncDuration.Observe(duration)
}

// RecordPoolFetch 记录频段拉取
func (m *GachaMetrics) RecordPoolFetch(pool, result string, pages int) {
	if m == nil {
		return
	}
	m.PoolFetchTotal.WithLabelValues(pool, result).Inc()
	m.PagesFetched.WithLabelValues(pool).Add(float64(pages))
}

// RecordInserted 记录新增记录数
func (m *GachaMetrics) RecordInserted(pool string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RecordsInserted.WithLabelValues(pool).Add(float64(n))
}

// RecordMergeConflict 记录 CAS 冲突
func (m *GachaMetrics) RecordMergeConflict(pool string) {
	if m == nil {
		return
	}
	m.MergeConflicts.WithLabelValues(pool).Inc()
}

// RecordStoreOp 记录存储操作
func (m *GachaMetrics) RecordStoreOp(operation string, success bool, duration float64) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "failed"
	}
	m.StoreOpTotal.WithLabelValues(operation, result).Inc()
	m.StoreOpDuration.WithLabelValues(operation).Observe(duration)
}

// GetConfig 获取配置
func (m *GachaMetrics) GetConfig() *Config {
	return m.config
}
