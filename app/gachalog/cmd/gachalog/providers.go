package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/client"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/event"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/handler"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/manager"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/metrics"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/service"
	"github.com/strawxiguan/zzz-gachalog/pkg/app"
	"github.com/strawxiguan/zzz-gachalog/pkg/cache/lru"
	"github.com/strawxiguan/zzz-gachalog/pkg/compress"
	"github.com/strawxiguan/zzz-gachalog/pkg/database/kv"
	"github.com/strawxiguan/zzz-gachalog/pkg/database/postgres"
	"github.com/strawxiguan/zzz-gachalog/pkg/database/redis"
	"github.com/strawxiguan/zzz-gachalog/pkg/logger"
	"github.com/strawxiguan/zzz-gachalog/pkg/mq/kafka"
	"github.com/strawxiguan/zzz-gachalog/pkg/otel"
	"github.com/strawxiguan/zzz-gachalog/pkg/prometheus"
	"github.com/strawxiguan/zzz-gachalog/pkg/scheduler"
	"github.com/strawxiguan/zzz-gachalog/pkg/security"
	"github.com/strawxiguan/zzz-gachalog/pkg/serializer"
	"github.com/strawxiguan/zzz-gachalog/pkg/web"
	webmetrics "github.com/strawxiguan/zzz-gachalog/pkg/web/metrics"
	"github.com/strawxiguan/zzz-gachalog/pkg/web/middleware"
)

const migrateTimeout = 30 * time.Second

func provideGachaConfig(cfg *Config) *service.Config {
	return &cfg.Gacha
}

func provideAPIConfig(cfg *Config) *client.Config {
	return &cfg.Gacha.API
}

func provideAuthKeyConfig(cfg *Config) *client.AuthKeyConfig {
	return &cfg.AuthKey
}

func provideCaptureConfig(cfg *Config) *lru.Config {
	return &cfg.Capture
}

// provideMetricsConfig 提供业务指标配置
func provideMetricsConfig(cfg *Config) *metrics.Config {
	return &cfg.Metrics
}

// providePrometheusConfig 提供 Prometheus 配置
func providePrometheusConfig(cfg *Config) *prometheus.Config {
	return &cfg.Prometheus
}

// storeBackend 存储及其健康检查
type storeBackend struct {
	Store  kv.Store
	Pinger handler.Pinger
}

// provideStoreBackend 按 store.driver 创建存储
func provideStoreBackend(cfg *Config, l logger.Logger) (*storeBackend, error) {
	driver, err := kv.ParseDriver(cfg.Store.Driver)
	if err != nil {
		return nil, err
	}

	switch driver {
	case kv.DriverRedis:
		rc := cfg.Redis
		// 配置了集群时忽略默认的单机地址
		if rc.Cluster != nil {
			rc.Standalone = nil
		}
		c, err := redis.NewClient(&rc)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis client: %w", err)
		}
		l.Info("store backend ready", "driver", driver, "cluster", rc.IsCluster(), "prefix", cfg.Store.KeyPrefix)
		return &storeBackend{Store: kv.NewRedisStore(c, cfg.Store.KeyPrefix), Pinger: c}, nil

	case kv.DriverPostgres:
		c, err := postgres.New(&cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres client: %w", err)
		}
		store := kv.NewPostgresStore(c, cfg.Store.Table)

		ctx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
		defer cancel()
		if err := store.Migrate(ctx); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("failed to migrate store table: %w", err)
		}
		l.Info("store backend ready", "driver", driver, "host", cfg.Postgres.DB.Host, "db", cfg.Postgres.DB.DBName)
		return &storeBackend{Store: store, Pinger: c}, nil

	default:
		l.Warn("using in-memory store, history is lost on restart")
		return &storeBackend{Store: kv.NewMemoryStore()}, nil
	}
}

// eventBackend 事件发布器，closer 为空表示无需关闭
type eventBackend struct {
	Publisher event.Publisher
	closer    app.Closer
}

// provideEventBackend kafka.enabled 为 false 时不发布事件
func provideEventBackend(cfg *Config, l logger.Logger) (*eventBackend, error) {
	if !cfg.Kafka.Enabled {
		return &eventBackend{Publisher: event.NoopPublisher{}}, nil
	}

	p, err := kafka.NewProducer(&cfg.Kafka, l)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	l.Info("event publisher ready", "brokers", cfg.Kafka.Brokers, "topic", p.Topic())
	return &eventBackend{Publisher: event.NewKafkaPublisher(p, l), closer: p}, nil
}

// provideScheduler 创建调度器并注册定时刷新任务，未启用时返回 nil
func provideScheduler(cfg *Config, l logger.Logger, svc *service.GachaLogService) (*scheduler.Scheduler, error) {
	if !cfg.AutoRefresh.Enabled {
		return nil, nil
	}

	s, err := scheduler.New(&cfg.Scheduler, scheduler.WithLogger(l))
	if err != nil {
		return nil, err
	}
	job := service.NewAutoRefresher(&cfg.AutoRefresh, svc, l)
	if _, err := s.AddFunc(service.AutoRefreshJobName, cfg.AutoRefresh.Spec, job.Run); err != nil {
		return nil, err
	}
	l.Info("auto refresh scheduled", "spec", cfg.AutoRefresh.Spec, "players", len(cfg.AutoRefresh.UIDs))
	return s, nil
}

func provideCompressor(cfg *Config) (compress.Compressor, error) {
	if cfg.Store.Compression == "" {
		return compress.New(compress.TypeNone)
	}
	return compress.New(compress.Type(cfg.Store.Compression))
}

func provideSerializer(cfg *Config) (serializer.Serializer, error) {
	return serializer.New(cfg.Store.Serializer)
}

func provideClock() clockwork.Clock {
	return clockwork.NewRealClock()
}

// provideWebServer 创建 HTTP 服务并注册路由
func provideWebServer(
	cfg *Config,
	l logger.Logger,
	h *handler.GachaLogHandler,
	backend *storeBackend,
	promClient *prometheus.Client,
) (*web.Server, error) {
	srv := web.NewServer(&cfg.Web, l)
	r := srv.Router()

	if cfg.Prometheus.Enabled {
		httpMetrics := webmetrics.NewHTTPMetrics(cfg.Prometheus.Namespace)
		if err := httpMetrics.Register(promClient.Registry()); err != nil {
			return nil, fmt.Errorf("failed to register http metrics: %w", err)
		}
		r.Use(middleware.Metrics(httpMetrics))
		handler.RegisterMetrics(r, promClient.Config().Path, promClient.Handler())
	}

	if cfg.Tracing.Enabled {
		r.Use(middleware.Tracing(otel.Tracer("gachalog/web")))
	}

	if cfg.Auth.Enabled {
		jm, err := security.NewJWTManager(&cfg.Auth)
		if err != nil {
			return nil, fmt.Errorf("failed to create jwt manager: %w", err)
		}
		r.Use(middleware.Auth(jm, l))
	}

	handler.RegisterHealth(r, backend.Pinger)
	h.RegisterRoutes(r)
	return srv, nil
}

func provideAppOptions(cfg *Config, l logger.Logger) []app.Option {
	return []app.Option{
		app.WithName(app.AppName),
		app.WithLogger(l),
		app.WithStopTimeout(cfg.Web.StopTimeout + 5*time.Second),
	}
}

func provideAppComponents(
	srv *web.Server,
	sched *scheduler.Scheduler,
	backend *storeBackend,
	events *eventBackend,
	engine *service.SyncEngine,
	capture *manager.LinkCaptureManager,
	promClient *prometheus.Client,
	gachaMetrics *metrics.GachaMetrics,
) (app.AppComponents, error) {
	// 注册业务指标到 Prometheus
	if err := gachaMetrics.Register(promClient.Registry()); err != nil {
		return app.AppComponents{}, fmt.Errorf("failed to register gacha metrics: %w", err)
	}

	servers := []app.Server{srv}
	if sched != nil {
		servers = append(servers, sched)
	}

	// 逆序关闭：先停同步协程池，再关事件与存储
	closers := []app.Closer{backend.Store}
	if events.closer != nil {
		closers = append(closers, events.closer)
	}
	closers = append(closers, promClient, capture, engine)

	return app.AppComponents{
		Servers: servers,
		Closers: closers,
	}, nil
}
