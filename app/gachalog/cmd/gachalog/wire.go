//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/client"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/dao"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/handler"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/manager"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/metrics"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/repository"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/service"
	"github.com/strawxiguan/zzz-gachalog/pkg/app"
	"github.com/strawxiguan/zzz-gachalog/pkg/logger"
	"github.com/strawxiguan/zzz-gachalog/pkg/prometheus"
)

func InitApp(cfg *Config, l logger.Logger) (app.Application, func(), error) {
	panic(wire.Build(
		// 1. 基础框架 (BaseApp)
		app.ProviderSet,
		wire.Bind(new(app.Application), new(*app.BaseApp)),

		// 2. 配置拆分
		provideGachaConfig,
		provideAPIConfig,
		provideAuthKeyConfig,
		provideCaptureConfig,
		provideMetricsConfig,
		providePrometheusConfig,

		// 3. 存储后端
		provideStoreBackend,
		wire.FieldsOf(new(*storeBackend), "Store"),
		provideCompressor,
		provideSerializer,
		provideClock,

		// 4. 指标
		metrics.New,
		prometheus.New,

		// 5. 数据层
		dao.NewCooldownDAO,
		dao.NewHistoryDAO,
		repository.NewRecordStore,

		// 6. 逻辑层
		manager.NewCooldownGuard,
		manager.NewLinkCaptureManager,

		// 7. 远端接口
		client.NewGachaClient,
		wire.Bind(new(service.PageFetcher), new(*client.GachaClient)),
		client.NewAuthKeySource,

		// 8. 服务层
		service.NewGachaFetcher,
		service.NewSyncEngine,
		service.NewAnalyzer,
		provideEventBackend,
		wire.FieldsOf(new(*eventBackend), "Publisher"),
		service.NewGachaLogService,
		provideScheduler,

		// 9. 接口层
		handler.NewGachaLogHandler,
		wire.Bind(new(handler.GachaLogService), new(*service.GachaLogService)),
		provideWebServer,

		// 10. 组装与应用配置
		provideAppOptions,
		provideAppComponents,
		app.InitApp,
	))
}
