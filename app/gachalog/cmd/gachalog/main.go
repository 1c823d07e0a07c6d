package main

import (
	"github.com/strawxiguan/zzz-gachalog/pkg/app"
	"github.com/strawxiguan/zzz-gachalog/pkg/logger"
	"github.com/strawxiguan/zzz-gachalog/pkg/otel"
	"github.com/strawxiguan/zzz-gachalog/pkg/sentry"
)

func main() {
	// 1. 加载配置
	cfg, err := app.LoadConfig(defaultConfig())
	if err != nil {
		panic(err)
	}

	// 2. 错误上报（可选），Error 级别日志经钩子上报
	var logOpts []logger.Option
	if cfg.Sentry.Enabled {
		sc, err := sentry.New(&cfg.Sentry)
		if err != nil {
			panic(err)
		}
		defer sc.Close()
		logOpts = append(logOpts, logger.WithHooks(sentry.LoggerHook(sc)))
	}

	// 3. 链路追踪（可选），日志附带 trace_id
	tp, err := otel.New(&cfg.Tracing)
	if err != nil {
		panic(err)
	}
	defer tp.Close()
	if tp.IsEnabled() {
		logOpts = append(logOpts, logger.WithContextExtractor(otel.LogExtractor(logger.DefaultContextExtractor)))
	}

	// 4. 初始化主日志
	l, err := logger.New(&cfg.Log, logOpts...)
	if err != nil {
		panic(err)
	}
	logger.SetDefault(l)

	// 5. 通过 Wire 初始化应用
	application, cleanup, err := InitApp(cfg, l)
	if err != nil {
		l.Error("failed to initialize application", "error", err)
		_ = l.Sync()
		return
	}
	defer cleanup()

	// 6. 运行服务
	if err := application.Run(); err != nil {
		l.Error("application exited with error", "error", err)
	}
}
