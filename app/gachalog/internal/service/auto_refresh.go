package service

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/model"
	"github.com/strawxiguan/zzz-gachalog/pkg/logger"
)

// AutoRefreshJobName 定时刷新任务名
const AutoRefreshJobName = "gacha-auto-refresh"

// AutoRefreshConfig 定时刷新配置
type AutoRefreshConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Spec cron 表达式
	Spec string `mapstructure:"spec" validate:"required_if=Enabled true"`
	// UIDs 需要定时刷新的玩家，authkey 由 authkey 来源提供
	UIDs []string `mapstructure:"uids"`
}

// Refresher 刷新单个玩家
type Refresher interface {
	Refresh(ctx context.Context, uid string) (*model.SyncResult, error)
}

// AutoRefresher 按顺序刷新配置中的玩家
type AutoRefresher struct {
	config    *AutoRefreshConfig
	refresher Refresher
	logger    logger.Logger
}

// NewAutoRefresher 创建定时刷新任务
func NewAutoRefresher(cfg *AutoRefreshConfig, r Refresher, l logger.Logger) *AutoRefresher {
	return &AutoRefresher{
		config:    cfg,
		refresher: r,
		logger:    l.Named("service.autorefresh"),
	}
}

// Run 执行一轮刷新
// 冷却中和 authkey 不可用只记日志，存储不可用时返回错误以触发重试
func (a *AutoRefresher) Run(ctx context.Context) error {
	var (
		refreshed int
		skipped   int
		fatal     error
	)

	for _, uid := range a.config.UIDs {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		res, err := a.refresher.Refresh(ctx, uid)
		var cooldownErr *CooldownActiveError
		switch {
		case err == nil:
			refreshed++
			a.logger.InfoContext(ctx, "auto refresh done", "uid", uid, "inserted", res.Inserted(), "failed_pools", len(res.FailedPools))
		case errors.As(err, &cooldownErr):
			skipped++
			a.logger.DebugContext(ctx, "auto refresh skipped, cooldown active", "uid", uid, "remaining", cooldownErr.Remaining)
		case errors.Is(err, ErrStoreUnavailable):
			fatal = errors.CombineErrors(fatal, err)
		default:
			skipped++
			a.logger.WarnContext(ctx, "auto refresh failed", "uid", uid, "error", err)
		}
	}

	a.logger.InfoContext(ctx, "auto refresh round finished", "players", len(a.config.UIDs), "refreshed", refreshed, "skipped", skipped)
	return fatal
}
