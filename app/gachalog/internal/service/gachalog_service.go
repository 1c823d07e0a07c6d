package service

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/client"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/event"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/manager"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/metrics"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/model"
	"github.com/strawxiguan/zzz-gachalog/pkg/logger"
	"golang.org/x/sync/singleflight"
)

// GachaLogService 抽卡记录入口，对应刷新、分析、获取链接、粘贴链接四类请求
type GachaLogService struct {
	config   *Config
	logger   logger.Logger
	cooldown *manager.CooldownGuard
	capture  *manager.LinkCaptureManager
	authKeys client.AuthKeySource
	engine   *SyncEngine
	analyzer *Analyzer
	metrics  *metrics.GachaMetrics
	events   event.Publisher

	// 同一玩家并发的 authkey 解析合并为一次
	resolving singleflight.Group
}

// NewGachaLogService 创建服务
func NewGachaLogService(
	cfg *Config,
	l logger.Logger,
	cooldown *manager.CooldownGuard,
	capture *manager.LinkCaptureManager,
	authKeys client.AuthKeySource,
	engine *SyncEngine,
	analyzer *Analyzer,
	m *metrics.GachaMetrics,
	events event.Publisher,
) *GachaLogService {
	if events == nil {
		events = event.NoopPublisher{}
	}
	return &GachaLogService{
		config:   cfg,
		logger:   l.Named("service.gachalog"),
		cooldown: cooldown,
		capture:  capture,
		authKeys: authKeys,
		engine:   engine,
		analyzer: analyzer,
		metrics:  m,
		events:   events,
	}
}

// Refresh 冷却检查 -> 解析 authkey -> 同步
// 冷却一旦放行即写入，后续失败不回滚
func (s *GachaLogService) Refresh(ctx context.Context, uid string) (*model.SyncResult, error) {
	if err := s.admit(ctx, uid); err != nil {
		return nil, err
	}

	authKey, err := s.resolve(ctx, uid)
	if err != nil {
		s.metrics.RecordRefresh("token_unavailable")
		return nil, err
	}

	return s.sync(ctx, authKey, uid)
}

// RefreshWithLink 使用粘贴的链接刷新，链接无效时不消耗冷却也不发起请求
func (s *GachaLogService) RefreshWithLink(ctx context.Context, uid, link string) (*model.SyncResult, error) {
	authKey, err := client.ExtractAuthKey(link)
	if err != nil {
		s.metrics.RecordRefresh("malformed")
		return nil, errors.Mark(err, ErrMalformedInput)
	}

	if err := s.admit(ctx, uid); err != nil {
		return nil, err
	}

	return s.sync(ctx, authKey, uid)
}

// BeginCapture 会话进入等待链接状态
func (s *GachaLogService) BeginCapture(cid, uid string) {
	s.capture.Begin(cid, uid)
}

// CaptureState 会话当前状态
func (s *GachaLogService) CaptureState(cid string) manager.CaptureState {
	return s.capture.State(cid)
}

// HandleMessage 等待链接的会话收到下一条消息，无论是否有效都回到 Idle
func (s *GachaLogService) HandleMessage(ctx context.Context, cid, message string) (*model.SyncResult, error) {
	uid, ok := s.capture.Consume(cid)
	if !ok {
		return nil, ErrNotAwaitingLink
	}
	return s.RefreshWithLink(ctx, uid, message)
}

// Analyze 只读统计，不触发刷新
func (s *GachaLogService) Analyze(ctx context.Context, uid string) (*model.Analysis, error) {
	return s.analyzer.Analyze(ctx, uid)
}

// AccessLink 解析 authkey 并生成游戏内抽卡记录页面链接，不拉取也不合并
func (s *GachaLogService) AccessLink(ctx context.Context, uid string) (string, error) {
	authKey, err := s.resolve(ctx, uid)
	if err != nil {
		return "", err
	}
	return client.BuildAccessLink(&s.config.API, authKey), nil
}

func (s *GachaLogService) admit(ctx context.Context, uid string) error {
	adm, err := s.cooldown.CheckAndReserve(ctx, uid, s.config.Interval)
	if err != nil {
		s.metrics.RecordRefresh("store_error")
		return storeError(err, "reserve cooldown")
	}
	if !adm.Admitted {
		s.metrics.RecordRefresh("cooldown")
		return &CooldownActiveError{Remaining: adm.Remaining}
	}
	return nil
}

func (s *GachaLogService) resolve(ctx context.Context, uid string) (string, error) {
	v, err, _ := s.resolving.Do(uid, func() (any, error) {
		return s.authKeys.Resolve(ctx, uid)
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to resolve authkey", "uid", uid, "error", err)
		return "", tokenError(err, uid)
	}
	return v.(string), nil
}

// sync 存储故障时可能同时返回部分结果与 ErrStoreUnavailable
func (s *GachaLogService) sync(ctx context.Context, authKey, uid string) (*model.SyncResult, error) {
	result, err := s.engine.Run(ctx, authKey, uid)
	if err != nil {
		s.metrics.RecordRefresh("store_error")
		// 已落库的新增记录仍需通知下游，否则下次刷新会视其为已知记录
		if result != nil && result.Inserted() > 0 {
			s.publish(ctx, result)
		}
		return result, err
	}
	s.metrics.RecordRefresh("success")
	s.publish(ctx, result)
	return result, nil
}

// publish 事件发布失败不影响本次刷新结果
func (s *GachaLogService) publish(ctx context.Context, result *model.SyncResult) {
	if err := s.events.PublishSynced(ctx, result); err != nil {
		s.logger.WarnContext(ctx, "failed to publish synced event", "uid", result.UID, "error", err)
	}
}
