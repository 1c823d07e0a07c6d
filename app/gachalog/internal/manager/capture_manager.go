package manager

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/strawxiguan/zzz-gachalog/pkg/cache/lru"
	"github.com/strawxiguan/zzz-gachalog/pkg/logger"
)

// CaptureState 会话的链接捕获状态
type CaptureState int

const (
	CaptureIdle CaptureState = iota
	CaptureAwaitingLink
)

func (s CaptureState) String() string {
	if s == CaptureAwaitingLink {
		return "awaiting_link"
	}
	return "idle"
}

// captureEntry 等待粘贴链接的会话
type captureEntry struct {
	UID       string
	StartedAt time.Time
}

// LinkCaptureManager 按会话维护 Idle/AwaitingLink 状态，过期即回到 Idle
type LinkCaptureManager struct {
	logger  logger.Logger
	clock   clockwork.Clock
	pending *lru.LRU[string, captureEntry]
}

// NewLinkCaptureManager 创建链接捕获管理器
func NewLinkCaptureManager(l logger.Logger, cfg *lru.Config, clock clockwork.Clock) *LinkCaptureManager {
	m := &LinkCaptureManager{
		logger: l.Named("manager.capture"),
		clock:  clock,
	}
	m.pending = lru.New[string, captureEntry](cfg,
		lru.WithClock[string, captureEntry](clock),
		lru.WithOnEvict(func(cid string, e captureEntry) {
			m.logger.Debug("link capture expired", "conversation", cid, "uid", e.UID)
		}),
	)
	return m
}

// Begin Idle -> AwaitingLink，重复调用会刷新过期时间
func (m *LinkCaptureManager) Begin(cid, uid string) {
	m.pending.Set(cid, captureEntry{UID: uid, StartedAt: m.clock.Now()})
	m.logger.Debug("link capture started", "conversation", cid, "uid", uid)
}

// State 当前状态
func (m *LinkCaptureManager) State(cid string) CaptureState {
	if _, ok := m.pending.Get(cid); ok {
		return CaptureAwaitingLink
	}
	return CaptureIdle
}

// Consume 收到会话的下一条消息：AwaitingLink -> Idle，返回发起捕获的玩家
func (m *LinkCaptureManager) Consume(cid string) (uid string, ok bool) {
	e, ok := m.pending.Take(cid)
	if !ok {
		return "", false
	}
	return e.UID, true
}

// Cancel 主动回到 Idle
func (m *LinkCaptureManager) Cancel(cid string) {
	m.pending.Delete(cid)
}

// Close 停止后台清理
func (m *LinkCaptureManager) Close() error {
	return m.pending.Close()
}
