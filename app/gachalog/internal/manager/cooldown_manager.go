package manager

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/dao"
	"github.com/strawxiguan/zzz-gachalog/pkg/logger"
)

// maxReserveAttempts 预约 CAS 的重试上限
const maxReserveAttempts = 4

// ErrReserveConflict 预约在重试上限内未能提交
var ErrReserveConflict = errors.New("manager: cooldown reservation conflict")

// Admission 冷却检查结果
type Admission struct {
	Admitted bool
	// Remaining 被拒绝时剩余等待时间，向上取整到秒，拒绝时至少 1s
	Remaining time.Duration
}

// CooldownGuard 玩家刷新冷却
// 放行时先写入预约时间再返回，拉取失败也不回滚
type CooldownGuard struct {
	logger      logger.Logger
	cooldownDAO *dao.CooldownDAO
	clock       clockwork.Clock
}

// NewCooldownGuard 创建冷却管理器
func NewCooldownGuard(l logger.Logger, cooldownDAO *dao.CooldownDAO, clock clockwork.Clock) *CooldownGuard {
	return &CooldownGuard{
		logger:      l.Named("manager.cooldown"),
		cooldownDAO: cooldownDAO,
		clock:       clock,
	}
}

// CheckAndReserve 检查冷却并在放行时原子地记录本次时间
func (g *CooldownGuard) CheckAndReserve(ctx context.Context, uid string, interval time.Duration) (Admission, error) {
	for attempt := 1; attempt <= maxReserveAttempts; attempt++ {
		entry, err := g.cooldownDAO.Get(ctx, uid)
		if err != nil {
			return Admission{}, err
		}

		now := g.clock.Now()
		if entry != nil && !entry.ReservedAt.IsZero() {
			// 时钟回拨时按刚刚预约处理
			elapsed := max(now.Sub(entry.ReservedAt), 0)
			if elapsed < interval {
				remaining := ceilSecond(interval - elapsed)
				g.logger.DebugContext(ctx, "refresh rejected by cooldown",
					"uid", uid,
					"remaining", remaining.String(),
				)
				return Admission{Remaining: remaining}, nil
			}
		}

		ok, err := g.cooldownDAO.Reserve(ctx, uid, entry, now)
		if err != nil {
			return Admission{}, err
		}
		if ok {
			return Admission{Admitted: true}, nil
		}
		// 并发预约落败，重新读取后按对方的预约时间判断
	}

	return Admission{}, ErrReserveConflict
}

// ceilSecond 向上取整到整秒
func ceilSecond(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	if r := d.Truncate(time.Second); r < d {
		return r + time.Second
	}
	return d
}
