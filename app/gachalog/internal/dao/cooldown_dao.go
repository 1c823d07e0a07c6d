package dao

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/metrics"
	"github.com/strawxiguan/zzz-gachalog/pkg/database/kv"
	"github.com/strawxiguan/zzz-gachalog/pkg/logger"
)

// CooldownEntry 玩家最近一次刷新预约时间
type CooldownEntry struct {
	ReservedAt time.Time
	raw        []byte
}

// CooldownDAO 冷却时间戳数据访问对象，值为毫秒时间戳十进制串
type CooldownDAO struct {
	store   kv.Store
	logger  logger.Logger
	metrics *metrics.GachaMetrics
}

// NewCooldownDAO 创建冷却 DAO
func NewCooldownDAO(store kv.Store, l logger.Logger, m *metrics.GachaMetrics) *CooldownDAO {
	return &CooldownDAO{
		store:   store,
		logger:  l.Named("dao.cooldown"),
		metrics: m,
	}
}

// Get 读取冷却记录，不存在时返回 nil
func (d *CooldownDAO) Get(ctx context.Context, uid string) (entry *CooldownEntry, err error) {
	start := time.Now()
	defer func() {
		d.metrics.RecordStoreOp("get", err == nil, time.Since(start).Seconds())
	}()

	raw, err := d.store.Get(ctx, CooldownKey(uid))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cooldown: %w", err)
	}

	ms, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		// 无法解析的旧值视为无冷却，但保留 raw 以便 CAS 覆盖
		d.logger.WarnContext(ctx, "invalid cooldown value", "uid", uid, "error", err)
		return &CooldownEntry{raw: raw}, nil
	}

	return &CooldownEntry{ReservedAt: time.UnixMilli(ms), raw: raw}, nil
}

// Reserve 以 CAS 写入预约时间，prev 为 Get 的结果（nil 表示要求不存在）
func (d *CooldownDAO) Reserve(ctx context.Context, uid string, prev *CooldownEntry, at time.Time) (ok bool, err error) {
	start := time.Now()
	defer func() {
		d.metrics.RecordStoreOp("cas", err == nil, time.Since(start).Seconds())
	}()

	var old []byte
	if prev != nil {
		old = prev.raw
	}
	value := []byte(strconv.FormatInt(at.UnixMilli(), 10))

	ok, err = d.store.CompareAndSwap(ctx, CooldownKey(uid), old, value)
	if err != nil {
		return false, fmt.Errorf("failed to reserve cooldown: %w", err)
	}
	return ok, nil
}
