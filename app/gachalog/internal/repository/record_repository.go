package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/dao"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/metrics"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/model"
	"github.com/strawxiguan/zzz-gachalog/pkg/logger"
)

// maxMergeAttempts 单次合并的 CAS 重试上限
const maxMergeAttempts = 8

// ErrMergeConflict 并发合并在重试上限内未能提交
var ErrMergeConflict = errors.New("repository: merge conflict")

// MergeOutcome 合并结果
type MergeOutcome struct {
	// Inserted 实际新增的记录，按时间升序
	Inserted []*model.GachaRecord
	// Total 合并后该频段的总条数
	Total int
}

// RecordStore 频段历史仓储接口
type RecordStore interface {
	// Merge 将新拉取的记录（新到旧）去重后按时间升序并入历史，可重复调用
	Merge(ctx context.Context, uid string, pool model.Pool, newestFirst []*model.GachaRecord) (*MergeOutcome, error)
	// History 读取频段历史，exists 表示该频段是否同步过
	History(ctx context.Context, uid string, pool model.Pool) (history model.PoolHistory, exists bool, err error)
	// LatestID 最新一条记录的 ID，无记录时为空串
	LatestID(ctx context.Context, uid string, pool model.Pool) (string, error)
	// HasAny 玩家是否有任一频段同步过
	HasAny(ctx context.Context, uid string) (bool, error)
}

// recordStoreImpl 基于 HistoryDAO 的乐观并发实现
type recordStoreImpl struct {
	historyDAO *dao.HistoryDAO
	logger     logger.Logger
	metrics    *metrics.GachaMetrics
}

// NewRecordStore 创建频段历史仓储
func NewRecordStore(historyDAO *dao.HistoryDAO, l logger.Logger, m *metrics.GachaMetrics) RecordStore {
	return &recordStoreImpl{
		historyDAO: historyDAO,
		logger:     l.Named("repository.record"),
		metrics:    m,
	}
}

func (r *recordStoreImpl) Merge(ctx context.Context, uid string, pool model.Pool, newestFirst []*model.GachaRecord) (*MergeOutcome, error) {
	for attempt := 1; attempt <= maxMergeAttempts; attempt++ {
		snap, err := r.historyDAO.Load(ctx, uid, pool)
		if err != nil {
			return nil, err
		}

		fresh := filterFresh(snap.Records, newestFirst, uid, pool)
		if len(fresh) == 0 && snap.Exists() {
			return &MergeOutcome{Total: len(snap.Records)}, nil
		}

		merged := mergeSorted(snap.Records, fresh)
		ok, err := r.historyDAO.Save(ctx, uid, pool, snap, merged)
		if err != nil {
			return nil, err
		}
		if ok {
			r.metrics.RecordInserted(pool.String(), len(fresh))
			if len(fresh) > 0 {
				r.logger.DebugContext(ctx, "history merged",
					"uid", uid,
					"pool", pool.String(),
					"inserted", len(fresh),
					"total", len(merged),
				)
			}
			return &MergeOutcome{Inserted: fresh, Total: len(merged)}, nil
		}

		r.metrics.RecordMergeConflict(pool.String())
		r.logger.DebugContext(ctx, "history changed concurrently, retrying",
			"uid", uid,
			"pool", pool.String(),
			"attempt", attempt,
		)
	}

	return nil, fmt.Errorf("%w: uid=%s pool=%s", ErrMergeConflict, uid, pool)
}

func (r *recordStoreImpl) History(ctx context.Context, uid string, pool model.Pool) (model.PoolHistory, bool, error) {
	snap, err := r.historyDAO.Load(ctx, uid, pool)
	if err != nil {
		return nil, false, err
	}
	return snap.Records, snap.Exists(), nil
}

func (r *recordStoreImpl) LatestID(ctx context.Context, uid string, pool model.Pool) (string, error) {
	snap, err := r.historyDAO.Load(ctx, uid, pool)
	if err != nil {
		return "", err
	}
	if latest := snap.Records.Latest(); latest != nil {
		return latest.ID, nil
	}
	return "", nil
}

func (r *recordStoreImpl) HasAny(ctx context.Context, uid string) (bool, error) {
	for _, pool := range model.Pools {
		_, exists, err := r.History(ctx, uid, pool)
		if err != nil {
			return false, err
		}
		if exists {
			return true, nil
		}
	}
	return false, nil
}

// filterFresh 过滤已存在以及批内重复的记录，返回按时间升序的新记录
func filterFresh(existing model.PoolHistory, newestFirst []*model.GachaRecord, uid string, pool model.Pool) []*model.GachaRecord {
	seen := make(map[string]struct{}, len(existing)+len(newestFirst))
	for _, rec := range existing {
		seen[rec.ID] = struct{}{}
	}

	var fresh []*model.GachaRecord
	for _, rec := range newestFirst {
		if _, ok := seen[rec.ID]; ok {
			continue
		}
		seen[rec.ID] = struct{}{}

		cp := *rec
		cp.UID = uid
		cp.Pool = pool
		fresh = append(fresh, &cp)
	}

	slices.SortStableFunc(fresh, compareRecords)
	return fresh
}

// mergeSorted 归并两个升序序列，返回新切片
func mergeSorted(a, b []*model.GachaRecord) model.PoolHistory {
	out := make(model.PoolHistory, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if b[j].Before(a[i]) {
			out = append(out, b[j])
			j++
		} else {
			out = append(out, a[i])
			i++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

func compareRecords(x, y *model.GachaRecord) int {
	switch {
	case x.Before(y):
		return -1
	case y.Before(x):
		return 1
	}
	return 0
}
