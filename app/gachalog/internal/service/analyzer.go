package service

import (
	"context"

	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/model"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/repository"
	"github.com/strawxiguan/zzz-gachalog/pkg/logger"
)

// Analyzer 基于已同步历史的只读统计
type Analyzer struct {
	logger logger.Logger
	store  repository.RecordStore
}

// NewAnalyzer 创建分析器
func NewAnalyzer(l logger.Logger, store repository.RecordStore) *Analyzer {
	return &Analyzer{
		logger: l.Named("service.analyzer"),
		store:  store,
	}
}

// Analyze 统计玩家各频段；没有任何同步过的频段时返回 ErrNoData
func (a *Analyzer) Analyze(ctx context.Context, uid string) (*model.Analysis, error) {
	res := &model.Analysis{
		UID:   uid,
		Pools: make(map[model.Pool]*model.PoolStats),
	}

	for _, pool := range model.Pools {
		history, exists, err := a.store.History(ctx, uid, pool)
		if err != nil {
			return nil, storeError(err, "load pool history")
		}
		if !exists {
			continue
		}
		res.Pools[pool] = poolStats(pool, history)
	}

	if len(res.Pools) == 0 {
		return nil, ErrNoData
	}
	return res, nil
}

// poolStats 计算单个频段的稀有度分布与出货抽数
func poolStats(pool model.Pool, history model.PoolHistory) *model.PoolStats {
	stats := &model.PoolStats{
		Pool:         pool,
		Total:        len(history),
		RarityCounts: make(map[int]int),
		TopPulls:     []model.TopPull{},
	}

	since := 0
	for _, rec := range history {
		since++
		stats.RarityCounts[rec.Rarity]++
		if rec.Rarity == model.RarityTop {
			stats.TopPulls = append(stats.TopPulls, model.TopPull{
				Name:       rec.Name,
				ItemID:     rec.ItemID,
				OccurredAt: rec.OccurredAt,
				Pity:       since,
			})
			since = 0
		}
	}
	stats.SinceLastTop = since
	return stats
}
