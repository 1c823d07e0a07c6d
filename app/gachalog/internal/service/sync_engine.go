package service

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/metrics"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/model"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/repository"
	"github.com/strawxiguan/zzz-gachalog/pkg/logger"
	"github.com/strawxiguan/zzz-gachalog/pkg/otel"
	"github.com/strawxiguan/zzz-gachalog/pkg/util/conc"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// poolFetch 单个频段的拉取结果
type poolFetch struct {
	fetch *FetchResult
	err   error
}

// SyncEngine 对一个玩家的全部频段执行拉取与合并
// 不检查冷却也不解析 authkey，二者由调用方保证
type SyncEngine struct {
	logger  logger.Logger
	fetcher *GachaFetcher
	store   repository.RecordStore
	workers *conc.Pool[poolFetch]
	metrics *metrics.GachaMetrics
	tracer  trace.Tracer
}

// NewSyncEngine 创建同步引擎
func NewSyncEngine(
	cfg *Config,
	l logger.Logger,
	fetcher *GachaFetcher,
	store repository.RecordStore,
	m *metrics.GachaMetrics,
) *SyncEngine {
	return &SyncEngine{
		logger:  l.Named("service.sync"),
		fetcher: fetcher,
		store:   store,
		workers: conc.NewPool[poolFetch](cfg.Workers),
		metrics: m,
		tracer:  otel.Tracer("gachalog/service"),
	}
}

// Run 同步全部频段；单个频段拉取失败记入 FailedPools，不影响其他频段
// 全部频段拉取结束后才按枚举顺序逐个合并。合并遇到存储错误时停止，
// 返回已落库频段的部分结果与 ErrStoreUnavailable，未落库频段记入 UnmergedPools
func (e *SyncEngine) Run(ctx context.Context, authKey, uid string) (_ *model.SyncResult, err error) {
	ctx, span := e.tracer.Start(ctx, "gacha.sync", trace.WithAttributes(attribute.String("gacha.uid", uid)))
	defer func() { otel.EndSpan(span, err) }()

	start := time.Now()

	// 先读取各频段最新 ID，存储不可用时不发起任何网络请求
	latest := make([]string, len(model.Pools))
	for i, pool := range model.Pools {
		id, err := e.store.LatestID(ctx, uid, pool)
		if err != nil {
			return nil, storeError(err, "load latest record id")
		}
		latest[i] = id
	}

	futures := make([]*conc.Future[poolFetch], len(model.Pools))
	for i, pool := range model.Pools {
		knownLatestID := latest[i]
		futures[i] = e.workers.Submit(func() (poolFetch, error) {
			return e.fetchPool(ctx, authKey, pool, knownLatestID), nil
		})
	}

	fetched := make([]poolFetch, len(model.Pools))
	for i := range model.Pools {
		out, err := futures[i].Await()
		if err != nil {
			// 提交失败或任务 panic，按频段失败处理
			out = poolFetch{err: err}
		}
		fetched[i] = out
	}

	result := model.NewSyncResult(uid)
	var storeErr error
	for i, pool := range model.Pools {
		out := fetched[i]
		if out.err != nil {
			e.failPool(ctx, result, uid, pool, out.err)
			continue
		}
		if storeErr != nil {
			result.UnmergedPools = append(result.UnmergedPools, pool)
			continue
		}

		merged, err := e.store.Merge(ctx, uid, pool, out.fetch.Records)
		switch {
		case errors.Is(err, repository.ErrMergeConflict):
			// 并发合并冲突只影响该频段，下次刷新会补齐
			e.failPool(ctx, result, uid, pool, err)
		case err != nil:
			storeErr = storeError(err, "merge pool history")
			result.UnmergedPools = append(result.UnmergedPools, pool)
		default:
			result.InsertedCount[pool] = len(merged.Inserted)
			result.TotalCount[pool] = merged.Total
			if len(merged.Inserted) > 0 {
				result.DeltaRecords[pool] = merged.Inserted
			}
			fetchResult := "success"
			if out.fetch.Truncated {
				result.TruncatedPools = append(result.TruncatedPools, pool)
				fetchResult = "truncated"
			}
			e.metrics.RecordPoolFetch(pool.String(), fetchResult, out.fetch.Pages)
		}
	}

	result.Duration = time.Since(start)
	e.metrics.RecordSync(result.Duration.Seconds())
	span.SetAttributes(
		attribute.Int("gacha.inserted", result.Inserted()),
		attribute.Int("gacha.failed_pools", len(result.FailedPools)),
		attribute.Int("gacha.unmerged_pools", len(result.UnmergedPools)),
	)

	if storeErr != nil {
		e.logger.ErrorContext(ctx, "gacha log partially synced",
			"uid", uid,
			"inserted", result.Inserted(),
			"unmerged_pools", len(result.UnmergedPools),
			"error", storeErr,
		)
		return result, storeErr
	}

	e.logger.InfoContext(ctx, "gacha log synced",
		"uid", uid,
		"inserted", result.Inserted(),
		"failed_pools", len(result.FailedPools),
		"duration", result.Duration.String(),
	)
	return result, nil
}

func (e *SyncEngine) failPool(ctx context.Context, result *model.SyncResult, uid string, pool model.Pool, err error) {
	result.FailedPools[pool] = err
	e.metrics.RecordPoolFetch(pool.String(), "failed", 0)
	e.logger.WarnContext(ctx, "pool fetch failed",
		"uid", uid,
		"pool", pool.String(),
		"error", err,
	)
}

func (e *SyncEngine) fetchPool(ctx context.Context, authKey string, pool model.Pool, knownLatestID string) (out poolFetch) {
	ctx, span := e.tracer.Start(ctx, "gacha.fetch_pool", trace.WithAttributes(attribute.String("gacha.pool", pool.String())))
	defer func() {
		if out.fetch != nil {
			span.SetAttributes(
				attribute.Int("gacha.pages", out.fetch.Pages),
				attribute.Bool("gacha.truncated", out.fetch.Truncated),
			)
		}
		otel.EndSpan(span, out.err)
	}()

	fetched, err := e.fetcher.FetchPool(ctx, authKey, pool, knownLatestID)
	if err != nil {
		return poolFetch{err: err}
	}
	return poolFetch{fetch: fetched}
}

// Close 释放协程池
func (e *SyncEngine) Close() error {
	e.workers.Release()
	return nil
}
