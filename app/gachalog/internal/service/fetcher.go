package service

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/client"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/model"
	"github.com/strawxiguan/zzz-gachalog/pkg/logger"
	"golang.org/x/time/rate"
)

// PageFetcher 远端单页拉取
type PageFetcher interface {
	FetchPage(ctx context.Context, req client.PageRequest) ([]*model.GachaRecord, error)
}

// FetchResult 单个频段的拉取结果
type FetchResult struct {
	// Records 新记录，新到旧
	Records []*model.GachaRecord
	// Pages 实际请求的页数
	Pages int
	// Truncated 达到翻页上限而停止
	Truncated bool
}

// GachaFetcher 按 end_id 游标从新到旧翻页
type GachaFetcher struct {
	pages        PageFetcher
	maxPages     int
	pageSize     int
	pageInterval rate.Limit
	logger       logger.Logger
}

// NewGachaFetcher 创建拉取器
func NewGachaFetcher(cfg *Config, pages PageFetcher, l logger.Logger) *GachaFetcher {
	limit := rate.Inf
	if cfg.PageInterval > 0 {
		limit = rate.Every(cfg.PageInterval)
	}
	return &GachaFetcher{
		pages:        pages,
		maxPages:     cfg.MaxPages,
		pageSize:     cfg.API.PageSize,
		pageInterval: limit,
		logger:       l.Named("service.fetcher"),
	}
}

// FetchPool 拉取一个频段直到：空页、遇到 knownLatestID、或达到翻页上限
// 同一频段的页请求严格串行；任一页失败时丢弃已拉取的全部记录
// 达到上限时若最后一页不满一页，说明历史已取完，不算截断
func (f *GachaFetcher) FetchPool(ctx context.Context, authKey string, pool model.Pool, knownLatestID string) (*FetchResult, error) {
	limiter := rate.NewLimiter(f.pageInterval, 1)
	res := &FetchResult{}
	endID := ""
	lastLen := 0

	for page := 1; ; page++ {
		if page > f.maxPages {
			if f.pageSize > 0 && lastLen < f.pageSize {
				return res, nil
			}
			res.Truncated = true
			f.logger.WarnContext(ctx, "page ceiling reached, history truncated",
				"pool", pool.String(),
				"max_pages", f.maxPages,
			)
			return res, nil
		}

		if err := limiter.Wait(ctx); err != nil {
			return nil, errors.Wrapf(err, "fetch pool %s", pool)
		}

		records, err := f.pages.FetchPage(ctx, client.PageRequest{
			AuthKey: authKey,
			Pool:    pool,
			EndID:   endID,
			Page:    page,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "fetch pool %s page %d", pool, page)
		}
		res.Pages++

		if len(records) == 0 {
			return res, nil
		}

		if knownLatestID != "" {
			for i, rec := range records {
				if rec.ID == knownLatestID {
					res.Records = append(res.Records, records[:i]...)
					return res, nil
				}
			}
		}

		res.Records = append(res.Records, records...)
		endID = records[len(records)-1].ID
		lastLen = len(records)
	}
}
