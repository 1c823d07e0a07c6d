package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/model"
	"github.com/strawxiguan/zzz-gachalog/pkg/logger"
)

const (
	gachaLogPath = "/common/gacha_record/api/getGachaLog"
	timeLayout   = "2006-01-02 15:04:05"
	// defaultTimeZone 远端未返回 region_time_zone 时使用 UTC+8
	defaultTimeZone = 8
	maxBodySize     = 4 << 20
)

// PageRequest 一页请求，EndID 为上一页最旧记录的 ID，首页为空
type PageRequest struct {
	AuthKey string
	Pool    model.Pool
	EndID   string
	Page    int
}

type gachaLogResponse struct {
	Retcode int    `json:"retcode"`
	Message string `json:"message"`
	Data    *struct {
		List           []gachaLogItem `json:"list"`
		Region         string         `json:"region"`
		RegionTimeZone *int           `json:"region_time_zone"`
	} `json:"data"`
}

type gachaLogItem struct {
	UID      string `json:"uid"`
	GachaID  string `json:"gacha_id"`
	ItemID   string `json:"item_id"`
	Count    string `json:"count"`
	Time     string `json:"time"`
	Name     string `json:"name"`
	ItemType string `json:"item_type"`
	RankType string `json:"rank_type"`
	ID       string `json:"id"`
}

// GachaClient 远端抽卡记录接口客户端
type GachaClient struct {
	config *Config
	http   *http.Client
	logger logger.Logger
}

// NewGachaClient 创建客户端
func NewGachaClient(cfg *Config, l logger.Logger) *GachaClient {
	return &GachaClient{
		config: cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: l.Named("client.gacha"),
	}
}

// Config 返回配置
func (c *GachaClient) Config() *Config {
	return c.config
}

// FetchPage 拉取一页记录，页内按新到旧排列
func (c *GachaClient) FetchPage(ctx context.Context, req PageRequest) ([]*model.GachaRecord, error) {
	endID := req.EndID
	if endID == "" {
		endID = "0"
	}
	page := req.Page
	if page <= 0 {
		page = 1
	}

	q := url.Values{}
	q.Set("authkey_ver", "1")
	q.Set("sign_type", "2")
	q.Set("auth_appid", "webview_gacha")
	q.Set("authkey", req.AuthKey)
	q.Set("region", c.config.Region)
	q.Set("game_biz", c.config.GameBiz)
	q.Set("lang", c.config.Lang)
	q.Set("real_gacha_type", req.Pool.GachaType())
	q.Set("size", strconv.Itoa(c.config.PageSize))
	q.Set("page", strconv.Itoa(page))
	q.Set("end_id", endID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.APIBase+gachaLogPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		// url.Error 会带上完整 URL，其中含 authkey
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		return nil, errors.Wrapf(err, "request gacha log pool=%s", req.Pool)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, errors.Newf("gacha api: unexpected status %d", resp.StatusCode)
	}

	var body gachaLogResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&body); err != nil {
		return nil, errors.Wrap(err, "failed to decode gacha log response")
	}
	if body.Retcode != retcodeOK {
		return nil, &APIError{Code: body.Retcode, Message: body.Message}
	}
	if body.Data == nil {
		return nil, nil
	}

	tz := defaultTimeZone
	if body.Data.RegionTimeZone != nil {
		tz = *body.Data.RegionTimeZone
	}
	loc := time.FixedZone(fmt.Sprintf("UTC%+d", tz), tz*3600)

	records := make([]*model.GachaRecord, 0, len(body.Data.List))
	for _, item := range body.Data.List {
		rec, err := item.toRecord(req.Pool, loc)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	c.logger.DebugContext(ctx, "gacha log page fetched",
		"pool", req.Pool.String(),
		"page", page,
		"end_id", endID,
		"count", len(records),
	)
	return records, nil
}

func (it *gachaLogItem) toRecord(pool model.Pool, loc *time.Location) (*model.GachaRecord, error) {
	if it.ID == "" {
		return nil, errors.New("gacha api: record without id")
	}
	at, err := time.ParseInLocation(timeLayout, it.Time, loc)
	if err != nil {
		return nil, errors.Wrapf(err, "gacha api: bad time %q", it.Time)
	}
	rarity, err := strconv.Atoi(it.RankType)
	if err != nil {
		return nil, errors.Wrapf(err, "gacha api: bad rank_type %q", it.RankType)
	}
	count := 1
	if it.Count != "" {
		if n, err := strconv.Atoi(it.Count); err == nil {
			count = n
		}
	}

	return &model.GachaRecord{
		ID:         it.ID,
		UID:        it.UID,
		Pool:       pool,
		OccurredAt: at,
		ItemID:     it.ItemID,
		Rarity:     rarity,
		Name:       it.Name,
		ItemType:   it.ItemType,
		GachaID:    it.GachaID,
		Count:      count,
	}, nil
}
