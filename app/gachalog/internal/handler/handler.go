package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/manager"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/model"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/service"
	"github.com/strawxiguan/zzz-gachalog/pkg/logger"
	"github.com/strawxiguan/zzz-gachalog/pkg/web"
	weberrors "github.com/strawxiguan/zzz-gachalog/pkg/web/errors"
)

// GachaLogService 处理器依赖的服务接口
type GachaLogService interface {
	Refresh(ctx context.Context, uid string) (*model.SyncResult, error)
	RefreshWithLink(ctx context.Context, uid, link string) (*model.SyncResult, error)
	BeginCapture(cid, uid string)
	CaptureState(cid string) manager.CaptureState
	HandleMessage(ctx context.Context, cid, message string) (*model.SyncResult, error)
	Analyze(ctx context.Context, uid string) (*model.Analysis, error)
	AccessLink(ctx context.Context, uid string) (string, error)
}

var _ GachaLogService = (*service.GachaLogService)(nil)

// 错误类型标识，调用方据此区分展示
const (
	kindCooldown         = "cooldown_active"
	kindTokenUnavailable = "token_unavailable"
	kindMalformedInput   = "malformed_input"
	kindNoData           = "no_data"
	kindNotAwaitingLink  = "not_awaiting_link"
	kindStoreUnavailable = "store_unavailable"
	kindInternal         = "internal"
)

// GachaLogHandler 抽卡记录 HTTP 接口
type GachaLogHandler struct {
	logger logger.Logger
	svc    GachaLogService
}

// NewGachaLogHandler 创建处理器
func NewGachaLogHandler(l logger.Logger, svc GachaLogService) *GachaLogHandler {
	return &GachaLogHandler{
		logger: l.Named("handler.gachalog"),
		svc:    svc,
	}
}

// RegisterRoutes 注册路由
func (h *GachaLogHandler) RegisterRoutes(r gin.IRouter) {
	v1 := r.Group("/api/v1")

	players := v1.Group("/players/:uid")
	players.POST("/refresh", h.Refresh)
	players.GET("/analysis", h.Analysis)
	players.GET("/link", h.AccessLink)

	conversations := v1.Group("/conversations/:cid")
	conversations.GET("", h.CaptureState)
	conversations.POST("/capture", h.BeginCapture)
	conversations.POST("/messages", h.Message)
}

type refreshRequest struct {
	// Link 可选，直接使用粘贴的抽卡链接
	Link string `json:"link"`
}

type captureRequest struct {
	UID string `json:"uid" binding:"required"`
}

type messageRequest struct {
	Message string `json:"message" binding:"required"`
}

type poolDelta struct {
	Pool      model.Pool `json:"pool"`
	Name      string     `json:"name"`
	Inserted  int        `json:"inserted"`
	Total     int        `json:"total"`
	Truncated bool       `json:"truncated,omitempty"`
	Failed    bool       `json:"failed,omitempty"`
	Unmerged  bool       `json:"unmerged,omitempty"`
	Error     string     `json:"error,omitempty"`
}

type refreshResponse struct {
	UID        string                              `json:"uid"`
	Inserted   int                                 `json:"inserted"`
	Pools      []poolDelta                         `json:"pools"`
	Records    map[model.Pool][]*model.GachaRecord `json:"records"`
	DurationMS int64                               `json:"duration_ms"`
}

// Refresh POST /api/v1/players/:uid/refresh
func (h *GachaLogHandler) Refresh(c *gin.Context) {
	uid := c.Param("uid")

	var req refreshRequest
	if hasBody(c.Request) {
		if !web.BindAndValidate(c, &req) {
			return
		}
	}

	var (
		res *model.SyncResult
		err error
	)
	if req.Link != "" {
		res, err = h.svc.RefreshWithLink(c.Request.Context(), uid, req.Link)
	} else {
		res, err = h.svc.Refresh(c.Request.Context(), uid)
	}
	if err != nil {
		h.writeRefreshError(c, res, err)
		return
	}
	web.Success(c, toRefreshResponse(res))
}

// hasBody 分块传输时 ContentLength 为 -1，只按 Body 是否为空判断
func hasBody(r *http.Request) bool {
	return r.Body != nil && r.Body != http.NoBody && r.ContentLength != 0
}

// Analysis GET /api/v1/players/:uid/analysis
func (h *GachaLogHandler) Analysis(c *gin.Context) {
	res, err := h.svc.Analyze(c.Request.Context(), c.Param("uid"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	web.Success(c, res)
}

// AccessLink GET /api/v1/players/:uid/link
func (h *GachaLogHandler) AccessLink(c *gin.Context) {
	link, err := h.svc.AccessLink(c.Request.Context(), c.Param("uid"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	web.Success(c, gin.H{"link": link})
}

// CaptureState GET /api/v1/conversations/:cid
func (h *GachaLogHandler) CaptureState(c *gin.Context) {
	web.Success(c, gin.H{"state": h.svc.CaptureState(c.Param("cid")).String()})
}

// BeginCapture POST /api/v1/conversations/:cid/capture
func (h *GachaLogHandler) BeginCapture(c *gin.Context) {
	var req captureRequest
	if !web.BindAndValidate(c, &req) {
		return
	}
	cid := c.Param("cid")
	h.svc.BeginCapture(cid, req.UID)
	web.Success(c, gin.H{"state": h.svc.CaptureState(cid).String()})
}

// Message POST /api/v1/conversations/:cid/messages
func (h *GachaLogHandler) Message(c *gin.Context) {
	var req messageRequest
	if !web.BindAndValidate(c, &req) {
		return
	}
	res, err := h.svc.HandleMessage(c.Request.Context(), c.Param("cid"), req.Message)
	if err != nil {
		h.writeRefreshError(c, res, err)
		return
	}
	web.Success(c, toRefreshResponse(res))
}

func toRefreshResponse(res *model.SyncResult) *refreshResponse {
	out := &refreshResponse{
		UID:        res.UID,
		Inserted:   res.Inserted(),
		Records:    res.DeltaRecords,
		DurationMS: res.Duration.Milliseconds(),
	}

	truncated := make(map[model.Pool]bool, len(res.TruncatedPools))
	for _, p := range res.TruncatedPools {
		truncated[p] = true
	}
	unmerged := make(map[model.Pool]bool, len(res.UnmergedPools))
	for _, p := range res.UnmergedPools {
		unmerged[p] = true
	}

	for _, p := range model.Pools {
		d := poolDelta{
			Pool:      p,
			Name:      p.DisplayName(),
			Inserted:  res.InsertedCount[p],
			Total:     res.TotalCount[p],
			Truncated: truncated[p],
			Unmerged:  unmerged[p],
		}
		if err, ok := res.FailedPools[p]; ok {
			d.Failed = true
			d.Error = err.Error()
		}
		out.Pools = append(out.Pools, d)
	}
	return out
}

// writeRefreshError 存储故障但已有频段落库时，随错误一并返回部分结果
func (h *GachaLogHandler) writeRefreshError(c *gin.Context, res *model.SyncResult, err error) {
	if res == nil || !errors.Is(err, service.ErrStoreUnavailable) {
		h.writeError(c, err)
		return
	}
	h.logger.ErrorContext(c.Request.Context(), "store unavailable after partial sync",
		"path", c.FullPath(),
		"inserted", res.Inserted(),
		"error", err,
	)
	web.ErrorWithData(c, weberrors.CodeUnavailable, "storage unavailable", gin.H{
		"kind":    kindStoreUnavailable,
		"partial": toRefreshResponse(res),
	})
}

// writeError 按错误类型输出不同的业务码
func (h *GachaLogHandler) writeError(c *gin.Context, err error) {
	var cooldown *service.CooldownActiveError
	switch {
	case errors.As(err, &cooldown):
		c.Header("Retry-After", strconv.Itoa(max(cooldown.RemainingSeconds(), 1)))
		web.ErrorWithData(c, weberrors.CodeRateLimited, err.Error(), gin.H{
			"kind":              kindCooldown,
			"remaining_seconds": cooldown.RemainingSeconds(),
		})
	case errors.Is(err, service.ErrMalformedInput):
		web.ErrorWithData(c, weberrors.CodeInvalidParams, "gacha link has no authkey", gin.H{"kind": kindMalformedInput})
	case errors.Is(err, service.ErrTokenUnavailable):
		web.ErrorWithData(c, weberrors.CodeUnprocessable, "authkey unavailable, check the bound cookie", gin.H{"kind": kindTokenUnavailable})
	case errors.Is(err, service.ErrNoData):
		web.ErrorWithData(c, weberrors.CodeNotFound, "no gacha records, refresh first", gin.H{"kind": kindNoData})
	case errors.Is(err, service.ErrNotAwaitingLink):
		web.ErrorWithData(c, weberrors.CodeConflict, err.Error(), gin.H{"kind": kindNotAwaitingLink})
	case errors.Is(err, service.ErrStoreUnavailable):
		h.logger.ErrorContext(c.Request.Context(), "store unavailable", "path", c.FullPath(), "error", err)
		web.ErrorWithData(c, weberrors.CodeUnavailable, "storage unavailable", gin.H{"kind": kindStoreUnavailable})
	default:
		h.logger.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		web.ErrorWithData(c, weberrors.CodeInternalError, http.StatusText(http.StatusInternalServerError), gin.H{"kind": kindInternal})
	}
}
