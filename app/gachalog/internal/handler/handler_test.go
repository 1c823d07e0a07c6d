package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/manager"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/model"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/service"
	"github.com/strawxiguan/zzz-gachalog/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	refreshErr error
	lastLink   string
	lastUID    string
	captures   map[string]string
	analysis   *model.Analysis
	link       string

	// partial 出错时同时返回结果，模拟部分频段已落库
	partial bool
}

func newFakeService() *fakeService {
	return &fakeService{captures: make(map[string]string)}
}

func (f *fakeService) result(uid string) *model.SyncResult {
	res := model.NewSyncResult(uid)
	res.InsertedCount[model.PoolStandard] = 2
	res.TotalCount[model.PoolStandard] = 5
	res.InsertedCount[model.PoolCharacter] = 0
	res.TotalCount[model.PoolCharacter] = 0
	res.FailedPools[model.PoolWeapon] = errors.New("timeout")
	res.InsertedCount[model.PoolBangboo] = 0
	res.TotalCount[model.PoolBangboo] = 1
	res.TruncatedPools = []model.Pool{model.PoolBangboo}
	res.Duration = 1500 * time.Millisecond
	return res
}

func (f *fakeService) Refresh(_ context.Context, uid string) (*model.SyncResult, error) {
	f.lastUID = uid
	return f.finish(uid)
}

func (f *fakeService) RefreshWithLink(_ context.Context, uid, link string) (*model.SyncResult, error) {
	f.lastUID, f.lastLink = uid, link
	return f.finish(uid)
}

func (f *fakeService) finish(uid string) (*model.SyncResult, error) {
	switch {
	case f.refreshErr != nil && f.partial:
		res := f.result(uid)
		res.UnmergedPools = []model.Pool{model.PoolBangboo}
		return res, f.refreshErr
	case f.refreshErr != nil:
		return nil, f.refreshErr
	}
	return f.result(uid), nil
}

func (f *fakeService) BeginCapture(cid, uid string) { f.captures[cid] = uid }

func (f *fakeService) CaptureState(cid string) manager.CaptureState {
	if _, ok := f.captures[cid]; ok {
		return manager.CaptureAwaitingLink
	}
	return manager.CaptureIdle
}

func (f *fakeService) HandleMessage(ctx context.Context, cid, message string) (*model.SyncResult, error) {
	uid, ok := f.captures[cid]
	if !ok {
		return nil, service.ErrNotAwaitingLink
	}
	delete(f.captures, cid)
	return f.RefreshWithLink(ctx, uid, message)
}

func (f *fakeService) Analyze(_ context.Context, uid string) (*model.Analysis, error) {
	if f.analysis == nil {
		return nil, service.ErrNoData
	}
	return f.analysis, nil
}

func (f *fakeService) AccessLink(_ context.Context, uid string) (string, error) {
	if f.link == "" {
		return "", errors.Mark(errors.New("no cookie"), service.ErrTokenUnavailable)
	}
	return f.link, nil
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setup(t *testing.T, svc *fakeService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewGachaLogHandler(logger.NewNoop(), svc).RegisterRoutes(r)
	return r
}

func do(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestRefresh_Success(t *testing.T) {
	svc := newFakeService()
	r := setup(t, svc)

	w, env := do(t, r, http.MethodPost, "/api/v1/players/1001/refresh", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, env.Code)
	assert.Equal(t, "1001", svc.lastUID)
	assert.Empty(t, svc.lastLink)

	var resp refreshResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, 2, resp.Inserted)
	assert.Equal(t, int64(1500), resp.DurationMS)
	require.Len(t, resp.Pools, len(model.Pools))

	byPool := make(map[model.Pool]poolDelta)
	for _, p := range resp.Pools {
		byPool[p.Pool] = p
	}
	assert.Equal(t, 2, byPool[model.PoolStandard].Inserted)
	assert.Equal(t, 5, byPool[model.PoolStandard].Total)
	assert.True(t, byPool[model.PoolWeapon].Failed)
	assert.Equal(t, "timeout", byPool[model.PoolWeapon].Error)
	assert.True(t, byPool[model.PoolBangboo].Truncated)
	assert.False(t, byPool[model.PoolCharacter].Failed)
}

func TestRefresh_WithLink(t *testing.T) {
	svc := newFakeService()
	r := setup(t, svc)

	w, _ := do(t, r, http.MethodPost, "/api/v1/players/1001/refresh", `{"link":"https://x/?authkey=abc"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://x/?authkey=abc", svc.lastLink)
}

func TestRefresh_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"cooldown", &service.CooldownActiveError{Remaining: 200 * time.Second}, http.StatusTooManyRequests, kindCooldown},
		{"malformed", errors.Wrap(service.ErrMalformedInput, "extract"), http.StatusBadRequest, kindMalformedInput},
		{"token", errors.Mark(errors.New("cookie expired"), service.ErrTokenUnavailable), http.StatusUnprocessableEntity, kindTokenUnavailable},
		{"store", errors.Mark(errors.New("redis down"), service.ErrStoreUnavailable), http.StatusServiceUnavailable, kindStoreUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, kindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeService()
			svc.refreshErr = tt.err
			r := setup(t, svc)

			w, env := do(t, r, http.MethodPost, "/api/v1/players/1001/refresh", "")
			assert.Equal(t, tt.status, w.Code)
			assert.NotZero(t, env.Code)

			var data map[string]any
			require.NoError(t, json.Unmarshal(env.Data, &data))
			assert.Equal(t, tt.kind, data["kind"])
		})
	}
}

func TestRefresh_CooldownHeaders(t *testing.T) {
	svc := newFakeService()
	svc.refreshErr = &service.CooldownActiveError{Remaining: 200 * time.Second}
	r := setup(t, svc)

	w, env := do(t, r, http.MethodPost, "/api/v1/players/1001/refresh", "")
	assert.Equal(t, "200", w.Header().Get("Retry-After"))

	var data map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.EqualValues(t, 200, data["remaining_seconds"])
}

func TestRefresh_StoreUnavailablePartial(t *testing.T) {
	svc := newFakeService()
	svc.refreshErr = errors.Mark(errors.New("redis down"), service.ErrStoreUnavailable)
	svc.partial = true
	r := setup(t, svc)

	w, env := do(t, r, http.MethodPost, "/api/v1/players/1001/refresh", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var data struct {
		Kind    string          `json:"kind"`
		Partial refreshResponse `json:"partial"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, kindStoreUnavailable, data.Kind)
	assert.Equal(t, 2, data.Partial.Inserted)
	require.Len(t, data.Partial.Pools, len(model.Pools))
	assert.True(t, data.Partial.Pools[3].Unmerged)
	assert.False(t, data.Partial.Pools[0].Unmerged)
}

func TestRefresh_ChunkedBody(t *testing.T) {
	svc := newFakeService()
	r := setup(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/players/1001/refresh",
		strings.NewReader(`{"link":"https://example.com/?authkey=abc"}`))
	req.Header.Set("Content-Type", "application/json")
	// 分块传输没有 Content-Length
	req.ContentLength = -1
	req.TransferEncoding = []string{"chunked"}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://example.com/?authkey=abc", svc.lastLink)
}

func TestAnalysis(t *testing.T) {
	svc := newFakeService()
	r := setup(t, svc)

	w, env := do(t, r, http.MethodGet, "/api/v1/players/1001/analysis", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, string(env.Data), kindNoData)

	svc.analysis = &model.Analysis{UID: "1001", Pools: map[model.Pool]*model.PoolStats{
		model.PoolStandard: {Pool: model.PoolStandard, Total: 3},
	}}
	w, env = do(t, r, http.MethodGet, "/api/v1/players/1001/analysis", "")
	require.Equal(t, http.StatusOK, w.Code)

	var a model.Analysis
	require.NoError(t, json.Unmarshal(env.Data, &a))
	assert.Equal(t, 3, a.Pools[model.PoolStandard].Total)
}

func TestAccessLink(t *testing.T) {
	svc := newFakeService()
	r := setup(t, svc)

	w, _ := do(t, r, http.MethodGet, "/api/v1/players/1001/link", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	svc.link = "https://example/index.html?authkey=k#/info"
	w, env := do(t, r, http.MethodGet, "/api/v1/players/1001/link", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "authkey=k")
}

func TestCaptureFlow(t *testing.T) {
	svc := newFakeService()
	r := setup(t, svc)

	w, env := do(t, r, http.MethodPost, "/api/v1/conversations/c1/messages", `{"message":"hello"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, string(env.Data), kindNotAwaitingLink)

	w, _ = do(t, r, http.MethodPost, "/api/v1/conversations/c1/capture", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = do(t, r, http.MethodPost, "/api/v1/conversations/c1/capture", `{"uid":"1001"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "awaiting_link")

	w, env = do(t, r, http.MethodGet, "/api/v1/conversations/c1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "awaiting_link")

	w, _ = do(t, r, http.MethodPost, "/api/v1/conversations/c1/messages", `{"message":"https://x/?authkey=abc"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1001", svc.lastUID)
	assert.Equal(t, "https://x/?authkey=abc", svc.lastLink)

	_, env = do(t, r, http.MethodGet, "/api/v1/conversations/c1", "")
	assert.Contains(t, string(env.Data), "idle")
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	RegisterHealth(r, pingerFunc(func(context.Context) error { return nil }))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	r = gin.New()
	RegisterHealth(r, pingerFunc(func(context.Context) error { return errors.New("down") }))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
