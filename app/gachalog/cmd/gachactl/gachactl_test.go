package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/model"
	"github.com/strawxiguan/zzz-gachalog/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvelope(w http.ResponseWriter, status, code int, msg string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"code": code, "message": msg, "data": data})
}

func TestAPIClient_Refresh(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/players/1001/refresh", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		writeEnvelope(w, http.StatusOK, 0, "ok", map[string]any{
			"uid":      "1001",
			"inserted": 3,
			"pools": []map[string]any{
				{"pool": "standard", "name": "常驻频段", "inserted": 3, "total": 10},
				{"pool": "weapon", "name": "音擎频段", "failed": true, "error": "timeout"},
			},
			"duration_ms": 1200,
		})
	}))
	defer srv.Close()

	c := newAPIClient(srv.URL+"/", time.Second)
	res, err := c.Refresh(context.Background(), "1001", "https://x/?authkey=k")
	require.NoError(t, err)
	assert.Equal(t, "https://x/?authkey=k", gotBody["link"])
	assert.Equal(t, 3, res.Inserted)
	require.Len(t, res.Pools, 2)
	assert.Equal(t, model.PoolStandard, res.Pools[0].Pool)
	assert.True(t, res.Pools[1].Failed)

	var out bytes.Buffer
	require.NoError(t, renderRefresh(&out, res))
	assert.Contains(t, out.String(), "共1个卡池")
	assert.Contains(t, out.String(), "常驻频段新增3条记录，一共10条记录")
	assert.Contains(t, out.String(), "音擎频段获取失败")
}

func TestAPIClient_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusTooManyRequests, 40029, "cooldown", map[string]any{
			"kind":              "cooldown_active",
			"remaining_seconds": 120,
		})
	}))
	defer srv.Close()

	_, err := newAPIClient(srv.URL, time.Second).Refresh(context.Background(), "1001", "")
	require.Error(t, err)

	var ae *apiError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, http.StatusTooManyRequests, ae.Status)
	assert.Equal(t, "cooldown_active", ae.Kind)
	assert.Equal(t, 120, ae.Remaining)

	var out bytes.Buffer
	assert.Equal(t, err, renderError(&out, err))
	assert.Contains(t, out.String(), "120秒")
}

func TestAPIClient_LinkAndCapture(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/players/1001/link", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, 0, "ok", map[string]string{"link": "https://example/#/info"})
	})
	mux.HandleFunc("/api/v1/conversations/c1/capture", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "1001", body["uid"])
		writeEnvelope(w, http.StatusOK, 0, "ok", map[string]string{"state": "awaiting_link"})
	})
	mux.HandleFunc("/api/v1/conversations/c1", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, 0, "ok", map[string]string{"state": "idle"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newAPIClient(srv.URL, time.Second)
	ctx := context.Background()

	link, err := c.AccessLink(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, "https://example/#/info", link)

	state, err := c.BeginCapture(ctx, "c1", "1001")
	require.NoError(t, err)
	assert.Equal(t, "awaiting_link", state)

	state, err = c.CaptureState(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "idle", state)
}

func TestRenderAnalysis(t *testing.T) {
	a := &model.Analysis{
		UID: "1001",
		Pools: map[model.Pool]*model.PoolStats{
			model.PoolCharacter: {
				Pool:         model.PoolCharacter,
				Total:        95,
				RarityCounts: map[int]int{2: 80, 3: 13, 4: 2},
				SinceLastTop: 5,
				TopPulls: []model.TopPull{
					{Name: "艾莲", Pity: 70},
					{Name: "朱鸢", Pity: 20},
				},
			},
		},
	}

	var out bytes.Buffer
	require.NoError(t, renderAnalysis(&out, a))
	s := out.String()
	assert.Contains(t, s, "【独家频段】共95抽，已5抽未出S级")
	assert.Contains(t, s, "S:2  A:13  B:80")
	assert.Contains(t, s, "艾莲(70) 朱鸢(20)")
	assert.Contains(t, s, "平均45.0抽出S级")
}

func TestAPIClient_Token(t *testing.T) {
	m, err := security.NewJWTManager(&security.JWTConfig{SecretKey: "s"})
	require.NoError(t, err)
	token, err := m.GenerateToken("gachactl", []string{security.ScopeRead}, time.Hour)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := m.ValidateToken(r.Header.Get("Authorization")); err != nil {
			writeEnvelope(w, http.StatusUnauthorized, 40101, "unauthorized", nil)
			return
		}
		writeEnvelope(w, http.StatusOK, 0, "ok", map[string]string{"link": "https://example.com/?authkey=k"})
	}))
	defer srv.Close()

	c := newAPIClient(srv.URL, time.Second)
	_, err = c.AccessLink(context.Background(), "1001")
	var ae *apiError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, http.StatusUnauthorized, ae.Status)

	var out bytes.Buffer
	assert.Error(t, renderError(&out, err))
	assert.Contains(t, out.String(), "--token")

	c.token = token
	link, err := c.AccessLink(context.Background(), "1001")
	require.NoError(t, err)
	assert.Contains(t, link, "authkey=k")
}
