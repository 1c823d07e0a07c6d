package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/model"
	"github.com/strawxiguan/zzz-gachalog/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAuthKey(t *testing.T) {
	cases := []struct {
		name string
		link string
		want string
	}{
		{
			name: "plain",
			link: "https://webstatic.mihoyo.com/nap/event/e20230424gacha/index.html?authkey_ver=1&authkey=abc%2Bdef%3D%3D&lang=zh-cn#/info",
			want: "abc+def==",
		},
		{
			name: "surrounded by text",
			link: "  这是链接 https://x.example/index.html?authkey=k1&region=prod_gf_cn 谢谢 ",
			want: "k1",
		},
		{
			name: "after fragment",
			link: "https://x.example/index.html#/log?authkey=k2",
			want: "k2",
		},
		{
			name: "raw plus kept",
			link: "https://x.example/?authkey=a+b",
			want: "a+b",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractAuthKey(tc.link)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	for _, bad := range []string{"", "hello", "https://x.example/?lang=zh-cn", "https://x.example/?authkey=", "https://x.example/?authkey=%zz"} {
		_, err := ExtractAuthKey(bad)
		assert.ErrorIs(t, err, ErrMalformedLink, bad)
	}
}

func TestBuildAccessLink(t *testing.T) {
	cfg := DefaultConfig()
	link := BuildAccessLink(cfg, "abc+def==")

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "/info", u.Fragment)
	assert.Equal(t, "abc+def==", u.Query().Get("authkey"))
	assert.Equal(t, cfg.GameBiz, u.Query().Get("game_biz"))

	// 生成的链接可以被再次解析
	key, err := ExtractAuthKey(link)
	require.NoError(t, err)
	assert.Equal(t, "abc+def==", key)
}

func newAPIServer(t *testing.T, handler http.HandlerFunc) *GachaClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.APIBase = srv.URL
	cfg.Timeout = 5 * time.Second
	return NewGachaClient(cfg, logger.NewNoop())
}

func TestFetchPage(t *testing.T) {
	var got url.Values
	c := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, gachaLogPath, r.URL.Path)
		got = r.URL.Query()
		_, _ = w.Write([]byte(`{
			"retcode": 0,
			"message": "OK",
			"data": {
				"page": "1",
				"size": "20",
				"list": [
					{"uid":"10001","gacha_id":"2001","gacha_type":"2001","item_id":"1041","count":"1","time":"2024-07-04 12:00:01","name":"Soldier 11","lang":"zh-cn","item_type":"代理人","rank_type":"4","id":"1720065600000000002","unknown":"x"},
					{"uid":"10001","gacha_id":"2001","gacha_type":"2001","item_id":"12001","count":"1","time":"2024-07-04 12:00:00","name":"Starlight","lang":"zh-cn","item_type":"音擎","rank_type":"2","id":"1720065600000000001"}
				],
				"region": "prod_gf_cn",
				"region_time_zone": 8
			}
		}`))
	})

	records, err := c.FetchPage(context.Background(), PageRequest{AuthKey: "k", Pool: model.PoolCharacter})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "2", got.Get("real_gacha_type"))
	assert.Equal(t, "0", got.Get("end_id"))
	assert.Equal(t, "k", got.Get("authkey"))
	assert.Equal(t, "20", got.Get("size"))

	r := records[0]
	assert.Equal(t, "1720065600000000002", r.ID)
	assert.Equal(t, model.PoolCharacter, r.Pool)
	assert.Equal(t, 4, r.Rarity)
	assert.Equal(t, "Soldier 11", r.Name)
	assert.True(t, time.Date(2024, 7, 4, 4, 0, 1, 0, time.UTC).Equal(r.OccurredAt))
}

func TestFetchPageRetcode(t *testing.T) {
	c := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"retcode": -101, "message": "authkey timeout", "data": nil})
	})

	_, err := c.FetchPage(context.Background(), PageRequest{AuthKey: "k", Pool: model.PoolStandard})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthKeyInvalid)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, -101, apiErr.Code)
}

func TestFetchPageHTTPStatus(t *testing.T) {
	c := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.FetchPage(context.Background(), PageRequest{AuthKey: "k", Pool: model.PoolStandard})
	assert.Error(t, err)
}

func TestFetchPageErrorHidesAuthKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIBase = "http://127.0.0.1:1"
	cfg.Timeout = time.Second
	c := NewGachaClient(cfg, logger.NewNoop())

	_, err := c.FetchPage(context.Background(), PageRequest{AuthKey: "secret-key", Pool: model.PoolStandard})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-key")
}

func TestAuthKeySources(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("uid") == "20002" {
			_, _ = w.Write([]byte(`{"authkey":"remote-key"}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	src := NewAuthKeySource(&AuthKeyConfig{
		Static:      map[string]string{"10001": "static-key"},
		ResolverURL: srv.URL + "/authkey",
	}, logger.NewNoop())

	key, err := src.Resolve(ctx, "10001")
	require.NoError(t, err)
	assert.Equal(t, "static-key", key)

	key, err = src.Resolve(ctx, "20002")
	require.NoError(t, err)
	assert.Equal(t, "remote-key", key)

	_, err = src.Resolve(ctx, "30003")
	assert.ErrorIs(t, err, ErrAuthKeyNotFound)

	_, err = NewAuthKeySource(&AuthKeyConfig{}, logger.NewNoop()).Resolve(ctx, "10001")
	assert.ErrorIs(t, err, ErrAuthKeyNotFound)

	fn := AuthKeySourceFunc(func(context.Context, string) (string, error) { return "fn-key", nil })
	key, err = fn.Resolve(ctx, "any")
	require.NoError(t, err)
	assert.Equal(t, "fn-key", key)
}
