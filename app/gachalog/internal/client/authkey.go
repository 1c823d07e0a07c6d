package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/strawxiguan/zzz-gachalog/pkg/logger"
)

// AuthKeySource 为玩家解析访问 authkey，失败由调用方直接返回，不重试
type AuthKeySource interface {
	Resolve(ctx context.Context, uid string) (string, error)
}

// AuthKeySourceFunc 函数适配器
type AuthKeySourceFunc func(ctx context.Context, uid string) (string, error)

func (f AuthKeySourceFunc) Resolve(ctx context.Context, uid string) (string, error) {
	return f(ctx, uid)
}

// StaticSource 固定映射
type StaticSource map[string]string

func (s StaticSource) Resolve(_ context.Context, uid string) (string, error) {
	if key, ok := s[uid]; ok && key != "" {
		return key, nil
	}
	return "", ErrAuthKeyNotFound
}

// ChainSource 依次尝试，返回第一个成功的结果
type ChainSource []AuthKeySource

func (c ChainSource) Resolve(ctx context.Context, uid string) (string, error) {
	var errs error
	for _, src := range c {
		key, err := src.Resolve(ctx, uid)
		if err == nil {
			return key, nil
		}
		errs = errors.CombineErrors(errs, err)
	}
	if errs == nil {
		return "", ErrAuthKeyNotFound
	}
	return "", errs
}

// ResolverSource 通过外部 HTTP 服务解析（例如基于 Cookie 生成 authkey 的服务）
type ResolverSource struct {
	endpoint string
	http     *http.Client
	logger   logger.Logger
}

// NewResolverSource 创建外部解析来源
func NewResolverSource(endpoint string, timeout time.Duration, l logger.Logger) *ResolverSource {
	return &ResolverSource{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
		logger:   l.Named("client.authkey"),
	}
}

func (s *ResolverSource) Resolve(ctx context.Context, uid string) (string, error) {
	u, err := url.Parse(s.endpoint)
	if err != nil {
		return "", errors.Wrap(err, "invalid resolver url")
	}
	q := u.Query()
	q.Set("uid", uid)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to build resolver request")
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "authkey resolver request failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", ErrAuthKeyNotFound
	case resp.StatusCode != http.StatusOK:
		return "", errors.Newf("authkey resolver: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		AuthKey string `json:"authkey"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return "", errors.Wrap(err, "failed to decode resolver response")
	}
	if body.AuthKey == "" {
		return "", ErrAuthKeyNotFound
	}

	s.logger.DebugContext(ctx, "authkey resolved", "uid", uid)
	return body.AuthKey, nil
}

// NewAuthKeySource 按配置组装来源：静态映射优先，其次外部解析服务
func NewAuthKeySource(cfg *AuthKeyConfig, l logger.Logger) AuthKeySource {
	var chain ChainSource
	if len(cfg.Static) > 0 {
		chain = append(chain, StaticSource(cfg.Static))
	}
	if cfg.ResolverURL != "" {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		chain = append(chain, NewResolverSource(cfg.ResolverURL, timeout, l))
	}
	return chain
}
