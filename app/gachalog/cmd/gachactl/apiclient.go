package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/model"
)

// envelope 服务端统一响应
type envelope struct {
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	RequestID string          `json:"request_id"`
}

// apiError 服务端返回的业务错误
type apiError struct {
	Status    int
	Code      int
	Message   string
	Kind      string
	Remaining int
	RequestID string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("server error %d (code=%d kind=%s): %s", e.Status, e.Code, e.Kind, e.Message)
}

type poolDelta struct {
	Pool      model.Pool `json:"pool"`
	Name      string     `json:"name"`
	Inserted  int        `json:"inserted"`
	Total     int        `json:"total"`
	Truncated bool       `json:"truncated"`
	Failed    bool       `json:"failed"`
	Error     string     `json:"error"`
}

type refreshResult struct {
	UID        string                              `json:"uid"`
	Inserted   int                                 `json:"inserted"`
	Pools      []poolDelta                         `json:"pools"`
	Records    map[model.Pool][]*model.GachaRecord `json:"records"`
	DurationMS int64                               `json:"duration_ms"`
}

// apiClient gachalog HTTP 接口客户端
type apiClient struct {
	base  string
	token string
	http  *http.Client
}

func newAPIClient(base string, timeout time.Duration) *apiClient {
	return &apiClient{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

func (c *apiClient) Refresh(ctx context.Context, uid, link string) (*refreshResult, error) {
	var body any
	if link != "" {
		body = map[string]string{"link": link}
	}
	res := new(refreshResult)
	if err := c.do(ctx, http.MethodPost, "/api/v1/players/"+url.PathEscape(uid)+"/refresh", body, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *apiClient) Analysis(ctx context.Context, uid string) (*model.Analysis, error) {
	res := new(model.Analysis)
	if err := c.do(ctx, http.MethodGet, "/api/v1/players/"+url.PathEscape(uid)+"/analysis", nil, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *apiClient) AccessLink(ctx context.Context, uid string) (string, error) {
	var res struct {
		Link string `json:"link"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/players/"+url.PathEscape(uid)+"/link", nil, &res); err != nil {
		return "", err
	}
	return res.Link, nil
}

func (c *apiClient) BeginCapture(ctx context.Context, cid, uid string) (string, error) {
	var res struct {
		State string `json:"state"`
	}
	body := map[string]string{"uid": uid}
	if err := c.do(ctx, http.MethodPost, "/api/v1/conversations/"+url.PathEscape(cid)+"/capture", body, &res); err != nil {
		return "", err
	}
	return res.State, nil
}

func (c *apiClient) CaptureState(ctx context.Context, cid string) (string, error) {
	var res struct {
		State string `json:"state"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/conversations/"+url.PathEscape(cid), nil, &res); err != nil {
		return "", err
	}
	return res.State, nil
}

func (c *apiClient) SendMessage(ctx context.Context, cid, message string) (*refreshResult, error) {
	res := new(refreshResult)
	body := map[string]string{"message": message}
	if err := c.do(ctx, http.MethodPost, "/api/v1/conversations/"+url.PathEscape(cid)+"/messages", body, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return errors.Wrapf(err, "decode response, status %d", resp.StatusCode)
	}

	if env.Code != 0 {
		ae := &apiError{
			Status:    resp.StatusCode,
			Code:      env.Code,
			Message:   env.Message,
			RequestID: env.RequestID,
		}
		var detail struct {
			Kind      string `json:"kind"`
			Remaining int    `json:"remaining_seconds"`
		}
		if len(env.Data) > 0 && json.Unmarshal(env.Data, &detail) == nil {
			ae.Kind = detail.Kind
			ae.Remaining = detail.Remaining
		}
		return ae
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return errors.Wrap(json.Unmarshal(env.Data, out), "decode data")
}
