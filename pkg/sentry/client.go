package sentry

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
)

// Client Sentry 客户端，使用独立的 Hub
type Client struct {
	hub    *sentry.Hub
	config *Config
	closed atomic.Bool

	stats struct {
		eventsTotal    atomic.Uint64
		eventsCaptured atomic.Uint64
		eventsDropped  atomic.Uint64
	}
}

// Stats 上报统计
type Stats struct {
	EventsTotal    uint64
	EventsCaptured uint64
	EventsDropped  uint64
}

// New 创建 Sentry 客户端
func New(cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := sentry.NewClient(cfg.toClientOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to create sentry client: %w", err)
	}

	hub := sentry.NewHub(client, sentry.NewScope())
	hub.ConfigureScope(func(scope *sentry.Scope) {
		for key, value := range cfg.Tags {
			scope.SetTag(key, value)
		}
	})

	return &Client{hub: hub, config: cfg}, nil
}

// CaptureError 上报错误，tags 只作用于本次事件
func (c *Client) CaptureError(err error, tags map[string]string) *sentry.EventID {
	if c.closed.Load() || err == nil {
		return nil
	}
	c.stats.eventsTotal.Add(1)

	var eventID *sentry.EventID
	c.hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		eventID = c.hub.CaptureException(err)
	})
	c.count(eventID)
	return eventID
}

// CaptureMessage 上报消息
func (c *Client) CaptureMessage(message string, tags map[string]string) *sentry.EventID {
	if c.closed.Load() {
		return nil
	}
	c.stats.eventsTotal.Add(1)

	var eventID *sentry.EventID
	c.hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		eventID = c.hub.CaptureMessage(message)
	})
	c.count(eventID)
	return eventID
}

// RecoverWithContext 上报 panic，不重新抛出
func (c *Client) RecoverWithContext(recovered any) *sentry.EventID {
	if c.closed.Load() {
		return nil
	}
	c.stats.eventsTotal.Add(1)

	eventID := c.hub.RecoverWithContext(nil, recovered)
	c.count(eventID)
	return eventID
}

func (c *Client) count(eventID *sentry.EventID) {
	if eventID != nil && *eventID != "" {
		c.stats.eventsCaptured.Add(1)
	} else {
		c.stats.eventsDropped.Add(1)
	}
}

// Flush 等待事件发送完成
func (c *Client) Flush(timeout time.Duration) bool {
	return c.hub.Flush(timeout)
}

// Close 关闭客户端并发送剩余事件
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return ErrClientClosed
	}
	c.hub.Flush(c.config.ShutdownTimeout)
	return nil
}

// Stats 获取统计信息
func (c *Client) Stats() Stats {
	return Stats{
		EventsTotal:    c.stats.eventsTotal.Load(),
		EventsCaptured: c.stats.eventsCaptured.Load(),
		EventsDropped:  c.stats.eventsDropped.Load(),
	}
}
