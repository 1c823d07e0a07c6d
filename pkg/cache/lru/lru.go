package lru

import (
	"container/list"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Cache 通用缓存接口
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V)
	SetWithTTL(key K, value V, ttl time.Duration)
	Take(key K) (V, bool)
	Delete(key K)
	Len() int
	Clear()
	Close() error
}

// Config LRU 配置
type Config struct {
	// MaxSize 最大容量
	MaxSize int `mapstructure:"max_size"`
	// DefaultTTL 默认过期时间
	DefaultTTL time.Duration `mapstructure:"ttl"`
	// CleanupInterval 清理间隔，<=0 时不启动后台清理（过期条目在访问时淘汰）
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

var _ Cache[string, int] = (*LRU[string, int])(nil)

// LRU 基于内存的 LRU 缓存实现，条目带过期时间
type LRU[K comparable, V any] struct {
	config    *Config
	clock     clockwork.Clock
	cache     *list.List
	items     map[K]*list.Element
	mu        sync.Mutex
	stopCh    chan struct{}
	closeOnce sync.Once

	onEvict func(key K, value V)
}

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// Option LRU 配置选项
type Option[K comparable, V any] func(*LRU[K, V])

// WithOnEvict 设置淘汰回调（容量淘汰与过期淘汰，不含 Delete/Take）
func WithOnEvict[K comparable, V any](fn func(key K, value V)) Option[K, V] {
	return func(c *LRU[K, V]) {
		c.onEvict = fn
	}
}

// WithClock 注入时钟，测试中使用 clockwork.NewFakeClock()
func WithClock[K comparable, V any](clock clockwork.Clock) Option[K, V] {
	return func(c *LRU[K, V]) {
		c.clock = clock
	}
}

// New 创建 LRU 缓存
func New[K comparable, V any](cfg *Config, opts ...Option[K, V]) *LRU[K, V] {
	c := &LRU[K, V]{
		config: cfg,
		clock:  clockwork.NewRealClock(),
		cache:  list.New(),
		items:  make(map[K]*list.Element),
		stopCh: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	if cfg.CleanupInterval > 0 {
		go c.cleanupLoop()
	}
	return c
}

func (c *LRU[K, V]) cleanupLoop() {
	ticker := c.clock.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.Chan():
			c.removeExpired()
		case <-c.stopCh:
			return
		}
	}
}

func (c *LRU[K, V]) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	for e := c.cache.Back(); e != nil; {
		prev := e.Prev()
		if c.expired(e.Value.(*entry[K, V]), now) {
			c.evict(e)
		}
		e = prev
	}
}

// expired TTL<=0 的条目永不过期
func (c *LRU[K, V]) expired(ent *entry[K, V], now time.Time) bool {
	return !ent.expiresAt.IsZero() && !now.Before(ent.expiresAt)
}

// Get 获取值
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		ent := elem.Value.(*entry[K, V])
		if c.expired(ent, c.clock.Now()) {
			c.evict(elem)
			var zero V
			return zero, false
		}
		c.cache.MoveToFront(elem)
		return ent.value, true
	}

	var zero V
	return zero, false
}

// Take 获取并删除
func (c *LRU[K, V]) Take(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, ok := c.items[key]
	if !ok {
		return zero, false
	}
	ent := elem.Value.(*entry[K, V])
	if c.expired(ent, c.clock.Now()) {
		c.evict(elem)
		return zero, false
	}
	c.remove(elem)
	return ent.value, true
}

// Set 设置值（使用默认 TTL）
func (c *LRU[K, V]) Set(key K, value V) {
	c.SetWithTTL(key, value, c.config.DefaultTTL)
}

// SetWithTTL 设置值（自定义 TTL）
func (c *LRU[K, V]) SetWithTTL(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(key, value, ttl)
}

func (c *LRU[K, V]) set(key K, value V, ttl time.Duration) {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.clock.Now().Add(ttl)
	}

	if elem, ok := c.items[key]; ok {
		c.cache.MoveToFront(elem)
		ent := elem.Value.(*entry[K, V])
		ent.value = value
		ent.expiresAt = expiresAt
		return
	}

	elem := c.cache.PushFront(&entry[K, V]{
		key:       key,
		value:     value,
		expiresAt: expiresAt,
	})
	c.items[key] = elem

	for c.config.MaxSize > 0 && c.cache.Len() > c.config.MaxSize {
		c.evict(c.cache.Back())
	}
}

// GetOrCreate 原子获取或创建
func (c *LRU[K, V]) GetOrCreate(key K, create func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		ent := elem.Value.(*entry[K, V])
		if !c.expired(ent, c.clock.Now()) {
			c.cache.MoveToFront(elem)
			return ent.value
		}
		c.evict(elem)
	}

	value := create()
	c.set(key, value, c.config.DefaultTTL)
	return value
}

// Delete 删除
func (c *LRU[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.remove(elem)
	}
}

// Len 返回当前缓存大小（可能包含尚未清理的过期条目）
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}

// Clear 清空缓存
func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Init()
	c.items = make(map[K]*list.Element)
}

// Close 停止后台清理
func (c *LRU[K, V]) Close() error {
	c.closeOnce.Do(func() { close(c.stopCh) })
	return nil
}

func (c *LRU[K, V]) remove(elem *list.Element) *entry[K, V] {
	c.cache.Remove(elem)
	ent := elem.Value.(*entry[K, V])
	delete(c.items, ent.key)
	return ent
}

func (c *LRU[K, V]) evict(elem *list.Element) {
	ent := c.remove(elem)
	if c.onEvict != nil {
		c.onEvict(ent.key, ent.value)
	}
}
