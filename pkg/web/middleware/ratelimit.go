package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/strawxiguan/zzz-gachalog/pkg/cache/lru"
	"github.com/strawxiguan/zzz-gachalog/pkg/logger"
	"github.com/strawxiguan/zzz-gachalog/pkg/web/errors"
	"golang.org/x/time/rate"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	// RequestsPerSecond 每个桶每秒请求数
	RequestsPerSecond float64
	// Burst 突发容量
	Burst int
	// SkipPaths 跳过的路径
	SkipPaths []string
	// KeyParam 非空且路由带该参数时按参数值分桶（如 uid），否则按客户端 IP
	KeyParam string

	// MaxLimiters 最大桶数量
	MaxLimiters int
	// LimiterTTL 空闲桶过期时间
	LimiterTTL time.Duration
}

// RateLimiter 分桶令牌桶限流器
type RateLimiter struct {
	cfg      *RateLimitConfig
	limiters *lru.LRU[string, *rate.Limiter]
	logger   logger.Logger
}

// NewRateLimiter 创建限流器
func NewRateLimiter(l logger.Logger, cfg *RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		cfg:    cfg,
		logger: l,
	}

	rl.limiters = lru.New[string, *rate.Limiter](
		&lru.Config{
			MaxSize:    cfg.MaxLimiters,
			DefaultTTL: cfg.LimiterTTL,
		},
		lru.WithOnEvict(func(key string, _ *rate.Limiter) {
			l.Debug("rate limiter evicted", "key", key)
		}),
	)

	return rl
}

// Reserve 尝试占用一个令牌，返回需要等待的时长；0 表示放行
func (rl *RateLimiter) Reserve(key string, now time.Time) time.Duration {
	limiter := rl.limiters.GetOrCreate(key, func() *rate.Limiter {
		return rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.Burst)
	})

	r := limiter.ReserveN(now, 1)
	if !r.OK() {
		return time.Duration(math.MaxInt64)
	}
	delay := r.DelayFrom(now)
	if delay > 0 {
		// 拒绝的请求不消耗令牌
		r.CancelAt(now)
	}
	return delay
}

// Close 关闭限流器
func (rl *RateLimiter) Close() error {
	return rl.limiters.Close()
}

// key 计算限流桶
func (rl *RateLimiter) key(c *gin.Context) string {
	if rl.cfg.KeyParam != "" {
		if v := c.Param(rl.cfg.KeyParam); v != "" {
			return rl.cfg.KeyParam + ":" + v
		}
	}
	return "ip:" + c.ClientIP()
}

// RateLimit 限流中间件
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	skipPaths := make(map[string]struct{}, len(limiter.cfg.SkipPaths))
	for _, path := range limiter.cfg.SkipPaths {
		skipPaths[path] = struct{}{}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if _, skip := skipPaths[path]; skip {
			c.Next()
			return
		}

		key := limiter.key(c)
		if delay := limiter.Reserve(key, time.Now()); delay > 0 {
			limiter.logger.WarnContext(c.Request.Context(), "rate limit exceeded",
				"key", key,
				"path", path,
				"retry_after", delay,
			)
			abortWithRateLimitError(c, delay)
			return
		}

		c.Next()
	}
}

// abortWithRateLimitError 返回限流错误，Retry-After 向上取整到秒
func abortWithRateLimitError(c *gin.Context, delay time.Duration) {
	secs := int64(math.Ceil(delay.Seconds()))
	if secs < 1 || delay == time.Duration(math.MaxInt64) {
		secs = 1
	}
	c.Header("Retry-After", strconv.FormatInt(secs, 10))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"code":    errors.CodeRateLimited,
		"message": "too many requests",
		"data":    nil,
	})
}
