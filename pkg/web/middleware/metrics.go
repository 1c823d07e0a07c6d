package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/strawxiguan/zzz-gachalog/pkg/web/metrics"
)

// Metrics 接口监控中间件
func Metrics(m *metrics.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath() // 路由模板，避免 uid 造成标签爆炸
		if path == "" {
			path = "unknown"
		}

		c.Next()

		m.Observe(path, c.Request.Method, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}
