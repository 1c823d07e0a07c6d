package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/strawxiguan/zzz-gachalog/pkg/logger"
)

// Logger 适配 pkg/logger 的 Gin 日志中间件
func Logger(l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		fields := []interface{}{
			"status", status,
			"method", c.Request.Method,
			"path", path,
			"ip", c.ClientIP(),
			"latency", time.Since(start).String(),
		}

		// 查询串可能携带 authkey，不记录
		if len(c.Errors) > 0 {
			for _, e := range c.Errors.Errors() {
				l.ErrorContext(c.Request.Context(), e, fields...)
			}
			return
		}

		msg := "http request"
		switch {
		case status >= 500:
			l.ErrorContext(c.Request.Context(), msg, fields...)
		case status >= 400:
			l.WarnContext(c.Request.Context(), msg, fields...)
		default:
			l.InfoContext(c.Request.Context(), msg, fields...)
		}
	}
}
