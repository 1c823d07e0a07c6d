package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger 存储健康检查
type Pinger interface {
	Ping(ctx context.Context) error
}

// RegisterHealth 注册 /healthz
func RegisterHealth(r gin.IRouter, pinger Pinger) {
	r.GET("/healthz", func(c *gin.Context) {
		if pinger != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := pinger.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// RegisterMetrics 注册指标接口
func RegisterMetrics(r gin.IRouter, path string, h http.Handler) {
	r.GET(path, gin.WrapH(h))
}
