package middleware

import (
	"errors"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/strawxiguan/zzz-gachalog/pkg/logger"
	weberrors "github.com/strawxiguan/zzz-gachalog/pkg/web/errors"
)

// Recovery 适配 pkg/logger 的异常恢复中间件
func Recovery(l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			if isBrokenPipe(rec) {
				l.WarnContext(c.Request.Context(), "http broken pipe",
					"error", rec,
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
				)
				c.Abort()
				return
			}

			l.ErrorContext(c.Request.Context(), "http recovery from panic",
				"error", rec,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"code":    weberrors.CodeInternalError,
				"message": "internal server error",
				"data":    nil,
			})
		}()
		c.Next()
	}
}

// isBrokenPipe 客户端断开连接
func isBrokenPipe(rec any) bool {
	err, ok := rec.(error)
	if !ok {
		return false
	}
	var ne *net.OpError
	if !errors.As(err, &ne) {
		return false
	}
	var se *os.SyscallError
	if !errors.As(ne, &se) {
		return false
	}
	msg := strings.ToLower(se.Error())
	return strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset by peer")
}
