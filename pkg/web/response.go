package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/strawxiguan/zzz-gachalog/pkg/logger"
	"github.com/strawxiguan/zzz-gachalog/pkg/web/errors"
)

// Response 统一响应结构
type Response struct {
	Code      int    `json:"code"`    // 业务错误码，0 表示成功
	Message   string `json:"message"` // 提示信息
	Data      any    `json:"data"`
	RequestID string `json:"request_id,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Code:      errors.CodeOK,
		Message:   "ok",
		Data:      data,
		RequestID: logger.RequestIDFromContext(c.Request.Context()),
	})
}

// Error 错误响应，HTTP 状态码由业务码推导
func Error(c *gin.Context, code int, message string) {
	ErrorWithData(c, code, message, nil)
}

// ErrorWithData 带附加数据的错误响应
func ErrorWithData(c *gin.Context, code int, message string, data any) {
	c.AbortWithStatusJSON(errors.CodeToStatus(code), Response{
		Code:      code,
		Message:   message,
		Data:      data,
		RequestID: logger.RequestIDFromContext(c.Request.Context()),
	})
}
