package web

import (
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/strawxiguan/zzz-gachalog/pkg/web/errors"
)

// BindAndValidate 绑定请求参数并校验，失败时已写出响应
func BindAndValidate(c *gin.Context, obj any) bool {
	if err := c.ShouldBind(obj); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			Error(c, errors.CodeInvalidParams, errs.Error())
			return false
		}
		Error(c, errors.CodeInvalidParams, "invalid request parameters: "+err.Error())
		return false
	}
	return true
}

// GetQuery 获取查询参数，带默认值
func GetQuery(c *gin.Context, key, defaultValue string) string {
	if val := c.Query(key); val != "" {
		return val
	}
	return defaultValue
}
