package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/strawxiguan/zzz-gachalog/pkg/logger"
	"github.com/strawxiguan/zzz-gachalog/pkg/security"
	"github.com/strawxiguan/zzz-gachalog/pkg/web/errors"
)

// TokenValidator *security.JWTManager 的校验能力
type TokenValidator interface {
	ValidateToken(token string) (*security.Claims, error)
	ShouldSkip(path string) bool
}

// Auth 校验 Authorization 头中的访问令牌
// GET/HEAD 需要 gacha:read，其余方法需要 gacha:write
func Auth(v TokenValidator, l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if v.ShouldSkip(c.Request.URL.Path) {
			c.Next()
			return
		}

		claims, err := v.ValidateToken(c.GetHeader("Authorization"))
		if err != nil {
			l.DebugContext(c.Request.Context(), "access token rejected", "path", c.Request.URL.Path, "error", err)
			abortWithAuthError(c, http.StatusUnauthorized, errors.CodeUnauthorized, "invalid or missing access token")
			return
		}

		scope := security.ScopeWrite
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			scope = security.ScopeRead
		}
		if !claims.HasScope(scope) {
			abortWithAuthError(c, http.StatusForbidden, errors.CodeForbidden, "token lacks scope "+scope)
			return
		}

		c.Request = c.Request.WithContext(security.ContextWithClaims(c.Request.Context(), claims))
		c.Next()
	}
}

func abortWithAuthError(c *gin.Context, status, code int, message string) {
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", `Bearer realm="gachalog"`)
	}
	c.AbortWithStatusJSON(status, gin.H{
		"code":    code,
		"message": message,
		"data":    nil,
	})
}
