package middleware

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/strawxiguan/zzz-gachalog/pkg/logger"
	"github.com/strawxiguan/zzz-gachalog/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth(t *testing.T) {
	m, err := security.NewJWTManager(&security.JWTConfig{SecretKey: "s", SkipPaths: []string{"/healthz"}})
	require.NoError(t, err)

	engine := gin.New()
	engine.Use(Auth(m, logger.NewNoop()))

	var subject string
	ok := func(c *gin.Context) {
		if claims, found := security.ClaimsFromContext(c.Request.Context()); found {
			subject = claims.Subject
		}
		c.Status(http.StatusNoContent)
	}
	engine.GET("/healthz", ok)
	engine.GET("/analysis", ok)
	engine.POST("/refresh", ok)

	readOnly, err := m.GenerateToken("viewer", []string{security.ScopeRead}, time.Hour)
	require.NoError(t, err)
	bearer := func(token string) http.Header {
		return http.Header{"Authorization": {"Bearer " + token}}
	}

	w := serve(engine, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = serve(engine, http.MethodGet, "/analysis", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))

	w = serve(engine, http.MethodGet, "/analysis", bearer(readOnly))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "viewer", subject)

	w = serve(engine, http.MethodPost, "/refresh", bearer(readOnly))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "40103")

	w = serve(engine, http.MethodPost, "/refresh", bearer("garbage"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
