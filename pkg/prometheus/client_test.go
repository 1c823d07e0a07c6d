package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	cfg := &Config{}
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = &Config{Namespace: "gachalog"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "/metrics", cfg.Path)
}

func TestClientHandler(t *testing.T) {
	c, err := New(&Config{Namespace: "gachalog"})
	require.NoError(t, err)

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gachalog",
		Name:      "test_total",
		Help:      "test counter",
	})
	require.NoError(t, c.Register(counter))
	counter.Add(3)

	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "gachalog_test_total 3")

	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Close(), ErrClientClosed)
	assert.ErrorIs(t, c.Register(counter), ErrClientClosed)
}
