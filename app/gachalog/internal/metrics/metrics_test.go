package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGachaMetrics(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)
	assert.Equal(t, "gachalog", m.GetConfig().Namespace)

	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))

	m.RecordRefresh("success")
	m.RecordRefresh("cooldown")
	m.RecordPoolFetch("weapon", "success", 3)
	m.RecordInserted("weapon", 7)
	m.RecordInserted("weapon", 0)
	m.RecordStoreOp("get", false, 0.01)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CooldownRejected))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.PagesFetched.WithLabelValues("weapon")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.RecordsInserted.WithLabelValues("weapon")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOpTotal.WithLabelValues("get", "failed")))
}

func TestNilMetrics(t *testing.T) {
	var m *GachaMetrics
	assert.NotPanics(t, func() {
		m.RecordRefresh("success")
		m.RecordSync(1)
		m.RecordPoolFetch("standard", "failed", 0)
		m.RecordInserted("standard", 1)
		m.RecordMergeConflict("standard")
		m.RecordStoreOp("cas", true, 0)
	})
}
