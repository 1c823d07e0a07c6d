package redis

import (
	"context"
	"net"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	var nilCfg *Config
	assert.ErrorIs(t, nilCfg.Validate(), ErrNilConfig)

	assert.NoError(t, DefaultConfig().Validate())

	both := DefaultConfig()
	both.Cluster = &ClusterConfig{Addrs: []string{"localhost:7000"}}
	assert.ErrorIs(t, both.Validate(), ErrInvalidConfig)

	assert.ErrorIs(t, (&Config{}).Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, (&Config{Cluster: &ClusterConfig{}}).Validate(), ErrInvalidConfig)

	cluster := &Config{Cluster: &ClusterConfig{Addrs: []string{"localhost:7000"}}}
	assert.NoError(t, cluster.Validate())
	assert.True(t, cluster.IsCluster())
}

// newTestClient 需要 GACHALOG_TEST_REDIS=host:port 指向可用的 Redis
func newTestClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("GACHALOG_TEST_REDIS")
	if addr == "" {
		t.Skip("GACHALOG_TEST_REDIS not set")
	}

	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Standalone = &NodeConfig{Host: host, Port: port, DB: 15}

	c, err := NewClient(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}
	return c
}

func TestClient_GetSetDel(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	key := "gachalog:test:" + t.Name()

	_, err := c.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNil)

	require.NoError(t, c.Set(ctx, key, []byte{0x00, 0x01, 0xff}, time.Minute))
	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x01, 0xff}, got)

	n, err := c.Del(ctx, key)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestClient_Script(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	key := "gachalog:test:" + t.Name()
	t.Cleanup(func() { _, _ = c.Del(context.Background(), key) })

	incr := NewScript(`return redis.call('INCRBY', KEYS[1], ARGV[1])`)
	res, err := c.Run(ctx, incr, []string{key}, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 2, res)

	res, err = c.Eval(ctx, incr.Source(), []string{key}, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 5, res)
}
