package service

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/client"
	"github.com/strawxiguan/zzz-gachalog/app/gachalog/internal/model"
	"github.com/strawxiguan/zzz-gachalog/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedRefresher struct {
	errs  map[string]error
	calls []string
}

func (r *scriptedRefresher) Refresh(_ context.Context, uid string) (*model.SyncResult, error) {
	r.calls = append(r.calls, uid)
	if err := r.errs[uid]; err != nil {
		return nil, err
	}
	return model.NewSyncResult(uid), nil
}

func TestAutoRefresherSkipsSoftFailures(t *testing.T) {
	r := &scriptedRefresher{errs: map[string]error{
		"u2": &CooldownActiveError{Remaining: time.Minute},
		"u3": tokenError(errors.New("no key"), "u3"),
	}}
	a := NewAutoRefresher(&AutoRefreshConfig{UIDs: []string{"u1", "u2", "u3", "u4"}}, r, logger.NewNoop())

	require.NoError(t, a.Run(context.Background()))
	assert.Equal(t, []string{"u1", "u2", "u3", "u4"}, r.calls)
}

func TestAutoRefresherReportsStoreErrors(t *testing.T) {
	r := &scriptedRefresher{errs: map[string]error{
		"u1": storeError(errors.New("connection refused"), "load history"),
	}}
	a := NewAutoRefresher(&AutoRefreshConfig{UIDs: []string{"u1", "u2"}}, r, logger.NewNoop())

	err := a.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStoreUnavailable))
	// 其余玩家仍然刷新
	assert.Equal(t, []string{"u1", "u2"}, r.calls)
}

func TestAutoRefresherStopsOnCancel(t *testing.T) {
	r := &scriptedRefresher{}
	a := NewAutoRefresher(&AutoRefreshConfig{UIDs: []string{"u1"}}, r, logger.NewNoop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, a.Run(ctx), context.Canceled)
	assert.Empty(t, r.calls)
}

func TestAutoRefresherWithService(t *testing.T) {
	f := newServiceFixture(t, client.StaticSource{"u1": "k1"})
	f.pages.pages[model.PoolStandard] = [][]*model.GachaRecord{newestFirst(1, 2)}

	a := NewAutoRefresher(&AutoRefreshConfig{UIDs: []string{"u1"}}, f.svc, logger.NewNoop())
	require.NoError(t, a.Run(context.Background()))
	requests := len(f.pages.requested(model.PoolStandard))
	require.NotZero(t, requests)

	// 第二轮命中冷却，不报错也不请求
	require.NoError(t, a.Run(context.Background()))
	assert.Len(t, f.pages.requested(model.PoolStandard), requests)
	assert.Equal(t, []string{"u1"}, f.events.uids)
}
