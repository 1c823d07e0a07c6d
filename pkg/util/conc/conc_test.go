package conc

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolSubmit(t *testing.T) {
	p := NewPool[int](2)
	defer p.Release()

	var futures []*Future[int]
	for i := 0; i < 10; i++ {
		futures = append(futures, p.Submit(func() (int, error) { return i * i, nil }))
	}
	for i, f := range futures {
		v, err := f.Await()
		require.NoError(t, err)
		assert.Equal(t, i*i, v)
	}
	assert.Equal(t, 2, p.Cap())
}

func TestPoolBoundsConcurrency(t *testing.T) {
	p := NewPool[struct{}](2)
	defer p.Release()

	var running, peak atomic.Int32
	var futures []*Future[struct{}]
	for i := 0; i < 8; i++ {
		futures = append(futures, p.Submit(func() (struct{}, error) {
			n := running.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
			return struct{}{}, nil
		}))
	}
	require.NoError(t, AwaitAll(futures...))
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestPanicBecomesError(t *testing.T) {
	p := NewPool[int](1)
	defer p.Release()

	_, err := p.Submit(func() (int, error) { panic("boom") }).Await()
	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "boom", pe.Value)

	_, err = Go(func() (int, error) { panic("boom") }).Await()
	assert.ErrorAs(t, err, &pe)
}

func TestGoAndAwaitAll(t *testing.T) {
	errBad := errors.New("bad")
	ok := Go(func() (int, error) { return 1, nil })
	bad := Go(func() (int, error) { return 0, errBad })

	assert.True(t, ok.OK())
	assert.ErrorIs(t, AwaitAll(ok, bad), errBad)
}

func TestSubmitAfterRelease(t *testing.T) {
	p := NewPool[int](1)
	p.Release()

	_, err := p.Submit(func() (int, error) { return 1, nil }).Await()
	assert.Error(t, err)
}
