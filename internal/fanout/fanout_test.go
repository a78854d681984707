package fanout

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectKeepsSuccessesOnly(t *testing.T) {
	t.Parallel()

	items := []int{1, 2, 3, 4, 5, 6}
	var got []int
	err := Collect(context.Background(), items, 2, func(_ context.Context, n int) (int, bool) {
		return n * 10, n%2 == 0
	}, func(r int) {
		got = append(got, r)
	})

	require.NoError(t, err)
	assert.ElementsMatch(t, []int{20, 40, 60}, got)
}

func TestCollectBoundsInFlight(t *testing.T) {
	t.Parallel()

	const limit = 3
	var inFlight, peak atomic.Int32

	items := make([]int, 40)
	err := Collect(context.Background(), items, limit, func(_ context.Context, _ int) (struct{}, bool) {
		cur := inFlight.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return struct{}{}, true
	}, func(struct{}) {})

	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(limit))
	assert.Positive(t, peak.Load())
}

func TestCollectDeliversInCompletionOrder(t *testing.T) {
	t.Parallel()

	items := []time.Duration{30 * time.Millisecond, 0}
	var order []time.Duration
	err := Collect(context.Background(), items, 2, func(_ context.Context, d time.Duration) (time.Duration, bool) {
		time.Sleep(d)
		return d, true
	}, func(d time.Duration) {
		order = append(order, d)
	})

	require.NoError(t, err)
	require.Equal(t, []time.Duration{0, 30 * time.Millisecond}, order)
}

func TestCollectStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	err := Collect(ctx, []int{1, 2, 3}, 1, func(_ context.Context, n int) (int, bool) {
		calls.Add(1)
		return n, true
	}, func(int) {})

	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls.Load())
}

func TestCollectEmpty(t *testing.T) {
	t.Parallel()

	called := false
	err := Collect(context.Background(), nil, 0, func(_ context.Context, n int) (int, bool) {
		return n, true
	}, func(int) { called = true })

	require.NoError(t, err)
	assert.False(t, called)
}
