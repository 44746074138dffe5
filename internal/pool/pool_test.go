package pool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMapPreservesOrderUnderJitter(t *testing.T) {
	t.Parallel()

	items := make([]int, 12)
	for i := range items {
		items[i] = i
	}

	for limit := 1; limit <= len(items); limit++ {
		out, err := Map(context.Background(), items, limit, func(_ context.Context, _ int, v int) (int, error) {
			// Later items finish first.
			time.Sleep(time.Duration(len(items)-v) * time.Millisecond)
			return v * v, nil
		})
		require.NoError(t, err)
		require.Len(t, out, len(items))
		for i, v := range out {
			require.Equal(t, i*i, v, "limit %d index %d", limit, i)
		}
	}
}

func TestMapRespectsLimit(t *testing.T) {
	t.Parallel()

	for _, limit := range []int{1, 3, 20} {
		var inFlight, peak atomic.Int32
		items := make([]struct{}, 10)

		_, err := Map(context.Background(), items, limit, func(context.Context, int, struct{}) (struct{}, error) {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
			return struct{}{}, nil
		})
		require.NoError(t, err)
		require.LessOrEqual(t, int(peak.Load()), min(limit, len(items)))
		if limit == 1 {
			require.Equal(t, int32(1), peak.Load())
		}
	}
}

func TestMapReturnsWorkerErrorWithoutCancellingSiblings(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	var calls atomic.Int32
	items := []string{"a", "b", "c", "d", "e"}

	out, err := Map(context.Background(), items, 2, func(_ context.Context, i int, s string) (string, error) {
		calls.Add(1)
		if i == 1 {
			return "", boom
		}
		time.Sleep(2 * time.Millisecond)
		return s + s, nil
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, int32(len(items)), calls.Load())
	require.Equal(t, []string{"aa", "", "cc", "dd", "ee"}, out)
}

func TestMapEmptyAndZeroLimit(t *testing.T) {
	t.Parallel()

	out, err := Map(context.Background(), []int(nil), 3, func(context.Context, int, int) (int, error) {
		t.Fatal("worker must not run")
		return 0, nil
	})
	require.NoError(t, err)
	require.Empty(t, out)

	out, err = Map(context.Background(), []int{1, 2}, 0, func(_ context.Context, _ int, v int) (int, error) {
		return v + 1, nil
	})
	require.NoError(t, err)
	require.Equal(t, []int{2, 3}, out)
}
