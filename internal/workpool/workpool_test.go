package workpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestMapPreservesOrder(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8}
	for _, workers := range []int{0, 1, 3, 16} {
		out, err := Map(context.Background(), workers, items, func(_ context.Context, v int) (int, error) {
			return v * v, nil
		})
		if err != nil {
			t.Fatalf("workers=%d: %v", workers, err)
		}
		for i, v := range items {
			if out[i] != v*v {
				t.Fatalf("workers=%d: slot %d = %d", workers, i, out[i])
			}
		}
	}
}

func TestMapReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")
	var calls atomic.Int32
	_, err := Map(context.Background(), 1, []int{1, 2, 3}, func(_ context.Context, v int) (int, error) {
		calls.Add(1)
		if v == 2 {
			return 0, boom
		}
		return v, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom got %v", err)
	}
	if calls.Load() > 2 {
		t.Fatalf("work continued after failure: %d calls", calls.Load())
	}
}

func TestMapBoundsConcurrency(t *testing.T) {
	var cur, peak atomic.Int32
	items := make([]int, 50)
	_, err := Map(context.Background(), 3, items, func(_ context.Context, _ int) (int, error) {
		n := cur.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		cur.Add(-1)
		return 0, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if peak.Load() > 3 {
		t.Fatalf("peak concurrency %d exceeds 3", peak.Load())
	}
}
