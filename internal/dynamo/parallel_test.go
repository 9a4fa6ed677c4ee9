package dynamo

import (
	"errors"
	"runtime"
	"sync/atomic"
	"testing"
)

func TestParallelFor_CoversRange(t *testing.T) {
	for _, n := range []int{0, 1, 7, 100, 1001} {
		seen := make([]int32, n)
		ParallelFor(n, 4, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&seen[i], 1)
			}
		})
		for i, c := range seen {
			if c != 1 {
				t.Fatalf("n=%d: index %d visited %d times", n, i, c)
			}
		}
	}
}

func TestResolveWorkers(t *testing.T) {
	w, err := ResolveWorkers(0)
	if err != nil || w < 1 {
		t.Errorf("default workers = %d, %v", w, err)
	}

	w, err = ResolveWorkers(1)
	if err != nil || w != 1 {
		t.Errorf("ResolveWorkers(1) = %d, %v", w, err)
	}

	_, err = ResolveWorkers(runtime.NumCPU() + 1)
	if !errors.Is(err, ErrTooManyWorkers) {
		t.Errorf("expected ErrTooManyWorkers, got %v", err)
	}
}
