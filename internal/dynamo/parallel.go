package dynamo

import (
	"fmt"
	"runtime"
	"sync"
)

// DefaultWorkers leaves two CPUs free for the driver and the OS.
func DefaultWorkers() int {
	n := runtime.NumCPU() - 2
	if n < 1 {
		return 1
	}
	return n
}

// ResolveWorkers validates a requested worker count. Zero or negative selects
// DefaultWorkers; anything above runtime.NumCPU is rejected before dispatch.
func ResolveWorkers(requested int) (int, error) {
	if requested <= 0 {
		return DefaultWorkers(), nil
	}
	if cpus := runtime.NumCPU(); requested > cpus {
		return 0, fmt.Errorf("%w: requested %d, available %d", ErrTooManyWorkers, requested, cpus)
	}
	return requested, nil
}

// ParallelFor executes fn over [0, n) split into contiguous chunks, one
// goroutine per chunk, and returns once every chunk has finished.
func ParallelFor(n, minChunk int, fn func(start, end int)) {
	numWorkers := runtime.GOMAXPROCS(0)
	if minChunk < 1 {
		minChunk = 1
	}
	if n <= minChunk || numWorkers <= 1 {
		fn(0, n)
		return
	}

	workers := numWorkers
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}
