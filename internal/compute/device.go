// Package compute models the data-parallel compute device described in
// spec §1/§9 ("the GPU compute pipeline is the canonical target; a CPU
// fallback is permitted"). No GPU compute binding exists anywhere in the
// retrieved example pack, so this module takes the permitted fallback path
// and implements the device as a goroutine worker pool: Dispatch is the one
// choke point every kernel in internal/train goes through, playing the role
// a pipeline.dispatchWorkgroups call would on a real GPU backend.
//
// The concurrency invariants from spec §5 are preserved even though the
// "device" is now CPU cores: all cross-thread communication on shared
// buffers goes through sync/atomic, and every kernel's control flow is
// uniform at its Dispatch boundary (the one place analogous to a workgroup
// barrier).
package compute

import (
	"runtime"
	"sync"
)

// Device is the compute handle kernels run against. It carries no GPU
// resources (there are none); it exists so the rest of the codebase reads
// the way a real backend's TrainingContext would, and so a future GPU
// backend can be swapped in behind the same Dispatch contract without
// touching internal/train.
type Device struct {
	workers int
}

// New returns a Device sized to GOMAXPROCS, the CPU analogue of "as many
// workgroups as the hardware can run concurrently".
func New() *Device {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		n = 1
	}
	return &Device{workers: n}
}

// Workers reports the thread-group count Dispatch splits work across.
func (d *Device) Workers() int { return d.workers }

// Dispatch runs fn(tid) for every tid in [0, n), split across d.workers
// contiguous ranges (the CPU stand-in for a workgroup), and blocks until all
// of them complete — the data-parallel pass every §4.4 kernel is built on.
// A barrier exists implicitly at the return of Dispatch: no kernel may
// observe another thread's write from the same dispatch after this point
// without doing so through compute's atomic helpers.
func (d *Device) Dispatch(n int, fn func(tid int)) {
	if n <= 0 {
		return
	}
	workers := d.workers
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		if start >= n {
			break
		}
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				fn(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// DispatchGroups splits n threads into groups of groupSize (a workgroup, in
// GPU terms) and calls fn once per group with the group's [start, end) thread
// range plus its group index, so kernels that need workgroup-local state
// (shared-memory staging tables, Blelloch scans) can allocate it once per
// group instead of once per thread.
func (d *Device) DispatchGroups(n, groupSize int, fn func(groupIdx, start, end int)) {
	if n <= 0 || groupSize <= 0 {
		return
	}
	numGroups := (n + groupSize - 1) / groupSize
	d.Dispatch(numGroups, func(g int) {
		start := g * groupSize
		end := start + groupSize
		if end > n {
			end = n
		}
		fn(g, start, end)
	})
}
