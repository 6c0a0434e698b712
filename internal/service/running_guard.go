package service

import (
	"context"
	"sync"
)

// ExportedRunningGuard is an exported alias so _test packages can test the guard.
type ExportedRunningGuard = runningJobsGuard

// ─────────────────────────────────────────────────────────────
// runningJobsGuard — tracks in-flight executions per query id
// ─────────────────────────────────────────────────────────────

// runningJobsGuard counts executions that have started but not completed.
// Several runs of the same query may be in flight at once; the guard does
// not prevent that, it only makes them visible and lets shutdown wait.
type runningJobsGuard struct {
	mu      sync.Mutex
	running map[int]int
	wg      sync.WaitGroup
}

// Begin records a new run for queryID.
func (g *runningJobsGuard) Begin(queryID int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running == nil {
		g.running = make(map[int]int)
	}
	g.running[queryID]++
	g.wg.Add(1)
}

// End marks one run of queryID as finished. Must pair with Begin.
func (g *runningJobsGuard) End(queryID int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running[queryID] <= 1 {
		delete(g.running, queryID)
	} else {
		g.running[queryID]--
	}
	g.wg.Done()
}

// Count returns the number of in-flight runs for queryID.
func (g *runningJobsGuard) Count(queryID int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running[queryID]
}

// Total returns the number of in-flight runs across all queries.
func (g *runningJobsGuard) Total() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.running {
		n += c
	}
	return n
}

// WaitAll blocks until all currently running jobs complete or ctx is cancelled.
func (g *runningJobsGuard) WaitAll(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
