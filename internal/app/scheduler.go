package app

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
)

// Schedule re-runs every query on the cron expression expr (standard five
// fields or descriptors such as "@every 30s"). A tick that fires while the
// previous one is still running is skipped.
func (a *App) Schedule(expr string) error {
	if !a.started {
		return ErrNotStarted
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(expr, func() { a.runScheduled(a.ctx) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", expr, err)
	}

	a.mu.Lock()
	if a.sched != nil {
		a.sched.Stop()
	}
	a.sched = c
	a.mu.Unlock()

	c.Start()
	a.log.Infof("scheduled all queries: %s", expr)
	return nil
}

// StopSchedule stops the scheduler and waits for a tick in progress.
func (a *App) StopSchedule() {
	a.mu.Lock()
	c := a.sched
	a.sched = nil
	a.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

func (a *App) runScheduled(ctx context.Context) {
	results, err := a.RunAll(ctx)
	if err != nil {
		a.log.WithError(err).Warn("scheduled run")
	}
	failed := 0
	for id, c := range results {
		if !c.Success {
			failed++
			a.log.WithField("query", id).Debugf("scheduled run failed: %s", c.Output)
		}
	}
	a.log.Infof("scheduled run finished: %d queries, %d failed", len(results), failed)
}
