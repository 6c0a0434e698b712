package app

import (
	"context"
	"errors"
	"time"

	"qnotes/internal/domain"
	"qnotes/internal/service"
)

// probeQuery is run through the backend CLI when no Go driver can ping it.
const probeQuery = "SELECT 1"

// CheckConnection verifies that the current connection is reachable. Backends
// with a Go driver are pinged directly; the rest run a probe query through
// their CLI. The session's query states are not touched.
func (a *App) CheckConnection(ctx context.Context) (domain.ConnectionCheck, error) {
	snap, err := a.snapshot(ctx)
	if err != nil {
		return domain.ConnectionCheck{}, err
	}
	uri := snap.ConnectionURI
	res := domain.ConnectionCheck{Backend: snap.Backend}
	if uri == "" {
		return res, errors.New(service.MsgInvalidURI)
	}
	if !snap.Backend.Known() {
		return res, errors.New(service.MsgUnsupportedBackend)
	}
	if t, err := a.registry.Describe(uri); err == nil {
		res.Target = t
	} else {
		return res, err
	}

	start := time.Now()
	handled, err := a.registry.Ping(ctx, uri)
	if handled {
		res.Via = "driver"
		res.Duration = time.Since(start)
		return res, err
	}

	res.Via = "cli"
	err = a.probe(ctx, snap.Backend, uri)
	res.Duration = time.Since(start)
	return res, err
}

func (a *App) probe(ctx context.Context, kind domain.BackendKind, uri string) error {
	src, ok := a.registry.Get(kind)
	if !ok {
		return errors.New(service.MsgUnsupportedBackend)
	}
	command, err := src.BuildCommand(uri, probeQuery)
	if err != nil {
		return err
	}

	done := make(chan domain.Completion, 1)
	a.runner.Execute(command, func(c domain.Completion) { done <- c })
	select {
	case c := <-done:
		if !c.Success {
			return errors.New(c.Output)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
