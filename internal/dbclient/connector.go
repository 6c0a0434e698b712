package dbclient

import (
	"context"
	"fmt"

	"qnotes/internal/domain"
)

// Pinger is implemented by adapters whose backend has a Go driver.
// Ping opens a one-off connection, checks it and closes it again.
type Pinger interface {
	Ping(ctx context.Context, uri string) error
}

// TargetParser exposes the fields an adapter extracts from a URI.
type TargetParser interface {
	ParseTarget(uri string) (domain.Target, error)
}

// Ping checks connectivity for uri using the matching adapter's driver.
// handled is false when the adapter has no driver and the caller must fall back
// to running a probe query through the CLI.
func (r *Registry) Ping(ctx context.Context, uri string) (handled bool, err error) {
	kind := r.Detect(uri)
	src, found := r.Get(kind)
	if !found {
		return true, fmt.Errorf("unsupported database type")
	}
	p, isPinger := src.(Pinger)
	if !isPinger {
		return false, nil
	}
	return true, p.Ping(ctx, uri)
}

// Describe returns the parsed connection fields for display. The password is never included.
func (r *Registry) Describe(uri string) (domain.Target, error) {
	src, found := r.Get(r.Detect(uri))
	if !found {
		return domain.Target{}, fmt.Errorf("unsupported database type")
	}
	tp, ok := src.(TargetParser)
	if !ok {
		return domain.Target{}, fmt.Errorf("%s: no target parser", src.Name())
	}
	t, err := tp.ParseTarget(uri)
	t.Password = ""
	return t, err
}
