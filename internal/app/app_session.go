package app

// ─────────────────────────────────────────────────────────────
// Session Handlers — loop-safe delegates to SessionService
// ─────────────────────────────────────────────────────────────

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"qnotes/internal/domain"
	"qnotes/internal/logging"
)

// UnknownQueryError is returned for an id that has no query.
type UnknownQueryError struct {
	ID int
}

func (e *UnknownQueryError) Error() string {
	return fmt.Sprintf("query %d does not exist", e.ID)
}

// ── State ──────────────────────────────────────────────────

func (a *App) Snapshot(ctx context.Context) (domain.SessionSnapshot, error) {
	return a.snapshot(ctx)
}

func (a *App) SetConnection(ctx context.Context, uri string) (domain.SessionSnapshot, error) {
	var snap domain.SessionSnapshot
	err := a.call(ctx, func() { snap = a.session.UpdateConnection(uri) })
	if err == nil {
		a.log.Infof("connection set to %s (%s)", logging.Mask(uri), snap.Backend.String())
	}
	return snap, err
}

func (a *App) UpdateQuery(ctx context.Context, id int, text string) (domain.SessionSnapshot, error) {
	var snap domain.SessionSnapshot
	err := a.call(ctx, func() { snap = a.session.UpdateQueryText(id, text) })
	return snap, err
}

func (a *App) AddQuery(ctx context.Context) (int, domain.SessionSnapshot, error) {
	var (
		id   int
		snap domain.SessionSnapshot
	)
	err := a.call(ctx, func() { id, snap = a.session.AddQuery() })
	return id, snap, err
}

// ── Execution ──────────────────────────────────────────────

// RunQuery executes the stored text of id and waits for its completion.
func (a *App) RunQuery(ctx context.Context, id int) (domain.Completion, error) {
	return a.execute(ctx, id, nil)
}

// RunText executes text under id without storing it, and waits.
func (a *App) RunText(ctx context.Context, id int, text string) (domain.Completion, error) {
	return a.execute(ctx, id, &text)
}

func (a *App) execute(ctx context.Context, id int, text *string) (domain.Completion, error) {
	done := make(chan domain.Completion, 1)
	var missing bool
	err := a.call(ctx, func() {
		q, ok := a.session.Query(id)
		if text != nil {
			q = *text
		} else if !ok {
			missing = true
			return
		}
		a.session.ExecuteQuery(id, q, func(c domain.Completion) { done <- c })
	})
	if err != nil {
		return domain.Completion{}, err
	}
	if missing {
		return domain.Completion{}, &UnknownQueryError{ID: id}
	}
	select {
	case c := <-done:
		return c, nil
	case <-ctx.Done():
		return domain.Completion{}, ctx.Err()
	}
}

// RunAll starts every query at once and waits for all of them. ids limits
// the run to those queries; empty means all.
func (a *App) RunAll(ctx context.Context, ids ...int) (map[int]domain.Completion, error) {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[int]domain.Completion)
		unknown []int
	)
	err := a.call(ctx, func() {
		if len(ids) == 0 {
			ids = a.session.Snapshot().QueryIDs()
		}
		for _, id := range ids {
			text, ok := a.session.Query(id)
			if !ok {
				unknown = append(unknown, id)
				continue
			}
			id := id
			wg.Add(1)
			a.session.ExecuteQuery(id, text, func(c domain.Completion) {
				mu.Lock()
				results[id] = c
				mu.Unlock()
				wg.Done()
			})
		}
	})
	if err != nil {
		return nil, err
	}
	if len(unknown) > 0 {
		a.log.Warnf("skipped unknown queries %v", unknown)
	}

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	mu.Lock()
	defer mu.Unlock()
	if len(unknown) > 0 {
		return results, &UnknownQueryError{ID: unknown[0]}
	}
	return results, nil
}

// ── Persistence ────────────────────────────────────────────

// Path returns the notebook path, or "" for an unsaved session.
func (a *App) Path() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.file.Path()
}

// Save writes the session to its file. It returns storage.ErrNoPath when the
// session has never been saved; the host should ask for a path and call SaveAs.
func (a *App) Save(ctx context.Context) error {
	var doc domain.Document
	if err := a.call(ctx, func() { doc = a.session.Document() }); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.writeLocked(doc)
}

// SaveAs saves to path. Later saves reuse it only if this one succeeds.
func (a *App) SaveAs(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	var doc domain.Document
	if err := a.call(ctx, func() { doc = a.session.Document() }); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	prev := a.file.Path()
	a.file.SetPath(abs)
	if err := a.writeLocked(doc); err != nil {
		a.file.SetPath(prev)
		return err
	}
	return nil
}

// writeLocked saves doc to the current path. a.mu must be held.
func (a *App) writeLocked(doc domain.Document) error {
	data, err := a.file.Save(doc)
	if err != nil {
		return err
	}
	a.lastWritten = data
	a.log.Infof("saved %s", a.file.Path())
	return nil
}

// ── Editor ─────────────────────────────────────────────────

// EditQuery opens the query text in the configured editor and stores the
// result. It reports whether the text changed.
func (a *App) EditQuery(ctx context.Context, id int) (bool, error) {
	var (
		text string
		ok   bool
	)
	if err := a.call(ctx, func() { text, ok = a.session.Query(id) }); err != nil {
		return false, err
	}
	if !ok {
		return false, &UnknownQueryError{ID: id}
	}

	edited, err := a.editor.EditText(ctx, fmt.Sprintf("q%d", id), text)
	if err != nil {
		return false, err
	}
	if edited == text {
		return false, nil
	}
	_, err = a.UpdateQuery(ctx, id, edited)
	return err == nil, err
}
