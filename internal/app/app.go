// Package app wires the session core to its collaborators: the event loop,
// the process runner, the notebook file, the file watcher and the scheduler.
// Every exported method is safe to call from any goroutine.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"qnotes/internal/config"
	"qnotes/internal/dbclient"
	"qnotes/internal/domain"
	"qnotes/internal/logging"
	"qnotes/internal/runner"
	"qnotes/internal/service"
	"qnotes/internal/storage"
	"qnotes/internal/terminal"
)

// ErrNotStarted is returned by operations called before Start.
var ErrNotStarted = errors.New("app not started")

// JobRunner is the process runner the app drives. *runner.Runner satisfies it.
type JobRunner interface {
	service.JobRunner
	Running() int
	Close()
}

// Options configures an App.
type Options struct {
	Config config.Config
	// File is the notebook path. Empty means a new, unsaved session.
	File   string
	Logger *logrus.Logger
	// Runner replaces the process runner, mainly for tests. Its completions
	// must be dispatched through the Dispatcher passed to NewRunner.
	NewRunner func(dispatch runner.Dispatcher) (JobRunner, error)
}

// App is the host-facing facade over one open notebook.
type App struct {
	cfg    config.Config
	logger *logrus.Logger
	log    *logrus.Entry

	registry *dbclient.Registry
	loop     *service.Loop
	runner   JobRunner
	events   *service.Broadcaster
	session  *service.SessionService
	file     *storage.NotebookFile
	editor   *terminal.Manager

	ctx      context.Context
	stopLoop context.CancelFunc
	started  bool

	mu          sync.Mutex
	lastWritten []byte
	watcher     *notebookWatcher
	sched       *cron.Cron
}

// New builds an App. Call Start before using it.
func New(opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	a := &App{
		cfg:      opts.Config,
		logger:   logger,
		log:      logger.WithField("component", "app"),
		registry: dbclient.NewRegistry(opts.Config.Clients),
		loop:     service.NewLoop(),
		events:   service.NewBroadcaster(),
		editor:   terminal.New(opts.Config.Editor, logger),
	}
	a.file = storage.NewNotebookFile(opts.File, a.registry, logger)

	newRunner := opts.NewRunner
	if newRunner == nil {
		newRunner = func(dispatch runner.Dispatcher) (JobRunner, error) {
			return runner.New(runner.Options{
				Shell:    opts.Config.Shell,
				Workers:  opts.Config.Workers,
				Dispatch: dispatch,
				Logger:   logger,
			})
		}
	}
	r, err := newRunner(a.loop.Dispatch)
	if err != nil {
		return nil, err
	}
	a.runner = r
	return a, nil
}

// Start runs the session loop and opens the notebook: the file at Options.File
// if it loads, otherwise a default session on the configured connection.
// The loop outlives ctx and only stops in Shutdown, so completions of queries
// still running when ctx is cancelled can be recorded.
func (a *App) Start(ctx context.Context) error {
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.ctx = loopCtx
	a.stopLoop = cancel
	a.session = service.NewSessionService(loopCtx, a.registry, a.runner, a.events, a.logger)
	go a.loop.Run(loopCtx)
	a.started = true

	doc, _ := a.file.Load()
	return a.loop.Call(ctx, func() {
		snap := a.session.Open(doc, a.cfg.DefaultConnection)
		a.log.WithFields(logrus.Fields{
			"file":    a.file.Path(),
			"backend": snap.Backend.String(),
			"queries": len(snap.Queries),
		}).Info("session opened")
	})
}

// Shutdown stops the scheduler and watcher, waits for running queries until
// ctx ends, then stops the loop and the runner.
func (a *App) Shutdown(ctx context.Context) {
	if !a.started {
		return
	}
	a.StopSchedule()
	a.StopWatching()

	a.session.WaitIdle(ctx)
	if n := a.runner.Running(); n > 0 {
		a.log.Warnf("shutting down with %d running process(es)", n)
	}
	a.stopLoop()
	<-a.loop.Done()
	a.runner.Close()
	a.started = false
}

// Subscribe returns a stream of session events. See service.Broadcaster.
func (a *App) Subscribe(buffer int) (<-chan service.EmittedEvent, func()) {
	return a.events.Subscribe(buffer)
}

// Registry returns the backend registry.
func (a *App) Registry() *dbclient.Registry {
	return a.registry
}

// call runs fn on the session loop.
func (a *App) call(ctx context.Context, fn func()) error {
	if !a.started {
		return ErrNotStarted
	}
	return a.loop.Call(ctx, fn)
}

// snapshot is a helper for operations that only need to read state.
func (a *App) snapshot(ctx context.Context) (domain.SessionSnapshot, error) {
	var snap domain.SessionSnapshot
	err := a.call(ctx, func() { snap = a.session.Snapshot() })
	return snap, err
}
