// Package runner executes backend CLI commands as child processes and
// reports each one's outcome exactly once.
package runner

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"

	"qnotes/internal/domain"
	"qnotes/internal/logging"
)

// Dispatcher schedules fn on the caller's event loop.
// Completions never run on the process-I/O goroutine directly.
type Dispatcher func(fn func())

// Options configures a Runner.
type Options struct {
	// Shell interprets the command line; defaults to /bin/sh.
	Shell string
	// Workers caps concurrent processes. Zero or negative means unlimited.
	Workers int
	// Dispatch re-enters the host loop. Nil delivers on the worker goroutine.
	Dispatch Dispatcher
	Logger   *logrus.Logger
}

// Runner launches one process per Execute call.
// There is no timeout, retry or cancellation.
type Runner struct {
	shell    string
	pool     *ants.Pool
	dispatch Dispatcher
	log      *logrus.Entry
}

// New creates a Runner backed by an ants goroutine pool.
func New(opts Options) (*Runner, error) {
	if opts.Shell == "" {
		opts.Shell = "/bin/sh"
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	log := logger.WithField("component", "runner")

	pool, err := ants.NewPool(opts.Workers,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(v any) {
			log.Errorf("job panic: %v", v)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}

	dispatch := opts.Dispatch
	if dispatch == nil {
		dispatch = func(fn func()) { fn() }
	}
	return &Runner{shell: opts.Shell, pool: pool, dispatch: dispatch, log: log}, nil
}

// Execute starts command without blocking and calls done once with its outcome.
func (r *Runner) Execute(command string, done func(domain.Completion)) {
	runID := uuid.New().String()
	log := r.log.WithField("run", runID)

	var once sync.Once
	deliver := func(c domain.Completion) {
		once.Do(func() {
			r.dispatch(func() { done(c) })
		})
	}

	err := r.pool.Submit(func() {
		start := time.Now()
		log.Debugf("exec: %s", logging.Mask(command))
		c := r.run(command)
		log.WithFields(logrus.Fields{
			"success":  c.Success,
			"duration": time.Since(start).Round(time.Millisecond),
		}).Debug("process finished")
		deliver(c)
	})
	if err != nil {
		log.Warnf("submit: %v", err)
		deliver(domain.Failed("Error: " + err.Error()))
	}
}

// run executes command under the shell and buffers both streams until exit.
func (r *Runner) run(command string) domain.Completion {
	var stdout, stderr bytes.Buffer
	cmd := exec.Command(r.shell, "-c", command)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return Decide(stdout.String(), stderr.String(), err)
}

// Running returns the number of processes currently executing.
func (r *Runner) Running() int {
	return r.pool.Running()
}

// Close stops accepting new work. Processes already running finish normally.
func (r *Runner) Close() {
	r.pool.Release()
}

// Decide maps captured streams to a completion. Any stderr output means
// failure regardless of exit status. A command that exits quietly succeeds
// with an empty result. runErr only matters when the process could
// not be started and therefore wrote nothing.
func Decide(stdout, stderr string, runErr error) domain.Completion {
	if stderr != "" {
		return domain.Failed("Error: " + stderr)
	}
	var exitErr *exec.ExitError
	if runErr != nil && !errors.As(runErr, &exitErr) && stdout == "" {
		return domain.Failed("Error: " + runErr.Error())
	}
	return domain.Completion{Success: true, Output: stdout}
}
