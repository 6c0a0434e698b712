package app

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"qnotes/internal/storage"
)

const reloadDebounce = 200 * time.Millisecond

// notebookWatcher reloads the session when its file changes on disk, for
// example after another process (or the MCP host) saved it.
type notebookWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	onChange func(data []byte)
	log      *logrus.Entry

	mu    sync.Mutex
	timer *time.Timer
	done  chan struct{}
}

func newNotebookWatcher(path string, onChange func(data []byte), log *logrus.Entry) (*notebookWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory: saves replace the file, which drops a watch on
	// the file itself.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	w := &notebookWatcher{
		watcher:  watcher,
		path:     abs,
		onChange: onChange,
		log:      log,
		done:     make(chan struct{}),
	}
	go w.watchLoop()
	return w, nil
}

func (w *notebookWatcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return err
}

func (w *notebookWatcher) watchLoop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if abs, _ := filepath.Abs(event.Name); abs != w.path {
				continue
			}
			w.schedule()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Warn("watcher error")
		}
	}
}

// schedule coalesces bursts of events into one reload.
func (w *notebookWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(reloadDebounce, func() {
		data, err := os.ReadFile(w.path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				w.log.WithError(err).Warnf("read %s", w.path)
			}
			return
		}
		w.onChange(data)
	})
}

// ── App wiring ─────────────────────────────────────────────

// Watch reloads connection and queries whenever the notebook file is changed
// by someone else. The session's own saves are ignored.
func (a *App) Watch() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.watcher != nil {
		return nil
	}
	path := a.file.Path()
	if path == "" {
		return storage.ErrNoPath
	}
	w, err := newNotebookWatcher(path, a.reload, a.log.WithField("watch", path))
	if err != nil {
		return err
	}
	a.watcher = w
	a.log.Infof("watching %s", path)
	return nil
}

// StopWatching closes the file watcher, if any.
func (a *App) StopWatching() {
	a.mu.Lock()
	w := a.watcher
	a.watcher = nil
	a.mu.Unlock()
	if w != nil {
		w.Close()
	}
}

func (a *App) reload(data []byte) {
	a.mu.Lock()
	own := bytes.Equal(data, a.lastWritten)
	a.mu.Unlock()
	if own {
		return
	}

	doc, ok := storage.Deserialize(data, a.registry)
	if !ok {
		a.log.Warn("notebook changed on disk but is not valid, keeping the current session")
		return
	}
	a.loop.Post(func() {
		snap := a.session.Replace(*doc)
		a.log.WithField("version", snap.Version).Info("notebook reloaded from disk")
	})
}
