// Package terminal runs the user's editor on a pseudo-terminal so query text
// can be edited from the command line.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/creack/pty"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"qnotes/internal/logging"
)

// ErrBusy is returned when an editor session is already open.
var ErrBusy = errors.New("an editor session is already running")

// Manager handles one PTY editor session at a time.
type Manager struct {
	mu      sync.Mutex
	editor  []string
	in      *os.File
	out     io.Writer
	cmd     *exec.Cmd
	ptmx    *os.File
	running bool
	log     *logrus.Entry
}

// resolveEditor splits the editor setting into argv and finds the binary.
// Settings such as "code --wait" keep their arguments.
func resolveEditor(setting string) []string {
	argv := strings.Fields(setting)
	if len(argv) == 0 {
		argv = []string{"vi"}
	}
	if !filepath.IsAbs(argv[0]) {
		if p, err := exec.LookPath(argv[0]); err == nil {
			argv[0] = p
		}
	}
	return argv
}

// New creates a manager for the given editor command, attached to the
// process's own stdin and stdout.
func New(editor string, logger *logrus.Logger) *Manager {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Manager{
		editor: resolveEditor(editor),
		in:     os.Stdin,
		out:    os.Stdout,
		log:    logger.WithField("component", "terminal"),
	}
}

// EditText writes text to a temp file named after name, opens it in the
// editor and returns the saved content. A single trailing newline added by
// the editor is dropped.
func (m *Manager) EditText(ctx context.Context, name, text string) (string, error) {
	f, err := os.CreateTemp("", "qnotes-"+name+"-*.sql")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.WriteString(text); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	if err := m.OpenFile(ctx, path); err != nil {
		return "", err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read edited file: %w", err)
	}
	return strings.TrimSuffix(string(content), "\n"), nil
}

// OpenFile runs the editor on filePath and blocks until it exits or ctx is
// cancelled. When stdin is a terminal it is put in raw mode for the session
// and window size changes are forwarded to the PTY.
func (m *Manager) OpenFile(ctx context.Context, filePath string) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return ErrBusy
	}

	args := append(append([]string{}, m.editor[1:]...), filePath)
	cmd := exec.Command(m.editor[0], args...)
	cmd.Env = append(os.Environ(), "TERM="+termName())

	ptmx, err := pty.Start(cmd)
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("start pty: %w", err)
	}
	m.cmd = cmd
	m.ptmx = ptmx
	m.running = true
	m.mu.Unlock()

	m.log.Debugf("editor started: %s %s", m.editor[0], filePath)
	defer m.Close()

	if fd := int(m.in.Fd()); term.IsTerminal(fd) {
		if err := pty.InheritSize(m.in, ptmx); err != nil {
			m.log.WithError(err).Debug("inherit size")
		}
		winch := make(chan os.Signal, 1)
		signal.Notify(winch, syscall.SIGWINCH)
		defer func() {
			signal.Stop(winch)
			close(winch)
		}()
		go func() {
			for range winch {
				if err := pty.InheritSize(m.in, ptmx); err != nil {
					m.log.WithError(err).Debug("resize pty")
				}
			}
		}()

		oldState, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("raw mode: %w", err)
		}
		defer term.Restore(fd, oldState)
	}

	// The stdin copy stays blocked on a read after the editor exits; it ends
	// with the process.
	go func() { _, _ = io.Copy(ptmx, m.in) }()

	copied := make(chan struct{})
	go func() {
		_, _ = io.Copy(m.out, ptmx)
		close(copied)
	}()

	waited := make(chan error, 1)
	go func() { waited <- cmd.Wait() }()

	select {
	case err := <-waited:
		<-copied
		if err != nil {
			return fmt.Errorf("editor: %w", err)
		}
		return nil
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-waited
		return ctx.Err()
	}
}

// IsRunning returns whether a session is active.
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Close releases the PTY of the current session.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ptmx != nil {
		m.ptmx.Close()
		m.ptmx = nil
	}
	m.cmd = nil
	m.running = false
}

func termName() string {
	if t := os.Getenv("TERM"); t != "" {
		return t
	}
	return "xterm-256color"
}
