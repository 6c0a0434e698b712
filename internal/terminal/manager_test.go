package terminal

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeEditor creates a fake editor script that replaces the file it is given.
func writeEditor(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-editor")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestManager(t *testing.T, editor string) (*Manager, *bytes.Buffer) {
	t.Helper()
	devNull, err := os.Open(os.DevNull)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { devNull.Close() })

	var out bytes.Buffer
	m := New(editor, nil)
	m.in = devNull
	m.out = &out
	return m, &out
}

func skipWithoutPTY(t *testing.T, err error) {
	t.Helper()
	if err != nil && strings.Contains(err.Error(), "start pty") {
		t.Skipf("pty unavailable: %v", err)
	}
}

func TestResolveEditor(t *testing.T) {
	if got := resolveEditor(""); len(got) != 1 || filepath.Base(got[0]) != "vi" {
		t.Errorf("expected vi fallback, got %v", got)
	}
	got := resolveEditor("/usr/bin/code --wait")
	if len(got) != 2 || got[0] != "/usr/bin/code" || got[1] != "--wait" {
		t.Errorf("expected arguments kept, got %v", got)
	}
}

func TestEditText(t *testing.T) {
	editor := writeEditor(t, `echo "editing"; printf 'SELECT 2\n' > "$1"`)
	m, out := newTestManager(t, editor)

	text, err := m.EditText(context.Background(), "q1", "SELECT 1")
	skipWithoutPTY(t, err)
	if err != nil {
		t.Fatal(err)
	}
	if text != "SELECT 2" {
		t.Errorf("expected edited text, got %q", text)
	}
	if !strings.Contains(out.String(), "editing") {
		t.Errorf("expected editor output forwarded, got %q", out.String())
	}
	if m.IsRunning() {
		t.Error("session should be closed after the editor exits")
	}
}

func TestEditText_Unchanged(t *testing.T) {
	m, _ := newTestManager(t, writeEditor(t, "exit 0"))

	text, err := m.EditText(context.Background(), "q1", "KEYS *")
	skipWithoutPTY(t, err)
	if err != nil {
		t.Fatal(err)
	}
	if text != "KEYS *" {
		t.Errorf("got %q", text)
	}
}

func TestOpenFile_EditorFailure(t *testing.T) {
	m, _ := newTestManager(t, writeEditor(t, "exit 3"))

	err := m.OpenFile(context.Background(), filepath.Join(t.TempDir(), "x.sql"))
	skipWithoutPTY(t, err)
	if err == nil {
		t.Fatal("expected an error for a non-zero editor exit")
	}
}

func TestOpenFile_Cancel(t *testing.T) {
	m, _ := newTestManager(t, writeEditor(t, "exec sleep 10"))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := m.OpenFile(ctx, filepath.Join(t.TempDir(), "x.sql"))
	skipWithoutPTY(t, err)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("cancel did not stop the editor")
	}
}
