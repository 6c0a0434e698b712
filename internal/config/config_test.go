package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"qnotes/internal/config"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	t.Setenv("EDITOR", "nano")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	want := config.Default()
	if cfg != want {
		t.Errorf("got %+v, want %+v", cfg, want)
	}
	if cfg.Editor != "nano" {
		t.Errorf("expected $EDITOR default, got %q", cfg.Editor)
	}
	if cfg.Clients.Redis != "redis-cli" {
		t.Errorf("expected stock redis client, got %q", cfg.Clients.Redis)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `log_level: debug
workers: 4
default_connection: redis://localhost:6379/0
clients:
  sqlite: /opt/bin/sqlite3
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "debug" || cfg.Workers != 4 {
		t.Errorf("unexpected values: %+v", cfg)
	}
	if cfg.DefaultConnection != "redis://localhost:6379/0" {
		t.Errorf("unexpected default connection %q", cfg.DefaultConnection)
	}
	if cfg.Clients.SQLite != "/opt/bin/sqlite3" {
		t.Errorf("expected sqlite override, got %q", cfg.Clients.SQLite)
	}
	if cfg.Clients.MySQL != "mysql" {
		t.Errorf("unset client should keep its default, got %q", cfg.Clients.MySQL)
	}
	if cfg.Shell != "/bin/sh" {
		t.Errorf("unset key should keep its default, got %q", cfg.Shell)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("log_level: debug\nworkers: 2\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("QNOTES_LOG_LEVEL", "warn")
	t.Setenv("QNOTES_WORKERS", "8")
	t.Setenv("QNOTES_CLIENTS_POSTGRESQL", "/usr/local/bin/psql")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("expected env log level, got %q", cfg.LogLevel)
	}
	if cfg.Workers != 8 {
		t.Errorf("expected env workers, got %d", cfg.Workers)
	}
	if cfg.Clients.PostgreSQL != "/usr/local/bin/psql" {
		t.Errorf("expected env psql, got %q", cfg.Clients.PostgreSQL)
	}
	if cfg.Clients.SQLite != "sqlite3" {
		t.Errorf("unset env should not clear a value, got %q", cfg.Clients.SQLite)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("workers: [1"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := config.Load(bad); err == nil {
		t.Error("expected parse error")
	}

	negative := filepath.Join(dir, "neg.yaml")
	if err := os.WriteFile(negative, []byte("workers: -1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := config.Load(negative); err == nil {
		t.Error("expected validation error")
	}
}

func TestPath_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	p, err := config.Path()
	if err != nil {
		t.Fatal(err)
	}
	if p != "/tmp/xdg/qnotes/config.yaml" {
		t.Errorf("got %q", p)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := config.Default()
	cfg.Schedule = "*/5 * * * *"
	cfg.Workers = 3
	if err := config.Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != cfg {
		t.Errorf("got %+v, want %+v", got, cfg)
	}
}
