// Package config loads qnotes settings from the XDG config dir, with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"qnotes/internal/dbclient"
)

// EnvPrefix prefixes every environment override, e.g. QNOTES_LOG_LEVEL.
const EnvPrefix = "QNOTES"

// Config holds user settings. Nothing here is secret; connection URIs with
// credentials live in notebook files.
type Config struct {
	LogLevel          string                  `yaml:"log_level" mapstructure:"log_level"`
	Shell             string                  `yaml:"shell" mapstructure:"shell"`
	Editor            string                  `yaml:"editor" mapstructure:"editor"`
	Workers           int                     `yaml:"workers" mapstructure:"workers"` // 0 = unlimited
	DefaultFile       string                  `yaml:"default_file" mapstructure:"default_file"`
	DefaultConnection string                  `yaml:"default_connection" mapstructure:"default_connection"`
	Schedule          string                  `yaml:"schedule" mapstructure:"schedule"`
	Clients           dbclient.ClientBinaries `yaml:"clients" mapstructure:"clients"`
}

// envKeys are the settings that can be overridden from the environment.
var envKeys = []string{
	"log_level",
	"shell",
	"editor",
	"workers",
	"default_file",
	"default_connection",
	"schedule",
	"clients.sqlite",
	"clients.postgresql",
	"clients.clickhouse",
	"clients.redis",
	"clients.mysql",
}

// Default returns the settings used when no file exists.
func Default() Config {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}
	return Config{
		LogLevel:          "info",
		Shell:             "/bin/sh",
		Editor:            editor,
		DefaultConnection: "sqlite://:memory:",
		Schedule:          "@every 1m",
		Clients:           dbclient.DefaultClients(),
	}
}

// Path returns $XDG_CONFIG_HOME/qnotes/config.yaml, falling back to
// ~/.config when XDG_CONFIG_HOME is unset.
func Path() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "qnotes", "config.yaml"), nil
}

// Load reads the YAML file at path (Path() when empty) over the defaults and
// then applies QNOTES_* environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		p, err := Path()
		if err != nil {
			return cfg, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overlays the environment onto cfg. Only variables that are set
// replace a value.
func applyEnv(cfg *Config) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal environment: %w", err)
	}
	return nil
}

// Validate rejects settings that cannot work.
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if strings.TrimSpace(c.Shell) == "" {
		return errors.New("shell must not be empty")
	}
	return nil
}

// Save writes cfg as YAML to path, creating the directory.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
