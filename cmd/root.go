// Package cmd provides the qnotes command-line interface: a query notebook
// that keeps a set of queries against one connection, runs them through the
// backend's own CLI and persists them to a JSON file.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"qnotes/internal/app"
	"qnotes/internal/config"
	"qnotes/internal/logging"
)

// shutdownGrace bounds how long a command waits for running queries on exit.
const shutdownGrace = 30 * time.Second

var (
	notebookFile string
	configFile   string
	logLevel     string

	cfg    config.Config
	logger *logrus.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "qnotes",
	Short: "Query notebook for SQLite, PostgreSQL, ClickHouse, Redis and MySQL",
	Long: `qnotes keeps a numbered set of queries against a single connection and runs
each one through the database's own command-line client (sqlite3, psql,
clickhouse-client, redis-cli, mysql). The notebook is saved as a small JSON file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			c.LogLevel = logLevel
		}
		cfg = c
		logger = logging.New(cfg.LogLevel)
		if notebookFile == "" {
			notebookFile = cfg.DefaultFile
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return showCmd.RunE(cmd, args)
	},
}

// Execute runs the CLI application.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&notebookFile, "file", "f", "", "notebook file (JSON)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default $XDG_CONFIG_HOME/qnotes/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

// withApp opens the notebook, runs fn and shuts the session down again.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	a, err := app.New(app.Options{Config: cfg, File: notebookFile, Logger: logger})
	if err != nil {
		return err
	}
	if err := a.Start(ctx); err != nil {
		return fmt.Errorf("open notebook: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		a.Shutdown(shutdownCtx)
	}()

	err = fn(ctx, a)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
