package app

import (
	"context"

	mcpserver "qnotes/internal/mcp"
)

// ServeMCP exposes the session as an MCP server on stdin/stdout until the
// client disconnects. Saves made by the agent go through the same notebook
// file; the file watcher picks up edits made by other processes.
func (a *App) ServeMCP(ctx context.Context, version string) error {
	if !a.started {
		return ErrNotStarted
	}
	if a.Path() != "" {
		if err := a.Watch(); err != nil {
			a.log.WithError(err).Warn("file watcher disabled")
		}
	}

	srv := mcpserver.New(mcpserver.Deps{
		Session: a,
		Logger:  a.logger,
		Version: version,
	})
	a.log.Info("starting standalone MCP server")
	return srv.ServeStdio()
}
