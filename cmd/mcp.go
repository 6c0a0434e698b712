package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"qnotes/internal/app"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the notebook to AI agents over MCP (stdio)",
	Long: `Start a Model Context Protocol server on stdin/stdout. Agents can read the
notebook, change the connection, edit, add and run queries, and save. Logs go
to stderr.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			return a.ServeMCP(ctx, Version)
		})
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
