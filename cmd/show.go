package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"qnotes/internal/app"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the connection and queries of the notebook",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			snap, err := a.Snapshot(ctx)
			if err != nil {
				return err
			}
			return renderSession(snap, a.Path())
		})
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
