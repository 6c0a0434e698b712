package cmd

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"qnotes/internal/app"
	"qnotes/internal/service"
)

var scheduleExpr string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run every query on a schedule and reload the file when it changes",
	Long: `Run every query on a cron schedule (default from the config, "@every 1m") and
print each result as it arrives. When the notebook has a file, edits made to it
by other programs are picked up. Stop with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		expr := scheduleExpr
		if expr == "" {
			expr = cfg.Schedule
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			events, unsubscribe := a.Subscribe(64)
			defer unsubscribe()

			if a.Path() != "" {
				if err := a.Watch(); err != nil {
					return err
				}
			}
			if err := a.Schedule(expr); err != nil {
				return err
			}
			pterm.Info.Printfln("running all queries %s, Ctrl-C to stop", expr)

			for {
				select {
				case <-ctx.Done():
					return nil
				case ev := <-events:
					if ev.Event != service.EventQueryCompleted {
						continue
					}
					done := ev.Data.(service.QueryCompletedEvent)
					printCompletion(done.QueryID, done.Completion)
				}
			}
		})
	},
}

func init() {
	watchCmd.Flags().StringVar(&scheduleExpr, "schedule", "", `cron expression, e.g. "*/5 * * * *" or "@every 30s"`)
	rootCmd.AddCommand(watchCmd)
}
