package cmd

import (
	"context"
	"sort"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"qnotes/internal/app"
)

var runCmd = &cobra.Command{
	Use:   "run [id...]",
	Short: "Run queries concurrently and print their output",
	Long: `Run the given queries, or every query when no id is given. All queries start
at once; output is printed in id order once every query has finished.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]int, 0, len(args))
		for _, arg := range args {
			id, err := parseID(arg)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}

		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			results, err := a.RunAll(ctx, ids...)
			order := make([]int, 0, len(results))
			for id := range results {
				order = append(order, id)
			}
			sort.Ints(order)
			failed := 0
			for _, id := range order {
				printCompletion(id, results[id])
				if !results[id].Success {
					failed++
				}
			}
			if failed > 0 {
				pterm.Warning.Printfln("%d of %d queries failed", failed, len(order))
			}
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
