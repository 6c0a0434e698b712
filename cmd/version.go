package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X qnotes/cmd.Version=...".
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the qnotes version",
	Run: func(cmd *cobra.Command, args []string) {
		pterm.Printfln("qnotes %s", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
