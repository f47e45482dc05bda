package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/intentflow"
	"github.com/aretw0/intentflow/internal/presentation/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of intentflow",
	Run: func(cmd *cobra.Command, args []string) {
		version := strings.TrimSpace(intentflow.Version)
		if isTerminal(os.Stdout) {
			tui.PrintBanner(cmd.OutOrStdout(), version)
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "intentflow version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
