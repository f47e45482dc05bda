package main

import (
	"fmt"

	"github.com/aretw0/intentflow/internal/validator"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <snapshot>",
	Short: "Check a bot snapshot for consistency",
	Long: `Decodes the snapshot, checks its structure and reports intents that are
unreachable from greet, that lead nowhere, or that have no training phrases.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		strict, _ := cmd.Flags().GetBool("strict")

		env, err := readBot(args[0])
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		g := env.Graph()
		for _, issue := range validator.Lint(g, validator.StartID(g)) {
			fmt.Fprintln(cmd.OutOrStdout(), issue)
		}
		if err := validator.ValidateGraph(g, validator.StartID(g), strict); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Graph is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("strict", false, "Fail on warnings too")
}
