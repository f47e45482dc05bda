package main

import (
	"fmt"

	"github.com/aretw0/intentflow/internal/presentation/graph"
	"github.com/aretw0/intentflow/internal/validator"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <snapshot>",
	Short: "Export the intent graph visualization",
	Long:  `Reads a bot snapshot and outputs a Mermaid diagram (graph TD) of its intents and transitions.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lint, _ := cmd.Flags().GetBool("lint")

		env, err := readBot(args[0])
		if err != nil {
			return err
		}
		g := env.Graph()

		var overlay *graph.Overlay
		if lint {
			overlay = &graph.Overlay{Issues: validator.Flagged(validator.Lint(g, validator.StartID(g)))}
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(g, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().Bool("lint", false, "Highlight intents with lint findings")
}
