package main

import (
	"fmt"
	"os"

	"github.com/aretw0/intentflow/internal/presentation/tui"
	"github.com/aretw0/intentflow/internal/validator"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <snapshot>",
	Short: "Print a readable summary of a bot",
	Long: `Renders the bot's metadata, intents and lint findings as markdown.
On a terminal the markdown is styled; otherwise it is printed raw.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetBool("raw")

		env, err := readBot(args[0])
		if err != nil {
			return err
		}
		g := env.Graph()
		md := tui.Summary(env.Metadata(), g, validator.Lint(g, validator.StartID(g)))

		if raw || !isTerminal(os.Stdout) {
			fmt.Fprint(cmd.OutOrStdout(), md)
			return nil
		}

		width, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil {
			width = 80
		}
		render, err := tui.NewRenderer(width)
		if err != nil {
			return err
		}
		out, err := render(md)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().Bool("raw", false, "Print markdown without styling")
}
