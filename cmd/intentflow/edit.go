package main

import (
	"fmt"

	"github.com/aretw0/intentflow/internal/logging"
	"github.com/aretw0/intentflow/internal/presentation/tui"
	"github.com/aretw0/intentflow/pkg/keyboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit <bot>",
	Short: "Edit a bot in the terminal",
	Long: `Opens the bot in an interactive editor. Unknown bots start from the
greet and fallback intents. Changes are saved on ctrl+s and on exit.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		// Log lines would tear the alternate screen.
		logger := logging.NewNop()
		ws, err := openWorkspace(cfg, logger, nil)
		if err != nil {
			return err
		}
		defer ws.Close()

		ctx := cmd.Context()
		ed, err := ws.Get(ctx, args[0])
		if err != nil {
			return err
		}

		model := tui.NewEditorModel(ctx, ed, keyboard.WithLogger(logger))
		if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
			return fmt.Errorf("editor failed: %w", err)
		}

		ed.Flush()
		return ws.Save(ctx, args[0])
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
}
