package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/intentflow"
	"github.com/aretw0/intentflow/internal/config"
	"github.com/aretw0/intentflow/internal/logging"
	"github.com/aretw0/intentflow/pkg/adapters/file"
	"github.com/aretw0/intentflow/pkg/codec"
	"github.com/aretw0/intentflow/pkg/persistence/middleware"
	"github.com/aretw0/intentflow/pkg/ports"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "intentflow",
	Short: "intentflow edits conversational bots as intent graphs",
	Long: `intentflow manages bots built from intents, training phrases and responses.
It validates, renders and converts bot snapshots, and serves them for editing
over HTTP, MCP or an interactive terminal editor.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", config.DefaultPath, "Configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().String("log-level", "", "Override the configured log level (debug, info, warn, error)")
}

// loadConfig reads the configuration and builds the logger it describes.
func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logging.New(level, cfg.LogFormat), nil
}

// snapshotStore opens the configured directory, sealed when a key is set.
func snapshotStore(cfg config.Config) (ports.SnapshotStore, error) {
	fs := file.New(cfg.SaveDir)
	if cfg.Format == string(codec.FormatYAML) {
		fs.Ext = ".yaml"
	}
	key, err := cfg.Key()
	if err != nil || key == nil {
		return fs, err
	}
	enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
	if err != nil {
		return nil, err
	}
	return middleware.Chain(fs, enc), nil
}

func editorOptions(cfg config.Config, logger *slog.Logger) []intentflow.Option {
	return []intentflow.Option{
		intentflow.WithLogger(logger),
		intentflow.WithDebounce(cfg.Debounce),
		intentflow.WithHistoryDepth(cfg.HistoryDepth),
	}
}

// readBot decodes a snapshot file, picking the format from its extension.
func readBot(path string) (codec.Envelope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return codec.Envelope{}, err
	}
	return codec.Decode(data, codec.FormatFromPath(path))
}
