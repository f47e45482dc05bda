package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var botsCmd = &cobra.Command{
	Use:   "bots",
	Short: "Manage stored bot snapshots",
	Long:  `List and remove the bot snapshots stored in the configured save directory.`,
}

var botsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all stored bots",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		store, err := snapshotStore(cfg)
		if err != nil {
			return err
		}
		names, err := store.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing bots: %w", err)
		}

		if len(names) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No bots found.")
			return nil
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), "- "+name)
		}
		return nil
	},
}

var botsRmCmd = &cobra.Command{
	Use:   "rm <bot>...",
	Short: "Remove one or more bots",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		store, err := snapshotStore(cfg)
		if err != nil {
			return err
		}

		var failed int
		for _, name := range args {
			if err := store.Delete(cmd.Context(), name); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error removing '%s': %v\n", name, err)
				failed++
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed bot '%s'\n", name)
		}
		if failed > 0 {
			return fmt.Errorf("failed to remove %d bots", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(botsCmd)
	botsCmd.AddCommand(botsLsCmd)
	botsCmd.AddCommand(botsRmCmd)
}
