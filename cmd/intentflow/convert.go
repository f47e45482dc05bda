package main

import (
	"fmt"
	"os"

	"github.com/aretw0/intentflow/pkg/codec"
	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert <input> [output]",
	Short: "Convert a snapshot between JSON and YAML",
	Long: `Decodes and validates the input snapshot, then re-encodes it. The output
format follows the output file's extension, or --format when writing to stdout.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := readBot(args[0])
		if err != nil {
			return err
		}

		if len(args) == 1 {
			name, _ := cmd.Flags().GetString("format")
			f, err := codec.ParseFormat(name)
			if err != nil {
				return err
			}
			data, err := codec.Encode(env, f)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}

		data, err := codec.Encode(env, codec.FormatFromPath(args[1]))
		if err != nil {
			return err
		}
		if err := os.WriteFile(args[1], data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", args[1], err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().String("format", "yaml", "Output format when writing to stdout (json or yaml)")
}
