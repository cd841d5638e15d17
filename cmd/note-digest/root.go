package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	envFile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "note-digest",
		Short: "Emails summaries of recently changed notebook pages",
		Long: `note-digest polls a notebook service (OneNote or Google Docs) for
recently modified pages, summarizes each one with a language model and
sends a single digest per cycle.

Running without a subcommand is the same as "note-digest run".`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnvFile(opts.envFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoop(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}
	cmd.SetVersionTemplate(`{{printf "note-digest version %s\n" .Version}}`)
	cmd.Version = version

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "config.yaml", "path to config file")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the config; ignored when missing")

	cmd.AddCommand(newRunCmd(opts))
	cmd.AddCommand(newOnceCmd(opts))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// loadEnvFile populates the environment from path without overriding
// variables that are already set.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "note-digest version %s\n", version)
		},
	}
}
