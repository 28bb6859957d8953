package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pageindex/internal/config"
	"pageindex/internal/logging"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file to the workspace",
		Long: `Writes the built-in defaults to --config (default:
<workspace>/` + config.DefaultFileName + `) so they can be edited. Environment
overrides such as GEMINI_API_KEY are not written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(configPath); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to check %s: %w", configPath, err)
			}

			if err := config.DefaultConfig().Save(configPath); err != nil {
				return err
			}
			logging.Boot("wrote default config to %s", configPath)
			fmt.Fprintf(cmd.OutOrStdout(), "Config written to: %s\n", configPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}
