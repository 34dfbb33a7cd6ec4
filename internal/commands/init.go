package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hmeicr/hmeicr/internal/config"
)

func newInitCommand(flags *globalFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := flags.resolveConfigPath()
			if err != nil {
				return err
			}
			return runInit(cmd.OutOrStdout(), path, flags.baseURL, flags.logLevel, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")

	return cmd
}

func runInit(out io.Writer, path, baseURL, logLevel string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking config: %w", err)
	}

	cfg := config.Default()
	if baseURL != "" {
		cfg.Server.BaseURL = baseURL
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := config.Save(path, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(out, "Wrote config to %s (server: %s)\n", path, cfg.Server.BaseURL)
	return nil
}
