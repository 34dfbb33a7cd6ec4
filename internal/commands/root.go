package commands

import (
	"github.com/spf13/cobra"

	"github.com/hmeicr/hmeicr/internal/buildinfo"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	baseURL    string
	logLevel   string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:     "hmeicr",
		Short:   "Receipts and e-invoice client",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default: <user config dir>/hmeicr/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flags.baseURL, "base-url", "", "backend base URL, overrides config and environment")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(
		newInitCommand(&flags),
		newShellCommand(&flags),
		newThemeCommand(&flags),
		newHistoryCommand(&flags),
	)

	return rootCmd
}
