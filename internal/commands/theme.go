package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hmeicr/hmeicr/internal/config"
)

func newThemeCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [light|dark|toggle]",
		Short:     "Show or change the theme preference",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{config.ThemeLight, config.ThemeDark, "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := flags.loadConfig()
			if err != nil {
				return err
			}
			tf := &themeFile{path: path, current: cfg.UI.Theme}

			switch {
			case len(args) == 0:
			case args[0] == "toggle":
				if _, err := tf.ToggleTheme(); err != nil {
					return fmt.Errorf("saving theme: %w", err)
				}
			default:
				if err := tf.set(args[0]); err != nil {
					return fmt.Errorf("saving theme: %w", err)
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), tf.Theme())
			return nil
		},
	}
}
