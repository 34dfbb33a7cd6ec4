package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/hmeicr/hmeicr/internal/auditlog"
)

func newHistoryCommand(flags *globalFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the local audit log of account and receipt events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := flags.resolveConfigPath()
			if err != nil {
				return err
			}
			return runHistory(cmd.OutOrStdout(), auditPath(path), limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show only the last n events (0 for all)")

	return cmd
}

func runHistory(out io.Writer, path string, limit int) error {
	entries, err := auditlog.Read(path)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No events recorded.")
		return nil
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	for _, e := range entries {
		line := fmt.Sprintf("%s  %-16s  %-7s  %s", e.Timestamp.Local().Format(time.DateTime), e.Event, e.Status, e.Email)
		if e.Details != "" {
			line += "  " + e.Details
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
