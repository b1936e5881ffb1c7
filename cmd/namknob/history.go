package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrgeneko/namknob/internal/status"
	"github.com/mrgeneko/namknob/internal/telemetry"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int
	var all bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded export batches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			history, err := telemetry.OpenHistory(a.cfg.History.Path, a.logger)
			if err != nil {
				return err
			}
			defer history.Close()

			list := history.Batches
			if all {
				list = history.Events
			}
			events, err := list(limit)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No batches recorded.")
				return nil
			}

			status.NewReporter(cmd.OutOrStdout()).History(events)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show (0 for all)")
	cmd.Flags().BoolVar(&all, "events", false, "Show every recorded event, not just batch summaries")
	return cmd
}
