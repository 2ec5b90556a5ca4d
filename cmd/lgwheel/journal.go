package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vtk-lookingglass/lgwheel/internal/journal"
)

func newJournalCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect repair journals",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List recorded repairs, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd.Context(), nil)
			if err != nil {
				return err
			}
			records, err := journal.List(cfg.StateDir)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no repairs recorded")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTIME\tSTATUS\tWHEEL\tOUTPUT")
			for _, rec := range records {
				status := "failed"
				if rec.Completed() {
					status = "completed"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					rec.ID, rec.Timestamp.Format("2006-01-02 15:04:05"), status, rec.Wheel, rec.Output)
			}
			return tw.Flush()
		},
	})
	return cmd
}
