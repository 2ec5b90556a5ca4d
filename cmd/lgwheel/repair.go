package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vtk-lookingglass/lgwheel/internal/repair"
)

func newRepairCmd(a *app) *cobra.Command {
	var plat, tool string

	cmd := &cobra.Command{
		Use:   "repair <wheel> <output-dir>",
		Short: "Retag a wheel with the repair tool without changing its contents",
		Long: `Inject the Looking Glass libraries into a copy of the wheel, run the
repair tool on it, then remove everything the tool added and restore the
original RECORD. The wheel given on the command line is never modified.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := map[string]interface{}{}
			if plat != "" {
				overrides["repair.plat"] = plat
			}
			if tool != "" {
				overrides["repair.tool"] = tool
			}

			cfg, err := a.loadConfig(cmd.Context(), overrides)
			if err != nil {
				return err
			}

			res, err := repair.NewRepairer(cfg, nil, a.logger).Repair(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			a.logger.Info("wheel repaired",
				"injected", len(res.Injected),
				"removed", len(res.Removed),
				"journal", res.JournalID)
			fmt.Fprintln(cmd.OutOrStdout(), res.Output)
			return nil
		},
	}

	cmd.Flags().StringVar(&plat, "plat", "", "platform tag passed to the repair tool")
	cmd.Flags().StringVar(&tool, "tool", "", "repair tool executable (default auditwheel)")
	return cmd
}
