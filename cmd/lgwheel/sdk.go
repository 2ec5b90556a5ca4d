package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSDKCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sdk",
		Short: "Manage the VTK wheel SDK",
	}

	var pyVersion string
	cmd.PersistentFlags().StringVar(&pyVersion, "python-version", "", "target Python version, e.g. 3.9 (default: ask the interpreter)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "fetch",
			Short: "Download, verify and extract the SDK if it is not present",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := a.loadConfig(cmd.Context(), nil)
				if err != nil {
					return err
				}
				opts, err := a.sdkOptions(cmd.Context(), cfg, pyVersion)
				if err != nil {
					return err
				}
				mgr, err := a.sdkManager(cfg)
				if err != nil {
					return err
				}

				path, err := mgr.Ensure(cmd.Context(), opts)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print where the SDK is expected, without downloading",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := a.loadConfig(cmd.Context(), nil)
				if err != nil {
					return err
				}
				opts, err := a.sdkOptions(cmd.Context(), cfg, pyVersion)
				if err != nil {
					return err
				}
				mgr, err := a.sdkManager(cfg)
				if err != nil {
					return err
				}

				res, err := mgr.Resolve(opts)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), res.Path)
				if !res.Present {
					return &ExitError{Code: 2, Err: fmt.Errorf("SDK not present at %s", res.Path)}
				}
				return nil
			},
		},
	)
	return cmd
}
