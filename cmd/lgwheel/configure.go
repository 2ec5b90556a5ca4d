package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vtk-lookingglass/lgwheel/internal/cmake"
	"github.com/vtk-lookingglass/lgwheel/internal/extmodule"
	"github.com/vtk-lookingglass/lgwheel/internal/sdk"
)

func newConfigureCmd(a *app) *cobra.Command {
	var sourceDir, buildDir, pyVersion string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Fetch the SDK and external module, then run the CMake configure step",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			overrides := map[string]interface{}{}
			if buildDir != "" {
				overrides["build.dir"] = buildDir
			}
			cfg, err := a.loadConfig(ctx, overrides)
			if err != nil {
				return err
			}

			python, err := cmake.FindPython(cfg.Python.Executable)
			if err != nil {
				return err
			}
			if pyVersion == "" {
				if pyVersion, err = cmake.PythonVersion(ctx, python); err != nil {
					return err
				}
			}

			opts, err := a.sdkOptions(ctx, cfg, pyVersion)
			if err != nil {
				return err
			}
			mgr, err := a.sdkManager(cfg)
			if err != nil {
				return err
			}
			sdkPath, err := mgr.Ensure(ctx, opts)
			if err != nil {
				return err
			}
			cmakeDir, err := sdk.FindCMakeDir(sdkPath)
			if err != nil {
				return err
			}

			checkout, err := extmodule.Ensure(ctx, extmodule.Options{
				Path:    cfg.ExternalModule.Path,
				DepsDir: cfg.DepsDir,
				URL:     cfg.ExternalModule.URL,
				Ref:     cfg.ExternalModule.Ref,
				Depth:   1,
			}, a.logger)
			if err != nil {
				return err
			}

			info, err := a.detector.Detect(ctx)
			if err != nil {
				return fmt.Errorf("detect platform: %w", err)
			}

			src, err := filepath.Abs(sourceDir)
			if err != nil {
				return fmt.Errorf("resolve source dir: %w", err)
			}
			cmakeArgs, err := cmake.Args(cmake.Inputs{
				SourceDir:      src,
				CMakeDir:       cmakeDir,
				ExternalModule: checkout.Path,
				Python:         python,
				Platform:       info,
				ExtraArgs:      cfg.Build.ExtraArgs,
			})
			if err != nil {
				return err
			}

			if dryRun {
				line := append(append([]string{cfg.Build.CMake}, cmakeArgs...), "-B", cfg.Build.Dir)
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(line, " "))
				return nil
			}
			return cmake.NewRunner(cfg.Build.CMake, cmd.OutOrStdout(), cmd.ErrOrStderr(), a.logger).
				Configure(ctx, cmakeArgs, cfg.Build.Dir)
		},
	}

	cmd.Flags().StringVar(&sourceDir, "source", ".", "source directory containing setup.py")
	cmd.Flags().StringVar(&buildDir, "build-dir", "", "CMake build directory (default build)")
	cmd.Flags().StringVar(&pyVersion, "python-version", "", "target Python version (default: ask the interpreter)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the cmake command instead of running it")
	return cmd
}
