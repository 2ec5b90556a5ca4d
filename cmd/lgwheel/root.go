package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vtk-lookingglass/lgwheel/internal/cmake"
	"github.com/vtk-lookingglass/lgwheel/internal/config"
	"github.com/vtk-lookingglass/lgwheel/internal/platform"
	"github.com/vtk-lookingglass/lgwheel/internal/sdk"
)

// app holds state shared by every subcommand of one invocation.
type app struct {
	cfgFile  string
	verbose  bool
	detector platform.Detector
	logger   *log.Logger
}

func newRootCmd() *cobra.Command {
	return buildRootCmd(&app{detector: platform.NewDetector()})
}

func buildRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "lgwheel",
		Short: "Build and repair VTK Looking Glass wheels",
		Long: `lgwheel prepares the inputs of the VTK Looking Glass wheel build and
retags the built wheels for distribution.

Examples:
  lgwheel plan                       Show the resolved build inputs
  lgwheel sdk fetch                  Download the VTK wheel SDK
  lgwheel configure                  Run the CMake configure step
  lgwheel repair dist/x.whl out/     Retag a wheel without changing its contents`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.logger = newLogger(cmd.ErrOrStderr(), a.verbose)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "Lua config file (default ./lgwheel.lua)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newRepairCmd(a),
		newSDKCmd(a),
		newPlanCmd(a),
		newConfigureCmd(a),
		newJournalCmd(a),
	)
	return root
}

func newLogger(w io.Writer, verbose bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{Prefix: config.AppName})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// loadConfig resolves configuration and applies its log level unless
// --verbose already raised it.
func (a *app) loadConfig(ctx context.Context, overrides map[string]interface{}) (*config.Config, error) {
	cfg, path, err := config.Load(ctx, config.LoadOptions{
		ConfigFile: a.cfgFile,
		Detector:   a.detector,
		Overrides:  overrides,
	})
	if err != nil {
		var parseErr *config.ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("%s: %s", a.cfgFileOr(path), config.FormatError(parseErr, a.verbose))
		}
		return nil, err
	}

	if a.logger == nil {
		a.logger = newLogger(io.Discard, false)
	}
	if !a.verbose {
		level, err := log.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid log_level %q: %w", cfg.LogLevel, err)
		}
		a.logger.SetLevel(level)
	}
	if path != "" {
		a.logger.Debug("loaded config", "path", path)
	}
	return cfg, nil
}

func (a *app) cfgFileOr(path string) string {
	if path != "" {
		return path
	}
	if a.cfgFile != "" {
		return a.cfgFile
	}
	return config.DefaultConfigFileName
}

// sdkOptions builds the SDK lookup for the host platform. An empty
// pyVersion is asked of the configured interpreter.
func (a *app) sdkOptions(ctx context.Context, cfg *config.Config, pyVersion string) (sdk.EnsureOptions, error) {
	opts := sdk.EnsureOptions{
		Path:    cfg.SDK.Path,
		Version: cfg.SDK.Version,
		BaseURL: cfg.SDK.BaseURL,
	}
	if opts.Path != "" {
		return opts, nil
	}

	info, err := a.detector.Detect(ctx)
	if err != nil {
		return opts, fmt.Errorf("detect platform: %w", err)
	}
	opts.Platform = info

	if pyVersion == "" {
		python, err := cmake.FindPython(cfg.Python.Executable)
		if err != nil {
			return opts, err
		}
		if pyVersion, err = cmake.PythonVersion(ctx, python); err != nil {
			return opts, err
		}
	}
	opts.PythonVersion = pyVersion
	return opts, nil
}

func (a *app) sdkManager(cfg *config.Config) (*sdk.Manager, error) {
	return sdk.NewManager(sdk.ManagerConfig{
		DepsDir:     cfg.DepsDir,
		KeyringPath: cfg.SDK.KeyringPath,
		Logger:      a.logger,
	})
}
