package main

import (
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vtk-lookingglass/lgwheel/internal/config"
	"github.com/vtk-lookingglass/lgwheel/internal/sdk"
)

// Plan is the resolved set of build inputs.
type Plan struct {
	Platform       string             `yaml:"platform,omitempty" toml:"platform,omitempty"`
	Libc           string             `yaml:"libc,omitempty" toml:"libc,omitempty"`
	SDK            PlanSDK            `yaml:"sdk" toml:"sdk"`
	ExternalModule PlanExtModule      `yaml:"external_module" toml:"external_module"`
	Repair         PlanRepair         `yaml:"repair" toml:"repair"`
	Build          config.BuildConfig `yaml:"build" toml:"build"`
	StateDir       string             `yaml:"state_dir" toml:"state_dir"`
}

// PlanSDK describes where the SDK comes from and whether it is present.
type PlanSDK struct {
	Version  string `yaml:"version,omitempty" toml:"version,omitempty"`
	Path     string `yaml:"path" toml:"path"`
	Present  bool   `yaml:"present" toml:"present"`
	Explicit bool   `yaml:"explicit" toml:"explicit"`
	URL      string `yaml:"url,omitempty" toml:"url,omitempty"`
}

// PlanExtModule describes the external module checkout.
type PlanExtModule struct {
	Path string `yaml:"path,omitempty" toml:"path,omitempty"`
	URL  string `yaml:"url" toml:"url"`
	Ref  string `yaml:"ref,omitempty" toml:"ref,omitempty"`
}

// PlanRepair describes the repair step inputs.
type PlanRepair struct {
	Tool        string `yaml:"tool" toml:"tool"`
	Plat        string `yaml:"plat,omitempty" toml:"plat,omitempty"`
	LibraryDir  string `yaml:"library_dir" toml:"library_dir"`
	InstallPath string `yaml:"install_path,omitempty" toml:"install_path,omitempty"`
	LibraryGlob string `yaml:"library_glob" toml:"library_glob"`
}

func newPlanCmd(a *app) *cobra.Command {
	var format, pyVersion string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the resolved build inputs without changing anything",
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

			return writePlan(cmd.OutOrStdout(), format, buildPlan(cfg, opts, res))
		},
	}

	cmd.Flags().StringVar(&format, "format", "yaml", "output format: yaml or toml")
	cmd.Flags().StringVar(&pyVersion, "python-version", "", "target Python version (default: ask the interpreter)")
	return cmd
}

func buildPlan(cfg *config.Config, opts sdk.EnsureOptions, res *sdk.Resolution) *Plan {
	p := &Plan{
		SDK: PlanSDK{
			Path:     res.Path,
			Present:  res.Present,
			Explicit: res.Explicit,
		},
		ExternalModule: PlanExtModule{
			Path: cfg.ExternalModule.Path,
			URL:  cfg.ExternalModule.URL,
			Ref:  cfg.ExternalModule.Ref,
		},
		Repair: PlanRepair{
			Tool:        cfg.Repair.Tool,
			Plat:        cfg.Repair.Plat,
			LibraryDir:  cfg.Repair.LibraryDir,
			InstallPath: cfg.SDK.InstallPath,
			LibraryGlob: cfg.SDK.LibraryGlob,
		},
		Build:    cfg.Build,
		StateDir: cfg.StateDir,
	}
	if res.Info != nil {
		p.SDK.Version = res.Info.Version
		p.SDK.URL = res.Info.URL
	}
	if opts.Platform != nil {
		p.Platform = opts.Platform.OS + "/" + opts.Platform.Arch
		p.Libc = opts.Platform.Libc
	}
	return p
}

func writePlan(w io.Writer, format string, p *Plan) error {
	switch format {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("encode plan: %w", err)
		}
		return enc.Close()
	case "toml":
		if err := toml.NewEncoder(w).Encode(p); err != nil {
			return fmt.Errorf("encode plan: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q (want yaml or toml)", format)
	}
}
