package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"github.com/vtk-lookingglass/lgwheel/internal/platform"
)

// LoadOptions controls where configuration comes from.
type LoadOptions struct {
	// ConfigFile is an explicit Lua config path. It must exist when set.
	ConfigFile string
	// SearchDirs are checked in order for lgwheel.lua when ConfigFile is
	// empty. Defaults to the working directory and the user config dir.
	SearchDirs []string
	// Detector feeds the Lua platform table. Nil disables it.
	Detector platform.Detector
	// Overrides are applied last, keyed like "repair.plat".
	Overrides map[string]interface{}
}

// Load resolves configuration from defaults, the Lua file, the environment
// and overrides. The returned path is the config file used, if any.
func Load(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", fmt.Errorf("load config canceled: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, "", err
	}

	path, err := resolveConfigFile(opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		values, err := NewParser(opts.Detector).ParseFile(ctx, path)
		if err != nil {
			return nil, "", fmt.Errorf("load %s: %w", path, err)
		}
		if err := v.MergeConfigMap(values); err != nil {
			return nil, "", fmt.Errorf("merge %s: %w", path, err)
		}
	}

	for key, value := range opts.Overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, "", err
	}

	return &cfg, path, nil
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		SDK: SDKConfig{
			Version:     DefaultSDKVersion,
			BaseURL:     DefaultSDKBaseURL,
			LibraryGlob: DefaultLibraryGlob,
		},
		Repair: RepairConfig{
			Tool:       DefaultRepairTool,
			LibraryDir: DefaultLibraryDir,
		},
		ExternalModule: ExternalModuleConfig{
			URL: DefaultExternalModule,
		},
		Build: BuildConfig{
			Dir:   DefaultBuildDir,
			CMake: DefaultCMake,
		},
		StateDir: defaultStateDir(),
		DepsDir:  DefaultDepsDir,
		LogLevel: DefaultLogLevel,
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("sdk.install_path", "")
	v.SetDefault("sdk.path", "")
	v.SetDefault("sdk.version", d.SDK.Version)
	v.SetDefault("sdk.base_url", d.SDK.BaseURL)
	v.SetDefault("sdk.library_glob", d.SDK.LibraryGlob)
	v.SetDefault("sdk.keyring_path", "")
	v.SetDefault("repair.tool", d.Repair.Tool)
	v.SetDefault("repair.plat", "")
	v.SetDefault("repair.library_dir", d.Repair.LibraryDir)
	v.SetDefault("external_module.path", "")
	v.SetDefault("external_module.url", d.ExternalModule.URL)
	v.SetDefault("external_module.ref", "")
	v.SetDefault("python.executable", "")
	v.SetDefault("build.dir", d.Build.Dir)
	v.SetDefault("build.cmake", d.Build.CMake)
	v.SetDefault("build.extra_args", "")
	v.SetDefault("state_dir", d.StateDir)
	v.SetDefault("deps_dir", d.DepsDir)
	v.SetDefault("log_level", d.LogLevel)
}

// bindEnv wires the legacy variable names plus LGWHEEL_* for every key.
func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	legacy := map[string]string{
		"sdk.install_path":     EnvSDKInstallPath,
		"sdk.path":             EnvSDKPath,
		"sdk.version":          EnvSDKVersion,
		"external_module.path": EnvExternalModulePath,
		"python.executable":    EnvPythonExecutable,
	}
	for key, env := range legacy {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return fmt.Errorf("bind %s: %w", env, err)
		}
	}
	return nil
}

func resolveConfigFile(opts LoadOptions) (string, error) {
	if opts.ConfigFile != "" {
		path, err := homedir.Expand(opts.ConfigFile)
		if err != nil {
			return "", fmt.Errorf("expand config path: %w", err)
		}
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("config file not found: %s", path)
		}
		return path, nil
	}

	dirs := opts.SearchDirs
	if dirs == nil {
		dirs = defaultSearchDirs()
	}
	for _, dir := range dirs {
		candidate := filepath.Join(dir, DefaultConfigFileName)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, nil
		}
	}
	return "", nil
}

func defaultSearchDirs() []string {
	dirs := []string{"."}
	if cfgDir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(cfgDir, AppName))
	}
	return dirs
}

func defaultStateDir() string {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), AppName, "journal")
	}
	return filepath.Join(cacheDir, AppName, "journal")
}

// expandPaths resolves a leading ~ in every path-valued field.
func (c *Config) expandPaths() error {
	fields := []*string{
		&c.SDK.InstallPath,
		&c.SDK.Path,
		&c.SDK.KeyringPath,
		&c.ExternalModule.Path,
		&c.Python.Executable,
		&c.Build.Dir,
		&c.StateDir,
		&c.DepsDir,
	}
	for _, f := range fields {
		if *f == "" {
			continue
		}
		expanded, err := homedir.Expand(*f)
		if err != nil {
			return fmt.Errorf("expand path %q: %w", *f, err)
		}
		*f = expanded
	}
	return nil
}
