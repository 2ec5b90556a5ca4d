package config

import (
	"errors"
	"fmt"
	"strings"
)

// Config is the resolved lgwheel configuration.
type Config struct {
	SDK            SDKConfig            `mapstructure:"sdk" yaml:"sdk" toml:"sdk"`
	Repair         RepairConfig         `mapstructure:"repair" yaml:"repair" toml:"repair"`
	ExternalModule ExternalModuleConfig `mapstructure:"external_module" yaml:"external_module" toml:"external_module"`
	Python         PythonConfig         `mapstructure:"python" yaml:"python" toml:"python"`
	Build          BuildConfig          `mapstructure:"build" yaml:"build" toml:"build"`

	// StateDir holds repair journals.
	StateDir string `mapstructure:"state_dir" yaml:"state_dir" toml:"state_dir"`
	// DepsDir is where downloaded SDKs and checkouts are kept.
	DepsDir  string `mapstructure:"deps_dir" yaml:"deps_dir" toml:"deps_dir"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level" toml:"log_level"`
}

// SDKConfig locates the VTK wheel SDK.
type SDKConfig struct {
	// InstallPath is the built SDK tree whose shared libraries are injected
	// into wheels during repair (VTK_WHEEL_SDK_INSTALL_PATH).
	InstallPath string `mapstructure:"install_path" yaml:"install_path" toml:"install_path"`
	// Path is an already unpacked SDK used for builds (VTK_WHEEL_SDK_PATH).
	// When empty the SDK is downloaded.
	Path        string `mapstructure:"path" yaml:"path" toml:"path"`
	Version     string `mapstructure:"version" yaml:"version" toml:"version"`
	BaseURL     string `mapstructure:"base_url" yaml:"base_url" toml:"base_url"`
	LibraryGlob string `mapstructure:"library_glob" yaml:"library_glob" toml:"library_glob"`
	// KeyringPath enables OpenPGP verification of downloaded SDK archives.
	KeyringPath string `mapstructure:"keyring_path" yaml:"keyring_path" toml:"keyring_path"`
}

// RepairConfig configures the wheel repair tool.
type RepairConfig struct {
	Tool       string `mapstructure:"tool" yaml:"tool" toml:"tool"`
	Plat       string `mapstructure:"plat" yaml:"plat" toml:"plat"`
	LibraryDir string `mapstructure:"library_dir" yaml:"library_dir" toml:"library_dir"`
}

// ExternalModuleConfig locates the VTKExternalModule project.
type ExternalModuleConfig struct {
	Path string `mapstructure:"path" yaml:"path" toml:"path"`
	URL  string `mapstructure:"url" yaml:"url" toml:"url"`
	Ref  string `mapstructure:"ref" yaml:"ref" toml:"ref"`
}

// PythonConfig selects the Python interpreter the module is built against.
type PythonConfig struct {
	Executable string `mapstructure:"executable" yaml:"executable" toml:"executable"`
}

// BuildConfig controls the CMake configure step.
type BuildConfig struct {
	Dir       string `mapstructure:"dir" yaml:"dir" toml:"dir"`
	CMake     string `mapstructure:"cmake" yaml:"cmake" toml:"cmake"`
	ExtraArgs string `mapstructure:"extra_args" yaml:"extra_args" toml:"extra_args"`
}

// ErrMissing is matched by every *Error.
var ErrMissing = errors.New("missing required configuration")

// Error reports a required configuration value that is absent.
type Error struct {
	Field  string // config key, e.g. "sdk.install_path"
	Env    string // environment variable that sets it, if any
	Reason string // optional detail
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "configuration error: %s", e.Field)
	if e.Reason != "" {
		fmt.Fprintf(&b, " %s", e.Reason)
	} else {
		b.WriteString(" must be set")
	}
	if e.Env != "" {
		fmt.Fprintf(&b, " (set %s)", e.Env)
	}
	return b.String()
}

// Unwrap lets errors.Is match ErrMissing.
func (e *Error) Unwrap() error {
	return ErrMissing
}

// RequireRepair checks the fields the repair pipeline cannot run without.
func (c *Config) RequireRepair() error {
	required := []struct {
		value string
		field string
		env   string
	}{
		{c.SDK.InstallPath, "sdk.install_path", EnvSDKInstallPath},
		{c.SDK.LibraryGlob, "sdk.library_glob", ""},
		{c.Repair.Tool, "repair.tool", ""},
		{c.Repair.LibraryDir, "repair.library_dir", ""},
	}

	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &Error{Field: r.field, Env: r.env}
		}
	}
	return nil
}
