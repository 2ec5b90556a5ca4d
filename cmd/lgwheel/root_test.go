package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/vtk-lookingglass/lgwheel/internal/config"
	"github.com/vtk-lookingglass/lgwheel/internal/platform"
	"github.com/vtk-lookingglass/lgwheel/internal/testutil"
)

const elfBytes = "\x7fELF\x02\x01\x01"

var linuxAMD64 = &platform.Info{OS: "linux", Arch: "amd64", ArchRaw: "x86_64", Distro: "ubuntu", Libc: platform.LibcGlibc}

// execute runs the command tree on a glibc linux/amd64 host and returns what
// it wrote to stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeOn(t, linuxAMD64, args...)
}

func executeOn(t *testing.T, info *platform.Info, args ...string) (string, error) {
	t.Helper()

	root := buildRootCmd(&app{detector: platform.StaticDetector{Info: info}})
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	if err != nil {
		t.Logf("stderr:\n%s", stderr.String())
	}
	return stdout.String(), err
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestVersionString(t *testing.T) {
	origVersion, origCommit := Version, Commit
	t.Cleanup(func() {
		Version, Commit = origVersion, origCommit
	})

	Version = "dev"
	if got := versionString(); got != "dev (built from source)" {
		t.Errorf("versionString() = %q", got)
	}

	Version, Commit = "1.2.0", "abc123"
	if got := versionString(); got != "1.2.0 (commit: abc123)" {
		t.Errorf("versionString() = %q", got)
	}
}

func TestExitError(t *testing.T) {
	inner := errors.New("boom")
	err := &ExitError{Code: 2, Err: inner}
	if err.Error() != "boom" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("ExitError should unwrap to its cause")
	}
	if got := (&ExitError{Code: 3}).Error(); got != "exit status 3" {
		t.Errorf("Error() without cause = %q", got)
	}
}

func TestRepairCommand(t *testing.T) {
	tmp := testutil.SetupTestEnv(t)

	install := filepath.Join(tmp, "install")
	mustWrite(t, filepath.Join(install, "build", "lib.linux", "vtkmodules", "libvtkRenderingLookingGlass.so"), elfBytes)
	t.Setenv(config.EnvSDKInstallPath, install)

	stub := testutil.WriteStub(t, tmp, "auditwheel",
		`cp "$2" "$4/vtk_lookingglass-1.0-cp39-cp39-manylinux2014_x86_64.whl"`+"\n")

	entries := map[string]string{
		"vtk_lookingglass/__init__.py":          "",
		"vtk_lookingglass-1.0.dist-info/RECORD": "vtk_lookingglass/__init__.py,,0\n",
	}
	input := filepath.Join(tmp, "vtk_lookingglass-1.0-cp39-cp39-linux_x86_64.whl")
	testutil.WriteWheel(t, input, entries)
	outDir := filepath.Join(tmp, "out")

	stdout, err := execute(t, "repair", "--tool", stub, input, outDir)
	if err != nil {
		t.Fatalf("repair: %v", err)
	}

	output := strings.TrimSpace(stdout)
	if filepath.Base(output) != "vtk_lookingglass-1.0-cp39-cp39-manylinux2014_x86_64.whl" {
		t.Fatalf("printed output = %q", output)
	}
	if got := testutil.ReadWheel(t, output); !reflect.DeepEqual(got, entries) {
		t.Errorf("repaired wheel contents = %v, want %v", testutil.Names(got), testutil.Names(entries))
	}

	listing, err := execute(t, "journal", "list")
	if err != nil {
		t.Fatalf("journal list: %v", err)
	}
	if !strings.Contains(listing, "completed") || !strings.Contains(listing, input) {
		t.Errorf("journal list output:\n%s", listing)
	}
}

func TestRepairCommandMissingInstallPath(t *testing.T) {
	tmp := testutil.SetupTestEnv(t)

	input := filepath.Join(tmp, "x-1.0-py3-none-any.whl")
	testutil.WriteWheel(t, input, map[string]string{"x-1.0.dist-info/RECORD": ""})

	_, err := execute(t, "repair", input, filepath.Join(tmp, "out"))
	if !errors.Is(err, config.ErrMissing) {
		t.Fatalf("expected config.ErrMissing, got %v", err)
	}
	var cfgErr *config.Error
	if !errors.As(err, &cfgErr) || cfgErr.Field != "sdk.install_path" {
		t.Errorf("expected sdk.install_path error, got %v", err)
	}
}

func TestRepairCommandArgs(t *testing.T) {
	testutil.SetupTestEnv(t)

	if _, err := execute(t, "repair", "only-one.whl"); err == nil {
		t.Fatal("expected an argument count error")
	}
}

func TestJournalListEmpty(t *testing.T) {
	testutil.SetupTestEnv(t)

	out, err := execute(t, "journal", "list")
	if err != nil {
		t.Fatalf("journal list: %v", err)
	}
	if strings.TrimSpace(out) != "no repairs recorded" {
		t.Errorf("output = %q", out)
	}
}

func TestPlanExplicitSDK(t *testing.T) {
	tmp := testutil.SetupTestEnv(t)

	sdkDir := filepath.Join(tmp, "sdk")
	if err := os.MkdirAll(sdkDir, 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv(config.EnvSDKPath, sdkDir)

	tests := []struct {
		format    string
		unmarshal func([]byte, interface{}) error
	}{
		{"yaml", yaml.Unmarshal},
		{"toml", toml.Unmarshal},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			out, err := execute(t, "plan", "--format", tt.format)
			if err != nil {
				t.Fatalf("plan: %v", err)
			}

			var p Plan
			if err := tt.unmarshal([]byte(out), &p); err != nil {
				t.Fatalf("parse plan: %v\n%s", err, out)
			}
			if p.SDK.Path != sdkDir || !p.SDK.Present || !p.SDK.Explicit {
				t.Errorf("SDK = %+v", p.SDK)
			}
			if p.Repair.Tool != config.DefaultRepairTool {
				t.Errorf("Repair.Tool = %q", p.Repair.Tool)
			}
			if p.Repair.LibraryGlob != config.DefaultLibraryGlob {
				t.Errorf("Repair.LibraryGlob = %q", p.Repair.LibraryGlob)
			}
			if p.StateDir != filepath.Join(tmp, "state") {
				t.Errorf("StateDir = %q", p.StateDir)
			}
		})
	}
}

func TestPlanDerivedSDK(t *testing.T) {
	tmp := testutil.SetupTestEnv(t)

	out, err := execute(t, "plan", "--python-version", "3.9")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	var p Plan
	if err := yaml.Unmarshal([]byte(out), &p); err != nil {
		t.Fatalf("parse plan: %v", err)
	}

	wantDir := "vtk-wheel-sdk-" + config.DefaultSDKVersion + "-cp39-cp39"
	if p.SDK.Path != filepath.Join(tmp, "deps", wantDir) {
		t.Errorf("SDK.Path = %q", p.SDK.Path)
	}
	if p.SDK.Present || p.SDK.Explicit {
		t.Errorf("SDK = %+v, want absent and derived", p.SDK)
	}
	if !strings.HasSuffix(p.SDK.URL, wantDir+"-manylinux_2_17_x86_64.manylinux2014_x86_64.tar.xz") {
		t.Errorf("SDK.URL = %q", p.SDK.URL)
	}
	if p.Platform != "linux/amd64" {
		t.Errorf("Platform = %q", p.Platform)
	}
	if p.Libc != platform.LibcGlibc {
		t.Errorf("Libc = %q", p.Libc)
	}
}

func TestPlanMuslHost(t *testing.T) {
	testutil.SetupTestEnv(t)

	musl := &platform.Info{OS: "linux", Arch: "amd64", ArchRaw: "amd64", Distro: "alpine", Libc: platform.LibcMusl}
	_, err := executeOn(t, musl, "plan", "--python-version", "3.9")
	if !errors.Is(err, platform.ErrUnsupportedPlatform) {
		t.Fatalf("expected ErrUnsupportedPlatform, got %v", err)
	}
}

func TestPlanUnknownFormat(t *testing.T) {
	tmp := testutil.SetupTestEnv(t)
	t.Setenv(config.EnvSDKPath, tmp)

	if _, err := execute(t, "plan", "--format", "json"); err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Fatalf("expected unknown format error, got %v", err)
	}
}

func TestSDKPath(t *testing.T) {
	tmp := testutil.SetupTestEnv(t)

	present := filepath.Join(tmp, "sdk")
	if err := os.MkdirAll(present, 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv(config.EnvSDKPath, present)

	out, err := execute(t, "sdk", "path")
	if err != nil {
		t.Fatalf("sdk path: %v", err)
	}
	if strings.TrimSpace(out) != present {
		t.Errorf("output = %q, want %q", out, present)
	}

	missing := filepath.Join(tmp, "missing")
	t.Setenv(config.EnvSDKPath, missing)

	out, err = execute(t, "sdk", "path")
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 2 {
		t.Fatalf("expected exit code 2, got %v", err)
	}
	if strings.TrimSpace(out) != missing {
		t.Errorf("output = %q, want %q", out, missing)
	}
}

func TestSDKFetchExplicitMissing(t *testing.T) {
	tmp := testutil.SetupTestEnv(t)
	t.Setenv(config.EnvSDKPath, filepath.Join(tmp, "missing"))

	_, err := execute(t, "sdk", "fetch")
	var cfgErr *config.Error
	if !errors.As(err, &cfgErr) || cfgErr.Field != "sdk.path" {
		t.Fatalf("expected sdk.path config error, got %v", err)
	}
}

func TestConfigureDryRun(t *testing.T) {
	tmp := testutil.SetupTestEnv(t)

	sdkDir := filepath.Join(tmp, "sdk")
	cmakeDir := filepath.Join(sdkDir, "vtk", "headers", "cmake")
	if err := os.MkdirAll(cmakeDir, 0o755); err != nil {
		t.Fatal(err)
	}
	extDir := filepath.Join(tmp, "VTKExternalModule")
	if err := os.MkdirAll(extDir, 0o755); err != nil {
		t.Fatal(err)
	}
	python := testutil.WriteStub(t, tmp, "python3", "echo 3.9\n")

	t.Setenv(config.EnvSDKPath, sdkDir)
	t.Setenv(config.EnvExternalModulePath, extDir)
	t.Setenv(config.EnvPythonExecutable, python)

	out, err := execute(t, "configure", "--dry-run", "--source", tmp, "--build-dir", filepath.Join(tmp, "build"))
	if err != nil {
		t.Fatalf("configure: %v", err)
	}

	for _, want := range []string{
		"-DVTK_DIR:PATH=" + cmakeDir,
		"-DPython3_EXECUTABLE:FILEPATH=" + python,
		"-S " + extDir,
		"-DVTK_USE_X:BOOL=ON",
		"-B " + filepath.Join(tmp, "build"),
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if _, err := os.Stat(filepath.Join(tmp, "build")); !os.IsNotExist(err) {
		t.Error("dry run should not create the build directory")
	}
}

func TestConfigureMissingExternalModule(t *testing.T) {
	tmp := testutil.SetupTestEnv(t)

	sdkDir := filepath.Join(tmp, "sdk")
	if err := os.MkdirAll(filepath.Join(sdkDir, "vtk", "headers", "cmake"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv(config.EnvSDKPath, sdkDir)
	t.Setenv(config.EnvExternalModulePath, filepath.Join(tmp, "nope"))
	t.Setenv(config.EnvPythonExecutable, testutil.WriteStub(t, tmp, "python3", "echo 3.9\n"))

	_, err := execute(t, "configure", "--dry-run")
	var cfgErr *config.Error
	if !errors.As(err, &cfgErr) || cfgErr.Field != "external_module.path" {
		t.Fatalf("expected external_module.path config error, got %v", err)
	}
}

func TestLoadConfigRejectsBadLogLevel(t *testing.T) {
	testutil.SetupTestEnv(t)
	t.Setenv("LGWHEEL_LOG_LEVEL", "chatty")

	if _, err := execute(t, "journal", "list"); err == nil || !strings.Contains(err.Error(), "log_level") {
		t.Fatalf("expected log level error, got %v", err)
	}
}

func TestConfigFile(t *testing.T) {
	tmp := testutil.SetupTestEnv(t)
	t.Setenv(config.EnvSDKPath, tmp)

	cfgPath := filepath.Join(tmp, "lgwheel.lua")
	mustWrite(t, cfgPath, `
lgwheel = {
	repair = {
		plat = platform.when(platform.is_linux, "manylinux2014_x86_64"),
	},
}
`)

	out, err := execute(t, "--config", cfgPath, "plan")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	var p Plan
	if err := yaml.Unmarshal([]byte(out), &p); err != nil {
		t.Fatalf("parse plan: %v", err)
	}
	if p.Repair.Plat != "manylinux2014_x86_64" {
		t.Errorf("Repair.Plat = %q", p.Repair.Plat)
	}
}

func TestConfigFileLuaError(t *testing.T) {
	tmp := testutil.SetupTestEnv(t)

	cfgPath := filepath.Join(tmp, "lgwheel.lua")
	mustWrite(t, cfgPath, "error('boom')\n")

	_, err := execute(t, "--config", cfgPath, "journal", "list")
	if err == nil {
		t.Fatal("expected a config error")
	}
	if !strings.Contains(err.Error(), cfgPath) || !strings.Contains(err.Error(), "boom") {
		t.Errorf("error = %q", err)
	}
	if strings.Contains(err.Error(), "stack traceback") {
		t.Errorf("non-verbose error should hide the traceback: %q", err)
	}
}
