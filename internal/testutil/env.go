// Package testutil provides helpers for running lgwheel tests in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// SetupTestEnv points every lgwheel location at a fresh temp directory and
// clears the build-script variables inherited from the host. It returns the
// temp root.
func SetupTestEnv(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()

	t.Setenv("LGWHEEL_STATE_DIR", filepath.Join(tmpDir, "state"))
	t.Setenv("LGWHEEL_DEPS_DIR", filepath.Join(tmpDir, "deps"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(tmpDir, "cache"))

	for _, env := range []string{
		"VTK_WHEEL_SDK_INSTALL_PATH",
		"VTK_WHEEL_SDK_PATH",
		"VTK_WHEEL_SDK_VERSION",
		"VTK_EXTERNAL_MODULE_PATH",
		"Python3_EXECUTABLE",
	} {
		t.Setenv(env, "")
	}

	for _, dir := range []string{"state", "deps", "config", "cache"} {
		if err := os.MkdirAll(filepath.Join(tmpDir, dir), 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}

	return tmpDir
}

// WriteStub writes an executable shell script named name into dir and
// returns its path. Tests using it are skipped on Windows.
func WriteStub(t *testing.T, dir, name, script string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("shell stubs are not supported on Windows")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create stub dir: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("cannot create stub %s: %v", name, err)
	}
	return path
}
