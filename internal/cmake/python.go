package cmake

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/vtk-lookingglass/lgwheel/internal/config"
)

var versionPattern = regexp.MustCompile(`^\d+\.\d+$`)

// FindPython resolves the interpreter: explicit when set, otherwise the
// first of python3 and python on PATH.
func FindPython(explicit string) (string, error) {
	if explicit != "" {
		path, err := exec.LookPath(explicit)
		if err != nil {
			return "", &config.Error{
				Field:  "python.executable",
				Env:    config.EnvPythonExecutable,
				Reason: fmt.Sprintf("%q is not runnable: %v", explicit, err),
			}
		}
		return path, nil
	}

	for _, name := range []string{"python3", "python"} {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", &config.Error{Field: "python.executable", Env: config.EnvPythonExecutable, Reason: "not set and no python on PATH"}
}

// PythonVersion asks the interpreter for its major.minor version.
func PythonVersion(ctx context.Context, python string) (string, error) {
	cmd := exec.CommandContext(ctx, python, "-c", "import sys; print('%d.%d' % sys.version_info[:2])")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("query python version: %w", err)
	}

	version := strings.TrimSpace(string(out))
	if !versionPattern.MatchString(version) {
		return "", fmt.Errorf("unexpected python version output %q", version)
	}
	return version, nil
}
