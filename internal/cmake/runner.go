package cmake

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/vtk-lookingglass/lgwheel/internal/config"
)

// Runner invokes cmake.
type Runner struct {
	bin    string
	stdout io.Writer
	stderr io.Writer
	logger config.Logger
}

// NewRunner creates a runner for the given cmake executable. Output is
// streamed to stdout and stderr.
func NewRunner(bin string, stdout, stderr io.Writer, logger config.Logger) *Runner {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &Runner{bin: bin, stdout: stdout, stderr: stderr, logger: config.OrNop(logger)}
}

// Configure runs `cmake <args> -B <buildDir>`.
func (r *Runner) Configure(ctx context.Context, args []string, buildDir string) error {
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		return fmt.Errorf("create build directory: %w", err)
	}

	full := append(append([]string(nil), args...), "-B", buildDir)
	r.logger.Debug("running cmake", "bin", r.bin, "args", full)

	cmd := exec.CommandContext(ctx, r.bin, full...)
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("cmake configure: %w", err)
	}
	return nil
}
