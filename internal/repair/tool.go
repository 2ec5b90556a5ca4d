package repair

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/vtk-lookingglass/lgwheel/internal/wheel"
)

// Tool runs a wheel repair and returns the path of the single wheel it wrote
// into outputDir.
type Tool interface {
	Repair(ctx context.Context, wheelPath, outputDir string) (string, error)
}

// Locator is implemented by tools that can check they are runnable before
// any work starts.
type Locator interface {
	Locate() (string, error)
}

// ToolError is a non-zero exit of the repair tool. Output is the tool's
// combined stdout and stderr, unmodified.
type ToolError struct {
	Tool   string
	Output string
	Err    error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\n" + out
	}
	return msg
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// passthroughEnv lists the variables the tool sees besides the basic
// session ones. auditwheel resolves external libraries through
// LD_LIBRARY_PATH and runs inside whatever Python environment is active.
var passthroughEnv = []string{
	"LD_LIBRARY_PATH",
	"PYTHONPATH",
	"VIRTUAL_ENV",
	"TMPDIR",
}

// Auditwheel runs `auditwheel repair`.
type Auditwheel struct {
	bin  string
	plat string
}

// NewAuditwheel returns a client for the given executable. An empty plat
// lets auditwheel choose the platform tag.
func NewAuditwheel(bin, plat string) *Auditwheel {
	return &Auditwheel{bin: bin, plat: plat}
}

// Locate resolves the executable on PATH.
func (a *Auditwheel) Locate() (string, error) {
	return exec.LookPath(a.bin)
}

// Args returns the command line arguments for one repair.
func (a *Auditwheel) Args(wheelPath, outputDir string) []string {
	args := []string{"repair", wheelPath, "-w", outputDir}
	if a.plat != "" {
		args = append(args, "--plat", a.plat)
	}
	return args
}

// Repair runs the tool and locates its result.
func (a *Auditwheel) Repair(ctx context.Context, wheelPath, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	cmd := exec.CommandContext(ctx, a.bin, a.Args(wheelPath, outputDir)...)
	cmd.Env = toolEnv()

	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", &ToolError{Tool: filepath.Base(a.bin), Output: string(out), Err: err}
	}

	return FindResult(outputDir)
}

func toolEnv() []string {
	env := []string{
		"HOME=" + os.Getenv("HOME"),
		"PATH=" + os.Getenv("PATH"),
		"USER=" + os.Getenv("USER"),
		"LANG=" + os.Getenv("LANG"),
	}
	for _, key := range passthroughEnv {
		if value, ok := os.LookupEnv(key); ok {
			env = append(env, key+"="+value)
		}
	}
	return env
}

// FindResult returns the single *.whl in outputDir.
func FindResult(outputDir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(outputDir, "*.whl"))
	if err != nil {
		return "", fmt.Errorf("search %s: %w", outputDir, err)
	}
	if len(matches) != 1 {
		return "", &wheel.PreconditionError{
			What:  "repaired wheel",
			Where: outputDir,
			Count: len(matches),
			Err:   ErrOutputCount,
		}
	}
	return matches[0], nil
}
