// Package extmodule provides the VTKExternalModule checkout that drives the
// standalone CMake build of the Looking Glass module.
package extmodule

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/vtk-lookingglass/lgwheel/internal/config"
)

// DirName is the checkout directory created below the deps directory.
const DirName = "VTKExternalModule"

// ErrNotARepo means the checkout directory exists but is not a git
// repository.
var ErrNotARepo = errors.New("not a git repository")

// Options selects the checkout.
type Options struct {
	// Path is an existing checkout used as is.
	Path    string
	DepsDir string
	URL     string
	// Ref is a branch name or a full reference; empty means the remote HEAD.
	Ref string
	// Depth limits the clone history; 0 clones everything.
	Depth int
}

// Checkout describes the module source in use.
type Checkout struct {
	Path   string
	Head   string
	Cloned bool
}

// Ensure returns a usable checkout, cloning it when needed.
func Ensure(ctx context.Context, opts Options, logger config.Logger) (*Checkout, error) {
	logger = config.OrNop(logger)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	if opts.Path != "" {
		info, err := os.Stat(opts.Path)
		if err != nil || !info.IsDir() {
			return nil, &config.Error{
				Field:  "external_module.path",
				Env:    config.EnvExternalModulePath,
				Reason: fmt.Sprintf("%s is not a directory", opts.Path),
			}
		}
		return &Checkout{Path: opts.Path}, nil
	}

	if opts.DepsDir == "" {
		return nil, fmt.Errorf("deps directory is required")
	}
	target := filepath.Join(opts.DepsDir, DirName)

	if _, err := os.Stat(target); err == nil {
		repo, err := gogit.PlainOpen(target)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", target, ErrNotARepo)
		}
		logger.Debug("using existing checkout", "path", target)
		return &Checkout{Path: target, Head: head(repo)}, nil
	}

	if opts.URL == "" {
		return nil, &config.Error{Field: "external_module.url"}
	}

	cloneOpts := &gogit.CloneOptions{
		URL:   opts.URL,
		Depth: opts.Depth,
	}
	if opts.Ref != "" {
		cloneOpts.ReferenceName = referenceName(opts.Ref)
		cloneOpts.SingleBranch = true
	}

	logger.Info("cloning external module", "url", opts.URL, "ref", opts.Ref)
	repo, err := gogit.PlainCloneContext(ctx, target, false, cloneOpts)
	if err != nil {
		_ = os.RemoveAll(target)
		return nil, fmt.Errorf("clone %s: %w", opts.URL, err)
	}

	return &Checkout{Path: target, Head: head(repo), Cloned: true}, nil
}

func referenceName(ref string) plumbing.ReferenceName {
	if strings.HasPrefix(ref, "refs/") {
		return plumbing.ReferenceName(ref)
	}
	return plumbing.NewBranchReferenceName(ref)
}

func head(repo *gogit.Repository) string {
	ref, err := repo.Head()
	if err != nil {
		return ""
	}
	return ref.Hash().String()
}
