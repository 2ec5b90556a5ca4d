package extmodule

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/vtk-lookingglass/lgwheel/internal/config"
)

// sourceRepo creates a repository with one commit and returns its path and
// commit hash.
func sourceRepo(t *testing.T) (string, string) {
	t.Helper()

	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "CMakeLists.txt"), []byte("cmake_minimum_required(VERSION 3.12)\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Add("CMakeLists.txt"); err != nil {
		t.Fatal(err)
	}
	hash, err := wt.Commit("Initial commit", &gogit.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	return dir, hash.String()
}

func TestEnsureClones(t *testing.T) {
	src, hash := sourceRepo(t)
	deps := t.TempDir()

	co, err := Ensure(context.Background(), Options{DepsDir: deps, URL: src}, nil)
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if !co.Cloned || co.Head != hash {
		t.Errorf("Ensure() = %+v, want clone at %s", co, hash)
	}
	if _, err := os.Stat(filepath.Join(deps, DirName, "CMakeLists.txt")); err != nil {
		t.Errorf("checkout missing file: %v", err)
	}

	again, err := Ensure(context.Background(), Options{DepsDir: deps, URL: "unused"}, nil)
	if err != nil {
		t.Fatalf("second Ensure() error = %v", err)
	}
	if again.Cloned || again.Head != hash {
		t.Errorf("second Ensure() = %+v, want reuse", again)
	}
}

func TestEnsureExplicitPath(t *testing.T) {
	dir := t.TempDir()

	co, err := Ensure(context.Background(), Options{Path: dir}, nil)
	if err != nil || co.Path != dir || co.Cloned {
		t.Errorf("Ensure() = %+v, %v", co, err)
	}

	_, err = Ensure(context.Background(), Options{Path: filepath.Join(dir, "missing")}, nil)
	var cfgErr *config.Error
	if !errors.As(err, &cfgErr) || cfgErr.Env != config.EnvExternalModulePath {
		t.Errorf("Ensure() error = %v, want external module config error", err)
	}
}

func TestEnsureErrors(t *testing.T) {
	t.Run("existing non repository", func(t *testing.T) {
		deps := t.TempDir()
		if err := os.MkdirAll(filepath.Join(deps, DirName), 0o755); err != nil {
			t.Fatal(err)
		}
		_, err := Ensure(context.Background(), Options{DepsDir: deps, URL: "x"}, nil)
		if !errors.Is(err, ErrNotARepo) {
			t.Errorf("Ensure() error = %v, want ErrNotARepo", err)
		}
	})

	t.Run("clone failure leaves nothing", func(t *testing.T) {
		deps := t.TempDir()
		_, err := Ensure(context.Background(), Options{DepsDir: deps, URL: filepath.Join(deps, "no-such-repo")}, nil)
		if err == nil {
			t.Fatal("Ensure() expected clone error")
		}
		if _, err := os.Stat(filepath.Join(deps, DirName)); !os.IsNotExist(err) {
			t.Error("partial checkout left behind")
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := Ensure(ctx, Options{DepsDir: t.TempDir(), URL: "x"}, nil); !errors.Is(err, context.Canceled) {
			t.Errorf("Ensure() error = %v, want context.Canceled", err)
		}
	})
}

func TestReferenceName(t *testing.T) {
	if got := referenceName("master"); got != "refs/heads/master" {
		t.Errorf("referenceName(master) = %q", got)
	}
	if got := referenceName("refs/tags/v1.0"); got != "refs/tags/v1.0" {
		t.Errorf("referenceName(refs/tags/v1.0) = %q", got)
	}
}
