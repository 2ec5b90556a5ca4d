package sdk

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vtk-lookingglass/lgwheel/internal/config"
	"github.com/vtk-lookingglass/lgwheel/internal/pathglob"
	"github.com/vtk-lookingglass/lgwheel/internal/platform"
)

// Manager finds, downloads and unpacks SDKs.
type Manager struct {
	depsDir    string
	downloader *Downloader
	verifier   *Verifier
	extractor  *Extractor
	logger     config.Logger
}

// ManagerConfig holds the directories a Manager works in.
type ManagerConfig struct {
	// DepsDir receives extracted SDKs.
	DepsDir string
	// CacheDir receives downloaded archives. Defaults to DepsDir/.cache.
	CacheDir string
	// KeyringPath enables OpenPGP verification.
	KeyringPath string
	Logger      config.Logger
}

// NewManager creates a manager.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.DepsDir == "" {
		return nil, fmt.Errorf("DepsDir is required")
	}
	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		cacheDir = filepath.Join(cfg.DepsDir, ".cache")
	}

	return &Manager{
		depsDir:    cfg.DepsDir,
		downloader: NewDownloader(cacheDir),
		verifier:   NewVerifier(cfg.KeyringPath),
		extractor:  NewExtractor(),
		logger:     config.OrNop(cfg.Logger),
	}, nil
}

// EnsureOptions selects an SDK.
type EnsureOptions struct {
	// Path is an SDK directory to use as is.
	Path          string
	Version       string
	BaseURL       string
	PythonVersion string
	Platform      *platform.Info
}

// Resolution is where an SDK lives and whether it is there yet.
type Resolution struct {
	// Info is nil when an explicit path was given.
	Info     *Info
	Path     string
	Present  bool
	Explicit bool
}

// Resolve locates the SDK without downloading anything.
func (m *Manager) Resolve(opts EnsureOptions) (*Resolution, error) {
	if opts.Path != "" {
		abs, err := filepath.Abs(opts.Path)
		if err != nil {
			return nil, fmt.Errorf("resolve SDK path: %w", err)
		}
		return &Resolution{Path: abs, Present: dirExists(abs), Explicit: true}, nil
	}

	if opts.Platform == nil {
		return nil, fmt.Errorf("platform is required")
	}
	info, err := Describe(opts.BaseURL, opts.Version, opts.PythonVersion, opts.Platform)
	if err != nil {
		return nil, fmt.Errorf("describe SDK: %w", err)
	}

	path := filepath.Join(m.depsDir, info.DirName)
	return &Resolution{Info: info, Path: path, Present: dirExists(path)}, nil
}

// Ensure returns the path of a usable SDK, downloading it if needed.
func (m *Manager) Ensure(ctx context.Context, opts EnsureOptions) (string, error) {
	res, err := m.Resolve(opts)
	if err != nil {
		return "", err
	}

	if res.Explicit {
		if !res.Present {
			return "", &config.Error{
				Field:  "sdk.path",
				Env:    config.EnvSDKPath,
				Reason: fmt.Sprintf("%s is not a directory", res.Path),
			}
		}
		return res.Path, nil
	}

	if res.Present {
		m.logger.Debug("using existing SDK", "path", res.Path)
		return res.Path, nil
	}

	start := time.Now()
	m.logger.Info("downloading VTK wheel SDK", "url", res.Info.URL)

	archive, err := m.downloader.Fetch(ctx, res.Info.URL, res.Info.Version)
	if err != nil {
		return "", fmt.Errorf("download SDK: %w", err)
	}

	checksum, err := m.optional(ctx, res.Info.ChecksumURL, res.Info.Version)
	if err != nil {
		return "", fmt.Errorf("download checksum: %w", err)
	}

	var signature string
	if m.verifier.RequiresSignature() {
		signature, err = m.optional(ctx, res.Info.SignatureURL, res.Info.Version)
		if err != nil {
			return "", fmt.Errorf("download signature: %w", err)
		}
	}

	method, err := m.verifier.Verify(archive, signature, checksum)
	if err != nil {
		// A corrupt cached archive must not be reused.
		_ = os.Remove(archive)
		return "", fmt.Errorf("verify SDK: %w", err)
	}
	if method == VerificationNone {
		m.logger.Warn("SDK archive is unverified", "archive", filepath.Base(archive))
	}

	if err := m.extractor.Extract(archive, res.Path); err != nil {
		return "", fmt.Errorf("extract SDK: %w", err)
	}

	m.logger.Info("SDK ready",
		"path", res.Path,
		"verified", method.String(),
		"duration", time.Since(start).Round(time.Millisecond))
	return res.Path, nil
}

// optional fetches url, returning "" when the server does not have it.
func (m *Manager) optional(ctx context.Context, url, version string) (string, error) {
	path, err := m.downloader.Fetch(ctx, url, version)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return path, err
}

// FindCMakeDir returns the single headers/cmake directory inside an SDK.
func FindCMakeDir(sdkPath string) (string, error) {
	dirs, err := pathglob.Find(sdkPath, "**/headers/cmake", pathglob.Dirs)
	if err != nil {
		return "", fmt.Errorf("search %s: %w", sdkPath, err)
	}
	if len(dirs) != 1 {
		return "", fmt.Errorf("%w: found %d headers/cmake directories in %s", ErrCMakeDir, len(dirs), sdkPath)
	}
	return dirs[0], nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
