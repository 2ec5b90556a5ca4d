package platform

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// ErrUnsupportedPlatform is returned when no VTK wheel SDK is published for
// the requested OS/architecture.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

var (
	// CPython builds before 3.8 carry the pymalloc "m" ABI flag.
	pymallocABI = mustConstraint("< 3.8")
	// macOS SDKs switched to universal2 after 3.9.
	universal2 = mustConstraint(">= 3.10")
)

func mustConstraint(c string) *semver.Constraints {
	constraint, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return constraint
}

// minorVersion parses "3.9" or "3.9.13" and drops everything below minor.
func minorVersion(pyVersion string) (*semver.Version, error) {
	v, err := semver.NewVersion(pyVersion)
	if err != nil {
		return nil, fmt.Errorf("invalid python version %q: %w", pyVersion, err)
	}
	return semver.New(v.Major(), v.Minor(), 0, "", ""), nil
}

// PythonTag returns the interpreter-ABI tag pair, e.g. "cp39-cp39" or
// "cp37-cp37m".
func PythonTag(pyVersion string) (string, error) {
	v, err := minorVersion(pyVersion)
	if err != nil {
		return "", err
	}

	short := fmt.Sprintf("%d%d", v.Major(), v.Minor())
	tag := fmt.Sprintf("cp%s-cp%s", short, short)
	if pymallocABI.Check(v) {
		tag += "m"
	}
	return tag, nil
}

// PlatformSuffix returns the wheel platform tag the SDK archive is named with.
func PlatformSuffix(info *Info, pyVersion string) (string, error) {
	if info == nil {
		return "", fmt.Errorf("platform info is required")
	}

	switch {
	case info.IsMusl():
		return "", fmt.Errorf("%w: %s/%s with musl libc, SDKs are only built for manylinux (glibc)",
			ErrUnsupportedPlatform, info.OS, info.Arch)
	case info.IsLinux() && info.IsAMD64():
		return "manylinux_2_17_x86_64.manylinux2014_x86_64", nil
	case info.IsLinux() && info.IsARM64():
		return "manylinux_2_17_aarch64.manylinux2014_aarch64", nil
	case info.IsMacOS():
		v, err := minorVersion(pyVersion)
		if err != nil {
			return "", err
		}
		if universal2.Check(v) {
			return "macosx_10_10_universal2", nil
		}
		return "macosx_10_10_x86_64", nil
	case info.IsWindows() && info.IsAMD64():
		return "win_amd64", nil
	default:
		return "", fmt.Errorf("%w: %s/%s", ErrUnsupportedPlatform, info.OS, info.Arch)
	}
}
