// Package platform detects the build host and derives the Python wheel tags
// the VTK wheel SDK is published under.
//
// Host details come from runtime.GOOS/GOARCH and, on Linux, gopsutil plus a
// libc probe. The same information is exposed to Lua config files as a
// read-only table.
package platform

import "context"

// Info describes the build host.
type Info struct {
	OS      string // "linux", "darwin", "windows"
	Arch    string // "amd64", "arm64" (normalized)
	ArchRaw string // original GOARCH
	Distro  string // distro ID, Linux only (e.g. "ubuntu")
	Libc    string // LibcGlibc or LibcMusl, Linux only
}

// IsLinux returns true if the platform is Linux.
func (i *Info) IsLinux() bool {
	return i.OS == "linux"
}

// IsMacOS returns true if the platform is macOS.
func (i *Info) IsMacOS() bool {
	return i.OS == "darwin"
}

// IsWindows returns true if the platform is Windows.
func (i *Info) IsWindows() bool {
	return i.OS == "windows"
}

// IsAMD64 returns true if the architecture is amd64.
func (i *Info) IsAMD64() bool {
	return i.Arch == "amd64"
}

// IsARM64 returns true if the architecture is arm64.
func (i *Info) IsARM64() bool {
	return i.Arch == "arm64"
}

// IsMusl reports a Linux host whose system libc is musl.
func (i *Info) IsMusl() bool {
	return i.IsLinux() && i.Libc == LibcMusl
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}

// StaticDetector returns a fixed Info. Useful when the target platform is
// given on the command line rather than detected.
type StaticDetector struct {
	Info *Info
}

// Detect returns the stored Info.
func (s StaticDetector) Detect(ctx context.Context) (*Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Info, nil
}
