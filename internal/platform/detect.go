package platform

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/host"
)

// RealDetector inspects the machine it runs on.
type RealDetector struct{}

// NewDetector returns a Detector for the current host.
func NewDetector() Detector {
	return &RealDetector{}
}

// Detect reports OS and architecture from the Go runtime. On Linux it also
// asks gopsutil for the distribution to settle which libc the host uses; a
// failed lookup only leaves Distro empty.
func (d *RealDetector) Detect(ctx context.Context) (*Info, error) {
	arch, err := normalizeArch(runtime.GOARCH)
	if err != nil {
		return nil, fmt.Errorf("platform detection failed: %w", err)
	}

	info := &Info{OS: runtime.GOOS, Arch: arch, ArchRaw: runtime.GOARCH}
	if !info.IsLinux() {
		return info, nil
	}

	// Only the distro ID is needed; family and version are ignored.
	distro, _, _, err := host.PlatformInformationWithContext(ctx)
	if err != nil && ctx.Err() != nil {
		return nil, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
	}
	if err == nil {
		info.Distro = strings.ToLower(strings.TrimSpace(distro))
	}
	info.Libc = libcFor(info.Distro)

	return info, nil
}
