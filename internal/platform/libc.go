package platform

import (
	"fmt"
	"path/filepath"
	"strings"
)

// C library families a Linux host can link against.
const (
	LibcGlibc = "glibc"
	LibcMusl  = "musl"
)

// muslDistros ship musl as the system libc.
var muslDistros = map[string]bool{
	"alpine":       true,
	"postmarketos": true,
	"chimera":      true,
}

// muslLoaderGlob matches the musl dynamic loader. Variable for tests.
var muslLoaderGlob = "/lib/ld-musl-*.so.1"

func normalizeArch(arch string) (string, error) {
	switch arch {
	case "amd64", "x86_64":
		return "amd64", nil
	case "arm64", "aarch64":
		return "arm64", nil
	default:
		return "", fmt.Errorf("unsupported architecture: %s", arch)
	}
}

// libcFor picks the libc of a Linux host. A known musl distro wins; otherwise
// the presence of the musl loader decides, so musl hosts gopsutil cannot
// name are still caught.
func libcFor(distro string) string {
	if muslDistros[strings.ToLower(strings.TrimSpace(distro))] {
		return LibcMusl
	}
	if matches, _ := filepath.Glob(muslLoaderGlob); len(matches) > 0 {
		return LibcMusl
	}
	return LibcGlibc
}
