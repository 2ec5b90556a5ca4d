package sdk

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vtk-lookingglass/lgwheel/internal/platform"
)

// Prefix starts every SDK directory and archive name.
const Prefix = "vtk-wheel-sdk"

// ErrCMakeDir means the SDK does not hold exactly one headers/cmake dir.
var ErrCMakeDir = errors.New("cannot locate the SDK CMake directory")

// Info names one SDK build.
type Info struct {
	Version   string
	PythonTag string
	Platform  string
	// DirName is the directory the SDK extracts to.
	DirName     string
	ArchiveName string
	URL         string
	// ChecksumURL and SignatureURL may not exist on the server.
	ChecksumURL  string
	SignatureURL string
}

// Describe derives the SDK names for a VTK version, Python version and
// platform.
func Describe(baseURL, version, pyVersion string, info *platform.Info) (*Info, error) {
	if version == "" {
		return nil, fmt.Errorf("SDK version is required")
	}

	pyTag, err := platform.PythonTag(pyVersion)
	if err != nil {
		return nil, err
	}
	plat, err := platform.PlatformSuffix(info, pyVersion)
	if err != nil {
		return nil, err
	}

	dirName := fmt.Sprintf("%s-%s-%s", Prefix, version, pyTag)
	archive := fmt.Sprintf("%s-%s.tar.xz", dirName, plat)
	url := strings.TrimSuffix(baseURL, "/") + "/" + archive

	return &Info{
		Version:      version,
		PythonTag:    pyTag,
		Platform:     plat,
		DirName:      dirName,
		ArchiveName:  archive,
		URL:          url,
		ChecksumURL:  url + ".sha256",
		SignatureURL: url + ".asc",
	}, nil
}

// VerificationMethod is how a download was checked.
type VerificationMethod int

const (
	VerificationNone VerificationMethod = iota
	VerificationGPG
	VerificationSHA256
)

func (v VerificationMethod) String() string {
	switch v {
	case VerificationGPG:
		return "GPG"
	case VerificationSHA256:
		return "SHA256"
	case VerificationNone:
		return "None"
	default:
		return "Unknown"
	}
}
