// Package cmake prepares and runs the CMake configure step that builds the
// Looking Glass module against a VTK wheel SDK.
package cmake

import (
	"fmt"

	"github.com/mattn/go-shellwords"

	"github.com/vtk-lookingglass/lgwheel/internal/platform"
)

// ModuleName is the VTK module the build produces.
const ModuleName = "RenderingLookingGlass"

// Inputs are the resolved locations the configure step needs.
type Inputs struct {
	// SourceDir is the Looking Glass module source tree.
	SourceDir string
	// CMakeDir is the SDK's headers/cmake directory.
	CMakeDir string
	// ExternalModule is the VTKExternalModule checkout.
	ExternalModule string
	Python         string
	Platform       *platform.Info
	// ExtraArgs is appended after shell-style splitting.
	ExtraArgs string
}

// Args returns the cmake arguments for in.
func Args(in Inputs) ([]string, error) {
	for _, req := range []struct{ name, value string }{
		{"source directory", in.SourceDir},
		{"SDK cmake directory", in.CMakeDir},
		{"external module", in.ExternalModule},
		{"python executable", in.Python},
	} {
		if req.value == "" {
			return nil, fmt.Errorf("cmake: %s is required", req.name)
		}
	}

	args := []string{
		"-DVTK_MODULE_NAME:STRING=" + ModuleName,
		"-DVTK_MODULE_SOURCE_DIR:PATH=" + in.SourceDir,
		"-DVTK_MODULE_CMAKE_MODULE_PATH:PATH=" + in.CMakeDir,
		"-DVTK_DIR:PATH=" + in.CMakeDir,
		"-DCMAKE_INSTALL_LIBDIR:STRING=lib",
		"-DPython3_EXECUTABLE:FILEPATH=" + in.Python,
		"-DVTK_WHEEL_BUILD:BOOL=ON",
		"-S", in.ExternalModule,
	}

	if in.Platform != nil {
		switch {
		case in.Platform.IsLinux():
			args = append(args, "-DVTK_USE_X:BOOL=ON")
		case in.Platform.IsMacOS():
			args = append(args, "-DVTK_USE_COCOA:BOOL=ON")
		}
	}

	if in.ExtraArgs != "" {
		extra, err := shellwords.Parse(in.ExtraArgs)
		if err != nil {
			return nil, fmt.Errorf("parse extra cmake args: %w", err)
		}
		args = append(args, extra...)
	}

	return args, nil
}
