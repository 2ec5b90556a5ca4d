// Package config loads lgwheel configuration.
//
// Values are resolved in this order, later sources winning:
//   - built-in defaults
//   - an optional Lua config file (lgwheel.lua)
//   - environment variables
//   - explicit overrides supplied by the CLI
//
// # Lua config files
//
// The config file is plain Lua evaluated in a sandboxed gopher-lua VM. It must
// assign a global table named lgwheel. A read-only platform table is available
// so a single file can serve several build hosts:
//
//	lgwheel = {
//	    sdk = {
//	        install_path = "~/src/vtk-wheel-sdk",
//	    },
//	    repair = {
//	        plat = platform.when(platform.is_linux, "manylinux2014_x86_64"),
//	    },
//	}
//
// os, io, require, load and debug are removed from the VM before the file runs.
//
// # Environment
//
// The variables understood by the original build scripts are honored as-is:
// VTK_WHEEL_SDK_INSTALL_PATH, VTK_WHEEL_SDK_PATH, VTK_WHEEL_SDK_VERSION,
// VTK_EXTERNAL_MODULE_PATH and Python3_EXECUTABLE. Every other key can be set
// with an LGWHEEL_ prefix, for example LGWHEEL_REPAIR_TOOL.
package config
