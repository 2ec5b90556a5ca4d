package config

// Lua schema globals
const (
	luaGlobalLgwheel = "lgwheel"
)

// Default values mirror the original packaging scripts.
const (
	DefaultSDKVersion     = "9.1.20220606.dev0"
	DefaultSDKBaseURL     = "https://vtk.org/files/wheel-sdks/"
	DefaultLibraryGlob    = "build/*/vtkmodules/*.so"
	DefaultRepairTool     = "auditwheel"
	DefaultLibraryDir     = "vtkmodules"
	DefaultExternalModule = "https://github.com/KitwareMedical/VTKExternalModule.git"
	DefaultDepsDir        = "_deps"
	DefaultBuildDir       = "build"
	DefaultCMake          = "cmake"
	DefaultLogLevel       = "info"
	DefaultConfigFileName = "lgwheel.lua"
	AppName               = "lgwheel"
)

// Environment variables read by the original build scripts.
const (
	EnvSDKInstallPath     = "VTK_WHEEL_SDK_INSTALL_PATH"
	EnvSDKPath            = "VTK_WHEEL_SDK_PATH"
	EnvSDKVersion         = "VTK_WHEEL_SDK_VERSION"
	EnvExternalModulePath = "VTK_EXTERNAL_MODULE_PATH"
	EnvPythonExecutable   = "Python3_EXECUTABLE"

	envPrefix = "LGWHEEL"
)
