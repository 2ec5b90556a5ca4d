// Package sdk resolves the VTK wheel SDK a Looking Glass wheel is built
// against.
//
// An explicitly configured SDK directory always wins. Otherwise the SDK for
// the requested VTK version, Python version and platform is looked up in the
// deps directory and downloaded from vtk.org when missing.
//
// # Verification
//
// Downloads are checked before extraction:
//   - With a configured OpenPGP keyring, a detached signature (.asc) is
//     required and must verify.
//   - Otherwise a published .sha256 file is used when the server has one.
//   - When neither is available the archive is used unverified and a
//     warning is logged.
//
// # Layout
//
//	<deps>/vtk-wheel-sdk-<version>-<pytag>/          extracted SDK
//	<cache>/<version>/vtk-wheel-sdk-...-<plat>.tar.xz downloaded archive
package sdk
