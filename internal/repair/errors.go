package repair

import "errors"

var (
	// ErrNoLibraries means the library glob matched nothing in the SDK.
	ErrNoLibraries = errors.New("no libraries to inject")
	// ErrOutputCount means the repair tool did not leave exactly one wheel.
	ErrOutputCount = errors.New("unexpected number of repaired wheels")
)
