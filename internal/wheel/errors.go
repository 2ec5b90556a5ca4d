package wheel

import (
	"errors"
	"fmt"
)

var (
	// ErrManifestNotFound means no *.dist-info/RECORD exists at the wheel root.
	ErrManifestNotFound = errors.New("manifest not found")
	// ErrMultipleManifests means more than one *.dist-info/RECORD exists.
	ErrMultipleManifests = errors.New("multiple manifests found")
)

// PreconditionError reports that something expected exactly once was found
// Count times.
type PreconditionError struct {
	What  string // e.g. "manifest", "repaired wheel"
	Where string // directory searched
	Count int
	Err   error // sentinel describing the violation
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%v: expected exactly one %s in %s, found %d", e.Err, e.What, e.Where, e.Count)
}

// Unwrap returns the sentinel so errors.Is works.
func (e *PreconditionError) Unwrap() error {
	return e.Err
}
