// Package sentinel lists the storage-level facts that stores report and
// services translate into domain errors. Wrap them with fmt.Errorf("...: %w").
package sentinel

import "errors"

var (
	// ErrNotFound means the row or key does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a write lost to a concurrent writer or broke a
	// uniqueness or sequencing rule.
	ErrConflict = errors.New("conflict")
	// ErrUnavailable means the backing store could not be reached.
	ErrUnavailable = errors.New("unavailable")
)
