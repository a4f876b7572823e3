package mappings

import "errors"

var (
	// ErrValidation is returned for malformed mapping requests.
	ErrValidation = errors.New("mapping: validation failed")
	// ErrNotFound is returned when no mapping exists for an id.
	ErrNotFound = errors.New("mapping: not found")
	// ErrConflict is returned when an exclusivity invariant would break.
	ErrConflict = errors.New("mapping: conflict")
)
