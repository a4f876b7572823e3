package signatures

import "errors"

var (
	// ErrValidation is returned for malformed or incomplete signature data.
	ErrValidation = errors.New("signature: validation failed")
	// ErrNotFound is returned when a signature id is unknown.
	ErrNotFound = errors.New("signature: not found")
	// ErrVersionConflict is returned when a compare-and-swap save loses.
	ErrVersionConflict = errors.New("signature: version conflict")
)
