package equipment

import "errors"

var (
	// ErrNotFound indicates an unknown equipment or point id.
	ErrNotFound = errors.New("equipment: not found")
	// ErrValidation indicates a malformed correction.
	ErrValidation = errors.New("equipment: validation failed")
)
