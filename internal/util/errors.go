package util

import "errors"

// Sentinel errors for common failure modes
var (
	// ErrValidation indicates a malformed request (empty id/path list, unknown mode)
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates a required resource was not found
	ErrNotFound = errors.New("not found")

	// ErrUnverifiable indicates a record whose duplicate status cannot be proven
	ErrUnverifiable = errors.New("unverifiable record")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrTransaction indicates a failed catalog transaction (whole batch aborted)
	ErrTransaction = errors.New("transaction failed")
)
