package sessiontypes

import "errors"

var (
	// ErrMissingName is returned when the name is empty
	ErrMissingName = errors.New("session type name is required")

	// ErrInvalidDuration is returned for non-positive durations
	ErrInvalidDuration = errors.New("session type duration must be positive")

	// ErrInvalidPrice is returned for negative prices
	ErrInvalidPrice = errors.New("session type price must not be negative")

	// ErrNotFound is returned when a session type does not exist
	ErrNotFound = errors.New("session type not found")
)
