package curve

import "errors"

var (
	// ErrValidation marks input rejected before any computation.
	ErrValidation = errors.New("curve: invalid input")

	// ErrDomain marks a numeric singularity hit during the bootstrap.
	ErrDomain = errors.New("curve: domain error")

	// ErrOutOfRange marks a lookup outside [0, MaxMonth].
	ErrOutOfRange = errors.New("curve: month out of range")
)
