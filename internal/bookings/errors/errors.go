package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrResourceConflict = errors.New("booking overlaps an existing booking on a shared resource")

	ErrInvalidTransition = errors.New("illegal booking status transition")
)
