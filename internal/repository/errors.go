package repository

import "errors"

var (
	// ErrNotFound is returned when a requested key or entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrUnavailable is returned when the backing store cannot be reached
	ErrUnavailable = errors.New("store unavailable")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
)
