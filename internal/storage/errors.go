package storage

import "errors"

// Storage errors shared by every backend.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrCorrupt is returned when a stored record exists but cannot be decoded.
	// Callers treat it like ErrNotFound.
	ErrCorrupt = errors.New("corrupt record")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")

	// ErrClosed is returned by writers used after Close.
	ErrClosed = errors.New("store closed")
)
