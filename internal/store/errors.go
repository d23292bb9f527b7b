package store

import "errors"

var (
	ErrNotFound = errors.New("store: record not found")
	// ErrUnavailable marks transport failures to the backing KV service.
	// Callers on the progress path must treat it as non-fatal.
	ErrUnavailable = errors.New("store: backing service unavailable")
)
