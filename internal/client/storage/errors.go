package storage

import "errors"

// Common client storage errors
var (
	// ErrNotFound indicates that a cached record was not found
	ErrNotFound = errors.New("record not found")

	// ErrEntryNotFound indicates that an outbox entry was not found
	ErrEntryNotFound = errors.New("outbox entry not found")
)
