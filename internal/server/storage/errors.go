package storage

import "errors"

// Common storage errors
var (
	// ErrNotFound indicates that the record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrConflict indicates that the submitted concurrency token does not
	// match the stored updated_at (запись изменена другим устройством)
	ErrConflict = errors.New("record was modified")

	// ErrAlreadyExists indicates that a record with this id already exists
	ErrAlreadyExists = errors.New("record already exists")

	// ErrInUse indicates that the record is referenced elsewhere and
	// cannot be deleted
	ErrInUse = errors.New("record is in use")
)
