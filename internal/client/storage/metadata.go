package storage

import "context"

// MetadataStorage defines interface for storing client sync metadata
type MetadataStorage interface {
	// SaveLastSyncAt saves the server timestamp of the last fully
	// applied delta
	SaveLastSyncAt(ctx context.Context, timestamp string) error

	// GetLastSyncAt retrieves the last sync cursor
	// Returns an empty string if no sync has been performed yet
	GetLastSyncAt(ctx context.Context) (string, error)

	// SaveClientID persists the stable device identifier
	SaveClientID(ctx context.Context, clientID string) error

	// GetClientID retrieves the device identifier
	// Returns an empty string if none has been assigned yet
	GetClientID(ctx context.Context) (string, error)
}
