package boltdb

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"
)

const (
	keyLastSyncAt = "last_sync_at"
	keyClientID   = "client_id"
)

// SaveLastSyncAt saves the server timestamp of the last fully applied delta
func (s *Storage) SaveLastSyncAt(ctx context.Context, timestamp string) error {
	return s.putMeta(keyLastSyncAt, timestamp)
}

// GetLastSyncAt retrieves the last sync cursor
// Returns an empty string if no sync has been performed yet
func (s *Storage) GetLastSyncAt(ctx context.Context) (string, error) {
	return s.getMeta(keyLastSyncAt)
}

// SaveClientID persists the stable device identifier
func (s *Storage) SaveClientID(ctx context.Context, clientID string) error {
	return s.putMeta(keyClientID, clientID)
}

// GetClientID retrieves the device identifier
// Returns an empty string if none has been assigned yet
func (s *Storage) GetClientID(ctx context.Context) (string, error) {
	return s.getMeta(keyClientID)
}

func (s *Storage) putMeta(key, value string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMetadata)
		if bucket == nil {
			return fmt.Errorf("metadata bucket not found")
		}

		if err := bucket.Put([]byte(key), []byte(value)); err != nil {
			return fmt.Errorf("failed to save %s: %w", key, err)
		}
		return nil
	})
}

func (s *Storage) getMeta(key string) (string, error) {
	var value string

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMetadata)
		if bucket == nil {
			return fmt.Errorf("metadata bucket not found")
		}

		value = string(bucket.Get([]byte(key)))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to get %s: %w", key, err)
	}

	return value, nil
}
