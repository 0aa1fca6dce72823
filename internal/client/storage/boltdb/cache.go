package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/soliluna/soliluna/internal/client/storage"
)

// List returns all cached records of the given entity type
func (s *Storage) List(ctx context.Context, entityType string) ([]json.RawMessage, error) {
	var records []json.RawMessage

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket, err := cacheBucket(tx, entityType)
		if err != nil {
			return err
		}

		return bucket.ForEach(func(k, v []byte) error {
			record := make(json.RawMessage, len(v))
			copy(record, v)
			records = append(records, record)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", entityType, err)
	}

	return records, nil
}

// Get returns a single cached record
func (s *Storage) Get(ctx context.Context, entityType, id string) (json.RawMessage, error) {
	var record json.RawMessage

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket, err := cacheBucket(tx, entityType)
		if err != nil {
			return err
		}

		data := bucket.Get([]byte(id))
		if data == nil {
			return storage.ErrNotFound
		}

		record = make(json.RawMessage, len(data))
		copy(record, data)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

// Put stores or overwrites a single record
func (s *Storage) Put(ctx context.Context, entityType, id string, record json.RawMessage) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := cacheBucket(tx, entityType)
		if err != nil {
			return err
		}

		if err := bucket.Put([]byte(id), record); err != nil {
			return fmt.Errorf("failed to put %s/%s: %w", entityType, id, err)
		}
		return nil
	})
}

// ReplaceAll atomically replaces the whole collection of the given type.
// Bucket пересоздаётся в одной транзакции: читатели либо видят старую
// коллекцию целиком, либо новую.
func (s *Storage) ReplaceAll(ctx context.Context, entityType string, records map[string]json.RawMessage) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := cacheBucket(tx, entityType); err != nil {
			return err
		}

		if err := tx.DeleteBucket([]byte(entityType)); err != nil {
			return fmt.Errorf("failed to drop %s bucket: %w", entityType, err)
		}
		bucket, err := tx.CreateBucket([]byte(entityType))
		if err != nil {
			return fmt.Errorf("failed to recreate %s bucket: %w", entityType, err)
		}

		for id, record := range records {
			if err := bucket.Put([]byte(id), record); err != nil {
				return fmt.Errorf("failed to put %s/%s: %w", entityType, id, err)
			}
		}
		return nil
	})
}

// Delete removes a record; deleting a missing record is not an error
func (s *Storage) Delete(ctx context.Context, entityType, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := cacheBucket(tx, entityType)
		if err != nil {
			return err
		}

		if err := bucket.Delete([]byte(id)); err != nil {
			return fmt.Errorf("failed to delete %s/%s: %w", entityType, id, err)
		}
		return nil
	})
}
