// Package boltdb реализует локальное хранилище клиента поверх BoltDB.
package boltdb

import (
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/soliluna/soliluna/internal/models"
)

var (
	// BoltDB bucket names
	bucketOutbox   = []byte("outbox")
	bucketMetadata = []byte("metadata")
)

// Storage represents BoltDB storage implementation for client
type Storage struct {
	db *bbolt.DB
}

// New creates a new BoltDB storage instance
// dbPath is the path to the BoltDB database file
func New(dbPath string) (*Storage, error) {
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	storage := &Storage{db: db}

	if err := storage.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return storage, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// initBuckets создает необходимые buckets если они не существуют:
// по одному на тип сущности каталога плюс outbox и metadata.
func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, entityType := range models.EntityTypes {
			if _, err := tx.CreateBucketIfNotExists([]byte(entityType)); err != nil {
				return fmt.Errorf("failed to create %s bucket: %w", entityType, err)
			}
		}

		if _, err := tx.CreateBucketIfNotExists(bucketOutbox); err != nil {
			return fmt.Errorf("failed to create outbox bucket: %w", err)
		}

		if _, err := tx.CreateBucketIfNotExists(bucketMetadata); err != nil {
			return fmt.Errorf("failed to create metadata bucket: %w", err)
		}

		return nil
	})
}

// cacheBucket возвращает bucket кэша для типа сущности.
func cacheBucket(tx *bbolt.Tx, entityType string) (*bbolt.Bucket, error) {
	if !models.KnownType(entityType) {
		return nil, fmt.Errorf("unknown entity type %q", entityType)
	}
	bucket := tx.Bucket([]byte(entityType))
	if bucket == nil {
		return nil, fmt.Errorf("%s bucket not found", entityType)
	}
	return bucket, nil
}
