package boltdb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/soliluna/soliluna/internal/client/storage"
)

// seqKey кодирует Seq в big-endian: байтовый порядок ключей BoltDB
// тогда совпадает с порядком постановки в очередь.
func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

// Enqueue appends an entry and assigns its Seq
func (s *Storage) Enqueue(ctx context.Context, entry *storage.OutboxEntry) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketOutbox)
		if bucket == nil {
			return fmt.Errorf("outbox bucket not found")
		}

		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to get next sequence: %w", err)
		}
		entry.Seq = seq

		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal outbox entry: %w", err)
		}

		if err := bucket.Put(seqKey(seq), data); err != nil {
			return fmt.Errorf("failed to save outbox entry: %w", err)
		}
		return nil
	})
}

// listByStatus возвращает записи с данным статусом в FIFO-порядке.
func (s *Storage) listByStatus(status storage.OutboxStatus) ([]*storage.OutboxEntry, error) {
	var entries []*storage.OutboxEntry

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketOutbox)
		if bucket == nil {
			return fmt.Errorf("outbox bucket not found")
		}

		return bucket.ForEach(func(k, v []byte) error {
			entry := &storage.OutboxEntry{}
			if err := json.Unmarshal(v, entry); err != nil {
				return fmt.Errorf("failed to unmarshal outbox entry: %w", err)
			}
			if entry.Status == status {
				entries = append(entries, entry)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// ListPending returns pending entries in FIFO order
func (s *Storage) ListPending(ctx context.Context) ([]*storage.OutboxEntry, error) {
	return s.listByStatus(storage.OutboxPending)
}

// ListFailed returns terminally failed entries in FIFO order
func (s *Storage) ListFailed(ctx context.Context) ([]*storage.OutboxEntry, error) {
	return s.listByStatus(storage.OutboxFailed)
}

// Update overwrites an existing entry
func (s *Storage) Update(ctx context.Context, entry *storage.OutboxEntry) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketOutbox)
		if bucket == nil {
			return fmt.Errorf("outbox bucket not found")
		}

		if bucket.Get(seqKey(entry.Seq)) == nil {
			return storage.ErrEntryNotFound
		}

		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal outbox entry: %w", err)
		}

		if err := bucket.Put(seqKey(entry.Seq), data); err != nil {
			return fmt.Errorf("failed to update outbox entry: %w", err)
		}
		return nil
	})
}

// Remove deletes an entry
func (s *Storage) Remove(ctx context.Context, seq uint64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketOutbox)
		if bucket == nil {
			return fmt.Errorf("outbox bucket not found")
		}

		if err := bucket.Delete(seqKey(seq)); err != nil {
			return fmt.Errorf("failed to remove outbox entry: %w", err)
		}
		return nil
	})
}
