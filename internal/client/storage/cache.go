// Package storage определяет интерфейсы локального хранилища клиента:
// кэш каталога, durable outbox и метаданные синхронизации.
package storage

import (
	"context"
	"encoding/json"
)

// CacheStorage локальная копия каталога. Записи хранятся как сырой
// JSON в том виде, в котором их отдал сервер: кэш не интерпретирует
// содержимое, ключом служит пара (entityType, id).
type CacheStorage interface {
	// List returns all cached records of the given entity type
	List(ctx context.Context, entityType string) ([]json.RawMessage, error)

	// Get returns a single cached record
	// Returns ErrNotFound if the record is not cached
	Get(ctx context.Context, entityType, id string) (json.RawMessage, error)

	// Put stores or overwrites a single record
	Put(ctx context.Context, entityType, id string, record json.RawMessage) error

	// ReplaceAll atomically replaces the whole collection of the given type
	ReplaceAll(ctx context.Context, entityType string, records map[string]json.RawMessage) error

	// Delete removes a record; deleting a missing record is not an error
	Delete(ctx context.Context, entityType, id string) error
}
