package storage

import (
	"context"
	"encoding/json"
)

// OutboxStatus состояние отложенной мутации.
type OutboxStatus string

const (
	// OutboxPending мутация ждёт отправки на сервер.
	OutboxPending OutboxStatus = "pending"
	// OutboxFailed мутация исчерпала лимит повторов и больше не
	// отправляется, но остаётся видимой пользователю.
	OutboxFailed OutboxStatus = "failed"
)

// MaxRetries максимум попыток доставки одной мутации. Считаются только
// транспортные сбои: ответ сервера с любым статусом попыткой не является.
const MaxRetries = 5

// OutboxEntry одна отложенная мутация. Seq назначается хранилищем и
// задаёт строгий FIFO-порядок воспроизведения.
type OutboxEntry struct {
	Seq        uint64          `json:"seq"`
	Method     string          `json:"method"`
	Path       string          `json:"path"`
	Body       json.RawMessage `json:"body,omitempty"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Status     OutboxStatus    `json:"status"`
	RetryCount int             `json:"retryCount"`
	LastError  string          `json:"lastError,omitempty"`
	CreatedAt  string          `json:"createdAt"`
}

// OutboxStorage durable очередь мутаций, выполненных офлайн.
type OutboxStorage interface {
	// Enqueue appends an entry and assigns its Seq
	Enqueue(ctx context.Context, entry *OutboxEntry) error

	// ListPending returns pending entries in FIFO order
	ListPending(ctx context.Context) ([]*OutboxEntry, error)

	// ListFailed returns terminally failed entries in FIFO order
	ListFailed(ctx context.Context) ([]*OutboxEntry, error)

	// Update overwrites an existing entry (retry count, status, last error)
	// Returns ErrEntryNotFound if the entry does not exist
	Update(ctx context.Context, entry *OutboxEntry) error

	// Remove deletes an entry
	Remove(ctx context.Context, seq uint64) error
}
