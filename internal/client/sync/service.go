// Package sync реализует синхронизацию локального кэша с сервером:
// воспроизведение outbox и дельта-pull по курсору lastSyncAt.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	httpClient "github.com/soliluna/soliluna/internal/client/api"
	"github.com/soliluna/soliluna/internal/client/storage"
	"github.com/soliluna/soliluna/internal/models"
)

// Service определяет интерфейс sync-сервиса
type Service interface {
	// Sync воспроизводит outbox и затем подтягивает дельту изменений
	Sync(ctx context.Context) (*SyncResult, error)

	// FlushOutbox воспроизводит накопленные офлайн-мутации в FIFO-порядке
	FlushOutbox(ctx context.Context) (*FlushResult, error)

	// PullChanges применяет дельту изменений сервера к локальному кэшу
	PullChanges(ctx context.Context) (*PullResult, error)

	// Preload полностью перезаливает кэш свежими списками с сервера
	Preload(ctx context.Context) error

	// PendingCount возвращает количество мутаций, ожидающих отправки
	PendingCount(ctx context.Context) (int, error)

	// FailedEntries возвращает мутации, исчерпавшие лимит повторов
	FailedEntries(ctx context.Context) ([]*storage.OutboxEntry, error)
}

// service handles synchronization between client cache and server
type service struct {
	apiClient httpClient.ClientAPI
	cache     storage.CacheStorage
	outbox    storage.OutboxStorage
	metadata  storage.MetadataStorage
	logger    *slog.Logger
}

// NewService creates a new sync service
func NewService(
	apiClient httpClient.ClientAPI,
	cache storage.CacheStorage,
	outbox storage.OutboxStorage,
	metadata storage.MetadataStorage,
	logger *slog.Logger,
) Service {
	return &service{
		apiClient: apiClient,
		cache:     cache,
		outbox:    outbox,
		metadata:  metadata,
		logger:    logger,
	}
}

// Rejection мутация, которую сервер отверг окончательно (4xx).
// Запись удалена из outbox: повтор дал бы тот же ответ.
type Rejection struct {
	Entry   *storage.OutboxEntry
	Message string
}

// FlushResult результат воспроизведения outbox.
type FlushResult struct {
	Delivered  int         // успешно доставленные мутации
	Rejections []Rejection // отвергнутые сервером мутации
	Remaining  int         // мутации, оставшиеся в очереди
	Offline    bool        // воспроизведение прервано транспортным сбоем
}

// PullResult результат применения дельты.
type PullResult struct {
	Applied  int    // применённые upsert'ы
	Deleted  int    // применённые tombstone'ы
	Skipped  int    // upsert'ы, перекрытые tombstone'ом той же дельты
	NewSince string // курсор после применения
}

// SyncResult результат полного цикла синхронизации.
type SyncResult struct {
	Flush *FlushResult
	Pull  *PullResult
}

// Sync performs a full synchronization cycle: outbox first, so that
// the pulled delta already reflects our own replayed mutations.
func (s *service) Sync(ctx context.Context) (*SyncResult, error) {
	flush, err := s.FlushOutbox(ctx)
	if err != nil {
		return &SyncResult{Flush: flush}, err
	}
	if flush.Offline {
		// Сервер недоступен, pull не имеет смысла.
		return &SyncResult{Flush: flush}, nil
	}

	pull, err := s.PullChanges(ctx)
	return &SyncResult{Flush: flush, Pull: pull}, err
}

// FlushOutbox replays pending mutations in FIFO order.
//
// Повторы считаются только по транспортным сбоям: любой ответ сервера
// означает, что мутация была доставлена. 4xx удаляет запись из очереди
// и попадает в Rejections, 5xx оставляет её pending до следующего цикла.
func (s *service) FlushOutbox(ctx context.Context) (*FlushResult, error) {
	pending, err := s.outbox.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending mutations: %w", err)
	}

	result := &FlushResult{}

	for i, entry := range pending {
		err := s.apiClient.Replay(ctx, entry.Method, entry.Path, entry.Body)
		if err == nil {
			if err := s.outbox.Remove(ctx, entry.Seq); err != nil {
				return result, fmt.Errorf("failed to remove delivered mutation: %w", err)
			}
			result.Delivered++
			continue
		}

		if httpClient.IsRejection(err) {
			s.logger.Warn("mutation rejected by server, dropping",
				"method", entry.Method, "path", entry.Path, "error", err)
			if err := s.outbox.Remove(ctx, entry.Seq); err != nil {
				return result, fmt.Errorf("failed to remove rejected mutation: %w", err)
			}
			result.Rejections = append(result.Rejections, Rejection{Entry: entry, Message: err.Error()})
			continue
		}

		if httpClient.IsConnectivityError(err) {
			entry.RetryCount++
			entry.LastError = err.Error()
			if entry.RetryCount >= storage.MaxRetries {
				entry.Status = storage.OutboxFailed
				s.logger.Error("mutation exhausted retries",
					"method", entry.Method, "path", entry.Path, "retries", entry.RetryCount)
			}
			if err := s.outbox.Update(ctx, entry); err != nil {
				return result, fmt.Errorf("failed to update mutation: %w", err)
			}

			result.Offline = true
			result.Remaining = s.remainingAfter(pending, i, entry)
			s.logger.Info("flush interrupted, server unreachable",
				"delivered", result.Delivered, "remaining", result.Remaining)
			return result, nil
		}

		// Сервер доступен, но запрос не прошёл (5xx и т.п.).
		// Очередь не трогаем: порядок важнее прогресса.
		result.Remaining = len(pending) - i
		s.logger.Warn("flush interrupted by server error",
			"method", entry.Method, "path", entry.Path, "error", err)
		return result, nil
	}

	return result, nil
}

// remainingAfter считает, сколько мутаций осталось в очереди после
// остановки на позиции i: текущая, если не стала failed, плюс хвост.
func (s *service) remainingAfter(pending []*storage.OutboxEntry, i int, current *storage.OutboxEntry) int {
	remaining := len(pending) - i - 1
	if current.Status == storage.OutboxPending {
		remaining++
	}
	return remaining
}

// PullChanges fetches the delta past the lastSyncAt cursor and applies
// it to the cache: deletions first, then upserts.
//
// Курсор сдвигается только после полного применения дельты, поэтому
// прерванный pull безопасно повторить. Tombstone перекрывает upsert
// той же дельты, если deletedAt >= updatedAt записи: повторное создание
// того же id с более поздним timestamp'ом проходит.
func (s *service) PullChanges(ctx context.Context) (*PullResult, error) {
	cursor, err := s.metadata.GetLastSyncAt(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get sync cursor: %w", err)
	}
	if cursor == "" {
		cursor = models.ZeroTimestamp
	}

	changes, err := s.apiClient.GetChanges(ctx, cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch changes: %w", err)
	}

	result := &PullResult{NewSince: cursor}

	tombstones := make(map[string]string, len(changes.Deletions))
	for _, t := range changes.Deletions {
		tombstones[t.EntityType+"/"+t.EntityID] = t.DeletedAt
	}

	newCursor := cursor

	for _, t := range changes.Deletions {
		if err := s.cache.Delete(ctx, t.EntityType, t.EntityID); err != nil {
			return result, fmt.Errorf("failed to apply deletion: %w", err)
		}
		result.Deleted++
		if t.DeletedAt > newCursor {
			newCursor = t.DeletedAt
		}
	}

	apply := func(entityType, id, updatedAt string, record any) error {
		if deletedAt, ok := tombstones[entityType+"/"+id]; ok && deletedAt >= updatedAt {
			result.Skipped++
			return nil
		}

		raw, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal %s/%s: %w", entityType, id, err)
		}
		if err := s.cache.Put(ctx, entityType, id, raw); err != nil {
			return fmt.Errorf("failed to apply upsert: %w", err)
		}
		result.Applied++
		if updatedAt > newCursor {
			newCursor = updatedAt
		}
		return nil
	}

	for _, item := range changes.Ingredients {
		if err := apply(models.TypeIngredients, item.ID, item.UpdatedAt, item); err != nil {
			return result, err
		}
	}
	for _, item := range changes.Recipes {
		if err := apply(models.TypeRecipes, item.ID, item.UpdatedAt, item); err != nil {
			return result, err
		}
	}
	for _, item := range changes.Dishes {
		if err := apply(models.TypeDishes, item.ID, item.UpdatedAt, item); err != nil {
			return result, err
		}
	}

	if newCursor != cursor {
		if err := s.metadata.SaveLastSyncAt(ctx, newCursor); err != nil {
			return result, fmt.Errorf("failed to advance sync cursor: %w", err)
		}
	}
	result.NewSince = newCursor

	s.logger.Info("delta applied",
		"since", cursor, "new_since", newCursor,
		"applied", result.Applied, "deleted", result.Deleted, "skipped", result.Skipped)

	return result, nil
}

// Preload fully refreshes the cache from the server lists.
func (s *service) Preload(ctx context.Context) error {
	ingredients, err := s.apiClient.ListIngredients(ctx)
	if err != nil {
		return fmt.Errorf("failed to preload ingredients: %w", err)
	}
	recipes, err := s.apiClient.ListRecipes(ctx)
	if err != nil {
		return fmt.Errorf("failed to preload recipes: %w", err)
	}
	dishes, err := s.apiClient.ListDishes(ctx)
	if err != nil {
		return fmt.Errorf("failed to preload dishes: %w", err)
	}

	if err := replaceAll(ctx, s.cache, models.TypeIngredients, ingredients); err != nil {
		return err
	}
	if err := replaceAll(ctx, s.cache, models.TypeRecipes, recipes); err != nil {
		return err
	}
	if err := replaceAll(ctx, s.cache, models.TypeDishes, dishes); err != nil {
		return err
	}

	s.logger.Info("cache preloaded",
		"ingredients", len(ingredients), "recipes", len(recipes), "dishes", len(dishes))
	return nil
}

func replaceAll[T models.Entity](ctx context.Context, cache storage.CacheStorage, entityType string, items []T) error {
	records := make(map[string]json.RawMessage, len(items))
	for _, item := range items {
		raw, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", entityType, err)
		}
		records[item.EntityID()] = raw
	}
	if err := cache.ReplaceAll(ctx, entityType, records); err != nil {
		return fmt.Errorf("failed to replace %s cache: %w", entityType, err)
	}
	return nil
}

// PendingCount возвращает количество мутаций, ожидающих отправки
func (s *service) PendingCount(ctx context.Context) (int, error) {
	pending, err := s.outbox.ListPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending mutations: %w", err)
	}
	return len(pending), nil
}

// FailedEntries возвращает мутации, исчерпавшие лимит повторов
func (s *service) FailedEntries(ctx context.Context) ([]*storage.OutboxEntry, error) {
	failed, err := s.outbox.ListFailed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list failed mutations: %w", err)
	}
	return failed, nil
}

// EnsureClientID возвращает стабильный идентификатор устройства,
// генерируя и сохраняя его при первом запуске.
func EnsureClientID(ctx context.Context, metadata storage.MetadataStorage) (string, error) {
	clientID, err := metadata.GetClientID(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get client id: %w", err)
	}
	if clientID != "" {
		return clientID, nil
	}

	clientID = uuid.Must(uuid.NewV7()).String()
	if err := metadata.SaveClientID(ctx, clientID); err != nil {
		return "", fmt.Errorf("failed to save client id: %w", err)
	}
	return clientID, nil
}
