// Package data реализует local-first доступ к каталогу: чтение через
// кэш со stale-while-revalidate, мутации с optimistic-фолбэком в outbox.
package data

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	httpClient "github.com/soliluna/soliluna/internal/client/api"
	"github.com/soliluna/soliluna/internal/client/storage"
	"github.com/soliluna/soliluna/internal/models"
	"github.com/soliluna/soliluna/pkg/api"
)

// Source откуда пришло значение.
type Source string

const (
	// SourceNetwork значение получено с сервера, кэш обновлён.
	SourceNetwork Source = "network"
	// SourceCache сервер недоступен, значение из локального кэша.
	SourceCache Source = "cache"
)

// SaveStatus судьба мутации.
type SaveStatus string

const (
	// StatusSynced мутация подтверждена сервером.
	StatusSynced SaveStatus = "synced"
	// StatusQueued сервер недоступен, мутация поставлена в outbox и
	// применена к кэшу оптимистично.
	StatusQueued SaveStatus = "queued"
)

// Service local-first доступ к каталогу
type Service struct {
	apiClient httpClient.ClientAPI
	cache     storage.CacheStorage
	outbox    storage.OutboxStorage
	logger    *slog.Logger
}

// NewService creates a new data service
func NewService(
	apiClient httpClient.ClientAPI,
	cache storage.CacheStorage,
	outbox storage.OutboxStorage,
	logger *slog.Logger,
) *Service {
	return &Service{
		apiClient: apiClient,
		cache:     cache,
		outbox:    outbox,
		logger:    logger,
	}
}

// fetchList сетевое чтение списка с кэшем как фолбэком. Успешный ответ
// сервера замещает коллекцию в кэше целиком; любой сбой сервера отдаёт
// локальную копию, ошибка всплывает только когда кэш пуст или нечитаем.
func fetchList[T models.Entity](
	ctx context.Context,
	s *Service,
	entityType string,
	remote func(context.Context) ([]T, error),
) ([]T, Source, error) {
	items, err := remote(ctx)
	if err == nil {
		records := make(map[string]json.RawMessage, len(items))
		for _, item := range items {
			raw, merr := json.Marshal(item)
			if merr != nil {
				return nil, SourceNetwork, fmt.Errorf("failed to marshal %s: %w", entityType, merr)
			}
			records[item.EntityID()] = raw
		}
		if cerr := s.cache.ReplaceAll(ctx, entityType, records); cerr != nil {
			s.logger.Warn("failed to refresh cache", "entity", entityType, "error", cerr)
		}
		return items, SourceNetwork, nil
	}

	raws, cerr := s.cache.List(ctx, entityType)
	if cerr != nil || len(raws) == 0 {
		return nil, SourceNetwork, err
	}

	items = make([]T, 0, len(raws))
	for _, raw := range raws {
		var item T
		if uerr := json.Unmarshal(raw, &item); uerr != nil {
			return nil, SourceNetwork, err
		}
		items = append(items, item)
	}

	s.logger.Debug("serving from cache, server request failed",
		"entity", entityType, "count", len(items), "error", err)
	return items, SourceCache, nil
}

// fetchOne сетевое чтение одной записи с кэшем как фолбэком. Как и в
// fetchList, любая ошибка сервера гасится локальной копией, если она есть.
func fetchOne[T any](
	ctx context.Context,
	s *Service,
	entityType, id string,
	remote func(context.Context, string) (*T, error),
) (*T, Source, error) {
	item, err := remote(ctx, id)
	if err == nil {
		raw, merr := json.Marshal(item)
		if merr == nil {
			if cerr := s.cache.Put(ctx, entityType, id, raw); cerr != nil {
				s.logger.Warn("failed to refresh cached record",
					"entity", entityType, "id", id, "error", cerr)
			}
		}
		return item, SourceNetwork, nil
	}

	raw, cerr := s.cache.Get(ctx, entityType, id)
	if cerr != nil {
		return nil, SourceNetwork, err
	}

	var cached T
	if uerr := json.Unmarshal(raw, &cached); uerr != nil {
		return nil, SourceNetwork, err
	}

	s.logger.Debug("serving from cache, server request failed",
		"entity", entityType, "id", id, "error", err)
	return &cached, SourceCache, nil
}

// enqueueMutation кладёт мутацию в outbox для последующего replay.
func (s *Service) enqueueMutation(ctx context.Context, method, path string, body any, entityType, id string) error {
	var raw json.RawMessage
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal queued mutation: %w", err)
		}
		raw = data
	}

	entry := &storage.OutboxEntry{
		Method:     method,
		Path:       path,
		Body:       raw,
		EntityType: entityType,
		EntityID:   id,
		Status:     storage.OutboxPending,
		CreatedAt:  models.FormatTimestamp(time.Now()),
	}
	if err := s.outbox.Enqueue(ctx, entry); err != nil {
		return fmt.Errorf("failed to enqueue mutation: %w", err)
	}

	s.logger.Info("mutation queued, server unreachable",
		"method", method, "path", path, "entity", entityType, "id", id)
	return nil
}

// putOptimistic применяет локальную версию записи к кэшу, пока мутация
// ждёт в outbox.
func (s *Service) putOptimistic(ctx context.Context, entityType, id string, record any) {
	raw, err := json.Marshal(record)
	if err != nil {
		s.logger.Warn("failed to marshal optimistic record", "error", err)
		return
	}
	if err := s.cache.Put(ctx, entityType, id, raw); err != nil {
		s.logger.Warn("failed to apply optimistic record",
			"entity", entityType, "id", id, "error", err)
	}
}

// Invalidate обрабатывает realtime-событие: delete убирает запись из
// кэша, create/update перечитывают её с сервера.
func (s *Service) Invalidate(ctx context.Context, entityType, id, action string) error {
	if action == api.ActionDelete {
		return s.cache.Delete(ctx, entityType, id)
	}

	var err error
	switch entityType {
	case models.TypeIngredients:
		_, _, err = s.GetIngredient(ctx, id)
	case models.TypeRecipes:
		_, _, err = s.GetRecipe(ctx, id)
	case models.TypeDishes:
		_, _, err = s.GetDish(ctx, id)
	default:
		return fmt.Errorf("unknown entity type %q", entityType)
	}

	// Запись могли успеть удалить между событием и refetch'ем.
	if httpClient.IsNotFound(err) {
		return s.cache.Delete(ctx, entityType, id)
	}
	return err
}

// deleteWithFallback выполняет удаление с фолбэком в outbox.
func (s *Service) deleteWithFallback(ctx context.Context, entityType, id, path string, remote func(context.Context, string) error) (SaveStatus, error) {
	err := remote(ctx, id)
	if err == nil {
		if cerr := s.cache.Delete(ctx, entityType, id); cerr != nil {
			s.logger.Warn("failed to drop cached record", "entity", entityType, "id", id, "error", cerr)
		}
		return StatusSynced, nil
	}

	if !httpClient.IsConnectivityError(err) {
		return StatusSynced, err
	}

	if err := s.enqueueMutation(ctx, http.MethodDelete, path, nil, entityType, id); err != nil {
		return StatusQueued, err
	}
	if cerr := s.cache.Delete(ctx, entityType, id); cerr != nil {
		s.logger.Warn("failed to drop cached record", "entity", entityType, "id", id, "error", cerr)
	}
	return StatusQueued, nil
}
