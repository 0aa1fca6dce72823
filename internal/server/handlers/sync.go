package handlers

import (
	"log/slog"
	"net/http"

	"github.com/soliluna/soliluna/internal/server/storage"
	"github.com/soliluna/soliluna/pkg/api"
)

// SyncHandler handles delta synchronization requests
type SyncHandler struct {
	logger  *slog.Logger
	storage storage.CatalogStorage
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(logger *slog.Logger, st storage.CatalogStorage) *SyncHandler {
	return &SyncHandler{
		logger:  logger,
		storage: st,
	}
}

// Changes обрабатывает GET /api/sync/changes?since=<timestamp>
// Возвращает все записи с updatedAt > since и все tombstone'ы с
// deletedAt > since. Для полной начальной выгрузки клиент передаёт
// нулевой timestamp, параметр обязателен всегда.
func (h *SyncHandler) Changes(w http.ResponseWriter, r *http.Request) {
	since := r.URL.Query().Get("since")
	if since == "" {
		writeError(h.logger, w, http.StatusBadRequest, "since parameter is required", nil)
		return
	}

	changes, err := h.storage.Changes(r.Context(), since)
	if err != nil {
		h.logger.Error("failed to collect changes", "error", err, "since", since)
		writeError(h.logger, w, http.StatusInternalServerError, "internal server error", nil)
		return
	}

	resp := api.ChangesResponse{
		Ingredients: changes.Ingredients,
		Recipes:     changes.Recipes,
		Dishes:      changes.Dishes,
		Deletions:   changes.Deletions,
	}

	h.logger.Debug("delta sync served",
		"since", since,
		"ingredients", len(resp.Ingredients),
		"recipes", len(resp.Recipes),
		"dishes", len(resp.Dishes),
		"deletions", len(resp.Deletions),
	)

	writeData(h.logger, w, http.StatusOK, resp)
}
