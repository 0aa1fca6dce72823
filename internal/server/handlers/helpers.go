// Package handlers содержит HTTP-обработчики каталога: CRUD по трём
// сущностям, дельта-синхронизация и websocket-канал invalidate-событий.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/soliluna/soliluna/internal/server/storage"
	"github.com/soliluna/soliluna/pkg/api"
)

// dataEnvelope успешный ответ всегда завёрнут в {"data": ...}.
type dataEnvelope struct {
	Data any `json:"data"`
}

// writeData сериализует успешный ответ в стандартный конверт.
func writeData(logger *slog.Logger, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(dataEnvelope{Data: v}); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// writeError сериализует ответ об ошибке. data опционально несёт
// текущую авторитетную запись (для 409).
func writeError(logger *slog.Logger, w http.ResponseWriter, status int, msg string, data any) {
	resp := api.ErrorResponse{Error: msg}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			logger.Error("failed to marshal conflict payload", "error", err)
		} else {
			resp.Data = raw
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("failed to encode error response", "error", err)
	}
}

// writeStorageError переводит ошибки хранилища в HTTP-статусы.
// ErrConflict обрабатывается вызывающим отдельно: ему нужна текущая
// запись в теле ответа.
func writeStorageError(logger *slog.Logger, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(logger, w, http.StatusNotFound, "not found", nil)
	case errors.Is(err, storage.ErrAlreadyExists):
		writeError(logger, w, http.StatusConflict, "record with this id already exists", nil)
	case errors.Is(err, storage.ErrInUse):
		writeError(logger, w, http.StatusConflict, err.Error(), nil)
	default:
		logger.Error("storage operation failed", "error", err)
		writeError(logger, w, http.StatusInternalServerError, "internal server error", nil)
	}
}

// decodeBody парсит JSON-тело запроса в v.
func decodeBody(w http.ResponseWriter, r *http.Request, logger *slog.Logger, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(logger, w, http.StatusBadRequest, "invalid JSON body", nil)
		return false
	}
	return true
}
