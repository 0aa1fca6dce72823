package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/soliluna/soliluna/internal/models"
	"github.com/soliluna/soliluna/internal/server/storage"
	"github.com/soliluna/soliluna/pkg/api"
)

// DataHandler handles whole-catalog backup and restore
type DataHandler struct {
	logger  *slog.Logger
	storage storage.CatalogStorage
}

// NewDataHandler creates a new data handler
func NewDataHandler(logger *slog.Logger, st storage.CatalogStorage) *DataHandler {
	return &DataHandler{
		logger:  logger,
		storage: st,
	}
}

// RegisterRoutes вешает маршруты экспорта и импорта на router.
func (h *DataHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/data/export", h.Export).Methods(http.MethodGet)
	router.HandleFunc("/api/data/import", h.Import).Methods(http.MethodPost)
}

// Export обрабатывает GET /api/data/export
// Отдаёт полный снимок каталога одним JSON-объектом.
func (h *DataHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ingredients, err := h.storage.ListIngredients(ctx)
	if err != nil {
		h.logger.Error("export failed", "error", err)
		writeError(h.logger, w, http.StatusInternalServerError, "internal server error", nil)
		return
	}
	recipes, err := h.storage.ListRecipes(ctx)
	if err != nil {
		h.logger.Error("export failed", "error", err)
		writeError(h.logger, w, http.StatusInternalServerError, "internal server error", nil)
		return
	}
	dishes, err := h.storage.ListDishes(ctx)
	if err != nil {
		h.logger.Error("export failed", "error", err)
		writeError(h.logger, w, http.StatusInternalServerError, "internal server error", nil)
		return
	}

	payload := api.ExportPayload{
		Version:     api.ExportVersion,
		ExportedAt:  models.FormatTimestamp(time.Now()),
		Ingredients: ingredients,
		Recipes:     recipes,
		Dishes:      dishes,
	}

	h.logger.Info("catalog exported",
		"ingredients", len(ingredients), "recipes", len(recipes), "dishes", len(dishes))

	writeData(h.logger, w, http.StatusOK, payload)
}

// Import обрабатывает POST /api/data/import
// Полностью замещает каталог содержимым экспорта. Деструктивно: текущие
// записи и tombstone-лог удаляются.
func (h *DataHandler) Import(w http.ResponseWriter, r *http.Request) {
	var payload api.ExportPayload
	if !decodeBody(w, r, h.logger, &payload) {
		return
	}

	if err := payload.Validate(); err != nil {
		writeError(h.logger, w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	if err := h.storage.ImportCatalog(r.Context(), payload); err != nil {
		h.logger.Error("import failed", "error", err)
		writeError(h.logger, w, http.StatusInternalServerError, "internal server error", nil)
		return
	}

	h.logger.Info("catalog imported",
		"ingredients", len(payload.Ingredients),
		"recipes", len(payload.Recipes),
		"dishes", len(payload.Dishes))

	writeData(h.logger, w, http.StatusOK, map[string]string{"message": "import complete"})
}
