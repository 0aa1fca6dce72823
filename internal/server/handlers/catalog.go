package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/soliluna/soliluna/internal/models"
	"github.com/soliluna/soliluna/internal/server/storage"
	"github.com/soliluna/soliluna/pkg/api"
)

// Notifier рассылает invalidate-события подключённым клиентам.
// Подключения клиента originClientID событие не получают: он сам
// породил мутацию и уже применил её локально.
type Notifier interface {
	Notify(originClientID, entity, id, action string)
}

// CatalogHandler обрабатывает CRUD-запросы каталога
type CatalogHandler struct {
	logger   *slog.Logger
	storage  storage.CatalogStorage
	notifier Notifier
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(logger *slog.Logger, st storage.CatalogStorage, notifier Notifier) *CatalogHandler {
	return &CatalogHandler{
		logger:   logger,
		storage:  st,
		notifier: notifier,
	}
}

func (h *CatalogHandler) notify(r *http.Request, entity, id, action string) {
	h.notifier.Notify(r.Header.Get(api.ClientIDHeader), entity, id, action)
}

// writeConflict отвечает 409 и кладёт текущую авторитетную запись в
// поле data, чтобы клиент мог показать её пользователю.
func (h *CatalogHandler) writeConflict(w http.ResponseWriter, current any, getErr error) {
	if getErr != nil {
		h.logger.Error("failed to load current record for conflict response", "error", getErr)
		writeError(h.logger, w, http.StatusConflict, "record was modified by another device", nil)
		return
	}
	writeError(h.logger, w, http.StatusConflict, "record was modified by another device", current)
}

// ListIngredients обрабатывает GET /api/ingredients
func (h *CatalogHandler) ListIngredients(w http.ResponseWriter, r *http.Request) {
	items, err := h.storage.ListIngredients(r.Context())
	if err != nil {
		writeStorageError(h.logger, w, err)
		return
	}
	writeData(h.logger, w, http.StatusOK, items)
}

// GetIngredient обрабатывает GET /api/ingredients/{id}
func (h *CatalogHandler) GetIngredient(w http.ResponseWriter, r *http.Request) {
	item, err := h.storage.GetIngredient(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeStorageError(h.logger, w, err)
		return
	}
	writeData(h.logger, w, http.StatusOK, item)
}

// CreateIngredient обрабатывает POST /api/ingredients
func (h *CatalogHandler) CreateIngredient(w http.ResponseWriter, r *http.Request) {
	var req api.IngredientCreate
	if !decodeBody(w, r, h.logger, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(h.logger, w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	item, err := h.storage.CreateIngredient(r.Context(), req)
	if err != nil {
		writeStorageError(h.logger, w, err)
		return
	}

	h.notify(r, models.TypeIngredients, item.ID, api.ActionCreate)
	writeData(h.logger, w, http.StatusCreated, item)
}

// UpdateIngredient обрабатывает PUT /api/ingredients/{id}
func (h *CatalogHandler) UpdateIngredient(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req api.IngredientUpdate
	if !decodeBody(w, r, h.logger, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(h.logger, w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	item, err := h.storage.UpdateIngredient(r.Context(), id, req)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			current, getErr := h.storage.GetIngredient(r.Context(), id)
			h.writeConflict(w, current, getErr)
			return
		}
		writeStorageError(h.logger, w, err)
		return
	}

	h.notify(r, models.TypeIngredients, id, api.ActionUpdate)
	writeData(h.logger, w, http.StatusOK, item)
}

// DeleteIngredient обрабатывает DELETE /api/ingredients/{id}
func (h *CatalogHandler) DeleteIngredient(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.storage.DeleteIngredient(r.Context(), id); err != nil {
		writeStorageError(h.logger, w, err)
		return
	}

	h.notify(r, models.TypeIngredients, id, api.ActionDelete)
	writeData(h.logger, w, http.StatusOK, map[string]string{"id": id})
}

// ListRecipes обрабатывает GET /api/recipes
func (h *CatalogHandler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	items, err := h.storage.ListRecipes(r.Context())
	if err != nil {
		writeStorageError(h.logger, w, err)
		return
	}
	writeData(h.logger, w, http.StatusOK, items)
}

// GetRecipe обрабатывает GET /api/recipes/{id}
func (h *CatalogHandler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	item, err := h.storage.GetRecipe(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeStorageError(h.logger, w, err)
		return
	}
	writeData(h.logger, w, http.StatusOK, item)
}

// CreateRecipe обрабатывает POST /api/recipes
func (h *CatalogHandler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	var req api.RecipeCreate
	if !decodeBody(w, r, h.logger, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(h.logger, w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	item, err := h.storage.CreateRecipe(r.Context(), req)
	if err != nil {
		writeStorageError(h.logger, w, err)
		return
	}

	h.notify(r, models.TypeRecipes, item.ID, api.ActionCreate)
	writeData(h.logger, w, http.StatusCreated, item)
}

// UpdateRecipe обрабатывает PUT /api/recipes/{id}
func (h *CatalogHandler) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req api.RecipeUpdate
	if !decodeBody(w, r, h.logger, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(h.logger, w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	item, err := h.storage.UpdateRecipe(r.Context(), id, req)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			current, getErr := h.storage.GetRecipe(r.Context(), id)
			h.writeConflict(w, current, getErr)
			return
		}
		writeStorageError(h.logger, w, err)
		return
	}

	h.notify(r, models.TypeRecipes, id, api.ActionUpdate)
	writeData(h.logger, w, http.StatusOK, item)
}

// DeleteRecipe обрабатывает DELETE /api/recipes/{id}
func (h *CatalogHandler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.storage.DeleteRecipe(r.Context(), id); err != nil {
		writeStorageError(h.logger, w, err)
		return
	}

	h.notify(r, models.TypeRecipes, id, api.ActionDelete)
	writeData(h.logger, w, http.StatusOK, map[string]string{"id": id})
}

// ListDishes обрабатывает GET /api/dishes
func (h *CatalogHandler) ListDishes(w http.ResponseWriter, r *http.Request) {
	items, err := h.storage.ListDishes(r.Context())
	if err != nil {
		writeStorageError(h.logger, w, err)
		return
	}
	writeData(h.logger, w, http.StatusOK, items)
}

// GetDish обрабатывает GET /api/dishes/{id}
func (h *CatalogHandler) GetDish(w http.ResponseWriter, r *http.Request) {
	item, err := h.storage.GetDish(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeStorageError(h.logger, w, err)
		return
	}
	writeData(h.logger, w, http.StatusOK, item)
}

// CreateDish обрабатывает POST /api/dishes
func (h *CatalogHandler) CreateDish(w http.ResponseWriter, r *http.Request) {
	var req api.DishCreate
	if !decodeBody(w, r, h.logger, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(h.logger, w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	item, err := h.storage.CreateDish(r.Context(), req)
	if err != nil {
		writeStorageError(h.logger, w, err)
		return
	}

	h.notify(r, models.TypeDishes, item.ID, api.ActionCreate)
	writeData(h.logger, w, http.StatusCreated, item)
}

// UpdateDish обрабатывает PUT /api/dishes/{id}
func (h *CatalogHandler) UpdateDish(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req api.DishUpdate
	if !decodeBody(w, r, h.logger, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(h.logger, w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	item, err := h.storage.UpdateDish(r.Context(), id, req)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			current, getErr := h.storage.GetDish(r.Context(), id)
			h.writeConflict(w, current, getErr)
			return
		}
		writeStorageError(h.logger, w, err)
		return
	}

	h.notify(r, models.TypeDishes, id, api.ActionUpdate)
	writeData(h.logger, w, http.StatusOK, item)
}

// DeleteDish обрабатывает DELETE /api/dishes/{id}
func (h *CatalogHandler) DeleteDish(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.storage.DeleteDish(r.Context(), id); err != nil {
		writeStorageError(h.logger, w, err)
		return
	}

	h.notify(r, models.TypeDishes, id, api.ActionDelete)
	writeData(h.logger, w, http.StatusOK, map[string]string{"id": id})
}

// RegisterRoutes вешает CRUD-маршруты каталога на router.
func (h *CatalogHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/ingredients", h.ListIngredients).Methods(http.MethodGet)
	r.HandleFunc("/api/ingredients", h.CreateIngredient).Methods(http.MethodPost)
	r.HandleFunc("/api/ingredients/{id}", h.GetIngredient).Methods(http.MethodGet)
	r.HandleFunc("/api/ingredients/{id}", h.UpdateIngredient).Methods(http.MethodPut)
	r.HandleFunc("/api/ingredients/{id}", h.DeleteIngredient).Methods(http.MethodDelete)

	r.HandleFunc("/api/recipes", h.ListRecipes).Methods(http.MethodGet)
	r.HandleFunc("/api/recipes", h.CreateRecipe).Methods(http.MethodPost)
	r.HandleFunc("/api/recipes/{id}", h.GetRecipe).Methods(http.MethodGet)
	r.HandleFunc("/api/recipes/{id}", h.UpdateRecipe).Methods(http.MethodPut)
	r.HandleFunc("/api/recipes/{id}", h.DeleteRecipe).Methods(http.MethodDelete)

	r.HandleFunc("/api/dishes", h.ListDishes).Methods(http.MethodGet)
	r.HandleFunc("/api/dishes", h.CreateDish).Methods(http.MethodPost)
	r.HandleFunc("/api/dishes/{id}", h.GetDish).Methods(http.MethodGet)
	r.HandleFunc("/api/dishes/{id}", h.UpdateDish).Methods(http.MethodPut)
	r.HandleFunc("/api/dishes/{id}", h.DeleteDish).Methods(http.MethodDelete)
}
