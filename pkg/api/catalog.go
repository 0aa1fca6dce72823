// Package api содержит wire-типы HTTP API, общие для клиента и сервера.
package api

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/soliluna/soliluna/internal/models"
)

// ClientIDHeader заголовок с идентификатором устройства-отправителя.
// Сервер исключает этого клиента из broadcast'а invalidate-события,
// порождённого его же мутацией.
const ClientIDHeader = "X-Client-Id"

// ErrorResponse стандартный ответ об ошибке. Для конфликтов (409) Data
// содержит текущую авторитетную запись, чтобы клиент показал пользователю,
// что изменилось.
type ErrorResponse struct {
	Error string          `json:"error"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// IngredientCreate тело POST /api/ingredients. ID генерирует клиент.
type IngredientCreate struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	PkgSize  float64     `json:"pkgSize"`
	PkgUnit  models.Unit `json:"pkgUnit"`
	PkgPrice int64       `json:"pkgPrice"`
}

// Validate проверяет поля запроса.
func (r IngredientCreate) Validate() error {
	if r.ID == "" {
		return errors.New("id is required")
	}
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.PkgSize <= 0 {
		return errors.New("pkgSize must be positive")
	}
	if !r.PkgUnit.Valid() {
		return fmt.Errorf("unknown unit %q", r.PkgUnit)
	}
	if r.PkgPrice < 0 {
		return errors.New("pkgPrice must be non-negative")
	}
	return nil
}

// IngredientUpdate тело PUT /api/ingredients/{id}. UpdatedAt — последний
// известный клиенту серверный timestamp, он же concurrency token.
type IngredientUpdate struct {
	Name      string      `json:"name"`
	PkgSize   float64     `json:"pkgSize"`
	PkgUnit   models.Unit `json:"pkgUnit"`
	PkgPrice  int64       `json:"pkgPrice"`
	UpdatedAt string      `json:"updatedAt"`
}

// Validate проверяет поля запроса.
func (r IngredientUpdate) Validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.PkgSize <= 0 {
		return errors.New("pkgSize must be positive")
	}
	if !r.PkgUnit.Valid() {
		return fmt.Errorf("unknown unit %q", r.PkgUnit)
	}
	if r.PkgPrice < 0 {
		return errors.New("pkgPrice must be non-negative")
	}
	if r.UpdatedAt == "" {
		return errors.New("updatedAt token is required")
	}
	return nil
}

// RecipeCreate тело POST /api/recipes.
type RecipeCreate struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	YieldAmount float64           `json:"yieldAmount"`
	YieldUnit   models.RecipeUnit `json:"yieldUnit"`
}

// Validate проверяет поля запроса.
func (r RecipeCreate) Validate() error {
	if r.ID == "" {
		return errors.New("id is required")
	}
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.YieldAmount <= 0 {
		return errors.New("yieldAmount must be positive")
	}
	if !r.YieldUnit.Valid() {
		return fmt.Errorf("unknown recipe unit %q", r.YieldUnit)
	}
	return nil
}

// RecipeUpdate тело PUT /api/recipes/{id}: метаданные плюс полный список
// использований ингредиентов (замена, не merge).
type RecipeUpdate struct {
	Name        string                   `json:"name"`
	YieldAmount float64                  `json:"yieldAmount"`
	YieldUnit   models.RecipeUnit        `json:"yieldUnit"`
	Ingredients []models.IngredientUsage `json:"ingredients"`
	UpdatedAt   string                   `json:"updatedAt"`
}

// Validate проверяет поля запроса.
func (r RecipeUpdate) Validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.YieldAmount <= 0 {
		return errors.New("yieldAmount must be positive")
	}
	if !r.YieldUnit.Valid() {
		return fmt.Errorf("unknown recipe unit %q", r.YieldUnit)
	}
	for _, u := range r.Ingredients {
		if err := validateIngredientUsage(u); err != nil {
			return err
		}
	}
	if r.UpdatedAt == "" {
		return errors.New("updatedAt token is required")
	}
	return nil
}

// DishCreate тело POST /api/dishes.
type DishCreate struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Pax          int     `json:"pax"`
	DeliveryDate *string `json:"deliveryDate,omitempty"`
	Notes        string  `json:"notes"`
	Multiplier   int     `json:"multiplier"`
}

// Validate проверяет поля запроса. Нулевой multiplier трактуется как 1
// на стороне сервера.
func (r DishCreate) Validate() error {
	if r.ID == "" {
		return errors.New("id is required")
	}
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.Pax <= 0 {
		return errors.New("pax must be positive")
	}
	if r.Multiplier != 0 && (r.Multiplier < 1 || r.Multiplier > 6) {
		return errors.New("multiplier must be between 1 and 6")
	}
	return nil
}

// DishUpdate тело PUT /api/dishes/{id}.
type DishUpdate struct {
	Name         string                   `json:"name"`
	Pax          int                      `json:"pax"`
	DeliveryDate *string                  `json:"deliveryDate,omitempty"`
	Notes        string                   `json:"notes"`
	Multiplier   int                      `json:"multiplier"`
	Ingredients  []models.IngredientUsage `json:"ingredients"`
	Recipes      []models.RecipeUsage     `json:"recipes"`
	UpdatedAt    string                   `json:"updatedAt"`
}

// Validate проверяет поля запроса.
func (r DishUpdate) Validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.Pax <= 0 {
		return errors.New("pax must be positive")
	}
	if r.Multiplier < 1 || r.Multiplier > 6 {
		return errors.New("multiplier must be between 1 and 6")
	}
	for _, u := range r.Ingredients {
		if err := validateIngredientUsage(u); err != nil {
			return err
		}
	}
	for _, u := range r.Recipes {
		if u.RecipeID == "" {
			return errors.New("recipeId is required")
		}
		if u.Amount <= 0 {
			return errors.New("recipe usage amount must be positive")
		}
		if !u.Unit.Valid() {
			return fmt.Errorf("unknown recipe unit %q", u.Unit)
		}
	}
	if r.UpdatedAt == "" {
		return errors.New("updatedAt token is required")
	}
	return nil
}

func validateIngredientUsage(u models.IngredientUsage) error {
	if u.IngredientID == "" {
		return errors.New("ingredientId is required")
	}
	if u.Amount <= 0 {
		return errors.New("ingredient usage amount must be positive")
	}
	if !u.Unit.Valid() {
		return fmt.Errorf("unknown unit %q", u.Unit)
	}
	return nil
}
