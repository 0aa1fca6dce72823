package storage

import (
	"context"

	"github.com/soliluna/soliluna/internal/models"
	"github.com/soliluna/soliluna/pkg/api"
)

// CatalogStorage определяет интерфейс авторитетного хранилища каталога.
//
// Все timestamp'ы назначает хранилище; updated_at записи — единственный
// concurrency token. Update-методы выполняют атомарный conditional write:
// запись обновляется только если переданный token байт-в-байт совпадает
// с текущим updated_at, иначе возвращается ErrConflict.
type CatalogStorage interface {
	// ListIngredients returns all ingredients ordered by name
	ListIngredients(ctx context.Context) ([]models.Ingredient, error)

	// GetIngredient returns a single ingredient
	// Returns ErrNotFound if the id does not exist
	GetIngredient(ctx context.Context, id string) (*models.Ingredient, error)

	// CreateIngredient inserts a new ingredient with a fresh timestamp
	CreateIngredient(ctx context.Context, req api.IngredientCreate) (*models.Ingredient, error)

	// UpdateIngredient applies a conditional update
	// Returns ErrConflict if req.UpdatedAt is stale, ErrNotFound if missing
	UpdateIngredient(ctx context.Context, id string, req api.IngredientUpdate) (*models.Ingredient, error)

	// DeleteIngredient removes the record and appends a tombstone
	// Returns ErrInUse if the ingredient is referenced by a recipe or dish
	DeleteIngredient(ctx context.Context, id string) error

	// ListRecipes returns all recipes with resolved ingredient costs
	ListRecipes(ctx context.Context) ([]models.Recipe, error)

	// GetRecipe returns a single recipe with resolved ingredient costs
	GetRecipe(ctx context.Context, id string) (*models.Recipe, error)

	// CreateRecipe inserts a new recipe
	CreateRecipe(ctx context.Context, req api.RecipeCreate) (*models.Recipe, error)

	// UpdateRecipe applies a conditional update and replaces the usage list
	UpdateRecipe(ctx context.Context, id string, req api.RecipeUpdate) (*models.Recipe, error)

	// DeleteRecipe removes the record and appends a tombstone
	// Returns ErrInUse if the recipe is referenced by a dish
	DeleteRecipe(ctx context.Context, id string) error

	// ListDishes returns all dishes with resolved costs, newest delivery first
	ListDishes(ctx context.Context) ([]models.Dish, error)

	// GetDish returns a single dish with resolved costs
	GetDish(ctx context.Context, id string) (*models.Dish, error)

	// CreateDish inserts a new dish
	CreateDish(ctx context.Context, req api.DishCreate) (*models.Dish, error)

	// UpdateDish applies a conditional update and replaces both usage lists
	UpdateDish(ctx context.Context, id string, req api.DishUpdate) (*models.Dish, error)

	// DeleteDish removes the record and appends a tombstone
	DeleteDish(ctx context.Context, id string) error

	// Changes returns every record with updated_at > since and every
	// tombstone with deleted_at > since
	Changes(ctx context.Context, since string) (*models.ChangeSet, error)

	// ImportCatalog replaces the whole catalog with the payload contents.
	// Destructive: existing records and tombstones are dropped, record
	// timestamps come from the payload untouched
	ImportCatalog(ctx context.Context, payload api.ExportPayload) error
}
