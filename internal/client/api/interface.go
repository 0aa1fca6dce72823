package api

import (
	"context"
	"encoding/json"

	"github.com/soliluna/soliluna/internal/models"
	"github.com/soliluna/soliluna/pkg/api"
)

// ClientAPI определяет интерфейс API клиента для тестирования
type ClientAPI interface {
	ListIngredients(ctx context.Context) ([]models.Ingredient, error)
	GetIngredient(ctx context.Context, id string) (*models.Ingredient, error)
	CreateIngredient(ctx context.Context, req api.IngredientCreate) (*models.Ingredient, error)
	UpdateIngredient(ctx context.Context, id string, req api.IngredientUpdate) (*models.Ingredient, error)
	DeleteIngredient(ctx context.Context, id string) error

	ListRecipes(ctx context.Context) ([]models.Recipe, error)
	GetRecipe(ctx context.Context, id string) (*models.Recipe, error)
	CreateRecipe(ctx context.Context, req api.RecipeCreate) (*models.Recipe, error)
	UpdateRecipe(ctx context.Context, id string, req api.RecipeUpdate) (*models.Recipe, error)
	DeleteRecipe(ctx context.Context, id string) error

	ListDishes(ctx context.Context) ([]models.Dish, error)
	GetDish(ctx context.Context, id string) (*models.Dish, error)
	CreateDish(ctx context.Context, req api.DishCreate) (*models.Dish, error)
	UpdateDish(ctx context.Context, id string, req api.DishUpdate) (*models.Dish, error)
	DeleteDish(ctx context.Context, id string) error

	GetChanges(ctx context.Context, since string) (*api.ChangesResponse, error)
	Replay(ctx context.Context, method, path string, body json.RawMessage) error
}

// компайл-тайм проверка соответствия
var _ ClientAPI = (*Client)(nil)
