package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/soliluna/soliluna/internal/models"
	"github.com/soliluna/soliluna/pkg/api"
)

// ListIngredients возвращает все ингредиенты
func (c *Client) ListIngredients(ctx context.Context) ([]models.Ingredient, error) {
	var items []models.Ingredient
	if err := c.getDeduped(ctx, "/api/ingredients", &items); err != nil {
		return nil, fmt.Errorf("list ingredients failed: %w", err)
	}
	return items, nil
}

// GetIngredient возвращает один ингредиент
func (c *Client) GetIngredient(ctx context.Context, id string) (*models.Ingredient, error) {
	var item models.Ingredient
	if err := c.getDeduped(ctx, "/api/ingredients/"+url.PathEscape(id), &item); err != nil {
		return nil, fmt.Errorf("get ingredient failed: %w", err)
	}
	return &item, nil
}

// CreateIngredient создаёт ингредиент
func (c *Client) CreateIngredient(ctx context.Context, req api.IngredientCreate) (*models.Ingredient, error) {
	var item models.Ingredient
	if err := c.do(ctx, http.MethodPost, "/api/ingredients", req, &item); err != nil {
		return nil, fmt.Errorf("create ingredient failed: %w", err)
	}
	return &item, nil
}

// UpdateIngredient обновляет ингредиент с проверкой concurrency token
func (c *Client) UpdateIngredient(ctx context.Context, id string, req api.IngredientUpdate) (*models.Ingredient, error) {
	var item models.Ingredient
	if err := c.do(ctx, http.MethodPut, "/api/ingredients/"+url.PathEscape(id), req, &item); err != nil {
		return nil, fmt.Errorf("update ingredient failed: %w", err)
	}
	return &item, nil
}

// DeleteIngredient удаляет ингредиент
func (c *Client) DeleteIngredient(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/ingredients/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete ingredient failed: %w", err)
	}
	return nil
}

// ListRecipes возвращает все рецепты с рассчитанной стоимостью
func (c *Client) ListRecipes(ctx context.Context) ([]models.Recipe, error) {
	var items []models.Recipe
	if err := c.getDeduped(ctx, "/api/recipes", &items); err != nil {
		return nil, fmt.Errorf("list recipes failed: %w", err)
	}
	return items, nil
}

// GetRecipe возвращает один рецепт
func (c *Client) GetRecipe(ctx context.Context, id string) (*models.Recipe, error) {
	var item models.Recipe
	if err := c.getDeduped(ctx, "/api/recipes/"+url.PathEscape(id), &item); err != nil {
		return nil, fmt.Errorf("get recipe failed: %w", err)
	}
	return &item, nil
}

// CreateRecipe создаёт рецепт
func (c *Client) CreateRecipe(ctx context.Context, req api.RecipeCreate) (*models.Recipe, error) {
	var item models.Recipe
	if err := c.do(ctx, http.MethodPost, "/api/recipes", req, &item); err != nil {
		return nil, fmt.Errorf("create recipe failed: %w", err)
	}
	return &item, nil
}

// UpdateRecipe обновляет рецепт и его список ингредиентов
func (c *Client) UpdateRecipe(ctx context.Context, id string, req api.RecipeUpdate) (*models.Recipe, error) {
	var item models.Recipe
	if err := c.do(ctx, http.MethodPut, "/api/recipes/"+url.PathEscape(id), req, &item); err != nil {
		return nil, fmt.Errorf("update recipe failed: %w", err)
	}
	return &item, nil
}

// DeleteRecipe удаляет рецепт
func (c *Client) DeleteRecipe(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/recipes/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete recipe failed: %w", err)
	}
	return nil
}

// ListDishes возвращает все блюда
func (c *Client) ListDishes(ctx context.Context) ([]models.Dish, error) {
	var items []models.Dish
	if err := c.getDeduped(ctx, "/api/dishes", &items); err != nil {
		return nil, fmt.Errorf("list dishes failed: %w", err)
	}
	return items, nil
}

// GetDish возвращает одно блюдо
func (c *Client) GetDish(ctx context.Context, id string) (*models.Dish, error) {
	var item models.Dish
	if err := c.getDeduped(ctx, "/api/dishes/"+url.PathEscape(id), &item); err != nil {
		return nil, fmt.Errorf("get dish failed: %w", err)
	}
	return &item, nil
}

// CreateDish создаёт блюдо
func (c *Client) CreateDish(ctx context.Context, req api.DishCreate) (*models.Dish, error) {
	var item models.Dish
	if err := c.do(ctx, http.MethodPost, "/api/dishes", req, &item); err != nil {
		return nil, fmt.Errorf("create dish failed: %w", err)
	}
	return &item, nil
}

// UpdateDish обновляет блюдо и оба списка использований
func (c *Client) UpdateDish(ctx context.Context, id string, req api.DishUpdate) (*models.Dish, error) {
	var item models.Dish
	if err := c.do(ctx, http.MethodPut, "/api/dishes/"+url.PathEscape(id), req, &item); err != nil {
		return nil, fmt.Errorf("update dish failed: %w", err)
	}
	return &item, nil
}

// DeleteDish удаляет блюдо
func (c *Client) DeleteDish(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/dishes/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete dish failed: %w", err)
	}
	return nil
}

// GetChanges возвращает дельту изменений с указанного курсора
func (c *Client) GetChanges(ctx context.Context, since string) (*api.ChangesResponse, error) {
	var resp api.ChangesResponse
	path := "/api/sync/changes?since=" + url.QueryEscape(since)
	if err := c.getDeduped(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("get changes failed: %w", err)
	}
	return &resp, nil
}
