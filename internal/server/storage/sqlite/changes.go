package sqlite

import (
	"context"
	"fmt"

	"github.com/soliluna/soliluna/internal/models"
)

// Changes returns every record with updated_at > since plus every
// tombstone with deleted_at > since. Timestamps сравниваются как строки:
// канонический формат упорядочен лексикографически.
//
// Tombstone'ы не истекают: запрос с since на год в прошлое всё ещё
// вернёт удаление.
func (s *Storage) Changes(ctx context.Context, since string) (*models.ChangeSet, error) {
	set := &models.ChangeSet{
		Ingredients: []models.Ingredient{},
		Recipes:     []models.Recipe{},
		Dishes:      []models.Dish{},
		Deletions:   []models.Tombstone{},
	}

	ingRows, err := s.db.QueryContext(ctx,
		`SELECT `+ingredientColumns+` FROM ingredients WHERE updated_at > ? ORDER BY name`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query changed ingredients: %w", err)
	}
	defer ingRows.Close()

	if set.Ingredients, err = scanIngredients(ingRows); err != nil {
		return nil, err
	}

	recRows, err := s.db.QueryContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE updated_at > ? ORDER BY name`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query changed recipes: %w", err)
	}
	defer recRows.Close()

	if set.Recipes, err = scanRecipes(recRows); err != nil {
		return nil, err
	}

	dishRows, err := s.db.QueryContext(ctx,
		`SELECT `+dishColumns+` FROM dishes WHERE updated_at > ? ORDER BY name`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query changed dishes: %w", err)
	}
	defer dishRows.Close()

	if set.Dishes, err = scanDishes(dishRows); err != nil {
		return nil, err
	}

	tombRows, err := s.db.QueryContext(ctx,
		`SELECT entity_type, entity_id, deleted_at FROM tombstones WHERE deleted_at > ?`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query tombstones: %w", err)
	}
	defer tombRows.Close()

	for tombRows.Next() {
		var t models.Tombstone
		if err := tombRows.Scan(&t.EntityType, &t.EntityID, &t.DeletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tombstone: %w", err)
		}
		set.Deletions = append(set.Deletions, t)
	}
	if err := tombRows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	// Изменённые рецепты и блюда отдаются с разрешёнными стоимостями,
	// как и обычные read-эндпоинты.
	ingredients, err := s.loadIngredientMap(ctx)
	if err != nil {
		return nil, err
	}
	for i := range set.Recipes {
		if err := s.resolveRecipe(ctx, &set.Recipes[i], ingredients); err != nil {
			return nil, err
		}
	}

	if len(set.Dishes) > 0 {
		_, recipes, err := s.loadCostCatalogs(ctx)
		if err != nil {
			return nil, err
		}
		for i := range set.Dishes {
			if err := s.resolveDish(ctx, &set.Dishes[i], ingredients, recipes); err != nil {
				return nil, err
			}
		}
	}

	return set, nil
}
