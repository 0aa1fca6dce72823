package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/soliluna/soliluna/internal/calc"
	"github.com/soliluna/soliluna/internal/models"
	"github.com/soliluna/soliluna/internal/server/storage"
	"github.com/soliluna/soliluna/pkg/api"
)

const recipeColumns = "id, name, yield_amount, yield_unit, created_at, updated_at"

// ListRecipes returns all recipes ordered by name, with resolved
// ingredient costs
func (s *Storage) ListRecipes(ctx context.Context) ([]models.Recipe, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+recipeColumns+` FROM recipes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipes: %w", err)
	}
	defer rows.Close()

	recipes, err := scanRecipes(rows)
	if err != nil {
		return nil, err
	}

	catalog, err := s.loadIngredientMap(ctx)
	if err != nil {
		return nil, err
	}

	for i := range recipes {
		if err := s.resolveRecipe(ctx, &recipes[i], catalog); err != nil {
			return nil, err
		}
	}

	return recipes, nil
}

// GetRecipe returns a single recipe with resolved ingredient costs
// Returns storage.ErrNotFound if the id does not exist
func (s *Storage) GetRecipe(ctx context.Context, id string) (*models.Recipe, error) {
	recipe, err := scanRecipe(s.db.QueryRowContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}

	catalog, err := s.loadIngredientMap(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.resolveRecipe(ctx, recipe, catalog); err != nil {
		return nil, err
	}

	return recipe, nil
}

// CreateRecipe inserts a new recipe with a fresh server timestamp
func (s *Storage) CreateRecipe(ctx context.Context, req api.RecipeCreate) (*models.Recipe, error) {
	now := s.nextTimestamp()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recipes (id, name, yield_amount, yield_unit, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, req.ID, req.Name, req.YieldAmount, string(req.YieldUnit), now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, storage.ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to insert recipe: %w", err)
	}

	return s.GetRecipe(ctx, req.ID)
}

// UpdateRecipe applies a conditional update and replaces the ingredient
// usage list. Метаданные и список использований меняются одной
// транзакцией; при устаревшем token ничего не записывается.
func (s *Storage) UpdateRecipe(ctx context.Context, id string, req api.RecipeUpdate) (*models.Recipe, error) {
	now := s.nextTimestamp()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx, `
		UPDATE recipes
		SET name = ?, yield_amount = ?, yield_unit = ?, updated_at = ?
		WHERE id = ? AND updated_at = ?
	`, req.Name, req.YieldAmount, string(req.YieldUnit), now, id, req.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update recipe: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		// Откатываемся и выясняем, конфликт это или отсутствие записи.
		_ = tx.Rollback()

		if _, err := s.GetRecipe(ctx, id); errors.Is(err, storage.ErrNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, storage.ErrConflict
	}

	// Замена полного списка использований: удаляем старые, вставляем новые.
	if _, err := tx.ExecContext(ctx, "DELETE FROM recipe_ingredients WHERE recipe_id = ?", id); err != nil {
		return nil, fmt.Errorf("failed to clear recipe ingredients: %w", err)
	}

	for _, u := range req.Ingredients {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount, unit)
			VALUES (?, ?, ?, ?)
		`, id, u.IngredientID, u.Amount, string(u.Unit))
		if err != nil {
			return nil, fmt.Errorf("failed to insert recipe ingredient: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit recipe update: %w", err)
	}

	return s.GetRecipe(ctx, id)
}

// DeleteRecipe removes the record and appends a tombstone
// Returns storage.ErrInUse if a dish references the recipe
func (s *Storage) DeleteRecipe(ctx context.Context, id string) error {
	if _, err := s.GetRecipe(ctx, id); err != nil {
		return err
	}

	used, err := s.refExists(ctx, "SELECT 1 FROM dish_recipes WHERE recipe_id = ? LIMIT 1", id)
	if err != nil {
		return err
	}
	if used {
		return fmt.Errorf("recipe is used in one or more dishes: %w", storage.ErrInUse)
	}

	return s.deleteWithTombstone(ctx, models.TypeRecipes, id, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM recipe_ingredients WHERE recipe_id = ?", id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM recipes WHERE id = ?", id)
		return err
	})
}

// resolveRecipe подгружает использования ингредиентов и считает стоимость.
func (s *Storage) resolveRecipe(ctx context.Context, recipe *models.Recipe, catalog map[string]models.Ingredient) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT ingredient_id, amount, unit FROM recipe_ingredients WHERE recipe_id = ?", recipe.ID)
	if err != nil {
		return fmt.Errorf("failed to query recipe ingredients: %w", err)
	}
	defer rows.Close()

	usages, err := scanIngredientUsages(rows)
	if err != nil {
		return err
	}

	recipe.Ingredients = make([]models.IngredientUsageResolved, 0, len(usages))
	for _, u := range usages {
		recipe.Ingredients = append(recipe.Ingredients, calc.ResolveIngredientUsage(u, catalog))
	}

	recipe.Cost = calc.SumCosts(recipe.Ingredients,
		func(u models.IngredientUsageResolved) int64 { return u.Cost })

	return nil
}

func scanRecipe(row rowScanner) (*models.Recipe, error) {
	var r models.Recipe
	var unit string

	err := row.Scan(&r.ID, &r.Name, &r.YieldAmount, &unit, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}

	r.YieldUnit = models.RecipeUnit(unit)
	return &r, nil
}

func scanRecipes(rows *sql.Rows) ([]models.Recipe, error) {
	items := []models.Recipe{}

	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		items = append(items, *r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return items, nil
}

func scanIngredientUsages(rows *sql.Rows) ([]models.IngredientUsage, error) {
	usages := []models.IngredientUsage{}

	for rows.Next() {
		var u models.IngredientUsage
		var unit string
		if err := rows.Scan(&u.IngredientID, &u.Amount, &unit); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient usage: %w", err)
		}
		u.Unit = models.Unit(unit)
		usages = append(usages, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return usages, nil
}
