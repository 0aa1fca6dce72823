package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/soliluna/soliluna/internal/models"
	"github.com/soliluna/soliluna/internal/server/storage"
	"github.com/soliluna/soliluna/pkg/api"
)

const ingredientColumns = "id, name, pkg_size, pkg_unit, pkg_price, created_at, updated_at"

// ListIngredients returns all ingredients ordered by name
func (s *Storage) ListIngredients(ctx context.Context) ([]models.Ingredient, error) {
	query := `SELECT ` + ingredientColumns + ` FROM ingredients ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingredients: %w", err)
	}
	defer rows.Close()

	return scanIngredients(rows)
}

// GetIngredient returns a single ingredient by id
// Returns storage.ErrNotFound if the id does not exist
func (s *Storage) GetIngredient(ctx context.Context, id string) (*models.Ingredient, error) {
	query := `SELECT ` + ingredientColumns + ` FROM ingredients WHERE id = ?`

	ing, err := scanIngredient(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ingredient: %w", err)
	}

	return ing, nil
}

// CreateIngredient inserts a new ingredient with a fresh server timestamp.
// Существующий tombstone для этого id сохраняется: повторное создание —
// это новая запись с новым updated_at, а не отмена удаления.
func (s *Storage) CreateIngredient(ctx context.Context, req api.IngredientCreate) (*models.Ingredient, error) {
	now := s.nextTimestamp()

	query := `
		INSERT INTO ingredients (id, name, pkg_size, pkg_unit, pkg_price, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		req.ID, req.Name, req.PkgSize, string(req.PkgUnit), req.PkgPrice, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, storage.ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to insert ingredient: %w", err)
	}

	return s.GetIngredient(ctx, req.ID)
}

// UpdateIngredient applies a conditional update: запись меняется одним
// UPDATE с условием `updated_at = token`, без отдельного чтения перед
// записью. Returns storage.ErrConflict if the token is stale.
func (s *Storage) UpdateIngredient(ctx context.Context, id string, req api.IngredientUpdate) (*models.Ingredient, error) {
	now := s.nextTimestamp()

	query := `
		UPDATE ingredients
		SET name = ?, pkg_size = ?, pkg_unit = ?, pkg_price = ?, updated_at = ?
		WHERE id = ? AND updated_at = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		req.Name, req.PkgSize, string(req.PkgUnit), req.PkgPrice, now, id, req.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update ingredient: %w", err)
	}

	if err := checkConditionalWrite(ctx, s.db, result, "ingredients", id); err != nil {
		return nil, err
	}

	return s.GetIngredient(ctx, id)
}

// DeleteIngredient removes the record and appends a tombstone in one
// transaction. Returns storage.ErrInUse if any recipe or dish still
// references the ingredient.
func (s *Storage) DeleteIngredient(ctx context.Context, id string) error {
	if _, err := s.GetIngredient(ctx, id); err != nil {
		return err
	}

	used, err := s.refExists(ctx, "SELECT 1 FROM recipe_ingredients WHERE ingredient_id = ? LIMIT 1", id)
	if err != nil {
		return err
	}
	if used {
		return fmt.Errorf("ingredient is used in one or more recipes: %w", storage.ErrInUse)
	}

	used, err = s.refExists(ctx, "SELECT 1 FROM dish_ingredients WHERE ingredient_id = ? LIMIT 1", id)
	if err != nil {
		return err
	}
	if used {
		return fmt.Errorf("ingredient is used in one or more dishes: %w", storage.ErrInUse)
	}

	return s.deleteWithTombstone(ctx, models.TypeIngredients, id, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "DELETE FROM ingredients WHERE id = ?", id)
		return err
	})
}

// loadIngredientMap загружает весь каталог ингредиентов для разрешения
// стоимостей. Каталог маленький, полная загрузка дешевле точечных запросов.
func (s *Storage) loadIngredientMap(ctx context.Context) (map[string]models.Ingredient, error) {
	items, err := s.ListIngredients(ctx)
	if err != nil {
		return nil, err
	}

	m := make(map[string]models.Ingredient, len(items))
	for _, ing := range items {
		m[ing.ID] = ing
	}
	return m, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIngredient(row rowScanner) (*models.Ingredient, error) {
	var ing models.Ingredient
	var unit string

	err := row.Scan(&ing.ID, &ing.Name, &ing.PkgSize, &unit, &ing.PkgPrice, &ing.CreatedAt, &ing.UpdatedAt)
	if err != nil {
		return nil, err
	}

	ing.PkgUnit = models.Unit(unit)
	return &ing, nil
}

func scanIngredients(rows *sql.Rows) ([]models.Ingredient, error) {
	items := []models.Ingredient{}

	for rows.Next() {
		ing, err := scanIngredient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		items = append(items, *ing)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return items, nil
}
