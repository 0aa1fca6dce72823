package sqlite

import (
	"context"
	"fmt"

	"github.com/soliluna/soliluna/pkg/api"
)

// ImportCatalog replaces the whole catalog with the payload contents in
// one transaction. Срез таблиц в порядке зависимостей; tombstone-лог
// очищается тоже: восстановленный каталог начинает историю заново.
func (s *Storage) ImportCatalog(ctx context.Context, payload api.ExportPayload) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	clearStmts := []string{
		"DELETE FROM dish_recipes",
		"DELETE FROM dish_ingredients",
		"DELETE FROM dishes",
		"DELETE FROM recipe_ingredients",
		"DELETE FROM recipes",
		"DELETE FROM ingredients",
		"DELETE FROM tombstones",
	}
	for _, q := range clearStmts {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to clear catalog: %w", err)
		}
	}

	for _, ing := range payload.Ingredients {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ingredients (id, name, pkg_size, pkg_unit, pkg_price, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, ing.ID, ing.Name, ing.PkgSize, string(ing.PkgUnit), ing.PkgPrice, ing.CreatedAt, ing.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import ingredient %s: %w", ing.ID, err)
		}
	}

	for _, rec := range payload.Recipes {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO recipes (id, name, yield_amount, yield_unit, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, rec.ID, rec.Name, rec.YieldAmount, string(rec.YieldUnit), rec.CreatedAt, rec.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import recipe %s: %w", rec.ID, err)
		}

		for _, u := range rec.Ingredients {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount, unit)
				VALUES (?, ?, ?, ?)
			`, rec.ID, u.IngredientID, u.Amount, string(u.Unit))
			if err != nil {
				return fmt.Errorf("failed to import recipe ingredient: %w", err)
			}
		}
	}

	for _, dish := range payload.Dishes {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO dishes (id, name, pax, delivery_date, notes, multiplier, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, dish.ID, dish.Name, dish.Pax, dish.DeliveryDate, dish.Notes, dish.Multiplier,
			dish.CreatedAt, dish.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import dish %s: %w", dish.ID, err)
		}

		for _, u := range dish.Ingredients {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO dish_ingredients (dish_id, ingredient_id, amount, unit)
				VALUES (?, ?, ?, ?)
			`, dish.ID, u.IngredientID, u.Amount, string(u.Unit))
			if err != nil {
				return fmt.Errorf("failed to import dish ingredient: %w", err)
			}
		}

		for _, u := range dish.Recipes {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO dish_recipes (dish_id, recipe_id, amount, unit)
				VALUES (?, ?, ?, ?)
			`, dish.ID, u.RecipeID, u.Amount, string(u.Unit))
			if err != nil {
				return fmt.Errorf("failed to import dish recipe: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}

	return nil
}
