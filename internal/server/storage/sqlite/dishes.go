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

const dishColumns = "id, name, pax, delivery_date, notes, multiplier, created_at, updated_at"

// ListDishes returns all dishes with resolved costs. Блюда без даты
// доставки идут первыми, остальные — по дате, новые сверху.
func (s *Storage) ListDishes(ctx context.Context) ([]models.Dish, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+dishColumns+`
		FROM dishes
		ORDER BY
			CASE WHEN delivery_date IS NULL THEN 0 ELSE 1 END,
			delivery_date DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query dishes: %w", err)
	}
	defer rows.Close()

	dishes, err := scanDishes(rows)
	if err != nil {
		return nil, err
	}

	ingredients, recipes, err := s.loadCostCatalogs(ctx)
	if err != nil {
		return nil, err
	}

	for i := range dishes {
		if err := s.resolveDish(ctx, &dishes[i], ingredients, recipes); err != nil {
			return nil, err
		}
	}

	return dishes, nil
}

// GetDish returns a single dish with resolved costs
// Returns storage.ErrNotFound if the id does not exist
func (s *Storage) GetDish(ctx context.Context, id string) (*models.Dish, error) {
	dish, err := scanDish(s.db.QueryRowContext(ctx,
		`SELECT `+dishColumns+` FROM dishes WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get dish: %w", err)
	}

	ingredients, recipes, err := s.loadCostCatalogs(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.resolveDish(ctx, dish, ingredients, recipes); err != nil {
		return nil, err
	}

	return dish, nil
}

// CreateDish inserts a new dish with a fresh server timestamp.
// Нулевой multiplier в запросе трактуется как 1.
func (s *Storage) CreateDish(ctx context.Context, req api.DishCreate) (*models.Dish, error) {
	now := s.nextTimestamp()

	multiplier := req.Multiplier
	if multiplier == 0 {
		multiplier = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dishes (id, name, pax, delivery_date, notes, multiplier, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, req.ID, req.Name, req.Pax, req.DeliveryDate, req.Notes, multiplier, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, storage.ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to insert dish: %w", err)
	}

	return s.GetDish(ctx, req.ID)
}

// UpdateDish applies a conditional update and replaces both usage lists
func (s *Storage) UpdateDish(ctx context.Context, id string, req api.DishUpdate) (*models.Dish, error) {
	now := s.nextTimestamp()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx, `
		UPDATE dishes
		SET name = ?, pax = ?, delivery_date = ?, notes = ?, multiplier = ?, updated_at = ?
		WHERE id = ? AND updated_at = ?
	`, req.Name, req.Pax, req.DeliveryDate, req.Notes, req.Multiplier, now, id, req.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update dish: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		_ = tx.Rollback()

		if _, err := s.GetDish(ctx, id); errors.Is(err, storage.ErrNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, storage.ErrConflict
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM dish_ingredients WHERE dish_id = ?", id); err != nil {
		return nil, fmt.Errorf("failed to clear dish ingredients: %w", err)
	}
	for _, u := range req.Ingredients {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO dish_ingredients (dish_id, ingredient_id, amount, unit)
			VALUES (?, ?, ?, ?)
		`, id, u.IngredientID, u.Amount, string(u.Unit))
		if err != nil {
			return nil, fmt.Errorf("failed to insert dish ingredient: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM dish_recipes WHERE dish_id = ?", id); err != nil {
		return nil, fmt.Errorf("failed to clear dish recipes: %w", err)
	}
	for _, u := range req.Recipes {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO dish_recipes (dish_id, recipe_id, amount, unit)
			VALUES (?, ?, ?, ?)
		`, id, u.RecipeID, u.Amount, string(u.Unit))
		if err != nil {
			return nil, fmt.Errorf("failed to insert dish recipe: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit dish update: %w", err)
	}

	return s.GetDish(ctx, id)
}

// DeleteDish removes the record and appends a tombstone. На блюдо никто
// не ссылается, поэтому referential-проверок нет.
func (s *Storage) DeleteDish(ctx context.Context, id string) error {
	if _, err := s.GetDish(ctx, id); err != nil {
		return err
	}

	return s.deleteWithTombstone(ctx, models.TypeDishes, id, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM dish_ingredients WHERE dish_id = ?", id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM dish_recipes WHERE dish_id = ?", id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM dishes WHERE id = ?", id)
		return err
	})
}

// loadCostCatalogs загружает каталоги ингредиентов и рецептов для
// разрешения стоимостей блюда.
func (s *Storage) loadCostCatalogs(ctx context.Context) (map[string]models.Ingredient, map[string]models.Recipe, error) {
	ingredients, err := s.loadIngredientMap(ctx)
	if err != nil {
		return nil, nil, err
	}

	recipeList, err := s.ListRecipes(ctx)
	if err != nil {
		return nil, nil, err
	}

	recipes := make(map[string]models.Recipe, len(recipeList))
	for _, r := range recipeList {
		recipes[r.ID] = r
	}

	return ingredients, recipes, nil
}

// resolveDish подгружает оба списка использований и считает стоимость.
func (s *Storage) resolveDish(ctx context.Context, dish *models.Dish, ingredients map[string]models.Ingredient, recipes map[string]models.Recipe) error {
	ingRows, err := s.db.QueryContext(ctx,
		"SELECT ingredient_id, amount, unit FROM dish_ingredients WHERE dish_id = ?", dish.ID)
	if err != nil {
		return fmt.Errorf("failed to query dish ingredients: %w", err)
	}
	defer ingRows.Close()

	ingUsages, err := scanIngredientUsages(ingRows)
	if err != nil {
		return err
	}

	recRows, err := s.db.QueryContext(ctx,
		"SELECT recipe_id, amount, unit FROM dish_recipes WHERE dish_id = ?", dish.ID)
	if err != nil {
		return fmt.Errorf("failed to query dish recipes: %w", err)
	}
	defer recRows.Close()

	recUsages := []models.RecipeUsage{}
	for recRows.Next() {
		var u models.RecipeUsage
		var unit string
		if err := recRows.Scan(&u.RecipeID, &u.Amount, &unit); err != nil {
			return fmt.Errorf("failed to scan recipe usage: %w", err)
		}
		u.Unit = models.RecipeUnit(unit)
		recUsages = append(recUsages, u)
	}
	if err := recRows.Err(); err != nil {
		return fmt.Errorf("rows iteration error: %w", err)
	}

	dish.Ingredients = make([]models.IngredientUsageResolved, 0, len(ingUsages))
	for _, u := range ingUsages {
		dish.Ingredients = append(dish.Ingredients, calc.ResolveIngredientUsage(u, ingredients))
	}

	dish.Recipes = make([]models.RecipeUsageResolved, 0, len(recUsages))
	for _, u := range recUsages {
		dish.Recipes = append(dish.Recipes, calc.ResolveRecipeUsage(u, recipes))
	}

	dish.BaseCost = calc.SumCosts(dish.Ingredients,
		func(u models.IngredientUsageResolved) int64 { return u.Cost }) +
		calc.SumCosts(dish.Recipes,
			func(u models.RecipeUsageResolved) int64 { return u.Cost })
	dish.FinalPrice = dish.BaseCost * int64(dish.Multiplier)

	return nil
}

func scanDish(row rowScanner) (*models.Dish, error) {
	var d models.Dish

	err := row.Scan(&d.ID, &d.Name, &d.Pax, &d.DeliveryDate, &d.Notes, &d.Multiplier, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return &d, nil
}

func scanDishes(rows *sql.Rows) ([]models.Dish, error) {
	items := []models.Dish{}

	for rows.Next() {
		d, err := scanDish(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dish: %w", err)
		}
		items = append(items, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return items, nil
}
