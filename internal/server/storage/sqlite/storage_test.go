package sqlite

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/soliluna/soliluna/internal/models"
	"github.com/soliluna/soliluna/pkg/api"
)

// setupTestStorage создаёт in-memory хранилище с применёнными миграциями.
func setupTestStorage(t *testing.T) *Storage {
	t.Helper()

	s, err := New(context.Background(), ":memory:")
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})

	return s
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func createTestIngredient(t *testing.T, ctx context.Context, s *Storage) *models.Ingredient {
	t.Helper()

	ing, err := s.CreateIngredient(ctx, api.IngredientCreate{
		ID:       newID(),
		Name:     "Harina",
		PkgSize:  1000,
		PkgUnit:  models.UnitGram,
		PkgPrice: 120,
	})
	require.NoError(t, err)
	return ing
}

func createTestRecipe(t *testing.T, ctx context.Context, s *Storage) *models.Recipe {
	t.Helper()

	recipe, err := s.CreateRecipe(ctx, api.RecipeCreate{
		ID:          newID(),
		Name:        "Bizcocho",
		YieldAmount: 1000,
		YieldUnit:   models.RecipeUnitGram,
	})
	require.NoError(t, err)
	return recipe
}

func TestStorage_Migrations(t *testing.T) {
	s := setupTestStorage(t)

	// Все таблицы каталога должны существовать после goose up.
	for _, table := range []string{
		"ingredients", "recipes", "recipe_ingredients",
		"dishes", "dish_ingredients", "dish_recipes", "tombstones",
	} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, "table %s missing", table)
	}
}

func TestStorage_NextTimestampMonotonic(t *testing.T) {
	s := setupTestStorage(t)

	prev := s.nextTimestamp()
	for i := 0; i < 100; i++ {
		ts := s.nextTimestamp()
		require.Greater(t, ts, prev)
		prev = ts
	}
}
