package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soliluna/soliluna/internal/models"
)

func TestIngredientCost(t *testing.T) {
	flour := models.Ingredient{
		ID:       "flour",
		Name:     "Harina",
		PkgSize:  1000,
		PkgUnit:  models.UnitGram,
		PkgPrice: 120, // 1.20€ per kg pack
	}
	eggs := models.Ingredient{
		ID:       "eggs",
		Name:     "Huevos",
		PkgSize:  12,
		PkgUnit:  models.UnitPiece,
		PkgPrice: 240, // 2.40€ per dozen
	}

	tests := []struct {
		name   string
		ing    models.Ingredient
		amount float64
		unit   models.Unit
		want   int64
	}{
		{name: "500g of flour", ing: flour, amount: 500, unit: models.UnitGram, want: 60},
		{name: "half kg of flour via kg", ing: flour, amount: 0.5, unit: models.UnitKilogram, want: 60},
		{name: "4 eggs", ing: eggs, amount: 4, unit: models.UnitPiece, want: 80},
		{name: "zero amount", ing: flour, amount: 0, unit: models.UnitGram, want: 0},
		{name: "incompatible units", ing: flour, amount: 100, unit: models.UnitMilliliter, want: CostUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IngredientCost(tt.ing, tt.amount, tt.unit))
		})
	}
}

func TestRecipeCost(t *testing.T) {
	sponge := models.Recipe{
		ID:          "sponge",
		Name:        "Bizcocho",
		YieldAmount: 1000,
		YieldUnit:   models.RecipeUnitGram,
		Cost:        284,
	}

	assert.Equal(t, int64(213), RecipeCost(sponge, 750))
	assert.Equal(t, int64(284), RecipeCost(sponge, 1000))
	assert.Equal(t, int64(0), RecipeCost(sponge, 0))
	assert.Equal(t, int64(0), RecipeCost(models.Recipe{YieldAmount: 0, Cost: 100}, 50))
}

func TestResolveIngredientUsage(t *testing.T) {
	catalog := map[string]models.Ingredient{
		"flour": {ID: "flour", Name: "Harina", PkgSize: 1000, PkgUnit: models.UnitGram, PkgPrice: 120},
	}

	resolved := ResolveIngredientUsage(models.IngredientUsage{
		IngredientID: "flour",
		Amount:       500,
		Unit:         models.UnitGram,
	}, catalog)
	assert.Equal(t, "Harina", resolved.Name)
	assert.Equal(t, int64(60), resolved.Cost)

	// Удалённый ингредиент не роняет расчёт, а даёт CostUnknown.
	missing := ResolveIngredientUsage(models.IngredientUsage{
		IngredientID: "gone",
		Amount:       100,
		Unit:         models.UnitGram,
	}, catalog)
	assert.Equal(t, UnknownName, missing.Name)
	assert.Equal(t, CostUnknown, missing.Cost)
}

func TestSumCosts(t *testing.T) {
	usages := []models.IngredientUsageResolved{
		{Cost: 60},
		{Cost: CostUnknown}, // ignored
		{Cost: 80},
	}

	total := SumCosts(usages, func(u models.IngredientUsageResolved) int64 { return u.Cost })
	assert.Equal(t, int64(140), total)
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "2.84", FormatCents(284))
	assert.Equal(t, "0.60", FormatCents(60))
	assert.Equal(t, "18.18", FormatCents(1818))
	assert.Equal(t, "-1.05", FormatCents(-105))
}
