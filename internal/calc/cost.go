package calc

import (
	"fmt"
	"math"

	"github.com/soliluna/soliluna/internal/models"
)

// CostUnknown возвращается, когда стоимость вычислить нельзя:
// ингредиент не найден или единицы несовместимы.
const CostUnknown int64 = -1

// UnknownName подставляется вместо имени недоступной записи.
const UnknownName = "(unknown)"

// IngredientCost считает стоимость (в центах) использования количества
// ингредиента.
//
// Формула: round((pkgPrice / pkgSize) × конвертированное количество).
//
// Пример: мука по 120 центов за kg, используем 500g:
//
//	round((120 / 1000) × 500) = 60 центов
func IngredientCost(ing models.Ingredient, amount float64, unit models.Unit) int64 {
	if amount <= 0 {
		return 0
	}

	converted, err := Convert(amount, unit, ing.PkgUnit)
	if err != nil {
		return CostUnknown
	}

	pricePerUnit := float64(ing.PkgPrice) / ing.PkgSize
	return int64(math.Round(pricePerUnit * converted))
}

// RecipeCost считает стоимость (в центах) использования порции рецепта.
//
// Пример: рецепт даёт 1kg и стоит 284 цента; используем 750g:
//
//	round((284 / 1000) × 750) = 213 центов
func RecipeCost(recipe models.Recipe, amount float64) int64 {
	if recipe.YieldAmount <= 0 || amount <= 0 {
		return 0
	}
	return int64(math.Round(float64(recipe.Cost) / recipe.YieldAmount * amount))
}

// ResolveIngredientUsage разрешает использование ингредиента по каталогу:
// подставляет имя и считает стоимость. Неизвестный id даёт CostUnknown.
func ResolveIngredientUsage(usage models.IngredientUsage, catalog map[string]models.Ingredient) models.IngredientUsageResolved {
	ing, ok := catalog[usage.IngredientID]
	if !ok {
		return models.IngredientUsageResolved{
			IngredientUsage: usage,
			Name:            UnknownName,
			Cost:            CostUnknown,
		}
	}

	return models.IngredientUsageResolved{
		IngredientUsage: usage,
		Name:            ing.Name,
		Cost:            IngredientCost(ing, usage.Amount, usage.Unit),
	}
}

// ResolveRecipeUsage разрешает использование рецепта в блюде.
func ResolveRecipeUsage(usage models.RecipeUsage, catalog map[string]models.Recipe) models.RecipeUsageResolved {
	recipe, ok := catalog[usage.RecipeID]
	if !ok {
		return models.RecipeUsageResolved{
			RecipeUsage: usage,
			Name:        UnknownName,
			Cost:        CostUnknown,
		}
	}

	return models.RecipeUsageResolved{
		RecipeUsage: usage,
		Name:        recipe.Name,
		Cost:        RecipeCost(recipe, usage.Amount),
	}
}

// SumCosts складывает стоимости, игнорируя CostUnknown.
func SumCosts[T any](items []T, cost func(T) int64) int64 {
	var total int64
	for _, item := range items {
		if c := cost(item); c >= 0 {
			total += c
		}
	}
	return total
}

// FormatCents форматирует центы в строку в евро: 284 → "2.84".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
