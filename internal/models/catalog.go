package models

// Имена типов сущностей каталога. Используются как имена bucket'ов в
// локальном кэше, имена таблиц на сервере и значения entity_type в
// tombstone-логе.
const (
	TypeIngredients = "ingredients"
	TypeRecipes     = "recipes"
	TypeDishes      = "dishes"
)

// EntityTypes перечисляет все типы сущностей в порядке применения при
// синхронизации (ингредиенты до рецептов, рецепты до блюд).
var EntityTypes = []string{TypeIngredients, TypeRecipes, TypeDishes}

// KnownType reports whether t is a catalog entity type.
func KnownType(t string) bool {
	return t == TypeIngredients || t == TypeRecipes || t == TypeDishes
}

// Ingredient представляет ингредиент каталога.
// Цены хранятся в центах (120 = 1.20€), чтобы избежать float-арифметики.
type Ingredient struct {
	ID        string  `json:"id"`        // ID клиентский UUIDv7 (сортируемый)
	Name      string  `json:"name"`      // Name название ингредиента
	PkgSize   float64 `json:"pkgSize"`   // PkgSize размер упаковки
	PkgUnit   Unit    `json:"pkgUnit"`   // PkgUnit единица упаковки
	PkgPrice  int64   `json:"pkgPrice"`  // PkgPrice цена упаковки в центах
	CreatedAt string  `json:"createdAt"` // CreatedAt серверный timestamp создания
	UpdatedAt string  `json:"updatedAt"` // UpdatedAt серверный timestamp, concurrency token
}

// EntityID returns the record id.
func (i Ingredient) EntityID() string { return i.ID }

// IngredientUsage использование ингредиента в рецепте или блюде.
type IngredientUsage struct {
	IngredientID string  `json:"ingredientId"`
	Amount       float64 `json:"amount"`
	Unit         Unit    `json:"unit"`
}

// IngredientUsageResolved использование с разрешённым именем и стоимостью.
// Cost == -1 означает, что стоимость вычислить нельзя (ингредиент удалён
// или единицы несовместимы).
type IngredientUsageResolved struct {
	IngredientUsage
	Name string `json:"name"`
	Cost int64  `json:"cost"`
}

// Recipe представляет рецепт с разрешёнными ингредиентами и суммарной
// стоимостью.
type Recipe struct {
	ID          string                    `json:"id"`
	Name        string                    `json:"name"`
	YieldAmount float64                   `json:"yieldAmount"` // YieldAmount выход рецепта
	YieldUnit   RecipeUnit                `json:"yieldUnit"`
	Ingredients []IngredientUsageResolved `json:"ingredients"`
	Cost        int64                     `json:"cost"` // Cost сумма стоимостей ингредиентов, центы
	CreatedAt   string                    `json:"createdAt"`
	UpdatedAt   string                    `json:"updatedAt"`
}

// EntityID returns the record id.
func (r Recipe) EntityID() string { return r.ID }

// RecipeUsage использование рецепта в блюде.
type RecipeUsage struct {
	RecipeID string     `json:"recipeId"`
	Amount   float64    `json:"amount"`
	Unit     RecipeUnit `json:"unit"`
}

// RecipeUsageResolved использование рецепта с именем и стоимостью.
type RecipeUsageResolved struct {
	RecipeUsage
	Name string `json:"name"`
	Cost int64  `json:"cost"`
}

// Dish представляет блюдо: прямые ингредиенты плюс рецепты, с итоговой
// стоимостью и ценой.
type Dish struct {
	ID           string                    `json:"id"`
	Name         string                    `json:"name"`
	Pax          int                       `json:"pax"` // Pax количество персон
	DeliveryDate *string                   `json:"deliveryDate"`
	Notes        string                    `json:"notes"`
	Multiplier   int                       `json:"multiplier"` // Multiplier наценка 1..6
	Ingredients  []IngredientUsageResolved `json:"ingredients"`
	Recipes      []RecipeUsageResolved     `json:"recipes"`
	BaseCost     int64                     `json:"baseCost"`   // BaseCost сумма ингредиентов и рецептов
	FinalPrice   int64                     `json:"finalPrice"` // FinalPrice baseCost * multiplier
	CreatedAt    string                    `json:"createdAt"`
	UpdatedAt    string                    `json:"updatedAt"`
}

// EntityID returns the record id.
func (d Dish) EntityID() string { return d.ID }

// Entity ограничение для generic-хелперов, работающих с любым типом
// записи каталога.
type Entity interface {
	EntityID() string
}
