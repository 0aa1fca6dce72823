package models

// Unit измерения ингредиента. Вес и объём конвертируются внутри своей
// семьи, "u" (штуки) не конвертируется.
type Unit string

const (
	UnitLiter      Unit = "l"
	UnitMilliliter Unit = "ml"
	UnitKilogram   Unit = "kg"
	UnitGram       Unit = "g"
	UnitPiece      Unit = "u"
)

// Units перечисляет все допустимые единицы ингредиентов.
var Units = []Unit{UnitLiter, UnitMilliliter, UnitKilogram, UnitGram, UnitPiece}

// Valid reports whether u is a known ingredient unit.
func (u Unit) Valid() bool {
	switch u {
	case UnitLiter, UnitMilliliter, UnitKilogram, UnitGram, UnitPiece:
		return true
	}
	return false
}

// RecipeUnit единица выхода рецепта.
type RecipeUnit string

const (
	RecipeUnitPax      RecipeUnit = "PAX"
	RecipeUnitKilogram RecipeUnit = "kg"
	RecipeUnitGram     RecipeUnit = "g"
)

// RecipeUnits перечисляет все допустимые единицы рецептов.
var RecipeUnits = []RecipeUnit{RecipeUnitPax, RecipeUnitKilogram, RecipeUnitGram}

// Valid reports whether u is a known recipe unit.
func (u RecipeUnit) Valid() bool {
	switch u {
	case RecipeUnitPax, RecipeUnitKilogram, RecipeUnitGram:
		return true
	}
	return false
}
