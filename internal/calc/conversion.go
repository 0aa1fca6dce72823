// Package calc реализует конвертацию единиц и расчёт стоимости
// ингредиентов, рецептов и блюд. Все денежные значения — целые центы.
package calc

import (
	"fmt"

	"github.com/soliluna/soliluna/internal/models"
)

// Факторы приведения к базовой единице семьи:
// объём — ml, вес — g. Штуки не конвертируются.
var toBase = map[models.Unit]float64{
	models.UnitMilliliter: 1,
	models.UnitLiter:      1000,
	models.UnitGram:       1,
	models.UnitKilogram:   1000,
}

func sameFamily(a, b models.Unit) bool {
	volume := func(u models.Unit) bool { return u == models.UnitLiter || u == models.UnitMilliliter }
	weight := func(u models.Unit) bool { return u == models.UnitKilogram || u == models.UnitGram }

	switch {
	case volume(a) && volume(b):
		return true
	case weight(a) && weight(b):
		return true
	case a == models.UnitPiece && b == models.UnitPiece:
		return true
	}
	return false
}

// Convert переводит количество из одной единицы в другую.
// Работает только внутри одной семьи (вес↔вес, объём↔объём).
func Convert(amount float64, from, to models.Unit) (float64, error) {
	if from == to {
		return amount, nil
	}

	if !sameFamily(from, to) {
		return 0, fmt.Errorf("cannot convert %s to %s: incompatible units", from, to)
	}

	if from == models.UnitPiece || to == models.UnitPiece {
		return amount, nil
	}

	return amount * toBase[from] / toBase[to], nil
}
