package api

import (
	"fmt"

	"github.com/soliluna/soliluna/internal/models"
)

// ExportVersion версия формата полного экспорта каталога.
const ExportVersion = 1

// ExportPayload полный снимок каталога: ответ GET /api/data/export и
// тело POST /api/data/import. Timestamps записей сохраняются как есть,
// чтобы восстановленный каталог не выглядел для клиентов полностью
// обновлённым.
type ExportPayload struct {
	Version     int                 `json:"version"`
	ExportedAt  string              `json:"exportedAt"`
	Ingredients []models.Ingredient `json:"ingredients"`
	Recipes     []models.Recipe     `json:"recipes"`
	Dishes      []models.Dish       `json:"dishes"`
}

// Validate проверяет версию формата перед импортом.
func (p ExportPayload) Validate() error {
	if p.Version != ExportVersion {
		return fmt.Errorf("unsupported export version %d", p.Version)
	}
	return nil
}
