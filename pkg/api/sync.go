package api

import "github.com/soliluna/soliluna/internal/models"

// ChangesResponse полезная нагрузка GET /api/sync/changes?since=<ts>:
// все записи с updatedAt > since, сгруппированные по типу, плюс все
// tombstone'ы с deletedAt > since.
type ChangesResponse struct {
	Ingredients []models.Ingredient `json:"ingredients"`
	Recipes     []models.Recipe     `json:"recipes"`
	Dishes      []models.Dish       `json:"dishes"`
	Deletions   []models.Tombstone  `json:"deletions"`
}
