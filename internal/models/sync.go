package models

import "time"

// TimestampLayout канонический формат всех timestamp'ов системы:
// UTC с миллисекундами и суффиксом Z. Строки в этом формате упорядочены
// лексикографически, поэтому сравнение `>` в SQL и сравнение байт-в-байт
// concurrency token'ов корректны без парсинга.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// ZeroTimestamp значение курсора до первой синхронизации.
const ZeroTimestamp = "1970-01-01T00:00:00.000Z"

// FormatTimestamp форматирует момент времени в канонический формат.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp разбирает строку канонического формата.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(TimestampLayout, s)
}

// Tombstone фиксирует удаление записи. Хранится бессрочно, чтобы другие
// устройства узнали "этот id удалён", а не просто "отсутствует".
type Tombstone struct {
	EntityType string `json:"entityType"`
	EntityID   string `json:"entityId"`
	DeletedAt  string `json:"deletedAt"`
}

// ChangeSet результат дельта-синхронизации: всё, что изменилось после
// заданного момента, сгруппированное по типу, плюс удаления.
type ChangeSet struct {
	Ingredients []Ingredient `json:"ingredients"`
	Recipes     []Recipe     `json:"recipes"`
	Dishes      []Dish       `json:"dishes"`
	Deletions   []Tombstone  `json:"deletions"`
}
