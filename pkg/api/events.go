package api

// Типы realtime-событий, которые сервер пишет в websocket-канал.
const (
	// EventConnected отправляется один раз сразу после подписки.
	EventConnected = "connected"
	// EventPing периодический keep-alive, защищает от idle-timeout'ов.
	EventPing = "ping"
	// EventInvalidate уведомляет, что запись изменилась на сервере.
	EventInvalidate = "invalidate"
)

// Действия, породившие invalidate-событие.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Event одно realtime-событие. Поля Entity/ID/Action заполнены только
// для EventInvalidate, ConnectionID — только для EventConnected.
type Event struct {
	Type         string `json:"type"`
	ConnectionID string `json:"connectionId,omitempty"`
	Entity       string `json:"entity,omitempty"`
	ID           string `json:"id,omitempty"`
	Action       string `json:"action,omitempty"`
}
