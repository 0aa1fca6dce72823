package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/soliluna/soliluna/internal/server/hub"
)

// EventsHandler поднимает websocket-подключения и гонит в них события
// хаба. Протокол односторонний: сервер пишет JSON-события, всё
// прочитанное от клиента игнорируется и служит только детектором
// закрытия соединения.
type EventsHandler struct {
	logger   *slog.Logger
	hub      *hub.Hub
	upgrader websocket.Upgrader
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(logger *slog.Logger, h *hub.Hub) *EventsHandler {
	return &EventsHandler{
		logger: logger,
		hub:    h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Клиенты — нативные приложения, Origin не проверяем.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Subscribe обрабатывает GET /api/events?clientId=<id>
func (h *EventsHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("clientId")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", "error", err)
		return
	}
	defer conn.Close()

	sub := h.hub.Subscribe(clientID)
	if sub == nil {
		// Хаб уже остановлен, сервер закрывается.
		return
	}
	defer h.hub.Unsubscribe(sub)

	// Читатель нужен только чтобы заметить закрытие со стороны клиента.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.logger.Info("events subscriber connected",
		"connection_id", sub.ConnectionID, "client_id", clientID)

	for {
		select {
		case <-closed:
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				h.logger.Debug("events write failed, dropping connection",
					"connection_id", sub.ConnectionID, "error", err)
				return
			}
		}
	}
}
