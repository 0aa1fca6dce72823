// Package hub рассылает realtime-события об изменениях каталога всем
// подключённым websocket-клиентам. Хаб работает как одиночная горутина,
// владеющая всем состоянием, поэтому мьютексы не нужны.
package hub

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/soliluna/soliluna/pkg/api"
)

// DefaultPingInterval период keep-alive пингов.
const DefaultPingInterval = 30 * time.Second

// subscriberBuffer размер буфера канала подписчика. Подписчик, не
// успевающий вычитывать события, отбрасывается при переполнении.
const subscriberBuffer = 16

// Subscription одно websocket-подключение с точки зрения хаба.
type Subscription struct {
	// ConnectionID уникален для подключения и отдаётся клиенту
	// в событии connected.
	ConnectionID string

	clientID string
	events   chan api.Event
}

// Events возвращает канал событий подписки. Канал закрывается при
// отписке или остановке хаба.
func (s *Subscription) Events() <-chan api.Event {
	return s.events
}

// Hub координирует подписчиков и рассылку событий.
type Hub struct {
	logger       *slog.Logger
	pingInterval time.Duration

	subscribe   chan *Subscription
	unsubscribe chan *Subscription
	broadcast   chan broadcastMsg
	done        chan struct{}
}

type broadcastMsg struct {
	// originClientID клиент, породивший изменение. Его собственные
	// подключения событие не получают.
	originClientID string
	event          api.Event
}

// Option настраивает хаб при создании.
type Option func(*Hub)

// WithPingInterval переопределяет период пингов (для тестов).
func WithPingInterval(d time.Duration) Option {
	return func(h *Hub) { h.pingInterval = d }
}

// New создаёт хаб. Рассылка начинает работать после запуска Run.
func New(logger *slog.Logger, opts ...Option) *Hub {
	h := &Hub{
		logger:       logger,
		pingInterval: DefaultPingInterval,
		subscribe:    make(chan *Subscription),
		unsubscribe:  make(chan *Subscription),
		broadcast:    make(chan broadcastMsg),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run крутит цикл хаба до отмены контекста. При выходе все каналы
// подписчиков закрываются, а Subscribe/Unsubscribe/Notify перестают
// блокироваться.
func (h *Hub) Run(ctx context.Context) {
	subs := make(map[*Subscription]struct{})

	ping := time.NewTicker(h.pingInterval)
	defer ping.Stop()

	defer func() {
		close(h.done)
		for sub := range subs {
			close(sub.events)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case sub := <-h.subscribe:
			subs[sub] = struct{}{}
			h.deliver(subs, sub, api.Event{
				Type:         api.EventConnected,
				ConnectionID: sub.ConnectionID,
			})
			h.logger.Debug("subscriber connected",
				"connection_id", sub.ConnectionID, "client_id", sub.clientID, "total", len(subs))

		case sub := <-h.unsubscribe:
			if _, ok := subs[sub]; ok {
				delete(subs, sub)
				close(sub.events)
			}

		case msg := <-h.broadcast:
			for sub := range subs {
				if msg.originClientID != "" && sub.clientID == msg.originClientID {
					continue
				}
				h.deliver(subs, sub, msg.event)
			}

		case <-ping.C:
			for sub := range subs {
				h.deliver(subs, sub, api.Event{Type: api.EventPing})
			}
		}
	}
}

// deliver пишет событие в канал подписчика. Переполненный канал значит,
// что читатель завис или ушёл, такой подписчик удаляется на месте.
func (h *Hub) deliver(subs map[*Subscription]struct{}, sub *Subscription, event api.Event) {
	select {
	case sub.events <- event:
	default:
		delete(subs, sub)
		close(sub.events)
		h.logger.Warn("subscriber dropped, channel full",
			"connection_id", sub.ConnectionID, "client_id", sub.clientID)
	}
}

// Subscribe регистрирует новое подключение. Первым событием в канале
// всегда приходит connected с id подключения. clientID может быть пустым,
// тогда эхо-подавление для этого подписчика не применяется.
// После остановки хаба возвращается nil.
func (h *Hub) Subscribe(clientID string) *Subscription {
	sub := &Subscription{
		ConnectionID: uuid.Must(uuid.NewV7()).String(),
		clientID:     clientID,
		events:       make(chan api.Event, subscriberBuffer),
	}
	select {
	case h.subscribe <- sub:
		return sub
	case <-h.done:
		return nil
	}
}

// Unsubscribe снимает подписку и закрывает её канал событий. После
// остановки хаба не делает ничего: Run уже закрыл все каналы сам.
func (h *Hub) Unsubscribe(sub *Subscription) {
	select {
	case h.unsubscribe <- sub:
	case <-h.done:
	}
}

// Notify рассылает invalidate-событие всем подписчикам, кроме
// подключений клиента originClientID.
func (h *Hub) Notify(originClientID, entity, id, action string) {
	msg := broadcastMsg{
		originClientID: originClientID,
		event: api.Event{
			Type:   api.EventInvalidate,
			Entity: entity,
			ID:     id,
			Action: action,
		},
	}
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}
