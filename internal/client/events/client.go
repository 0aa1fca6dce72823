// Package events реализует клиент realtime-канала: websocket-подписку
// на invalidate-события с автоматическим переподключением.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sethvargo/go-retry"

	"github.com/soliluna/soliluna/pkg/api"
)

// ReconnectDelay пауза между попытками переподключения.
const ReconnectDelay = 3 * time.Second

// State состояние подключения.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

// Handler получает каждое событие канала, включая connected и ping.
// Вызывается из горутины клиента: долгую работу уводить в свою.
type Handler func(ev api.Event)

// Client websocket-клиент канала событий. Цикл подключения живёт,
// пока есть хотя бы один подписчик.
type Client struct {
	wsURL  string
	logger *slog.Logger

	mu       sync.Mutex
	handlers map[int]Handler
	nextID   int
	cancel   context.CancelFunc
	done     chan struct{}
	state    State
}

// NewClient создаёт клиент канала событий. baseURL — http(s)-адрес
// сервера, clientID исключает собственные мутации из потока.
func NewClient(baseURL, clientID string, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u = u.JoinPath("/api/events")
	q := u.Query()
	q.Set("clientId", clientID)
	u.RawQuery = q.Encode()

	return &Client{
		wsURL:    u.String(),
		logger:   logger,
		handlers: make(map[int]Handler),
		state:    StateDisconnected,
	}, nil
}

// State возвращает текущее состояние подключения.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Subscribe регистрирует обработчик и возвращает функцию отписки.
// Первый подписчик запускает цикл подключения, последний — гасит его.
func (c *Client) Subscribe(h Handler) func() {
	c.mu.Lock()

	id := c.nextID
	c.nextID++
	c.handlers[id] = h

	if c.cancel == nil {
		ctx, cancel := context.WithCancel(context.Background())
		c.cancel = cancel
		c.done = make(chan struct{})
		go c.run(ctx, c.done)
	}
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { c.unsubscribe(id) })
	}
}

func (c *Client) unsubscribe(id int) {
	c.mu.Lock()
	delete(c.handlers, id)

	var cancel context.CancelFunc
	var done chan struct{}
	if len(c.handlers) == 0 && c.cancel != nil {
		cancel = c.cancel
		done = c.done
		c.cancel = nil
		c.done = nil
	}
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// dispatch рассылает событие всем текущим подписчикам.
func (c *Client) dispatch(ev api.Event) {
	c.mu.Lock()
	handlers := make([]Handler, 0, len(c.handlers))
	for _, h := range c.handlers {
		handlers = append(handlers, h)
	}
	c.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}

// run держит подключение живым: каждый обрыв — новая попытка через
// постоянную паузу, пока контекст не отменён.
func (c *Client) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer c.setState(StateDisconnected)

	backoff := retry.NewConstant(ReconnectDelay)
	_ = retry.Do(ctx, backoff, func(ctx context.Context) error {
		c.setState(StateConnecting)

		conn, resp, err := websocket.DefaultDialer.DialContext(ctx, c.wsURL, nil)
		if err != nil {
			if resp != nil {
				_ = resp.Body.Close()
			}
			c.setState(StateDisconnected)
			c.logger.Debug("events dial failed, will retry", "error", err)
			return retry.RetryableError(err)
		}
		defer conn.Close()

		c.setState(StateConnected)
		c.logger.Info("events channel connected")

		// Закрываем соединение при отмене контекста, чтобы разбудить
		// блокирующий ReadJSON.
		stop := make(chan struct{})
		defer close(stop)
		go func() {
			select {
			case <-ctx.Done():
				_ = conn.Close()
			case <-stop:
			}
		}()

		for {
			var ev api.Event
			if err := conn.ReadJSON(&ev); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.setState(StateDisconnected)
				c.logger.Warn("events channel lost, reconnecting", "error", err)
				return retry.RetryableError(err)
			}
			c.dispatch(ev)
		}
	})
}
