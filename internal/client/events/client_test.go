package events

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soliluna/soliluna/internal/server/handlers"
	"github.com/soliluna/soliluna/internal/server/hub"
	"github.com/soliluna/soliluna/pkg/api"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startEventsServer поднимает настоящий hub с websocket-эндпоинтом.
func startEventsServer(t *testing.T) (*httptest.Server, *hub.Hub) {
	t.Helper()

	logger := testLogger()
	eventsHub := hub.New(logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		eventsHub.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	router := mux.NewRouter()
	router.HandleFunc("/api/events",
		handlers.NewEventsHandler(logger, eventsHub).Subscribe).Methods(http.MethodGet)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return srv, eventsHub
}

func collectEvents(t *testing.T, c *Client) (<-chan api.Event, func()) {
	t.Helper()

	events := make(chan api.Event, 32)
	unsubscribe := c.Subscribe(func(ev api.Event) {
		events <- ev
	})
	return events, unsubscribe
}

func waitEvent(t *testing.T, events <-chan api.Event) api.Event {
	t.Helper()

	select {
	case ev := <-events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return api.Event{}
	}
}

func TestClient_ReceivesConnectedAndInvalidate(t *testing.T) {
	srv, eventsHub := startEventsServer(t)

	c, err := NewClient(srv.URL, "client-a", testLogger())
	require.NoError(t, err)

	events, unsubscribe := collectEvents(t, c)
	defer unsubscribe()

	ev := waitEvent(t, events)
	assert.Equal(t, api.EventConnected, ev.Type)
	assert.NotEmpty(t, ev.ConnectionID)
	assert.Equal(t, StateConnected, c.State())

	eventsHub.Notify("client-b", "recipes", "r1", api.ActionUpdate)

	ev = waitEvent(t, events)
	assert.Equal(t, api.EventInvalidate, ev.Type)
	assert.Equal(t, "recipes", ev.Entity)
	assert.Equal(t, "r1", ev.ID)
}

func TestClient_OwnMutationsSuppressed(t *testing.T) {
	srv, eventsHub := startEventsServer(t)

	c, err := NewClient(srv.URL, "client-a", testLogger())
	require.NoError(t, err)

	events, unsubscribe := collectEvents(t, c)
	defer unsubscribe()

	require.Equal(t, api.EventConnected, waitEvent(t, events).Type)

	// Событие нашей же мутации не приходит, чужое приходит.
	eventsHub.Notify("client-a", "dishes", "d1", api.ActionDelete)
	eventsHub.Notify("client-b", "dishes", "d2", api.ActionDelete)

	ev := waitEvent(t, events)
	assert.Equal(t, "d2", ev.ID)
}

func TestClient_UnsubscribeStopsLoop(t *testing.T) {
	srv, _ := startEventsServer(t)

	c, err := NewClient(srv.URL, "client-a", testLogger())
	require.NoError(t, err)

	events, unsubscribe := collectEvents(t, c)
	require.Equal(t, api.EventConnected, waitEvent(t, events).Type)

	unsubscribe()
	unsubscribe() // повторная отписка безопасна

	assert.Eventually(t, func() bool {
		return c.State() == StateDisconnected
	}, 2*time.Second, 20*time.Millisecond)
}

func TestClient_SecondSubscriberSharesConnection(t *testing.T) {
	srv, eventsHub := startEventsServer(t)

	c, err := NewClient(srv.URL, "client-a", testLogger())
	require.NoError(t, err)

	first, unsubFirst := collectEvents(t, c)
	defer unsubFirst()
	require.Equal(t, api.EventConnected, waitEvent(t, first).Type)

	second, unsubSecond := collectEvents(t, c)
	defer unsubSecond()

	eventsHub.Notify("client-b", "ingredients", "i1", api.ActionCreate)

	assert.Equal(t, "i1", waitEvent(t, first).ID)
	assert.Equal(t, "i1", waitEvent(t, second).ID)
}
