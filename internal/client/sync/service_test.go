package sync

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpClient "github.com/soliluna/soliluna/internal/client/api"
	"github.com/soliluna/soliluna/internal/client/storage"
	"github.com/soliluna/soliluna/internal/client/storage/boltdb"
	"github.com/soliluna/soliluna/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupBolt(t *testing.T) *boltdb.Storage {
	t.Helper()

	s, err := boltdb.New(filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newService(t *testing.T, serverURL string, store *boltdb.Storage) Service {
	t.Helper()

	client := httpClient.NewClient(serverURL, "client-a")
	return NewService(client, store, store, store, testLogger())
}

func enqueue(t *testing.T, store *boltdb.Storage, method, path, body string) *storage.OutboxEntry {
	t.Helper()

	entry := &storage.OutboxEntry{
		Method:     method,
		Path:       path,
		Body:       json.RawMessage(body),
		EntityType: models.TypeIngredients,
		EntityID:   "i1",
		Status:     storage.OutboxPending,
	}
	require.NoError(t, store.Enqueue(context.Background(), entry))
	return entry
}

func TestFlushOutbox_DeliversInOrder(t *testing.T) {
	ctx := context.Background()
	store := setupBolt(t)

	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	enqueue(t, store, http.MethodPost, "/api/ingredients", `{"id":"a"}`)
	enqueue(t, store, http.MethodPut, "/api/ingredients/a", `{"name":"x"}`)
	enqueue(t, store, http.MethodDelete, "/api/ingredients/a", "")

	svc := newService(t, srv.URL, store)

	result, err := svc.FlushOutbox(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Delivered)
	assert.False(t, result.Offline)
	assert.Empty(t, result.Rejections)

	assert.Equal(t, []string{"/api/ingredients", "/api/ingredients/a", "/api/ingredients/a"}, paths)

	count, err := svc.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestFlushOutbox_RejectionDroppedAndReported(t *testing.T) {
	ctx := context.Background()
	store := setupBolt(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":"record was modified by another device"}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	enqueue(t, store, http.MethodPut, "/api/ingredients/i1", `{"name":"x","updatedAt":"stale"}`)
	enqueue(t, store, http.MethodPost, "/api/ingredients", `{"id":"i2"}`)

	svc := newService(t, srv.URL, store)

	result, err := svc.FlushOutbox(ctx)
	require.NoError(t, err)

	// Отвергнутая мутация не блокирует очередь.
	assert.Equal(t, 1, result.Delivered)
	require.Len(t, result.Rejections, 1)
	assert.Contains(t, result.Rejections[0].Message, "modified by another device")

	count, err := svc.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "rejected mutation must not be retried")
}

func TestFlushOutbox_OfflineRetriesUntilFailed(t *testing.T) {
	ctx := context.Background()
	store := setupBolt(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // сервер недоступен с самого начала

	enqueue(t, store, http.MethodPost, "/api/ingredients", `{"id":"a"}`)

	svc := newService(t, srv.URL, store)

	for i := 1; i < storage.MaxRetries; i++ {
		result, err := svc.FlushOutbox(ctx)
		require.NoError(t, err)
		assert.True(t, result.Offline)
		assert.Equal(t, 1, result.Remaining, "attempt %d", i)
	}

	// Пятый транспортный сбой переводит мутацию в failed.
	result, err := svc.FlushOutbox(ctx)
	require.NoError(t, err)
	assert.True(t, result.Offline)
	assert.Zero(t, result.Remaining)

	count, err := svc.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	failed, err := svc.FailedEntries(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, storage.MaxRetries, failed[0].RetryCount)
	assert.NotEmpty(t, failed[0].LastError)
}

func TestFlushOutbox_ServerErrorLeavesQueueIntact(t *testing.T) {
	ctx := context.Background()
	store := setupBolt(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
	}))
	defer srv.Close()

	entry := enqueue(t, store, http.MethodPost, "/api/ingredients", `{"id":"a"}`)

	svc := newService(t, srv.URL, store)

	result, err := svc.FlushOutbox(ctx)
	require.NoError(t, err)
	assert.False(t, result.Offline)
	assert.Equal(t, 1, result.Remaining)

	// 5xx не считается попыткой: счётчик повторов не тронут.
	pending, err := store.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, entry.Seq, pending[0].Seq)
	assert.Zero(t, pending[0].RetryCount)
}

func changesHandler(t *testing.T, body string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/sync/changes", r.URL.Path)
		_, _ = w.Write([]byte(body))
	}
}

func TestPullChanges_AppliesDeltaAndAdvancesCursor(t *testing.T) {
	ctx := context.Background()
	store := setupBolt(t)

	// Старая запись будет удалена tombstone'ом, новая добавлена.
	require.NoError(t, store.Put(ctx, models.TypeIngredients, "old",
		json.RawMessage(`{"id":"old"}`)))

	srv := httptest.NewServer(changesHandler(t, `{"data":{
		"ingredients":[{"id":"i1","name":"Harina","updatedAt":"2026-01-02T10:00:00.000Z"}],
		"recipes":[],"dishes":[],
		"deletions":[{"entityType":"ingredients","entityId":"old","deletedAt":"2026-01-02T11:00:00.000Z"}]
	}}`))
	defer srv.Close()

	svc := newService(t, srv.URL, store)

	result, err := svc.PullChanges(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Applied)
	assert.Equal(t, 1, result.Deleted)
	assert.Zero(t, result.Skipped)
	assert.Equal(t, "2026-01-02T11:00:00.000Z", result.NewSince)

	_, err = store.Get(ctx, models.TypeIngredients, "old")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	record, err := store.Get(ctx, models.TypeIngredients, "i1")
	require.NoError(t, err)
	assert.Contains(t, string(record), "Harina")

	cursor, err := store.GetLastSyncAt(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-02T11:00:00.000Z", cursor)
}

func TestPullChanges_TombstoneOverridesSameBatchUpsert(t *testing.T) {
	ctx := context.Background()
	store := setupBolt(t)

	// Tombstone новее записи: удаление выигрывает.
	srv := httptest.NewServer(changesHandler(t, `{"data":{
		"ingredients":[{"id":"i1","name":"Harina","updatedAt":"2026-01-02T10:00:00.000Z"}],
		"recipes":[],"dishes":[],
		"deletions":[{"entityType":"ingredients","entityId":"i1","deletedAt":"2026-01-02T10:30:00.000Z"}]
	}}`))
	defer srv.Close()

	svc := newService(t, srv.URL, store)

	result, err := svc.PullChanges(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Zero(t, result.Applied)

	_, err = store.Get(ctx, models.TypeIngredients, "i1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPullChanges_RecreatedRecordSurvivesOlderTombstone(t *testing.T) {
	ctx := context.Background()
	store := setupBolt(t)

	// Запись пересоздана после удаления: updatedAt новее deletedAt.
	srv := httptest.NewServer(changesHandler(t, `{"data":{
		"ingredients":[{"id":"i1","name":"Harina","updatedAt":"2026-01-02T12:00:00.000Z"}],
		"recipes":[],"dishes":[],
		"deletions":[{"entityType":"ingredients","entityId":"i1","deletedAt":"2026-01-02T10:30:00.000Z"}]
	}}`))
	defer srv.Close()

	svc := newService(t, srv.URL, store)

	result, err := svc.PullChanges(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Applied)
	assert.Zero(t, result.Skipped)

	record, err := store.Get(ctx, models.TypeIngredients, "i1")
	require.NoError(t, err)
	assert.Contains(t, string(record), "Harina")
}

// failingCache подменяет Put для проверки, что курсор не двигается
// при прерванном применении дельты.
type failingCache struct {
	storage.CacheStorage
}

func (f *failingCache) Put(ctx context.Context, entityType, id string, record json.RawMessage) error {
	return errors.New("disk full")
}

func TestPullChanges_CursorNotAdvancedOnApplyFailure(t *testing.T) {
	ctx := context.Background()
	store := setupBolt(t)

	srv := httptest.NewServer(changesHandler(t, `{"data":{
		"ingredients":[{"id":"i1","name":"Harina","updatedAt":"2026-01-02T10:00:00.000Z"}],
		"recipes":[],"dishes":[],"deletions":[]
	}}`))
	defer srv.Close()

	client := httpClient.NewClient(srv.URL, "client-a")
	svc := NewService(client, &failingCache{CacheStorage: store}, store, store, testLogger())

	_, err := svc.PullChanges(ctx)
	require.Error(t, err)

	cursor, err := store.GetLastSyncAt(ctx)
	require.NoError(t, err)
	assert.Empty(t, cursor, "cursor must stay put so the delta is re-fetched")
}

func TestPreload_ReplacesCache(t *testing.T) {
	ctx := context.Background()
	store := setupBolt(t)

	require.NoError(t, store.Put(ctx, models.TypeIngredients, "stale",
		json.RawMessage(`{"id":"stale"}`)))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/ingredients":
			_, _ = w.Write([]byte(`{"data":[{"id":"i1","name":"Harina"}]}`))
		case "/api/recipes":
			_, _ = w.Write([]byte(`{"data":[{"id":"r1","name":"Bizcocho"}]}`))
		case "/api/dishes":
			_, _ = w.Write([]byte(`{"data":[]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	svc := newService(t, srv.URL, store)
	require.NoError(t, svc.Preload(ctx))

	_, err := store.Get(ctx, models.TypeIngredients, "stale")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	ingredients, err := store.List(ctx, models.TypeIngredients)
	require.NoError(t, err)
	assert.Len(t, ingredients, 1)

	recipes, err := store.List(ctx, models.TypeRecipes)
	require.NoError(t, err)
	assert.Len(t, recipes, 1)
}

func TestSync_FlushesBeforePull(t *testing.T) {
	ctx := context.Background()
	store := setupBolt(t)

	var order []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/sync/changes" {
			order = append(order, "pull")
			_, _ = w.Write([]byte(`{"data":{"ingredients":[],"recipes":[],"dishes":[],"deletions":[]}}`))
			return
		}
		order = append(order, "flush")
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	enqueue(t, store, http.MethodPost, "/api/ingredients", `{"id":"a"}`)

	svc := newService(t, srv.URL, store)

	result, err := svc.Sync(ctx)
	require.NoError(t, err)
	require.NotNil(t, result.Pull)
	assert.Equal(t, []string{"flush", "pull"}, order)
}

func TestEnsureClientID_StableAcrossCalls(t *testing.T) {
	ctx := context.Background()
	store := setupBolt(t)

	first, err := EnsureClientID(ctx, store)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := EnsureClientID(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
