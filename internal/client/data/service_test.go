package data

import (
	"context"
	"encoding/json"
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
	"github.com/soliluna/soliluna/pkg/api"
)

func setupBolt(t *testing.T) *boltdb.Storage {
	t.Helper()

	s, err := boltdb.New(filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newService(t *testing.T, serverURL string, store *boltdb.Storage) *Service {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(httpClient.NewClient(serverURL, "client-a"), store, store, logger)
}

func offlineService(t *testing.T, store *boltdb.Storage) *Service {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	return newService(t, srv.URL, store)
}

func TestListIngredients_NetworkWinsAndRefreshesCache(t *testing.T) {
	ctx := context.Background()
	store := setupBolt(t)

	// Устаревшая локальная копия.
	require.NoError(t, store.Put(ctx, models.TypeIngredients, "stale",
		json.RawMessage(`{"id":"stale","name":"Viejo"}`)))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"id":"i1","name":"Harina"}]}`))
	}))
	defer srv.Close()

	svc := newService(t, srv.URL, store)

	items, source, err := svc.ListIngredients(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceNetwork, source)
	require.Len(t, items, 1)
	assert.Equal(t, "Harina", items[0].Name)

	// Кэш замещён серверным списком.
	_, err = store.Get(ctx, models.TypeIngredients, "stale")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListIngredients_FallsBackToCacheOffline(t *testing.T) {
	ctx := context.Background()
	store := setupBolt(t)

	require.NoError(t, store.Put(ctx, models.TypeIngredients, "i1",
		json.RawMessage(`{"id":"i1","name":"Harina"}`)))

	svc := offlineService(t, store)

	items, source, err := svc.ListIngredients(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceCache, source)
	require.Len(t, items, 1)
	assert.Equal(t, "Harina", items[0].Name)
}

func TestListIngredients_FallsBackToCacheOnServerError(t *testing.T) {
	ctx := context.Background()
	store := setupBolt(t)

	require.NoError(t, store.Put(ctx, models.TypeIngredients, "i1",
		json.RawMessage(`{"id":"i1","name":"Harina"}`)))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
	}))
	defer srv.Close()

	svc := newService(t, srv.URL, store)

	items, source, err := svc.ListIngredients(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceCache, source)
	require.Len(t, items, 1)
	assert.Equal(t, "Harina", items[0].Name)
}

func TestListIngredients_ServerErrorWithEmptyCacheSurfaces(t *testing.T) {
	ctx := context.Background()
	store := setupBolt(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
	}))
	defer srv.Close()

	svc := newService(t, srv.URL, store)

	_, _, err := svc.ListIngredients(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server error (500)")
}

func TestGetIngredient_FallsBackToCacheOnServerError(t *testing.T) {
	ctx := context.Background()
	store := setupBolt(t)

	require.NoError(t, store.Put(ctx, models.TypeIngredients, "i1",
		json.RawMessage(`{"id":"i1","name":"Harina","pkgPrice":120}`)))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
	}))
	defer srv.Close()

	svc := newService(t, srv.URL, store)

	ing, source, err := svc.GetIngredient(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, SourceCache, source)
	assert.Equal(t, "Harina", ing.Name)

	// Записи нет ни на сервере, ни в кэше: ошибка сервера всплывает.
	_, _, err = svc.GetIngredient(ctx, "missing")
	require.Error(t, err)
}

func TestGetRecipe_CachesNetworkResult(t *testing.T) {
	ctx := context.Background()
	store := setupBolt(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"id":"r1","name":"Bizcocho","cost":140}}`))
	}))
	defer srv.Close()

	svc := newService(t, srv.URL, store)

	recipe, source, err := svc.GetRecipe(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, SourceNetwork, source)
	assert.Equal(t, int64(140), recipe.Cost)

	raw, err := store.Get(ctx, models.TypeRecipes, "r1")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Bizcocho")
}

func TestCreateIngredient_OnlineSynced(t *testing.T) {
	ctx := context.Background()
	store := setupBolt(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"i1","name":"Harina","updatedAt":"2026-01-02T10:00:00.000Z"}}`))
	}))
	defer srv.Close()

	svc := newService(t, srv.URL, store)

	item, status, err := svc.CreateIngredient(ctx, api.IngredientCreate{
		ID: "i1", Name: "Harina", PkgSize: 1000, PkgUnit: models.UnitGram, PkgPrice: 120,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSynced, status)
	assert.Equal(t, "2026-01-02T10:00:00.000Z", item.UpdatedAt)

	// Серверная версия закэширована.
	raw, err := store.Get(ctx, models.TypeIngredients, "i1")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "2026-01-02T10:00:00.000Z")

	pending, err := store.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestCreateIngredient_OfflineQueued(t *testing.T) {
	ctx := context.Background()
	store := setupBolt(t)

	svc := offlineService(t, store)

	item, status, err := svc.CreateIngredient(ctx, api.IngredientCreate{
		ID: "i1", Name: "Harina", PkgSize: 1000, PkgUnit: models.UnitGram, PkgPrice: 120,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusQueued, status)
	assert.Equal(t, "i1", item.ID)

	// Мутация в outbox, запись оптимистично в кэше.
	pending, err := store.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, http.MethodPost, pending[0].Method)
	assert.Equal(t, "/api/ingredients", pending[0].Path)
	assert.JSONEq(t,
		`{"id":"i1","name":"Harina","pkgSize":1000,"pkgUnit":"g","pkgPrice":120}`,
		string(pending[0].Body))

	raw, err := store.Get(ctx, models.TypeIngredients, "i1")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Harina")
}

func TestCreateIngredient_ValidationRejectedBeforeQueue(t *testing.T) {
	ctx := context.Background()
	store := setupBolt(t)

	svc := offlineService(t, store)

	_, _, err := svc.CreateIngredient(ctx, api.IngredientCreate{
		ID: "i1", Name: "", PkgSize: 1000, PkgUnit: models.UnitGram,
	})
	require.Error(t, err)

	// Невалидная мутация не попадает в очередь.
	pending, err := store.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestUpdateIngredient_ConflictSurfacesServerCopy(t *testing.T) {
	ctx := context.Background()
	store := setupBolt(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"record was modified by another device","data":{"id":"i1","name":"Harina integral"}}`))
	}))
	defer srv.Close()

	svc := newService(t, srv.URL, store)

	_, status, err := svc.UpdateIngredient(ctx, "i1", api.IngredientUpdate{
		Name: "Harina", PkgSize: 1000, PkgUnit: models.UnitGram, UpdatedAt: "stale",
	})
	require.Error(t, err)
	assert.Equal(t, StatusSynced, status)
	require.True(t, httpClient.IsConflict(err))

	var apiErr *httpClient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, string(apiErr.Data), "Harina integral")

	// Конфликт не ставится в очередь: его решает пользователь.
	pending, err := store.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestDeleteDish_OfflineQueuedAndRemovedFromCache(t *testing.T) {
	ctx := context.Background()
	store := setupBolt(t)

	require.NoError(t, store.Put(ctx, models.TypeDishes, "d1",
		json.RawMessage(`{"id":"d1","name":"Tarta"}`)))

	svc := offlineService(t, store)

	status, err := svc.DeleteDish(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, StatusQueued, status)

	_, err = store.Get(ctx, models.TypeDishes, "d1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	pending, err := store.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, http.MethodDelete, pending[0].Method)
	assert.Equal(t, "/api/dishes/d1", pending[0].Path)
}

func TestInvalidate_DeleteDropsCachedRecord(t *testing.T) {
	ctx := context.Background()
	store := setupBolt(t)

	require.NoError(t, store.Put(ctx, models.TypeRecipes, "r1",
		json.RawMessage(`{"id":"r1"}`)))

	svc := offlineService(t, store)

	require.NoError(t, svc.Invalidate(ctx, models.TypeRecipes, "r1", api.ActionDelete))

	_, err := store.Get(ctx, models.TypeRecipes, "r1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestInvalidate_UpdateRefetchesRecord(t *testing.T) {
	ctx := context.Background()
	store := setupBolt(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/recipes/r1", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":{"id":"r1","name":"Bizcocho v2"}}`))
	}))
	defer srv.Close()

	svc := newService(t, srv.URL, store)

	require.NoError(t, svc.Invalidate(ctx, models.TypeRecipes, "r1", api.ActionUpdate))

	raw, err := store.Get(ctx, models.TypeRecipes, "r1")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Bizcocho v2")
}

func TestInvalidate_RefetchOf404DropsRecord(t *testing.T) {
	ctx := context.Background()
	store := setupBolt(t)

	require.NoError(t, store.Put(ctx, models.TypeIngredients, "i1",
		json.RawMessage(`{"id":"i1"}`)))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	}))
	defer srv.Close()

	svc := newService(t, srv.URL, store)

	require.NoError(t, svc.Invalidate(ctx, models.TypeIngredients, "i1", api.ActionUpdate))

	_, err := store.Get(ctx, models.TypeIngredients, "i1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
