package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soliluna/soliluna/internal/models"
	"github.com/soliluna/soliluna/pkg/api"
)

func TestClient_EnvelopeAndClientIDHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "client-a", r.Header.Get(api.ClientIDHeader))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"i1","name":"Harina"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "client-a")

	items, err := c.ListIngredients(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Harina", items[0].Name)
}

func TestClient_ConcurrentGetsDeduplicated(t *testing.T) {
	var requests atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		time.Sleep(50 * time.Millisecond) // держим запрос открытым
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.ListIngredients(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "caller %d", i)
	}
	assert.Equal(t, int64(1), requests.Load(), "concurrent identical GETs must share one request")
}

func TestClient_DifferentPathsNotDeduplicated(t *testing.T) {
	var requests atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		time.Sleep(20 * time.Millisecond)
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = c.ListIngredients(context.Background())
	}()
	go func() {
		defer wg.Done()
		_, _ = c.ListRecipes(context.Background())
	}()
	wg.Wait()

	assert.Equal(t, int64(2), requests.Load())
}

func TestClient_ConflictCarriesCurrentRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"record was modified by another device","data":{"id":"i1","name":"Harina integral","pkgPrice":150}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")

	_, err := c.UpdateIngredient(context.Background(), "i1", api.IngredientUpdate{
		Name: "Harina", PkgSize: 1000, PkgUnit: models.UnitGram, UpdatedAt: "stale",
	})
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	assert.True(t, IsRejection(err))
	assert.False(t, IsConnectivityError(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)

	var current models.Ingredient
	require.NoError(t, json.Unmarshal(apiErr.Data, &current))
	assert.Equal(t, "Harina integral", current.Name)
}

func TestClient_ErrorClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/ingredients/missing":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"not found"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		}
	}))

	c := NewClient(srv.URL, "")
	ctx := context.Background()

	_, err := c.GetIngredient(ctx, "missing")
	assert.True(t, IsNotFound(err))
	assert.True(t, IsRejection(err))

	// 5xx — сервер доступен, но это не отказ уровня запроса.
	_, err = c.ListDishes(ctx)
	require.Error(t, err)
	assert.False(t, IsRejection(err))
	assert.False(t, IsConnectivityError(err))

	// Остановленный сервер — транспортный сбой.
	srv.Close()
	_, err = c.ListRecipes(ctx)
	require.Error(t, err)
	assert.True(t, IsConnectivityError(err))
	assert.False(t, IsRejection(err))
}

func TestClient_ReplayPassesBodyVerbatim(t *testing.T) {
	var gotBody []byte
	var gotMethod string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"data":{"id":"i1"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "client-a")

	body := json.RawMessage(`{"id":"i1","name":"Harina","pkgSize":1000,"pkgUnit":"g","pkgPrice":120}`)
	require.NoError(t, c.Replay(context.Background(), http.MethodPost, "/api/ingredients", body))

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.JSONEq(t, string(body), string(gotBody))
}
