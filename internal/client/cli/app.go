package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	httpClient "github.com/soliluna/soliluna/internal/client/api"
	"github.com/soliluna/soliluna/internal/client/data"
	"github.com/soliluna/soliluna/internal/client/storage/boltdb"
	"github.com/soliluna/soliluna/internal/client/sync"
)

// app связывает локальное хранилище и сервисы клиента на время одной
// команды. Открывается в RunE и закрывается при выходе из команды.
type app struct {
	store    *boltdb.Storage
	api      *httpClient.Client
	data     *data.Service
	sync     sync.Service
	clientID string
	logger   *slog.Logger
}

func openApp(ctx context.Context, opts *RootOptions) (*app, error) {
	if err := os.MkdirAll(filepath.Dir(opts.DBPath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	store, err := boltdb.New(opts.DBPath)
	if err != nil {
		return nil, err
	}

	clientID, err := sync.EnsureClientID(ctx, store)
	if err != nil {
		store.Close()
		return nil, err
	}

	logger := newLogger(opts)
	apiClient := httpClient.NewClient(opts.ServerURL, clientID)

	return &app{
		store:    store,
		api:      apiClient,
		data:     data.NewService(apiClient, store, store, logger),
		sync:     sync.NewService(apiClient, store, store, store, logger),
		clientID: clientID,
		logger:   logger,
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
