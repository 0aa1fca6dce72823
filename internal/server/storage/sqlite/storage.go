// Package sqlite реализует авторитетное хранилище каталога поверх SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/soliluna/soliluna/internal/models"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Storage represents SQLite storage implementation
type Storage struct {
	db *sql.DB

	// tsMu защищает lastTS: каждый принятый write получает строго
	// возрастающий timestamp, даже если два write попали в одну
	// миллисекунду. Иначе concurrency token не менялся бы между ними.
	tsMu   sync.Mutex
	lastTS string
}

// New creates a new SQLite storage instance
// dbPath is the path to the SQLite database file
// Use ":memory:" for in-memory database (useful for testing)
func New(ctx context.Context, dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// SQLite с WAL mode поддерживает несколько читателей, но только
	// одного писателя. Один connection также делает conditional update
	// read-then-write атомарным на уровне БД.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	storage := &Storage{db: db}

	if err := storage.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return storage, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// runMigrations выполняет миграции из embedded FS
func (s *Storage) runMigrations() error {
	goose.SetDialect("sqlite3")
	goose.SetBaseFS(embedMigrations)

	if err := goose.Up(s.db, "migrations"); err != nil {
		return fmt.Errorf("goose up failed: %w", err)
	}

	return nil
}

// DB returns the underlying database connection for testing purposes
func (s *Storage) DB() *sql.DB {
	return s.db
}

// Ping проверяет доступность базы, используется health check'ом.
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// nextTimestamp возвращает серверный timestamp очередного принятого
// write. Монотонен: при коллизии в пределах миллисекунды значение
// сдвигается на 1ms вперёд.
func (s *Storage) nextTimestamp() string {
	s.tsMu.Lock()
	defer s.tsMu.Unlock()

	ts := models.FormatTimestamp(time.Now())
	if s.lastTS != "" && ts <= s.lastTS {
		prev, err := models.ParseTimestamp(s.lastTS)
		if err == nil {
			ts = models.FormatTimestamp(prev.Add(time.Millisecond))
		}
	}

	s.lastTS = ts
	return ts
}
