package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/soliluna/soliluna/internal/server/storage"
)

// checkConditionalWrite разбирает результат conditional update'а:
// 0 затронутых строк означает либо отсутствие записи, либо устаревший
// concurrency token.
func checkConditionalWrite(ctx context.Context, db *sql.DB, result sql.Result, table, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows > 0 {
		return nil
	}

	var one int
	err = db.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check record existence: %w", err)
	}

	return storage.ErrConflict
}

// refExists проверяет существование ссылающейся строки.
func (s *Storage) refExists(ctx context.Context, query string, args ...any) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check references: %w", err)
	}
	return true, nil
}

// deleteWithTombstone выполняет удаление и запись tombstone в одной
// транзакции. Tombstone перезаписывается по ключу (entity_type, entity_id)
// со свежим deleted_at.
func (s *Storage) deleteWithTombstone(ctx context.Context, entityType, id string, del func(tx *sql.Tx) error) error {
	now := s.nextTimestamp()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := del(tx); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO tombstones (entity_type, entity_id, deleted_at) VALUES (?, ?, ?)",
		entityType, id, now)
	if err != nil {
		return fmt.Errorf("failed to write tombstone: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}

	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
