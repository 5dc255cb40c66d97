package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"postercart/internal/app/client/cart"
)

// SQLiteStorage хранит состояние корзины и резервные копии миграции в SQLite
type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия базы данных: %w", err)
	}

	storage := &SQLiteStorage{db: db}

	if err := storage.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка инициализации таблиц: %w", err)
	}

	return storage, nil
}

func (s *SQLiteStorage) initTables() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS cart_state (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			state TEXT NOT NULL,
			revision INTEGER NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS cart_backups (
			user_id TEXT PRIMARY KEY,
			version INTEGER NOT NULL,
			items TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);
	`)

	return err
}

func (s *SQLiteStorage) LoadCart(ctx context.Context) (*cart.State, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM cart_state WHERE id = 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cart.ErrNoState
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения корзины: %w", err)
	}

	var state cart.State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("ошибка разбора корзины: %w", err)
	}

	return &state, nil
}

func (s *SQLiteStorage) SaveCart(ctx context.Context, state cart.State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("ошибка сериализации корзины: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cart_state (id, state, revision, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			revision = excluded.revision,
			updated_at = excluded.updated_at
	`, string(raw), int64(state.Revision), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("ошибка сохранения корзины: %w", err)
	}

	return nil
}

// SaveBackup перезаписывает резервную копию пользователя
func (s *SQLiteStorage) SaveBackup(ctx context.Context, backup cart.Backup) error {
	raw, err := json.Marshal(backup.Items)
	if err != nil {
		return fmt.Errorf("ошибка сериализации резервной копии: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cart_backups (user_id, version, items, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			version = excluded.version,
			items = excluded.items,
			created_at = excluded.created_at
	`, backup.UserID, backup.Version, string(raw), backup.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("ошибка сохранения резервной копии: %w", err)
	}

	return nil
}

func (s *SQLiteStorage) LoadBackup(ctx context.Context, userID string) (*cart.Backup, error) {
	var (
		backup cart.Backup
		raw    string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, version, items, created_at
		FROM cart_backups
		WHERE user_id = ?
	`, userID).Scan(&backup.UserID, &backup.Version, &raw, &backup.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cart.ErrNoBackup
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения резервной копии: %w", err)
	}

	if err := json.Unmarshal([]byte(raw), &backup.Items); err != nil {
		return nil, fmt.Errorf("ошибка разбора резервной копии: %w", err)
	}

	return &backup, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
