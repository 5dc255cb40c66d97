package storage

import (
	"context"
	"io"

	"postercart/internal/app/client/cart"
)

// Storage объединяет хранение корзины и резервных копий миграции
type Storage interface {
	cart.Persister
	SaveBackup(ctx context.Context, backup cart.Backup) error
	LoadBackup(ctx context.Context, userID string) (*cart.Backup, error)
	io.Closer
}

var (
	_ Storage = (*SQLiteStorage)(nil)
	_ Storage = (*MemoryStorage)(nil)
)
