package storage

import (
	"context"
	gosync "sync"

	"postercart/internal/app/client/cart"
)

// MemoryStorage - запасное хранилище на время жизни процесса,
// используется если SQLite недоступен
type MemoryStorage struct {
	mu      gosync.RWMutex
	state   *cart.State
	backups map[string]cart.Backup
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		backups: make(map[string]cart.Backup),
	}
}

func (m *MemoryStorage) LoadCart(_ context.Context) (*cart.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.state == nil {
		return nil, cart.ErrNoState
	}
	state := cloneState(*m.state)
	return &state, nil
}

func (m *MemoryStorage) SaveCart(_ context.Context, state cart.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cloned := cloneState(state)
	m.state = &cloned
	return nil
}

func (m *MemoryStorage) SaveBackup(_ context.Context, backup cart.Backup) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	backup.Items = append([]cart.LineItem(nil), backup.Items...)
	m.backups[backup.UserID] = backup
	return nil
}

func (m *MemoryStorage) LoadBackup(_ context.Context, userID string) (*cart.Backup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	backup, ok := m.backups[userID]
	if !ok {
		return nil, cart.ErrNoBackup
	}
	backup.Items = append([]cart.LineItem(nil), backup.Items...)
	return &backup, nil
}

func (m *MemoryStorage) Close() error {
	return nil
}

func cloneState(s cart.State) cart.State {
	s.Items = append([]cart.LineItem(nil), s.Items...)
	s.Tombstones = append([]cart.Tombstone(nil), s.Tombstones...)
	return s
}
