package sync

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/exp/slog"

	"postercart/internal/app/client/cart"
	"postercart/internal/app/client/gateway"
)

// MigrationResult - итог миграции гостевой корзины
type MigrationResult int

const (
	// MigrationSkipped - у пользователя уже есть активная корзина на сервере
	MigrationSkipped MigrationResult = iota
	// MigrationNoOp - локальная корзина пуста
	MigrationNoOp
	// MigrationMigrated - серверная корзина создана из локальной
	MigrationMigrated
	// MigrationFailed - миграция не выполнена, локальная корзина не изменена
	MigrationFailed
)

func (r MigrationResult) String() string {
	switch r {
	case MigrationSkipped:
		return "skipped"
	case MigrationNoOp:
		return "noop"
	case MigrationMigrated:
		return "migrated"
	case MigrationFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type MigrationGateway interface {
	FetchActive(ctx context.Context, id gateway.Identity) (*gateway.ServerCart, error)
	Create(ctx context.Context, id gateway.Identity, items []gateway.ItemInput) (*gateway.ServerCart, error)
}

type BackupStore interface {
	SaveBackup(ctx context.Context, backup cart.Backup) error
	LoadBackup(ctx context.Context, userID string) (*cart.Backup, error)
}

// LocalCart - операции локальной корзины, нужные миграции
type LocalCart interface {
	Items() []cart.LineItem
	BindServerIDs(byProduct map[string]string)
	Replace(items []cart.LineItem)
}

// Migrator переносит гостевую корзину на сервер при первом входе пользователя
type Migrator struct {
	local   LocalCart
	gw      MigrationGateway
	backups BackupStore
	clock   Clock
	log     *slog.Logger
}

func NewMigrator(local LocalCart, gw MigrationGateway, backups BackupStore, clock Clock, log *slog.Logger) *Migrator {
	if clock == nil {
		clock = RealClock()
	}
	return &Migrator{
		local:   local,
		gw:      gw,
		backups: backups,
		clock:   clock,
		log:     log.With("component", "migration"),
	}
}

// Migrate создает серверную корзину из локальной, если у пользователя ее еще нет.
// Повторный вызов безопасен: существующая корзина означает, что миграция уже была.
func (m *Migrator) Migrate(ctx context.Context, id gateway.Identity) (MigrationResult, error) {
	if id.IsZero() {
		return MigrationFailed, ErrNotAuthenticated
	}

	existing, err := m.gw.FetchActive(ctx, id)
	switch {
	case err == nil:
		m.log.Debug("server cart exists, migration skipped", "user_id", id.UserID, "cart_id", existing.ID)
		return MigrationSkipped, nil
	case !errors.Is(err, gateway.ErrNotFound):
		return MigrationFailed, fmt.Errorf("check server cart: %w", err)
	}

	lines := m.local.Items()
	if len(lines) == 0 {
		return MigrationNoOp, nil
	}

	if err := ValidateLines(lines); err != nil {
		return MigrationFailed, err
	}

	backup := cart.Backup{
		Version:   cart.BackupVersion,
		UserID:    id.UserID,
		CreatedAt: m.clock.Now().UTC(),
		Items:     lines,
	}
	if err := m.backups.SaveBackup(ctx, backup); err != nil {
		m.log.Warn("failed to back up guest cart", "user_id", id.UserID, "error", err)
	}

	inputs := make([]gateway.ItemInput, 0, len(lines))
	for _, line := range lines {
		inputs = append(inputs, ToItemInput(line))
	}

	created, err := m.gw.Create(ctx, id, inputs)
	if err != nil {
		return MigrationFailed, fmt.Errorf("create server cart: %w", err)
	}

	ids := make(map[string]string, len(created.Items))
	for _, it := range created.Items {
		if _, dup := ids[it.ProductID]; !dup {
			ids[it.ProductID] = it.ID
		}
	}
	m.local.BindServerIDs(ids)

	m.log.Info("guest cart migrated", "user_id", id.UserID, "cart_id", created.ID, "items", len(inputs))
	return MigrationMigrated, nil
}

// Restore заменяет локальную корзину содержимым резервной копии пользователя
func (m *Migrator) Restore(ctx context.Context, userID string) (int, error) {
	backup, err := m.backups.LoadBackup(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("load backup: %w", err)
	}
	if backup.Version != cart.BackupVersion {
		return 0, fmt.Errorf("%w: unsupported backup version %d", ErrInvalidPayload, backup.Version)
	}
	if err := ValidateLines(backup.Items); err != nil {
		return 0, err
	}

	items := make([]cart.LineItem, len(backup.Items))
	for i, it := range backup.Items {
		it.ServerItemID = ""
		items[i] = it
	}
	m.local.Replace(items)

	return len(items), nil
}

// ValidateLines проверяет структуру строк; одна некорректная строка отклоняет весь набор
func ValidateLines(lines []cart.LineItem) error {
	for i, line := range lines {
		switch {
		case line.ID == "":
			return fmt.Errorf("%w: line %d has no id", ErrInvalidPayload, i)
		case line.Product.ID == "":
			return fmt.Errorf("%w: line %s has no product id", ErrInvalidPayload, line.ID)
		case line.Product.Title == "":
			return fmt.Errorf("%w: line %s has no product title", ErrInvalidPayload, line.ID)
		case line.Quantity < 1:
			return fmt.Errorf("%w: line %s has quantity %d", ErrInvalidPayload, line.ID, line.Quantity)
		}
	}
	return nil
}
