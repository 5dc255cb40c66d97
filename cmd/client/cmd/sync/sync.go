package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"postercart/cmd/client/cmd/types"
	"postercart/internal/app/client"
	cartsync "postercart/internal/app/client/sync"
)

var syncStatus bool

var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Синхронизировать корзину с сервером",
	Long: `Принудительная синхронизация локальной корзины с серверной.

Локальные изменения отправляются на сервер, серверные строки, которых
нет локально, добавляются в корзину. Конфликты количеств решаются
в пользу большего значения.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFrom(cmd)
		if err != nil {
			return err
		}

		if syncStatus {
			return showSyncStatus(cmd.Context(), app)
		}
		return runSync(cmd.Context(), app)
	},
}

func runSync(ctx context.Context, app *client.App) error {
	fmt.Println("=== Синхронизация корзины ===")

	if !app.IsAuthenticated() {
		return client.ErrNotLoggedIn
	}

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	start := time.Now()
	if err := app.Sync(ctx); err != nil {
		if errors.Is(err, cartsync.ErrOffline) {
			fmt.Println("⚠️  Сервер недоступен, изменения будут отправлены позже")
			return nil
		}
		return fmt.Errorf("ошибка синхронизации: %w", err)
	}

	store := app.Cart()
	fmt.Println()
	fmt.Println("✅ Синхронизация завершена!")
	fmt.Printf("Время выполнения: %v\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("Товаров в корзине: %d\n", store.TotalItems())
	fmt.Printf("Итого: %s %s\n", store.TotalPrice().StringFixed(2), store.CurrencyCode())

	return nil
}

func showSyncStatus(ctx context.Context, app *client.App) error {
	fmt.Println("=== Статус синхронизации ===")

	fmt.Printf("🌐 Соединение с сервером: ")
	if err := app.CheckConnection(ctx); err != nil {
		color.Red("недоступен (%v)", err)
	} else {
		color.Green("OK")
	}

	status := app.SyncStatus()

	fmt.Printf("🔐 Аутентификация: ")
	if status.IsAuthenticated {
		color.Green("выполнена")
	} else {
		color.Yellow("гость")
	}

	fmt.Printf("🔄 Состояние: ")
	stateColor(status.State).Println(status.State.String())

	fmt.Printf("📦 Несинхронизированные изменения: ")
	if status.HasPendingChanges {
		color.Yellow("есть")
	} else {
		fmt.Println("нет")
	}

	if !status.LastSynced.IsZero() {
		fmt.Printf("⏰ Последняя синхронизация: %s\n", status.LastSynced.Local().Format("2006-01-02 15:04:05"))
	}
	if status.LastError != nil {
		fmt.Printf("❌ Последняя ошибка: %v\n", status.LastError)
	}

	return nil
}

func stateColor(s cartsync.State) *color.Color {
	switch s {
	case cartsync.StateSyncing:
		return color.New(color.FgGreen)
	case cartsync.StateReconnecting:
		return color.New(color.FgCyan)
	case cartsync.StateOffline:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgYellow)
	}
}

func init() {
	SyncCmd.Flags().BoolVar(&syncStatus, "status", false, "показать статус синхронизации")
}
