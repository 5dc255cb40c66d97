package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"postercart/internal/app/client"
	clientCart "postercart/internal/app/client/cart"
)

var offline bool

// CartCmd - родительская команда для операций с корзиной
var CartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Управление корзиной",
	Long: `Просмотр и изменение корзины.

Изменения сразу сохраняются локально. После входа каждое изменение
отправляется на сервер; при недоступности сервера оно будет
синхронизировано позже.`,
}

// syncAfterChange отправляет изменение на сервер, если выполнен вход
func syncAfterChange(ctx context.Context, app *client.App) {
	if offline || !app.IsAuthenticated() {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := app.Sync(ctx); err != nil {
		fmt.Printf("⚠️  Изменение сохранено локально, синхронизация не удалась: %v\n", err)
		return
	}
	fmt.Println("✓ Синхронизировано с сервером")
}

// findLine ищет строку по id строки или по id товара
func findLine(store *clientCart.Store, ref string) (clientCart.LineItem, error) {
	items := store.Items()
	for _, it := range items {
		if it.ID == ref {
			return it, nil
		}
	}
	for _, it := range items {
		if it.Product.ID == ref {
			return it, nil
		}
	}
	return clientCart.LineItem{}, errLineNotFound(ref)
}

var errNotInCart = errors.New("нет в корзине")

func errLineNotFound(ref string) error {
	return fmt.Errorf("%q: %w", ref, errNotInCart)
}

func init() {
	CartCmd.PersistentFlags().BoolVar(&offline, "offline", false, "не синхронизировать изменение с сервером")
}
