// cmd/client/cmd/auth/login.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"postercart/cmd/client/cmd/types"
	"postercart/internal/app/client/gateway"
	cartsync "postercart/internal/app/client/sync"
)

var loginEmail string

var LoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Войти в систему PosterCart",
	Long: `Аутентификация на сервере PosterCart.

При первом входе гостевая корзина переносится на сервер, если у
пользователя еще нет активной корзины. Перед переносом локальная
корзина сохраняется в резервную копию (см. postercart cart restore).`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFrom(cmd)
		if err != nil {
			return err
		}

		fmt.Println("=== Вход в систему ===")
		fmt.Println()

		email, err := promptEmail(loginEmail)
		if err != nil {
			return err
		}
		password, err := promptPassword("Пароль: ")
		if err != nil {
			return err
		}

		fmt.Println("Аутентификация...")
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		res, err := app.Login(ctx, email, password)
		if err != nil {
			if errors.Is(err, gateway.ErrUnauthorized) {
				return fmt.Errorf("неверный email или пароль")
			}
			return fmt.Errorf("ошибка аутентификации: %w", err)
		}

		fmt.Println()
		fmt.Println("✅ Вход выполнен успешно!")

		if res.MigrationErr != nil {
			fmt.Printf("⚠️  Перенос корзины не выполнен: %v\n", res.MigrationErr)
			fmt.Println("Корзина сохранена локально, перенос будет повторен при следующем запуске")
			return nil
		}

		switch res.Migration {
		case cartsync.MigrationMigrated:
			fmt.Printf("✓ Гостевая корзина перенесена на сервер (%d шт.)\n", app.Cart().TotalItems())
		case cartsync.MigrationSkipped:
			fmt.Println("✓ На сервере уже есть корзина, она будет синхронизирована с локальной")
		case cartsync.MigrationNoOp:
			fmt.Println("✓ Локальная корзина пуста, переносить нечего")
		}

		return nil
	},
}

func init() {
	LoginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "email пользователя")
}
