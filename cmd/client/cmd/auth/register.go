// cmd/client/cmd/auth/register.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"postercart/cmd/client/cmd/types"
	"postercart/internal/app/client/gateway"
)

var registerEmail string

var RegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Зарегистрировать нового пользователя",
	Long: `Регистрация нового пользователя на сервере PosterCart.

После регистрации войдите в систему, чтобы перенести корзину на сервер.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFrom(cmd)
		if err != nil {
			return err
		}

		fmt.Println("=== Регистрация нового пользователя ===")
		fmt.Println()

		email, err := promptEmail(registerEmail)
		if err != nil {
			return err
		}

		password, err := promptPassword("Пароль: ")
		if err != nil {
			return err
		}
		passwordConfirm, err := promptPassword("Повторите пароль: ")
		if err != nil {
			return err
		}

		if password != passwordConfirm {
			return fmt.Errorf("пароли не совпадают")
		}
		if len(password) < 8 {
			return fmt.Errorf("пароль должен содержать минимум 8 символов")
		}

		fmt.Println("Регистрация...")
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		if _, err := app.Register(ctx, email, password); err != nil {
			var statusErr *gateway.StatusError
			if errors.As(err, &statusErr) && statusErr.Code == http.StatusConflict {
				return fmt.Errorf("пользователь %s уже зарегистрирован", email)
			}
			return fmt.Errorf("ошибка регистрации: %w", err)
		}

		fmt.Println()
		fmt.Println("✅ Регистрация успешно завершена!")
		fmt.Println("Теперь вы можете войти в систему: postercart auth login")

		return nil
	},
}

func init() {
	RegisterCmd.Flags().StringVarP(&registerEmail, "email", "e", "", "email пользователя")
}
