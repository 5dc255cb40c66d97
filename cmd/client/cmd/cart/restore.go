package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"postercart/cmd/client/cmd/types"
	clientCart "postercart/internal/app/client/cart"
)

var RestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Восстановить корзину из резервной копии",
	Long: `Заменяет локальную корзину копией, сохраненной перед переносом
гостевой корзины на сервер.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFrom(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		n, err := app.RestoreBackup(ctx)
		if errors.Is(err, clientCart.ErrNoBackup) {
			fmt.Println("Резервная копия не найдена")
			return nil
		}
		if err != nil {
			return fmt.Errorf("ошибка восстановления: %w", err)
		}

		fmt.Printf("✅ Восстановлено строк: %d\n", n)
		return nil
	},
}
