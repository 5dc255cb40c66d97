package auth

import (
	"fmt"

	"github.com/spf13/cobra"

	"postercart/cmd/client/cmd/types"
)

var LogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Выйти из системы",
	Long: `Удаляет сохраненную сессию и отключает синхронизацию.
Локальная корзина сохраняется.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFrom(cmd)
		if err != nil {
			return err
		}

		if !app.IsAuthenticated() {
			fmt.Println("Вход не выполнен")
			return nil
		}

		if app.Cart().HasPendingChanges() {
			fmt.Println("⚠️  Есть несинхронизированные изменения, они останутся только локально")
		}

		if err := app.Logout(); err != nil {
			return err
		}

		fmt.Println("✅ Выход выполнен")
		return nil
	},
}
