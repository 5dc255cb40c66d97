package cart

import (
	"fmt"

	"github.com/spf13/cobra"

	"postercart/cmd/client/cmd/types"
)

var ClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Очистить корзину",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFrom(cmd)
		if err != nil {
			return err
		}

		store := app.Cart()
		if store.TotalItems() == 0 && !store.HasPendingChanges() {
			fmt.Println("Корзина уже пуста")
			return nil
		}

		store.Clear()
		fmt.Println("✅ Корзина очищена")

		syncAfterChange(cmd.Context(), app)
		return nil
	},
}
