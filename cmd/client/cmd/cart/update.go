package cart

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"postercart/cmd/client/cmd/types"
)

var UpdateCmd = &cobra.Command{
	Use:   "update <line-id|product-id> <quantity>",
	Short: "Изменить количество товара",
	Long:  `Устанавливает количество товара. Количество 0 удаляет строку.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.AppFrom(cmd)
		if err != nil {
			return err
		}

		quantity, err := strconv.Atoi(args[1])
		if err != nil || quantity < 0 {
			return fmt.Errorf("некорректное количество %q", args[1])
		}

		store := app.Cart()
		line, err := findLine(store, args[0])
		if err != nil {
			return err
		}

		store.UpdateQuantity(line.ID, quantity)
		if quantity == 0 {
			fmt.Printf("✅ %s удален из корзины\n", line.Product.Title)
		} else {
			fmt.Printf("✅ %s: %d шт.\n", line.Product.Title, quantity)
		}

		syncAfterChange(cmd.Context(), app)
		return nil
	},
}
