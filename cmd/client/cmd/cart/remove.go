package cart

import (
	"fmt"

	"github.com/spf13/cobra"

	"postercart/cmd/client/cmd/types"
)

var RemoveCmd = &cobra.Command{
	Use:     "remove <line-id|product-id>",
	Aliases: []string{"rm"},
	Short:   "Удалить товар из корзины",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.AppFrom(cmd)
		if err != nil {
			return err
		}

		store := app.Cart()
		line, err := findLine(store, args[0])
		if err != nil {
			return err
		}

		store.RemoveItem(line.ID)
		fmt.Printf("✅ %s удален из корзины\n", line.Product.Title)

		syncAfterChange(cmd.Context(), app)
		return nil
	},
}
