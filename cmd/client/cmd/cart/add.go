package cart

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"postercart/cmd/client/cmd/types"
	clientCart "postercart/internal/app/client/cart"
)

var (
	addTitle    string
	addHandle   string
	addVariant  string
	addPrice    string
	addCurrency string
	addImage    string
	addQuantity int
)

var AddCmd = &cobra.Command{
	Use:   "add <product-id>",
	Short: "Добавить товар в корзину",
	Long: `Добавляет товар в корзину. Если товар уже в корзине, его
количество увеличивается.`,
	Example: `  postercart cart add gid://shopify/Product/1 --title "Starry Night" --price 25.00 --currency USD -q 2`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.AppFrom(cmd)
		if err != nil {
			return err
		}

		productID := strings.TrimSpace(args[0])
		if productID == "" {
			return fmt.Errorf("id товара не может быть пустым")
		}
		if addQuantity < 1 {
			return fmt.Errorf("количество должно быть не меньше 1")
		}

		title := addTitle
		if title == "" {
			title = productID
		}

		var amount string
		if addPrice != "" {
			price, err := decimal.NewFromString(addPrice)
			if err != nil || price.IsNegative() {
				return fmt.Errorf("некорректная цена %q", addPrice)
			}
			amount = price.StringFixed(2)
		}

		store := app.Cart()
		store.AddItem(clientCart.Product{
			ID:        productID,
			VariantID: addVariant,
			Title:     title,
			Handle:    addHandle,
			Price: clientCart.Money{
				Amount:       amount,
				CurrencyCode: strings.ToUpper(addCurrency),
			},
			ImageURL: addImage,
		}, addQuantity)

		fmt.Printf("✅ %s: %d шт. в корзине\n", title, store.QuantityOf(productID))
		syncAfterChange(cmd.Context(), app)
		return nil
	},
}

func init() {
	AddCmd.Flags().StringVarP(&addTitle, "title", "t", "", "название товара")
	AddCmd.Flags().StringVar(&addHandle, "handle", "", "handle товара в каталоге")
	AddCmd.Flags().StringVar(&addVariant, "variant", "", "id варианта товара")
	AddCmd.Flags().StringVarP(&addPrice, "price", "p", "", "цена за единицу")
	AddCmd.Flags().StringVarP(&addCurrency, "currency", "c", "USD", "код валюты ISO 4217")
	AddCmd.Flags().StringVar(&addImage, "image", "", "URL изображения")
	AddCmd.Flags().IntVarP(&addQuantity, "quantity", "q", 1, "количество")
}
