// cmd/client/cmd/cart/list.go
package cart

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"postercart/cmd/client/cmd/types"
	clientCart "postercart/internal/app/client/cart"
)

var listFormat string

var ListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Показать содержимое корзины",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFrom(cmd)
		if err != nil {
			return err
		}

		store := app.Cart()
		items := store.Items()

		switch listFormat {
		case "json":
			return printItemsJSON(store, items)
		case "table":
			return printItemsTable(store, items)
		default:
			return printItemsSimple(store, items)
		}
	},
}

func printItemsSimple(store *clientCart.Store, items []clientCart.LineItem) error {
	if len(items) == 0 {
		fmt.Println("Корзина пуста")
		return nil
	}

	for i, it := range items {
		mark := " "
		if it.PendingSync {
			mark = "*"
		}
		fmt.Printf("%d.%s %s x%d  %s\n", i+1, mark, it.Product.Title, it.Quantity, lineTotal(it))
		fmt.Printf("    id: %s\n", it.ID)
	}

	fmt.Println()
	printTotal(store)
	return nil
}

func printItemsTable(store *clientCart.Store, items []clientCart.LineItem) error {
	if len(items) == 0 {
		fmt.Println("Корзина пуста")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tТОВАР\tКОЛ-ВО\tЦЕНА\tСУММА\tСИНХР.")
	for _, it := range items {
		synced := "да"
		if it.PendingSync {
			synced = "нет"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
			it.ID, it.Product.Title, it.Quantity, it.Product.Price.Amount, lineTotal(it), synced)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	printTotal(store)
	return nil
}

func printItemsJSON(store *clientCart.Store, items []clientCart.LineItem) error {
	out := struct {
		Items        []clientCart.LineItem `json:"items"`
		TotalItems   int                   `json:"total_items"`
		TotalPrice   string                `json:"total_price"`
		CurrencyCode string                `json:"currency_code"`
		Pending      bool                  `json:"pending_sync"`
	}{
		Items:        items,
		TotalItems:   store.TotalItems(),
		TotalPrice:   store.TotalPrice().StringFixed(2),
		CurrencyCode: store.CurrencyCode(),
		Pending:      store.HasPendingChanges(),
	}
	if out.Items == nil {
		out.Items = []clientCart.LineItem{}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func lineTotal(it clientCart.LineItem) string {
	total := it.Product.Price.Decimal().Mul(decimal.NewFromInt(int64(it.Quantity)))
	return fmt.Sprintf("%s %s", total.StringFixed(2), it.Product.Price.CurrencyCode)
}

func printTotal(store *clientCart.Store) {
	fmt.Printf("Всего товаров: %d\n", store.TotalItems())
	fmt.Printf("Итого: %s %s\n", store.TotalPrice().StringFixed(2), store.CurrencyCode())
	if store.HasPendingChanges() {
		color.Yellow("* есть несинхронизированные изменения")
	}
}

func init() {
	ListCmd.Flags().StringVarP(&listFormat, "format", "f", "simple", "формат вывода (simple, table, json)")
}
