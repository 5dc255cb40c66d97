package auth

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"postercart/cmd/client/cmd/types"
)

var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Показать текущую сессию",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFrom(cmd)
		if err != nil {
			return err
		}

		sess, ok := app.CurrentSession()
		if !ok {
			color.Yellow("Гость: вход не выполнен")
			return nil
		}

		color.Green("Вход выполнен")
		fmt.Printf("  Email:        %s\n", sess.Email)
		fmt.Printf("  ID:           %s\n", sess.UserID)
		fmt.Printf("  Вход:         %s\n", sess.LoggedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("  Перенос:      %v\n", sess.Migrated)
		return nil
	},
}
