package types

import (
	"fmt"

	"github.com/spf13/cobra"

	"postercart/internal/app/client"
)

type contextKey string

// ClientAppKey - ключ приложения в контексте команды
const ClientAppKey contextKey = "app"

// AppFrom достает приложение, созданное в PersistentPreRunE
func AppFrom(cmd *cobra.Command) (*client.App, error) {
	app, ok := cmd.Context().Value(ClientAppKey).(*client.App)
	if !ok || app == nil {
		return nil, fmt.Errorf("приложение не инициализировано")
	}
	return app, nil
}
