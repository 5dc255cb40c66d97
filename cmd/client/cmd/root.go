// cmd/client/cmd/root.go
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"postercart/cmd/client/cmd/auth"
	"postercart/cmd/client/cmd/cart"
	"postercart/cmd/client/cmd/sync"
	"postercart/cmd/client/cmd/types"
	"postercart/cmd/client/cmd/watch"
	"postercart/internal/app/client"
	"postercart/internal/app/client/config"
	"postercart/internal/utils/logger"
)

var (
	cfg       *config.Config
	log       *slog.Logger
	app       *client.App
	debug     bool
	serverURL string
)

var rootCmd = &cobra.Command{
	Use:   "postercart",
	Short: "PosterCart - корзина магазина постеров",
	Long: `PosterCart - клиент корзины магазина постеров.

Корзина хранится локально и работает без входа и без сети.
После входа гостевая корзина переносится на сервер, а дальнейшие
изменения синхронизируются в фоне.`,
	PersistentPreRunE: setupApp,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func Execute() {
	err := rootCmd.Execute()
	if app != nil {
		app.Shutdown()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
}

func setupApp(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	if serverURL != "" {
		cfg.ServerAddress = serverURL
	}
	if debug {
		cfg.Env = "local"
	}

	log = logger.New(cfg.Env)

	app, err = client.New(cfg, log)
	if err != nil {
		return fmt.Errorf("ошибка инициализации приложения: %w", err)
	}

	// watch сам подключает идентичность после запуска фоновых задач
	if cmd != watch.WatchCmd {
		if err := app.Activate(cmd.Context()); err != nil {
			return err
		}
	}

	cmd.SetContext(context.WithValue(cmd.Context(), types.ClientAppKey, app))
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "включить отладочный режим")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "адрес сервера PosterCart (host:port)")

	rootCmd.AddCommand(auth.AuthCmd)
	auth.AuthCmd.AddCommand(auth.RegisterCmd)
	auth.AuthCmd.AddCommand(auth.LoginCmd)
	auth.AuthCmd.AddCommand(auth.LogoutCmd)
	auth.AuthCmd.AddCommand(auth.StatusCmd)

	rootCmd.AddCommand(cart.CartCmd)
	cart.CartCmd.AddCommand(cart.AddCmd)
	cart.CartCmd.AddCommand(cart.ListCmd)
	cart.CartCmd.AddCommand(cart.UpdateCmd)
	cart.CartCmd.AddCommand(cart.RemoveCmd)
	cart.CartCmd.AddCommand(cart.ClearCmd)
	cart.CartCmd.AddCommand(cart.RestoreCmd)

	rootCmd.AddCommand(sync.SyncCmd)
	rootCmd.AddCommand(watch.WatchCmd)
}
