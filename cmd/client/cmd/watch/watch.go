package watch

import (
	"fmt"

	"github.com/spf13/cobra"

	"postercart/cmd/client/cmd/types"
)

var WatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Фоновая синхронизация до остановки",
	Long: `Запускает клиент в фоновом режиме: следит за доступностью сервера
и синхронизирует корзину по таймеру до получения SIGINT/SIGTERM.
При заданном METRICS_ADDRESS отдает метрики Prometheus.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFrom(cmd)
		if err != nil {
			return err
		}

		fmt.Println("Фоновая синхронизация запущена, Ctrl+C для остановки")
		return app.Run()
	},
}
