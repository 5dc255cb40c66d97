package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultServerAddress = "localhost:8080"
	defaultEnv           = "local"
	defaultConfigDir     = ".postercart"
)

type Config struct {
	Env           string
	ServerAddress string
	EnableTLS     bool
	ConfigDir     string
	TokenPath     string
	DataPath      string
	// SyncInterval - период фоновой синхронизации корзины
	SyncInterval time.Duration
	// ProbeInterval - период проверки доступности сервера
	ProbeInterval   time.Duration
	RequestTimeout  time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration
	// MetricsAddress - адрес /metrics в режиме watch; пустой отключает
	MetricsAddress string
}

// MustLoad загружает конфигурацию клиента
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("Ошибка конфигурации: %v", err))
	}
	return cfg
}

// Load читает .env и переменные окружения
func Load() (*Config, error) {
	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		envPath = "../.env"
	}
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			fmt.Printf("Ошибка загрузки .env файла: %v\n", err)
		}
	}

	viper.AutomaticEnv()

	viper.SetDefault("APP_ENV", defaultEnv)
	viper.SetDefault("SERVER_ADDRESS", defaultServerAddress)
	viper.SetDefault("CONFIG_DIR", defaultConfigDir)
	viper.SetDefault("SYNC_INTERVAL_SECONDS", 30)
	viper.SetDefault("PROBE_INTERVAL_SECONDS", 10)
	viper.SetDefault("REQUEST_TIMEOUT_SECONDS", 15)
	viper.SetDefault("BREAKER_FAILURES", 5)
	viper.SetDefault("BREAKER_TIMEOUT_SECONDS", 30)
	viper.SetDefault("ENABLE_TLS", false)
	viper.SetDefault("METRICS_ADDRESS", "")

	configDir := viper.GetString("CONFIG_DIR")
	if configDir == defaultConfigDir {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			homeDir = "."
		}
		configDir = filepath.Join(homeDir, configDir)
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("создание директории конфигурации: %w", err)
	}

	cfg := &Config{
		Env:             viper.GetString("APP_ENV"),
		ServerAddress:   viper.GetString("SERVER_ADDRESS"),
		EnableTLS:       viper.GetBool("ENABLE_TLS"),
		ConfigDir:       configDir,
		TokenPath:       filepath.Join(configDir, "identity.json"),
		DataPath:        filepath.Join(configDir, "cart.db"),
		SyncInterval:    time.Duration(viper.GetInt("SYNC_INTERVAL_SECONDS")) * time.Second,
		ProbeInterval:   time.Duration(viper.GetInt("PROBE_INTERVAL_SECONDS")) * time.Second,
		RequestTimeout:  time.Duration(viper.GetInt("REQUEST_TIMEOUT_SECONDS")) * time.Second,
		BreakerFailures: viper.GetUint32("BREAKER_FAILURES"),
		BreakerTimeout:  time.Duration(viper.GetInt("BREAKER_TIMEOUT_SECONDS")) * time.Second,
		MetricsAddress:  viper.GetString("METRICS_ADDRESS"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.ServerAddress == "" {
		return fmt.Errorf("server_address не может быть пустым")
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("sync_interval_seconds должен быть положительным")
	}
	if c.ProbeInterval <= 0 {
		return fmt.Errorf("probe_interval_seconds должен быть положительным")
	}
	return nil
}

// BaseURL - адрес сервера со схемой
func (c *Config) BaseURL() string {
	scheme := "http://"
	if c.EnableTLS {
		scheme = "https://"
	}
	return scheme + c.ServerAddress
}

// IsProd проверяет, prod ли окружение
func (c *Config) IsProd() bool {
	return c.Env == "prod"
}

// IsDev проверяет, dev ли окружение
func (c *Config) IsDev() bool {
	return c.Env == "dev"
}

// IsLocal проверяет, local ли окружение
func (c *Config) IsLocal() bool {
	return c.Env == "local" || c.Env == ""
}
