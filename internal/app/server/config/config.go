package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPath  = "../../.env"
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

type Config struct {
	Env     string
	DB      db
	Server  server
	Redis   redis
	Session session
	Cart    cart
}

type db struct {
	DatabaseURI string
	Migrations  string
}

type server struct {
	RunAddress      string
	ShutdownTimeout time.Duration
}

type redis struct {
	// Address пустой - кэш корзин отключен
	Address  string
	Password string
	DB       int
}

type session struct {
	TTL time.Duration
}

type cart struct {
	CacheTTL time.Duration
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

func Load() (*Config, error) {
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			log.Printf("load .env: %v", err)
		}
	}

	viper.AutomaticEnv()

	viper.SetDefault("app_env", EnvLocal)
	viper.SetDefault("run_address", ":8080")
	viper.SetDefault("migrations_path", "migrations")
	viper.SetDefault("shutdown_timeout_seconds", 10)
	viper.SetDefault("redis_db", 0)
	viper.SetDefault("session_ttl_hours", 24*30)
	viper.SetDefault("cart_cache_ttl_minutes", 15)

	cfg := &Config{
		Env: viper.GetString("app_env"),
		DB: db{
			DatabaseURI: viper.GetString("database_uri"),
			Migrations:  viper.GetString("migrations_path"),
		},
		Server: server{
			RunAddress:      viper.GetString("run_address"),
			ShutdownTimeout: time.Duration(viper.GetInt("shutdown_timeout_seconds")) * time.Second,
		},
		Redis: redis{
			Address:  viper.GetString("redis_address"),
			Password: viper.GetString("redis_password"),
			DB:       viper.GetInt("redis_db"),
		},
		Session: session{
			TTL: time.Duration(viper.GetInt("session_ttl_hours")) * time.Hour,
		},
		Cart: cart{
			CacheTTL: time.Duration(viper.GetInt("cart_cache_ttl_minutes")) * time.Minute,
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DB.DatabaseURI == "" {
		return fmt.Errorf("DATABASE_URI is required")
	}
	if c.Server.RunAddress == "" {
		return fmt.Errorf("RUN_ADDRESS is required")
	}
	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return fmt.Errorf("unknown APP_ENV %q", c.Env)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL_HOURS must be positive")
	}
	return nil
}

// CacheEnabled сообщает, настроен ли Redis
func (c *Config) CacheEnabled() bool {
	return c.Redis.Address != ""
}
