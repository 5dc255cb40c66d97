package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	gosync "sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/exp/slog"

	"postercart/internal/app/client/cart"
	"postercart/internal/app/client/config"
	"postercart/internal/app/client/gateway"
	"postercart/internal/app/client/storage"
	cartsync "postercart/internal/app/client/sync"
)

var ErrNotLoggedIn = errors.New("вход не выполнен. Выполните: postercart auth login")

type App struct {
	config   *config.Config
	log      *slog.Logger
	gateway  *gateway.HTTPGateway
	storage  storage.Storage
	cart     *cart.Store
	engine   *cartsync.Engine
	migrator *cartsync.Migrator
	monitor  *cartsync.ConnectivityMonitor
	registry *prometheus.Registry

	mu      gosync.RWMutex
	session *Session

	wg     gosync.WaitGroup
	cancel context.CancelFunc
}

// Session - сохраненная на диске идентичность пользователя
type Session struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
	Email  string `json:"email"`
	// Migrated - гостевая корзина уже перенесена (или переносить было нечего)
	Migrated bool      `json:"migrated"`
	LoggedAt time.Time `json:"logged_at"`
}

func (s *Session) identity() gateway.Identity {
	return gateway.Identity{UserID: s.UserID, Token: s.Token}
}

// LoginResult - итог входа; ошибка миграции не отменяет вход
type LoginResult struct {
	Identity     gateway.Identity
	Migration    cartsync.MigrationResult
	MigrationErr error
}

func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	gw := gateway.New(gateway.Config{
		BaseURL:         cfg.BaseURL(),
		Timeout:         cfg.RequestTimeout,
		BreakerFailures: cfg.BreakerFailures,
		BreakerTimeout:  cfg.BreakerTimeout,
	}, log)

	var st storage.Storage
	sqliteStorage, err := storage.NewSQLiteStorage(cfg.DataPath)
	if err != nil {
		log.Warn("Не удалось инициализировать SQLite, используем память", "error", err)
		st = storage.NewMemoryStorage()
	} else {
		st = sqliteStorage
	}

	store := cart.NewStore(st, log)
	if err := store.Load(context.Background()); err != nil {
		log.Warn("Не удалось загрузить корзину", "error", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	engine := cartsync.NewEngine(store, gw, log, cartsync.Config{
		Interval: cfg.SyncInterval,
		Metrics:  cartsync.NewMetrics(registry),
		Online:   true,
	})

	app := &App{
		config:   cfg,
		log:      log,
		gateway:  gw,
		storage:  st,
		cart:     store,
		engine:   engine,
		migrator: cartsync.NewMigrator(store, gw, st, nil, log),
		registry: registry,
	}
	app.monitor = cartsync.NewConnectivityMonitor(gw, engine, nil, cfg.ProbeInterval, log)

	sess, err := app.loadSession()
	if err != nil {
		log.Warn("Не удалось прочитать сессию", "error", err)
	}
	if sess != nil {
		app.session = sess
		log.Debug("Сессия загружена из файла", "user_id", sess.UserID)
	}

	return app, nil
}

// Cart - локальная корзина
func (a *App) Cart() *cart.Store {
	return a.cart
}

// Activate подключает сохраненную идентичность к движку синхронизации;
// незавершенная миграция повторяется
func (a *App) Activate(ctx context.Context) error {
	a.mu.RLock()
	sess := a.session
	a.mu.RUnlock()

	if sess == nil {
		return nil
	}
	if !sess.Migrated {
		if _, err := a.migrate(ctx, sess); err != nil {
			a.log.Warn("Миграция гостевой корзины не выполнена", "error", err)
		}
	}
	a.engine.SetIdentity(sess.identity())
	return nil
}

// Register регистрирует нового пользователя
func (a *App) Register(ctx context.Context, email, password string) (string, error) {
	userID, err := a.gateway.Register(ctx, email, password)
	if err != nil {
		return "", err
	}

	a.log.Info("Пользователь успешно зарегистрирован", "email", email)
	return userID, nil
}

// Login выполняет вход, переносит гостевую корзину и подключает синхронизацию
func (a *App) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	id, err := a.gateway.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	sess := &Session{
		UserID:   id.UserID,
		Token:    id.Token,
		Email:    email,
		LoggedAt: time.Now().UTC(),
	}
	if err := a.saveSession(sess); err != nil {
		return nil, fmt.Errorf("ошибка сохранения сессии: %w", err)
	}

	a.mu.Lock()
	a.session = sess
	a.mu.Unlock()

	res := &LoginResult{Identity: id}
	res.Migration, res.MigrationErr = a.migrate(ctx, sess)

	a.engine.SetIdentity(id)

	a.log.Info("Вход выполнен успешно", "email", email, "migration", res.Migration.String())
	return res, nil
}

// Logout отключает синхронизацию и удаляет сессию; локальная корзина сохраняется
func (a *App) Logout() error {
	a.engine.ClearIdentity()

	a.mu.Lock()
	a.session = nil
	a.mu.Unlock()

	if err := os.Remove(a.config.TokenPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления сессии: %w", err)
	}
	return nil
}

// IsAuthenticated проверяет, выполнен ли вход
func (a *App) IsAuthenticated() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session != nil
}

// CurrentSession возвращает копию текущей сессии
func (a *App) CurrentSession() (Session, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.session == nil {
		return Session{}, false
	}
	return *a.session, true
}

// CheckConnection проверяет соединение с сервером и сообщает результат движку
func (a *App) CheckConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err := a.gateway.HealthCheck(ctx)
	a.engine.SetOnline(err == nil)
	return err
}

// Sync выполняет принудительную синхронизацию и ждет результата
func (a *App) Sync(ctx context.Context) error {
	if !a.IsAuthenticated() {
		return ErrNotLoggedIn
	}
	if err := a.CheckConnection(ctx); err != nil {
		return fmt.Errorf("сервер недоступен: %w", err)
	}
	return a.engine.ForceSync(ctx)
}

// SyncStatus - состояние синхронизации
func (a *App) SyncStatus() cartsync.Status {
	return a.engine.Status()
}

// RestoreBackup восстанавливает корзину из резервной копии перед миграцией
func (a *App) RestoreBackup(ctx context.Context) (int, error) {
	sess, ok := a.CurrentSession()
	if !ok {
		return 0, ErrNotLoggedIn
	}
	return a.migrator.Restore(ctx, sess.UserID)
}

// Run работает до сигнала завершения: следит за сетью, синхронизирует по таймеру,
// при наличии адреса отдает метрики
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	go a.handleSignals()

	if err := a.Activate(ctx); err != nil {
		return err
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.monitor.Run(ctx)
	}()

	if a.config.MetricsAddress != "" {
		srv := &http.Server{
			Addr:              a.config.MetricsAddress,
			Handler:           promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		a.wg.Add(2)
		go func() {
			defer a.wg.Done()
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Error("Ошибка сервера метрик", "error", err)
			}
		}()
		go func() {
			defer a.wg.Done()
			<-ctx.Done()
			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	a.log.Info("Клиент запущен",
		"server", a.config.ServerAddress,
		"env", a.config.Env,
		"sync_interval", a.config.SyncInterval,
	)

	a.wg.Wait()
	return nil
}

func (a *App) handleSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	sig := <-sigChan
	a.log.Info("Получен сигнал завершения", "signal", sig.String())

	if a.cancel != nil {
		a.cancel()
	}
}

// Shutdown останавливает фоновые задачи и закрывает хранилище
func (a *App) Shutdown() {
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	a.engine.Close()
	if err := a.cart.LastPersistError(); err != nil {
		a.log.Warn("Последнее сохранение корзины не удалось", "error", err)
	}
	if err := a.storage.Close(); err != nil {
		a.log.Warn("Ошибка закрытия хранилища", "error", err)
	}
}

func (a *App) migrate(ctx context.Context, sess *Session) (cartsync.MigrationResult, error) {
	res, err := a.migrator.Migrate(ctx, sess.identity())
	if err != nil {
		return res, err
	}

	a.mu.Lock()
	sess.Migrated = true
	a.mu.Unlock()

	if err := a.saveSession(sess); err != nil {
		a.log.Warn("Не удалось сохранить сессию", "error", err)
	}
	return res, nil
}

func (a *App) loadSession() (*Session, error) {
	data, err := os.ReadFile(a.config.TokenPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения сессии: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("ошибка разбора сессии: %w", err)
	}
	if sess.UserID == "" || sess.Token == "" {
		return nil, nil
	}
	return &sess, nil
}

func (a *App) saveSession(sess *Session) error {
	a.mu.RLock()
	data, err := json.MarshalIndent(sess, "", "  ")
	a.mu.RUnlock()
	if err != nil {
		return err
	}
	return os.WriteFile(a.config.TokenPath, data, 0600)
}
