package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/exp/slog"
)

// Config - параметры подключения к серверу корзин
type Config struct {
	BaseURL string
	Timeout time.Duration
	// BreakerFailures - число подряд неудачных запросов, после которого
	// предохранитель размыкается
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// HTTPGateway - клиент серверного API корзин. Каждый вызов - один запрос,
// без повторов; при недоступности сервера предохранитель отвечает сразу.
type HTTPGateway struct {
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[[]byte]
	log       *slog.Logger
	baseURL   string
	userAgent string
}

func New(cfg Config, log *slog.Logger) *HTTPGateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	log = log.With("component", "cart_gateway")

	client := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			MaxIdleConnsPerHost: 10,
		},
	}

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "cart-server",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		IsSuccessful: func(err error) bool {
			return !isOutage(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &HTTPGateway{
		client:    client,
		breaker:   breaker,
		log:       log,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: "PosterCart-Client/1.0",
	}
}

// HealthCheck проверяет доступность сервера
func (g *HTTPGateway) HealthCheck(ctx context.Context) error {
	_, err := g.do(ctx, http.MethodGet, "/api/v1/health", "", nil)
	return err
}

// Register регистрирует пользователя и возвращает его id
func (g *HTTPGateway) Register(ctx context.Context, email, password string) (string, error) {
	body, err := g.do(ctx, http.MethodPost, "/user/register", "", credentialsRequest{Email: email, Password: password})
	if err != nil {
		return "", err
	}

	var resp registerResponse
	if err := decode(body, &resp); err != nil {
		return "", err
	}
	return resp.UserID, nil
}

// Login выполняет вход и возвращает идентичность для последующих запросов
func (g *HTTPGateway) Login(ctx context.Context, email, password string) (Identity, error) {
	body, err := g.do(ctx, http.MethodPost, "/user/login", "", credentialsRequest{Email: email, Password: password})
	if err != nil {
		return Identity{}, err
	}

	var resp loginResponse
	if err := decode(body, &resp); err != nil {
		return Identity{}, err
	}
	if resp.Token == "" || resp.UserID == "" {
		return Identity{}, fmt.Errorf("%w: empty login response", ErrServer)
	}
	return Identity{UserID: resp.UserID, Token: resp.Token}, nil
}

// FetchActive возвращает активную корзину или ErrNotFound
func (g *HTTPGateway) FetchActive(ctx context.Context, id Identity) (*ServerCart, error) {
	if err := requireToken(id); err != nil {
		return nil, err
	}

	body, err := g.do(ctx, http.MethodGet, "/api/cart", id.Token, nil)
	if err != nil {
		return nil, err
	}

	var resp cartResponse
	if err := decode(body, &resp); err != nil {
		return nil, err
	}
	return &resp.Cart, nil
}

// Create создает активную корзину пользователя с начальными строками
func (g *HTTPGateway) Create(ctx context.Context, id Identity, items []ItemInput) (*ServerCart, error) {
	if err := requireToken(id); err != nil {
		return nil, err
	}
	if items == nil {
		items = []ItemInput{}
	}

	body, err := g.do(ctx, http.MethodPost, "/api/cart", id.Token, createCartRequest{Items: items})
	if err != nil {
		return nil, err
	}

	var resp cartResponse
	if err := decode(body, &resp); err != nil {
		return nil, err
	}
	return &resp.Cart, nil
}

// AddItem добавляет товар; сервер увеличивает количество существующей строки
func (g *HTTPGateway) AddItem(ctx context.Context, id Identity, cartID string, item ItemInput) (*ServerItem, error) {
	if err := requireToken(id); err != nil {
		return nil, err
	}

	body, err := g.do(ctx, http.MethodPost, "/api/cart/"+url.PathEscape(cartID)+"/items", id.Token, item)
	if err != nil {
		return nil, err
	}

	var resp itemResponse
	if err := decode(body, &resp); err != nil {
		return nil, err
	}
	return &resp.Item, nil
}

// UpdateQuantity перезаписывает количество; quantity <= 0 удаляет строку на сервере
func (g *HTTPGateway) UpdateQuantity(ctx context.Context, id Identity, itemID string, quantity int) error {
	if err := requireToken(id); err != nil {
		return err
	}

	_, err := g.do(ctx, http.MethodPatch, "/api/cart/items/"+url.PathEscape(itemID), id.Token, updateQuantityRequest{Quantity: quantity})
	return err
}

func (g *HTTPGateway) RemoveItem(ctx context.Context, id Identity, itemID string) error {
	if err := requireToken(id); err != nil {
		return err
	}

	_, err := g.do(ctx, http.MethodDelete, "/api/cart/items/"+url.PathEscape(itemID), id.Token, nil)
	return err
}

func (g *HTTPGateway) Clear(ctx context.Context, id Identity, cartID string) error {
	if err := requireToken(id); err != nil {
		return err
	}

	_, err := g.do(ctx, http.MethodDelete, "/api/cart/"+url.PathEscape(cartID)+"/items", id.Token, nil)
	return err
}

// Touch обновляет время изменения корзины
func (g *HTTPGateway) Touch(ctx context.Context, id Identity, cartID string) error {
	if err := requireToken(id); err != nil {
		return err
	}

	_, err := g.do(ctx, http.MethodPost, "/api/cart/"+url.PathEscape(cartID)+"/touch", id.Token, nil)
	return err
}

func (g *HTTPGateway) do(ctx context.Context, method, path, token string, payload any) ([]byte, error) {
	body, err := g.breaker.Execute(func() ([]byte, error) {
		return g.roundTrip(ctx, method, path, token, payload)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err != nil {
		g.log.Debug("request failed", "method", method, "path", path, "error", err)
		return nil, err
	}
	return body, nil
}

func (g *HTTPGateway) roundTrip(ctx context.Context, method, path, token string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("ошибка маршалинга тела запроса: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}

	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, statusError(resp.StatusCode, data)
	}

	return data, nil
}

func statusError(code int, body []byte) error {
	var p problem
	msg := ""
	if err := json.Unmarshal(body, &p); err == nil {
		msg = p.Detail
		if msg == "" {
			msg = p.Title
		}
	}
	return &StatusError{Code: code, Message: msg}
}

func decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrServer, err)
	}
	return nil
}

func requireToken(id Identity) error {
	if id.Token == "" {
		return ErrUnauthorized
	}
	return nil
}

// isOutage - ошибки, которые считаются отказом сервера для предохранителя
func isOutage(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnavailable) {
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && se.Code >= http.StatusInternalServerError
}
