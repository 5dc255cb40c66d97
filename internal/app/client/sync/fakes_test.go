package sync

import (
	"context"
	"fmt"
	"io"
	gosync "sync"
	"time"

	"golang.org/x/exp/slog"

	"postercart/internal/app/client/cart"
	"postercart/internal/app/client/gateway"
	"postercart/internal/app/client/storage"
)

var alice = gateway.Identity{UserID: "alice", Token: "alice-token"}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newCartStore() *cart.Store {
	return cart.NewStore(storage.NewMemoryStorage(), discardLogger())
}

func product(id string) cart.Product {
	return cart.Product{
		ID:     id,
		Title:  "Poster " + id,
		Handle: "poster-" + id,
		Price:  cart.Money{Amount: "20.00", CurrencyCode: "USD"},
	}
}

// fakeGateway - серверная корзина в памяти с семантикой настоящего API
type fakeGateway struct {
	mu      gosync.Mutex
	carts   map[string]*gateway.ServerCart
	nextID  int
	calls   map[string]int
	failErr error

	fetchGate    chan struct{}
	fetchStarted chan struct{}
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		carts: make(map[string]*gateway.ServerCart),
		calls: make(map[string]int),
	}
}

func (g *fakeGateway) count(op string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[op]
}

func (g *fakeGateway) setFailure(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failErr = err
}

// blockFetch заставляет FetchActive ждать release
func (g *fakeGateway) blockFetch() (started <-chan struct{}, release func()) {
	g.mu.Lock()
	defer g.mu.Unlock()

	gate := make(chan struct{})
	st := make(chan struct{}, 16)
	g.fetchGate = gate
	g.fetchStarted = st

	var once gosync.Once
	return st, func() {
		once.Do(func() {
			g.mu.Lock()
			g.fetchGate = nil
			g.mu.Unlock()
			close(gate)
		})
	}
}

func (g *fakeGateway) seedCart(userID string, items ...gateway.ServerItem) *gateway.ServerCart {
	g.mu.Lock()
	defer g.mu.Unlock()

	c := &gateway.ServerCart{ID: g.newIDLocked("cart"), UserID: userID, Active: true}
	for _, it := range items {
		if it.ID == "" {
			it.ID = g.newIDLocked("item")
		}
		c.Items = append(c.Items, it)
	}
	g.carts[userID] = c
	return c
}

func (g *fakeGateway) serverQuantity(userID, productID string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.carts[userID]
	if !ok {
		return 0
	}
	for _, it := range c.Items {
		if it.ProductID == productID {
			return it.Quantity
		}
	}
	return 0
}

func (g *fakeGateway) serverItems(userID string) []gateway.ServerItem {
	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.carts[userID]
	if !ok {
		return nil
	}
	return append([]gateway.ServerItem(nil), c.Items...)
}

func (g *fakeGateway) newIDLocked(prefix string) string {
	g.nextID++
	return fmt.Sprintf("%s-%d", prefix, g.nextID)
}

func (g *fakeGateway) begin(op string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls[op]++
	return g.failErr
}

func (g *fakeGateway) FetchActive(_ context.Context, id gateway.Identity) (*gateway.ServerCart, error) {
	g.mu.Lock()
	g.calls["FetchActive"]++
	gate, started, failErr := g.fetchGate, g.fetchStarted, g.failErr
	g.mu.Unlock()

	if started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}
	if gate != nil {
		<-gate
	}
	if failErr != nil {
		return nil, failErr
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.carts[id.UserID]
	if !ok {
		return nil, gateway.ErrNotFound
	}
	cp := *c
	cp.Items = append([]gateway.ServerItem(nil), c.Items...)
	return &cp, nil
}

func (g *fakeGateway) Create(_ context.Context, id gateway.Identity, items []gateway.ItemInput) (*gateway.ServerCart, error) {
	if err := g.begin("Create"); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	c := &gateway.ServerCart{ID: g.newIDLocked("cart"), UserID: id.UserID, Active: true}
	for _, in := range items {
		c.Items = append(c.Items, itemFromInput(g.newIDLocked("item"), in))
	}
	g.carts[id.UserID] = c

	cp := *c
	cp.Items = append([]gateway.ServerItem(nil), c.Items...)
	return &cp, nil
}

func (g *fakeGateway) AddItem(_ context.Context, id gateway.Identity, cartID string, in gateway.ItemInput) (*gateway.ServerItem, error) {
	if err := g.begin("AddItem"); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.carts[id.UserID]
	if !ok || c.ID != cartID {
		return nil, gateway.ErrNotFound
	}
	for i := range c.Items {
		if c.Items[i].ProductID == in.ProductID && c.Items[i].VariantID == in.VariantID {
			c.Items[i].Quantity += in.Quantity
			it := c.Items[i]
			return &it, nil
		}
	}
	it := itemFromInput(g.newIDLocked("item"), in)
	c.Items = append(c.Items, it)
	return &it, nil
}

func (g *fakeGateway) UpdateQuantity(_ context.Context, id gateway.Identity, itemID string, quantity int) error {
	if err := g.begin("UpdateQuantity"); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.carts[id.UserID]
	if !ok {
		return gateway.ErrNotFound
	}
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			if quantity <= 0 {
				c.Items = append(c.Items[:i], c.Items[i+1:]...)
			} else {
				c.Items[i].Quantity = quantity
			}
			return nil
		}
	}
	return gateway.ErrNotFound
}

func (g *fakeGateway) RemoveItem(_ context.Context, id gateway.Identity, itemID string) error {
	if err := g.begin("RemoveItem"); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.carts[id.UserID]
	if !ok {
		return gateway.ErrNotFound
	}
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return nil
		}
	}
	return gateway.ErrNotFound
}

func (g *fakeGateway) Clear(_ context.Context, id gateway.Identity, cartID string) error {
	if err := g.begin("Clear"); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.carts[id.UserID]
	if !ok || c.ID != cartID {
		return gateway.ErrNotFound
	}
	c.Items = nil
	return nil
}

func (g *fakeGateway) Touch(_ context.Context, _ gateway.Identity, _ string) error {
	return g.begin("Touch")
}

func itemFromInput(id string, in gateway.ItemInput) gateway.ServerItem {
	return gateway.ServerItem{
		ID:           id,
		ProductID:    in.ProductID,
		VariantID:    in.VariantID,
		Title:        in.Title,
		Handle:       in.Handle,
		Price:        in.Price,
		CurrencyCode: in.CurrencyCode,
		ImageURL:     in.ImageURL,
		Quantity:     in.Quantity,
	}
}

// fakeClock - часы с ручными тикерами
type fakeClock struct {
	mu      gosync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTicker(_ time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &fakeTicker{ch: make(chan time.Time, 1)}
	c.tickers = append(c.tickers, t)
	return t
}

// Tick продвигает время и срабатывает все активные тикеры
func (c *fakeClock) Tick(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	tickers := append([]*fakeTicker(nil), c.tickers...)
	c.mu.Unlock()

	for _, t := range tickers {
		t.fire(now)
	}
}

func (c *fakeClock) created() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickers)
}

func (c *fakeClock) active() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, t := range c.tickers {
		if !t.isStopped() {
			n++
		}
	}
	return n
}

type fakeTicker struct {
	mu      gosync.Mutex
	ch      chan time.Time
	stopped bool
}

func (t *fakeTicker) C() <-chan time.Time {
	return t.ch
}

func (t *fakeTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

func (t *fakeTicker) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

func (t *fakeTicker) fire(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	select {
	case t.ch <- now:
	default:
	}
}
