package sync

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"time"

	"golang.org/x/exp/slog"
	"golang.org/x/sync/singleflight"

	"postercart/internal/app/client/cart"
	"postercart/internal/app/client/gateway"
)

// DefaultInterval - период фоновой синхронизации
const DefaultInterval = 30 * time.Second

// Gateway - серверные операции, нужные движку
type Gateway interface {
	FetchActive(ctx context.Context, id gateway.Identity) (*gateway.ServerCart, error)
	Create(ctx context.Context, id gateway.Identity, items []gateway.ItemInput) (*gateway.ServerCart, error)
	AddItem(ctx context.Context, id gateway.Identity, cartID string, item gateway.ItemInput) (*gateway.ServerItem, error)
	UpdateQuantity(ctx context.Context, id gateway.Identity, itemID string, quantity int) error
	RemoveItem(ctx context.Context, id gateway.Identity, itemID string) error
	Clear(ctx context.Context, id gateway.Identity, cartID string) error
	Touch(ctx context.Context, id gateway.Identity, cartID string) error
}

// Store - операции локальной корзины, нужные движку
type Store interface {
	Snapshot() cart.Snapshot
	ApplyReconciliation(r cart.Reconciliation)
	HasPendingChanges() bool
}

// Status - наблюдаемое состояние синхронизации
type Status struct {
	State             State
	IsOnline          bool
	IsAuthenticated   bool
	LastSynced        time.Time
	HasPendingChanges bool
	LastError         error
}

type Config struct {
	Interval time.Duration
	Clock    Clock
	Metrics  *Metrics
	// Online - начальное состояние сети
	Online bool
}

// Engine поддерживает согласованность локальной и серверной корзин
type Engine struct {
	store    Store
	gw       Gateway
	log      *slog.Logger
	clock    Clock
	interval time.Duration
	metrics  *Metrics
	group    singleflight.Group

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      gosync.WaitGroup

	mu           gosync.Mutex
	identity     gateway.Identity
	online       bool
	state        State
	generation   uint64
	reconnectGen uint64
	ticker       Ticker
	tickerDone   chan struct{}
	inflight     map[string]struct{}
	lastSynced   time.Time
	lastError    error
	closed       bool
}

func NewEngine(store Store, gw Gateway, log *slog.Logger, cfg Config) *Engine {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = RealClock()
	}

	ctx, cancel := context.WithCancel(context.Background())

	e := &Engine{
		store:    store,
		gw:       gw,
		log:      log.With("component", "sync_engine"),
		clock:    cfg.Clock,
		interval: cfg.Interval,
		metrics:  cfg.Metrics,
		baseCtx:  ctx,
		cancel:   cancel,
		online:   cfg.Online,
		state:    StateGuest,
		inflight: make(map[string]struct{}),
	}
	e.metrics.setState(StateGuest)
	return e
}

// SetIdentity подключает аутентифицированного пользователя
func (e *Engine) SetIdentity(id gateway.Identity) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || e.identity == id {
		return
	}
	e.identity = id
	e.generation++
	e.transitionLocked()
}

// ClearIdentity отключает пользователя; результаты текущего прохода будут отброшены
func (e *Engine) ClearIdentity() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.identity.IsZero() {
		return
	}
	e.identity = gateway.Identity{}
	e.generation++
	e.transitionLocked()
}

// SetOnline сообщает о смене доступности сети
func (e *Engine) SetOnline(online bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || e.online == online {
		return
	}
	e.online = online
	e.transitionLocked()
}

func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	authenticated := !e.identity.IsZero()
	return Status{
		State:             e.state,
		IsOnline:          e.online,
		IsAuthenticated:   authenticated,
		LastSynced:        e.lastSynced,
		HasPendingChanges: authenticated && e.store.HasPendingChanges(),
		LastError:         e.lastError,
	}
}

// TriggerSync выполняет фоновый проход: пропускается без идентичности, без сети,
// без несинхронизированных изменений или если проход уже идет. Ошибки только логируются.
func (e *Engine) TriggerSync() Outcome {
	return e.background(TriggerManual)
}

// ForceSync выполняет сверку независимо от наличия изменений и ждет результата.
// Если для пользователя уже идет проход, присоединяется к нему.
func (e *Engine) ForceSync(ctx context.Context) error {
	e.mu.Lock()
	id, gen, online := e.identity, e.generation, e.online
	e.mu.Unlock()

	if id.IsZero() {
		return ErrNotAuthenticated
	}
	if !online {
		return ErrOffline
	}

	ch := e.group.DoChan(id.UserID, func() (any, error) {
		return e.run(id, gen, TriggerForce)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return res.Err
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close останавливает таймер и ждет завершения проходов
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.stopTimerLocked()
	e.mu.Unlock()

	e.cancel()
	e.wg.Wait()
}

func (e *Engine) transitionLocked() {
	prev := e.state
	next := nextState(!e.identity.IsZero(), e.online, prev)
	e.state = next
	e.metrics.setState(next)

	if prev != next {
		e.log.Debug("sync state changed", "from", prev.String(), "to", next.String())
	}

	switch next {
	case StateGuest, StateOffline:
		e.stopTimerLocked()
	case StateSyncing:
		e.startTimerLocked()
	case StateReconnecting:
		if prev == StateReconnecting && e.reconnectGen == e.generation {
			return
		}
		// смена идентичности во время переподключения: прежний проход
		// будет отброшен, поэтому нужен новый
		e.stopTimerLocked()
		gen := e.generation
		e.reconnectGen = gen
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.background(TriggerReconnect)
			e.finishReconnect(gen)
		}()
	}
}

func (e *Engine) finishReconnect(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || e.generation != gen || e.state != StateReconnecting {
		return
	}
	e.state = StateSyncing
	e.metrics.setState(StateSyncing)
	e.log.Debug("sync state changed", "from", StateReconnecting.String(), "to", StateSyncing.String())
	e.startTimerLocked()
}

// startTimerLocked идемпотентен: повторный запуск не создает второй таймер
func (e *Engine) startTimerLocked() {
	if e.ticker != nil || e.closed {
		return
	}

	ticker := e.clock.NewTicker(e.interval)
	done := make(chan struct{})
	e.ticker = ticker
	e.tickerDone = done

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		for {
			select {
			case <-done:
				return
			case <-ticker.C():
				e.wg.Add(1)
				go func() {
					defer e.wg.Done()
					e.background(TriggerTick)
				}()
			}
		}
	}()
}

func (e *Engine) stopTimerLocked() {
	if e.ticker == nil {
		return
	}
	e.ticker.Stop()
	close(e.tickerDone)
	e.ticker = nil
	e.tickerDone = nil
}

func (e *Engine) background(trigger Trigger) Outcome {
	e.mu.Lock()
	id, gen, online := e.identity, e.generation, e.online
	_, busy := e.inflight[id.UserID]
	e.mu.Unlock()

	outcome := OutcomeSynced
	switch {
	case id.IsZero():
		outcome = OutcomeSkippedGuest
	case !online:
		outcome = OutcomeSkippedOffline
	case busy:
		outcome = OutcomeSkippedInFlight
	case !e.store.HasPendingChanges():
		outcome = OutcomeSkippedClean
	}
	if outcome != OutcomeSynced {
		e.metrics.observePass(trigger, outcome, 0)
		return outcome
	}

	res, err, _ := e.group.Do(id.UserID, func() (any, error) {
		return e.run(id, gen, trigger)
	})
	if err != nil {
		e.log.Warn("background sync failed", "trigger", string(trigger), "error", err)
		return OutcomeFailed
	}
	if o, ok := res.(Outcome); ok {
		return o
	}
	return OutcomeSynced
}

// run выполняет один проход; вызывается только внутри singleflight
func (e *Engine) run(id gateway.Identity, gen uint64, trigger Trigger) (Outcome, error) {
	e.mu.Lock()
	e.inflight[id.UserID] = struct{}{}
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		delete(e.inflight, id.UserID)
		e.mu.Unlock()
	}()

	start := e.clock.Now()
	rec, err := e.reconcile(e.baseCtx, id)
	elapsed := e.clock.Now().Sub(start)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.generation != gen {
		e.log.Debug("discarding sync result for stale identity", "user_id", id.UserID)
		e.metrics.observePass(trigger, OutcomeDiscarded, elapsed)
		return OutcomeDiscarded, nil
	}

	if err != nil {
		e.lastError = err
		e.metrics.observePass(trigger, OutcomeFailed, elapsed)
		return OutcomeFailed, err
	}

	e.store.ApplyReconciliation(rec)
	e.lastSynced = e.clock.Now()
	e.lastError = nil
	e.metrics.observePass(trigger, OutcomeSynced, elapsed)
	e.log.Debug("cart reconciled", "trigger", string(trigger), "lines", len(rec.Lines), "elapsed", elapsed)
	return OutcomeSynced, nil
}

// reconcile сверяет корзины и возвращает результат для применения к локальной корзине
func (e *Engine) reconcile(ctx context.Context, id gateway.Identity) (cart.Reconciliation, error) {
	snap := e.store.Snapshot()
	rec := cart.Reconciliation{ClearSeq: snap.ClearSeq}

	srv, err := e.gw.FetchActive(ctx, id)
	if errors.Is(err, gateway.ErrNotFound) {
		return e.seed(ctx, id, snap)
	}
	if err != nil {
		return rec, fmt.Errorf("fetch server cart: %w", err)
	}

	gone := make(map[string]struct{})
	items := srv.Items

	if snap.ClearRequested {
		if err := e.gw.Clear(ctx, id, srv.ID); err != nil && !errors.Is(err, gateway.ErrNotFound) {
			return rec, fmt.Errorf("clear server cart: %w", err)
		}
		rec.ClearFlushed = true
		rec.FlushedTombstones = snap.Tombstones
		items = nil
	} else {
		for _, t := range snap.Tombstones {
			if err := e.gw.RemoveItem(ctx, id, t.ServerItemID); err != nil && !errors.Is(err, gateway.ErrNotFound) {
				return rec, fmt.Errorf("remove server item %s: %w", t.ServerItemID, err)
			}
			gone[t.ServerItemID] = struct{}{}
			rec.FlushedTombstones = append(rec.FlushedTombstones, t)
		}
	}

	plan := BuildPlan(snap.Items, items, gone)

	for _, step := range plan.Steps {
		line := cart.ReconciledLine{
			LineID:       step.Line.ID,
			Product:      step.Line.Product,
			Quantity:     step.Quantity,
			ServerItemID: step.ServerItemID,
			BaseRevision: step.Line.Revision,
		}

		switch step.Action {
		case ActionUpdate:
			if err := e.gw.UpdateQuantity(ctx, id, step.ServerItemID, step.Quantity); err != nil {
				return rec, fmt.Errorf("update server item %s: %w", step.ServerItemID, err)
			}
		case ActionAdd:
			added, err := e.gw.AddItem(ctx, id, srv.ID, ToItemInput(step.Line))
			if err != nil {
				return rec, fmt.Errorf("add product %s: %w", step.Line.Product.ID, err)
			}
			line.ServerItemID = added.ID
			if added.Quantity > 0 {
				line.Quantity = added.Quantity
			}
		}

		rec.Lines = append(rec.Lines, line)
	}

	for _, item := range plan.Adopted {
		rec.Lines = append(rec.Lines, cart.ReconciledLine{
			LineID:       cart.ServerLineID(item.ID),
			Product:      ToProduct(item),
			Quantity:     item.Quantity,
			ServerItemID: item.ID,
			Adopted:      true,
		})
	}

	if err := e.gw.Touch(ctx, id, srv.ID); err != nil {
		e.log.Warn("failed to touch server cart", "cart_id", srv.ID, "error", err)
	}

	return rec, nil
}

// seed создает серверную корзину из локальных строк
func (e *Engine) seed(ctx context.Context, id gateway.Identity, snap cart.Snapshot) (cart.Reconciliation, error) {
	rec := cart.Reconciliation{
		ClearSeq:          snap.ClearSeq,
		ClearFlushed:      snap.ClearRequested,
		FlushedTombstones: snap.Tombstones,
	}

	// пустую корзину на сервере не создаем
	if len(snap.Items) == 0 {
		return rec, nil
	}

	inputs := make([]gateway.ItemInput, 0, len(snap.Items))
	for _, line := range snap.Items {
		inputs = append(inputs, ToItemInput(line))
	}

	srv, err := e.gw.Create(ctx, id, inputs)
	if err != nil {
		return rec, fmt.Errorf("create server cart: %w", err)
	}

	byProduct := make(map[string]gateway.ServerItem, len(srv.Items))
	for _, it := range srv.Items {
		if _, dup := byProduct[it.ProductID]; !dup {
			byProduct[it.ProductID] = it
		}
	}

	for _, line := range snap.Items {
		r := cart.ReconciledLine{
			LineID:       line.ID,
			Product:      line.Product,
			Quantity:     line.Quantity,
			BaseRevision: line.Revision,
		}
		if it, ok := byProduct[line.Product.ID]; ok {
			r.ServerItemID = it.ID
			r.Quantity = max(line.Quantity, it.Quantity)
		}
		rec.Lines = append(rec.Lines, r)
	}

	return rec, nil
}
