package cart

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/slog"
)

// Persister - долговременное хранилище состояния корзины
type Persister interface {
	LoadCart(ctx context.Context) (*State, error)
	SaveCart(ctx context.Context, state State) error
}

// Option настраивает Store
type Option func(*Store)

// WithClock подменяет источник времени (используется для id строк)
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store - единственный источник истины о содержимом корзины на клиенте.
// Все мутации синхронные и не возвращают ошибок; сохранение выполняется
// после каждой мутации, его ошибки доступны через LastPersistError.
type Store struct {
	persister Persister
	log       *slog.Logger
	now       func() time.Time

	mu             gosync.RWMutex
	items          []LineItem
	tombstones     []Tombstone
	clearRequested bool
	clearSeq       uint64
	revision       uint64

	persistMu  gosync.Mutex
	savedRev   uint64
	persistErr error
}

func NewStore(persister Persister, log *slog.Logger, opts ...Option) *Store {
	s := &Store{
		persister: persister,
		log:       log.With("component", "cart_store"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load восстанавливает корзину из хранилища. Отсутствие сохраненного
// состояния не ошибка - корзина остается пустой.
func (s *Store) Load(ctx context.Context) error {
	state, err := s.persister.LoadCart(ctx)
	if errors.Is(err, ErrNoState) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: load: %v", ErrPersistence, err)
	}

	s.mu.Lock()
	s.items = append([]LineItem(nil), state.Items...)
	s.tombstones = append([]Tombstone(nil), state.Tombstones...)
	s.clearRequested = state.ClearRequested
	s.clearSeq = state.ClearSeq
	s.revision = state.Revision
	s.mu.Unlock()

	s.persistMu.Lock()
	s.savedRev = state.Revision
	s.persistMu.Unlock()

	s.log.Debug("cart rehydrated", "items", len(state.Items))
	return nil
}

// AddItem увеличивает количество существующей строки товара или добавляет новую
func (s *Store) AddItem(product Product, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	if idx := s.indexByProduct(product.ID); idx >= 0 {
		s.items[idx].Quantity = clampQuantity(s.items[idx].Quantity + quantity)
		s.touchLocked(idx)
	} else {
		s.items = append(s.items, LineItem{
			ID:       NewLineID(product.ID, s.now()),
			Product:  product,
			Quantity: clampQuantity(quantity),
		})
		s.touchLocked(len(s.items) - 1)
	}
	state := s.stateLocked()
	s.mu.Unlock()

	s.persist(state)
}

// RemoveItem удаляет строку; отсутствие строки не ошибка
func (s *Store) RemoveItem(id string) {
	s.mu.Lock()
	if !s.removeLocked(id) {
		s.mu.Unlock()
		return
	}
	s.revision++
	state := s.stateLocked()
	s.mu.Unlock()

	s.persist(state)
}

// UpdateQuantity перезаписывает количество; quantity <= 0 удаляет строку
func (s *Store) UpdateQuantity(id string, quantity int) {
	if quantity <= 0 {
		s.RemoveItem(id)
		return
	}

	s.mu.Lock()
	idx := s.indexByID(id)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	s.items[idx].Quantity = clampQuantity(quantity)
	s.touchLocked(idx)
	state := s.stateLocked()
	s.mu.Unlock()

	s.persist(state)
}

// Clear очищает корзину. Если сервер уже знает о строках, следующий проход
// синхронизации очистит и серверную корзину. clearSeq растет при каждой
// очистке, чтобы проход, начатый до нее, не вернул строки обратно.
func (s *Store) Clear() {
	s.mu.Lock()
	s.clearSeq++
	for _, it := range s.items {
		if it.ServerItemID != "" {
			s.clearRequested = true
			s.tombstones = nil
			break
		}
	}
	s.items = nil
	s.revision++
	state := s.stateLocked()
	s.mu.Unlock()

	s.persist(state)
}

// Replace заменяет содержимое корзины (восстановление из резервной копии)
func (s *Store) Replace(items []LineItem) {
	s.mu.Lock()
	s.items = make([]LineItem, 0, len(items))
	for _, it := range items {
		s.items = append(s.items, it)
		s.touchLocked(len(s.items) - 1)
	}
	s.tombstones = nil
	s.clearRequested = false
	state := s.stateLocked()
	s.mu.Unlock()

	s.persist(state)
}

// Items возвращает копию строк в порядке добавления
func (s *Store) Items() []LineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]LineItem(nil), s.items...)
}

// TotalItems - сумма количеств
func (s *Store) TotalItems() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, it := range s.items {
		total += it.Quantity
	}
	return total
}

// TotalPrice - сумма цена * количество
func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, it := range s.items {
		total = total.Add(it.Product.Price.Decimal().Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// CurrencyCode возвращает валюту первой строки с ценой
func (s *Store) CurrencyCode() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, it := range s.items {
		if it.Product.Price.CurrencyCode != "" {
			return it.Product.Price.CurrencyCode
		}
	}
	return ""
}

func (s *Store) Contains(productID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexByProduct(productID) >= 0
}

func (s *Store) QuantityOf(productID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.indexByProduct(productID); idx >= 0 {
		return s.items[idx].Quantity
	}
	return 0
}

// HasPendingChanges сообщает, есть ли несинхронизированные изменения
func (s *Store) HasPendingChanges() bool {
	return s.Snapshot().HasPending()
}

// Snapshot возвращает согласованную копию для синхронизации
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		Items:          append([]LineItem(nil), s.items...),
		Tombstones:     append([]Tombstone(nil), s.tombstones...),
		ClearRequested: s.clearRequested,
		ClearSeq:       s.clearSeq,
	}
}

// ApplyReconciliation применяет результат сверки с сервером.
// Строка, измененная локально во время прохода, сохраняет локальное значение
// и остается в ожидании синхронизации; удаленная строка не восстанавливается.
func (s *Store) ApplyReconciliation(r Reconciliation) {
	s.mu.Lock()

	clearedDuringPass := s.clearSeq != r.ClearSeq
	if r.ClearFlushed && !clearedDuringPass {
		s.clearRequested = false
	}

	if len(r.FlushedTombstones) > 0 {
		flushed := make(map[string]struct{}, len(r.FlushedTombstones))
		for _, t := range r.FlushedTombstones {
			flushed[t.ServerItemID] = struct{}{}
		}
		kept := s.tombstones[:0]
		for _, t := range s.tombstones {
			if _, ok := flushed[t.ServerItemID]; !ok {
				kept = append(kept, t)
			}
		}
		s.tombstones = kept
	}

	for _, line := range r.Lines {
		if line.Adopted {
			if clearedDuringPass || s.indexByProduct(line.Product.ID) >= 0 {
				continue
			}
			s.revision++
			s.items = append(s.items, LineItem{
				ID:           line.LineID,
				Product:      line.Product,
				Quantity:     line.Quantity,
				ServerItemID: line.ServerItemID,
				Revision:     s.revision,
			})
			continue
		}

		idx := s.indexByID(line.LineID)
		if idx < 0 {
			// строку удалили во время прохода, а сервер уже знает о ней
			if line.ServerItemID != "" {
				s.addTombstoneLocked(Tombstone{ProductID: line.Product.ID, ServerItemID: line.ServerItemID})
			}
			continue
		}
		cur := &s.items[idx]
		if cur.ServerItemID == "" {
			cur.ServerItemID = line.ServerItemID
		}
		if cur.Revision != line.BaseRevision {
			continue
		}
		cur.Quantity = line.Quantity
		cur.ServerItemID = line.ServerItemID
		cur.PendingSync = false
	}

	s.revision++
	state := s.stateLocked()
	s.mu.Unlock()

	s.persist(state)
}

// BindServerIDs проставляет серверные id строкам без них (после миграции)
func (s *Store) BindServerIDs(byProduct map[string]string) {
	if len(byProduct) == 0 {
		return
	}

	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ServerItemID != "" {
			continue
		}
		if id, ok := byProduct[s.items[i].Product.ID]; ok {
			s.items[i].ServerItemID = id
		}
	}
	s.revision++
	state := s.stateLocked()
	s.mu.Unlock()

	s.persist(state)
}

// LastPersistError возвращает последнюю ошибку сохранения (nil после успешного)
func (s *Store) LastPersistError() error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	return s.persistErr
}

func (s *Store) persist(state State) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	// более новое состояние уже записано
	if state.Revision < s.savedRev {
		return
	}

	if err := s.persister.SaveCart(context.Background(), state); err != nil {
		s.persistErr = fmt.Errorf("%w: %v", ErrPersistence, err)
		s.log.Warn("failed to persist cart", "error", err)
		return
	}
	s.savedRev = state.Revision
	s.persistErr = nil
}

func (s *Store) touchLocked(idx int) {
	s.revision++
	s.items[idx].PendingSync = true
	s.items[idx].Revision = s.revision
}

func (s *Store) removeLocked(id string) bool {
	idx := s.indexByID(id)
	if idx < 0 {
		return false
	}
	if sid := s.items[idx].ServerItemID; sid != "" {
		s.addTombstoneLocked(Tombstone{
			ProductID:    s.items[idx].Product.ID,
			ServerItemID: sid,
		})
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	return true
}

func (s *Store) addTombstoneLocked(t Tombstone) {
	for _, existing := range s.tombstones {
		if existing.ServerItemID == t.ServerItemID {
			return
		}
	}
	s.tombstones = append(s.tombstones, t)
}

func clampQuantity(q int) int {
	return min(q, MaxQuantity)
}

func (s *Store) stateLocked() State {
	return State{
		Items:          append([]LineItem(nil), s.items...),
		Tombstones:     append([]Tombstone(nil), s.tombstones...),
		ClearRequested: s.clearRequested,
		ClearSeq:       s.clearSeq,
		Revision:       s.revision,
	}
}

func (s *Store) indexByID(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) indexByProduct(productID string) int {
	for i := range s.items {
		if s.items[i].Product.ID == productID {
			return i
		}
	}
	return -1
}
