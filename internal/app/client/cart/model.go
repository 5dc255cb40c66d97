package cart

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MaxQuantity - наибольшее количество одного товара, которое принимает сервер
const MaxQuantity = 10000

// Money - цена в формате каталога (amount + currency code)
type Money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currency_code"`
}

// Decimal возвращает сумму; нечитаемая или пустая цена считается нулем
func (m Money) Decimal() decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(m.Amount))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Product - денормализованный снимок товара на момент добавления в корзину
type Product struct {
	ID        string `json:"id"`
	VariantID string `json:"variant_id,omitempty"`
	Title     string `json:"title"`
	Handle    string `json:"handle"`
	Price     Money  `json:"price"`
	ImageURL  string `json:"image_url,omitempty"`
}

// LineItem - строка локальной корзины
type LineItem struct {
	ID           string  `json:"id"`
	Product      Product `json:"product"`
	Quantity     int     `json:"quantity"`
	PendingSync  bool    `json:"pending_sync"`
	ServerItemID string  `json:"server_item_id,omitempty"`
	Revision     uint64  `json:"revision"`
}

// Tombstone - локальное удаление строки, о которой уже знает сервер
type Tombstone struct {
	ProductID    string `json:"product_id"`
	ServerItemID string `json:"server_item_id"`
}

// State - то, что сохраняется в долговременное хранилище
type State struct {
	Items          []LineItem  `json:"items"`
	Tombstones     []Tombstone `json:"tombstones,omitempty"`
	ClearRequested bool        `json:"clear_requested,omitempty"`
	ClearSeq       uint64      `json:"clear_seq,omitempty"`
	Revision       uint64      `json:"revision"`
}

// Snapshot - согласованная копия корзины для прохода синхронизации
type Snapshot struct {
	Items          []LineItem
	Tombstones     []Tombstone
	ClearRequested bool
	ClearSeq       uint64
}

// HasPending сообщает, есть ли в снимке что отправлять на сервер
func (s Snapshot) HasPending() bool {
	if s.ClearRequested || len(s.Tombstones) > 0 {
		return true
	}
	for _, it := range s.Items {
		if it.PendingSync {
			return true
		}
	}
	return false
}

// ReconciledLine - строка результата сверки с сервером.
// BaseRevision - ревизия локальной строки в снимке, 0 для строк, принятых с сервера.
type ReconciledLine struct {
	LineID       string
	Product      Product
	Quantity     int
	ServerItemID string
	BaseRevision uint64
	Adopted      bool
}

// Reconciliation - результат прохода синхронизации, применяемый к локальной корзине
type Reconciliation struct {
	Lines             []ReconciledLine
	FlushedTombstones []Tombstone
	ClearSeq          uint64
	ClearFlushed      bool
}

// NewLineID генерирует id локальной строки в виде <productID>:<timestamp>
func NewLineID(productID string, now time.Time) string {
	return fmt.Sprintf("%s:%d", productID, now.UnixMilli())
}

// ServerLineID - id строки, принятой с сервера
func ServerLineID(serverItemID string) string {
	return "server-" + serverItemID
}

// BackupVersion - текущая версия формата резервной копии
const BackupVersion = 1

// Backup - снимок гостевой корзины перед миграцией на сервер
type Backup struct {
	Version   int        `json:"version"`
	UserID    string     `json:"user_id"`
	CreatedAt time.Time  `json:"created_at"`
	Items     []LineItem `json:"items"`
}
