package sync

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"postercart/internal/app/client/cart"
	"postercart/internal/app/client/gateway"
)

// DefaultVariantID подставляется для товаров без варианта
const DefaultVariantID = "default"

// ограничения серверной валидации строки
const (
	maxTitleLen    = 512
	maxHandleLen   = 255
	maxImageURLLen = 2048
)

// Action - что нужно сделать на сервере для строки
type Action int

const (
	ActionKeep Action = iota
	ActionUpdate
	ActionAdd
)

// Step - шаг плана для локальной строки
type Step struct {
	Action Action
	Line   cart.LineItem
	// ServerItemID пуст для ActionAdd
	ServerItemID string
	Quantity     int
}

// Plan - результат слияния локальной и серверной корзин по id товара
type Plan struct {
	Steps   []Step
	Adopted []gateway.ServerItem
}

// IsEmpty сообщает, что серверу нечего отправлять
func (p Plan) IsEmpty() bool {
	for _, s := range p.Steps {
		if s.Action != ActionKeep {
			return false
		}
	}
	return true
}

// BuildPlan сливает корзины: для общего товара побеждает большее количество,
// локальные товары отправляются на сервер, серверные принимаются локально.
// Серверные строки из gone (уже удаленные в этом проходе) не учитываются.
// Если на сервере несколько строк одного товара, используется первая.
func BuildPlan(local []cart.LineItem, server []gateway.ServerItem, gone map[string]struct{}) Plan {
	byProduct := make(map[string]gateway.ServerItem, len(server))
	order := make([]string, 0, len(server))
	for _, it := range server {
		if _, ok := gone[it.ID]; ok {
			continue
		}
		if _, dup := byProduct[it.ProductID]; dup {
			continue
		}
		byProduct[it.ProductID] = it
		order = append(order, it.ProductID)
	}

	plan := Plan{Steps: make([]Step, 0, len(local))}
	seen := make(map[string]struct{}, len(local))

	for _, line := range local {
		seen[line.Product.ID] = struct{}{}

		srv, ok := byProduct[line.Product.ID]
		if !ok {
			plan.Steps = append(plan.Steps, Step{
				Action:   ActionAdd,
				Line:     line,
				Quantity: line.Quantity,
			})
			continue
		}

		qty := min(max(line.Quantity, srv.Quantity), cart.MaxQuantity)
		action := ActionKeep
		if srv.Quantity != qty {
			action = ActionUpdate
		}
		plan.Steps = append(plan.Steps, Step{
			Action:       action,
			Line:         line,
			ServerItemID: srv.ID,
			Quantity:     qty,
		})
	}

	for _, productID := range order {
		if _, ok := seen[productID]; ok {
			continue
		}
		plan.Adopted = append(plan.Adopted, byProduct[productID])
	}

	return plan
}

// ToItemInput переводит локальную строку в серверный формат. Поля, которые
// сервер не примет, исправляются или отбрасываются: иначе строка ломала бы
// каждый проход синхронизации.
func ToItemInput(line cart.LineItem) gateway.ItemInput {
	p := line.Product

	variant := p.VariantID
	if variant == "" {
		variant = DefaultVariantID
	}

	title := strings.TrimSpace(p.Title)
	if title == "" {
		title = p.ID
	}

	imageURL := p.ImageURL
	if utf8.RuneCountInString(imageURL) > maxImageURLLen {
		imageURL = ""
	}

	return gateway.ItemInput{
		ProductID:    p.ID,
		VariantID:    variant,
		Title:        truncate(title, maxTitleLen),
		Handle:       truncate(p.Handle, maxHandleLen),
		Price:        normalizePrice(p.Price.Amount),
		CurrencyCode: normalizeCurrency(p.Price.CurrencyCode),
		ImageURL:     imageURL,
		Quantity:     min(max(line.Quantity, 1), cart.MaxQuantity),
	}
}

// normalizePrice возвращает неотрицательную десятичную цену или пустую строку
func normalizePrice(amount string) string {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil || d.IsNegative() {
		return ""
	}
	return d.StringFixed(max(2, -d.Exponent()))
}

func normalizeCurrency(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return ""
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return ""
		}
	}
	return code
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// ToProduct восстанавливает снимок товара из серверной строки
func ToProduct(item gateway.ServerItem) cart.Product {
	variant := item.VariantID
	if variant == DefaultVariantID {
		variant = ""
	}
	return cart.Product{
		ID:        item.ProductID,
		VariantID: variant,
		Title:     item.Title,
		Handle:    item.Handle,
		Price:     cart.Money{Amount: item.Price, CurrencyCode: item.CurrencyCode},
		ImageURL:  item.ImageURL,
	}
}
