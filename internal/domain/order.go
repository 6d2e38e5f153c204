package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus описывает жизненный цикл заказа. Значение хранится как есть:
// сервис принимает любой непустой статус, константы ниже перечисляют известные приложению.
type OrderStatus string

const (
	// OrderStatusPending — начальный статус, единственный, из которого разрешена отмена.
	OrderStatusPending        OrderStatus = "PENDING"
	OrderStatusConfirmed      OrderStatus = "CONFIRMED"
	OrderStatusInPreparation  OrderStatus = "IN_PREPARATION"
	OrderStatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	// OrderStatusDelivered учитывается в отчётах о продажах.
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// Terminal сообщает, считается ли статус конечным. Переходы из него не запрещены.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// ParseOrderStatus возвращает статус без изменений. Отклоняется только
// статус из одних пробелов.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	if strings.TrimSpace(raw) == "" {
		return "", ErrStatusRequired
	}
	return OrderStatus(raw), nil
}

// LinePrice — пара (количество, цена за единицу) для расчёта суммы.
type LinePrice struct {
	Quantity  int32
	UnitPrice decimal.Decimal
}

// CalculateTotal возвращает сумму quantity × unit price по всем позициям.
// Пустой вход даёт ноль.
func CalculateTotal(lines []LinePrice) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt32(line.Quantity)))
	}
	return total
}

// OrderLine представляет одну позицию заказа.
type OrderLine struct {
	ID      string
	OrderID string
	// ProductID — ссылка на продукт; цена из продукта повторно не читается.
	ProductID   string
	ProductName string
	Quantity    int32
	// UnitPrice фиксируется в момент создания заказа.
	UnitPrice decimal.Decimal
	CreatedAt time.Time
}

// NewOrderLine создаёт позицию, копируя текущую цену продукта.
func NewOrderLine(orderID string, product Product, quantity int32, now time.Time) (OrderLine, error) {
	if quantity <= 0 {
		return OrderLine{}, ErrItemQtyInvalid
	}
	return OrderLine{
		ID:          uuid.NewString(),
		OrderID:     orderID,
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    quantity,
		UnitPrice:   product.Price,
		CreatedAt:   now.UTC(),
	}, nil
}

// Subtotal возвращает quantity × unit price.
func (l OrderLine) Subtotal() decimal.Decimal {
	return CalculateTotal([]LinePrice{{Quantity: l.Quantity, UnitPrice: l.UnitPrice}})
}

// Order агрегирует заказ и его позиции.
type Order struct {
	ID           string
	CustomerID   string
	RestaurantID string
	Status       OrderStatus
	Total        decimal.Decimal
	Lines        []OrderLine
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewOrder создаёт пустой заказ в статусе PENDING. Позиции добавляются через AddLine.
func NewOrder(customerID, restaurantID string, now time.Time) Order {
	now = now.UTC()
	return Order{
		ID:           uuid.NewString(),
		CustomerID:   customerID,
		RestaurantID: restaurantID,
		Status:       OrderStatusPending,
		Total:        decimal.Zero,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// AddLine добавляет позицию и пересчитывает сумму.
func (o *Order) AddLine(line OrderLine) {
	line.OrderID = o.ID
	o.Lines = append(o.Lines, line)
	o.RecalculateTotal()
}

// RecalculateTotal приводит Total к сумме подытогов позиций.
func (o *Order) RecalculateTotal() {
	o.Total = CalculateTotal(o.linePrices())
}

func (o *Order) linePrices() []LinePrice {
	prices := make([]LinePrice, 0, len(o.Lines))
	for _, line := range o.Lines {
		prices = append(prices, LinePrice{Quantity: line.Quantity, UnitPrice: line.UnitPrice})
	}
	return prices
}

// Cancel переводит заказ в CANCELLED, если он ещё в PENDING.
func (o *Order) Cancel(now time.Time) error {
	if o.Status != OrderStatusPending {
		return ErrOrderNotCancelable
	}
	o.Status = OrderStatusCancelled
	o.UpdatedAt = now.UTC()
	return nil
}

// SetStatus перезаписывает статус без проверки переходов.
func (o *Order) SetStatus(status OrderStatus, now time.Time) {
	o.Status = status
	o.UpdatedAt = now.UTC()
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.CustomerID == "" {
		errs = append(errs, ErrCustomerRequired)
	}
	if o.RestaurantID == "" {
		errs = append(errs, ErrRestaurantRequired)
	}
	if len(o.Lines) == 0 {
		errs = append(errs, ErrItemsRequired)
	}

	seen := make(map[string]struct{}, len(o.Lines))
	for _, line := range o.Lines {
		if line.Quantity <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if !line.UnitPrice.IsPositive() {
			errs = append(errs, ErrPriceInvalid)
		} else if err := ValidateAmount(line.UnitPrice); err != nil {
			errs = append(errs, err)
		}
		if _, dup := seen[line.ProductID]; dup {
			errs = append(errs, ErrItemDuplicated)
		}
		seen[line.ProductID] = struct{}{}
	}

	// Сверяем сумму заказа с суммой позиций.
	if !CalculateTotal(o.linePrices()).Equal(o.Total) {
		errs = append(errs, ErrAmountMismatch)
	}
	if o.Total.GreaterThan(maxAmount) {
		errs = append(errs, ErrAmountTooLarge)
	}

	return errs
}

// OrderFilter задаёт условия выборки заказов. Нулевые значения не фильтруют.
type OrderFilter struct {
	Status OrderStatus
	From   time.Time
	To     time.Time
	Limit  int
}

// Matches проверяет заказ на соответствие фильтру.
func (f OrderFilter) Matches(o Order) bool {
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if !f.From.IsZero() && o.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && o.CreatedAt.After(f.To) {
		return false
	}
	return true
}
