package domain

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product — позиция меню ресторана.
type Product struct {
	ID           string
	RestaurantID string
	Name         string
	Description  string
	Price        decimal.Decimal
	Active       bool
}

// ProductDetails — изменяемые поля продукта.
type ProductDetails struct {
	Name        string
	Description string
	Price       decimal.Decimal
}

// Validate проверяет название и цену продукта; цена хранится с точностью до сотых.
func (d ProductDetails) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrNameRequired
	}
	if !d.Price.IsPositive() {
		return ErrPriceInvalid
	}
	return ValidateAmount(d.Price)
}

// NewProduct создаёт активный продукт ресторана.
func NewProduct(restaurantID string, details ProductDetails) (Product, error) {
	if err := details.Validate(); err != nil {
		return Product{}, err
	}
	return Product{
		ID:           uuid.NewString(),
		RestaurantID: restaurantID,
		Name:         strings.TrimSpace(details.Name),
		Description:  strings.TrimSpace(details.Description),
		Price:        details.Price,
		Active:       true,
	}, nil
}

// ApplyDetails обновляет название, описание и цену.
func (p *Product) ApplyDetails(details ProductDetails) error {
	if err := details.Validate(); err != nil {
		return err
	}
	p.Name = strings.TrimSpace(details.Name)
	p.Description = strings.TrimSpace(details.Description)
	p.Price = details.Price
	return nil
}

// ProductFilter задаёт условия поиска продуктов. Пустые поля не фильтруют.
type ProductFilter struct {
	// NameContains — подстрока названия без учёта регистра.
	NameContains string
	// Category — категория ресторана-владельца без учёта регистра.
	Category string
	// MaxPrice — верхняя граница цены включительно.
	MaxPrice decimal.NullDecimal
	// ActiveOnly оставляет только доступные продукты.
	ActiveOnly bool
}
