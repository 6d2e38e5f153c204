package domain

import (
	"github.com/shopspring/decimal"
)

// RestaurantSales — сумма доставленных заказов ресторана.
type RestaurantSales struct {
	RestaurantID   string
	RestaurantName string
	Orders         int
	Total          decimal.Decimal
}

// ProductSales — количество проданных единиц продукта в доставленных заказах.
type ProductSales struct {
	ProductID   string
	ProductName string
	Quantity    int64
}

// CustomerOrders — число заказов клиента.
type CustomerOrders struct {
	CustomerID   string
	CustomerName string
	Orders       int
}

// CategoryRevenue — выручка по категории ресторанов (только DELIVERED).
type CategoryRevenue struct {
	Category string
	Total    decimal.Decimal
}
