package memory

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
)

// reportRepositoryInMemory строит отчёты поверх остальных in-memory репозиториев.
type reportRepositoryInMemory struct {
	orders      domain.OrderRepository
	customers   domain.CustomerRepository
	restaurants domain.RestaurantRepository
}

// NewReportRepository создаёт in-memory реализацию ReportRepository.
func NewReportRepository(
	orders domain.OrderRepository,
	customers domain.CustomerRepository,
	restaurants domain.RestaurantRepository,
) domain.ReportRepository {
	return &reportRepositoryInMemory{orders: orders, customers: customers, restaurants: restaurants}
}

func (r *reportRepositoryInMemory) SalesByRestaurant() ([]domain.RestaurantSales, error) {
	delivered, err := r.orders.List(domain.OrderFilter{Status: domain.OrderStatusDelivered})
	if err != nil {
		return nil, err
	}

	byRestaurant := make(map[string]*domain.RestaurantSales)
	for _, order := range delivered {
		row, ok := byRestaurant[order.RestaurantID]
		if !ok {
			row = &domain.RestaurantSales{RestaurantID: order.RestaurantID, Total: decimal.Zero}
			if restaurant, err := r.restaurants.Get(order.RestaurantID); err == nil {
				row.RestaurantName = restaurant.Name
			}
			byRestaurant[order.RestaurantID] = row
		}
		row.Orders++
		row.Total = row.Total.Add(order.Total)
	}

	result := make([]domain.RestaurantSales, 0, len(byRestaurant))
	for _, row := range byRestaurant {
		result = append(result, *row)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Total.Equal(result[j].Total) {
			return result[i].Total.GreaterThan(result[j].Total)
		}
		return result[i].RestaurantName < result[j].RestaurantName
	})
	return result, nil
}

func (r *reportRepositoryInMemory) TopProducts(limit int) ([]domain.ProductSales, error) {
	delivered, err := r.orders.List(domain.OrderFilter{Status: domain.OrderStatusDelivered})
	if err != nil {
		return nil, err
	}

	byProduct := make(map[string]*domain.ProductSales)
	for _, order := range delivered {
		for _, line := range order.Lines {
			row, ok := byProduct[line.ProductID]
			if !ok {
				row = &domain.ProductSales{ProductID: line.ProductID, ProductName: line.ProductName}
				byProduct[line.ProductID] = row
			}
			row.Quantity += int64(line.Quantity)
		}
	}

	result := make([]domain.ProductSales, 0, len(byProduct))
	for _, row := range byProduct {
		result = append(result, *row)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Quantity != result[j].Quantity {
			return result[i].Quantity > result[j].Quantity
		}
		return result[i].ProductName < result[j].ProductName
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *reportRepositoryInMemory) CustomerRanking(limit int) ([]domain.CustomerOrders, error) {
	orders, err := r.orders.List(domain.OrderFilter{})
	if err != nil {
		return nil, err
	}

	byCustomer := make(map[string]*domain.CustomerOrders)
	for _, order := range orders {
		row, ok := byCustomer[order.CustomerID]
		if !ok {
			row = &domain.CustomerOrders{CustomerID: order.CustomerID}
			if customer, err := r.customers.Get(order.CustomerID); err == nil {
				row.CustomerName = customer.Name
			}
			byCustomer[order.CustomerID] = row
		}
		row.Orders++
	}

	result := make([]domain.CustomerOrders, 0, len(byCustomer))
	for _, row := range byCustomer {
		result = append(result, *row)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Orders != result[j].Orders {
			return result[i].Orders > result[j].Orders
		}
		return result[i].CustomerName < result[j].CustomerName
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *reportRepositoryInMemory) RevenueByCategory() ([]domain.CategoryRevenue, error) {
	delivered, err := r.orders.List(domain.OrderFilter{Status: domain.OrderStatusDelivered})
	if err != nil {
		return nil, err
	}

	byCategory := make(map[string]decimal.Decimal)
	for _, order := range delivered {
		restaurant, err := r.restaurants.Get(order.RestaurantID)
		if err != nil {
			continue
		}
		current, ok := byCategory[restaurant.Category]
		if !ok {
			current = decimal.Zero
		}
		byCategory[restaurant.Category] = current.Add(order.Total)
	}

	result := make([]domain.CategoryRevenue, 0, len(byCategory))
	for category, total := range byCategory {
		result = append(result, domain.CategoryRevenue{Category: category, Total: total})
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Total.Equal(result[j].Total) {
			return result[i].Total.GreaterThan(result[j].Total)
		}
		return result[i].Category < result[j].Category
	})
	return result, nil
}

var _ domain.ReportRepository = (*reportRepositoryInMemory)(nil)
