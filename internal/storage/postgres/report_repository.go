package postgres

import (
	"database/sql"
	"fmt"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
)

type reportRepository struct {
	db *sql.DB
}

// NewReportRepository создаёт PostgreSQL-реализацию ReportRepository.
// Агрегации выполняются в базе.
func NewReportRepository(store *Store) domain.ReportRepository {
	return &reportRepository{db: store.DB()}
}

func (r *reportRepository) SalesByRestaurant() ([]domain.RestaurantSales, error) {
	ctx, cancel := opContext()
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, r.name, COUNT(o.id), COALESCE(SUM(o.total), 0)
		FROM orders o
		JOIN restaurants r ON r.id = o.restaurant_id
		WHERE o.status = $1
		GROUP BY r.id, r.name
		ORDER BY 4 DESC, r.name
	`, string(domain.OrderStatusDelivered))
	if err != nil {
		return nil, fmt.Errorf("sales by restaurant: %w", err)
	}
	defer rows.Close()

	result := make([]domain.RestaurantSales, 0)
	for rows.Next() {
		var row domain.RestaurantSales
		if err := rows.Scan(&row.RestaurantID, &row.RestaurantName, &row.Orders, &row.Total); err != nil {
			return nil, fmt.Errorf("scan restaurant sales: %w", err)
		}
		result = append(result, row)
	}
	return result, rowsErr(rows, "restaurant sales")
}

func (r *reportRepository) TopProducts(limit int) ([]domain.ProductSales, error) {
	ctx, cancel := opContext()
	defer cancel()

	query, args := limitClause(`
		SELECT l.product_id, MIN(l.product_name), SUM(l.quantity)
		FROM order_lines l
		JOIN orders o ON o.id = l.order_id
		WHERE o.status = $1
		GROUP BY l.product_id
		ORDER BY 3 DESC, 2`, []any{string(domain.OrderStatusDelivered)}, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	defer rows.Close()

	result := make([]domain.ProductSales, 0)
	for rows.Next() {
		var row domain.ProductSales
		if err := rows.Scan(&row.ProductID, &row.ProductName, &row.Quantity); err != nil {
			return nil, fmt.Errorf("scan product sales: %w", err)
		}
		result = append(result, row)
	}
	return result, rowsErr(rows, "product sales")
}

func (r *reportRepository) CustomerRanking(limit int) ([]domain.CustomerOrders, error) {
	ctx, cancel := opContext()
	defer cancel()

	query, args := limitClause(`
		SELECT c.id, c.name, COUNT(o.id)
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		GROUP BY c.id, c.name
		ORDER BY 3 DESC, c.name`, nil, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("customer ranking: %w", err)
	}
	defer rows.Close()

	result := make([]domain.CustomerOrders, 0)
	for rows.Next() {
		var row domain.CustomerOrders
		if err := rows.Scan(&row.CustomerID, &row.CustomerName, &row.Orders); err != nil {
			return nil, fmt.Errorf("scan customer ranking: %w", err)
		}
		result = append(result, row)
	}
	return result, rowsErr(rows, "customer ranking")
}

func (r *reportRepository) RevenueByCategory() ([]domain.CategoryRevenue, error) {
	ctx, cancel := opContext()
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT r.category, COALESCE(SUM(o.total), 0)
		FROM orders o
		JOIN restaurants r ON r.id = o.restaurant_id
		WHERE o.status = $1
		GROUP BY r.category
		ORDER BY 2 DESC, r.category
	`, string(domain.OrderStatusDelivered))
	if err != nil {
		return nil, fmt.Errorf("revenue by category: %w", err)
	}
	defer rows.Close()

	result := make([]domain.CategoryRevenue, 0)
	for rows.Next() {
		var row domain.CategoryRevenue
		if err := rows.Scan(&row.Category, &row.Total); err != nil {
			return nil, fmt.Errorf("scan category revenue: %w", err)
		}
		result = append(result, row)
	}
	return result, rowsErr(rows, "category revenue")
}

func rowsErr(rows *sql.Rows, what string) error {
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate %s: %w", what, err)
	}
	return nil
}

var _ domain.ReportRepository = (*reportRepository)(nil)
