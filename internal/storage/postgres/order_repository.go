package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
)

const orderColumns = `id, customer_id, restaurant_id, status, total, version, created_at, updated_at`

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

// Create записывает заказ и позиции в одной транзакции.
func (r *orderRepository) Create(order domain.Order) error {
	ctx, cancel := opContext()
	defer cancel()

	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO orders (`+orderColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`,
			order.ID, order.CustomerID, order.RestaurantID, string(order.Status),
			order.Total, order.Version, order.CreatedAt, order.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrOrderVersionConflict
			}
			return fmt.Errorf("insert order: %w", err)
		}

		for _, line := range order.Lines {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO order_lines (
					id, order_id, product_id, product_name, quantity, unit_price, created_at
				) VALUES ($1,$2,$3,$4,$5,$6,$7)
			`,
				line.ID, order.ID, line.ProductID, line.ProductName, line.Quantity, line.UnitPrice, line.CreatedAt,
			); err != nil {
				if isUniqueViolation(err) {
					return domain.ErrItemDuplicated
				}
				return fmt.Errorf("insert order line: %w", err)
			}
		}
		return nil
	})
}

func (r *orderRepository) Get(id string) (domain.Order, error) {
	if !isUUID(id) {
		return domain.Order{}, domain.ErrOrderNotFound
	}

	ctx, cancel := opContext()
	defer cancel()

	order, err := scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return domain.Order{}, err
	}

	orders := []domain.Order{order}
	if err := r.attachLines(ctx, orders); err != nil {
		return domain.Order{}, err
	}
	return orders[0], nil
}

// Save обновляет статус и сумму, если версия совпадает с сохранённой.
func (r *orderRepository) Save(order domain.Order) error {
	if !isUUID(order.ID) {
		return domain.ErrOrderNotFound
	}

	ctx, cancel := opContext()
	defer cancel()

	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE orders
			SET status = $1,
			    total = $2,
			    version = version + 1,
			    updated_at = $3
			WHERE id = $4
			  AND version = $5
		`, string(order.Status), order.Total, order.UpdatedAt, order.ID, order.Version)
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected > 0 {
			return nil
		}

		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, order.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check order exists: %w", err)
		}
		if !exists {
			return domain.ErrOrderNotFound
		}
		return domain.ErrOrderVersionConflict
	})
}

func (r *orderRepository) ListByCustomer(customerID string, limit int) ([]domain.Order, error) {
	if !isUUID(customerID) {
		return []domain.Order{}, nil
	}
	return r.list("customer_id = $1", []any{customerID}, limit)
}

func (r *orderRepository) ListByRestaurant(restaurantID string, limit int) ([]domain.Order, error) {
	if !isUUID(restaurantID) {
		return []domain.Order{}, nil
	}
	return r.list("restaurant_id = $1", []any{restaurantID}, limit)
}

func (r *orderRepository) List(filter domain.OrderFilter) ([]domain.Order, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		where = append(where, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	return r.list(strings.Join(where, " AND "), args, filter.Limit)
}

func (r *orderRepository) list(where string, args []any, limit int) ([]domain.Order, error) {
	ctx, cancel := opContext()
	defer cancel()

	query := `SELECT ` + orderColumns + ` FROM orders`
	if where != "" {
		query += " WHERE " + where
	}
	query, args = limitClause(query+" ORDER BY created_at DESC, id DESC", args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	if err := r.attachLines(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachLines догружает позиции всех заказов одним запросом.
func (r *orderRepository) attachLines(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, 0, len(orders))
	index := make(map[string]int, len(orders))
	for i, order := range orders {
		ids = append(ids, order.ID)
		index[order.ID] = i
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, product_name, quantity, unit_price, created_at
		FROM order_lines
		WHERE order_id = ANY($1::uuid[])
		ORDER BY created_at ASC, id ASC
	`, ids)
	if err != nil {
		return fmt.Errorf("load order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(
			&line.ID, &line.OrderID, &line.ProductID, &line.ProductName,
			&line.Quantity, &line.UnitPrice, &line.CreatedAt,
		); err != nil {
			return fmt.Errorf("scan order line: %w", err)
		}
		line.CreatedAt = line.CreatedAt.UTC()
		i := index[line.OrderID]
		orders[i].Lines = append(orders[i].Lines, line)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate order lines: %w", err)
	}
	return nil
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		order  domain.Order
		status string
	)
	err := row.Scan(
		&order.ID, &order.CustomerID, &order.RestaurantID, &status,
		&order.Total, &order.Version, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("scan order: %w", err)
	}
	order.Status = domain.OrderStatus(status)
	order.CreatedAt = order.CreatedAt.UTC()
	order.UpdatedAt = order.UpdatedAt.UTC()
	return order, nil
}

var _ domain.OrderRepository = (*orderRepository)(nil)
