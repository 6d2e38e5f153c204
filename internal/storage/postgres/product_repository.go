package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
)

const productColumns = `p.id, p.restaurant_id, p.name, p.description, p.price, p.active`

type productRepository struct {
	db *sql.DB
}

// NewProductRepository создаёт PostgreSQL-реализацию ProductRepository.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepository{db: store.DB()}
}

func (r *productRepository) Create(p domain.Product) error {
	ctx, cancel := opContext()
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, restaurant_id, name, description, price, active)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, p.ID, p.RestaurantID, p.Name, p.Description, p.Price, p.Active)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return domain.ErrDuplicateKey
		case isForeignKeyViolation(err):
			return domain.ErrRestaurantNotFound
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *productRepository) Get(id string) (domain.Product, error) {
	if !isUUID(id) {
		return domain.Product{}, domain.ErrProductNotFound
	}

	ctx, cancel := opContext()
	defer cancel()

	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products p WHERE p.id = $1`, id)
	return scanProduct(row)
}

func (r *productRepository) Update(p domain.Product) error {
	if !isUUID(p.ID) {
		return domain.ErrProductNotFound
	}

	ctx, cancel := opContext()
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, description = $3, price = $4, active = $5
		WHERE id = $1
	`, p.ID, p.Name, p.Description, p.Price, p.Active)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return expectAffected(res, domain.ErrProductNotFound)
}

func (r *productRepository) ListByRestaurant(restaurantID string) ([]domain.Product, error) {
	if !isUUID(restaurantID) {
		return []domain.Product{}, nil
	}
	return r.query(`
		SELECT `+productColumns+`
		FROM products p
		WHERE p.restaurant_id = $1
		ORDER BY p.name, p.id
	`, restaurantID)
}

func (r *productRepository) Search(filter domain.ProductFilter) ([]domain.Product, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.ActiveOnly {
		where = append(where, "p.active")
	}
	if name := strings.TrimSpace(filter.NameContains); name != "" {
		where = append(where, "p.name ILIKE '%' || "+arg(name)+" || '%'")
	}
	if filter.Category != "" {
		where = append(where, "LOWER(r.category) = LOWER("+arg(filter.Category)+")")
	}
	if filter.MaxPrice.Valid {
		where = append(where, "p.price <= "+arg(filter.MaxPrice.Decimal))
	}

	query := `SELECT ` + productColumns + ` FROM products p JOIN restaurants r ON r.id = p.restaurant_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY p.name, p.id"

	return r.query(query, args...)
}

func (r *productRepository) query(query string, args ...any) ([]domain.Product, error) {
	ctx, cancel := opContext()
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return result, nil
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var p domain.Product
	if err := row.Scan(&p.ID, &p.RestaurantID, &p.Name, &p.Description, &p.Price, &p.Active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("scan product: %w", err)
	}
	return p, nil
}

var _ domain.ProductRepository = (*productRepository)(nil)
