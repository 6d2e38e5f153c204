package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
)

const restaurantColumns = `id, name, category, address, phone, rating, delivery_fee, active, registered_at`

type restaurantRepository struct {
	db *sql.DB
}

// NewRestaurantRepository создаёт PostgreSQL-реализацию RestaurantRepository.
func NewRestaurantRepository(store *Store) domain.RestaurantRepository {
	return &restaurantRepository{db: store.DB()}
}

func (r *restaurantRepository) Create(rs domain.Restaurant) error {
	ctx, cancel := opContext()
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO restaurants (`+restaurantColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, rs.ID, rs.Name, rs.Category, rs.Address, rs.Phone, rs.Rating, rs.DeliveryFee, rs.Active, rs.RegisteredAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateKey
		}
		return fmt.Errorf("insert restaurant: %w", err)
	}
	return nil
}

func (r *restaurantRepository) Get(id string) (domain.Restaurant, error) {
	if !isUUID(id) {
		return domain.Restaurant{}, domain.ErrRestaurantNotFound
	}

	ctx, cancel := opContext()
	defer cancel()

	row := r.db.QueryRowContext(ctx, `SELECT `+restaurantColumns+` FROM restaurants WHERE id = $1`, id)
	return scanRestaurant(row)
}

func (r *restaurantRepository) FindByName(name string) (domain.Restaurant, error) {
	ctx, cancel := opContext()
	defer cancel()

	row := r.db.QueryRowContext(ctx, `SELECT `+restaurantColumns+` FROM restaurants WHERE LOWER(name) = LOWER($1)`, name)
	return scanRestaurant(row)
}

func (r *restaurantRepository) Update(rs domain.Restaurant) error {
	if !isUUID(rs.ID) {
		return domain.ErrRestaurantNotFound
	}

	ctx, cancel := opContext()
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE restaurants
		SET name = $2, category = $3, address = $4, phone = $5,
		    rating = $6, delivery_fee = $7, active = $8
		WHERE id = $1
	`, rs.ID, rs.Name, rs.Category, rs.Address, rs.Phone, rs.Rating, rs.DeliveryFee, rs.Active)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateKey
		}
		return fmt.Errorf("update restaurant: %w", err)
	}
	return expectAffected(res, domain.ErrRestaurantNotFound)
}

func (r *restaurantRepository) List(filter domain.RestaurantFilter) ([]domain.Restaurant, error) {
	ctx, cancel := opContext()
	defer cancel()

	order := "name, id"
	if filter.ActiveOnly {
		order = "rating DESC, name, id"
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+restaurantColumns+`
		FROM restaurants
		WHERE (active OR NOT $1)
		  AND ($2 = '' OR LOWER(category) = LOWER($2))
		ORDER BY `+order, filter.ActiveOnly, filter.Category)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Restaurant, 0)
	for rows.Next() {
		rs, err := scanRestaurant(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate restaurants: %w", err)
	}
	return result, nil
}

func scanRestaurant(row rowScanner) (domain.Restaurant, error) {
	var rs domain.Restaurant
	err := row.Scan(&rs.ID, &rs.Name, &rs.Category, &rs.Address, &rs.Phone, &rs.Rating, &rs.DeliveryFee, &rs.Active, &rs.RegisteredAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Restaurant{}, domain.ErrRestaurantNotFound
		}
		return domain.Restaurant{}, fmt.Errorf("scan restaurant: %w", err)
	}
	rs.RegisteredAt = rs.RegisteredAt.UTC()
	return rs, nil
}

var _ domain.RestaurantRepository = (*restaurantRepository)(nil)
