package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
)

const customerColumns = `id, name, email, phone, address, active, registered_at`

type customerRepository struct {
	db *sql.DB
}

// NewCustomerRepository создаёт PostgreSQL-реализацию CustomerRepository.
func NewCustomerRepository(store *Store) domain.CustomerRepository {
	return &customerRepository{db: store.DB()}
}

func (r *customerRepository) Create(c domain.Customer) error {
	ctx, cancel := opContext()
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO customers (`+customerColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, c.ID, c.Name, c.Email, c.Phone, c.Address, c.Active, c.RegisteredAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateKey
		}
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

func (r *customerRepository) Get(id string) (domain.Customer, error) {
	if !isUUID(id) {
		return domain.Customer{}, domain.ErrCustomerNotFound
	}

	ctx, cancel := opContext()
	defer cancel()

	row := r.db.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
	return scanCustomer(row)
}

func (r *customerRepository) FindByEmail(email string) (domain.Customer, error) {
	ctx, cancel := opContext()
	defer cancel()

	row := r.db.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE LOWER(email) = LOWER($1)`, email)
	return scanCustomer(row)
}

func (r *customerRepository) Update(c domain.Customer) error {
	if !isUUID(c.ID) {
		return domain.ErrCustomerNotFound
	}

	ctx, cancel := opContext()
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE customers
		SET name = $2, email = $3, phone = $4, address = $5, active = $6
		WHERE id = $1
	`, c.ID, c.Name, c.Email, c.Phone, c.Address, c.Active)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateKey
		}
		return fmt.Errorf("update customer: %w", err)
	}
	return expectAffected(res, domain.ErrCustomerNotFound)
}

func (r *customerRepository) List(activeOnly bool) ([]domain.Customer, error) {
	ctx, cancel := opContext()
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE active OR NOT $1
		ORDER BY registered_at, id
	`, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}
	return result, nil
}

func scanCustomer(row rowScanner) (domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.Active, &c.RegisteredAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Customer{}, domain.ErrCustomerNotFound
		}
		return domain.Customer{}, fmt.Errorf("scan customer: %w", err)
	}
	c.RegisteredAt = c.RegisteredAt.UTC()
	return c, nil
}

// expectAffected возвращает notFound, если запрос не затронул ни одной строки.
func expectAffected(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}

var _ domain.CustomerRepository = (*customerRepository)(nil)
