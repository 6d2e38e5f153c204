package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Customer — клиент сервиса доставки.
type Customer struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	Address      string
	Active       bool
	RegisteredAt time.Time
}

// CustomerProfile — изменяемые поля профиля клиента.
type CustomerProfile struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// Normalize убирает пробелы по краям и приводит email к нижнему регистру.
func (p CustomerProfile) Normalize() CustomerProfile {
	return CustomerProfile{
		Name:    strings.TrimSpace(p.Name),
		Email:   strings.ToLower(strings.TrimSpace(p.Email)),
		Phone:   strings.TrimSpace(p.Phone),
		Address: strings.TrimSpace(p.Address),
	}
}

// Validate проверяет обязательные поля профиля.
func (p CustomerProfile) Validate() error {
	if p.Name == "" {
		return ErrNameRequired
	}
	if p.Email == "" {
		return ErrEmailRequired
	}
	return nil
}

// NewCustomer создаёт активного клиента из проверенного профиля.
func NewCustomer(profile CustomerProfile, now time.Time) (Customer, error) {
	profile = profile.Normalize()
	if err := profile.Validate(); err != nil {
		return Customer{}, err
	}

	return Customer{
		ID:           uuid.NewString(),
		Name:         profile.Name,
		Email:        profile.Email,
		Phone:        profile.Phone,
		Address:      profile.Address,
		Active:       true,
		RegisteredAt: now.UTC(),
	}, nil
}

// ApplyProfile переносит поля профиля в клиента.
func (c *Customer) ApplyProfile(profile CustomerProfile) error {
	profile = profile.Normalize()
	if err := profile.Validate(); err != nil {
		return err
	}
	c.Name = profile.Name
	c.Email = profile.Email
	c.Phone = profile.Phone
	c.Address = profile.Address
	return nil
}

// Deactivate выполняет мягкое удаление клиента.
func (c *Customer) Deactivate() {
	c.Active = false
}
