package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxRating = 5.0

// Restaurant — ресторан, публикующий продукты.
type Restaurant struct {
	ID           string
	Name         string
	Category     string
	Address      string
	Phone        string
	Rating       float64
	DeliveryFee  decimal.Decimal
	Active       bool
	RegisteredAt time.Time
}

// RestaurantProfile — изменяемые поля ресторана.
type RestaurantProfile struct {
	Name        string
	Category    string
	Address     string
	Phone       string
	Rating      float64
	DeliveryFee decimal.Decimal
}

// Validate проверяет поля профиля ресторана.
func (p RestaurantProfile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrNameRequired
	}
	if p.DeliveryFee.IsNegative() {
		return ErrDeliveryFeeInvalid
	}
	if err := ValidateAmount(p.DeliveryFee); err != nil {
		return err
	}
	if p.Rating < 0 || p.Rating > maxRating {
		return ErrRatingInvalid
	}
	return nil
}

// NewRestaurant создаёт активный ресторан.
func NewRestaurant(profile RestaurantProfile, now time.Time) (Restaurant, error) {
	if err := profile.Validate(); err != nil {
		return Restaurant{}, err
	}

	r := Restaurant{
		ID:           uuid.NewString(),
		Active:       true,
		RegisteredAt: now.UTC(),
	}
	r.apply(profile)
	return r, nil
}

// ApplyProfile обновляет ресторан новыми данными профиля.
func (r *Restaurant) ApplyProfile(profile RestaurantProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	r.apply(profile)
	return nil
}

func (r *Restaurant) apply(profile RestaurantProfile) {
	r.Name = strings.TrimSpace(profile.Name)
	r.Category = strings.TrimSpace(profile.Category)
	r.Address = strings.TrimSpace(profile.Address)
	r.Phone = strings.TrimSpace(profile.Phone)
	r.Rating = profile.Rating
	r.DeliveryFee = profile.DeliveryFee
}

// RestaurantFilter задаёт условия выборки ресторанов.
type RestaurantFilter struct {
	// Category сравнивается без учёта регистра; пустая строка отключает фильтр.
	Category string
	// ActiveOnly оставляет только активные рестораны, отсортированные по рейтингу.
	ActiveOnly bool
}
