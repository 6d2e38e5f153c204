package reporting

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
)

const defaultTopLimit = 10

// Service строит отчёты по продажам и клиентам.
type Service struct {
	reports domain.ReportRepository
	orders  domain.OrderRepository
	logger  *log.Entry
}

// NewService конструирует сервис отчётов.
func NewService(reports domain.ReportRepository, orders domain.OrderRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "reporting-service")
	}
	return &Service{reports: reports, orders: orders, logger: logger}
}

// SalesByRestaurant возвращает сумму доставленных заказов по ресторанам.
func (s *Service) SalesByRestaurant(ctx context.Context) ([]domain.RestaurantSales, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.reports.SalesByRestaurant()
	if err != nil {
		return nil, s.fail(err, "sales by restaurant")
	}
	return rows, nil
}

// TopProducts возвращает самые продаваемые продукты.
func (s *Service) TopProducts(ctx context.Context, limit int) ([]domain.ProductSales, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.reports.TopProducts(normalizeLimit(limit))
	if err != nil {
		return nil, s.fail(err, "top products")
	}
	return rows, nil
}

// CustomerRanking возвращает клиентов по числу заказов.
func (s *Service) CustomerRanking(ctx context.Context, limit int) ([]domain.CustomerOrders, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.reports.CustomerRanking(normalizeLimit(limit))
	if err != nil {
		return nil, s.fail(err, "customer ranking")
	}
	return rows, nil
}

// RevenueByCategory возвращает выручку по категориям ресторанов.
func (s *Service) RevenueByCategory(ctx context.Context) ([]domain.CategoryRevenue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.reports.RevenueByCategory()
	if err != nil {
		return nil, s.fail(err, "revenue by category")
	}
	return rows, nil
}

// OrdersByPeriod возвращает заказы, созданные в [from, to]. Обе границы обязательны.
func (s *Service) OrdersByPeriod(ctx context.Context, from, to time.Time) ([]domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if from.IsZero() || to.IsZero() {
		return nil, domain.ErrPeriodRequired
	}
	if from.After(to) {
		return nil, fmt.Errorf("%w: %s > %s", domain.ErrPeriodInvalid, from.Format(time.RFC3339), to.Format(time.RFC3339))
	}

	orders, err := s.orders.List(domain.OrderFilter{From: from.UTC(), To: to.UTC()})
	if err != nil {
		return nil, s.fail(err, "orders by period")
	}
	return orders, nil
}

func (s *Service) fail(err error, report string) error {
	s.logger.WithError(err).WithField("report", report).Error("failed to build report")
	return fmt.Errorf("%s: %w", report, err)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultTopLimit
	}
	return limit
}
