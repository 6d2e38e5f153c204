package httpapi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
	"github.com/vladislavdragonenkov/delivery/internal/service/ordering"
)

// money форматирует сумму с двумя знаками после запятой.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

type customerRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (r customerRequest) profile() domain.CustomerProfile {
	return domain.CustomerProfile{Name: r.Name, Email: r.Email, Phone: r.Phone, Address: r.Address}
}

type customerResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	Active       bool      `json:"active"`
	RegisteredAt time.Time `json:"registered_at"`
}

func newCustomerResponse(c domain.Customer) customerResponse {
	return customerResponse{
		ID:           c.ID,
		Name:         c.Name,
		Email:        c.Email,
		Phone:        c.Phone,
		Address:      c.Address,
		Active:       c.Active,
		RegisteredAt: c.RegisteredAt,
	}
}

type restaurantRequest struct {
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Address     string          `json:"address"`
	Phone       string          `json:"phone"`
	Rating      float64         `json:"rating"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
}

func (r restaurantRequest) profile() domain.RestaurantProfile {
	return domain.RestaurantProfile{
		Name:        r.Name,
		Category:    r.Category,
		Address:     r.Address,
		Phone:       r.Phone,
		Rating:      r.Rating,
		DeliveryFee: r.DeliveryFee,
	}
}

type restaurantResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category,omitempty"`
	Address      string    `json:"address,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Rating       float64   `json:"rating"`
	DeliveryFee  string    `json:"delivery_fee"`
	Active       bool      `json:"active"`
	RegisteredAt time.Time `json:"registered_at"`
}

func newRestaurantResponse(r domain.Restaurant) restaurantResponse {
	return restaurantResponse{
		ID:           r.ID,
		Name:         r.Name,
		Category:     r.Category,
		Address:      r.Address,
		Phone:        r.Phone,
		Rating:       r.Rating,
		DeliveryFee:  money(r.DeliveryFee),
		Active:       r.Active,
		RegisteredAt: r.RegisteredAt,
	}
}

type productRequest struct {
	RestaurantID string          `json:"restaurant_id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
}

func (r productRequest) details() domain.ProductDetails {
	return domain.ProductDetails{Name: r.Name, Description: r.Description, Price: r.Price}
}

type productResponse struct {
	ID           string `json:"id"`
	RestaurantID string `json:"restaurant_id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Price        string `json:"price"`
	Active       bool   `json:"active"`
}

func newProductResponse(p domain.Product) productResponse {
	return productResponse{
		ID:           p.ID,
		RestaurantID: p.RestaurantID,
		Name:         p.Name,
		Description:  p.Description,
		Price:        money(p.Price),
		Active:       p.Active,
	}
}

type activeRequest struct {
	Active *bool `json:"active"`
}

type itemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int32  `json:"quantity"`
}

type createOrderRequest struct {
	CustomerID   string        `json:"customer_id"`
	RestaurantID string        `json:"restaurant_id"`
	Items        []itemRequest `json:"items"`
}

type previewRequest struct {
	RestaurantID string        `json:"restaurant_id"`
	Items        []itemRequest `json:"items"`
}

func toItems(items []itemRequest) []ordering.ItemRequest {
	out := make([]ordering.ItemRequest, 0, len(items))
	for _, item := range items {
		out = append(out, ordering.ItemRequest{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return out
}

type previewResponse struct {
	RestaurantID string `json:"restaurant_id"`
	Total        string `json:"total"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type orderLineResponse struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name,omitempty"`
	Quantity    int32  `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Subtotal    string `json:"subtotal"`
}

type timelineEventResponse struct {
	Type     string    `json:"type"`
	Reason   string    `json:"reason,omitempty"`
	Occurred time.Time `json:"occurred_at"`
}

type orderResponse struct {
	ID           string                  `json:"id"`
	CustomerID   string                  `json:"customer_id"`
	RestaurantID string                  `json:"restaurant_id"`
	Status       string                  `json:"status"`
	Total        string                  `json:"total"`
	Lines        []orderLineResponse     `json:"lines"`
	Timeline     []timelineEventResponse `json:"timeline,omitempty"`
	Version      int64                   `json:"version"`
	CreatedAt    time.Time               `json:"created_at"`
	UpdatedAt    time.Time               `json:"updated_at"`
}

func newOrderResponse(o domain.Order) orderResponse {
	lines := make([]orderLineResponse, 0, len(o.Lines))
	for _, line := range o.Lines {
		lines = append(lines, orderLineResponse{
			ID:          line.ID,
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   money(line.UnitPrice),
			Subtotal:    money(line.Subtotal()),
		})
	}
	return orderResponse{
		ID:           o.ID,
		CustomerID:   o.CustomerID,
		RestaurantID: o.RestaurantID,
		Status:       string(o.Status),
		Total:        money(o.Total),
		Lines:        lines,
		Version:      o.Version,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}

func newOrderResponses(orders []domain.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, newOrderResponse(o))
	}
	return out
}

func newTimelineResponse(events []domain.TimelineEvent) []timelineEventResponse {
	out := make([]timelineEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, timelineEventResponse{Type: e.Type, Reason: e.Reason, Occurred: e.Occurred})
	}
	return out
}

type restaurantSalesResponse struct {
	RestaurantID   string `json:"restaurant_id"`
	RestaurantName string `json:"restaurant_name"`
	Orders         int    `json:"orders"`
	Total          string `json:"total"`
}

type productSalesResponse struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int64  `json:"quantity"`
}

type customerOrdersResponse struct {
	CustomerID   string `json:"customer_id"`
	CustomerName string `json:"customer_name"`
	Orders       int    `json:"orders"`
}

type categoryRevenueResponse struct {
	Category string `json:"category"`
	Total    string `json:"total"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
