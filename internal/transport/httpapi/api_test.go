package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
	"github.com/vladislavdragonenkov/delivery/internal/metrics"
	"github.com/vladislavdragonenkov/delivery/internal/service/catalog"
	"github.com/vladislavdragonenkov/delivery/internal/service/idempotency"
	"github.com/vladislavdragonenkov/delivery/internal/service/ordering"
	"github.com/vladislavdragonenkov/delivery/internal/service/reporting"
	"github.com/vladislavdragonenkov/delivery/internal/service/seed"
	"github.com/vladislavdragonenkov/delivery/internal/storage/memory"
	"github.com/vladislavdragonenkov/delivery/internal/transport/httpapi"
)

type testEnv struct {
	handler  http.Handler
	outbox   *memory.OutboxRepository
	maria    domain.Customer
	pizzaria domain.Restaurant
	sushi    domain.Restaurant
	products map[string]domain.Product
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	customers := memory.NewCustomerRepository()
	restaurants := memory.NewRestaurantRepository()
	products := memory.NewProductRepository(restaurants)
	orders := memory.NewOrderRepository()
	timeline := memory.NewTimelineRepository()
	outbox := memory.NewOutboxRepository()

	catalogSvc := catalog.NewService(customers, restaurants, products, nil)
	orderingSvc := ordering.NewService(ordering.Repositories{
		Customers:   customers,
		Restaurants: restaurants,
		Products:    products,
		Orders:      orders,
		Timeline:    timeline,
		Outbox:      outbox,
	})
	reportingSvc := reporting.NewService(memory.NewReportRepository(orders, customers, restaurants), orders, nil)

	_, err := seed.NewSeeder(catalogSvc, orderingSvc, customers, restaurants, orders, nil).Run(context.Background())
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	api := httpapi.New(httpapi.Services{
		Catalog:   catalogSvc,
		Ordering:  orderingSvc,
		Reporting: reportingSvc,
	},
		httpapi.WithMetrics(metrics.NewHTTPMetricsWithRegisterer(registry), promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
		httpapi.WithIdempotency(idempotency.NewGuard(memory.NewIdempotencyRepository(), 0, nil)),
	)

	env := &testEnv{handler: api.Routes(), outbox: outbox, products: map[string]domain.Product{}}
	env.maria, err = customers.FindByEmail("maria@email.com")
	require.NoError(t, err)
	env.pizzaria, err = restaurants.FindByName("Pizzaria do Bairro")
	require.NoError(t, err)
	env.sushi, err = restaurants.FindByName("Sushi Master")
	require.NoError(t, err)
	for _, restaurantID := range []string{env.pizzaria.ID, env.sushi.ID} {
		menu, err := products.ListByRestaurant(restaurantID)
		require.NoError(t, err)
		for _, p := range menu {
			env.products[p.Name] = p
		}
	}
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type orderBody struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Total    string `json:"total"`
	Version  int64  `json:"version"`
	Lines    []struct {
		ProductID string `json:"product_id"`
		Quantity  int32  `json:"quantity"`
		UnitPrice string `json:"unit_price"`
		Subtotal  string `json:"subtotal"`
	} `json:"lines"`
	Timeline []struct {
		Type string `json:"type"`
	} `json:"timeline"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e *testEnv) pizzaOrder() map[string]any {
	return map[string]any{
		"customer_id":   e.maria.ID,
		"restaurant_id": e.pizzaria.ID,
		"items": []map[string]any{
			{"product_id": e.products["Pizza Margherita"].ID, "quantity": 1},
			{"product_id": e.products["Refrigerante 2L"].ID, "quantity": 2},
		},
	}
}

func TestCreateOrder(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/orders", env.pizzaOrder())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	order := decode[orderBody](t, rec)
	assert.Equal(t, "PENDING", order.Status)
	assert.Equal(t, "65.00", order.Total)
	require.Len(t, order.Lines, 2)
	assert.Equal(t, "45.00", order.Lines[0].UnitPrice)
	assert.Equal(t, "20.00", order.Lines[1].Subtotal)
	assert.Equal(t, "/api/orders/"+order.ID, rec.Header().Get("Location"))
	assert.NotEmpty(t, env.outbox.Pending(order.ID))
}

func TestCreateOrder_Errors(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{
			name:   "malformed json",
			body:   `{"customer_id":`,
			status: http.StatusBadRequest,
			code:   "invalid_request",
		},
		{
			name: "unknown customer",
			body: map[string]any{
				"customer_id":   "missing",
				"restaurant_id": env.pizzaria.ID,
				"items":         []map[string]any{{"product_id": env.products["Pizza Margherita"].ID, "quantity": 1}},
			},
			status: http.StatusNotFound,
			code:   "not_found",
		},
		{
			name: "product of another restaurant",
			body: map[string]any{
				"customer_id":   env.maria.ID,
				"restaurant_id": env.pizzaria.ID,
				"items":         []map[string]any{{"product_id": env.products["Combinado 20 peças"].ID, "quantity": 1}},
			},
			status: http.StatusBadRequest,
			code:   "business_rule_violation",
		},
		{
			name: "zero quantity",
			body: map[string]any{
				"customer_id":   env.maria.ID,
				"restaurant_id": env.pizzaria.ID,
				"items":         []map[string]any{{"product_id": env.products["Pizza Margherita"].ID, "quantity": 0}},
			},
			status: http.StatusBadRequest,
			code:   "business_rule_violation",
		},
		{
			name: "no items",
			body: map[string]any{
				"customer_id":   env.maria.ID,
				"restaurant_id": env.pizzaria.ID,
			},
			status: http.StatusBadRequest,
			code:   "business_rule_violation",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/orders", tc.body)
			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			body := decode[errorBody](t, rec)
			assert.Equal(t, tc.code, body.Error)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestCreateOrder_Idempotency(t *testing.T) {
	env := newTestEnv(t)

	first := env.do(t, http.MethodPost, "/api/orders", env.pizzaOrder(), idempotency.HeaderKey, "key-1")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	second := env.do(t, http.MethodPost, "/api/orders", env.pizzaOrder(), idempotency.HeaderKey, "key-1")
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get(httpapi.HeaderReplayed))
	assert.Equal(t, decode[orderBody](t, first).ID, decode[orderBody](t, second).ID)

	other := env.pizzaOrder()
	other["items"] = []map[string]any{{"product_id": env.products["Pizza Calabresa"].ID, "quantity": 1}}
	conflict := env.do(t, http.MethodPost, "/api/orders", other, idempotency.HeaderKey, "key-1")
	require.Equal(t, http.StatusConflict, conflict.Code)
	assert.Equal(t, "conflict", decode[errorBody](t, conflict).Error)

	orders := env.do(t, http.MethodGet, "/api/customers/"+env.maria.ID+"/orders", nil)
	require.Equal(t, http.StatusOK, orders.Code)
	assert.Len(t, decode[[]orderBody](t, orders), 2, "seeded order plus one created")
}

func TestPreviewTotal(t *testing.T) {
	env := newTestEnv(t)

	body := env.pizzaOrder()
	delete(body, "customer_id")
	rec := env.do(t, http.MethodPost, "/api/orders/preview", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "65.00", decode[map[string]string](t, rec)["total"])

	empty := env.do(t, http.MethodPost, "/api/orders/preview", map[string]any{"restaurant_id": env.pizzaria.ID})
	require.Equal(t, http.StatusOK, empty.Code)
	assert.Equal(t, "0.00", decode[map[string]string](t, empty)["total"])

	missing := env.do(t, http.MethodPost, "/api/orders/preview", map[string]any{
		"restaurant_id": "missing",
		"items":         []map[string]any{{"product_id": env.products["Pizza Margherita"].ID, "quantity": 1}},
	})
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestOrderStatusAndCancel(t *testing.T) {
	env := newTestEnv(t)

	created := decode[orderBody](t, env.do(t, http.MethodPost, "/api/orders", env.pizzaOrder()))

	rec := env.do(t, http.MethodPatch, "/api/orders/"+created.ID+"/status", map[string]string{"status": "CONFIRMED"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "CONFIRMED", decode[orderBody](t, rec).Status)

	notCancelable := env.do(t, http.MethodDelete, "/api/orders/"+created.ID, nil)
	require.Equal(t, http.StatusBadRequest, notCancelable.Code)

	blank := env.do(t, http.MethodPatch, "/api/orders/"+created.ID+"/status", map[string]string{"status": " "})
	assert.Equal(t, http.StatusBadRequest, blank.Code)

	second := decode[orderBody](t, env.do(t, http.MethodPost, "/api/orders", env.pizzaOrder()))
	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/orders/"+second.ID, nil).Code)

	got := env.do(t, http.MethodGet, "/api/orders/"+second.ID, nil)
	require.Equal(t, http.StatusOK, got.Code)
	order := decode[orderBody](t, got)
	assert.Equal(t, "CANCELLED", order.Status)
	require.Len(t, order.Timeline, 2)
	assert.Equal(t, domain.TimelineOrderCreated, order.Timeline[0].Type)
	assert.Equal(t, domain.TimelineOrderCanceled, order.Timeline[1].Type)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/orders/missing", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/api/orders/missing", nil).Code)
}

func TestListOrders(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/orders?status=DELIVERED", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	delivered := decode[[]orderBody](t, rec)
	require.Len(t, delivered, 1)
	assert.Equal(t, "80.00", delivered[0].Total)

	bad := env.do(t, http.MethodGet, "/api/orders?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, bad.Code)

	inverted := env.do(t, http.MethodGet, "/api/orders?from=2026-02-01&to=2026-01-01", nil)
	assert.Equal(t, http.StatusBadRequest, inverted.Code)

	byRestaurant := env.do(t, http.MethodGet, "/api/restaurants/"+env.sushi.ID+"/orders", nil)
	require.Equal(t, http.StatusOK, byRestaurant.Code)
	assert.Len(t, decode[[]orderBody](t, byRestaurant), 1)
}

func TestCustomers(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/customers", map[string]string{
		"name":  "Ana Costa",
		"email": "Ana@Email.com",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	customer := decode[map[string]any](t, rec)
	assert.Equal(t, "ana@email.com", customer["email"])
	id := customer["id"].(string)

	duplicate := env.do(t, http.MethodPost, "/api/customers", map[string]string{"name": "Ana", "email": "ana@email.com"})
	assert.Equal(t, http.StatusBadRequest, duplicate.Code)

	unknownField := env.do(t, http.MethodPost, "/api/customers", `{"name":"X","email":"x@y.z","role":"admin"}`)
	assert.Equal(t, http.StatusBadRequest, unknownField.Code)

	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/customers/"+id, nil).Code)

	list := decode[[]map[string]any](t, env.do(t, http.MethodGet, "/api/customers", nil))
	assert.Len(t, list, 3, "deactivated customer is hidden")

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/customers/missing", nil).Code)
}

func TestRestaurantsAndProducts(t *testing.T) {
	env := newTestEnv(t)

	list := decode[[]map[string]any](t, env.do(t, http.MethodGet, "/api/restaurants?active=true", nil))
	require.Len(t, list, 2)
	assert.Equal(t, "Sushi Master", list[0]["name"], "active restaurants are sorted by rating")

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/restaurants?active=maybe", nil).Code)

	menu := decode[[]map[string]any](t, env.do(t, http.MethodGet, "/api/restaurants/"+env.pizzaria.ID+"/products", nil))
	assert.Len(t, menu, 3)

	cheap := decode[[]map[string]any](t, env.do(t, http.MethodGet, "/api/products?max_price=25", nil))
	assert.Len(t, cheap, 2)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/products?max_price=abc", nil).Code)

	created := env.do(t, http.MethodPost, "/api/products", map[string]any{
		"restaurant_id": env.pizzaria.ID,
		"name":          "Pizza Portuguesa",
		"price":         "55.00",
	})
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	assert.Equal(t, "55.00", decode[map[string]any](t, created)["price"])

	zeroPrice := env.do(t, http.MethodPost, "/api/products", map[string]any{
		"restaurant_id": env.pizzaria.ID,
		"name":          "Free Pizza",
		"price":         0,
	})
	assert.Equal(t, http.StatusBadRequest, zeroPrice.Code)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPatch, "/api/restaurants/"+env.pizzaria.ID+"/active", `{}`).Code)
	rec := env.do(t, http.MethodPatch, "/api/restaurants/"+env.pizzaria.ID+"/active", map[string]bool{"active": false})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, false, decode[map[string]any](t, rec)["active"])

	inactive := env.do(t, http.MethodPost, "/api/orders", env.pizzaOrder())
	assert.Equal(t, http.StatusBadRequest, inactive.Code)
	assert.Contains(t, decode[errorBody](t, inactive).Message, "restaurant is inactive")
}

func TestReports(t *testing.T) {
	env := newTestEnv(t)

	sales := decode[[]map[string]any](t, env.do(t, http.MethodGet, "/api/reports/sales-by-restaurant", nil))
	require.Len(t, sales, 1)
	assert.Equal(t, "Sushi Master", sales[0]["restaurant_name"])
	assert.Equal(t, "80.00", sales[0]["total"])

	revenue := decode[[]map[string]any](t, env.do(t, http.MethodGet, "/api/reports/revenue-by-category", nil))
	require.Len(t, revenue, 1)
	assert.Equal(t, "Japonesa", revenue[0]["category"])

	ranking := env.do(t, http.MethodGet, "/api/reports/customer-ranking?limit=2", nil)
	require.Equal(t, http.StatusOK, ranking.Code)
	assert.LessOrEqual(t, len(decode[[]map[string]any](t, ranking)), 2)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/reports/top-products", nil).Code)

	missingPeriod := env.do(t, http.MethodGet, "/api/reports/orders-by-period?from=2026-01-01", nil)
	assert.Equal(t, http.StatusBadRequest, missingPeriod.Code)

	period := env.do(t, http.MethodGet, "/api/reports/orders-by-period?from=2000-01-01&to=2100-01-01", nil)
	require.Equal(t, http.StatusOK, period.Code)
	assert.Len(t, decode[[]orderBody](t, period), 2)
}

func TestOpsEndpoints(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/livez", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/readyz", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/healthz", nil).Code)

	version := decode[map[string]string](t, env.do(t, http.MethodGet, "/version", nil))
	assert.NotEmpty(t, version["version"])

	env.do(t, http.MethodGet, "/api/orders/missing", nil)
	scrape := env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, scrape.Code)
	assert.Contains(t, scrape.Body.String(), "delivery_http_requests_total")
	assert.Contains(t, scrape.Body.String(), `route="/api/orders/{id}"`)
}

func TestCatalogRejectsSubCentAmounts(t *testing.T) {
	env := newTestEnv(t)

	for _, price := range []any{"0.333", 0.001} {
		rec := env.do(t, http.MethodPost, "/api/products", map[string]any{
			"restaurant_id": env.pizzaria.ID,
			"name":          "Bala",
			"price":         price,
		})
		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		assert.Equal(t, "business_rule_violation", decode[errorBody](t, rec).Error)
	}

	fee := env.do(t, http.MethodPost, "/api/restaurants", map[string]any{
		"name":         "Doceria",
		"delivery_fee": "4.999",
	})
	require.Equal(t, http.StatusBadRequest, fee.Code, fee.Body.String())

	menu := decode[[]map[string]any](t, env.do(t, http.MethodGet, "/api/restaurants/"+env.pizzaria.ID+"/products", nil))
	assert.Len(t, menu, 3, "rejected products must not be stored")

	created := env.do(t, http.MethodPost, "/api/products", map[string]any{
		"restaurant_id": env.pizzaria.ID,
		"name":          "Bala",
		"price":         "0.33",
	})
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	productID := decode[map[string]any](t, created)["id"].(string)

	order := env.do(t, http.MethodPost, "/api/orders", map[string]any{
		"customer_id":   env.maria.ID,
		"restaurant_id": env.pizzaria.ID,
		"items":         []map[string]any{{"product_id": productID, "quantity": 3}},
	})
	require.Equal(t, http.StatusCreated, order.Code, order.Body.String())
	body := decode[orderBody](t, order)
	assert.Equal(t, "0.99", body.Total)
	require.Len(t, body.Lines, 1)
	assert.Equal(t, "0.33", body.Lines[0].UnitPrice)
	assert.Equal(t, "0.99", body.Lines[0].Subtotal)
}
