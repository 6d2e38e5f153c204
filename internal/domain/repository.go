package domain

import "time"

// CustomerRepository описывает хранилище клиентов.
type CustomerRepository interface {
	// Create сохраняет нового клиента. ErrDuplicateKey, если email уже занят.
	Create(customer Customer) error
	// Get возвращает клиента или ErrCustomerNotFound.
	Get(id string) (Customer, error)
	// FindByEmail ищет клиента по email без учёта регистра.
	FindByEmail(email string) (Customer, error)
	// Update перезаписывает клиента. ErrCustomerNotFound, если его нет.
	Update(customer Customer) error
	// List возвращает клиентов в порядке регистрации.
	List(activeOnly bool) ([]Customer, error)
}

// RestaurantRepository описывает хранилище ресторанов.
type RestaurantRepository interface {
	Create(restaurant Restaurant) error
	Get(id string) (Restaurant, error)
	// FindByName ищет ресторан по точному названию без учёта регистра.
	FindByName(name string) (Restaurant, error)
	Update(restaurant Restaurant) error
	List(filter RestaurantFilter) ([]Restaurant, error)
}

// ProductRepository описывает хранилище продуктов.
type ProductRepository interface {
	Create(product Product) error
	Get(id string) (Product, error)
	Update(product Product) error
	ListByRestaurant(restaurantID string) ([]Product, error)
	Search(filter ProductFilter) ([]Product, error)
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create атомарно сохраняет заказ вместе с позициями.
	Create(order Order) error
	// Get возвращает заказ с позициями или ErrOrderNotFound, если его нет.
	Get(id string) (Order, error)
	// Save обновляет статус и сумму заказа с учётом optimistic locking.
	Save(order Order) error
	// ListByCustomer возвращает заказы клиента, новые первыми.
	ListByCustomer(customerID string, limit int) ([]Order, error)
	// ListByRestaurant возвращает заказы ресторана, новые первыми.
	ListByRestaurant(restaurantID string, limit int) ([]Order, error)
	// List возвращает заказы, подходящие под фильтр, новые первыми.
	List(filter OrderFilter) ([]Order, error)
}

// ReportRepository строит агрегированные отчёты.
type ReportRepository interface {
	SalesByRestaurant() ([]RestaurantSales, error)
	TopProducts(limit int) ([]ProductSales, error)
	CustomerRanking(limit int) ([]CustomerOrders, error)
	RevenueByCategory() ([]CategoryRevenue, error)
}

// TimelineRepository хранит события жизненного цикла заказа.
type TimelineRepository interface {
	Append(event TimelineEvent) error
	List(orderID string) ([]TimelineEvent, error)
}

// IdempotencyRepository хранит состояние обработки запросов по idempotency-key.
type IdempotencyRepository interface {
	CreateProcessing(key, requestHash string, ttlAt time.Time) (IdempotencyRecord, error)
	Get(key string) (IdempotencyRecord, error)
	MarkDone(key string, responseBody []byte, httpStatus int) error
	MarkFailed(key string, responseBody []byte, httpStatus int) error
	DeleteExpired(before time.Time, limit int) (int, error)
}
