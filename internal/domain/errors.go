package domain

import "errors"

// Классы ошибок, по которым транспорт выбирает код ответа.
var (
	// ErrNotFound — запрошенная сущность отсутствует в хранилище (404).
	ErrNotFound = errors.New("not found")
	// ErrBusinessRule — нарушение бизнес-правила (400).
	ErrBusinessRule = errors.New("business rule violation")
)

// classified связывает конкретную ошибку с её классом, сохраняя собственный текст.
type classified struct {
	msg   string
	class error
}

func (e *classified) Error() string { return e.msg }

func (e *classified) Unwrap() error { return e.class }

func notFound(msg string) error { return &classified{msg: msg, class: ErrNotFound} }

func ruleViolation(msg string) error { return &classified{msg: msg, class: ErrBusinessRule} }

var (
	ErrCustomerNotFound   = notFound("customer not found")
	ErrRestaurantNotFound = notFound("restaurant not found")
	ErrProductNotFound    = notFound("product not found")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = notFound("order not found")

	// Ошибка отсутствующего идентификатора клиента.
	ErrCustomerRequired   = ruleViolation("customer_id is required")
	ErrRestaurantRequired = ruleViolation("restaurant_id is required")
	ErrCustomerInactive   = ruleViolation("customer is inactive")
	ErrRestaurantInactive = ruleViolation("restaurant is inactive")
	ErrProductInactive    = ruleViolation("product is unavailable")
	// Ошибка отсутствия хотя бы одного товара в заказе.
	ErrItemsRequired = ruleViolation("order must contain at least one item")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrItemQtyInvalid = ruleViolation("item quantity must be greater than zero")
	// Один и тот же продукт указан в заказе дважды.
	ErrItemDuplicated = ruleViolation("product is listed more than once")
	// Продукт принадлежит другому ресторану.
	ErrProductForeignRestaurant = ruleViolation("product does not belong to the restaurant")
	// Отмена разрешена только из статуса PENDING.
	ErrOrderNotCancelable = ruleViolation("only pending orders can be cancelled")
	ErrStatusRequired     = ruleViolation("status is required")
	// Ошибка несоответствия суммы заказа и сумм позиций.
	ErrAmountMismatch = ruleViolation("order total does not match lines sum")
	ErrAmountScale    = ruleViolation("amount must have at most two decimal places")
	ErrAmountTooLarge = ruleViolation("amount exceeds 9999999999.99")

	ErrNameRequired        = ruleViolation("name is required")
	ErrEmailRequired       = ruleViolation("email is required")
	ErrEmailTaken          = ruleViolation("email is already registered")
	ErrRestaurantNameTaken = ruleViolation("restaurant name is already registered")
	ErrPriceInvalid        = ruleViolation("price must be greater than zero")
	ErrDeliveryFeeInvalid  = ruleViolation("delivery fee must be non-negative")
	ErrRatingInvalid       = ruleViolation("rating must be between 0 and 5")
	ErrPeriodRequired      = ruleViolation("period start and end are required")
	ErrPeriodInvalid       = ruleViolation("period start must not be after its end")

	// ErrOrderVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrOrderVersionConflict = errors.New("order version conflict")
	// ErrDuplicateKey — нарушение уникальности на уровне хранилища.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")

	ErrIdempotencyKeyRequired         = errors.New("idempotency key is required")
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	ErrIdempotencyKeyAlreadyExists    = errors.New("idempotency key already exists")
	ErrIdempotencyHashMismatch        = errors.New("idempotency key reused with different payload")
	ErrIdempotencyKeyNotFound         = errors.New("idempotency key not found")
)

// IsNotFound сообщает, относится ли ошибка к классу NotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsBusinessRule сообщает, относится ли ошибка к нарушениям бизнес-правил.
func IsBusinessRule(err error) bool {
	return errors.Is(err, ErrBusinessRule)
}

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrOrderVersionConflict)
}

// IsIdempotencyConflict сообщает, что ключ идемпотентности уже использован.
func IsIdempotencyConflict(err error) bool {
	return errors.Is(err, ErrIdempotencyKeyAlreadyExists) || errors.Is(err, ErrIdempotencyHashMismatch)
}
