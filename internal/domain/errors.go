package domain

import (
	"errors"
	"fmt"
)

var (
	// Ошибка отсутствующего номера заказа.
	ErrOrderIDRequired = errors.New("order_id is required")
	// Ошибка отсутствующего идентификатора клиента.
	ErrUserIDRequired = errors.New("user_id is required")
	// Ошибка отсутствия хотя бы одной позиции в заказе.
	ErrLinesRequired = errors.New("order must contain at least one product")
	// Ошибка при недопустимом значении статуса.
	ErrInvalidStatus = errors.New("invalid order status")
	// Ошибка отсутствующего товара в позиции.
	ErrLineProductRequired = errors.New("line product_id is required")
	// Ошибка при некорректном количестве товара (< 1).
	ErrLineQuantityInvalid = errors.New("line quantity must be at least 1")
	// Ошибка, если зафиксированная цена отрицательная.
	ErrLinePriceInvalid = errors.New("line price must be non-negative")
	// Ошибка несоответствия суммы заказа и сумм позиций.
	ErrTotalMismatch = errors.New("order total does not match line subtotals")
	// ErrReturnReasonRequired — причина обязательна для Returned/Cancelled.
	ErrReturnReasonRequired = errors.New("return reason is required for returned/cancelled orders")
	// ErrReturnReasonForbidden — причина допустима только для Returned/Cancelled.
	ErrReturnReasonForbidden = errors.New("return reason is only allowed for returned/cancelled orders")

	// Ошибки справочника клиентов.
	ErrFirstNameRequired = errors.New("first name is required")
	ErrLastNameRequired  = errors.New("last name is required")
	ErrAddressRequired   = errors.New("address is required")
	ErrPhoneRequired     = errors.New("phone is required")
	ErrPhoneInvalid      = errors.New("phone number format is invalid")
	ErrEmailInvalid      = errors.New("email format is invalid")

	// Ошибки каталога.
	ErrProductNameRequired = errors.New("product name is required")
	ErrPriceNegative       = errors.New("price must be non-negative")
	ErrStockNegative       = errors.New("stock count must be non-negative")

	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrUserNotFound возвращается, если клиент не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrProductNotFound возвращается, если товар не найден.
	ErrProductNotFound = errors.New("product not found")

	// ErrOrderIDConflict — нарушение уникальности номера заказа; генерация повторяется.
	ErrOrderIDConflict = errors.New("order id already exists")
	// ErrPhoneConflict — телефон уже занят другим клиентом.
	ErrPhoneConflict = errors.New("phone number already exists")
	// ErrProductNameConflict — название товара уже занято.
	ErrProductNameConflict = errors.New("product name already exists")

	// ErrOrderNotPending — удалять можно только заказы в статусе Pending.
	ErrOrderNotPending = errors.New("only pending orders can be deleted")
	// ErrUserHasOrders — клиент с заказами не может быть удалён.
	ErrUserHasOrders = errors.New("user has orders and cannot be deleted")

	// ErrInsufficientStock — маркер для errors.Is поверх типизированной ошибки.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// InsufficientStockError уточняет нехватку стока конкретного товара.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Available   int32
	Requested   int32
}

func (e *InsufficientStockError) Error() string {
	name := e.ProductName
	if name == "" {
		name = e.ProductID
	}
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d", name, e.Available, e.Requested)
}

// Is позволяет проверять ошибку через errors.Is(err, ErrInsufficientStock).
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// IsNotFound проверяет, относится ли ошибка к классу "не найдено".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrProductNotFound)
}

// IsConflict проверяет нарушение уникального ключа.
func IsConflict(err error) bool {
	return errors.Is(err, ErrOrderIDConflict) ||
		errors.Is(err, ErrPhoneConflict) ||
		errors.Is(err, ErrProductNameConflict)
}

// ValidationError агрегирует результат проверки инвариантов в одну ошибку.
type ValidationError struct {
	Errs []error
}

func (e *ValidationError) Error() string {
	if len(e.Errs) == 0 {
		return "validation failed"
	}
	msg := e.Errs[0].Error()
	for _, err := range e.Errs[1:] {
		msg += "; " + err.Error()
	}
	return msg
}

// Unwrap отдаёт вложенные ошибки для errors.Is.
func (e *ValidationError) Unwrap() []error {
	return e.Errs
}

// NewValidationError оборачивает непустой список замечаний, иначе возвращает nil.
func NewValidationError(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Errs: errs}
}

// IsValidation сообщает, является ли ошибка ошибкой валидации входных данных.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
