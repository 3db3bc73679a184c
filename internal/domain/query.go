package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderFilter описывает конъюнктивный предикат выборки заказов.
// Нулевые значения означают отсутствие ограничения по полю.
type OrderFilter struct {
	Status OrderStatus
	UserID string
	// ProductID отбирает заказы, среди позиций которых есть этот товар.
	ProductID string
	// CreatedFrom/CreatedTo — включительные границы по дате создания.
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	// MinAmount/MaxAmount — включительные границы по сумме заказа.
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
	// Search — регистронезависимый поиск подстроки по номеру заказа,
	// идентификатору клиента и названиям позиций.
	Search string
}

// Validate проверяет согласованность диапазонов и допустимость статуса.
func (f *OrderFilter) Validate() []error {
	var errs []error

	if f.Status != "" && !IsValidStatus(f.Status) {
		errs = append(errs, ErrInvalidStatus)
	}
	if f.CreatedFrom != nil && f.CreatedTo != nil && f.CreatedFrom.After(*f.CreatedTo) {
		errs = append(errs, ErrDateRangeInvalid)
	}
	if f.MinAmount != nil && f.MaxAmount != nil && f.MinAmount.GreaterThan(*f.MaxAmount) {
		errs = append(errs, ErrAmountRangeInvalid)
	}

	return errs
}

// Matches вычисляет предикат над одним заказом (для in-memory реализации).
func (f *OrderFilter) Matches(order *Order) bool {
	if f.Status != "" && order.Status != f.Status {
		return false
	}
	if f.UserID != "" && order.UserID != f.UserID {
		return false
	}
	if f.ProductID != "" && !hasLineWithProduct(order, f.ProductID) {
		return false
	}
	if f.CreatedFrom != nil && order.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && order.CreatedAt.After(*f.CreatedTo) {
		return false
	}
	if f.MinAmount != nil && order.TotalAmount.LessThan(*f.MinAmount) {
		return false
	}
	if f.MaxAmount != nil && order.TotalAmount.GreaterThan(*f.MaxAmount) {
		return false
	}
	if f.Search != "" && !matchesSearch(order, f.Search) {
		return false
	}
	return true
}

// OrderPage — страница выдачи со сквозными счётчиками.
type OrderPage struct {
	Orders []Order
	Total  int
	Page   int
	Limit  int
	// TotalPages = ceil(Total / Limit).
	TotalPages int
}

// OrderStats — счётчики заказов по статусам за один агрегирующий проход.
type OrderStats struct {
	Total      int
	Pending    int
	InProgress int
	Completed  int
	Returned   int
	Cancelled  int
}

// Диапазонные ошибки фильтра.
var (
	ErrDateRangeInvalid   = errors.New("start date must not be after end date")
	ErrAmountRangeInvalid = errors.New("min amount must not exceed max amount")
)

func hasLineWithProduct(order *Order, productID string) bool {
	for _, line := range order.Lines {
		if line.ProductID == productID {
			return true
		}
	}
	return false
}

func matchesSearch(order *Order, term string) bool {
	needle := strings.ToLower(term)
	if strings.Contains(strings.ToLower(order.OrderID), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(order.UserID), needle) {
		return true
	}
	for _, line := range order.Lines {
		if strings.Contains(strings.ToLower(line.Name), needle) {
			return true
		}
	}
	return false
}
