package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает жизненный цикл заказа.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан, сток зарезервирован, исполнение не начато.
	OrderStatusPending OrderStatus = "Pending"
	// OrderStatusInProgress — заказ взят в работу.
	OrderStatusInProgress OrderStatus = "In Progress"
	// OrderStatusComplete — заказ исполнен.
	OrderStatusComplete OrderStatus = "Complete"
	// OrderStatusReturned — заказ возвращён клиентом, сток восстановлен.
	OrderStatusReturned OrderStatus = "Returned"
	// OrderStatusCancelled — заказ отменён, сток восстановлен.
	OrderStatusCancelled OrderStatus = "Cancelled"
)

// ValidStatuses перечисляет допустимые значения статуса.
var ValidStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusInProgress,
	OrderStatusComplete,
	OrderStatusReturned,
	OrderStatusCancelled,
}

// IsValidStatus проверяет, что значение входит в допустимый набор.
func IsValidStatus(s OrderStatus) bool {
	for _, status := range ValidStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// RestoresStock сообщает, восстанавливает ли статус складской сток.
// Возврат и отмена — единственные статусы, возвращающие товар на склад.
func (s OrderStatus) RestoresStock() bool {
	return s == OrderStatusReturned || s == OrderStatusCancelled
}

// OrderLine представляет одну позицию заказа.
// Цена и название фиксируются в момент оформления и больше не меняются,
// даже если карточка товара редактируется позже.
type OrderLine struct {
	ProductID string
	Quantity  int32
	// PriceAtOrder — цена за единицу на момент оформления.
	PriceAtOrder decimal.Decimal
	// Name — название товара на момент оформления.
	Name string
}

// Subtotal возвращает стоимость позиции: цена × количество.
func (l OrderLine) Subtotal() decimal.Decimal {
	return l.PriceAtOrder.Mul(decimal.NewFromInt32(l.Quantity))
}

// Order агрегирует состояние заказа и его позиции.
type Order struct {
	// ID — первичный ключ записи.
	ID string
	// OrderID — человекочитаемый уникальный номер вида ORD-<millis>-<seq>.
	OrderID string
	UserID  string
	Lines   []OrderLine
	Status  OrderStatus
	// ReturnReason обязателен для статусов Returned и Cancelled и пуст для остальных.
	ReturnReason string
	// TotalAmount — производное поле: сумма Subtotal по всем позициям.
	TotalAmount decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ComputeTotal пересчитывает сумму заказа по позициям.
func (o *Order) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range o.Lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.OrderID == "" {
		errs = append(errs, ErrOrderIDRequired)
	}
	if o.UserID == "" {
		errs = append(errs, ErrUserIDRequired)
	}
	if len(o.Lines) == 0 {
		errs = append(errs, ErrLinesRequired)
	}
	if !IsValidStatus(o.Status) {
		errs = append(errs, ErrInvalidStatus)
	}

	for _, line := range o.Lines {
		if line.ProductID == "" {
			errs = append(errs, ErrLineProductRequired)
		}
		if line.Quantity < 1 {
			errs = append(errs, ErrLineQuantityInvalid)
		}
		if line.PriceAtOrder.IsNegative() {
			errs = append(errs, ErrLinePriceInvalid)
		}
	}

	// Сумма заказа всегда равна сумме позиций.
	if !o.TotalAmount.Equal(o.ComputeTotal()) {
		errs = append(errs, ErrTotalMismatch)
	}

	// Причина возврата присутствует тогда и только тогда, когда статус её требует.
	if o.Status.RestoresStock() && o.ReturnReason == "" {
		errs = append(errs, ErrReturnReasonRequired)
	}
	if !o.Status.RestoresStock() && o.ReturnReason != "" {
		errs = append(errs, ErrReturnReasonForbidden)
	}

	return errs
}
