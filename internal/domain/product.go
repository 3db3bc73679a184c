package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product — карточка товара каталога.
type Product struct {
	ID string
	// Name уникален в пределах каталога.
	Name string
	// Price не может быть отрицательной.
	Price decimal.Decimal
	// StockCount меняется только через складской регистр
	// (и прямыми правками администратора, минующими регистр).
	StockCount int32
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Validate проверяет инварианты карточки товара.
func (p *Product) Validate() []error {
	var errs []error

	if p.Name == "" {
		errs = append(errs, ErrProductNameRequired)
	}
	if p.Price.IsNegative() {
		errs = append(errs, ErrPriceNegative)
	}
	if p.StockCount < 0 {
		errs = append(errs, ErrStockNegative)
	}

	return errs
}
