package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductSales — агрегат продаж одного товара по позициям заказов.
type ProductSales struct {
	ProductID    string
	ProductName  string
	QuantitySold int64
	Revenue      decimal.Decimal
	LastSoldAt   time.Time
}

// CustomerActivity — агрегат активности одного клиента по его заказам.
type CustomerActivity struct {
	UserID       string
	OrderCount   int
	TotalSpent   decimal.Decimal
	FirstOrderAt time.Time
	LastOrderAt  time.Time
}
