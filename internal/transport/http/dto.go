package http

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/yuridenisov/oims/internal/domain"
)

// orderLineDTO — позиция заказа в ответах API.
type orderLineDTO struct {
	ProductID    string          `json:"product_id"`
	Name         string          `json:"name"`
	Quantity     int32           `json:"quantity"`
	PriceAtOrder decimal.Decimal `json:"price_at_order"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// orderDTO — заказ в ответах API.
type orderDTO struct {
	OrderID      string          `json:"order_id"`
	UserID       string          `json:"user_id"`
	Products     []orderLineDTO  `json:"products"`
	Status       string          `json:"status"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	ReturnReason string          `json:"return_reason,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type orderPageDTO struct {
	Orders     []orderDTO `json:"orders"`
	Total      int        `json:"total"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	TotalPages int        `json:"total_pages"`
}

type userDTO struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type productDTO struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	StockCount int32           `json:"stock_count"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func toOrderDTO(order domain.Order) orderDTO {
	lines := make([]orderLineDTO, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, orderLineDTO{
			ProductID:    line.ProductID,
			Name:         line.Name,
			Quantity:     line.Quantity,
			PriceAtOrder: line.PriceAtOrder,
			Subtotal:     line.Subtotal(),
		})
	}
	return orderDTO{
		OrderID:      order.OrderID,
		UserID:       order.UserID,
		Products:     lines,
		Status:       string(order.Status),
		TotalAmount:  order.TotalAmount,
		ReturnReason: order.ReturnReason,
		CreatedAt:    order.CreatedAt,
		UpdatedAt:    order.UpdatedAt,
	}
}

func toOrderPageDTO(page domain.OrderPage) orderPageDTO {
	orders := make([]orderDTO, 0, len(page.Orders))
	for _, order := range page.Orders {
		orders = append(orders, toOrderDTO(order))
	}
	return orderPageDTO{
		Orders:     orders,
		Total:      page.Total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: page.TotalPages,
	}
}

func toUserDTO(user domain.User) userDTO {
	return userDTO{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Phone:     user.Phone,
		Email:     user.Email,
		Address:   user.Address,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func toProductDTO(product domain.Product) productDTO {
	return productDTO{
		ID:         product.ID,
		Name:       product.Name,
		Price:      product.Price,
		StockCount: product.StockCount,
		CreatedAt:  product.CreatedAt,
		UpdatedAt:  product.UpdatedAt,
	}
}
