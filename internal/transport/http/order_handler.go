package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/yuridenisov/oims/internal/domain"
	"github.com/yuridenisov/oims/internal/service/order"
)

// OrderHandler обслуживает HTTP-операции над заказами.
type OrderHandler struct {
	orders *order.Service
	logger *log.Entry
}

// NewOrderHandler создаёт handler заказов.
func NewOrderHandler(orders *order.Service, logger *log.Entry) *OrderHandler {
	if logger == nil {
		logger = log.New().WithField("component", "http-orders")
	}
	return &OrderHandler{orders: orders, logger: logger}
}

// RegisterRoutes вешает маршруты заказов на роутер.
func (h *OrderHandler) RegisterRoutes(router gin.IRouter) {
	orders := router.Group("/orders")
	{
		orders.POST("", h.CreateOrder)
		orders.GET("", h.ListOrders)
		orders.GET("/stats", h.OrderStats)
		orders.GET("/:orderId", h.GetOrder)
		orders.PATCH("/:orderId/status", h.UpdateStatus)
		orders.DELETE("/:orderId", h.DeleteOrder)
	}
}

type createOrderRequest struct {
	UserID   string `json:"user_id"`
	Customer *struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Phone     string `json:"phone"`
		Email     string `json:"email"`
		Address   string `json:"address"`
	} `json:"customer"`
	Products []struct {
		ProductID string `json:"product_id"`
		Quantity  int32  `json:"quantity"`
	} `json:"products"`
}

type updateStatusRequest struct {
	Status       string `json:"status" binding:"required"`
	ReturnReason string `json:"return_reason"`
}

// CreateOrder создаёт заказ.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	input := order.CreateOrderInput{UserID: req.UserID}
	if req.Customer != nil {
		input.Customer = &order.CustomerInput{
			FirstName: req.Customer.FirstName,
			LastName:  req.Customer.LastName,
			Phone:     req.Customer.Phone,
			Email:     req.Customer.Email,
			Address:   req.Customer.Address,
		}
	}
	for _, p := range req.Products {
		input.Lines = append(input.Lines, order.LineInput{
			ProductID: p.ProductID,
			Quantity:  p.Quantity,
		})
	}

	created, err := h.orders.CreateOrder(input)
	if err != nil {
		h.logger.WithError(err).Warn("create order rejected")
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "order created", toOrderDTO(created))
}

// GetOrder возвращает заказ по номеру.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	found, err := h.orders.GetOrder(c.Param("orderId"))
	if err != nil {
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "order retrieved", toOrderDTO(found))
}

// ListOrders возвращает страницу заказов по фильтрам из query-параметров.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	filter, err := parseOrderFilter(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	page, limit := parsePaging(c)

	result, err := h.orders.List(filter, page, limit)
	if err != nil {
		h.logger.WithError(err).Error("failed to list orders")
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "orders retrieved", toOrderPageDTO(result))
}

// UpdateStatus переводит заказ в новый статус.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	updated, err := h.orders.UpdateStatus(c.Param("orderId"), domain.OrderStatus(req.Status), req.ReturnReason)
	if err != nil {
		h.logger.WithError(err).WithField("order_id", c.Param("orderId")).Warn("status update rejected")
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "order status updated", toOrderDTO(updated))
}

// DeleteOrder удаляет заказ в статусе Pending.
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	if err := h.orders.DeleteOrder(c.Param("orderId")); err != nil {
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "order deleted", nil)
}

// OrderStats возвращает счётчики заказов по статусам.
func (h *OrderHandler) OrderStats(c *gin.Context) {
	stats, err := h.orders.Stats()
	if err != nil {
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "order stats retrieved", gin.H{
		"total":       stats.Total,
		"pending":     stats.Pending,
		"in_progress": stats.InProgress,
		"completed":   stats.Completed,
		"returned":    stats.Returned,
		"cancelled":   stats.Cancelled,
	})
}

// UserOrders возвращает страницу заказов одного клиента.
// Маршрут регистрируется из handler клиентов, логика живёт здесь.
func (h *OrderHandler) UserOrders(c *gin.Context) {
	page, limit := parsePaging(c)
	result, err := h.orders.UserOrders(c.Param("id"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "user orders retrieved", toOrderPageDTO(result))
}

// ProductOrders возвращает страницу заказов с этим товаром в позициях.
// Маршрут регистрируется из handler каталога, логика живёт здесь.
func (h *OrderHandler) ProductOrders(c *gin.Context) {
	page, limit := parsePaging(c)
	result, err := h.orders.ProductOrders(c.Param("id"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "product orders retrieved", toOrderPageDTO(result))
}

func parseOrderFilter(c *gin.Context) (domain.OrderFilter, error) {
	filter := domain.OrderFilter{
		UserID: c.Query("user_id"),
		Search: c.Query("search"),
	}
	if status := c.Query("status"); status != "" {
		filter.Status = domain.OrderStatus(status)
	}
	if raw := c.Query("created_from"); raw != "" {
		t, err := parseTimeParam(raw)
		if err != nil {
			return domain.OrderFilter{}, err
		}
		filter.CreatedFrom = &t
	}
	if raw := c.Query("created_to"); raw != "" {
		t, err := parseTimeParam(raw)
		if err != nil {
			return domain.OrderFilter{}, err
		}
		filter.CreatedTo = &t
	}
	if raw := c.Query("min_amount"); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return domain.OrderFilter{}, err
		}
		filter.MinAmount = &amount
	}
	if raw := c.Query("max_amount"); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return domain.OrderFilter{}, err
		}
		filter.MaxAmount = &amount
	}
	return filter, nil
}

// parseTimeParam принимает RFC3339 и короткую форму YYYY-MM-DD.
func parseTimeParam(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

func parsePaging(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		limit = 10
	}
	return page, limit
}
