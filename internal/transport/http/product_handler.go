package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/yuridenisov/oims/internal/service/catalog"
)

// ProductHandler обслуживает HTTP-операции над каталогом.
type ProductHandler struct {
	catalog *catalog.Service
	orders  *OrderHandler
	logger  *log.Entry
}

// NewProductHandler создаёт handler каталога. OrderHandler нужен для
// вложенного маршрута истории заказов товара.
func NewProductHandler(svc *catalog.Service, orders *OrderHandler, logger *log.Entry) *ProductHandler {
	if logger == nil {
		logger = log.New().WithField("component", "http-products")
	}
	return &ProductHandler{catalog: svc, orders: orders, logger: logger}
}

// RegisterRoutes вешает маршруты каталога на роутер.
func (h *ProductHandler) RegisterRoutes(router gin.IRouter) {
	products := router.Group("/products")
	{
		products.POST("", h.CreateProduct)
		products.GET("", h.ListProducts)
		products.GET("/low-stock", h.LowStock)
		products.GET("/:id", h.GetProduct)
		products.PATCH("/:id", h.UpdateProduct)
		products.DELETE("/:id", h.DeleteProduct)
		if h.orders != nil {
			products.GET("/:id/orders", h.orders.ProductOrders)
		}
	}
}

type createProductRequest struct {
	Name       string          `json:"name" binding:"required"`
	Price      decimal.Decimal `json:"price"`
	StockCount int32           `json:"stock_count"`
}

type updateProductRequest struct {
	Name       *string          `json:"name"`
	Price      *decimal.Decimal `json:"price"`
	StockCount *int32           `json:"stock_count"`
}

// CreateProduct добавляет товар в каталог.
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	created, err := h.catalog.CreateProduct(catalog.CreateProductInput{
		Name:       req.Name,
		Price:      req.Price,
		StockCount: req.StockCount,
	})
	if err != nil {
		h.logger.WithError(err).Warn("create product rejected")
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "product created", toProductDTO(created))
}

// GetProduct возвращает товар по идентификатору.
func (h *ProductHandler) GetProduct(c *gin.Context) {
	found, err := h.catalog.GetProduct(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "product retrieved", toProductDTO(found))
}

// ListProducts возвращает каталог целиком.
func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts()
	if err != nil {
		respondError(c, err)
		return
	}
	dtos := make([]productDTO, 0, len(products))
	for _, p := range products {
		dtos = append(dtos, toProductDTO(p))
	}
	SuccessResponse(c, http.StatusOK, "products retrieved", dtos)
}

// UpdateProduct меняет поля товара.
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var req updateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	updated, err := h.catalog.UpdateProduct(c.Param("id"), catalog.UpdateProductInput{
		Name:       req.Name,
		Price:      req.Price,
		StockCount: req.StockCount,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "product updated", toProductDTO(updated))
}

// DeleteProduct удаляет товар.
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	if err := h.catalog.DeleteProduct(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "product deleted", nil)
}

// LowStock возвращает товары с остатком ниже порога.
func (h *ProductHandler) LowStock(c *gin.Context) {
	threshold := 0
	if raw := c.Query("threshold"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			ErrorResponse(c, http.StatusBadRequest, "invalid threshold parameter")
			return
		}
		threshold = parsed
	}

	products, err := h.catalog.LowStock(int32(threshold))
	if err != nil {
		respondError(c, err)
		return
	}
	dtos := make([]productDTO, 0, len(products))
	for _, p := range products {
		dtos = append(dtos, toProductDTO(p))
	}
	SuccessResponse(c, http.StatusOK, "low stock products retrieved", dtos)
}
