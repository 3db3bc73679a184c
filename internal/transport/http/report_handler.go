package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/yuridenisov/oims/internal/service/report"
)

// ReportHandler обслуживает отчётные эндпоинты.
type ReportHandler struct {
	reports *report.Service
	logger  *log.Entry
}

// NewReportHandler создаёт handler отчётов.
func NewReportHandler(svc *report.Service, logger *log.Entry) *ReportHandler {
	if logger == nil {
		logger = log.New().WithField("component", "http-reports")
	}
	return &ReportHandler{reports: svc, logger: logger}
}

// RegisterRoutes вешает маршруты отчётов на роутер.
func (h *ReportHandler) RegisterRoutes(router gin.IRouter) {
	reports := router.Group("/reports")
	{
		reports.GET("/sales", h.Sales)
		reports.GET("/customers", h.Customers)
		reports.GET("/dashboard", h.Dashboard)
	}
}

type productSalesDTO struct {
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	QuantitySold int64           `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
	LastSoldAt   time.Time       `json:"last_sold_at"`
}

type customerSummaryDTO struct {
	UserID       string          `json:"user_id"`
	Name         string          `json:"name,omitempty"`
	Phone        string          `json:"phone,omitempty"`
	OrderCount   int             `json:"order_count"`
	TotalSpent   decimal.Decimal `json:"total_spent"`
	FirstOrderAt time.Time       `json:"first_order_at"`
	LastOrderAt  time.Time       `json:"last_order_at"`
}

// Sales возвращает отчёт о продажах за период.
func (h *ReportHandler) Sales(c *gin.Context) {
	var from, to time.Time
	if raw := c.Query("from"); raw != "" {
		parsed, err := parseTimeParam(raw)
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, "invalid from parameter")
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := parseTimeParam(raw)
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, "invalid to parameter")
			return
		}
		to = parsed
	}

	result, err := h.reports.Sales(from, to)
	if err != nil {
		h.logger.WithError(err).Error("failed to build sales report")
		respondError(c, err)
		return
	}

	products := make([]productSalesDTO, 0, len(result.Products))
	for _, p := range result.Products {
		products = append(products, productSalesDTO{
			ProductID:    p.ProductID,
			ProductName:  p.ProductName,
			QuantitySold: p.QuantitySold,
			Revenue:      p.Revenue,
			LastSoldAt:   p.LastSoldAt,
		})
	}
	data := gin.H{
		"products":            products,
		"total_revenue":       result.TotalRevenue,
		"total_quantity_sold": result.TotalQuantitySold,
		"average_unit_price":  result.AverageUnitPrice,
	}
	if result.TopSellingProduct != nil {
		data["top_selling_product"] = productSalesDTO{
			ProductID:    result.TopSellingProduct.ProductID,
			ProductName:  result.TopSellingProduct.ProductName,
			QuantitySold: result.TopSellingProduct.QuantitySold,
			Revenue:      result.TopSellingProduct.Revenue,
			LastSoldAt:   result.TopSellingProduct.LastSoldAt,
		}
	}
	SuccessResponse(c, http.StatusOK, "sales report generated", data)
}

// Customers возвращает отчёт об активности клиентов.
func (h *ReportHandler) Customers(c *gin.Context) {
	result, err := h.reports.Customers()
	if err != nil {
		h.logger.WithError(err).Error("failed to build customer report")
		respondError(c, err)
		return
	}

	customers := make([]customerSummaryDTO, 0, len(result.Customers))
	for _, cust := range result.Customers {
		customers = append(customers, customerSummaryDTO{
			UserID:       cust.UserID,
			Name:         cust.Name,
			Phone:        cust.Phone,
			OrderCount:   cust.OrderCount,
			TotalSpent:   cust.TotalSpent,
			FirstOrderAt: cust.FirstOrderAt,
			LastOrderAt:  cust.LastOrderAt,
		})
	}
	SuccessResponse(c, http.StatusOK, "customer report generated", gin.H{
		"customers":       customers,
		"total_customers": result.TotalCustomers,
		"repeat_rate":     result.RepeatRate,
	})
}

// Dashboard возвращает сводку состояния системы.
func (h *ReportHandler) Dashboard(c *gin.Context) {
	result, err := h.reports.BuildDashboard(time.Now())
	if err != nil {
		h.logger.WithError(err).Error("failed to build dashboard")
		respondError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "dashboard generated", gin.H{
		"orders": gin.H{
			"total":       result.Orders.Total,
			"pending":     result.Orders.Pending,
			"in_progress": result.Orders.InProgress,
			"completed":   result.Orders.Completed,
			"returned":    result.Orders.Returned,
			"cancelled":   result.Orders.Cancelled,
		},
		"total_users":      result.TotalUsers,
		"total_products":   result.TotalProducts,
		"low_stock_count":  result.LowStockCount,
		"monthly_revenue":  result.MonthlyRevenue,
		"yearly_revenue":   result.YearlyRevenue,
		"lifetime_revenue": result.LifetimeRevenue,
	})
}
