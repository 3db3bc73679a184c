// Package report строит сводные отчёты по продажам, клиентам и состоянию
// системы на основе агрегатов хранилища заказов.
package report

import (
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/yuridenisov/oims/internal/domain"
)

const lowStockThreshold = 10

// Service строит отчёты поверх репозиториев.
type Service struct {
	orders   domain.OrderRepository
	users    domain.UserRepository
	products domain.ProductRepository
	logger   *log.Entry
}

// NewService создаёт сервис отчётов.
func NewService(
	orders domain.OrderRepository,
	users domain.UserRepository,
	products domain.ProductRepository,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "report-service")
	}
	return &Service{orders: orders, users: users, products: products, logger: logger}
}

// SalesReport — продажи по товарам за период со сводными показателями.
type SalesReport struct {
	From              time.Time
	To                time.Time
	Products          []domain.ProductSales
	TotalRevenue      decimal.Decimal
	TotalQuantitySold int64
	AverageUnitPrice  decimal.Decimal
	TopSellingProduct *domain.ProductSales
}

// CustomerReport — активность клиентов с долей повторных покупателей.
type CustomerReport struct {
	Customers      []CustomerSummary
	TotalCustomers int
	RepeatRate     decimal.Decimal
}

// CustomerSummary — активность одного клиента, дополненная данными справочника.
type CustomerSummary struct {
	UserID       string
	Name         string
	Phone        string
	OrderCount   int
	TotalSpent   decimal.Decimal
	FirstOrderAt time.Time
	LastOrderAt  time.Time
}

// Dashboard — сводка состояния системы для главного экрана.
type Dashboard struct {
	Orders          domain.OrderStats
	TotalUsers      int
	TotalProducts   int
	LowStockCount   int
	MonthlyRevenue  decimal.Decimal
	YearlyRevenue   decimal.Decimal
	LifetimeRevenue decimal.Decimal
}

// Sales строит отчёт о продажах за период. Нулевые границы снимают ограничение.
func (s *Service) Sales(from, to time.Time) (SalesReport, error) {
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return SalesReport{}, domain.NewValidationError([]error{domain.ErrDateRangeInvalid})
	}

	sales, err := s.orders.SalesByProduct(from, to)
	if err != nil {
		return SalesReport{}, err
	}

	report := SalesReport{
		From:         from,
		To:           to,
		Products:     sales,
		TotalRevenue: decimal.Zero,
	}
	var top *domain.ProductSales
	for i := range sales {
		report.TotalRevenue = report.TotalRevenue.Add(sales[i].Revenue)
		report.TotalQuantitySold += sales[i].QuantitySold
		if top == nil || sales[i].QuantitySold > top.QuantitySold {
			top = &sales[i]
		}
	}
	report.TopSellingProduct = top
	report.AverageUnitPrice = decimal.Zero
	if report.TotalQuantitySold > 0 {
		report.AverageUnitPrice = report.TotalRevenue.
			Div(decimal.NewFromInt(report.TotalQuantitySold)).
			Round(2)
	}
	return report, nil
}

// Customers строит отчёт об активности клиентов. Клиенты без заказов
// в отчёт не попадают; доля повторных считается среди заказывавших.
func (s *Service) Customers() (CustomerReport, error) {
	activity, err := s.orders.CustomerActivity()
	if err != nil {
		return CustomerReport{}, err
	}

	report := CustomerReport{
		Customers:      make([]CustomerSummary, 0, len(activity)),
		TotalCustomers: len(activity),
		RepeatRate:     decimal.Zero,
	}
	repeat := 0
	for _, a := range activity {
		summary := CustomerSummary{
			UserID:       a.UserID,
			OrderCount:   a.OrderCount,
			TotalSpent:   a.TotalSpent,
			FirstOrderAt: a.FirstOrderAt,
			LastOrderAt:  a.LastOrderAt,
		}
		if user, err := s.users.Get(a.UserID); err == nil {
			summary.Name = user.FullName()
			summary.Phone = user.Phone
		} else {
			// Клиент мог быть удалён после оформления заказов.
			s.logger.WithField("user_id", a.UserID).Debug("customer record missing for activity row")
		}
		if a.OrderCount > 1 {
			repeat++
		}
		report.Customers = append(report.Customers, summary)
	}
	if report.TotalCustomers > 0 {
		report.RepeatRate = decimal.NewFromInt(int64(repeat)).
			Div(decimal.NewFromInt(int64(report.TotalCustomers))).
			Round(4)
	}
	return report, nil
}

// BuildDashboard собирает сводку: счётчики заказов, размеры справочников,
// товары на пополнение и выручку за текущий месяц, год и всё время.
func (s *Service) BuildDashboard(now time.Time) (Dashboard, error) {
	stats, err := s.orders.Stats()
	if err != nil {
		return Dashboard{}, err
	}
	totalUsers, err := s.users.Count()
	if err != nil {
		return Dashboard{}, err
	}
	totalProducts, err := s.products.Count()
	if err != nil {
		return Dashboard{}, err
	}
	lowStock, err := s.products.ListLowStock(lowStockThreshold)
	if err != nil {
		return Dashboard{}, err
	}

	now = now.UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	yearStart := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)

	monthly, err := s.orders.RevenueBetween(monthStart, now)
	if err != nil {
		return Dashboard{}, err
	}
	yearly, err := s.orders.RevenueBetween(yearStart, now)
	if err != nil {
		return Dashboard{}, err
	}
	lifetime, err := s.orders.RevenueBetween(time.Time{}, now)
	if err != nil {
		return Dashboard{}, err
	}

	return Dashboard{
		Orders:          stats,
		TotalUsers:      totalUsers,
		TotalProducts:   totalProducts,
		LowStockCount:   len(lowStock),
		MonthlyRevenue:  monthly,
		YearlyRevenue:   yearly,
		LifetimeRevenue: lifetime,
	}, nil
}
