package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yuridenisov/oims/internal/domain"
)

// orderRepositoryInMemory — простая in-memory реализация OrderRepository.
// Ключом служит человекочитаемый номер заказа.
type orderRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Order
}

// NewOrderRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewOrderRepository() domain.OrderRepository {
	return &orderRepositoryInMemory{
		items: make(map[string]domain.Order),
	}
}

// Create сохраняет новый заказ, если номер ещё не занят.
func (r *orderRepositoryInMemory) Create(order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[order.OrderID]; exists {
		return domain.ErrOrderIDConflict
	}
	// Сохраняем копию позиций, чтобы избежать мутаций извне.
	order.Lines = cloneLines(order.Lines)
	r.items[order.OrderID] = order
	return nil
}

// GetByOrderID возвращает заказ или ErrOrderNotFound.
func (r *orderRepositoryInMemory) GetByOrderID(orderID string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.items[orderID]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	order.Lines = cloneLines(order.Lines)
	return order, nil
}

// List применяет фильтр, сортирует по дате создания (новые первыми)
// и возвращает запрошенную страницу вместе с общим числом совпадений.
func (r *orderRepositoryInMemory) List(filter domain.OrderFilter, page, limit int) ([]domain.Order, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]domain.Order, 0, len(r.items))
	for _, order := range r.items {
		if filter.Matches(&order) {
			order.Lines = cloneLines(order.Lines)
			matched = append(matched, order)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].OrderID > matched[j].OrderID
	})

	total := len(matched)
	start := (page - 1) * limit
	if start >= total {
		return []domain.Order{}, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// Save перезаписывает существующий заказ.
func (r *orderRepositoryInMemory) Save(order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[order.OrderID]; !ok {
		return domain.ErrOrderNotFound
	}
	order.Lines = cloneLines(order.Lines)
	r.items[order.OrderID] = order
	return nil
}

// Delete удаляет заказ по номеру.
func (r *orderRepositoryInMemory) Delete(orderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[orderID]; !ok {
		return domain.ErrOrderNotFound
	}
	delete(r.items, orderID)
	return nil
}

// Count возвращает общее число заказов.
func (r *orderRepositoryInMemory) Count() (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items), nil
}

// CountByUser возвращает число заказов клиента.
func (r *orderRepositoryInMemory) CountByUser(userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, order := range r.items {
		if order.UserID == userID {
			count++
		}
	}
	return count, nil
}

// Stats агрегирует счётчики статусов одним проходом.
func (r *orderRepositoryInMemory) Stats() (domain.OrderStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stats domain.OrderStats
	for _, order := range r.items {
		stats.Total++
		switch order.Status {
		case domain.OrderStatusPending:
			stats.Pending++
		case domain.OrderStatusInProgress:
			stats.InProgress++
		case domain.OrderStatusComplete:
			stats.Completed++
		case domain.OrderStatusReturned:
			stats.Returned++
		case domain.OrderStatusCancelled:
			stats.Cancelled++
		}
	}
	return stats, nil
}

// SalesByProduct агрегирует продажи по позициям исполненных заказов за период.
func (r *orderRepositoryInMemory) SalesByProduct(from, to time.Time) ([]domain.ProductSales, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byProduct := make(map[string]*domain.ProductSales)
	for _, order := range r.items {
		if order.Status != domain.OrderStatusComplete {
			continue
		}
		if !from.IsZero() && order.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && order.CreatedAt.After(to) {
			continue
		}
		for _, line := range order.Lines {
			agg, ok := byProduct[line.ProductID]
			if !ok {
				agg = &domain.ProductSales{
					ProductID:   line.ProductID,
					ProductName: line.Name,
					Revenue:     decimal.Zero,
				}
				byProduct[line.ProductID] = agg
			}
			agg.QuantitySold += int64(line.Quantity)
			agg.Revenue = agg.Revenue.Add(line.Subtotal())
			if order.CreatedAt.After(agg.LastSoldAt) {
				agg.LastSoldAt = order.CreatedAt
			}
		}
	}

	result := make([]domain.ProductSales, 0, len(byProduct))
	for _, agg := range byProduct {
		result = append(result, *agg)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Revenue.Equal(result[j].Revenue) {
			return result[i].Revenue.GreaterThan(result[j].Revenue)
		}
		return result[i].ProductID < result[j].ProductID
	})
	return result, nil
}

// CustomerActivity агрегирует заказы по клиентам.
func (r *orderRepositoryInMemory) CustomerActivity() ([]domain.CustomerActivity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byUser := make(map[string]*domain.CustomerActivity)
	for _, order := range r.items {
		agg, ok := byUser[order.UserID]
		if !ok {
			agg = &domain.CustomerActivity{
				UserID:       order.UserID,
				TotalSpent:   decimal.Zero,
				FirstOrderAt: order.CreatedAt,
				LastOrderAt:  order.CreatedAt,
			}
			byUser[order.UserID] = agg
		}
		agg.OrderCount++
		agg.TotalSpent = agg.TotalSpent.Add(order.TotalAmount)
		if order.CreatedAt.Before(agg.FirstOrderAt) {
			agg.FirstOrderAt = order.CreatedAt
		}
		if order.CreatedAt.After(agg.LastOrderAt) {
			agg.LastOrderAt = order.CreatedAt
		}
	}

	result := make([]domain.CustomerActivity, 0, len(byUser))
	for _, agg := range byUser {
		result = append(result, *agg)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].TotalSpent.Equal(result[j].TotalSpent) {
			return result[i].TotalSpent.GreaterThan(result[j].TotalSpent)
		}
		return result[i].UserID < result[j].UserID
	})
	return result, nil
}

// RevenueBetween суммирует выручку исполненных заказов за период.
func (r *orderRepositoryInMemory) RevenueBetween(from, to time.Time) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	revenue := decimal.Zero
	for _, order := range r.items {
		if order.Status != domain.OrderStatusComplete {
			continue
		}
		if !from.IsZero() && order.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && order.CreatedAt.After(to) {
			continue
		}
		revenue = revenue.Add(order.TotalAmount)
	}
	return revenue, nil
}

func cloneLines(lines []domain.OrderLine) []domain.OrderLine {
	cloned := make([]domain.OrderLine, len(lines))
	copy(cloned, lines)
	return cloned
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
