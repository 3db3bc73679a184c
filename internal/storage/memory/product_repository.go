package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/yuridenisov/oims/internal/domain"
)

// productRepositoryInMemory — простая in-memory реализация ProductRepository.
type productRepositoryInMemory struct {
	mu    sync.Mutex
	items map[string]domain.Product
}

// NewProductRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewProductRepository() domain.ProductRepository {
	return &productRepositoryInMemory{
		items: make(map[string]domain.Product),
	}
}

// Create сохраняет товар, охраняя уникальность названия.
func (r *productRepositoryInMemory) Create(product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.Name == product.Name {
			return domain.ErrProductNameConflict
		}
	}
	r.items[product.ID] = product
	return nil
}

// Get возвращает товар или ErrProductNotFound.
func (r *productRepositoryInMemory) Get(id string) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.items[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

// List возвращает каталог, новые первыми.
func (r *productRepositoryInMemory) List() ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]domain.Product, 0, len(r.items))
	for _, product := range r.items {
		result = append(result, product)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

// ListLowStock возвращает товары со стоком не выше порога, меньший сток первым.
func (r *productRepositoryInMemory) ListLowStock(threshold int32) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]domain.Product, 0)
	for _, product := range r.items {
		if product.StockCount <= threshold {
			result = append(result, product)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].StockCount != result[j].StockCount {
			return result[i].StockCount < result[j].StockCount
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Save перезаписывает карточку товара, проверяя занятость названия.
func (r *productRepositoryInMemory) Save(product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[product.ID]; !ok {
		return domain.ErrProductNotFound
	}
	for id, existing := range r.items {
		if id != product.ID && existing.Name == product.Name {
			return domain.ErrProductNameConflict
		}
	}
	r.items[product.ID] = product
	return nil
}

// Delete удаляет товар из каталога.
func (r *productRepositoryInMemory) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(r.items, id)
	return nil
}

// AdjustStock атомарно меняет сток под мьютексом.
// Отрицательный delta отклоняется, если уводит сток ниже нуля.
func (r *productRepositoryInMemory) AdjustStock(id string, delta int32) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.items[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	if product.StockCount+delta < 0 {
		return domain.Product{}, &domain.InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Available:   product.StockCount,
			Requested:   -delta,
		}
	}
	product.StockCount += delta
	product.UpdatedAt = time.Now().UTC()
	r.items[id] = product
	return product, nil
}

// Count возвращает размер каталога.
func (r *productRepositoryInMemory) Count() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items), nil
}

var _ domain.ProductRepository = (*productRepositoryInMemory)(nil)
