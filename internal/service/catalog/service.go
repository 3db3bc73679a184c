// Package catalog реализует управление каталогом товаров.
package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/yuridenisov/oims/internal/domain"
)

// Товар с остатком ниже порога попадает в отчёт о пополнении.
const defaultLowStockThreshold = 10

// Service управляет товарами каталога.
type Service struct {
	products domain.ProductRepository
	logger   *log.Entry
}

// NewService создаёт сервис каталога.
func NewService(products domain.ProductRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "catalog-service")
	}
	return &Service{products: products, logger: logger}
}

// CreateProductInput — запрос на создание товара.
type CreateProductInput struct {
	Name       string
	Price      decimal.Decimal
	StockCount int32
}

// UpdateProductInput — запрос на обновление товара. Nil-поля не меняются.
type UpdateProductInput struct {
	Name       *string
	Price      *decimal.Decimal
	StockCount *int32
}

// CreateProduct добавляет товар в каталог.
func (s *Service) CreateProduct(input CreateProductInput) (domain.Product, error) {
	now := time.Now().UTC()
	product := domain.Product{
		ID:         uuid.NewString(),
		Name:       input.Name,
		Price:      input.Price,
		StockCount: input.StockCount,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if errs := product.Validate(); len(errs) > 0 {
		return domain.Product{}, domain.NewValidationError(errs)
	}
	if err := s.products.Create(product); err != nil {
		return domain.Product{}, err
	}
	s.logger.WithFields(log.Fields{
		"product_id": product.ID,
		"name":       product.Name,
	}).Info("product created")
	return product, nil
}

// GetProduct возвращает товар по идентификатору.
func (s *Service) GetProduct(id string) (domain.Product, error) {
	return s.products.Get(id)
}

// ListProducts возвращает все товары каталога.
func (s *Service) ListProducts() ([]domain.Product, error) {
	return s.products.List()
}

// UpdateProduct меняет указанные поля товара.
func (s *Service) UpdateProduct(id string, input UpdateProductInput) (domain.Product, error) {
	product, err := s.products.Get(id)
	if err != nil {
		return domain.Product{}, err
	}

	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.StockCount != nil {
		product.StockCount = *input.StockCount
	}
	product.UpdatedAt = time.Now().UTC()

	if errs := product.Validate(); len(errs) > 0 {
		return domain.Product{}, domain.NewValidationError(errs)
	}
	if err := s.products.Save(product); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

// DeleteProduct удаляет товар из каталога.
func (s *Service) DeleteProduct(id string) error {
	if err := s.products.Delete(id); err != nil {
		return err
	}
	s.logger.WithField("product_id", id).Info("product deleted")
	return nil
}

// LowStock возвращает товары с остатком ниже порога.
// Нулевой и отрицательный порог заменяется значением по умолчанию.
func (s *Service) LowStock(threshold int32) ([]domain.Product, error) {
	if threshold < 1 {
		threshold = defaultLowStockThreshold
	}
	return s.products.ListLowStock(threshold)
}
