// Package inventory реализует складской регистр: единственную точку,
// через которую жизненный цикл заказов меняет сток товаров.
package inventory

import (
	log "github.com/sirupsen/logrus"

	"github.com/yuridenisov/oims/internal/domain"
)

// Ledger владеет изменениями стока. Неотрицательность стока обеспечивает
// условный атомарный декремент хранилища, а не проверка в приложении.
type Ledger struct {
	products domain.ProductRepository
	logger   *log.Entry
}

// NewLedger создаёт регистр поверх репозитория каталога.
func NewLedger(products domain.ProductRepository, logger *log.Entry) *Ledger {
	if logger == nil {
		logger = log.New().WithField("component", "inventory")
	}
	return &Ledger{
		products: products,
		logger:   logger,
	}
}

// Reserve списывает quantity единиц товара под заказ.
// Возвращает InsufficientStockError, если стока не хватает,
// и обновлённую карточку товара при успехе.
func (l *Ledger) Reserve(productID string, quantity int32) (domain.Product, error) {
	if quantity < 1 {
		return domain.Product{}, domain.NewValidationError([]error{domain.ErrLineQuantityInvalid})
	}

	product, err := l.products.AdjustStock(productID, -quantity)
	if err != nil {
		return domain.Product{}, err
	}

	l.logger.WithFields(log.Fields{
		"product_id": productID,
		"quantity":   quantity,
		"stock":      product.StockCount,
	}).Debug("stock reserved")
	return product, nil
}

// Release возвращает quantity единиц товара на склад. Верхней границы нет:
// операция обращает ранее выполненное списание.
func (l *Ledger) Release(productID string, quantity int32) error {
	if quantity < 1 {
		return domain.NewValidationError([]error{domain.ErrLineQuantityInvalid})
	}

	product, err := l.products.AdjustStock(productID, quantity)
	if err != nil {
		return err
	}

	l.logger.WithFields(log.Fields{
		"product_id": productID,
		"quantity":   quantity,
		"stock":      product.StockCount,
	}).Debug("stock released")
	return nil
}
