package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserRepository описывает требования к хранилищу клиентов.
type UserRepository interface {
	// Create сохраняет нового клиента. Возвращает ErrPhoneConflict,
	// если телефон уже занят.
	Create(user User) error
	// Get возвращает клиента по идентификатору или ErrUserNotFound.
	Get(id string) (User, error)
	// GetByPhone ищет клиента по бизнес-ключу.
	GetByPhone(phone string) (User, error)
	// List возвращает всех клиентов, новые первыми.
	List() ([]User, error)
	// Save перезаписывает данные клиента, сохраняя уникальность телефона.
	Save(user User) error
	// Delete удаляет запись или возвращает ErrUserNotFound.
	Delete(id string) error
	// Count возвращает размер справочника.
	Count() (int, error)
}

// ProductRepository описывает требования к хранилищу каталога.
type ProductRepository interface {
	// Create сохраняет товар. Возвращает ErrProductNameConflict при дубле названия.
	Create(product Product) error
	// Get возвращает товар по идентификатору или ErrProductNotFound.
	Get(id string) (Product, error)
	// List возвращает каталог, новые первыми.
	List() ([]Product, error)
	// ListLowStock возвращает товары со стоком <= threshold, меньший сток первым.
	ListLowStock(threshold int32) ([]Product, error)
	// Save перезаписывает карточку товара.
	Save(product Product) error
	// Delete удаляет товар; исторические заказы хранят собственные снапшоты.
	Delete(id string) error
	// AdjustStock атомарно меняет сток на delta и возвращает обновлённый товар.
	// Для отрицательного delta операция условная: хранилище отклоняет
	// изменение, уводящее сток ниже нуля, ошибкой InsufficientStockError.
	AdjustStock(id string, delta int32) (Product, error)
	// Count возвращает размер каталога.
	Count() (int, error)
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ. Возвращает ErrOrderIDConflict,
	// если человекочитаемый номер уже занят (уникальный индекс).
	Create(order Order) error
	// GetByOrderID возвращает заказ по номеру или ErrOrderNotFound.
	GetByOrderID(orderID string) (Order, error)
	// List возвращает страницу заказов по фильтру и общее число совпадений
	// независимо от пагинации. Сортировка — по дате создания, новые первыми.
	List(filter OrderFilter, page, limit int) ([]Order, int, error)
	// Save перезаписывает заказ по номеру.
	Save(order Order) error
	// Delete удаляет заказ по номеру.
	Delete(orderID string) error
	// Count возвращает общее число заказов (основа генерации номера).
	Count() (int, error)
	// CountByUser возвращает число заказов клиента.
	CountByUser(userID string) (int, error)
	// Stats агрегирует счётчики статусов одним проходом по коллекции.
	Stats() (OrderStats, error)
	// SalesByProduct агрегирует продажи по позициям заказов за период.
	// Нулевые границы снимают ограничение.
	SalesByProduct(from, to time.Time) ([]ProductSales, error)
	// CustomerActivity агрегирует заказы по клиентам.
	CustomerActivity() ([]CustomerActivity, error)
	// RevenueBetween суммирует выручку исполненных заказов за период.
	RevenueBetween(from, to time.Time) (decimal.Decimal, error)
}
