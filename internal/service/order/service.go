// Package order реализует жизненный цикл заказа: создание с резервированием
// стока, смену статусов с восстановлением стока и строгую политику удаления.
package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/yuridenisov/oims/internal/domain"
	"github.com/yuridenisov/oims/internal/messaging/kafka"
	"github.com/yuridenisov/oims/internal/metrics"
	"github.com/yuridenisov/oims/internal/service/inventory"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100

	// Номер заказа опирается на уникальный индекс хранилища:
	// при конфликте генерация повторяется с пересчитанной последовательностью.
	orderIDAttempts = 3
)

// Service оркестрирует операции над заказами поверх каталога,
// справочника клиентов и складского регистра.
type Service struct {
	orders   domain.OrderRepository
	products domain.ProductRepository
	users    domain.UserRepository
	ledger   *inventory.Ledger
	producer *kafka.Producer // опциональный producer событий заказов
	metrics  *metrics.OrderMetrics
	logger   *log.Entry
}

// NewService создаёт рабочий экземпляр сервиса заказов.
func NewService(
	orders domain.OrderRepository,
	products domain.ProductRepository,
	users domain.UserRepository,
	ledger *inventory.Ledger,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "order-service")
	}
	return &Service{
		orders:   orders,
		products: products,
		users:    users,
		ledger:   ledger,
		logger:   logger,
		metrics:  metrics.NewOrderMetrics(),
	}
}

// NewServiceWithKafka создаёт сервис с Kafka producer для публикации событий.
func NewServiceWithKafka(
	orders domain.OrderRepository,
	products domain.ProductRepository,
	users domain.UserRepository,
	ledger *inventory.Ledger,
	producer *kafka.Producer,
	logger *log.Entry,
) *Service {
	svc := NewService(orders, products, users, ledger, logger)
	svc.producer = producer
	return svc
}

// NewServiceWithoutMetrics создаёт сервис без метрик (для тестов).
func NewServiceWithoutMetrics(
	orders domain.OrderRepository,
	products domain.ProductRepository,
	users domain.UserRepository,
	ledger *inventory.Ledger,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "order-service")
	}
	return &Service{
		orders:   orders,
		products: products,
		users:    users,
		ledger:   ledger,
		logger:   logger,
	}
}

// LineInput — входная позиция заказа.
type LineInput struct {
	ProductID string
	Quantity  int32
}

// CustomerInput — данные клиента для upsert по телефону.
type CustomerInput struct {
	FirstName string
	LastName  string
	Phone     string
	Email     string
	Address   string
}

// CreateOrderInput — запрос на создание заказа: либо ссылка на клиента,
// либо данные для поиска/создания клиента по телефону.
type CreateOrderInput struct {
	UserID   string
	Customer *CustomerInput
	Lines    []LineInput
}

// CreateOrder создаёт заказ: фиксирует цены и названия товаров,
// резервирует сток по каждой позиции и генерирует уникальный номер.
// Операция атомарна на уровне бизнес-правил: отказ по любой позиции
// откатывает уже выполненные резервы.
func (s *Service) CreateOrder(input CreateOrderInput) (domain.Order, error) {
	start := time.Now()
	defer s.recordDuration("create", start)

	if errs := validateLineInputs(input.Lines); len(errs) > 0 {
		return domain.Order{}, domain.NewValidationError(errs)
	}

	user, err := s.resolveUser(input)
	if err != nil {
		return domain.Order{}, err
	}

	// Сначала проверяем все позиции, чтобы не трогать сток заведомо
	// невыполнимого заказа. Авторитетная проверка остаётся за условным
	// декрементом: между проходами сток может измениться.
	for _, line := range input.Lines {
		product, err := s.products.Get(line.ProductID)
		if err != nil {
			return domain.Order{}, err
		}
		if line.Quantity > product.StockCount {
			s.recordStockRejected()
			return domain.Order{}, &domain.InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Available:   product.StockCount,
				Requested:   line.Quantity,
			}
		}
	}

	lines, err := s.reserveLines(input.Lines)
	if err != nil {
		return domain.Order{}, err
	}

	now := time.Now().UTC()
	order := domain.Order{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Lines:     lines,
		Status:    domain.OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	order.TotalAmount = order.ComputeTotal()

	if err := s.persistWithFreshOrderID(&order); err != nil {
		s.releaseLines(order.Lines)
		return domain.Order{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordOrderCreated()
	}
	s.publishEvent(kafka.EventTypeOrderCreated, &order, nil)

	s.logger.WithFields(log.Fields{
		"order_id": order.OrderID,
		"user_id":  order.UserID,
		"total":    order.TotalAmount.String(),
		"lines":    len(order.Lines),
	}).Info("order created")
	return order, nil
}

// UpdateStatus переводит заказ в новый статус. Переход в Returned/Cancelled
// требует причину и восстанавливает сток, но только если заказ ещё не был
// в одном из этих статусов — повторное переключение между ними сток не трогает.
func (s *Service) UpdateStatus(orderID string, newStatus domain.OrderStatus, returnReason string) (domain.Order, error) {
	start := time.Now()
	defer s.recordDuration("update_status", start)

	if !domain.IsValidStatus(newStatus) {
		return domain.Order{}, domain.NewValidationError([]error{domain.ErrInvalidStatus})
	}
	if newStatus.RestoresStock() && returnReason == "" {
		return domain.Order{}, domain.NewValidationError([]error{domain.ErrReturnReasonRequired})
	}

	order, err := s.orders.GetByOrderID(orderID)
	if err != nil {
		return domain.Order{}, err
	}

	if newStatus.RestoresStock() && !order.Status.RestoresStock() {
		s.releaseLines(order.Lines)
	}

	order.Status = newStatus
	if newStatus.RestoresStock() {
		order.ReturnReason = returnReason
	} else {
		// Причина существует только вместе со статусом, который её требует.
		order.ReturnReason = ""
	}
	order.UpdatedAt = time.Now().UTC()

	if errs := order.ValidateInvariants(); len(errs) > 0 {
		return domain.Order{}, domain.NewValidationError(errs)
	}
	if err := s.orders.Save(order); err != nil {
		s.logger.WithError(err).WithField("order_id", orderID).Error("failed to persist status")
		return domain.Order{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordStatusChange(string(newStatus))
	}
	s.publishEvent(kafka.EventTypeOrderStatusChanged, &order, map[string]interface{}{
		"return_reason": order.ReturnReason,
	})

	s.logger.WithFields(log.Fields{
		"order_id": order.OrderID,
		"status":   order.Status,
	}).Info("order status updated")
	return order, nil
}

// DeleteOrder удаляет заказ безвозвратно. Разрешены только заказы в статусе
// Pending; их резерв возвращается на склад перед удалением.
func (s *Service) DeleteOrder(orderID string) error {
	start := time.Now()
	defer s.recordDuration("delete", start)

	order, err := s.orders.GetByOrderID(orderID)
	if err != nil {
		return err
	}
	if order.Status != domain.OrderStatusPending {
		return domain.NewValidationError([]error{domain.ErrOrderNotPending})
	}

	s.releaseLines(order.Lines)

	if err := s.orders.Delete(orderID); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.RecordOrderDeleted()
	}
	s.publishEvent(kafka.EventTypeOrderDeleted, &order, nil)

	s.logger.WithField("order_id", orderID).Info("pending order deleted")
	return nil
}

// GetOrder возвращает заказ по номеру.
func (s *Service) GetOrder(orderID string) (domain.Order, error) {
	return s.orders.GetByOrderID(orderID)
}

// List возвращает страницу заказов по фильтру.
func (s *Service) List(filter domain.OrderFilter, page, limit int) (domain.OrderPage, error) {
	if errs := filter.Validate(); len(errs) > 0 {
		return domain.OrderPage{}, domain.NewValidationError(errs)
	}

	page, limit = normalizePaging(page, limit)
	orders, total, err := s.orders.List(filter, page, limit)
	if err != nil {
		return domain.OrderPage{}, err
	}

	return domain.OrderPage{
		Orders:     orders,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}, nil
}

// UserOrders возвращает страницу заказов одного клиента.
func (s *Service) UserOrders(userID string, page, limit int) (domain.OrderPage, error) {
	if _, err := s.users.Get(userID); err != nil {
		return domain.OrderPage{}, err
	}
	return s.List(domain.OrderFilter{UserID: userID}, page, limit)
}

// ProductOrders возвращает страницу заказов, в позициях которых встречается товар.
func (s *Service) ProductOrders(productID string, page, limit int) (domain.OrderPage, error) {
	if _, err := s.products.Get(productID); err != nil {
		return domain.OrderPage{}, err
	}
	return s.List(domain.OrderFilter{ProductID: productID}, page, limit)
}

// Stats возвращает счётчики заказов по статусам.
func (s *Service) Stats() (domain.OrderStats, error) {
	return s.orders.Stats()
}

// resolveUser возвращает клиента по ссылке либо делает upsert по телефону.
func (s *Service) resolveUser(input CreateOrderInput) (domain.User, error) {
	if input.UserID != "" {
		return s.users.Get(input.UserID)
	}
	if input.Customer == nil {
		return domain.User{}, domain.NewValidationError([]error{domain.ErrUserIDRequired})
	}

	existing, err := s.users.GetByPhone(input.Customer.Phone)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, err
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:        uuid.NewString(),
		FirstName: input.Customer.FirstName,
		LastName:  input.Customer.LastName,
		Phone:     input.Customer.Phone,
		Email:     input.Customer.Email,
		Address:   input.Customer.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if errs := user.Validate(); len(errs) > 0 {
		return domain.User{}, domain.NewValidationError(errs)
	}
	if err := s.users.Create(user); err != nil {
		if errors.Is(err, domain.ErrPhoneConflict) {
			// Конкурентный create успел первым: телефон уже есть, перечитываем.
			return s.users.GetByPhone(input.Customer.Phone)
		}
		return domain.User{}, err
	}
	return user, nil
}

// reserveLines резервирует сток по каждой позиции, фиксируя снапшот цены
// и названия. Отказ на i-й позиции откатывает резервы позиций 0..i-1.
func (s *Service) reserveLines(inputs []LineInput) ([]domain.OrderLine, error) {
	lines := make([]domain.OrderLine, 0, len(inputs))
	for _, in := range inputs {
		product, err := s.ledger.Reserve(in.ProductID, in.Quantity)
		if err != nil {
			s.releaseLines(lines)
			if errors.Is(err, domain.ErrInsufficientStock) {
				s.recordStockRejected()
			}
			return nil, err
		}
		lines = append(lines, domain.OrderLine{
			ProductID:    product.ID,
			Quantity:     in.Quantity,
			PriceAtOrder: product.Price,
			Name:         product.Name,
		})
	}
	return lines, nil
}

// releaseLines возвращает сток всех позиций. Ошибки отдельных позиций
// логируются и не прерывают восстановление остальных.
func (s *Service) releaseLines(lines []domain.OrderLine) {
	for _, line := range lines {
		if err := s.ledger.Release(line.ProductID, line.Quantity); err != nil {
			s.logger.WithError(err).WithFields(log.Fields{
				"product_id": line.ProductID,
				"quantity":   line.Quantity,
			}).Warn("stock release failed")
			continue
		}
		if s.metrics != nil {
			s.metrics.RecordStockReleased()
		}
	}
}

// persistWithFreshOrderID генерирует номер и сохраняет заказ, повторяя
// попытку при нарушении уникального индекса номера.
func (s *Service) persistWithFreshOrderID(order *domain.Order) error {
	for attempt := 0; attempt < orderIDAttempts; attempt++ {
		count, err := s.orders.Count()
		if err != nil {
			return err
		}
		order.OrderID = fmt.Sprintf("ORD-%d-%04d", time.Now().UnixMilli(), count+1)

		if errs := order.ValidateInvariants(); len(errs) > 0 {
			return domain.NewValidationError(errs)
		}

		err = s.orders.Create(*order)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrOrderIDConflict) {
			s.logger.WithError(err).Error("failed to persist order")
			return err
		}
		s.logger.WithFields(log.Fields{
			"order_id": order.OrderID,
			"attempt":  attempt + 1,
		}).Warn("order id conflict, regenerating")
	}
	return domain.ErrOrderIDConflict
}

func (s *Service) publishEvent(eventType kafka.EventType, order *domain.Order, metadata map[string]interface{}) {
	if s.producer == nil {
		return
	}

	event := kafka.NewOrderEvent(eventType, order.OrderID, order.UserID, string(order.Status), metadata)
	if err := s.producer.PublishEvent(kafka.TopicOrderEvents, order.OrderID, event); err != nil {
		// Kafka опционален: ошибку логируем, операцию не прерываем.
		s.logger.WithError(err).WithFields(log.Fields{
			"event_type": eventType,
			"order_id":   order.OrderID,
		}).Warn("failed to publish order event to kafka")
	}
}

func (s *Service) recordDuration(operation string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordOperationDuration(operation, time.Since(start))
	}
}

func (s *Service) recordStockRejected() {
	if s.metrics != nil {
		s.metrics.RecordStockRejected()
	}
}

func validateLineInputs(lines []LineInput) []error {
	var errs []error
	if len(lines) == 0 {
		errs = append(errs, domain.ErrLinesRequired)
	}
	for _, line := range lines {
		if line.ProductID == "" {
			errs = append(errs, domain.ErrLineProductRequired)
		}
		if line.Quantity < 1 {
			errs = append(errs, domain.ErrLineQuantityInvalid)
		}
	}
	return errs
}

func normalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}
