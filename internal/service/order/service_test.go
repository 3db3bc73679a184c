package order

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yuridenisov/oims/internal/domain"
	"github.com/yuridenisov/oims/internal/service/inventory"
	"github.com/yuridenisov/oims/internal/storage/memory"
)

type fixture struct {
	users    domain.UserRepository
	products domain.ProductRepository
	orders   domain.OrderRepository
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	users := memory.NewUserRepository()
	products := memory.NewProductRepository()
	orders := memory.NewOrderRepository()
	ledger := inventory.NewLedger(products, nil)
	svc := NewServiceWithoutMetrics(orders, products, users, ledger, nil)

	return &fixture{users: users, products: products, orders: orders, svc: svc}
}

func (f *fixture) seedUser(t *testing.T, id, phone string) domain.User {
	t.Helper()

	now := time.Now().UTC()
	user := domain.User{
		ID:        id,
		FirstName: "Ivan",
		LastName:  "Petrov",
		Phone:     phone,
		Address:   "Moscow",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := f.users.Create(user); err != nil {
		t.Fatalf("seed user failed: %v", err)
	}
	return user
}

func (f *fixture) seedProduct(t *testing.T, id, name string, price int64, stock int32) domain.Product {
	t.Helper()

	now := time.Now().UTC()
	product := domain.Product{
		ID:         id,
		Name:       name,
		Price:      decimal.NewFromInt(price),
		StockCount: stock,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := f.products.Create(product); err != nil {
		t.Fatalf("seed product failed: %v", err)
	}
	return product
}

func (f *fixture) stock(t *testing.T, productID string) int32 {
	t.Helper()

	product, err := f.products.Get(productID)
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	return product.StockCount
}

func TestCreateOrder(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "user-1", "+79160000001")
	f.seedProduct(t, "product-1", "Widget", 10, 8)
	f.seedProduct(t, "product-2", "Gadget", 3, 5)

	created, err := f.svc.CreateOrder(CreateOrderInput{
		UserID: "user-1",
		Lines: []LineInput{
			{ProductID: "product-1", Quantity: 2},
			{ProductID: "product-2", Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if created.Status != domain.OrderStatusPending {
		t.Fatalf("expected Pending, got %s", created.Status)
	}
	if !strings.HasPrefix(created.OrderID, "ORD-") {
		t.Fatalf("unexpected order id: %s", created.OrderID)
	}
	if !created.TotalAmount.Equal(decimal.NewFromInt(23)) {
		t.Fatalf("expected total 23, got %s", created.TotalAmount)
	}
	if f.stock(t, "product-1") != 6 || f.stock(t, "product-2") != 4 {
		t.Fatal("stock must be reserved for every line")
	}

	stored, err := f.orders.GetByOrderID(created.OrderID)
	if err != nil {
		t.Fatalf("order not persisted: %v", err)
	}
	if len(stored.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(stored.Lines))
	}
	// снапшот цены и названия
	if stored.Lines[0].Name != "Widget" || !stored.Lines[0].PriceAtOrder.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("line snapshot missing: %+v", stored.Lines[0])
	}
}

func TestCreateOrder_PriceSnapshotSurvivesProductEdit(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "user-1", "+79160000001")
	product := f.seedProduct(t, "product-1", "Widget", 10, 8)

	created, err := f.svc.CreateOrder(CreateOrderInput{
		UserID: "user-1",
		Lines:  []LineInput{{ProductID: "product-1", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	product.Price = decimal.NewFromInt(99)
	product.Name = "Widget v2"
	if err := f.products.Save(product); err != nil {
		t.Fatalf("save product failed: %v", err)
	}

	stored, _ := f.orders.GetByOrderID(created.OrderID)
	if !stored.Lines[0].PriceAtOrder.Equal(decimal.NewFromInt(10)) || stored.Lines[0].Name != "Widget" {
		t.Fatalf("snapshot must not follow product edits: %+v", stored.Lines[0])
	}
	if !stored.TotalAmount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("total must stay at snapshot price, got %s", stored.TotalAmount)
	}
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "user-1", "+79160000001")
	f.seedProduct(t, "product-1", "Widget", 10, 2)

	_, err := f.svc.CreateOrder(CreateOrderInput{
		UserID: "user-1",
		Lines:  []LineInput{{ProductID: "product-1", Quantity: 5}},
	})
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	var stockErr *domain.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected typed error, got %T", err)
	}
	if stockErr.Available != 2 || stockErr.Requested != 5 {
		t.Fatalf("unexpected details: %+v", stockErr)
	}
	if f.stock(t, "product-1") != 2 {
		t.Fatal("stock must be untouched after rejection")
	}
	if count, _ := f.orders.Count(); count != 0 {
		t.Fatal("no order must be persisted")
	}
}

func TestCreateOrder_RollbackOnPartialFailure(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "user-1", "+79160000001")
	f.seedProduct(t, "product-1", "Widget", 10, 8)
	f.seedProduct(t, "product-2", "Gadget", 3, 1)

	_, err := f.svc.CreateOrder(CreateOrderInput{
		UserID: "user-1",
		Lines: []LineInput{
			{ProductID: "product-1", Quantity: 2},
			{ProductID: "product-2", Quantity: 4},
		},
	})
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	// резерв первой позиции откатывается
	if f.stock(t, "product-1") != 8 || f.stock(t, "product-2") != 1 {
		t.Fatalf("expected full rollback, got %d/%d", f.stock(t, "product-1"), f.stock(t, "product-2"))
	}
}

func TestCreateOrder_UnknownProduct(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "user-1", "+79160000001")

	_, err := f.svc.CreateOrder(CreateOrderInput{
		UserID: "user-1",
		Lines:  []LineInput{{ProductID: "missing", Quantity: 1}},
	})
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestCreateOrder_UnknownUser(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "product-1", "Widget", 10, 8)

	_, err := f.svc.CreateOrder(CreateOrderInput{
		UserID: "missing",
		Lines:  []LineInput{{ProductID: "product-1", Quantity: 1}},
	})
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if f.stock(t, "product-1") != 8 {
		t.Fatal("stock must be untouched")
	}
}

func TestCreateOrder_ValidationErrors(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "user-1", "+79160000001")
	f.seedProduct(t, "product-1", "Widget", 10, 8)

	_, err := f.svc.CreateOrder(CreateOrderInput{UserID: "user-1"})
	if !errors.Is(err, domain.ErrLinesRequired) {
		t.Fatalf("expected ErrLinesRequired, got %v", err)
	}

	_, err = f.svc.CreateOrder(CreateOrderInput{
		UserID: "user-1",
		Lines:  []LineInput{{ProductID: "product-1", Quantity: 0}},
	})
	if !errors.Is(err, domain.ErrLineQuantityInvalid) {
		t.Fatalf("expected ErrLineQuantityInvalid, got %v", err)
	}

	_, err = f.svc.CreateOrder(CreateOrderInput{
		Lines: []LineInput{{ProductID: "product-1", Quantity: 1}},
	})
	if !errors.Is(err, domain.ErrUserIDRequired) {
		t.Fatalf("expected ErrUserIDRequired, got %v", err)
	}
}

func TestCreateOrder_CustomerUpsert(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "product-1", "Widget", 10, 8)

	customer := &CustomerInput{
		FirstName: "Anna",
		LastName:  "Ivanova",
		Phone:     "+79160000002",
		Address:   "Kazan",
	}

	first, err := f.svc.CreateOrder(CreateOrderInput{
		Customer: customer,
		Lines:    []LineInput{{ProductID: "product-1", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if count, _ := f.users.Count(); count != 1 {
		t.Fatalf("expected new user, got count %d", count)
	}

	// повторный заказ с тем же телефоном использует существующего клиента
	second, err := f.svc.CreateOrder(CreateOrderInput{
		Customer: customer,
		Lines:    []LineInput{{ProductID: "product-1", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if count, _ := f.users.Count(); count != 1 {
		t.Fatalf("expected no duplicate user, got count %d", count)
	}
	if first.UserID != second.UserID {
		t.Fatal("both orders must reference the same user")
	}
}

func TestCreateOrder_UniqueOrderIDs(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "user-1", "+79160000001")
	f.seedProduct(t, "product-1", "Widget", 10, 100)

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		created, err := f.svc.CreateOrder(CreateOrderInput{
			UserID: "user-1",
			Lines:  []LineInput{{ProductID: "product-1", Quantity: 1}},
		})
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if seen[created.OrderID] {
			t.Fatalf("duplicate order id %s", created.OrderID)
		}
		seen[created.OrderID] = true
	}
}

func TestUpdateStatus_Progression(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "user-1", "+79160000001")
	f.seedProduct(t, "product-1", "Widget", 10, 8)

	created, _ := f.svc.CreateOrder(CreateOrderInput{
		UserID: "user-1",
		Lines:  []LineInput{{ProductID: "product-1", Quantity: 2}},
	})

	updated, err := f.svc.UpdateStatus(created.OrderID, domain.OrderStatusInProgress, "")
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Status != domain.OrderStatusInProgress {
		t.Fatalf("expected In Progress, got %s", updated.Status)
	}
	if f.stock(t, "product-1") != 6 {
		t.Fatal("progression must not touch stock")
	}

	updated, err = f.svc.UpdateStatus(created.OrderID, domain.OrderStatusComplete, "")
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Status != domain.OrderStatusComplete {
		t.Fatalf("expected Complete, got %s", updated.Status)
	}
}

func TestUpdateStatus_CancelRestoresStock(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "user-1", "+79160000001")
	f.seedProduct(t, "product-1", "Widget", 10, 8)

	created, _ := f.svc.CreateOrder(CreateOrderInput{
		UserID: "user-1",
		Lines:  []LineInput{{ProductID: "product-1", Quantity: 3}},
	})
	if f.stock(t, "product-1") != 5 {
		t.Fatal("stock must be reserved")
	}

	updated, err := f.svc.UpdateStatus(created.OrderID, domain.OrderStatusCancelled, "customer changed mind")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if updated.ReturnReason != "customer changed mind" {
		t.Fatalf("expected reason stored, got %q", updated.ReturnReason)
	}
	if f.stock(t, "product-1") != 8 {
		t.Fatalf("expected stock restored to 8, got %d", f.stock(t, "product-1"))
	}
}

func TestUpdateStatus_NoDoubleRestore(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "user-1", "+79160000001")
	f.seedProduct(t, "product-1", "Widget", 10, 8)

	created, _ := f.svc.CreateOrder(CreateOrderInput{
		UserID: "user-1",
		Lines:  []LineInput{{ProductID: "product-1", Quantity: 3}},
	})

	if _, err := f.svc.UpdateStatus(created.OrderID, domain.OrderStatusCancelled, "mistake"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	// Cancelled -> Returned: сток уже восстановлен, второй раз не трогаем
	if _, err := f.svc.UpdateStatus(created.OrderID, domain.OrderStatusReturned, "still returning"); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if f.stock(t, "product-1") != 8 {
		t.Fatalf("stock must not be restored twice, got %d", f.stock(t, "product-1"))
	}
}

func TestUpdateStatus_ReasonRequired(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "user-1", "+79160000001")
	f.seedProduct(t, "product-1", "Widget", 10, 8)

	created, _ := f.svc.CreateOrder(CreateOrderInput{
		UserID: "user-1",
		Lines:  []LineInput{{ProductID: "product-1", Quantity: 1}},
	})

	_, err := f.svc.UpdateStatus(created.OrderID, domain.OrderStatusReturned, "")
	if !errors.Is(err, domain.ErrReturnReasonRequired) {
		t.Fatalf("expected ErrReturnReasonRequired, got %v", err)
	}
	// заказ не изменился
	stored, _ := f.orders.GetByOrderID(created.OrderID)
	if stored.Status != domain.OrderStatusPending {
		t.Fatalf("status must stay Pending, got %s", stored.Status)
	}
}

func TestUpdateStatus_ReasonClearedOnLeaving(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "user-1", "+79160000001")
	f.seedProduct(t, "product-1", "Widget", 10, 8)

	created, _ := f.svc.CreateOrder(CreateOrderInput{
		UserID: "user-1",
		Lines:  []LineInput{{ProductID: "product-1", Quantity: 1}},
	})
	_, _ = f.svc.UpdateStatus(created.OrderID, domain.OrderStatusCancelled, "mistake")

	updated, err := f.svc.UpdateStatus(created.OrderID, domain.OrderStatusPending, "")
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.ReturnReason != "" {
		t.Fatalf("reason must be cleared, got %q", updated.ReturnReason)
	}
}

func TestUpdateStatus_InvalidStatus(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UpdateStatus("ORD-x", "Shipped", "")
	if !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestUpdateStatus_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UpdateStatus("ORD-missing", domain.OrderStatusComplete, "")
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestDeleteOrder_PendingOnly(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "user-1", "+79160000001")
	f.seedProduct(t, "product-1", "Widget", 10, 8)

	created, _ := f.svc.CreateOrder(CreateOrderInput{
		UserID: "user-1",
		Lines:  []LineInput{{ProductID: "product-1", Quantity: 3}},
	})

	if err := f.svc.DeleteOrder(created.OrderID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if f.stock(t, "product-1") != 8 {
		t.Fatalf("stock must be restored on delete, got %d", f.stock(t, "product-1"))
	}
	if _, err := f.orders.GetByOrderID(created.OrderID); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatal("order must be removed")
	}
}

func TestDeleteOrder_RejectsNonPending(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "user-1", "+79160000001")
	f.seedProduct(t, "product-1", "Widget", 10, 8)

	created, _ := f.svc.CreateOrder(CreateOrderInput{
		UserID: "user-1",
		Lines:  []LineInput{{ProductID: "product-1", Quantity: 3}},
	})
	_, _ = f.svc.UpdateStatus(created.OrderID, domain.OrderStatusInProgress, "")

	err := f.svc.DeleteOrder(created.OrderID)
	if !errors.Is(err, domain.ErrOrderNotPending) {
		t.Fatalf("expected ErrOrderNotPending, got %v", err)
	}
	if f.stock(t, "product-1") != 5 {
		t.Fatal("stock must be untouched on rejected delete")
	}
	if _, err := f.orders.GetByOrderID(created.OrderID); err != nil {
		t.Fatal("order must survive rejected delete")
	}
}

func TestList_Paging(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "user-1", "+79160000001")
	f.seedProduct(t, "product-1", "Widget", 10, 100)

	for i := 0; i < 7; i++ {
		if _, err := f.svc.CreateOrder(CreateOrderInput{
			UserID: "user-1",
			Lines:  []LineInput{{ProductID: "product-1", Quantity: 1}},
		}); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	page, err := f.svc.List(domain.OrderFilter{}, 1, 3)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if page.Total != 7 || page.TotalPages != 3 || len(page.Orders) != 3 {
		t.Fatalf("unexpected page: total=%d pages=%d len=%d", page.Total, page.TotalPages, len(page.Orders))
	}

	// значения по умолчанию
	page, err = f.svc.List(domain.OrderFilter{}, 0, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if page.Page != 1 || page.Limit != 10 {
		t.Fatalf("expected defaults page=1 limit=10, got %d/%d", page.Page, page.Limit)
	}
}

func TestList_InvalidFilter(t *testing.T) {
	f := newFixture(t)

	early := time.Now().UTC()
	late := early.Add(time.Hour)
	_, err := f.svc.List(domain.OrderFilter{CreatedFrom: &late, CreatedTo: &early}, 1, 10)
	if !errors.Is(err, domain.ErrDateRangeInvalid) {
		t.Fatalf("expected ErrDateRangeInvalid, got %v", err)
	}
}

func TestUserOrders(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "user-1", "+79160000001")
	f.seedUser(t, "user-2", "+79160000002")
	f.seedProduct(t, "product-1", "Widget", 10, 100)

	for _, userID := range []string{"user-1", "user-1", "user-2"} {
		if _, err := f.svc.CreateOrder(CreateOrderInput{
			UserID: userID,
			Lines:  []LineInput{{ProductID: "product-1", Quantity: 1}},
		}); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	page, err := f.svc.UserOrders("user-1", 1, 10)
	if err != nil {
		t.Fatalf("user orders failed: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("expected 2 orders, got %d", page.Total)
	}

	if _, err := f.svc.UserOrders("missing", 1, 10); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestProductOrders(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "user-1", "+79160000001")
	f.seedProduct(t, "product-1", "Widget", 10, 100)
	f.seedProduct(t, "product-2", "Gadget", 5, 100)

	for _, productID := range []string{"product-1", "product-1", "product-2"} {
		if _, err := f.svc.CreateOrder(CreateOrderInput{
			UserID: "user-1",
			Lines:  []LineInput{{ProductID: productID, Quantity: 1}},
		}); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	page, err := f.svc.ProductOrders("product-1", 1, 10)
	if err != nil {
		t.Fatalf("product orders failed: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("expected 2 orders, got %d", page.Total)
	}
	for _, order := range page.Orders {
		if order.Lines[0].ProductID != "product-1" {
			t.Fatalf("unexpected order in history: %+v", order)
		}
	}

	if _, err := f.svc.ProductOrders("missing", 1, 10); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "user-1", "+79160000001")
	f.seedProduct(t, "product-1", "Widget", 10, 100)

	first, _ := f.svc.CreateOrder(CreateOrderInput{
		UserID: "user-1",
		Lines:  []LineInput{{ProductID: "product-1", Quantity: 1}},
	})
	_, _ = f.svc.CreateOrder(CreateOrderInput{
		UserID: "user-1",
		Lines:  []LineInput{{ProductID: "product-1", Quantity: 1}},
	})
	_, _ = f.svc.UpdateStatus(first.OrderID, domain.OrderStatusComplete, "")

	stats, err := f.svc.Stats()
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.Total != 2 || stats.Pending != 1 || stats.Completed != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
