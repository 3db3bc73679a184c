package memory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yuridenisov/oims/internal/domain"
	"github.com/yuridenisov/oims/internal/storage/memory"
)

func newProduct(id, name string, stock int32) domain.Product {
	now := time.Now().UTC()
	return domain.Product{
		ID:         id,
		Name:       name,
		Price:      decimal.NewFromFloat(9.99),
		StockCount: stock,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestProductRepository_CreateGet(t *testing.T) {
	repo := memory.NewProductRepository()
	product := newProduct("product-1", "Widget", 10)

	if err := repo.Create(product); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	stored, err := repo.Get(product.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.Name != product.Name {
		t.Fatalf("expected name %s, got %s", product.Name, stored.Name)
	}
}

func TestProductRepository_NameConflict(t *testing.T) {
	repo := memory.NewProductRepository()
	if err := repo.Create(newProduct("product-1", "Widget", 10)); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := repo.Create(newProduct("product-2", "Widget", 5)); !errors.Is(err, domain.ErrProductNameConflict) {
		t.Fatalf("expected ErrProductNameConflict, got %v", err)
	}

	// Save с чужим названием также отклоняется.
	other := newProduct("product-3", "Gadget", 1)
	if err := repo.Create(other); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	other.Name = "Widget"
	if err := repo.Save(other); !errors.Is(err, domain.ErrProductNameConflict) {
		t.Fatalf("expected ErrProductNameConflict on save, got %v", err)
	}
}

func TestProductRepository_AdjustStock(t *testing.T) {
	repo := memory.NewProductRepository()
	if err := repo.Create(newProduct("product-1", "Widget", 10)); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	updated, err := repo.AdjustStock("product-1", -4)
	if err != nil {
		t.Fatalf("adjust failed: %v", err)
	}
	if updated.StockCount != 6 {
		t.Fatalf("expected stock 6, got %d", updated.StockCount)
	}

	updated, err = repo.AdjustStock("product-1", 2)
	if err != nil {
		t.Fatalf("adjust failed: %v", err)
	}
	if updated.StockCount != 8 {
		t.Fatalf("expected stock 8, got %d", updated.StockCount)
	}
}

func TestProductRepository_AdjustStockInsufficient(t *testing.T) {
	repo := memory.NewProductRepository()
	if err := repo.Create(newProduct("product-1", "Widget", 3)); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err := repo.AdjustStock("product-1", -5)
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	var stockErr *domain.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected typed error, got %T", err)
	}
	if stockErr.Available != 3 || stockErr.Requested != 5 {
		t.Fatalf("unexpected error details: %+v", stockErr)
	}

	// сток не изменился
	stored, err := repo.Get("product-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.StockCount != 3 {
		t.Fatalf("expected stock untouched, got %d", stored.StockCount)
	}
}

func TestProductRepository_AdjustStockToZero(t *testing.T) {
	repo := memory.NewProductRepository()
	if err := repo.Create(newProduct("product-1", "Widget", 3)); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	updated, err := repo.AdjustStock("product-1", -3)
	if err != nil {
		t.Fatalf("adjust to zero must succeed: %v", err)
	}
	if updated.StockCount != 0 {
		t.Fatalf("expected stock 0, got %d", updated.StockCount)
	}
}

func TestProductRepository_ListLowStock(t *testing.T) {
	repo := memory.NewProductRepository()
	_ = repo.Create(newProduct("product-1", "Widget", 15))
	_ = repo.Create(newProduct("product-2", "Gadget", 3))
	_ = repo.Create(newProduct("product-3", "Sprocket", 7))

	low, err := repo.ListLowStock(10)
	if err != nil {
		t.Fatalf("list low stock failed: %v", err)
	}
	if len(low) != 2 {
		t.Fatalf("expected 2 products, got %d", len(low))
	}
	// меньший сток первым
	if low[0].ID != "product-2" || low[1].ID != "product-3" {
		t.Fatalf("unexpected order: %s, %s", low[0].ID, low[1].ID)
	}
}

func TestProductRepository_Delete(t *testing.T) {
	repo := memory.NewProductRepository()
	_ = repo.Create(newProduct("product-1", "Widget", 1))

	if err := repo.Delete("product-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := repo.Get("product-1"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if err := repo.Delete("product-1"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound for repeated delete, got %v", err)
	}
}
