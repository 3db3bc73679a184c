package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/yuridenisov/oims/internal/domain"
)

func seedIntegrationProduct(t *testing.T, repo domain.ProductRepository, name, price string, stock int32) domain.Product {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	product := domain.Product{
		ID:         uuid.NewString(),
		Name:       name,
		Price:      decimal.RequireFromString(price),
		StockCount: stock,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, repo.Create(product))
	return product
}

func TestProductRepository_PostgresCreateGetAndConflict(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewProductRepository(store)

	product := seedIntegrationProduct(t, repo, "widget", "9.99", 8)

	got, err := repo.Get(product.ID)
	require.NoError(t, err)
	require.Equal(t, "widget", got.Name)
	require.True(t, got.Price.Equal(decimal.RequireFromString("9.99")))
	require.Equal(t, int32(8), got.StockCount)

	_, err = repo.Get(uuid.NewString())
	require.True(t, errors.Is(err, domain.ErrProductNotFound))

	dup := got
	dup.ID = uuid.NewString()
	require.True(t, errors.Is(repo.Create(dup), domain.ErrProductNameConflict))

	other := seedIntegrationProduct(t, repo, "gadget", "5", 3)
	other.Name = "widget"
	require.True(t, errors.Is(repo.Save(other), domain.ErrProductNameConflict))
}

func TestProductRepository_PostgresAdjustStock(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewProductRepository(store)

	product := seedIntegrationProduct(t, repo, "widget", "10", 5)

	got, err := repo.AdjustStock(product.ID, -3)
	require.NoError(t, err)
	require.Equal(t, int32(2), got.StockCount)

	// Декремент ниже нуля не проходит и не меняет остаток.
	_, err = repo.AdjustStock(product.ID, -5)
	require.True(t, errors.Is(err, domain.ErrInsufficientStock))

	var stockErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	require.Equal(t, product.ID, stockErr.ProductID)
	require.Equal(t, "widget", stockErr.ProductName)
	require.Equal(t, int32(2), stockErr.Available)
	require.Equal(t, int32(5), stockErr.Requested)

	got, err = repo.Get(product.ID)
	require.NoError(t, err)
	require.Equal(t, int32(2), got.StockCount)

	// Списание в ноль допустимо, возврат стока тоже.
	got, err = repo.AdjustStock(product.ID, -2)
	require.NoError(t, err)
	require.Equal(t, int32(0), got.StockCount)

	got, err = repo.AdjustStock(product.ID, 4)
	require.NoError(t, err)
	require.Equal(t, int32(4), got.StockCount)

	_, err = repo.AdjustStock(uuid.NewString(), -1)
	require.True(t, errors.Is(err, domain.ErrProductNotFound))
}

func TestProductRepository_PostgresListLowStock(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewProductRepository(store)

	seedIntegrationProduct(t, repo, "plenty", "10", 50)
	low := seedIntegrationProduct(t, repo, "low", "10", 4)
	lowest := seedIntegrationProduct(t, repo, "lowest", "10", 1)
	boundary := seedIntegrationProduct(t, repo, "boundary", "10", 10)

	products, err := repo.ListLowStock(10)
	require.NoError(t, err)
	require.Len(t, products, 3)
	require.Equal(t, lowest.ID, products[0].ID)
	require.Equal(t, low.ID, products[1].ID)
	require.Equal(t, boundary.ID, products[2].ID)

	all, err := repo.List()
	require.NoError(t, err)
	require.Len(t, all, 4)

	count, err := repo.Count()
	require.NoError(t, err)
	require.Equal(t, 4, count)
}

func TestProductRepository_PostgresSaveAndDelete(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewProductRepository(store)

	product := seedIntegrationProduct(t, repo, "widget", "10", 5)

	product.Price = decimal.RequireFromString("12.50")
	product.StockCount = 7
	product.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, repo.Save(product))

	got, err := repo.Get(product.ID)
	require.NoError(t, err)
	require.True(t, got.Price.Equal(decimal.RequireFromString("12.50")))
	require.Equal(t, int32(7), got.StockCount)

	missing := product
	missing.ID = uuid.NewString()
	missing.Name = "other"
	require.True(t, errors.Is(repo.Save(missing), domain.ErrProductNotFound))

	require.NoError(t, repo.Delete(product.ID))
	_, err = repo.Get(product.ID)
	require.True(t, errors.Is(err, domain.ErrProductNotFound))
	require.True(t, errors.Is(repo.Delete(product.ID), domain.ErrProductNotFound))
}
