package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/yuridenisov/oims/internal/domain"
)

type productRepository struct {
	db *sql.DB
}

// NewProductRepository создаёт PostgreSQL-реализацию ProductRepository.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepository{db: store.DB()}
}

func (r *productRepository) Create(product domain.Product) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (
			id, name, price, stock_count, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6)
	`,
		product.ID, product.Name, product.Price,
		product.StockCount, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, productsNameConstraint) {
			return domain.ErrProductNameConflict
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *productRepository) Get(id string) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var product domain.Product
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, price, stock_count, created_at, updated_at
		FROM products
		WHERE id = $1
	`, id).Scan(
		&product.ID, &product.Name, &product.Price,
		&product.StockCount, &product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}
	return product, nil
}

func (r *productRepository) List() ([]domain.Product, error) {
	return r.queryProducts(`
		SELECT id, name, price, stock_count, created_at, updated_at
		FROM products
		ORDER BY created_at DESC, id DESC
	`)
}

func (r *productRepository) ListLowStock(threshold int32) ([]domain.Product, error) {
	return r.queryProducts(`
		SELECT id, name, price, stock_count, created_at, updated_at
		FROM products
		WHERE stock_count <= $1
		ORDER BY stock_count ASC, id ASC
	`, threshold)
}

func (r *productRepository) Save(product domain.Product) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name = $1,
		    price = $2,
		    stock_count = $3,
		    updated_at = $4
		WHERE id = $5
	`,
		product.Name, product.Price, product.StockCount,
		product.UpdatedAt, product.ID,
	)
	if err != nil {
		if isUniqueViolation(err, productsNameConstraint) {
			return domain.ErrProductNameConflict
		}
		return fmt.Errorf("update product: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *productRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// AdjustStock выполняет атомарный условный апдейт: декремент применяется
// только если результат остаётся неотрицательным. Проверка и изменение —
// одна SQL-операция, гонка проверил-потом-записал исключена.
func (r *productRepository) AdjustStock(id string, delta int32) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var product domain.Product
	err := r.db.QueryRowContext(ctx, `
		UPDATE products
		SET stock_count = stock_count + $2,
		    updated_at = NOW()
		WHERE id = $1
		  AND stock_count + $2 >= 0
		RETURNING id, name, price, stock_count, created_at, updated_at
	`, id, delta).Scan(
		&product.ID, &product.Name, &product.Price,
		&product.StockCount, &product.CreatedAt, &product.UpdatedAt,
	)
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("adjust stock: %w", err)
	}

	// Условие не сработало: товара нет либо стока не хватает.
	current, getErr := r.Get(id)
	if getErr != nil {
		return domain.Product{}, getErr
	}
	return domain.Product{}, &domain.InsufficientStockError{
		ProductID:   current.ID,
		ProductName: current.Name,
		Available:   current.StockCount,
		Requested:   -delta,
	}
}

func (r *productRepository) Count() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}

func (r *productRepository) queryProducts(query string, args ...any) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(
			&product.ID, &product.Name, &product.Price,
			&product.StockCount, &product.CreatedAt, &product.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}

var _ domain.ProductRepository = (*productRepository)(nil)
