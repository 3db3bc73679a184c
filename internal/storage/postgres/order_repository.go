package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yuridenisov/oims/internal/domain"
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

func (r *orderRepository) Create(order domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, order_id, user_id, status, return_reason, total_amount, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		order.ID, order.OrderID, order.UserID, string(order.Status),
		order.ReturnReason, order.TotalAmount, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, ordersOrderIDConstraint) {
			return domain.ErrOrderIDConflict
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for i, line := range order.Lines {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO order_lines (
				order_id, line_no, product_id, quantity, price_at_order, name
			) VALUES ($1,$2,$3,$4,$5,$6)
		`,
			order.ID, i+1, line.ProductID, line.Quantity, line.PriceAtOrder, line.Name,
		); err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create order: %w", err)
	}
	return nil
}

func (r *orderRepository) GetByOrderID(orderID string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var order domain.Order
	var status string

	err := r.db.QueryRowContext(ctx, `
		SELECT id, order_id, user_id, status, return_reason, total_amount, created_at, updated_at
		FROM orders
		WHERE order_id = $1
	`, orderID).Scan(
		&order.ID, &order.OrderID, &order.UserID, &status,
		&order.ReturnReason, &order.TotalAmount, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}
	order.Status = domain.OrderStatus(status)

	lines, err := r.loadLines(ctx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Lines = lines
	return order, nil
}

func (r *orderRepository) List(filter domain.OrderFilter, page, limit int) ([]domain.Order, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	where, args := buildOrderFilter(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM orders` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	pageQuery := `
		SELECT id, order_id, user_id, status, return_reason, total_amount, created_at, updated_at
		FROM orders` + where + fmt.Sprintf(`
		ORDER BY created_at DESC, order_id DESC
		LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, (page-1)*limit)

	rows, err := r.db.QueryContext(ctx, pageQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, limit)
	for rows.Next() {
		var order domain.Order
		var status string
		if err := rows.Scan(
			&order.ID, &order.OrderID, &order.UserID, &status,
			&order.ReturnReason, &order.TotalAmount, &order.CreatedAt, &order.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}
		order.Status = domain.OrderStatus(status)
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	for i := range orders {
		lines, err := r.loadLines(ctx, orders[i].ID)
		if err != nil {
			return nil, 0, err
		}
		orders[i].Lines = lines
	}
	return orders, total, nil
}

// buildOrderFilter собирает WHERE-часть по конъюнктивному предикату.
func buildOrderFilter(filter domain.OrderFilter) (string, []any) {
	conds := make([]string, 0, 4)
	args := make([]any, 0, 8)

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != "" {
		conds = append(conds, "status = "+arg(string(filter.Status)))
	}
	if filter.UserID != "" {
		conds = append(conds, "user_id = "+arg(filter.UserID))
	}
	if filter.ProductID != "" {
		conds = append(conds, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM order_lines ol
			WHERE ol.order_id = orders.id AND ol.product_id = %s
		)`, arg(filter.ProductID)))
	}
	if filter.CreatedFrom != nil {
		conds = append(conds, "created_at >= "+arg(*filter.CreatedFrom))
	}
	if filter.CreatedTo != nil {
		conds = append(conds, "created_at <= "+arg(*filter.CreatedTo))
	}
	if filter.MinAmount != nil {
		conds = append(conds, "total_amount >= "+arg(*filter.MinAmount))
	}
	if filter.MaxAmount != nil {
		conds = append(conds, "total_amount <= "+arg(*filter.MaxAmount))
	}
	if filter.Search != "" {
		pattern := arg("%" + filter.Search + "%")
		conds = append(conds, fmt.Sprintf(`(
			order_id ILIKE %[1]s
			OR user_id::text ILIKE %[1]s
			OR EXISTS (
				SELECT 1 FROM order_lines ol
				WHERE ol.order_id = orders.id AND ol.name ILIKE %[1]s
			))`, pattern))
	}

	if len(conds) == 0 {
		return "", args
	}
	return "\n\t\tWHERE " + strings.Join(conds, "\n\t\t  AND "), args
}

func (r *orderRepository) Save(order domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1,
		    return_reason = $2,
		    total_amount = $3,
		    updated_at = $4
		WHERE order_id = $5
	`,
		string(order.Status), order.ReturnReason,
		order.TotalAmount, order.UpdatedAt, order.OrderID,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) Delete(orderID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE order_id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) Count() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return count, nil
}

func (r *orderRepository) CountByUser(userID string) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var count int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE user_id = $1`, userID,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count user orders: %w", err)
	}
	return count, nil
}

// Stats агрегирует счётчики статусов одним проходом по коллекции.
func (r *orderRepository) Stats() (domain.OrderStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var stats domain.OrderStats
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'Pending'),
		       COUNT(*) FILTER (WHERE status = 'In Progress'),
		       COUNT(*) FILTER (WHERE status = 'Complete'),
		       COUNT(*) FILTER (WHERE status = 'Returned'),
		       COUNT(*) FILTER (WHERE status = 'Cancelled')
		FROM orders
	`).Scan(
		&stats.Total, &stats.Pending, &stats.InProgress,
		&stats.Completed, &stats.Returned, &stats.Cancelled,
	)
	if err != nil {
		return domain.OrderStats{}, fmt.Errorf("aggregate order stats: %w", err)
	}
	return stats, nil
}

func (r *orderRepository) SalesByProduct(from, to time.Time) ([]domain.ProductSales, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	conds := []string{"o.status = 'Complete'"}
	args := make([]any, 0, 2)
	if !from.IsZero() {
		args = append(args, from)
		conds = append(conds, fmt.Sprintf("o.created_at >= $%d", len(args)))
	}
	if !to.IsZero() {
		args = append(args, to)
		conds = append(conds, fmt.Sprintf("o.created_at <= $%d", len(args)))
	}
	where := "WHERE " + strings.Join(conds, " AND ")

	query := fmt.Sprintf(`
		SELECT ol.product_id,
		       MAX(ol.name),
		       SUM(ol.quantity),
		       SUM(ol.quantity * ol.price_at_order),
		       MAX(o.created_at)
		FROM order_lines ol
		JOIN orders o ON o.id = ol.order_id
		%s
		GROUP BY ol.product_id
		ORDER BY SUM(ol.quantity * ol.price_at_order) DESC, ol.product_id ASC
	`, where)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("aggregate product sales: %w", err)
	}
	defer rows.Close()

	result := make([]domain.ProductSales, 0)
	for rows.Next() {
		var sales domain.ProductSales
		if err := rows.Scan(
			&sales.ProductID, &sales.ProductName, &sales.QuantitySold,
			&sales.Revenue, &sales.LastSoldAt,
		); err != nil {
			return nil, fmt.Errorf("scan product sales row: %w", err)
		}
		result = append(result, sales)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product sales rows: %w", err)
	}
	return result, nil
}

func (r *orderRepository) CustomerActivity() ([]domain.CustomerActivity, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id,
		       COUNT(*),
		       SUM(total_amount),
		       MIN(created_at),
		       MAX(created_at)
		FROM orders
		GROUP BY user_id
		ORDER BY SUM(total_amount) DESC, user_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("aggregate customer activity: %w", err)
	}
	defer rows.Close()

	result := make([]domain.CustomerActivity, 0)
	for rows.Next() {
		var activity domain.CustomerActivity
		if err := rows.Scan(
			&activity.UserID, &activity.OrderCount, &activity.TotalSpent,
			&activity.FirstOrderAt, &activity.LastOrderAt,
		); err != nil {
			return nil, fmt.Errorf("scan customer activity row: %w", err)
		}
		result = append(result, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customer activity rows: %w", err)
	}
	return result, nil
}

// RevenueBetween суммирует выручку исполненных заказов за период.
func (r *orderRepository) RevenueBetween(from, to time.Time) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	conds := []string{"status = 'Complete'"}
	args := make([]any, 0, 2)
	if !from.IsZero() {
		args = append(args, from)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if !to.IsZero() {
		args = append(args, to)
		conds = append(conds, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	query := `SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE ` + strings.Join(conds, " AND ")

	var revenue decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&revenue); err != nil {
		return decimal.Zero, fmt.Errorf("aggregate revenue: %w", err)
	}
	return revenue, nil
}

func (r *orderRepository) loadLines(ctx context.Context, orderRowID string) ([]domain.OrderLine, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, quantity, price_at_order, name
		FROM order_lines
		WHERE order_id = $1
		ORDER BY line_no ASC
	`, orderRowID)
	if err != nil {
		return nil, fmt.Errorf("load order lines: %w", err)
	}
	defer rows.Close()

	lines := make([]domain.OrderLine, 0)
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.ProductID, &line.Quantity, &line.PriceAtOrder, &line.Name); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order lines: %w", err)
	}
	return lines, nil
}

var _ domain.OrderRepository = (*orderRepository)(nil)
