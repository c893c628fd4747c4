package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-gateway/internal/core/domain"
)

// OrderRepository is the PostgreSQL implementation of the OrderRepository port.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository creates a new repository instance.
// Accepts a DSN (Data Source Name) to connect to.
func NewOrderRepository(ctx context.Context, dsn string) (*OrderRepository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &OrderRepository{pool: pool}, nil
}

// Close closes the connection pool.
func (r *OrderRepository) Close() {
	r.pool.Close()
}

const orderColumns = `id, user_id, total, payment_status, status, coalesce(provider_payment_id, ''), created_at, updated_at`

func (r *OrderRepository) FindByExternalReference(ctx context.Context, reference string) (*domain.Order, error) {
	// The external reference the provider echoes back is the order id itself.
	sql := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1`, orderColumns)

	var order domain.Order
	err := r.pool.QueryRow(ctx, sql, reference).Scan(
		&order.ID,
		&order.UserID,
		&order.Total,
		&order.PaymentStatus,
		&order.Status,
		&order.ProviderPaymentID,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to query order %s: %w", reference, err)
	}
	return &order, nil
}

func (r *OrderRepository) FindPendingForUser(ctx context.Context, orderID, userID string) (*domain.Order, error) {
	sql := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1 AND user_id = $2 AND payment_status = 'PENDING'`, orderColumns)

	var order domain.Order
	err := r.pool.QueryRow(ctx, sql, orderID, userID).Scan(
		&order.ID,
		&order.UserID,
		&order.Total,
		&order.PaymentStatus,
		&order.Status,
		&order.ProviderPaymentID,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to query order %s: %w", orderID, err)
	}
	return &order, nil
}

// UpdateStatus applies the status pair only when the payment status actually
// changes. The guard in the WHERE clause is what makes concurrent duplicate
// deliveries safe: only one of them sees a row to update.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID string, payment domain.PaymentStatus, status domain.OrderStatus, providerPaymentID string) (bool, error) {
	const sql = `
		UPDATE orders
		SET payment_status = $2, status = $3, provider_payment_id = $4, updated_at = now()
		WHERE id = $1 AND payment_status <> $2
	`
	tag, err := r.pool.Exec(ctx, sql, orderID, payment, status, providerPaymentID)
	if err != nil {
		return false, fmt.Errorf("failed to update order %s: %w", orderID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *OrderRepository) SetProviderReference(ctx context.Context, orderID, preferenceID string) error {
	const sql = `UPDATE orders SET preference_id = $2, updated_at = now() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, sql, orderID, preferenceID); err != nil {
		return fmt.Errorf("failed to set preference on order %s: %w", orderID, err)
	}
	return nil
}

// DecrementStock reduces each product's stock by the quantity ordered. The
// stock guard keeps counts from going negative; an oversold line is left
// untouched rather than failing the payment.
func (r *OrderRepository) DecrementStock(ctx context.Context, orderID string) error {
	const sql = `
		UPDATE products p
		SET stock = p.stock - i.quantity
		FROM order_items i
		WHERE i.order_id = $1 AND p.id = i.product_id AND p.stock >= i.quantity
	`
	if _, err := r.pool.Exec(ctx, sql, orderID); err != nil {
		return fmt.Errorf("failed to decrement stock for order %s: %w", orderID, err)
	}
	return nil
}

func (r *OrderRepository) ListForUser(ctx context.Context, userID string) ([]domain.Order, error) {
	sql := fmt.Sprintf(`SELECT %s FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, orderColumns)

	rows, err := r.pool.Query(ctx, sql, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for user %s: %w", userID, err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.Total,
			&order.PaymentStatus,
			&order.Status,
			&order.ProviderPaymentID,
			&order.CreatedAt,
			&order.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read order rows: %w", err)
	}
	return orders, nil
}
