package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/PiragashC/clothing-e-commerce/internal/domain"
	"github.com/PiragashC/clothing-e-commerce/pkg/database"
	apperrors "github.com/PiragashC/clothing-e-commerce/pkg/errors"
)

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// NextOrderID reserves the next order number from the sequence and formats it.
func (r *OrderRepository) NextOrderID(ctx context.Context) (string, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT nextval('order_number_seq')`).Scan(&n); err != nil {
		return "", fmt.Errorf("next order number: %w", err)
	}
	return domain.FormatOrderID(n), nil
}

// Create inserts a new order and its line snapshots in one transaction.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO orders (order_id, user_id, billing_amount, payment_method, status, rejected_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at`

	err = tx.QueryRow(ctx, query,
		order.OrderID,
		order.UserID,
		order.BillingAmount,
		order.PaymentMethod,
		order.Status,
		order.RejectedReason,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	if err := insertLines(ctx, tx, order.OrderID, order.Lines); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// insertLines persists the snapshots with their position so read-back keeps
// the request order.
func insertLines(ctx context.Context, tx pgx.Tx, orderID string, lines []domain.SaleRecord) error {
	query := `
		INSERT INTO order_lines (id, order_id, line_no, product_id, design_id, size, product_name, quantity, total_price, promotion_type, sale_date, design_image)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	for i, l := range lines {
		_, err := tx.Exec(ctx, query,
			l.ID,
			orderID,
			i+1,
			l.ProductID,
			l.DesignID,
			string(l.Size),
			l.ProductName,
			l.Quantity,
			l.TotalPrice,
			l.PromotionType,
			l.SaleDate,
			l.DesignImage,
		)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}

	return nil
}

// GetByID retrieves an order with all its lines.
func (r *OrderRepository) GetByID(ctx context.Context, orderID string) (*domain.Order, error) {
	query := `
		SELECT order_id, user_id, billing_amount, payment_method, status, rejected_reason, created_at, updated_at
		FROM orders
		WHERE order_id = $1`

	var o domain.Order
	err := r.pool.QueryRow(ctx, query, orderID).Scan(
		&o.OrderID,
		&o.UserID,
		&o.BillingAmount,
		&o.PaymentMethod,
		&o.Status,
		&o.RejectedReason,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", orderID)
		}
		return nil, fmt.Errorf("get order by id: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, product_id, design_id, size, product_name, quantity, total_price, promotion_type, sale_date, design_image
		FROM order_lines
		WHERE order_id = $1
		ORDER BY line_no`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l domain.SaleRecord
		if err := rows.Scan(
			&l.ID,
			&l.ProductID,
			&l.DesignID,
			&l.Size,
			&l.ProductName,
			&l.Quantity,
			&l.TotalPrice,
			&l.PromotionType,
			&l.SaleDate,
			&l.DesignImage,
		); err != nil {
			return nil, fmt.Errorf("scan order line row: %w", err)
		}
		l.OrderID = orderID
		o.Lines = append(o.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order line rows: %w", err)
	}

	return &o, nil
}

// UpdateStatus changes the status of an order and optionally sets a rejection
// reason.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID, status, reason string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders
		SET status = $1, rejected_reason = $2, updated_at = NOW()
		WHERE order_id = $3`, status, reason, orderID)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("order", orderID)
	}

	return nil
}

// ReplaceLines swaps the lines of an order and updates its billing amount in
// one transaction.
func (r *OrderRepository) ReplaceLines(ctx context.Context, orderID string, lines []domain.SaleRecord, billingAmount int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE orders
		SET billing_amount = $1, updated_at = NOW()
		WHERE order_id = $2`, billingAmount, orderID)
	if err != nil {
		return fmt.Errorf("update order billing amount: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("order", orderID)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM order_lines WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("delete order lines: %w", err)
	}

	if err := insertLines(ctx, tx, orderID, lines); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
