package postgres

import (
	"context"
	"fmt"

	"github.com/PiragashC/clothing-e-commerce/internal/domain"
	"github.com/PiragashC/clothing-e-commerce/internal/repository"
	"github.com/PiragashC/clothing-e-commerce/pkg/database"
)

// SaleRepository implements repository.SaleRepository using PostgreSQL.
type SaleRepository struct {
	pool database.DBTX
}

// NewSaleRepository creates a new PostgreSQL-backed sale repository.
func NewSaleRepository(pool database.DBTX) *SaleRepository {
	return &SaleRepository{pool: pool}
}

// RecordSales inserts one immutable sale record per line and bumps the user's
// delivered-order counter, all in one transaction.
func (r *SaleRepository) RecordSales(ctx context.Context, userID string, records []domain.SaleRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO sales (id, order_id, product_id, design_id, size, product_name, quantity, total_price, promotion_type, sale_date, design_image)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	for _, s := range records {
		_, err := tx.Exec(ctx, query,
			s.ID,
			s.OrderID,
			s.ProductID,
			s.DesignID,
			string(s.Size),
			s.ProductName,
			s.Quantity,
			s.TotalPrice,
			s.PromotionType,
			s.SaleDate,
			s.DesignImage,
		)
		if err != nil {
			return fmt.Errorf("insert sale record: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO user_order_counts (user_id, orders)
		VALUES ($1, 1)
		ON CONFLICT (user_id) DO UPDATE SET orders = user_order_counts.orders + 1`, userID)
	if err != nil {
		return fmt.Errorf("increment user order count: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// List returns sale records matching the filter along with the total count.
func (r *SaleRepository) List(ctx context.Context, filter repository.SaleFilter) ([]domain.SaleRecord, int, error) {
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	offset := (page - 1) * perPage

	query := `
		SELECT id, order_id, product_id, design_id, size, product_name, quantity, total_price, promotion_type, sale_date, design_image,
			   count(*) OVER() AS total_count
		FROM sales
		WHERE ($1::uuid IS NULL OR product_id = $1)
		  AND ($2::text IS NULL OR order_id = $2)
		ORDER BY sale_date DESC, id
		LIMIT $3 OFFSET $4`

	rows, err := r.pool.Query(ctx, query, filter.ProductID, filter.OrderID, perPage, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	var (
		sales      []domain.SaleRecord
		totalCount int
	)
	for rows.Next() {
		var s domain.SaleRecord
		if err := rows.Scan(
			&s.ID,
			&s.OrderID,
			&s.ProductID,
			&s.DesignID,
			&s.Size,
			&s.ProductName,
			&s.Quantity,
			&s.TotalPrice,
			&s.PromotionType,
			&s.SaleDate,
			&s.DesignImage,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan sale row: %w", err)
		}
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate sale rows: %w", err)
	}

	if sales == nil {
		sales = []domain.SaleRecord{}
	}

	return sales, totalCount, nil
}
