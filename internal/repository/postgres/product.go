package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/PiragashC/clothing-e-commerce/internal/domain"
	"github.com/PiragashC/clothing-e-commerce/pkg/database"
	apperrors "github.com/PiragashC/clothing-e-commerce/pkg/errors"
)

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Create inserts a product with its designs and size buckets in one transaction.
// Stock is derived from the design totals and the discount from the prices.
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	stock := 0
	for _, d := range product.Designs {
		stock += d.Total
	}
	product.Stock = stock
	product.Quantity = stock
	product.Discount = domain.DiscountPercent(product.Price, product.FinalPrice)
	product.SellingRatio = 0
	product.StockStatus = domain.StockStatusIn
	if stock == 0 {
		product.StockStatus = domain.StockStatusOut
	}
	if product.PromotionType == "" {
		product.PromotionType = domain.PromotionNone
	}

	productQuery := `
		INSERT INTO products (id, name, keywords, category, sub_category, brand, price, final_price,
			discount, promotion_type, stock_status, stock, quantity, selling_ratio, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
		RETURNING created_at, updated_at`

	err = tx.QueryRow(ctx, productQuery,
		product.ID,
		product.Name,
		product.Keywords,
		product.Category,
		product.SubCategory,
		product.Brand,
		product.Price,
		product.FinalPrice,
		product.Discount,
		product.PromotionType,
		product.StockStatus,
		product.Stock,
		product.Quantity,
		product.SellingRatio,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	for i := range product.Designs {
		d := &product.Designs[i]
		_, err = tx.Exec(ctx, `
			INSERT INTO designs (id, product_id, image_url, total, created_at, updated_at)
			VALUES ($1, $2, $3, $4, NOW(), NOW())`,
			d.ID, product.ID, d.ImageURL, d.Total,
		)
		if err != nil {
			return fmt.Errorf("insert design: %w", err)
		}

		for _, b := range d.Sizes {
			_, err = tx.Exec(ctx, `
				INSERT INTO design_sizes (design_id, size, count)
				VALUES ($1, $2, $3)`,
				d.ID, string(b.Size), b.Count,
			)
			if err != nil {
				return fmt.Errorf("insert design size: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a product with all its designs and size buckets.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `
		SELECT id, name, keywords, category, sub_category, brand, price, final_price,
			   discount, promotion_type, stock_status, stock, quantity, selling_ratio, created_at, updated_at
		FROM products
		WHERE id = $1`

	var p domain.Product
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Keywords,
		&p.Category,
		&p.SubCategory,
		&p.Brand,
		&p.Price,
		&p.FinalPrice,
		&p.Discount,
		&p.PromotionType,
		&p.StockStatus,
		&p.Stock,
		&p.Quantity,
		&p.SellingRatio,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ProductNotFound(id)
		}
		return nil, fmt.Errorf("get product by id: %w", err)
	}

	designs, err := r.loadDesigns(ctx, r.pool, id)
	if err != nil {
		return nil, err
	}
	p.Designs = designs

	return &p, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// loadDesigns fetches the designs of a product with their size buckets.
func (r *ProductRepository) loadDesigns(ctx context.Context, q querier, productID string) ([]domain.Design, error) {
	rows, err := q.Query(ctx, `
		SELECT id, image_url, total
		FROM designs
		WHERE product_id = $1
		ORDER BY created_at, id`, productID)
	if err != nil {
		return nil, fmt.Errorf("list designs: %w", err)
	}
	defer rows.Close()

	var designs []domain.Design
	for rows.Next() {
		var d domain.Design
		if err := rows.Scan(&d.ID, &d.ImageURL, &d.Total); err != nil {
			return nil, fmt.Errorf("scan design row: %w", err)
		}
		designs = append(designs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate design rows: %w", err)
	}

	for i := range designs {
		sizes, err := r.loadSizes(ctx, q, designs[i].ID)
		if err != nil {
			return nil, err
		}
		designs[i].Sizes = sizes
	}

	return designs, nil
}

// loadSizes fetches the size buckets of a design in enum order.
func (r *ProductRepository) loadSizes(ctx context.Context, q querier, designID string) ([]domain.SizeBucket, error) {
	rows, err := q.Query(ctx, `
		SELECT size, count
		FROM design_sizes
		WHERE design_id = $1
		ORDER BY array_position(ARRAY['s','m','l','xl','xxl','xxxl'], size)`, designID)
	if err != nil {
		return nil, fmt.Errorf("list design sizes: %w", err)
	}
	defer rows.Close()

	var sizes []domain.SizeBucket
	for rows.Next() {
		var b domain.SizeBucket
		if err := rows.Scan(&b.Size, &b.Count); err != nil {
			return nil, fmt.Errorf("scan design size row: %w", err)
		}
		sizes = append(sizes, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate design size rows: %w", err)
	}

	return sizes, nil
}

// ApplyBatch applies every line of one order batch inside a single
// transaction. All product rows touched by the batch are locked up front in
// sorted id order, so concurrent batches serialize per product and cannot
// deadlock. Buy lines are re-validated under the lock before any write.
func (r *ProductRepository) ApplyBatch(ctx context.Context, lines []domain.LineRequest, op domain.OpKind) ([]domain.StockUpdate, error) {
	if !domain.IsValidOpKind(op) {
		return nil, apperrors.InvalidOperation(string(op))
	}
	if len(lines) == 0 {
		return []domain.StockUpdate{}, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := r.lockProducts(ctx, tx, lines); err != nil {
		return nil, err
	}

	updates := make([]domain.StockUpdate, 0, len(lines))
	for _, line := range lines {
		update, err := r.applyLine(ctx, tx, line, op)
		if err != nil {
			return nil, err
		}
		updates = append(updates, *update)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return updates, nil
}

// ApplySwap applies a compensating return for the old lines and a buy for the
// new lines in one transaction. Returns run first so an edit that reuses the
// same design sees the freed stock; a failing buy rolls the returns back too.
func (r *ProductRepository) ApplySwap(ctx context.Context, returns, buys []domain.LineRequest) ([]domain.StockUpdate, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	all := make([]domain.LineRequest, 0, len(returns)+len(buys))
	all = append(all, returns...)
	all = append(all, buys...)
	if err := r.lockProducts(ctx, tx, all); err != nil {
		return nil, err
	}

	updates := make([]domain.StockUpdate, 0, len(all))
	for _, line := range returns {
		update, err := r.applyLine(ctx, tx, line, domain.OpReturn)
		if err != nil {
			return nil, err
		}
		updates = append(updates, *update)
	}
	for _, line := range buys {
		update, err := r.applyLine(ctx, tx, line, domain.OpBuy)
		if err != nil {
			return nil, err
		}
		updates = append(updates, *update)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return updates, nil
}

// lockProducts takes FOR UPDATE row locks on every product in the batch and
// verifies they all exist.
func (r *ProductRepository) lockProducts(ctx context.Context, tx pgx.Tx, lines []domain.LineRequest) error {
	seen := make(map[string]struct{}, len(lines))
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}
	sort.Strings(ids)

	rows, err := tx.Query(ctx, `
		SELECT id
		FROM products
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE`, ids)
	if err != nil {
		return fmt.Errorf("lock products: %w", err)
	}
	defer rows.Close()

	locked := make(map[string]struct{}, len(ids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan locked product id: %w", err)
		}
		locked[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate locked products: %w", err)
	}

	for _, id := range ids {
		if _, ok := locked[id]; !ok {
			return apperrors.ProductNotFound(id)
		}
	}

	return nil
}

// applyLine mutates one line under the product lock: re-validate (buy only),
// then update the size bucket, the design total and the product quantity, all
// clamped to floor 0 with GREATEST. The selling ratio is recomputed in the
// product update itself, with zero stock yielding 0.
func (r *ProductRepository) applyLine(ctx context.Context, tx pgx.Tx, line domain.LineRequest, op domain.OpKind) (*domain.StockUpdate, error) {
	var (
		designTotal int
	)
	err := tx.QueryRow(ctx, `
		SELECT total
		FROM designs
		WHERE id = $1 AND product_id = $2`, line.DesignID, line.ProductID).Scan(&designTotal)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.DesignNotFound(line.ProductID, line.DesignID)
		}
		return nil, fmt.Errorf("get design for update: %w", err)
	}

	var (
		bucketCount    int
		bucketSelected bool
	)
	if line.Size != "" {
		err = tx.QueryRow(ctx, `
			SELECT count
			FROM design_sizes
			WHERE design_id = $1 AND size = $2`, line.DesignID, string(line.Size)).Scan(&bucketCount)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.SizeNotFound(line.DesignID, string(line.Size))
			}
			return nil, fmt.Errorf("get size bucket for update: %w", err)
		}
		bucketSelected = true
	} else {
		var positiveBuckets int
		err = tx.QueryRow(ctx, `
			SELECT COUNT(*)
			FROM design_sizes
			WHERE design_id = $1 AND count > 0`, line.DesignID).Scan(&positiveBuckets)
		if err != nil {
			return nil, fmt.Errorf("count positive buckets: %w", err)
		}
		if op == domain.OpBuy && positiveBuckets > 0 {
			return nil, apperrors.SizeRequired(line.DesignID)
		}
	}

	if op == domain.OpBuy {
		available := designTotal
		if bucketSelected {
			available = bucketCount
			if available == 0 {
				return nil, apperrors.OutOfStock(line.DesignID, string(line.Size))
			}
		}
		if available < line.Quantity {
			return nil, apperrors.InsufficientQuantity(line.DesignID, line.Quantity, available)
		}
	}

	delta := line.Quantity
	if op == domain.OpBuy {
		delta = -line.Quantity
	}

	clamped := false

	if bucketSelected {
		var newCount int
		err = tx.QueryRow(ctx, `
			UPDATE design_sizes
			SET count = GREATEST(count + $1, 0)
			WHERE design_id = $2 AND size = $3
			RETURNING count`, delta, line.DesignID, string(line.Size)).Scan(&newCount)
		if err != nil {
			return nil, fmt.Errorf("update size bucket: %w", err)
		}
		if newCount != bucketCount+delta {
			clamped = true
		}
	}

	var newTotal int
	err = tx.QueryRow(ctx, `
		UPDATE designs
		SET total = GREATEST(total + $1, 0), updated_at = NOW()
		WHERE id = $2
		RETURNING total`, delta, line.DesignID).Scan(&newTotal)
	if err != nil {
		return nil, fmt.Errorf("update design total: %w", err)
	}
	if newTotal != designTotal+delta {
		clamped = true
	}

	var (
		oldQuantity  int
		newQuantity  int
		sellingRatio float64
	)
	err = tx.QueryRow(ctx, `SELECT quantity FROM products WHERE id = $1`, line.ProductID).Scan(&oldQuantity)
	if err != nil {
		return nil, fmt.Errorf("get product quantity: %w", err)
	}

	err = tx.QueryRow(ctx, `
		UPDATE products
		SET quantity = GREATEST(quantity + $1, 0),
			selling_ratio = CASE WHEN stock = 0 THEN 0
				ELSE (stock - GREATEST(quantity + $1, 0))::double precision / stock END,
			stock_status = CASE WHEN GREATEST(quantity + $1, 0) = 0 THEN 'Out of Stock' ELSE 'In Stock' END,
			updated_at = NOW()
		WHERE id = $2
		RETURNING quantity, selling_ratio`, delta, line.ProductID).Scan(&newQuantity, &sellingRatio)
	if err != nil {
		return nil, fmt.Errorf("update product quantity: %w", err)
	}
	if newQuantity != oldQuantity+delta {
		clamped = true
	}

	return &domain.StockUpdate{
		ProductID:    line.ProductID,
		DesignID:     line.DesignID,
		Size:         line.Size,
		Op:           op,
		Quantity:     line.Quantity,
		NewQuantity:  newQuantity,
		NewTotal:     newTotal,
		SellingRatio: sellingRatio,
		Clamped:      clamped,
	}, nil
}
