package repository

import (
	"context"

	"github.com/PiragashC/clothing-e-commerce/internal/domain"
)

// SaleFilter defines filter criteria for listing sale records.
type SaleFilter struct {
	ProductID *string
	OrderID   *string
	Page      int
	PerPage   int
}

// ProductRepository defines persistence for products, their designs and size
// buckets, and the stock mutation batch.
type ProductRepository interface {
	// Create inserts a product with its designs and size buckets atomically.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a product with designs and size buckets.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// ApplyBatch applies every line of one order as a single transaction.
	// All product rows touched by the batch are locked before any write.
	// Each returned update reports the post-mutation state of its line.
	ApplyBatch(ctx context.Context, lines []domain.LineRequest, op domain.OpKind) ([]domain.StockUpdate, error)

	// ApplySwap returns the old lines and buys the new lines in one
	// transaction, so a failed re-reservation leaves stock untouched.
	ApplySwap(ctx context.Context, returns, buys []domain.LineRequest) ([]domain.StockUpdate, error)
}

// OrderRepository defines persistence for orders and their line snapshots.
type OrderRepository interface {
	// NextOrderID reserves and formats the next order identifier.
	NextOrderID(ctx context.Context) (string, error)

	// Create inserts a new order and its lines atomically.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order by its public id, including lines.
	GetByID(ctx context.Context, orderID string) (*domain.Order, error)

	// UpdateStatus changes the status of an order and optionally sets a
	// rejection reason.
	UpdateStatus(ctx context.Context, orderID, status, reason string) error

	// ReplaceLines swaps the lines of a pending order and updates its
	// billing amount atomically.
	ReplaceLines(ctx context.Context, orderID string, lines []domain.SaleRecord, billingAmount int64) error
}

// SaleRepository defines persistence for immutable sale records and the
// per-user delivered-order counter.
type SaleRepository interface {
	// RecordSales inserts one sale record per line and increments the
	// user's delivered-order counter in the same transaction.
	RecordSales(ctx context.Context, userID string, records []domain.SaleRecord) error

	// List returns sale records matching the filter with the total count.
	List(ctx context.Context, filter SaleFilter) ([]domain.SaleRecord, int, error)
}

// CartRepository defines the per-user cart store.
type CartRepository interface {
	// Get returns the user's cart; a missing cart is returned empty.
	Get(ctx context.Context, userID string) (*domain.Cart, error)

	// Save stores the cart and refreshes its TTL.
	Save(ctx context.Context, cart *domain.Cart) error

	// Delete removes the user's cart.
	Delete(ctx context.Context, userID string) error
}
