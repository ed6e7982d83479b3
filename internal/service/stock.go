package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/PiragashC/clothing-e-commerce/internal/domain"
	"github.com/PiragashC/clothing-e-commerce/internal/event"
	"github.com/PiragashC/clothing-e-commerce/internal/repository"
	apperrors "github.com/PiragashC/clothing-e-commerce/pkg/errors"
)

var stockClampTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "stock_clamp_total",
		Help: "Total number of stock mutations where the floor-0 clamp fired",
	},
	[]string{"op"},
)

// StockService implements stock validation and mutation.
type StockService struct {
	products repository.ProductRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewStockService creates a new stock service.
func NewStockService(products repository.ProductRepository, producer *event.Producer, logger *slog.Logger) *StockService {
	return &StockService{
		products: products,
		producer: producer,
		logger:   logger,
	}
}

// ValidateLine checks one line against the current catalog without mutating
// anything. On success it returns the product and the matched design so
// callers can snapshot prices and images from the validated state.
//
// Validation order: product, design, size (case-insensitive), then for buys
// the availability checks. Returns are never quantity-checked.
func (s *StockService) ValidateLine(ctx context.Context, line domain.LineRequest, op domain.OpKind) (*domain.Product, *domain.Design, error) {
	if !domain.IsValidOpKind(op) {
		return nil, nil, apperrors.InvalidOperation(string(op))
	}
	if line.Quantity <= 0 {
		return nil, nil, apperrors.InvalidInput("quantity must be positive")
	}

	product, err := s.products.GetByID(ctx, line.ProductID)
	if err != nil {
		return nil, nil, fmt.Errorf("validate line: %w", err)
	}

	design := product.FindDesign(line.DesignID)
	if design == nil {
		return nil, nil, apperrors.DesignNotFound(line.ProductID, line.DesignID)
	}

	if line.Size != "" {
		size, ok := domain.ParseSize(string(line.Size))
		if !ok {
			return nil, nil, apperrors.SizeNotFound(line.DesignID, string(line.Size))
		}
		bucket := design.Bucket(size)
		if bucket == nil {
			return nil, nil, apperrors.SizeNotFound(line.DesignID, string(line.Size))
		}
		if op == domain.OpBuy {
			if bucket.Count == 0 {
				return nil, nil, apperrors.OutOfStock(line.DesignID, string(size))
			}
			if bucket.Count < line.Quantity {
				return nil, nil, apperrors.InsufficientQuantity(line.DesignID, line.Quantity, bucket.Count)
			}
		}
		return product, design, nil
	}

	// Sizeless request: legal only while no bucket holds stock. Any shortfall
	// against the design total, empty designs included, is an insufficient
	// quantity.
	if op == domain.OpBuy {
		if design.Sized() {
			return nil, nil, apperrors.SizeRequired(line.DesignID)
		}
		if design.Total < line.Quantity {
			return nil, nil, apperrors.InsufficientQuantity(line.DesignID, line.Quantity, design.Total)
		}
	}

	return product, design, nil
}

// NormalizeLines lower-cases the size of every line in place, rejecting
// unknown sizes. Empty sizes pass through.
func NormalizeLines(lines []domain.LineRequest) error {
	for i := range lines {
		if lines[i].Size == "" {
			continue
		}
		size, ok := domain.ParseSize(string(lines[i].Size))
		if !ok {
			return apperrors.SizeNotFound(lines[i].DesignID, string(lines[i].Size))
		}
		lines[i].Size = size
	}
	return nil
}

// ApplyBatch applies all lines of one order in a single transaction and
// publishes a stock.updated event per line. Clamped lines additionally bump
// the clamp counter, log a warning and publish a stock.clamped event; a clamp
// is a drift signal, not an error.
func (s *StockService) ApplyBatch(ctx context.Context, lines []domain.LineRequest, op domain.OpKind) ([]domain.StockUpdate, error) {
	if !domain.IsValidOpKind(op) {
		return nil, apperrors.InvalidOperation(string(op))
	}
	if err := NormalizeLines(lines); err != nil {
		return nil, err
	}

	updates, err := s.products.ApplyBatch(ctx, lines, op)
	if err != nil {
		return nil, fmt.Errorf("apply stock batch: %w", err)
	}

	for i := range updates {
		update := &updates[i]
		if update.Clamped {
			stockClampTotal.WithLabelValues(string(op)).Inc()
			s.logger.WarnContext(ctx, "stock clamped to floor during mutation",
				slog.String("product_id", update.ProductID),
				slog.String("design_id", update.DesignID),
				slog.String("size", string(update.Size)),
				slog.String("op", string(op)),
				slog.Int("quantity", update.Quantity),
			)
			if err := s.producer.PublishStockClamped(ctx, update); err != nil {
				s.logger.ErrorContext(ctx, "failed to publish stock.clamped event",
					slog.String("product_id", update.ProductID),
					slog.String("error", err.Error()),
				)
			}
		}
		if err := s.producer.PublishStockUpdated(ctx, update); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish stock.updated event",
				slog.String("product_id", update.ProductID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "stock batch applied",
		slog.String("op", string(op)),
		slog.Int("lines", len(lines)),
	)

	return updates, nil
}

// CreateProduct seeds a new product with its designs and size buckets.
func (s *StockService) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if product.Name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	if product.Price <= 0 {
		return nil, apperrors.InvalidInput("price must be positive")
	}
	if product.FinalPrice <= 0 || product.FinalPrice > product.Price {
		return nil, apperrors.InvalidInput("final_price must be positive and not exceed price")
	}
	if product.PromotionType != "" && !domain.IsValidPromotionType(product.PromotionType) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown promotion type %q", product.PromotionType))
	}
	for i := range product.Designs {
		d := &product.Designs[i]
		total := 0
		for j := range d.Sizes {
			size, ok := domain.ParseSize(string(d.Sizes[j].Size))
			if !ok {
				return nil, apperrors.InvalidInput(fmt.Sprintf("unknown size %q", d.Sizes[j].Size))
			}
			d.Sizes[j].Size = size
			if d.Sizes[j].Count < 0 {
				return nil, apperrors.InvalidInput("size counts must be non-negative")
			}
			total += d.Sizes[j].Count
		}
		if len(d.Sizes) > 0 {
			d.Total = total
		}
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("name", product.Name),
		slog.Int("stock", product.Stock),
	)

	return product, nil
}

// GetProduct fetches a product with its designs and size buckets.
func (s *StockService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}
