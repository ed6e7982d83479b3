package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/PiragashC/clothing-e-commerce/internal/domain"
	"github.com/PiragashC/clothing-e-commerce/internal/repository"
	apperrors "github.com/PiragashC/clothing-e-commerce/pkg/errors"
)

// CartService manages per-user shopping carts. Items are validated against the
// catalog and current stock on every mutation, so a cart never holds a line
// that could not be bought at the moment it was added.
type CartService struct {
	carts  repository.CartRepository
	stock  *StockService
	logger *slog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(carts repository.CartRepository, stock *StockService, logger *slog.Logger) *CartService {
	return &CartService{carts: carts, stock: stock, logger: logger}
}

// GetCart returns the user's cart, empty if none exists.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

// AddItem validates the line against the catalog and current stock, then adds
// it to the cart. Adding a line that already exists (same product, design and
// size) merges the quantities.
func (s *CartService) AddItem(ctx context.Context, userID string, line domain.LineRequest) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	lines := []domain.LineRequest{line}
	if err := NormalizeLines(lines); err != nil {
		return nil, err
	}
	line = lines[0]

	if _, _, err := s.stock.ValidateLine(ctx, line, domain.OpBuy); err != nil {
		return nil, err
	}

	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}

	if idx := cart.FindItemIndex(line.ProductID, line.DesignID, line.Size); idx >= 0 {
		cart.Items[idx].Quantity += line.Quantity
	} else {
		cart.Items = append(cart.Items, line)
	}

	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}

	s.logger.InfoContext(ctx, "cart item added",
		slog.String("user_id", userID),
		slog.String("product_id", line.ProductID),
		slog.String("design_id", line.DesignID),
		slog.Int("quantity", line.Quantity),
	)

	return cart, nil
}

// UpdateItem replaces the quantity of an existing cart line. The new quantity
// is validated against current stock.
func (s *CartService) UpdateItem(ctx context.Context, userID string, line domain.LineRequest) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	lines := []domain.LineRequest{line}
	if err := NormalizeLines(lines); err != nil {
		return nil, err
	}
	line = lines[0]

	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("update cart item: %w", err)
	}

	idx := cart.FindItemIndex(line.ProductID, line.DesignID, line.Size)
	if idx < 0 {
		return nil, apperrors.NotFound("cart item", line.ProductID)
	}

	if _, _, err := s.stock.ValidateLine(ctx, line, domain.OpBuy); err != nil {
		return nil, err
	}
	cart.Items[idx].Quantity = line.Quantity

	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("update cart item: %w", err)
	}

	return cart, nil
}

// RemoveItem deletes one line from the cart.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID, designID, size string) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	var parsed domain.Size
	if size != "" {
		var ok bool
		parsed, ok = domain.ParseSize(size)
		if !ok {
			return nil, apperrors.InvalidInput(fmt.Sprintf("unknown size %q", size))
		}
	}

	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("remove cart item: %w", err)
	}

	idx := cart.FindItemIndex(productID, designID, parsed)
	if idx < 0 {
		return nil, apperrors.NotFound("cart item", productID)
	}
	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)

	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("remove cart item: %w", err)
	}

	return cart, nil
}

// ClearCart drops the user's cart entirely.
func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	if userID == "" {
		return apperrors.InvalidInput("user id is required")
	}
	if err := s.carts.Delete(ctx, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
