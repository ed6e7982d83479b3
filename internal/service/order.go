package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/PiragashC/clothing-e-commerce/internal/domain"
	"github.com/PiragashC/clothing-e-commerce/internal/event"
	"github.com/PiragashC/clothing-e-commerce/internal/repository"
	apperrors "github.com/PiragashC/clothing-e-commerce/pkg/errors"
)

// OrderService implements checkout, order lifecycle and order edits.
type OrderService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	sales    repository.SaleRepository
	carts    repository.CartRepository
	stock    *StockService
	producer *event.Producer
	logger   *slog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	sales repository.SaleRepository,
	carts repository.CartRepository,
	stock *StockService,
	producer *event.Producer,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		orders:   orders,
		products: products,
		sales:    sales,
		carts:    carts,
		stock:    stock,
		producer: producer,
		logger:   logger,
	}
}

// GenerateLines validates every line of the batch as a purchase and builds the
// immutable snapshots from the validated catalog state. The whole batch is
// validated before anything else happens, and the output preserves the input
// order.
func (s *OrderService) GenerateLines(ctx context.Context, lines []domain.LineRequest) ([]domain.SaleRecord, int64, error) {
	return s.generateLines(ctx, lines, domain.OpBuy)
}

// generateLines builds the snapshots, validating each line for op. With OpBuy
// the availability checks apply; with OpReturn only product, design and size
// existence are checked.
func (s *OrderService) generateLines(ctx context.Context, lines []domain.LineRequest, op domain.OpKind) ([]domain.SaleRecord, int64, error) {
	if len(lines) == 0 {
		return nil, 0, apperrors.InvalidInput("at least one line is required")
	}
	if err := NormalizeLines(lines); err != nil {
		return nil, 0, err
	}

	now := time.Now().UTC()
	records := make([]domain.SaleRecord, 0, len(lines))
	var billing int64

	for _, line := range lines {
		product, design, err := s.stock.ValidateLine(ctx, line, op)
		if err != nil {
			return nil, 0, err
		}

		totalPrice := int64(line.Quantity) * product.FinalPrice
		records = append(records, domain.SaleRecord{
			ID:            uuid.New().String(),
			ProductID:     product.ID,
			DesignID:      design.ID,
			Size:          line.Size,
			ProductName:   product.Name,
			Quantity:      line.Quantity,
			TotalPrice:    totalPrice,
			PromotionType: product.PromotionType,
			SaleDate:      now,
			DesignImage:   design.ImageURL,
		})
		billing += totalPrice
	}

	return records, billing, nil
}

// CreateOrder performs checkout. With explicit lines it is a buy-now order;
// with none, the user's cart is drained. The stock batch is applied first (one
// transaction, all-or-nothing), then the order is persisted; if persisting
// fails the batch is compensated with a return.
func (s *OrderService) CreateOrder(ctx context.Context, userID, paymentMethod string, lines []domain.LineRequest) (*domain.Order, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if !domain.IsValidPaymentMethod(paymentMethod) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown payment method %q", paymentMethod))
	}

	fromCart := len(lines) == 0
	if fromCart {
		cart, err := s.carts.Get(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("load cart: %w", err)
		}
		lines = cart.Items
	}

	records, billing, err := s.GenerateLines(ctx, lines)
	if err != nil {
		return nil, err
	}

	orderID, err := s.orders.NextOrderID(ctx)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	for i := range records {
		records[i].OrderID = orderID
	}

	if _, err := s.stock.ApplyBatch(ctx, lines, domain.OpBuy); err != nil {
		return nil, err
	}

	order := &domain.Order{
		OrderID:       orderID,
		UserID:        userID,
		Lines:         records,
		BillingAmount: billing,
		PaymentMethod: paymentMethod,
		Status:        domain.OrderStatusPending,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		// Undo the reservation so stock is not leaked.
		if _, rerr := s.stock.ApplyBatch(ctx, lines, domain.OpReturn); rerr != nil {
			s.logger.ErrorContext(ctx, "failed to compensate stock after order persist failure",
				slog.String("order_id", orderID),
				slog.String("error", rerr.Error()),
			)
		}
		return nil, fmt.Errorf("persist order: %w", err)
	}

	if fromCart {
		if err := s.carts.Delete(ctx, userID); err != nil {
			s.logger.ErrorContext(ctx, "failed to clear cart after checkout",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := s.producer.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.String("order_id", orderID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", orderID),
		slog.String("user_id", userID),
		slog.Int64("billing_amount", billing),
		slog.Int("lines", len(records)),
	)

	return order, nil
}

// GetOrder fetches an order with its lines.
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// TransitionOrder moves an order to the target status. Rejection requires a
// reason. Cancelled and Rejected orders get their stock returned; Delivered
// orders write one immutable sale record per line and bump the user's
// delivered-order counter.
func (s *OrderService) TransitionOrder(ctx context.Context, orderID, target, reason string) (*domain.Order, error) {
	if !domain.IsValidStatus(target) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown status %q", target))
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("transition order: %w", err)
	}

	if !order.CanTransitionTo(target) {
		return nil, apperrors.IllegalTransition(order.Status, target)
	}
	if target == domain.OrderStatusRejected && reason == "" {
		return nil, apperrors.InvalidInput("a reason is required to reject an order")
	}
	if target != domain.OrderStatusRejected {
		reason = ""
	}

	if err := s.orders.UpdateStatus(ctx, orderID, target, reason); err != nil {
		return nil, fmt.Errorf("transition order: %w", err)
	}

	fromStatus := order.Status
	order.Status = target
	order.RejectedReason = reason

	switch target {
	case domain.OrderStatusCancelled, domain.OrderStatusRejected:
		if _, err := s.stock.ApplyBatch(ctx, order.LineRequests(), domain.OpReturn); err != nil {
			return nil, fmt.Errorf("restore stock for %s order: %w", target, err)
		}
	case domain.OrderStatusDelivered:
		if err := s.recordDelivery(ctx, order); err != nil {
			return nil, err
		}
	}

	if err := s.producer.PublishOrderStatusChanged(ctx, order, fromStatus); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.status_changed event",
			slog.String("order_id", orderID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order status changed",
		slog.String("order_id", orderID),
		slog.String("from", fromStatus),
		slog.String("to", target),
	)

	return order, nil
}

// recordDelivery writes the sale records for a delivered order and publishes
// one sale.recorded event per record.
func (s *OrderService) recordDelivery(ctx context.Context, order *domain.Order) error {
	records := make([]domain.SaleRecord, len(order.Lines))
	copy(records, order.Lines)
	for i := range records {
		records[i].ID = uuid.New().String()
		records[i].OrderID = order.OrderID
	}

	if err := s.sales.RecordSales(ctx, order.UserID, records); err != nil {
		return fmt.Errorf("record sales: %w", err)
	}

	for i := range records {
		if err := s.producer.PublishSaleRecorded(ctx, &records[i]); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish sale.recorded event",
				slog.String("sale_id", records[i].ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}

// ListSales returns recorded sales matching the filter with the total count.
func (s *OrderService) ListSales(ctx context.Context, filter repository.SaleFilter) ([]domain.SaleRecord, int, error) {
	sales, total, err := s.sales.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list sales: %w", err)
	}
	return sales, total, nil
}

// EditOrder swaps the lines of a pending order. The old lines' return and the
// new lines' buy run in one stock transaction, so a failed edit leaves the
// original reservation intact.
func (s *OrderService) EditOrder(ctx context.Context, orderID string, newLines []domain.LineRequest) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("edit order: %w", err)
	}
	if !order.Editable() {
		return nil, apperrors.Conflict(fmt.Sprintf("order in status %s cannot be edited", order.Status))
	}

	// No buy checks here: the edit may reuse stock its own old lines hold,
	// which only the swap's under-lock validation can account for.
	records, billing, err := s.generateLines(ctx, newLines, domain.OpReturn)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].OrderID = orderID
	}

	if _, err := s.products.ApplySwap(ctx, order.LineRequests(), newLines); err != nil {
		return nil, fmt.Errorf("swap stock for edited order: %w", err)
	}

	if err := s.orders.ReplaceLines(ctx, orderID, records, billing); err != nil {
		// Swap back so the stored lines and the stock stay consistent.
		if _, serr := s.products.ApplySwap(ctx, newLines, order.LineRequests()); serr != nil {
			s.logger.ErrorContext(ctx, "failed to revert stock after order edit failure",
				slog.String("order_id", orderID),
				slog.String("error", serr.Error()),
			)
		}
		return nil, fmt.Errorf("replace order lines: %w", err)
	}

	order.Lines = records
	order.BillingAmount = billing

	s.logger.InfoContext(ctx, "order edited",
		slog.String("order_id", orderID),
		slog.Int("lines", len(records)),
		slog.Int64("billing_amount", billing),
	)

	return order, nil
}
