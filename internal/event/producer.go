package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/PiragashC/clothing-e-commerce/internal/domain"
	pkgkafka "github.com/PiragashC/clothing-e-commerce/pkg/kafka"
)

// Kafka topic constants for the commerce domain events.
const (
	TopicStockUpdated       = "commerce.stock.updated"
	TopicStockClamped       = "commerce.stock.clamped"
	TopicOrderCreated       = "commerce.order.created"
	TopicOrderStatusChanged = "commerce.order.status_changed"
	TopicSaleRecorded       = "commerce.sale.recorded"
)

// Aggregate type constants.
const (
	AggregateTypeProduct = "product"
	AggregateTypeOrder   = "order"
	AggregateTypeSale    = "sale"
)

// Source identifier for events originating from this service.
const SourceCommerceService = "commerce-service"

// StockUpdatedData is the payload for a stock.updated event.
type StockUpdatedData struct {
	ProductID    string  `json:"product_id"`
	DesignID     string  `json:"design_id"`
	Size         string  `json:"size,omitempty"`
	Op           string  `json:"op"`
	Quantity     int     `json:"quantity"`
	NewQuantity  int     `json:"new_quantity"`
	NewTotal     int     `json:"new_total"`
	SellingRatio float64 `json:"selling_ratio"`
}

// StockClampedData is the payload for a stock.clamped event. It signals that
// a floor-0 clamp fired during a mutation, i.e. stock fields had drifted.
type StockClampedData struct {
	ProductID string `json:"product_id"`
	DesignID  string `json:"design_id"`
	Size      string `json:"size,omitempty"`
	Op        string `json:"op"`
	Quantity  int    `json:"quantity"`
}

// OrderCreatedData is the payload for an order.created event.
type OrderCreatedData struct {
	OrderID       string `json:"order_id"`
	UserID        string `json:"user_id"`
	BillingAmount int64  `json:"billing_amount"`
	PaymentMethod string `json:"payment_method"`
	LineCount     int    `json:"line_count"`
}

// OrderStatusChangedData is the payload for an order.status_changed event.
type OrderStatusChangedData struct {
	OrderID        string `json:"order_id"`
	UserID         string `json:"user_id"`
	FromStatus     string `json:"from_status"`
	ToStatus       string `json:"to_status"`
	RejectedReason string `json:"rejected_reason,omitempty"`
}

// SaleRecordedData is the payload for a sale.recorded event.
type SaleRecordedData struct {
	SaleID      string `json:"sale_id"`
	OrderID     string `json:"order_id"`
	ProductID   string `json:"product_id"`
	DesignID    string `json:"design_id"`
	Size        string `json:"size,omitempty"`
	Quantity    int    `json:"quantity"`
	TotalPrice  int64  `json:"total_price"`
	SaleDate    string `json:"sale_date"`
	ProductName string `json:"product_name"`
}

// Producer publishes commerce domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishStockUpdated publishes a stock.updated event for one applied line.
func (p *Producer) PublishStockUpdated(ctx context.Context, update *domain.StockUpdate) error {
	data := StockUpdatedData{
		ProductID:    update.ProductID,
		DesignID:     update.DesignID,
		Size:         string(update.Size),
		Op:           string(update.Op),
		Quantity:     update.Quantity,
		NewQuantity:  update.NewQuantity,
		NewTotal:     update.NewTotal,
		SellingRatio: update.SellingRatio,
	}

	event, err := pkgkafka.NewEvent(TopicStockUpdated, update.ProductID, AggregateTypeProduct, SourceCommerceService, data)
	if err != nil {
		return fmt.Errorf("create stock.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicStockUpdated, event); err != nil {
		return fmt.Errorf("publish stock.updated event: %w", err)
	}

	return nil
}

// PublishStockClamped publishes a stock.clamped event.
func (p *Producer) PublishStockClamped(ctx context.Context, update *domain.StockUpdate) error {
	data := StockClampedData{
		ProductID: update.ProductID,
		DesignID:  update.DesignID,
		Size:      string(update.Size),
		Op:        string(update.Op),
		Quantity:  update.Quantity,
	}

	event, err := pkgkafka.NewEvent(TopicStockClamped, update.ProductID, AggregateTypeProduct, SourceCommerceService, data)
	if err != nil {
		return fmt.Errorf("create stock.clamped event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicStockClamped, event); err != nil {
		return fmt.Errorf("publish stock.clamped event: %w", err)
	}

	return nil
}

// PublishOrderCreated publishes an order.created event.
func (p *Producer) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	data := OrderCreatedData{
		OrderID:       order.OrderID,
		UserID:        order.UserID,
		BillingAmount: order.BillingAmount,
		PaymentMethod: order.PaymentMethod,
		LineCount:     len(order.Lines),
	}

	event, err := pkgkafka.NewEvent(TopicOrderCreated, order.OrderID, AggregateTypeOrder, SourceCommerceService, data)
	if err != nil {
		return fmt.Errorf("create order.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderCreated, event); err != nil {
		return fmt.Errorf("publish order.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.created event",
		slog.String("order_id", order.OrderID),
	)

	return nil
}

// PublishOrderStatusChanged publishes an order.status_changed event.
func (p *Producer) PublishOrderStatusChanged(ctx context.Context, order *domain.Order, fromStatus string) error {
	data := OrderStatusChangedData{
		OrderID:        order.OrderID,
		UserID:         order.UserID,
		FromStatus:     fromStatus,
		ToStatus:       order.Status,
		RejectedReason: order.RejectedReason,
	}

	event, err := pkgkafka.NewEvent(TopicOrderStatusChanged, order.OrderID, AggregateTypeOrder, SourceCommerceService, data)
	if err != nil {
		return fmt.Errorf("create order.status_changed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderStatusChanged, event); err != nil {
		return fmt.Errorf("publish order.status_changed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.status_changed event",
		slog.String("order_id", order.OrderID),
		slog.String("from", fromStatus),
		slog.String("to", order.Status),
	)

	return nil
}

// PublishSaleRecorded publishes one sale.recorded event per sale record.
func (p *Producer) PublishSaleRecorded(ctx context.Context, sale *domain.SaleRecord) error {
	data := SaleRecordedData{
		SaleID:      sale.ID,
		OrderID:     sale.OrderID,
		ProductID:   sale.ProductID,
		DesignID:    sale.DesignID,
		Size:        string(sale.Size),
		Quantity:    sale.Quantity,
		TotalPrice:  sale.TotalPrice,
		SaleDate:    sale.DisplayDate(),
		ProductName: sale.ProductName,
	}

	event, err := pkgkafka.NewEvent(TopicSaleRecorded, sale.ID, AggregateTypeSale, SourceCommerceService, data)
	if err != nil {
		return fmt.Errorf("create sale.recorded event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicSaleRecorded, event); err != nil {
		return fmt.Errorf("publish sale.recorded event: %w", err)
	}

	return nil
}
