package domain

import (
	"fmt"
	"time"
)

// Order status constants. Stored and rendered capitalized.
const (
	OrderStatusPending   = "Pending"
	OrderStatusConfirmed = "Confirmed"
	OrderStatusDelivered = "Delivered"
	OrderStatusCancelled = "Cancelled"
	OrderStatusRejected  = "Rejected"
)

// Payment methods.
const (
	PaymentBankTransfer   = "Direct Bank Transfer"
	PaymentCashOnDelivery = "Cash on Delivery"
	PaymentCard           = "Credit/Debit Card"
)

// ValidPaymentMethods returns all accepted payment methods.
func ValidPaymentMethods() []string {
	return []string{PaymentBankTransfer, PaymentCashOnDelivery, PaymentCard}
}

// IsValidPaymentMethod checks whether the given method is accepted.
func IsValidPaymentMethod(m string) bool {
	for _, v := range ValidPaymentMethods() {
		if v == m {
			return true
		}
	}
	return false
}

// Order represents a customer order with its line snapshots.
type Order struct {
	OrderID        string       `json:"order_id"`
	UserID         string       `json:"user_id"`
	Lines          []SaleRecord `json:"lines"`
	BillingAmount  int64        `json:"billing_amount"`
	PaymentMethod  string       `json:"payment_method"`
	Status         string       `json:"status"`
	RejectedReason string       `json:"rejected_reason,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// ValidStatuses returns all valid order statuses.
func ValidStatuses() []string {
	return []string{
		OrderStatusPending,
		OrderStatusConfirmed,
		OrderStatusDelivered,
		OrderStatusCancelled,
		OrderStatusRejected,
	}
}

// IsValidStatus checks if a status string is valid.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// AllowedTransitions defines which status transitions are valid. Cancelled,
// Rejected and Delivered are terminal.
func AllowedTransitions() map[string][]string {
	return map[string][]string{
		OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled, OrderStatusRejected},
		OrderStatusConfirmed: {OrderStatusDelivered},
		OrderStatusDelivered: {},
		OrderStatusCancelled: {},
		OrderStatusRejected:  {},
	}
}

// CanTransitionTo checks if the order can transition to the target status.
func (o *Order) CanTransitionTo(target string) bool {
	allowed, ok := AllowedTransitions()[o.Status]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// Editable reports whether the order's lines may still be changed.
func (o *Order) Editable() bool {
	return o.Status == OrderStatusPending
}

// LineRequests converts the order's snapshots back into stock line requests,
// used for compensating returns on cancellation and rejection.
func (o *Order) LineRequests() []LineRequest {
	reqs := make([]LineRequest, 0, len(o.Lines))
	for _, l := range o.Lines {
		reqs = append(reqs, LineRequest{
			ProductID: l.ProductID,
			DesignID:  l.DesignID,
			Size:      l.Size,
			Quantity:  l.Quantity,
		})
	}
	return reqs
}

// FormatOrderID renders an order number as the public order id, e.g.
// FormatOrderID(100) returns "#Order-000100".
func FormatOrderID(n int64) string {
	return fmt.Sprintf("#Order-%06d", n)
}
