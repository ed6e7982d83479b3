package domain

import "time"

// SaleRecord is an immutable snapshot of one order line at purchase time.
// Price, name, promotion and image are captured so later catalog edits do not
// rewrite history.
type SaleRecord struct {
	ID            string    `json:"id"`
	OrderID       string    `json:"order_id"`
	ProductID     string    `json:"product_id"`
	DesignID      string    `json:"design_id"`
	Size          Size      `json:"size,omitempty"`
	ProductName   string    `json:"product_name"`
	Quantity      int       `json:"quantity"`
	TotalPrice    int64     `json:"total_price"`
	PromotionType string    `json:"promotion_type"`
	SaleDate      time.Time `json:"sale_date"`
	DesignImage   string    `json:"design_image,omitempty"`
}

// DisplayDate renders the sale date as dd/mm/yyyy for invoices and exports.
func (s *SaleRecord) DisplayDate() string {
	return s.SaleDate.Format("02/01/2006")
}
