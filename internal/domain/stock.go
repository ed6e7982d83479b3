package domain

// OpKind is the direction of a stock mutation.
type OpKind string

const (
	OpBuy    OpKind = "buy"
	OpReturn OpKind = "return"
)

// IsValidOpKind checks whether the given kind is a known stock operation.
func IsValidOpKind(op OpKind) bool {
	return op == OpBuy || op == OpReturn
}

// LineRequest is one requested stock movement: a quantity of one design
// (optionally one size) of one product.
type LineRequest struct {
	ProductID string `json:"product_id"`
	DesignID  string `json:"design_id"`
	Size      Size   `json:"size,omitempty"`
	Quantity  int    `json:"quantity"`
}

// StockUpdate reports the post-mutation state of one product after a batch
// has been applied. Clamped is true when a floor-0 clamp fired on any field,
// which signals drift from writers outside this service.
type StockUpdate struct {
	ProductID    string  `json:"product_id"`
	DesignID     string  `json:"design_id"`
	Size         Size    `json:"size,omitempty"`
	Op           OpKind  `json:"op"`
	Quantity     int     `json:"quantity"`
	NewQuantity  int     `json:"new_quantity"`
	NewTotal     int     `json:"new_total"`
	SellingRatio float64 `json:"selling_ratio"`
	Clamped      bool    `json:"clamped"`
}
