package domain

import (
	"math"
	"strings"
	"time"
)

// Size is a closed clothing size enum.
type Size string

const (
	SizeS    Size = "s"
	SizeM    Size = "m"
	SizeL    Size = "l"
	SizeXL   Size = "xl"
	SizeXXL  Size = "xxl"
	SizeXXXL Size = "xxxl"
)

// ValidSizes returns all valid sizes in ascending order.
func ValidSizes() []Size {
	return []Size{SizeS, SizeM, SizeL, SizeXL, SizeXXL, SizeXXXL}
}

// ParseSize normalizes a size string (case-insensitive) to the enum value.
// The second return value is false when the string is not a known size.
func ParseSize(s string) (Size, bool) {
	candidate := Size(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range ValidSizes() {
		if v == candidate {
			return v, true
		}
	}
	return "", false
}

// Promotion types.
const (
	PromotionNone          = "No Promotion"
	PromotionFlashSale     = "Flash Sale"
	PromotionClearance     = "Clearance"
	PromotionSeasonalOffer = "Seasonal Offer"
)

// ValidPromotionTypes returns all valid promotion types.
func ValidPromotionTypes() []string {
	return []string{PromotionNone, PromotionFlashSale, PromotionClearance, PromotionSeasonalOffer}
}

// IsValidPromotionType checks whether the given promotion type is known.
func IsValidPromotionType(p string) bool {
	for _, v := range ValidPromotionTypes() {
		if v == p {
			return true
		}
	}
	return false
}

// Stock status labels.
const (
	StockStatusIn  = "In Stock"
	StockStatusOut = "Out of Stock"
)

// SizeBucket holds the remaining unit count for one size of a design.
type SizeBucket struct {
	Size  Size `json:"size"`
	Count int  `json:"count"`
}

// Design is a variant of a product (one image, its own stock).
type Design struct {
	ID       string       `json:"id"`
	ImageURL string       `json:"image_url"`
	Total    int          `json:"total"`
	Sizes    []SizeBucket `json:"sizes,omitempty"`
}

// Sized reports whether the design is sold by size, i.e. it has at least one
// bucket with remaining stock. A design whose buckets are all empty is
// treated as unsized for validation purposes.
func (d *Design) Sized() bool {
	for _, b := range d.Sizes {
		if b.Count > 0 {
			return true
		}
	}
	return false
}

// Bucket returns the bucket for the given size, or nil.
func (d *Design) Bucket(size Size) *SizeBucket {
	for i := range d.Sizes {
		if d.Sizes[i].Size == size {
			return &d.Sizes[i]
		}
	}
	return nil
}

// Product represents a cloth with its design variants.
type Product struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Keywords      []string  `json:"keywords,omitempty"`
	Category      string    `json:"category"`
	SubCategory   string    `json:"sub_category,omitempty"`
	Brand         string    `json:"brand,omitempty"`
	Price         int64     `json:"price"`
	FinalPrice    int64     `json:"final_price"`
	Discount      int       `json:"discount"`
	PromotionType string    `json:"promotion_type"`
	StockStatus   string    `json:"stock_status"`
	Stock         int       `json:"stock"`
	Quantity      int       `json:"quantity"`
	SellingRatio  float64   `json:"selling_ratio"`
	Designs       []Design  `json:"designs,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// FindDesign returns the design with the given id, or nil.
func (p *Product) FindDesign(designID string) *Design {
	for i := range p.Designs {
		if p.Designs[i].ID == designID {
			return &p.Designs[i]
		}
	}
	return nil
}

// DiscountPercent derives the integer discount percentage from price and
// final price.
func DiscountPercent(price, finalPrice int64) int {
	if price <= 0 {
		return 0
	}
	return int(math.Round(float64(price-finalPrice) / float64(price) * 100))
}

// SellingRatioFor computes (stock - quantity) / stock. Zero stock yields 0
// rather than NaN.
func SellingRatioFor(stock, quantity int) float64 {
	if stock == 0 {
		return 0
	}
	return float64(stock-quantity) / float64(stock)
}
