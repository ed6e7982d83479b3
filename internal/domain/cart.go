package domain

import "time"

// Cart holds a user's pending line requests between browsing and checkout.
type Cart struct {
	UserID    string        `json:"user_id"`
	Items     []LineRequest `json:"items"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// ItemCount returns the total number of units in the cart.
func (c *Cart) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// FindItemIndex returns the index of the line matching the given product,
// design and size, or -1.
func (c *Cart) FindItemIndex(productID, designID string, size Size) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID && c.Items[i].DesignID == designID && c.Items[i].Size == size {
			return i
		}
	}
	return -1
}
