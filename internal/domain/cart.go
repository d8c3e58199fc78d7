package domain

import "time"

// Cart represents a per-session shopping cart, keyed by an opaque cart ID.
// A persisted cart always has at least one item: emptiness is modeled as
// "cart does not exist", never as a zero-length document.
type Cart struct {
	CartID    string     `json:"cart_id"`
	Products  []CartItem `json:"products"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem is one product line within a cart. Items are constructed
// per-request and never persisted independently of the owning cart.
type CartItem struct {
	ProductID   string `json:"product_id"`
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	Quantity    int    `json:"quantity"`
}

// TotalAmount calculates the total price of all items in the cart (in cents).
func (c *Cart) TotalAmount() int64 {
	var total int64
	for _, item := range c.Products {
		total += item.Price * int64(item.Quantity)
	}
	return total
}

// ItemCount returns the total number of units across all lines.
func (c *Cart) ItemCount() int {
	var count int
	for _, item := range c.Products {
		count += item.Quantity
	}
	return count
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Products) == 0
}
