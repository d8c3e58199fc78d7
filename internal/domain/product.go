package domain

import "time"

// Product represents a product in the catalog. Stock is authoritative here;
// the cart subsystem only ever reads it.
type Product struct {
	ID          string    `json:"product_id"`
	Name        string    `json:"name"`
	Price       int64     `json:"price"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// InStock reports whether at least qty units are available. A non-positive
// qty is never in stock.
func (p *Product) InStock(qty int) bool {
	return qty > 0 && qty <= p.Stock
}
