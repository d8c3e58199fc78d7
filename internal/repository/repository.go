package repository

import (
	"context"

	"github.com/openmerce/storefront/internal/domain"
)

// ProductFilter defines filter criteria for listing products.
type ProductFilter struct {
	Category *string
	Search   *string
	MinPrice *int64
	MaxPrice *int64
	Page     int
	PerPage  int
}

// ProductRepository defines the interface for catalog persistence operations.
type ProductRepository interface {
	// Create inserts a new product into the store.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a product by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// List returns products matching the given filter along with the total count.
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error)

	// Update modifies an existing product in the store.
	Update(ctx context.Context, product *domain.Product) error

	// Delete removes a product by its identifier. Returns false when the
	// product did not exist.
	Delete(ctx context.Context, id string) (bool, error)

	// ExistsByName reports whether a product other than excludeID already
	// carries the given (trimmed) name. excludeID is empty on create.
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
}

// StockReader is the inventory lookup boundary consumed by cart validation.
// It is read-only: cart reconciliation never mutates stock.
type StockReader interface {
	// Stock returns the available stock for a product, or a not-found error
	// when no such product exists.
	Stock(ctx context.Context, productID string) (int, error)
}

// CartRepository defines the interface for cart persistence operations.
type CartRepository interface {
	// Get retrieves a cart by its cart ID, or a not-found error when absent.
	Get(ctx context.Context, cartID string) (*domain.Cart, error)

	// Save persists a cart, overwriting any existing document for the cart ID.
	Save(ctx context.Context, cart *domain.Cart) error

	// Delete removes a cart by its cart ID. Returns false when no cart
	// existed; absence is not an error.
	Delete(ctx context.Context, cartID string) (bool, error)
}
