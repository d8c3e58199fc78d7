package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openmerce/storefront/internal/domain"
	apperrors "github.com/openmerce/storefront/pkg/errors"
)

const keyPrefix = "cart:"

// CartRepository implements repository.CartRepository using Redis. Carts are
// stored as JSON documents keyed by cart ID with a rolling TTL.
type CartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartRepository creates a new Redis-backed cart repository.
func NewCartRepository(client *redis.Client, ttl time.Duration) *CartRepository {
	return &CartRepository{
		client: client,
		ttl:    ttl,
	}
}

// Get retrieves a cart by cart ID from Redis.
func (r *CartRepository) Get(ctx context.Context, cartID string) (*domain.Cart, error) {
	key := keyPrefix + cartID

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("cart", cartID)
		}
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}

	return &cart, nil
}

// Save persists a cart to Redis with the configured TTL, overwriting any
// existing document for the cart ID.
func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	key := keyPrefix + cart.CartID

	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}

	return nil
}

// Delete removes a cart from Redis by cart ID. Deleting an absent cart is
// not an error; the boolean reports whether a document was removed.
func (r *CartRepository) Delete(ctx context.Context, cartID string) (bool, error) {
	key := keyPrefix + cartID

	n, err := r.client.Del(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis del cart: %w", err)
	}

	return n > 0, nil
}
