package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openmerce/storefront/internal/domain"
	"github.com/openmerce/storefront/internal/event"
	"github.com/openmerce/storefront/internal/repository"
	apperrors "github.com/openmerce/storefront/pkg/errors"
)

// CartValidator is the validation strategy applied to requested cart lines
// before they are persisted. It returns the lines that survive validation
// (possibly with reduced quantities) plus one warning per adjusted line, in
// the order the lines were submitted.
type CartValidator interface {
	Validate(ctx context.Context, items []domain.CartItem) (valid []domain.CartItem, warnings []string, err error)
}

// StockCartValidator reconciles requested quantities against available
// inventory. A line whose product is missing aborts the whole request; a
// line over stock is clamped down to what is available; a line with no
// stock at all is dropped. Clamped and dropped lines each contribute a
// warning.
type StockCartValidator struct {
	stock repository.StockReader
}

// NewStockCartValidator creates the default cart validator.
func NewStockCartValidator(stock repository.StockReader) *StockCartValidator {
	return &StockCartValidator{stock: stock}
}

// Validate checks every requested line against current stock.
func (v *StockCartValidator) Validate(ctx context.Context, items []domain.CartItem) ([]domain.CartItem, []string, error) {
	valid := make([]domain.CartItem, 0, len(items))
	var warnings []string

	for _, item := range items {
		available, err := v.stock.Stock(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, nil, apperrors.NotFoundMsg("Product not found")
			}
			return nil, nil, fmt.Errorf("look up stock for product %s: %w", item.ProductID, err)
		}

		if item.Quantity <= available {
			valid = append(valid, item)
			continue
		}

		if available > 0 {
			clamped := item
			clamped.Quantity = available
			valid = append(valid, clamped)
		}
		warnings = append(warnings, fmt.Sprintf("%s has only %d stocks", item.Name, available))
	}

	return valid, warnings, nil
}

// CartService implements the business logic for cart operations.
type CartService struct {
	repo      repository.CartRepository
	validator CartValidator
	producer  *event.Producer
	logger    *slog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(repo repository.CartRepository, validator CartValidator, producer *event.Producer, logger *slog.Logger) *CartService {
	return &CartService{
		repo:      repo,
		validator: validator,
		producer:  producer,
		logger:    logger,
	}
}

// AppendCart replaces the cart's contents with the validated form of the
// requested lines. The store is updated first and validation warnings are
// reported afterwards: when some quantities were reduced the adjusted cart
// is returned together with a stock-exceeded error listing every
// adjustment, so callers always observe the persisted state.
//
// When validation leaves no sellable lines the existing cart (if any) is
// deleted and the call fails with an invalid-input error.
func (s *CartService) AppendCart(ctx context.Context, cartID string, items []domain.CartItem) (*domain.Cart, error) {
	if cartID == "" {
		return nil, apperrors.InvalidInput("cart id is required")
	}
	if len(items) == 0 {
		return nil, apperrors.InvalidInput("Products cannot be empty")
	}

	existing, err := s.repo.Get(ctx, cartID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("get cart: %w", err)
		}
		existing = nil
	}

	valid, warnings, err := s.validator.Validate(ctx, items)
	if err != nil {
		return nil, err
	}

	if len(valid) == 0 {
		// Nothing sellable survived. An existing cart is cleared so the
		// store never holds lines the inventory cannot back.
		if existing != nil {
			if _, err := s.repo.Delete(ctx, cartID); err != nil {
				return nil, fmt.Errorf("delete cart: %w", err)
			}

			if err := s.producer.PublishCartCleared(ctx, cartID); err != nil {
				s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
					slog.String("cart_id", cartID),
					slog.String("error", err.Error()),
				)
			}

			s.logger.InfoContext(ctx, "cart cleared by stock validation",
				slog.String("cart_id", cartID),
			)
		}
		return nil, apperrors.InvalidInput("Products cannot be empty")
	}

	now := time.Now().UTC()
	cart := &domain.Cart{
		CartID:    cartID,
		Products:  valid,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if existing != nil {
		cart.CreatedAt = existing.CreatedAt
	}

	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}

	if err := s.producer.PublishCartUpdated(ctx, cart); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("cart_id", cartID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "cart saved",
		slog.String("cart_id", cartID),
		slog.Int("items", len(cart.Products)),
		slog.Int("warnings", len(warnings)),
	)

	if len(warnings) > 0 {
		// The cart is already persisted in its adjusted form; the error
		// carries the concatenated warnings for the client.
		return cart, apperrors.StockExceeded(strings.Join(warnings, ""))
	}

	return cart, nil
}

// GetCart retrieves a cart by its cart ID. A missing cart is not an error:
// the caller receives an empty, unpersisted cart for the ID.
func (s *CartService) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	cart, err := s.repo.Get(ctx, cartID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return &domain.Cart{
				CartID:   cartID,
				Products: []domain.CartItem{},
			}, nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	return cart, nil
}

// DeleteCart removes a cart by its cart ID. Deleting an absent cart
// succeeds; the boolean reports whether a cart was actually removed.
func (s *CartService) DeleteCart(ctx context.Context, cartID string) (bool, error) {
	deleted, err := s.repo.Delete(ctx, cartID)
	if err != nil {
		return false, fmt.Errorf("delete cart: %w", err)
	}

	if deleted {
		if err := s.producer.PublishCartCleared(ctx, cartID); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
				slog.String("cart_id", cartID),
				slog.String("error", err.Error()),
			)
		}

		s.logger.InfoContext(ctx, "cart deleted",
			slog.String("cart_id", cartID),
		)
	}

	return deleted, nil
}
