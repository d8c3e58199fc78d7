package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openmerce/storefront/internal/domain"
	"github.com/openmerce/storefront/internal/event"
	"github.com/openmerce/storefront/internal/repository"
	apperrors "github.com/openmerce/storefront/pkg/errors"
)

// ProductValidator is the validation strategy applied before a product is
// created or updated. excludeID carries the product's own ID on update so a
// product can keep its current name; it is empty on create.
type ProductValidator interface {
	Validate(ctx context.Context, name string, price int64, excludeID string) error
}

// UniqueNameValidator enforces the catalog business rules: a non-blank name,
// a positive price, and no two products sharing a name. Pure read-then-decide
// against the catalog store; no side effects.
type UniqueNameValidator struct {
	repo repository.ProductRepository
}

// NewUniqueNameValidator creates the default product validator.
func NewUniqueNameValidator(repo repository.ProductRepository) *UniqueNameValidator {
	return &UniqueNameValidator{repo: repo}
}

// Validate checks the product's name and price against the catalog rules.
func (v *UniqueNameValidator) Validate(ctx context.Context, name string, price int64, excludeID string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return apperrors.InvalidInput("Product name is required")
	}
	if price <= 0 {
		return apperrors.InvalidInput("Product price must be a positive number")
	}

	exists, err := v.repo.ExistsByName(ctx, trimmed, excludeID)
	if err != nil {
		return fmt.Errorf("check product name uniqueness: %w", err)
	}
	if exists {
		return apperrors.InvalidInput("A product with the same name already exists")
	}

	return nil
}

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	ID          string
	Name        string
	Price       int64
	Description string
	Category    string
	Stock       int
}

// UpdateProductInput holds the parameters for a partial product update.
type UpdateProductInput struct {
	Name        *string
	Price       *int64
	Description *string
	Category    *string
	Stock       *int
}

// ProductService implements the business logic for catalog operations.
type ProductService struct {
	repo      repository.ProductRepository
	validator ProductValidator
	producer  *event.Producer
	logger    *slog.Logger
}

// NewProductService creates a new product service.
func NewProductService(repo repository.ProductRepository, validator ProductValidator, producer *event.Producer, logger *slog.Logger) *ProductService {
	return &ProductService{
		repo:      repo,
		validator: validator,
		producer:  producer,
		logger:    logger,
	}
}

// CreateProduct validates and creates a new product. When no ID is supplied
// a fresh one is generated for this product; IDs are never shared between
// creations.
func (s *ProductService) CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	if err := s.validator.Validate(ctx, input.Name, input.Price, ""); err != nil {
		return nil, err
	}
	if input.Stock < 0 {
		return nil, apperrors.InvalidInput("stock must not be negative")
	}

	id := input.ID
	if id == "" {
		id = uuid.New().String()
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:          id,
		Name:        strings.TrimSpace(input.Name),
		Price:       input.Price,
		Description: input.Description,
		Category:    input.Category,
		Stock:       input.Stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	if err := s.producer.PublishProductCreated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.created event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
		// Event publishing never fails the operation.
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("name", product.Name),
	)

	return product, nil
}

// GetProduct retrieves a product by its ID.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	return product, nil
}

// ListProducts returns a filtered, paginated product list with the total count.
func (s *ProductService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}

	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}

	return products, total, nil
}

// UpdateProduct applies partial updates to an existing product. The
// uniqueness and price rules are re-checked only when the name or price is
// being changed, mirroring catalog create.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, input UpdateProductInput) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("get product for update: %w", err)
	}

	if input.Name != nil || input.Price != nil {
		name := product.Name
		if input.Name != nil {
			name = *input.Name
		}
		price := product.Price
		if input.Price != nil {
			price = *input.Price
		}
		if err := s.validator.Validate(ctx, name, price, id); err != nil {
			return nil, err
		}
	}

	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, apperrors.InvalidInput("stock must not be negative")
		}
		product.Stock = *input.Stock
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	if err := s.producer.PublishProductUpdated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.updated event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product updated",
		slog.String("product_id", product.ID),
		slog.String("name", product.Name),
	)

	return product, nil
}

// DeleteProduct removes a product by its ID. Returns false when no product
// with the given ID existed.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) (bool, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete product: %w", err)
	}

	if deleted {
		if err := s.producer.PublishProductDeleted(ctx, id); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish product.deleted event",
				slog.String("product_id", id),
				slog.String("error", err.Error()),
			)
		}

		s.logger.InfoContext(ctx, "product deleted",
			slog.String("product_id", id),
		)
	}

	return deleted, nil
}
