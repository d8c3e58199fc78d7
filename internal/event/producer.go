package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openmerce/storefront/internal/domain"
	pkgkafka "github.com/openmerce/storefront/pkg/kafka"
)

// Kafka topic constants for storefront domain events.
const (
	TopicProductCreated = "storefront.product.created"
	TopicProductUpdated = "storefront.product.updated"
	TopicProductDeleted = "storefront.product.deleted"
	TopicCartUpdated    = "storefront.cart.updated"
	TopicCartCleared    = "storefront.cart.cleared"
)

// Aggregate type constants.
const (
	AggregateTypeProduct = "product"
	AggregateTypeCart    = "cart"
)

// Source identifier for events originating from the storefront service.
const SourceStorefront = "storefront"

// ProductCreatedData is the payload for a product.created event.
type ProductCreatedData struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Category string `json:"category,omitempty"`
	Stock    int    `json:"stock"`
}

// ProductUpdatedData is the payload for a product.updated event.
type ProductUpdatedData struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Category string `json:"category,omitempty"`
	Stock    int    `json:"stock"`
}

// ProductDeletedData is the payload for a product.deleted event.
type ProductDeletedData struct {
	ID string `json:"id"`
}

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	CartID      string `json:"cart_id"`
	ItemCount   int    `json:"item_count"`
	TotalAmount int64  `json:"total_amount"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	CartID string `json:"cart_id"`
}

// Producer publishes storefront domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the storefront service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishProductCreated publishes a product.created event.
func (p *Producer) PublishProductCreated(ctx context.Context, product *domain.Product) error {
	data := ProductCreatedData{
		ID:       product.ID,
		Name:     product.Name,
		Price:    product.Price,
		Category: product.Category,
		Stock:    product.Stock,
	}

	event, err := pkgkafka.NewEvent(TopicProductCreated, product.ID, AggregateTypeProduct, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create product.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicProductCreated, event); err != nil {
		return fmt.Errorf("publish product.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published product.created event",
		slog.String("product_id", product.ID),
		slog.String("name", product.Name),
	)

	return nil
}

// PublishProductUpdated publishes a product.updated event.
func (p *Producer) PublishProductUpdated(ctx context.Context, product *domain.Product) error {
	data := ProductUpdatedData{
		ID:       product.ID,
		Name:     product.Name,
		Price:    product.Price,
		Category: product.Category,
		Stock:    product.Stock,
	}

	event, err := pkgkafka.NewEvent(TopicProductUpdated, product.ID, AggregateTypeProduct, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create product.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicProductUpdated, event); err != nil {
		return fmt.Errorf("publish product.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published product.updated event",
		slog.String("product_id", product.ID),
	)

	return nil
}

// PublishProductDeleted publishes a product.deleted event.
func (p *Producer) PublishProductDeleted(ctx context.Context, productID string) error {
	data := ProductDeletedData{ID: productID}

	event, err := pkgkafka.NewEvent(TopicProductDeleted, productID, AggregateTypeProduct, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create product.deleted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicProductDeleted, event); err != nil {
		return fmt.Errorf("publish product.deleted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published product.deleted event",
		slog.String("product_id", productID),
	)

	return nil
}

// PublishCartUpdated publishes a cart.updated event with the persisted
// cart's totals.
func (p *Producer) PublishCartUpdated(ctx context.Context, cart *domain.Cart) error {
	data := CartUpdatedData{
		CartID:      cart.CartID,
		ItemCount:   cart.ItemCount(),
		TotalAmount: cart.TotalAmount(),
	}

	event, err := pkgkafka.NewEvent(TopicCartUpdated, cart.CartID, AggregateTypeCart, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create cart.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartUpdated, event); err != nil {
		return fmt.Errorf("publish cart.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("cart_id", cart.CartID),
		slog.Int("item_count", data.ItemCount),
	)

	return nil
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, cartID string) error {
	data := CartClearedData{CartID: cartID}

	event, err := pkgkafka.NewEvent(TopicCartCleared, cartID, AggregateTypeCart, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create cart.cleared event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartCleared, event); err != nil {
		return fmt.Errorf("publish cart.cleared event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.cleared event",
		slog.String("cart_id", cartID),
	)

	return nil
}
