package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/openmerce/storefront/internal/domain"
	"github.com/openmerce/storefront/internal/event"
	apperrors "github.com/openmerce/storefront/pkg/errors"
	pkgkafka "github.com/openmerce/storefront/pkg/kafka"
)

// --- Mocks ---

type mockCartRepository struct {
	mock.Mock
}

func (m *mockCartRepository) Get(ctx context.Context, cartID string) (*domain.Cart, error) {
	args := m.Called(ctx, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	args := m.Called(ctx, cart)
	return args.Error(0)
}

func (m *mockCartRepository) Delete(ctx context.Context, cartID string) (bool, error) {
	args := m.Called(ctx, cartID)
	return args.Bool(0), args.Error(1)
}

type mockStockReader struct {
	mock.Mock
}

func (m *mockStockReader) Stock(ctx context.Context, productID string) (int, error) {
	args := m.Called(ctx, productID)
	return args.Int(0), args.Error(1)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestCartService(repo *mockCartRepository, stock *mockStockReader) *CartService {
	logger := newTestLogger()
	// Kafka publishing fails silently in tests (no real broker).
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	kafkaProducer := pkgkafka.NewProducer(kafkaCfg, logger)
	producer := event.NewProducer(kafkaProducer, logger)
	return NewCartService(repo, NewStockCartValidator(stock), producer, logger)
}

func cartItem(productID, name string, quantity int) domain.CartItem {
	return domain.CartItem{
		ProductID: productID,
		Name:      name,
		Price:     1999,
		Quantity:  quantity,
	}
}

func existingCart(cartID string) *domain.Cart {
	now := time.Now().UTC().Add(-time.Hour)
	return &domain.Cart{
		CartID:    cartID,
		Products:  []domain.CartItem{cartItem("prod-1", "Keyboard", 1)},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// --- StockCartValidator ---

func TestStockCartValidator_AllInStock(t *testing.T) {
	stock := new(mockStockReader)
	v := NewStockCartValidator(stock)
	ctx := context.Background()

	stock.On("Stock", ctx, "prod-1").Return(10, nil)
	stock.On("Stock", ctx, "prod-2").Return(5, nil)

	items := []domain.CartItem{
		cartItem("prod-1", "Keyboard", 2),
		cartItem("prod-2", "Mouse", 5),
	}

	valid, warnings, err := v.Validate(ctx, items)

	require.NoError(t, err)
	assert.Equal(t, items, valid)
	assert.Empty(t, warnings)

	stock.AssertExpectations(t)
}

func TestStockCartValidator_ClampsToAvailableStock(t *testing.T) {
	stock := new(mockStockReader)
	v := NewStockCartValidator(stock)
	ctx := context.Background()

	stock.On("Stock", ctx, "prod-1").Return(2, nil)

	valid, warnings, err := v.Validate(ctx, []domain.CartItem{cartItem("prod-1", "Keyboard", 5)})

	require.NoError(t, err)
	require.Len(t, valid, 1)
	assert.Equal(t, 2, valid[0].Quantity)
	require.Len(t, warnings, 1)
	assert.Equal(t, "Keyboard has only 2 stocks", warnings[0])

	stock.AssertExpectations(t)
}

func TestStockCartValidator_DropsZeroStockLine(t *testing.T) {
	stock := new(mockStockReader)
	v := NewStockCartValidator(stock)
	ctx := context.Background()

	stock.On("Stock", ctx, "prod-1").Return(0, nil)

	valid, warnings, err := v.Validate(ctx, []domain.CartItem{cartItem("prod-1", "Keyboard", 3)})

	require.NoError(t, err)
	assert.Empty(t, valid)
	require.Len(t, warnings, 1)
	assert.Equal(t, "Keyboard has only 0 stocks", warnings[0])

	stock.AssertExpectations(t)
}

func TestStockCartValidator_UnknownProductFails(t *testing.T) {
	stock := new(mockStockReader)
	v := NewStockCartValidator(stock)
	ctx := context.Background()

	stock.On("Stock", ctx, "prod-1").Return(10, nil)
	stock.On("Stock", ctx, "prod-missing").Return(0, apperrors.ErrNotFound)

	items := []domain.CartItem{
		cartItem("prod-1", "Keyboard", 1),
		cartItem("prod-missing", "Ghost", 1),
	}

	valid, warnings, err := v.Validate(ctx, items)

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "Product not found", appErr.Message)
	assert.Nil(t, valid)
	assert.Nil(t, warnings)
}

func TestStockCartValidator_WarningsKeepInputOrder(t *testing.T) {
	stock := new(mockStockReader)
	v := NewStockCartValidator(stock)
	ctx := context.Background()

	stock.On("Stock", ctx, "prod-1").Return(1, nil)
	stock.On("Stock", ctx, "prod-2").Return(10, nil)
	stock.On("Stock", ctx, "prod-3").Return(0, nil)

	items := []domain.CartItem{
		cartItem("prod-1", "Keyboard", 4),
		cartItem("prod-2", "Mouse", 1),
		cartItem("prod-3", "Monitor", 2),
	}

	valid, warnings, err := v.Validate(ctx, items)

	require.NoError(t, err)
	require.Len(t, valid, 2)
	assert.Equal(t, "prod-1", valid[0].ProductID)
	assert.Equal(t, 1, valid[0].Quantity)
	assert.Equal(t, "prod-2", valid[1].ProductID)
	require.Len(t, warnings, 2)
	assert.Equal(t, "Keyboard has only 1 stocks", warnings[0])
	assert.Equal(t, "Monitor has only 0 stocks", warnings[1])
}

// --- AppendCart ---

func TestAppendCart_EmptyInput(t *testing.T) {
	repo := new(mockCartRepository)
	stock := new(mockStockReader)
	svc := newTestCartService(repo, stock)
	ctx := context.Background()

	cart, err := svc.AppendCart(ctx, "cart-1", nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "Products cannot be empty", appErr.Message)
	assert.Nil(t, cart)

	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestAppendCart_CreatesNewCart(t *testing.T) {
	repo := new(mockCartRepository)
	stock := new(mockStockReader)
	svc := newTestCartService(repo, stock)
	ctx := context.Background()

	repo.On("Get", ctx, "cart-1").Return(nil, apperrors.NotFound("cart", "cart-1"))
	stock.On("Stock", ctx, "prod-1").Return(10, nil)
	repo.On("Save", ctx, mock.AnythingOfType("*domain.Cart")).Return(nil)

	cart, err := svc.AppendCart(ctx, "cart-1", []domain.CartItem{cartItem("prod-1", "Keyboard", 2)})

	require.NoError(t, err)
	require.NotNil(t, cart)
	assert.Equal(t, "cart-1", cart.CartID)
	require.Len(t, cart.Products, 1)
	assert.Equal(t, 2, cart.Products[0].Quantity)
	assert.NotZero(t, cart.CreatedAt)

	repo.AssertExpectations(t)
	stock.AssertExpectations(t)
}

func TestAppendCart_ReplacesExistingCart(t *testing.T) {
	repo := new(mockCartRepository)
	stock := new(mockStockReader)
	svc := newTestCartService(repo, stock)
	ctx := context.Background()

	existing := existingCart("cart-1")
	repo.On("Get", ctx, "cart-1").Return(existing, nil)
	stock.On("Stock", ctx, "prod-2").Return(10, nil)

	var saved *domain.Cart
	repo.On("Save", ctx, mock.AnythingOfType("*domain.Cart")).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*domain.Cart)
	}).Return(nil)

	cart, err := svc.AppendCart(ctx, "cart-1", []domain.CartItem{cartItem("prod-2", "Mouse", 3)})

	require.NoError(t, err)
	require.NotNil(t, saved)
	// Contents are replaced wholesale, not merged with the old lines.
	require.Len(t, saved.Products, 1)
	assert.Equal(t, "prod-2", saved.Products[0].ProductID)
	// Creation time survives the overwrite.
	assert.Equal(t, existing.CreatedAt, cart.CreatedAt)
	assert.True(t, cart.UpdatedAt.After(existing.UpdatedAt))

	repo.AssertExpectations(t)
}

func TestAppendCart_ClampPersistsThenFails(t *testing.T) {
	repo := new(mockCartRepository)
	stock := new(mockStockReader)
	svc := newTestCartService(repo, stock)
	ctx := context.Background()

	repo.On("Get", ctx, "cart-1").Return(nil, apperrors.NotFound("cart", "cart-1"))
	stock.On("Stock", ctx, "prod-1").Return(2, nil)

	var saved *domain.Cart
	repo.On("Save", ctx, mock.AnythingOfType("*domain.Cart")).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*domain.Cart)
	}).Return(nil)

	cart, err := svc.AppendCart(ctx, "cart-1", []domain.CartItem{cartItem("prod-1", "Keyboard", 5)})

	// The clamped cart is stored before the error is raised.
	require.NotNil(t, saved)
	require.Len(t, saved.Products, 1)
	assert.Equal(t, 2, saved.Products[0].Quantity)

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrStockExceeded))
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "Keyboard has only 2 stocks", appErr.Message)

	// The persisted state is returned alongside the error.
	require.NotNil(t, cart)
	assert.Equal(t, saved, cart)

	repo.AssertExpectations(t)
}

func TestAppendCart_ConcatenatesWarningsWithoutSeparator(t *testing.T) {
	repo := new(mockCartRepository)
	stock := new(mockStockReader)
	svc := newTestCartService(repo, stock)
	ctx := context.Background()

	repo.On("Get", ctx, "cart-1").Return(nil, apperrors.NotFound("cart", "cart-1"))
	stock.On("Stock", ctx, "prod-1").Return(1, nil)
	stock.On("Stock", ctx, "prod-2").Return(0, nil)
	stock.On("Stock", ctx, "prod-3").Return(5, nil)
	repo.On("Save", ctx, mock.AnythingOfType("*domain.Cart")).Return(nil)

	items := []domain.CartItem{
		cartItem("prod-1", "Keyboard", 4),
		cartItem("prod-2", "Mouse", 2),
		cartItem("prod-3", "Monitor", 1),
	}

	_, err := svc.AppendCart(ctx, "cart-1", items)

	require.Error(t, err)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "Keyboard has only 1 stocksMouse has only 0 stocks", appErr.Message)

	repo.AssertExpectations(t)
}

func TestAppendCart_AllOutOfStock_NoExistingCart(t *testing.T) {
	repo := new(mockCartRepository)
	stock := new(mockStockReader)
	svc := newTestCartService(repo, stock)
	ctx := context.Background()

	repo.On("Get", ctx, "cart-1").Return(nil, apperrors.NotFound("cart", "cart-1"))
	stock.On("Stock", ctx, "prod-1").Return(0, nil)

	cart, err := svc.AppendCart(ctx, "cart-1", []domain.CartItem{cartItem("prod-1", "Keyboard", 3)})

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "Products cannot be empty", appErr.Message)
	assert.Nil(t, cart)

	// Nothing to clear and nothing to save.
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestAppendCart_AllOutOfStock_ClearsExistingCart(t *testing.T) {
	repo := new(mockCartRepository)
	stock := new(mockStockReader)
	svc := newTestCartService(repo, stock)
	ctx := context.Background()

	repo.On("Get", ctx, "cart-1").Return(existingCart("cart-1"), nil)
	stock.On("Stock", ctx, "prod-1").Return(0, nil)
	repo.On("Delete", ctx, "cart-1").Return(true, nil)

	cart, err := svc.AppendCart(ctx, "cart-1", []domain.CartItem{cartItem("prod-1", "Keyboard", 3)})

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	assert.Nil(t, cart)

	repo.AssertCalled(t, "Delete", ctx, "cart-1")
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAppendCart_UnknownProductAbortsWithoutWrites(t *testing.T) {
	repo := new(mockCartRepository)
	stock := new(mockStockReader)
	svc := newTestCartService(repo, stock)
	ctx := context.Background()

	repo.On("Get", ctx, "cart-1").Return(existingCart("cart-1"), nil)
	stock.On("Stock", ctx, "prod-missing").Return(0, apperrors.ErrNotFound)

	cart, err := svc.AppendCart(ctx, "cart-1", []domain.CartItem{cartItem("prod-missing", "Ghost", 1)})

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.Nil(t, cart)

	// A missing product aborts before any mutation.
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestAppendCart_SaveError(t *testing.T) {
	repo := new(mockCartRepository)
	stock := new(mockStockReader)
	svc := newTestCartService(repo, stock)
	ctx := context.Background()

	repo.On("Get", ctx, "cart-1").Return(nil, apperrors.NotFound("cart", "cart-1"))
	stock.On("Stock", ctx, "prod-1").Return(10, nil)
	repo.On("Save", ctx, mock.AnythingOfType("*domain.Cart")).Return(errors.New("redis down"))

	cart, err := svc.AppendCart(ctx, "cart-1", []domain.CartItem{cartItem("prod-1", "Keyboard", 1)})

	require.Error(t, err)
	assert.Nil(t, cart)
	assert.Contains(t, err.Error(), "save cart")
}

func TestAppendCart_CanceledStockLookupPropagates(t *testing.T) {
	repo := new(mockCartRepository)
	stock := new(mockStockReader)
	svc := newTestCartService(repo, stock)
	ctx := context.Background()

	repo.On("Get", ctx, "cart-1").Return(nil, apperrors.NotFound("cart", "cart-1"))
	stock.On("Stock", ctx, "prod-1").Return(0, context.Canceled)

	cart, err := svc.AppendCart(ctx, "cart-1", []domain.CartItem{cartItem("prod-1", "Keyboard", 1)})

	// Cancellation surfaces as itself, never as not-found or an empty cart.
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Nil(t, cart)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

// --- GetCart ---

func TestGetCart_Existing(t *testing.T) {
	repo := new(mockCartRepository)
	stock := new(mockStockReader)
	svc := newTestCartService(repo, stock)
	ctx := context.Background()

	expected := existingCart("cart-1")
	repo.On("Get", ctx, "cart-1").Return(expected, nil)

	cart, err := svc.GetCart(ctx, "cart-1")

	require.NoError(t, err)
	assert.Equal(t, expected, cart)

	repo.AssertExpectations(t)
}

func TestGetCart_AbsentReturnsEmptyCart(t *testing.T) {
	repo := new(mockCartRepository)
	stock := new(mockStockReader)
	svc := newTestCartService(repo, stock)
	ctx := context.Background()

	repo.On("Get", ctx, "cart-1").Return(nil, apperrors.NotFound("cart", "cart-1"))

	cart, err := svc.GetCart(ctx, "cart-1")

	require.NoError(t, err)
	require.NotNil(t, cart)
	assert.Equal(t, "cart-1", cart.CartID)
	assert.Empty(t, cart.Products)
	assert.True(t, cart.IsEmpty())

	repo.AssertExpectations(t)
}

// --- DeleteCart ---

func TestDeleteCart_Existing(t *testing.T) {
	repo := new(mockCartRepository)
	stock := new(mockStockReader)
	svc := newTestCartService(repo, stock)
	ctx := context.Background()

	repo.On("Delete", ctx, "cart-1").Return(true, nil)

	deleted, err := svc.DeleteCart(ctx, "cart-1")

	require.NoError(t, err)
	assert.True(t, deleted)

	repo.AssertExpectations(t)
}

func TestDeleteCart_AbsentIsIdempotent(t *testing.T) {
	repo := new(mockCartRepository)
	stock := new(mockStockReader)
	svc := newTestCartService(repo, stock)
	ctx := context.Background()

	repo.On("Delete", ctx, "cart-1").Return(false, nil)

	deleted, err := svc.DeleteCart(ctx, "cart-1")

	require.NoError(t, err)
	assert.False(t, deleted)

	repo.AssertExpectations(t)
}
