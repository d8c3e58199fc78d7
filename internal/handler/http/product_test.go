package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/openmerce/storefront/internal/domain"
	"github.com/openmerce/storefront/internal/repository"
	"github.com/openmerce/storefront/internal/service"
	apperrors "github.com/openmerce/storefront/pkg/errors"
)

// ============================================================================
// Mock ProductRepository
// ============================================================================

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepository) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockProductRepository) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	args := m.Called(ctx, name, excludeID)
	return args.Bool(0), args.Error(1)
}

// ============================================================================
// Test helpers
// ============================================================================

func testProductHandler(repo *mockProductRepository) *ProductHandler {
	logger := testLogger()
	svc := service.NewProductService(repo, service.NewUniqueNameValidator(repo), testEventProducer(), logger)
	return NewProductHandler(svc, logger)
}

func setupProductRouter(handler *ProductHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/", handler.CreateProduct)
		r.Get("/", handler.ListProducts)
		r.Get("/{id}", handler.GetProduct)
		r.Put("/{id}", handler.UpdateProduct)
		r.Delete("/{id}", handler.DeleteProduct)
	})
	return r
}

func storedProduct(id string) *domain.Product {
	now := time.Now().UTC()
	return &domain.Product{
		ID:          id,
		Name:        "Widget",
		Price:       1999,
		Description: "A widget",
		Category:    "widgets",
		Stock:       12,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ============================================================================
// CreateProduct
// ============================================================================

func TestCreateProduct_HTTP_Success(t *testing.T) {
	repo := new(mockProductRepository)
	router := setupProductRouter(testProductHandler(repo))

	repo.On("ExistsByName", mock.Anything, "Widget", "").Return(false, nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil)

	body, _ := json.Marshal(map[string]any{"name": "Widget", "price": 1999, "stock": 5})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	product, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Widget", product["name"])
	assert.NotEmpty(t, product["product_id"])

	repo.AssertExpectations(t)
}

func TestCreateProduct_HTTP_MissingName(t *testing.T) {
	repo := new(mockProductRepository)
	router := setupProductRouter(testProductHandler(repo))

	body, _ := json.Marshal(map[string]any{"price": 1999})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "Product name is required", resp.Error.Message)

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateProduct_HTTP_NonPositivePrice(t *testing.T) {
	repo := new(mockProductRepository)
	router := setupProductRouter(testProductHandler(repo))

	body, _ := json.Marshal(map[string]any{"name": "Widget", "price": 0})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "Product price must be a positive number", resp.Error.Message)
}

func TestCreateProduct_HTTP_DuplicateName(t *testing.T) {
	repo := new(mockProductRepository)
	router := setupProductRouter(testProductHandler(repo))

	repo.On("ExistsByName", mock.Anything, "Widget", "").Return(true, nil)

	body, _ := json.Marshal(map[string]any{"name": "Widget", "price": 1999})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "A product with the same name already exists", resp.Error.Message)

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// ============================================================================
// GetProduct
// ============================================================================

func TestGetProduct_HTTP_Found(t *testing.T) {
	repo := new(mockProductRepository)
	router := setupProductRouter(testProductHandler(repo))

	repo.On("GetByID", mock.Anything, "prod-1").Return(storedProduct("prod-1"), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/prod-1", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	product, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "prod-1", product["product_id"])
}

func TestGetProduct_HTTP_NotFound(t *testing.T) {
	repo := new(mockProductRepository)
	router := setupProductRouter(testProductHandler(repo))

	repo.On("GetByID", mock.Anything, "missing").Return(nil, apperrors.ErrNotFound)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/missing", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

// ============================================================================
// ListProducts
// ============================================================================

func TestListProducts_HTTP_Success(t *testing.T) {
	repo := new(mockProductRepository)
	router := setupProductRouter(testProductHandler(repo))

	repo.On("List", mock.Anything, mock.AnythingOfType("repository.ProductFilter")).
		Return([]domain.Product{*storedProduct("prod-1")}, 1, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?category=widgets", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data       []map[string]any `json:"data"`
		TotalCount int              `json:"total_count"`
		Page       int              `json:"page"`
		PerPage    int              `json:"per_page"`
		TotalPages int              `json:"total_pages"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp.TotalCount)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 20, resp.PerPage)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "prod-1", resp.Data[0]["product_id"])
}

func TestListProducts_HTTP_InvalidPage(t *testing.T) {
	repo := new(mockProductRepository)
	router := setupProductRouter(testProductHandler(repo))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?page=zero", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

// ============================================================================
// UpdateProduct
// ============================================================================

func TestUpdateProduct_HTTP_Success(t *testing.T) {
	repo := new(mockProductRepository)
	router := setupProductRouter(testProductHandler(repo))

	repo.On("GetByID", mock.Anything, "prod-1").Return(storedProduct("prod-1"), nil)
	repo.On("ExistsByName", mock.Anything, "Super Widget", "prod-1").Return(false, nil)
	repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil)

	body, _ := json.Marshal(map[string]any{"name": "Super Widget"})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/products/prod-1", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	product, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Super Widget", product["name"])

	repo.AssertExpectations(t)
}

func TestUpdateProduct_HTTP_DuplicateName(t *testing.T) {
	repo := new(mockProductRepository)
	router := setupProductRouter(testProductHandler(repo))

	repo.On("GetByID", mock.Anything, "prod-1").Return(storedProduct("prod-1"), nil)
	repo.On("ExistsByName", mock.Anything, "Taken", "prod-1").Return(true, nil)

	body, _ := json.Marshal(map[string]any{"name": "Taken"})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/products/prod-1", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "A product with the same name already exists", resp.Error.Message)

	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

// ============================================================================
// DeleteProduct
// ============================================================================

func TestDeleteProduct_HTTP_Existing(t *testing.T) {
	repo := new(mockProductRepository)
	router := setupProductRouter(testProductHandler(repo))

	repo.On("Delete", mock.Anything, "prod-1").Return(true, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/products/prod-1", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, rec.Body.Len())
	repo.AssertExpectations(t)
}

func TestDeleteProduct_HTTP_Absent(t *testing.T) {
	repo := new(mockProductRepository)
	router := setupProductRouter(testProductHandler(repo))

	repo.On("Delete", mock.Anything, "missing").Return(false, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/products/missing", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	repo.AssertExpectations(t)
}
