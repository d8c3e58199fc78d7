package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFound(t *testing.T) {
	err := NotFound("product", "prod-1")

	assert.Equal(t, "NOT_FOUND", err.Code)
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Message, "prod-1")
}

func TestNotFoundMsg(t *testing.T) {
	err := NotFoundMsg("Product not found")

	assert.Equal(t, "NOT_FOUND", err.Code)
	assert.Equal(t, "Product not found", err.Message)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestInvalidInput(t *testing.T) {
	err := InvalidInput("Products cannot be empty")

	assert.Equal(t, "INVALID_INPUT", err.Code)
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestStockExceeded(t *testing.T) {
	err := StockExceeded("Widget has only 2 stocks")

	assert.Equal(t, "STOCK_EXCEEDED", err.Code)
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.Equal(t, "Widget has only 2 stocks", err.Message)
	assert.True(t, errors.Is(err, ErrStockExceeded))
}

func TestAlreadyExists(t *testing.T) {
	err := AlreadyExists("product", "name", "Widget")

	assert.Equal(t, "ALREADY_EXISTS", err.Code)
	assert.Equal(t, http.StatusConflict, err.Status)
	assert.True(t, errors.Is(err, ErrAlreadyExists))
}

func TestAppError_SurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("validate cart: %w", NotFoundMsg("Product not found"))

	var appErr *AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, "Product not found", appErr.Message)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error", NotFound("cart", "c1"), http.StatusNotFound},
		{"sentinel not found", ErrNotFound, http.StatusNotFound},
		{"sentinel already exists", ErrAlreadyExists, http.StatusConflict},
		{"sentinel conflict", ErrConflict, http.StatusConflict},
		{"sentinel invalid input", ErrInvalidInput, http.StatusBadRequest},
		{"sentinel stock exceeded", ErrStockExceeded, http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped sentinel", fmt.Errorf("get cart: %w", ErrNotFound), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
