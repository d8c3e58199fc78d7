package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openmerce/storefront/internal/domain"
	"github.com/openmerce/storefront/internal/service"
	apperrors "github.com/openmerce/storefront/pkg/errors"
	"github.com/openmerce/storefront/pkg/httputil"
	"github.com/openmerce/storefront/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CartItemRequest is one requested cart line.
type CartItemRequest struct {
	ProductID   string `json:"product_id" validate:"required"`
	Name        string `json:"name" validate:"required,min=1,max=500"`
	Price       int64  `json:"price" validate:"gte=0"`
	Description string `json:"description" validate:"max=2000"`
	Category    string `json:"category" validate:"max=255"`
	Quantity    int    `json:"quantity" validate:"required,gte=1"`
}

// AppendCartRequest is the JSON request body for replacing a cart's
// contents. Emptiness of products is a business rule, not a shape rule, so
// the service reports it with its own message.
type AppendCartRequest struct {
	CartID   string            `json:"cart_id" validate:"required"`
	Products []CartItemRequest `json:"products" validate:"dive"`
}

// --- Handlers ---

// AppendCart handles POST /api/v1/cart
func (h *CartHandler) AppendCart(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req AppendCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	items := make([]domain.CartItem, len(req.Products))
	for i, p := range req.Products {
		items[i] = domain.CartItem{
			ProductID:   p.ProductID,
			Name:        p.Name,
			Price:       p.Price,
			Description: p.Description,
			Category:    p.Category,
			Quantity:    p.Quantity,
		}
	}

	cart, err := h.service.AppendCart(r.Context(), req.CartID, items)
	if err != nil {
		// Quantity adjustments surface after the cart was stored: report
		// the warnings and the persisted cart together.
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && errors.Is(err, apperrors.ErrStockExceeded) && cart != nil {
			httputil.WriteJSON(w, appErr.Status, httputil.Response{
				Data:  cart,
				Error: &httputil.ErrorResponse{Code: appErr.Code, Message: appErr.Message},
			})
			return
		}
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cart})
}

// GetCart handles GET /api/v1/cart/{cartId}
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cartId")
	if cartID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "cart id is required"},
		})
		return
	}

	cart, err := h.service.GetCart(r.Context(), cartID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cart})
}

// DeleteCart handles DELETE /api/v1/cart/{cartId}
func (h *CartHandler) DeleteCart(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "cartId")
	if cartID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "cart id is required"},
		})
		return
	}

	// Deleting an absent cart succeeds; the operation is idempotent.
	if _, err := h.service.DeleteCart(r.Context(), cartID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
