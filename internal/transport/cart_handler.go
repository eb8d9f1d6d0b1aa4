package transport

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AddItemRequest represents the add-to-cart payload
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
}

// UpdateQuantityRequest represents the quantity change payload.
// Quantity zero or below removes the line.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// CartHandler handles HTTP requests for the shopping cart. Every
// endpoint works for both anonymous visitors (via the cart token
// header) and signed-in users (via the bearer token).
type CartHandler struct {
	cart   service.CartService
	logger *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cart service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{cart: cart, logger: logger}
}

// RegisterRoutes registers all cart routes behind optional auth
func (h *CartHandler) RegisterRoutes(r chi.Router, optionalAuth func(http.Handler) http.Handler) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Use(optionalAuth)
		r.Get("/", h.GetCart)
		r.Post("/items", h.AddItem)
		r.Put("/items/{productID}", h.UpdateQuantity)
		r.Delete("/items/{productID}", h.RemoveItem)
		r.Delete("/", h.ClearCart)
	})
}

// session builds the cart session from the request: the user id when
// authenticated, otherwise the guest cart token.
func (h *CartHandler) session(r *http.Request) (service.CartSession, bool) {
	if userID, ok := middleware.GetUserID(r.Context()); ok {
		return service.CartSession{UserID: &userID}, true
	}
	if token := middleware.GetCartToken(r); token != "" {
		return service.CartSession{GuestToken: token}, true
	}
	return service.CartSession{}, false
}

// GetCart returns the session's cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(r)
	if !ok {
		// No identity at all means an empty cart, not an error.
		middleware.RespondWithJSON(w, http.StatusOK, service.EmptyCartView())
		return
	}

	view, err := h.cart.Get(r.Context(), session)
	if err != nil {
		h.logger.Error("Failed to load cart", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, view)
}

// AddItem adds one unit of the product to the cart
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing cart token")
		return
	}

	var req AddItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.cart.AddItem(r.Context(), session, req.ProductID)
	if err != nil {
		if err == service.ErrProductUnavailable {
			middleware.RespondWithError(w, http.StatusNotFound, "product is not available")
			return
		}
		h.logger.Error("Failed to add cart item", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to add item")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, view)
}

// UpdateQuantity sets a line's quantity
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing cart token")
		return
	}

	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req UpdateQuantityRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.cart.UpdateQuantity(r.Context(), session, productID, req.Quantity)
	if err != nil {
		if err == repository.ErrCartItemNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "item not in cart")
			return
		}
		h.logger.Error("Failed to update cart quantity", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update quantity")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, view)
}

// RemoveItem removes a line from the cart
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing cart token")
		return
	}

	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	view, err := h.cart.RemoveItem(r.Context(), session, productID)
	if err != nil {
		h.logger.Error("Failed to remove cart item", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to remove item")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, view)
}

// ClearCart empties the cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing cart token")
		return
	}

	if err := h.cart.Clear(r.Context(), session); err != nil {
		h.logger.Error("Failed to clear cart", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to clear cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "cart cleared"})
}
