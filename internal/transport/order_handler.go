package transport

import (
	"errors"
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CheckoutRequest represents the checkout payload
type CheckoutRequest struct {
	ShippingAddress domain.ShippingAddress `json:"shipping_address" validate:"required"`
}

// OrderHandler handles HTTP requests for checkout and order history
type OrderHandler struct {
	orders service.OrderService
	logger *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

// RegisterRoutes registers checkout behind optional auth (guests can
// order) and history behind required auth.
func (h *OrderHandler) RegisterRoutes(r chi.Router, optionalAuth, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Post("/checkout", h.Checkout)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Get("/", h.ListMine)
			r.Get("/{orderID}", h.GetOrder)
		})
	})
}

// Checkout places an order from the session's cart
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var session service.CartSession
	if userID, ok := middleware.GetUserID(r.Context()); ok {
		session = service.CartSession{UserID: &userID}
	} else if token := middleware.GetCartToken(r); token != "" {
		session = service.CartSession{GuestToken: token}
	} else {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing cart token")
		return
	}

	var req CheckoutRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	detail, err := h.orders.Checkout(r.Context(), session, req.ShippingAddress)
	if err != nil {
		if err == service.ErrEmptyCart {
			middleware.RespondWithError(w, http.StatusBadRequest, "cart is empty")
			return
		}
		if errors.Is(err, repository.ErrInsufficientStock) {
			middleware.RespondWithError(w, http.StatusConflict, err.Error())
			return
		}
		h.logger.Error("Checkout failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "checkout failed")
		return
	}

	h.logger.Info("Order placed",
		zap.String("order_id", detail.Order.ID.String()),
		zap.Float64("total", detail.Order.TotalAmount),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, detail)
}

// ListMine returns the authenticated customer's order history
func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orders, err := h.orders.ListByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list orders", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}

	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

// GetOrder returns one of the customer's orders with its items
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	detail, err := h.orders.GetOrder(r.Context(), orderID)
	if err != nil {
		if err == repository.ErrOrderNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.Error("Failed to load order", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load order")
		return
	}

	// Customers only see their own orders; admins use the admin surface.
	role, _ := middleware.GetUserRole(r.Context())
	if role != "admin" && (detail.Order.UserID == nil || *detail.Order.UserID != userID) {
		middleware.RespondWithError(w, http.StatusNotFound, "order not found")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, detail)
}
