package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type stubCartService struct {
	view *service.CartView
}

func (s *stubCartService) Get(ctx context.Context, session service.CartSession) (*service.CartView, error) {
	return s.view, nil
}

func (s *stubCartService) AddItem(ctx context.Context, session service.CartSession, productID uuid.UUID) (*service.CartView, error) {
	return s.view, nil
}

func (s *stubCartService) UpdateQuantity(ctx context.Context, session service.CartSession, productID uuid.UUID, quantity int) (*service.CartView, error) {
	return s.view, nil
}

func (s *stubCartService) RemoveItem(ctx context.Context, session service.CartSession, productID uuid.UUID) (*service.CartView, error) {
	return s.view, nil
}

func (s *stubCartService) Clear(ctx context.Context, session service.CartSession) error {
	return nil
}

func (s *stubCartService) Reconcile(ctx context.Context, userID uuid.UUID, guestToken string) (*service.CartView, error) {
	return s.view, nil
}

func newCartRouter(cart service.CartService) chi.Router {
	router := chi.NewRouter()
	passThrough := func(next http.Handler) http.Handler { return next }
	NewCartHandler(cart, zap.NewNop()).RegisterRoutes(router, passThrough)
	return router
}

func TestGetCart_NoIdentityReturnsEmptyCartShape(t *testing.T) {
	router := newCartRouter(&stubCartService{view: service.EmptyCartView()})

	req := httptest.NewRequest("GET", "/api/cart", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	if strings.Contains(w.Body.String(), `"items":null`) {
		t.Errorf("expected an empty items array, got %s", w.Body.String())
	}

	var view service.CartView
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if view.Items == nil || len(view.Items) != 0 {
		t.Errorf("expected items to decode as an empty slice, got %+v", view.Items)
	}
	if view.Total != 0 {
		t.Errorf("expected total 0, got %.2f", view.Total)
	}
}

func TestGetCart_CartTokenReachesTheService(t *testing.T) {
	router := newCartRouter(&stubCartService{view: service.EmptyCartView()})

	req := httptest.NewRequest("GET", "/api/cart", nil)
	req.Header.Set(middleware.CartTokenHeader, "guest-abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for a guest cart request, got %d", w.Code)
	}
}
