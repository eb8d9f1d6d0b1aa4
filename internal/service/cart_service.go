package service

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrProductUnavailable = errors.New("product is not available")
)

// CartSession identifies whose cart an operation targets. An anonymous
// visitor carries only a guest token; a signed-in user carries a user id.
type CartSession struct {
	UserID     *uuid.UUID
	GuestToken string
}

// Bound reports whether the session belongs to a signed-in user.
func (s CartSession) Bound() bool {
	return s.UserID != nil
}

// CartView is the cart as returned to callers: the lines plus the
// computed total (sum of price * quantity).
type CartView struct {
	Items []domain.CartItem `json:"items"`
	Total float64           `json:"total"`
}

// CartService maintains the authoritative view of the session's cart.
// Anonymous carts live in the guest store; signed-in carts live in the
// database. Reconcile merges the former into the latter on sign-in.
type CartService interface {
	Get(ctx context.Context, session CartSession) (*CartView, error)
	AddItem(ctx context.Context, session CartSession, productID uuid.UUID) (*CartView, error)
	UpdateQuantity(ctx context.Context, session CartSession, productID uuid.UUID, quantity int) (*CartView, error)
	RemoveItem(ctx context.Context, session CartSession, productID uuid.UUID) (*CartView, error)
	Clear(ctx context.Context, session CartSession) error
	Reconcile(ctx context.Context, userID uuid.UUID, guestToken string) (*CartView, error)
}

type cartService struct {
	carts      repository.CartRepository
	guestCarts repository.GuestCartRepository
	products   repository.ProductRepository
	logger     *zap.Logger
}

// NewCartService creates a new instance of CartService
func NewCartService(
	carts repository.CartRepository,
	guestCarts repository.GuestCartRepository,
	products repository.ProductRepository,
	logger *zap.Logger,
) CartService {
	return &cartService{
		carts:      carts,
		guestCarts: guestCarts,
		products:   products,
		logger:     logger,
	}
}

// Get returns the session's current cart.
func (s *cartService) Get(ctx context.Context, session CartSession) (*CartView, error) {
	if !session.Bound() {
		items, err := s.guestCarts.List(ctx, session.GuestToken)
		if err != nil {
			return nil, err
		}
		return newCartView(items), nil
	}

	cart, err := s.carts.GetOrCreate(ctx, *session.UserID)
	if err != nil {
		return nil, err
	}

	items, err := s.carts.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}

	return newCartView(items), nil
}

// AddItem increments the product's line by one, inserting it at quantity
// one when absent. Write failures on a signed-in cart are logged and
// swallowed; the caller still receives the optimistic view.
func (s *cartService) AddItem(ctx context.Context, session CartSession, productID uuid.UUID) (*CartView, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if err == repository.ErrProductNotFound {
			return nil, ErrProductUnavailable
		}
		return nil, err
	}

	if !session.Bound() {
		items, err := s.guestCarts.AddItem(ctx, session.GuestToken, *product)
		if err != nil {
			return nil, err
		}
		return newCartView(items), nil
	}

	cart, err := s.carts.GetOrCreate(ctx, *session.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.carts.AddItemQuantity(ctx, cart.ID, productID, 1); err != nil {
		// Mirror failures never reach the caller.
		s.logger.Error("Failed to sync cart item",
			zap.String("cart_id", cart.ID.String()),
			zap.String("product_id", productID.String()),
			zap.Error(err),
		)
	}

	items, err := s.carts.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}

	return newCartView(items), nil
}

// UpdateQuantity sets the line's quantity; a non-positive quantity
// behaves exactly like RemoveItem.
func (s *cartService) UpdateQuantity(ctx context.Context, session CartSession, productID uuid.UUID, quantity int) (*CartView, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, session, productID)
	}

	if !session.Bound() {
		items, err := s.guestCarts.SetQuantity(ctx, session.GuestToken, productID, quantity)
		if err != nil {
			return nil, err
		}
		return newCartView(items), nil
	}

	cart, err := s.carts.GetOrCreate(ctx, *session.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.carts.SetItemQuantity(ctx, cart.ID, productID, quantity); err != nil {
		s.logger.Error("Failed to sync cart quantity",
			zap.String("cart_id", cart.ID.String()),
			zap.String("product_id", productID.String()),
			zap.Error(err),
		)
	}

	items, err := s.carts.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}

	return newCartView(items), nil
}

// RemoveItem drops the product's line from the cart.
func (s *cartService) RemoveItem(ctx context.Context, session CartSession, productID uuid.UUID) (*CartView, error) {
	if !session.Bound() {
		items, err := s.guestCarts.RemoveItem(ctx, session.GuestToken, productID)
		if err != nil {
			return nil, err
		}
		return newCartView(items), nil
	}

	cart, err := s.carts.GetOrCreate(ctx, *session.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.carts.DeleteItem(ctx, cart.ID, productID); err != nil && err != repository.ErrCartItemNotFound {
		s.logger.Error("Failed to delete cart item",
			zap.String("cart_id", cart.ID.String()),
			zap.String("product_id", productID.String()),
			zap.Error(err),
		)
	}

	items, err := s.carts.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}

	return newCartView(items), nil
}

// Clear empties the session's cart.
func (s *cartService) Clear(ctx context.Context, session CartSession) error {
	if !session.Bound() {
		return s.guestCarts.Clear(ctx, session.GuestToken)
	}

	cart, err := s.carts.GetOrCreate(ctx, *session.UserID)
	if err != nil {
		return err
	}

	return s.carts.ClearItems(ctx, cart.ID)
}

// Reconcile merges the guest cart into the user's server-side cart on
// sign-in. The merge is additive: a line present on both sides ends up
// with the sum of the two quantities, and lines only present in the
// guest cart are inserted with their quantity. Each guest line is
// deleted as soon as its merge lands, so an interrupted reconciliation
// re-run only merges what is still pending instead of double-counting.
// The server cart is the source of truth afterwards.
func (s *cartService) Reconcile(ctx context.Context, userID uuid.UUID, guestToken string) (*CartView, error) {
	cart, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cart: %w", err)
	}

	if guestToken != "" {
		guestItems, err := s.guestCarts.List(ctx, guestToken)
		if err != nil {
			// The guest cart is unreadable; continue with whatever the
			// server cart already holds.
			s.logger.Error("Failed to read guest cart for merge",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
			guestItems = nil
		}

		for _, item := range guestItems {
			if err := s.carts.AddItemQuantity(ctx, cart.ID, item.Product.ID, item.Quantity); err != nil {
				// The line stays in the guest cart and merges on the
				// next reconciliation.
				s.logger.Error("Failed to merge guest cart line",
					zap.String("cart_id", cart.ID.String()),
					zap.String("product_id", item.Product.ID.String()),
					zap.Error(err),
				)
				continue
			}

			if _, err := s.guestCarts.RemoveItem(ctx, guestToken, item.Product.ID); err != nil {
				s.logger.Error("Failed to clear merged guest cart line",
					zap.String("product_id", item.Product.ID.String()),
					zap.Error(err),
				)
			}
		}
	}

	items, err := s.carts.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reconciled cart: %w", err)
	}

	return newCartView(items), nil
}

// EmptyCartView is the cart of a visitor with no identity at all.
func EmptyCartView() *CartView {
	return newCartView(nil)
}

func newCartView(items []domain.CartItem) *CartView {
	if items == nil {
		items = []domain.CartItem{}
	}
	return &CartView{
		Items: items,
		Total: domain.CartTotal(items),
	}
}
