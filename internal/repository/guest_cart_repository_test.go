package repository

import (
	"context"
	"testing"
	"time"

	"storefront/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupGuestCartRepo(t *testing.T) (GuestCartRepository, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err, "failed to start miniredis")
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewGuestCartRepository(client), mr
}

func guestTestProduct(title string, price float64) domain.Product {
	return domain.Product{
		ID:        uuid.New(),
		Title:     title,
		Price:     price,
		Slug:      title,
		CreatedAt: time.Now(),
	}
}

func TestGuestCartRepository_AddItemIncrements(t *testing.T) {
	repo, _ := setupGuestCartRepo(t)
	ctx := context.Background()
	p := guestTestProduct("lamp", 12.00)

	_, err := repo.AddItem(ctx, "tok", p)
	require.NoError(t, err)
	items, err := repo.AddItem(ctx, "tok", p)
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestGuestCartRepository_CartsAreIsolatedByToken(t *testing.T) {
	repo, _ := setupGuestCartRepo(t)
	ctx := context.Background()

	_, err := repo.AddItem(ctx, "alice", guestTestProduct("lamp", 12.00))
	require.NoError(t, err)

	items, err := repo.List(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, items, "the other token should see an empty cart")
}

func TestGuestCartRepository_SetQuantityNonPositiveRemoves(t *testing.T) {
	repo, _ := setupGuestCartRepo(t)
	ctx := context.Background()
	p := guestTestProduct("lamp", 12.00)

	_, err := repo.AddItem(ctx, "tok", p)
	require.NoError(t, err)

	items, err := repo.SetQuantity(ctx, "tok", p.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, items, "a non-positive quantity should drop the line")
}

func TestGuestCartRepository_SetQuantityUnknownLine(t *testing.T) {
	repo, _ := setupGuestCartRepo(t)

	_, err := repo.SetQuantity(context.Background(), "tok", uuid.New(), 3)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
}

func TestGuestCartRepository_WritesRefreshExpiry(t *testing.T) {
	repo, mr := setupGuestCartRepo(t)
	ctx := context.Background()
	p := guestTestProduct("lamp", 12.00)

	_, err := repo.AddItem(ctx, "tok", p)
	require.NoError(t, err)

	ttl := mr.TTL("guest_cart:tok")
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, guestCartTTL)

	mr.FastForward(guestCartTTL / 2)
	_, err = repo.AddItem(ctx, "tok", p)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, mr.TTL("guest_cart:tok"), guestCartTTL-time.Minute,
		"a write should slide the expiry forward")
}

func TestGuestCartRepository_ListOrdersBySnapshotAge(t *testing.T) {
	repo, _ := setupGuestCartRepo(t)
	ctx := context.Background()

	older := guestTestProduct("older", 5.00)
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := guestTestProduct("newer", 6.00)

	_, err := repo.AddItem(ctx, "tok", newer)
	require.NoError(t, err)
	_, err = repo.AddItem(ctx, "tok", older)
	require.NoError(t, err)

	items, err := repo.List(ctx, "tok")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "older", items[0].Product.Title)
}

func TestGuestCartRepository_ClearDeletesTheKey(t *testing.T) {
	repo, mr := setupGuestCartRepo(t)
	ctx := context.Background()

	_, err := repo.AddItem(ctx, "tok", guestTestProduct("lamp", 12.00))
	require.NoError(t, err)

	require.NoError(t, repo.Clear(ctx, "tok"))
	assert.False(t, mr.Exists("guest_cart:tok"))

	items, err := repo.List(ctx, "tok")
	require.NoError(t, err)
	assert.Empty(t, items)
}
