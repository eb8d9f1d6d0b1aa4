package repository

import (
	"context"
	"database/sql"
	"log"
	"testing"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var testDB *sql.DB

func setupTestDB() (func(context.Context, ...testcontainers.TerminateOption) error, error) {
	var (
		dbName = "testdb"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		context.Background(),
		"postgres:15",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	if err != nil {
		return nil, err
	}

	dbHost, err := dbContainer.Host(context.Background())
	if err != nil {
		return dbContainer.Terminate, err
	}

	dbPort, err := dbContainer.MappedPort(context.Background(), "5432/tcp")
	if err != nil {
		return dbContainer.Terminate, err
	}

	connStr := "postgres://" + dbUser + ":" + dbPwd + "@" + dbHost + ":" + dbPort.Port() + "/" + dbName + "?sslmode=disable"
	testDB, err = sql.Open("pgx", connStr)
	if err != nil {
		return dbContainer.Terminate, err
	}

	_, err = testDB.Exec(`
		CREATE TABLE IF NOT EXISTS products (
			id UUID PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price NUMERIC(10,2) NOT NULL CHECK (price >= 0),
			compare_at_price NUMERIC(10,2),
			stock_quantity INT NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
			category_id UUID,
			slug VARCHAR(255) UNIQUE NOT NULL,
			image_url TEXT NOT NULL DEFAULT '',
			is_featured BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS carts (
			id UUID PRIMARY KEY,
			user_id UUID UNIQUE NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS cart_items (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			cart_id UUID NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
			product_id UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
			quantity INT NOT NULL CHECK (quantity > 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (cart_id, product_id)
		)
	`)
	if err != nil {
		return dbContainer.Terminate, err
	}

	return dbContainer.Terminate, nil
}

func TestMain(m *testing.M) {
	teardown, err := setupTestDB()
	if err != nil {
		log.Fatalf("could not start postgres container: %v", err)
	}

	m.Run()

	if teardown != nil {
		if err := teardown(context.Background()); err != nil {
			log.Printf("could not terminate postgres container: %v", err)
		}
	}
}

func insertTestProduct(t *testing.T, title string, price float64) *domain.Product {
	t.Helper()
	p := &domain.Product{
		ID:            uuid.New(),
		Title:         title,
		Price:         price,
		StockQuantity: 100,
		Slug:          title + "-" + uuid.New().String()[:8],
		CreatedAt:     time.Now(),
	}
	if err := NewProductRepository(testDB).Create(context.Background(), p); err != nil {
		t.Fatalf("failed to insert product: %v", err)
	}
	return p
}

func TestCartRepository_GetOrCreateIsIdempotent(t *testing.T) {
	repo := NewCartRepository(testDB)
	ctx := context.Background()
	userID := uuid.New()

	first, err := repo.GetOrCreate(ctx, userID)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	second, err := repo.GetOrCreate(ctx, userID)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("expected the same cart, got %s and %s", first.ID, second.ID)
	}
}

func TestCartRepository_AddItemQuantityIsAdditive(t *testing.T) {
	repo := NewCartRepository(testDB)
	ctx := context.Background()

	cart, err := repo.GetOrCreate(ctx, uuid.New())
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	p := insertTestProduct(t, "Additive", 10.00)

	if err := repo.AddItemQuantity(ctx, cart.ID, p.ID, 2); err != nil {
		t.Fatalf("AddItemQuantity failed: %v", err)
	}
	if err := repo.AddItemQuantity(ctx, cart.ID, p.ID, 3); err != nil {
		t.Fatalf("AddItemQuantity failed: %v", err)
	}

	qty, err := repo.FindItemQuantity(ctx, cart.ID, p.ID)
	if err != nil {
		t.Fatalf("FindItemQuantity failed: %v", err)
	}
	if qty != 5 {
		t.Errorf("expected quantity 5 after additive upsert, got %d", qty)
	}
}

func TestCartRepository_SetItemQuantityOverwrites(t *testing.T) {
	repo := NewCartRepository(testDB)
	ctx := context.Background()

	cart, err := repo.GetOrCreate(ctx, uuid.New())
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	p := insertTestProduct(t, "Overwrite", 10.00)

	if err := repo.AddItemQuantity(ctx, cart.ID, p.ID, 2); err != nil {
		t.Fatalf("AddItemQuantity failed: %v", err)
	}
	if err := repo.SetItemQuantity(ctx, cart.ID, p.ID, 7); err != nil {
		t.Fatalf("SetItemQuantity failed: %v", err)
	}

	qty, err := repo.FindItemQuantity(ctx, cart.ID, p.ID)
	if err != nil {
		t.Fatalf("FindItemQuantity failed: %v", err)
	}
	if qty != 7 {
		t.Errorf("expected quantity 7 after overwrite, got %d", qty)
	}
}

func TestCartRepository_DeleteItem(t *testing.T) {
	repo := NewCartRepository(testDB)
	ctx := context.Background()

	cart, err := repo.GetOrCreate(ctx, uuid.New())
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	p := insertTestProduct(t, "Deletable", 10.00)

	if err := repo.AddItemQuantity(ctx, cart.ID, p.ID, 1); err != nil {
		t.Fatalf("AddItemQuantity failed: %v", err)
	}
	if err := repo.DeleteItem(ctx, cart.ID, p.ID); err != nil {
		t.Fatalf("DeleteItem failed: %v", err)
	}

	if _, err := repo.FindItemQuantity(ctx, cart.ID, p.ID); err != ErrCartItemNotFound {
		t.Errorf("expected ErrCartItemNotFound, got %v", err)
	}
	if err := repo.DeleteItem(ctx, cart.ID, p.ID); err != ErrCartItemNotFound {
		t.Errorf("expected ErrCartItemNotFound on second delete, got %v", err)
	}
}

func TestCartRepository_ListItemsJoinsProducts(t *testing.T) {
	repo := NewCartRepository(testDB)
	ctx := context.Background()

	cart, err := repo.GetOrCreate(ctx, uuid.New())
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	a := insertTestProduct(t, "First", 10.00)
	b := insertTestProduct(t, "Second", 25.50)

	if err := repo.AddItemQuantity(ctx, cart.ID, a.ID, 2); err != nil {
		t.Fatalf("AddItemQuantity failed: %v", err)
	}
	if err := repo.AddItemQuantity(ctx, cart.ID, b.ID, 1); err != nil {
		t.Fatalf("AddItemQuantity failed: %v", err)
	}

	items, err := repo.ListItems(ctx, cart.ID)
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(items))
	}

	if items[0].Product.ID != a.ID || items[0].Quantity != 2 {
		t.Errorf("expected first line to be the earliest insert, got %+v", items[0])
	}
	if domain.CartTotal(items) != 45.50 {
		t.Errorf("expected total 45.50, got %.2f", domain.CartTotal(items))
	}
}
