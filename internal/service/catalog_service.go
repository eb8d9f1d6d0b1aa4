package service

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const trendingWindow = 10

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// ProductPage is a paginated product listing
type ProductPage struct {
	Products   []*domain.Product `json:"products"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

// ProductDetail bundles a product with its review summary
type ProductDetail struct {
	Product       *domain.Product            `json:"product"`
	Reviews       []repository.ProductReview `json:"reviews"`
	AverageRating float64                    `json:"average_rating"`
	ReviewCount   int                        `json:"review_count"`
}

// CatalogService defines the interface for product and category logic
type CatalogService interface {
	CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*ProductDetail, error)
	ListProducts(ctx context.Context, categoryID *uuid.UUID, page, pageSize int, sortBy string, sortOrder repository.SortOrder) (*ProductPage, error)
	SearchProducts(ctx context.Context, query string, page, pageSize int) (*ProductPage, error)
	FeaturedProducts(ctx context.Context, limit int) ([]*domain.Product, error)
	TrendingProducts(ctx context.Context) ([]*domain.Product, error)
	Restock(ctx context.Context, id uuid.UUID, quantity int) error

	CreateCategory(ctx context.Context, name string) (*domain.Category, error)
	UpdateCategory(ctx context.Context, category *domain.Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error)

	CreateReview(ctx context.Context, review *domain.Review) error
	ListReviews(ctx context.Context, productID uuid.UUID) ([]repository.ProductReview, error)
}

type catalogService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	reviews    repository.ReviewRepository
	logger     *zap.Logger
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	reviews repository.ReviewRepository,
	logger *zap.Logger,
) CatalogService {
	return &catalogService{
		products:   products,
		categories: categories,
		reviews:    reviews,
		logger:     logger,
	}
}

// CreateProduct stores a new product, generating a unique slug from its title
func (s *catalogService) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if product.Slug == "" {
		product.Slug = GenerateSlug(product.Title)
	}
	product.CreatedAt = time.Now()

	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

// UpdateProduct rewrites an existing product. The slug is preserved so
// published links stay valid.
func (s *catalogService) UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	existing, err := s.products.FindByID(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	product.Slug = existing.Slug
	product.CreatedAt = existing.CreatedAt

	if err := s.products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return product, nil
}

// DeleteProduct removes a product
func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.products.Delete(ctx, id)
}

// GetProduct retrieves a product by ID
func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.products.FindByID(ctx, id)
}

// GetProductBySlug retrieves a product with its reviews for the detail page
func (s *catalogService) GetProductBySlug(ctx context.Context, slug string) (*ProductDetail, error) {
	product, err := s.products.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	detail := &ProductDetail{Product: product, Reviews: []repository.ProductReview{}}

	reviews, err := s.reviews.ListByProduct(ctx, product.ID)
	if err != nil {
		// The product page still renders without its reviews
		s.logger.Error("Failed to load product reviews",
			zap.String("product_id", product.ID.String()),
			zap.Error(err),
		)
		return detail, nil
	}
	detail.Reviews = reviews

	avg, count, err := s.reviews.AverageRating(ctx, product.ID)
	if err != nil {
		s.logger.Error("Failed to load review summary",
			zap.String("product_id", product.ID.String()),
			zap.Error(err),
		)
		return detail, nil
	}
	detail.AverageRating = avg
	detail.ReviewCount = count

	return detail, nil
}

// ListProducts returns a page of products, optionally filtered by category
func (s *catalogService) ListProducts(ctx context.Context, categoryID *uuid.UUID, page, pageSize int, sortBy string, sortOrder repository.SortOrder) (*ProductPage, error) {
	page, pageSize = normalizePage(page, pageSize)

	products, total, err := s.products.List(ctx, categoryID, page, pageSize, sortBy, sortOrder)
	if err != nil {
		return nil, err
	}

	return newProductPage(products, total, page, pageSize), nil
}

// SearchProducts returns a page of products matching the query
func (s *catalogService) SearchProducts(ctx context.Context, query string, page, pageSize int) (*ProductPage, error) {
	page, pageSize = normalizePage(page, pageSize)

	products, total, err := s.products.Search(ctx, query, page, pageSize)
	if err != nil {
		return nil, err
	}

	return newProductPage(products, total, page, pageSize), nil
}

// FeaturedProducts returns the featured selection for the home page
func (s *catalogService) FeaturedProducts(ctx context.Context, limit int) ([]*domain.Product, error) {
	if limit <= 0 {
		limit = trendingWindow
	}
	return s.products.Featured(ctx, limit)
}

// TrendingProducts returns the best sellers over the recent sales window.
// When the aggregate is unavailable or empty it falls back to the latest
// arrivals so the storefront section never renders blank.
func (s *catalogService) TrendingProducts(ctx context.Context) ([]*domain.Product, error) {
	var trending []*domain.Product
	err := repository.WithRetry(ctx, s.logger, "products.trending", func(ctx context.Context) error {
		var err error
		trending, err = s.products.Trending(ctx, trendingWindow)
		return err
	})
	if err == nil && len(trending) > 0 {
		return trending, nil
	}
	if err != nil {
		s.logger.Warn("Trending aggregate failed, falling back to latest products", zap.Error(err))
	}

	return s.products.Latest(ctx, trendingWindow)
}

// Restock increases a product's stock level
func (s *catalogService) Restock(ctx context.Context, id uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("restock quantity must be positive, got %d", quantity)
	}
	return s.products.AdjustStock(ctx, id, quantity)
}

// CreateCategory stores a new category with a slug derived from its name
func (s *catalogService) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	category := &domain.Category{
		ID:        uuid.New(),
		Name:      name,
		Slug:      Slugify(name),
		CreatedAt: time.Now(),
	}

	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}

// UpdateCategory renames a category, regenerating its slug
func (s *catalogService) UpdateCategory(ctx context.Context, category *domain.Category) error {
	category.Slug = Slugify(category.Name)
	return s.categories.Update(ctx, category)
}

// DeleteCategory removes a category. Products keep existing with a null
// category reference.
func (s *catalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.categories.Delete(ctx, id)
}

// ListCategories returns all categories
func (s *catalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categories.List(ctx)
}

// GetCategoryBySlug retrieves a category by slug
func (s *catalogService) GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	return s.categories.FindBySlug(ctx, slug)
}

// CreateReview stores a customer review after verifying the product exists
func (s *catalogService) CreateReview(ctx context.Context, review *domain.Review) error {
	if review.Rating < 1 || review.Rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5, got %d", review.Rating)
	}

	if _, err := s.products.FindByID(ctx, review.ProductID); err != nil {
		return err
	}

	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	review.CreatedAt = time.Now()

	return s.reviews.Create(ctx, review)
}

// ListReviews returns all reviews for a product
func (s *catalogService) ListReviews(ctx context.Context, productID uuid.UUID) ([]repository.ProductReview, error) {
	return s.reviews.ListByProduct(ctx, productID)
}

// Slugify lowercases a string and collapses every non-alphanumeric run
// into a single hyphen.
func Slugify(s string) string {
	slug := slugStrip.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(slug, "-")
}

// GenerateSlug builds a product slug from the title plus a short random
// suffix so repeated titles never collide.
func GenerateSlug(title string) string {
	suffix := strconv.FormatInt(rand.Int63n(36*36*36*36*36*36), 36)
	base := Slugify(title)
	if base == "" {
		base = "product"
	}
	return base + "-" + suffix
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

func newProductPage(products []*domain.Product, total, page, pageSize int) *ProductPage {
	if products == nil {
		products = []*domain.Product{}
	}
	totalPages := (total + pageSize - 1) / pageSize
	return &ProductPage{
		Products:   products,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
