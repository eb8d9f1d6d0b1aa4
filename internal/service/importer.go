package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ImportStats summarizes one CSV import run
type ImportStats struct {
	Total   int      `json:"total"`
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
}

// Importer loads products in bulk from CSV files
type Importer interface {
	ImportProducts(ctx context.Context, r io.Reader) (*ImportStats, error)
}

type importer struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	logger     *zap.Logger
}

// NewImporter creates a new instance of Importer
func NewImporter(
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	logger *zap.Logger,
) Importer {
	return &importer{
		products:   products,
		categories: categories,
		logger:     logger,
	}
}

// Expected CSV header: title,description,price,compare_at_price,stock_quantity,category,image_url
// Column order is taken from the header row, so extra or reordered columns
// are accepted as long as the required ones are present.
var requiredColumns = []string{"title", "price", "category"}

// ImportProducts reads a product CSV and inserts one product per row.
// A bad row is counted and reported but never aborts the rest of the
// file; categories named in the file are created on first use.
func (imp *importer) ImportProducts(ctx context.Context, r io.Reader) (*ImportStats, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("CSV is missing required column %q", name)
		}
	}

	categoryCache, err := imp.loadCategories(ctx)
	if err != nil {
		return nil, err
	}

	stats := &ImportStats{Errors: []string{}}
	for row := 2; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			stats.Total++
			stats.fail(row, err)
			continue
		}

		stats.Total++
		if err := imp.importRow(ctx, columns, record, categoryCache); err != nil {
			stats.fail(row, err)
			continue
		}
		stats.Success++
	}

	imp.logger.Info("Product import finished",
		zap.Int("total", stats.Total),
		zap.Int("success", stats.Success),
		zap.Int("failed", stats.Failed),
	)

	return stats, nil
}

func (imp *importer) importRow(ctx context.Context, columns map[string]int, record []string, categoryCache map[string]uuid.UUID) error {
	field := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	title := field("title")
	if title == "" {
		return fmt.Errorf("title is required")
	}

	price, err := strconv.ParseFloat(field("price"), 64)
	if err != nil {
		return fmt.Errorf("invalid price %q", field("price"))
	}
	if price < 0 {
		return fmt.Errorf("price must not be negative, got %.2f", price)
	}

	categoryName := field("category")
	if categoryName == "" {
		return fmt.Errorf("category is required")
	}
	categoryID, err := imp.resolveCategory(ctx, categoryName, categoryCache)
	if err != nil {
		return err
	}

	product := &domain.Product{
		ID:          uuid.New(),
		Title:       title,
		Description: field("description"),
		Price:       price,
		CategoryID:  &categoryID,
		Slug:        GenerateSlug(title),
		ImageURL:    field("image_url"),
		CreatedAt:   time.Now(),
	}

	if raw := field("compare_at_price"); raw != "" {
		compareAt, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid compare_at_price %q", raw)
		}
		product.CompareAtPrice = &compareAt
	}

	if raw := field("stock_quantity"); raw != "" {
		stock, err := strconv.Atoi(raw)
		if err != nil || stock < 0 {
			return fmt.Errorf("invalid stock_quantity %q", raw)
		}
		product.StockQuantity = stock
	}

	if err := imp.products.Create(ctx, product); err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// loadCategories pre-fetches all categories into a case-insensitive
// name index so the row loop never re-queries known categories.
func (imp *importer) loadCategories(ctx context.Context) (map[string]uuid.UUID, error) {
	categories, err := imp.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	cache := make(map[string]uuid.UUID, len(categories))
	for _, c := range categories {
		cache[strings.ToLower(c.Name)] = c.ID
	}
	return cache, nil
}

func (imp *importer) resolveCategory(ctx context.Context, name string, cache map[string]uuid.UUID) (uuid.UUID, error) {
	key := strings.ToLower(name)
	if id, ok := cache[key]; ok {
		return id, nil
	}

	// Slugs are unique in the database; distinct names can slugify to
	// the same string, so auto-created categories get a random suffix
	// like imported products do.
	category := &domain.Category{
		ID:        uuid.New(),
		Name:      name,
		Slug:      GenerateSlug(name),
		CreatedAt: time.Now(),
	}
	if err := imp.categories.Create(ctx, category); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create category %q: %w", name, err)
	}

	cache[key] = category.ID
	return category.ID, nil
}

func (s *ImportStats) fail(row int, err error) {
	s.Failed++
	s.Errors = append(s.Errors, fmt.Sprintf("Row %d: %v", row, err))
}
