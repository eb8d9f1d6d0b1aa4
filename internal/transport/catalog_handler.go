package transport

import (
	"net/http"
	"strconv"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateReviewRequest represents the review submission payload
type CreateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// CatalogHandler handles the public product browsing surface
type CatalogHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalog service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

// RegisterRoutes registers all catalog routes
func (h *CatalogHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/catalog", func(r chi.Router) {
		r.Get("/products", h.ListProducts)
		r.Get("/products/search", h.SearchProducts)
		r.Get("/products/featured", h.FeaturedProducts)
		r.Get("/products/trending", h.TrendingProducts)
		r.Get("/products/{slug}", h.GetProduct)
		r.Get("/products/{slug}/reviews", h.ListReviews)
		r.Get("/categories", h.ListCategories)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/products/{slug}/reviews", h.CreateReview)
		})
	})
}

// ListProducts returns a page of products, optionally filtered by the
// category query parameter (a category slug).
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)

	var categoryID *uuid.UUID
	if slug := r.URL.Query().Get("category"); slug != "" {
		category, err := h.catalog.GetCategoryBySlug(r.Context(), slug)
		if err != nil {
			if err == repository.ErrCategoryNotFound {
				middleware.RespondWithError(w, http.StatusNotFound, "category not found")
				return
			}
			h.logger.Error("Failed to resolve category", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
			return
		}
		categoryID = &category.ID
	}

	sortBy := r.URL.Query().Get("sort")
	sortOrder := repository.SortOrderDesc
	if r.URL.Query().Get("order") == "asc" {
		sortOrder = repository.SortOrderAsc
	}

	result, err := h.catalog.ListProducts(r.Context(), categoryID, page, pageSize, sortBy, sortOrder)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// SearchProducts returns products matching the q query parameter
func (h *CatalogHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing search query")
		return
	}
	page, pageSize := pageParams(r)

	result, err := h.catalog.SearchProducts(r.Context(), query, page, pageSize)
	if err != nil {
		h.logger.Error("Product search failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "search failed")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// FeaturedProducts returns the featured selection
func (h *CatalogHandler) FeaturedProducts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	products, err := h.catalog.FeaturedProducts(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to load featured products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load featured products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// TrendingProducts returns the recent best sellers
func (h *CatalogHandler) TrendingProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.TrendingProducts(r.Context())
	if err != nil {
		h.logger.Error("Failed to load trending products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load trending products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// GetProduct returns a product detail page by slug
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	detail, err := h.catalog.GetProductBySlug(r.Context(), slug)
	if err != nil {
		if err == repository.ErrProductNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to load product", zap.String("slug", slug), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, detail)
}

// ListCategories returns all categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("Failed to list categories", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

// ListReviews returns a product's reviews
func (h *CatalogHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.GetProductBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if err == repository.ErrProductNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to load product for reviews", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list reviews")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product.Reviews)
}

// CreateReview records a signed-in customer's review
func (h *CatalogHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	detail, err := h.catalog.GetProductBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if err == repository.ErrProductNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to load product for review", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create review")
		return
	}

	var req CreateReviewRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	review := &domain.Review{
		ProductID: detail.Product.ID,
		UserID:    userID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}

	if err := h.catalog.CreateReview(r.Context(), review); err != nil {
		h.logger.Error("Failed to create review", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create review")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, map[string]string{"message": "review created"})
}

func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	return page, pageSize
}
