package transport

import (
	"net/http"
	"strconv"
	"time"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/realtime"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProductRequest represents the admin product create/update payload
type ProductRequest struct {
	Title          string   `json:"title" validate:"required,min=2"`
	Description    string   `json:"description"`
	Price          float64  `json:"price" validate:"gte=0"`
	CompareAtPrice *float64 `json:"compare_at_price,omitempty"`
	StockQuantity  int      `json:"stock_quantity" validate:"gte=0"`
	CategoryID     *string  `json:"category_id,omitempty"`
	ImageURL       string   `json:"image_url"`
	IsFeatured     bool     `json:"is_featured"`
}

// CategoryRequest represents the category create/update payload
type CategoryRequest struct {
	Name string `json:"name" validate:"required,min=2"`
}

// RestockRequest represents the stock adjustment payload
type RestockRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

// UpdateStatusRequest represents the order status change payload
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending paid shipped delivered cancelled returned"`
}

// CounterSaleRequest represents the daily counter sales payload
type CounterSaleRequest struct {
	SaleDate string  `json:"sale_date" validate:"required"`
	Amount   float64 `json:"amount" validate:"gte=0"`
	Notes    string  `json:"notes"`
}

// SettingsRequest represents the store settings payload
type SettingsRequest struct {
	StoreName    string `json:"store_name" validate:"required"`
	Currency     string `json:"currency" validate:"required,len=3"`
	SupportEmail string `json:"support_email" validate:"omitempty,email"`
	Announcement string `json:"announcement"`
}

// AdminReplyRequest represents the admin chat reply payload
type AdminReplyRequest struct {
	UserID  uuid.UUID `json:"user_id" validate:"required"`
	Content string    `json:"content" validate:"required,max=4000"`
}

// AdminHandler handles the admin surface: catalog management, bulk
// import, orders, dashboard, counter sales, settings and support chat.
type AdminHandler struct {
	catalog  service.CatalogService
	orders   service.OrderService
	store    service.StoreService
	chat     service.ChatService
	importer service.Importer
	images   *storage.ImageStore
	ws       *realtime.WebSocketHandler
	logger   *zap.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(
	catalog service.CatalogService,
	orders service.OrderService,
	store service.StoreService,
	chat service.ChatService,
	importer service.Importer,
	images *storage.ImageStore,
	ws *realtime.WebSocketHandler,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		catalog:  catalog,
		orders:   orders,
		store:    store,
		chat:     chat,
		importer: importer,
		images:   images,
		ws:       ws,
		logger:   logger,
	}
}

// RegisterRoutes registers all admin routes behind auth + admin gates
func (h *AdminHandler) RegisterRoutes(r chi.Router, authMiddleware, requireAdmin func(http.Handler) http.Handler) {
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(requireAdmin)

		r.Post("/products", h.CreateProduct)
		r.Put("/products/{productID}", h.UpdateProduct)
		r.Delete("/products/{productID}", h.DeleteProduct)
		r.Post("/products/{productID}/restock", h.Restock)
		r.Post("/products/import", h.ImportProducts)
		r.Post("/images", h.UploadImage)

		r.Post("/categories", h.CreateCategory)
		r.Put("/categories/{categoryID}", h.UpdateCategory)
		r.Delete("/categories/{categoryID}", h.DeleteCategory)

		r.Get("/orders", h.ListOrders)
		r.Put("/orders/{orderID}/status", h.UpdateOrderStatus)

		r.Get("/dashboard", h.Dashboard)
		r.Post("/counter-sales", h.RecordCounterSale)
		r.Get("/counter-sales", h.ListCounterSales)

		r.Get("/settings", h.GetSettings)
		r.Put("/settings", h.UpdateSettings)

		r.Get("/customers", h.ListCustomers)

		r.Get("/chat/threads", h.ChatThreads)
		r.Get("/chat/{userID}", h.ChatThread)
		r.Post("/chat/reply", h.ChatReply)

		r.Get("/watch/{table}", h.Watch)
	})
}

// CreateProduct adds a product to the catalog
func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !h.decode(w, r, &req) {
		return
	}

	product, err := h.productFromRequest(&req)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.catalog.CreateProduct(r.Context(), product)
	if err != nil {
		h.logger.Error("Failed to create product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, created)
}

// UpdateProduct rewrites an existing product
func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req ProductRequest
	if !h.decode(w, r, &req) {
		return
	}

	product, err := h.productFromRequest(&req)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	product.ID = productID

	updated, err := h.catalog.UpdateProduct(r.Context(), product)
	if err != nil {
		if err == repository.ErrProductNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to update product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, updated)
}

// DeleteProduct removes a product from the catalog
func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), productID); err != nil {
		if err == repository.ErrProductNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to delete product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

// Restock increases a product's stock
func (h *AdminHandler) Restock(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req RestockRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.catalog.Restock(r.Context(), productID, req.Quantity); err != nil {
		if err == repository.ErrProductNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to restock product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to restock")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "stock updated"})
}

// ImportProducts runs a CSV bulk import from a multipart upload
func (h *AdminHandler) ImportProducts(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing csv file")
		return
	}
	defer file.Close()

	stats, err := h.importer.ImportProducts(r.Context(), file)
	if err != nil {
		h.logger.Error("Product import failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, stats)
}

// UploadImage stores a product or category image and returns its URL
func (h *AdminHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing image file")
		return
	}
	defer file.Close()

	url, err := h.images.Save(header.Filename, file)
	if err != nil {
		if err == storage.ErrUnsupportedImageType || err == storage.ErrImageTooLarge {
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Image upload failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to store image")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, map[string]string{"url": url})
}

// CreateCategory adds a category
func (h *AdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !h.decode(w, r, &req) {
		return
	}

	category, err := h.catalog.CreateCategory(r.Context(), req.Name)
	if err != nil {
		if err == repository.ErrCategoryAlreadyExists {
			middleware.RespondWithError(w, http.StatusConflict, "category already exists")
			return
		}
		h.logger.Error("Failed to create category", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create category")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, category)
}

// UpdateCategory renames a category
func (h *AdminHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := uuid.Parse(chi.URLParam(r, "categoryID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	var req CategoryRequest
	if !h.decode(w, r, &req) {
		return
	}

	category := &domain.Category{ID: categoryID, Name: req.Name}
	if err := h.catalog.UpdateCategory(r.Context(), category); err != nil {
		switch err {
		case repository.ErrCategoryNotFound:
			middleware.RespondWithError(w, http.StatusNotFound, "category not found")
		case repository.ErrCategoryAlreadyExists:
			middleware.RespondWithError(w, http.StatusConflict, "category already exists")
		default:
			h.logger.Error("Failed to update category", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update category")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, category)
}

// DeleteCategory removes a category
func (h *AdminHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := uuid.Parse(chi.URLParam(r, "categoryID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	if err := h.catalog.DeleteCategory(r.Context(), categoryID); err != nil {
		if err == repository.ErrCategoryNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "category not found")
			return
		}
		h.logger.Error("Failed to delete category", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete category")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "category deleted"})
}

// ListOrders returns a page of all orders
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)

	result, err := h.orders.ListOrders(r.Context(), page, pageSize)
	if err != nil {
		h.logger.Error("Failed to list orders", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// UpdateOrderStatus moves an order through its lifecycle
func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req UpdateStatusRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.orders.UpdateStatus(r.Context(), orderID, domain.OrderStatus(req.Status)); err != nil {
		if err == repository.ErrOrderNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.Error("Failed to update order status", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update status")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "status updated"})
}

// Dashboard returns the admin dashboard summary
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Dashboard(r.Context())
	if err != nil {
		h.logger.Error("Failed to build dashboard", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load dashboard")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, stats)
}

// RecordCounterSale records the day's offline cash total
func (h *AdminHandler) RecordCounterSale(w http.ResponseWriter, r *http.Request) {
	var req CounterSaleRequest
	if !h.decode(w, r, &req) {
		return
	}

	date, err := time.Parse("2006-01-02", req.SaleDate)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "sale_date must be YYYY-MM-DD")
		return
	}

	sale, err := h.store.RecordCounterSale(r.Context(), date, req.Amount, req.Notes)
	if err != nil {
		h.logger.Error("Failed to record counter sale", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to record counter sale")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, sale)
}

// ListCounterSales returns recent counter sales
func (h *AdminHandler) ListCounterSales(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	sales, err := h.store.ListCounterSales(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list counter sales", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list counter sales")
		return
	}
	if sales == nil {
		sales = []*domain.CounterSale{}
	}

	middleware.RespondWithJSON(w, http.StatusOK, sales)
}

// GetSettings returns the store settings
func (h *AdminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.Settings(r.Context())
	if err != nil {
		h.logger.Error("Failed to load settings", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, settings)
}

// UpdateSettings persists the store settings
func (h *AdminHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if !h.decode(w, r, &req) {
		return
	}

	settings, err := h.store.UpdateSettings(r.Context(), &domain.StoreSettings{
		StoreName:    req.StoreName,
		Currency:     req.Currency,
		SupportEmail: req.SupportEmail,
		Announcement: req.Announcement,
	})
	if err != nil {
		h.logger.Error("Failed to update settings", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update settings")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, settings)
}

// ListCustomers returns a page of customer profiles
func (h *AdminHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)

	customers, total, err := h.store.ListCustomers(r.Context(), page, pageSize)
	if err != nil {
		h.logger.Error("Failed to list customers", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list customers")
		return
	}
	if customers == nil {
		customers = []*domain.Profile{}
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"customers": customers,
		"total":     total,
	})
}

// ChatThreads returns every support conversation for the admin inbox
func (h *AdminHandler) ChatThreads(w http.ResponseWriter, r *http.Request) {
	threads, err := h.chat.Threads(r.Context())
	if err != nil {
		h.logger.Error("Failed to list chat threads", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list threads")
		return
	}
	if threads == nil {
		threads = []repository.ChatThread{}
	}

	middleware.RespondWithJSON(w, http.StatusOK, threads)
}

// ChatThread returns one customer's conversation
func (h *AdminHandler) ChatThread(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	messages, err := h.chat.Thread(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to load chat thread", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load messages")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, messages)
}

// ChatReply appends an admin message to a customer's thread
func (h *AdminHandler) ChatReply(w http.ResponseWriter, r *http.Request) {
	var req AdminReplyRequest
	if !h.decode(w, r, &req) {
		return
	}

	message, err := h.chat.Send(r.Context(), req.UserID, service.ChatSenderAdmin, req.Content)
	if err != nil {
		if err == service.ErrEmptyMessage {
			middleware.RespondWithError(w, http.StatusBadRequest, "message is empty")
			return
		}
		h.logger.Error("Failed to send admin reply", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to send message")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, message)
}

// Watch streams a table's change feed to the admin dashboard
func (h *AdminHandler) Watch(w http.ResponseWriter, r *http.Request) {
	h.ws.Serve(w, r, chi.URLParam(r, "table"), nil)
}

// decode reads and validates the JSON body, writing the error response
// itself. It reports whether the handler should continue.
func (h *AdminHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := middleware.DecodeAndValidate(r, v); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return false
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (h *AdminHandler) productFromRequest(req *ProductRequest) (*domain.Product, error) {
	product := &domain.Product{
		Title:          req.Title,
		Description:    req.Description,
		Price:          req.Price,
		CompareAtPrice: req.CompareAtPrice,
		StockQuantity:  req.StockQuantity,
		ImageURL:       req.ImageURL,
		IsFeatured:     req.IsFeatured,
	}

	if req.CategoryID != nil && *req.CategoryID != "" {
		categoryID, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			return nil, err
		}
		product.CategoryID = &categoryID
	}

	return product, nil
}
