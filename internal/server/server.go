package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/config"
	custommiddleware "storefront/internal/middleware"
	"storefront/internal/realtime"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/storage"
	"storefront/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config      *config.Config
	logger      *zap.Logger
	db          *sql.DB
	redisClient *redis.Client
	stopFeed    context.CancelFunc
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *sql.DB, redisClient *redis.Client) (*Server, error) {
	router := chi.NewRouter()

	for _, m := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(m)
	}
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(nil, cfg.Server.Env == "development"))
	router.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: 300,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit",
	}, logger))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Repositories
	profileRepo := repository.NewProfileRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	cartRepo := repository.NewCartRepository(db)
	guestCartRepo := repository.NewGuestCartRepository(redisClient)
	orderRepo := repository.NewOrderRepository(db)
	counterSaleRepo := repository.NewCounterSaleRepository(db)
	chatRepo := repository.NewChatRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	// Services
	authService := service.NewAuthService(profileRepo, refreshTokenRepo, cfg.JWT.Secret)
	catalogService := service.NewCatalogService(productRepo, categoryRepo, reviewRepo, logger)
	cartService := service.NewCartService(cartRepo, guestCartRepo, productRepo, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, cartService, logger)
	storeService := service.NewStoreService(orderRepo, counterSaleRepo, settingsRepo, profileRepo, logger)
	chatService := service.NewChatService(chatRepo)
	importerService := service.NewImporter(productRepo, categoryRepo, logger)

	// Change feed
	hub := realtime.NewHub(logger)
	listener := realtime.NewListener(cfg.Database.ConnString(), hub, logger)
	feedCtx, stopFeed := context.WithCancel(context.Background())
	go listener.Run(feedCtx)
	wsHandler := realtime.NewWebSocketHandler(hub, logger)

	// Image bucket
	imageStore, err := storage.NewImageStore(cfg.Storage.Dir, cfg.Storage.PublicURL)
	if err != nil {
		stopFeed()
		return nil, fmt.Errorf("failed to initialize image store: %w", err)
	}
	fileServer := http.StripPrefix(cfg.Storage.PublicURL+"/", http.FileServer(http.Dir(imageStore.Dir())))
	router.Get(cfg.Storage.PublicURL+"/*", fileServer.ServeHTTP)

	// Middleware
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	optionalAuth := custommiddleware.OptionalAuthMiddleware(cfg.JWT.Secret, logger)
	requireAdmin := custommiddleware.RequireAdmin(logger)

	// Handlers
	transport.NewAuthHandler(authService, cartService, logger).RegisterRoutes(router, authMiddleware)
	transport.NewCatalogHandler(catalogService, logger).RegisterRoutes(router, authMiddleware)
	transport.NewCartHandler(cartService, logger).RegisterRoutes(router, optionalAuth)
	transport.NewOrderHandler(orderService, logger).RegisterRoutes(router, optionalAuth, authMiddleware)
	transport.NewChatHandler(chatService, wsHandler, logger).RegisterRoutes(router, authMiddleware)
	transport.NewAdminHandler(
		catalogService, orderService, storeService, chatService,
		importerService, imageStore, wsHandler, logger,
	).RegisterRoutes(router, authMiddleware, requireAdmin)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config:      cfg,
		logger:      logger,
		db:          db,
		redisClient: redisClient,
		stopFeed:    stopFeed,
	}

	return server, nil
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	s.stopFeed()

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
