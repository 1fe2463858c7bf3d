package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/pharmalink/marketplace-api/internal/config"
	"github.com/pharmalink/marketplace-api/internal/handler"
	analyticsHandler "github.com/pharmalink/marketplace-api/internal/handler/analytics"
	authHandler "github.com/pharmalink/marketplace-api/internal/handler/auth"
	cartHandler "github.com/pharmalink/marketplace-api/internal/handler/cart"
	catalogHandler "github.com/pharmalink/marketplace-api/internal/handler/catalog"
	deliveryHandler "github.com/pharmalink/marketplace-api/internal/handler/delivery"
	navigationHandler "github.com/pharmalink/marketplace-api/internal/handler/navigation"
	orderHandler "github.com/pharmalink/marketplace-api/internal/handler/order"
	paymentHandler "github.com/pharmalink/marketplace-api/internal/handler/payment"
	permissionHandler "github.com/pharmalink/marketplace-api/internal/handler/permission"
	pharmacyHandler "github.com/pharmalink/marketplace-api/internal/handler/pharmacy"
	"github.com/pharmalink/marketplace-api/internal/middleware"
	"github.com/pharmalink/marketplace-api/internal/repository/postgres"
	redisrepo "github.com/pharmalink/marketplace-api/internal/repository/redis"
	"github.com/pharmalink/marketplace-api/internal/router"
	analyticsService "github.com/pharmalink/marketplace-api/internal/service/analytics"
	authService "github.com/pharmalink/marketplace-api/internal/service/auth"
	cartService "github.com/pharmalink/marketplace-api/internal/service/cart"
	catalogService "github.com/pharmalink/marketplace-api/internal/service/catalog"
	checkoutService "github.com/pharmalink/marketplace-api/internal/service/checkout"
	deliveryService "github.com/pharmalink/marketplace-api/internal/service/delivery"
	eventService "github.com/pharmalink/marketplace-api/internal/service/event"
	notificationService "github.com/pharmalink/marketplace-api/internal/service/notification"
	orderService "github.com/pharmalink/marketplace-api/internal/service/order"
	paymentService "github.com/pharmalink/marketplace-api/internal/service/payment"
	permissionService "github.com/pharmalink/marketplace-api/internal/service/permission"
	pharmacyService "github.com/pharmalink/marketplace-api/internal/service/pharmacy"
	"github.com/pharmalink/marketplace-api/pkg/auth"
	"github.com/pharmalink/marketplace-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	redisClient, err := redisrepo.NewClient(cfg.Redis.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer redisClient.Close()

	m := metrics.New("marketplace")

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	pharmacyRepo := postgres.NewPharmacyRepository(db)
	medicationRepo := postgres.NewMedicationRepository(db)
	orderRepo := postgres.NewOrderRepository(db)
	deliveryRepo := postgres.NewDeliveryRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	permRepo := postgres.NewPermissionRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)
	analyticsRepo := postgres.NewAnalyticsRepository(db)
	cartRepo := redisrepo.NewCartStore(redisClient)

	// Services
	jwtSvc := auth.NewJWTService(auth.JWTConfig{
		Secret:        cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Expiry:        time.Duration(cfg.JWT.ExpiryHours) * time.Hour,
		RefreshExpiry: time.Duration(cfg.JWT.RefreshExpiryHours) * time.Hour,
	})
	notifSvc := notificationService.NewEmailService(cfg.SMTP)
	eventSvc := eventService.NewService(outboxRepo)
	authSvc := authService.NewService(userRepo, jwtSvc, notifSvc)
	pharmacySvc := pharmacyService.NewService(pharmacyRepo, userRepo, eventSvc, notifSvc)
	catalogSvc := catalogService.NewService(medicationRepo, pharmacyRepo)
	cartSvc := cartService.NewService(cartRepo, medicationRepo)
	orderSvc := orderService.NewService(orderRepo, medicationRepo, deliveryRepo, eventSvc, m)
	deliverySvc := deliveryService.NewService(deliveryRepo, orderRepo, userRepo, eventSvc, m)
	gateway := paymentService.NewHTTPGateway(cfg.Payment)
	paymentSvc := paymentService.NewService(paymentRepo, orderRepo, gateway, eventSvc, m)
	checkoutSvc := checkoutService.NewService(cartSvc, orderSvc, paymentSvc, m)
	permSvc := permissionService.NewService(permRepo, userRepo)
	analyticsSvc := analyticsService.NewService(analyticsRepo)

	authMiddleware := middleware.NewAuthMiddleware(authSvc, permSvc)

	handlers := router.Handlers{
		Auth:       authHandler.NewHandler(authSvc),
		Navigation: navigationHandler.NewHandler(authSvc, permSvc),
		Pharmacy:   pharmacyHandler.NewHandler(pharmacySvc),
		Catalog:    catalogHandler.NewHandler(catalogSvc),
		Cart:       cartHandler.NewHandler(cartSvc, checkoutSvc),
		Order:      orderHandler.NewHandler(orderSvc),
		Delivery:   deliveryHandler.NewHandler(deliverySvc),
		Payment:    paymentHandler.NewHandler(paymentSvc),
		Permission: permissionHandler.NewHandler(permSvc),
		Analytics:  analyticsHandler.NewHandler(analyticsSvc),
		Ops:        handler.NewHandler(),
	}

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.Server.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	}

	r := router.NewRouter(authMiddleware, handlers, router.Config{
		RateLimit:  rate.Limit(cfg.Server.RateLimitRPS),
		RateBurst:  cfg.Server.RateLimitBurst,
		CORSConfig: corsConfig,
		Timeout:    time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	})
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
