package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/decorhaus/storefront_api/internal/cache"
	"github.com/decorhaus/storefront_api/internal/config"
	"github.com/decorhaus/storefront_api/internal/database"
	"github.com/decorhaus/storefront_api/internal/handler"
	"github.com/decorhaus/storefront_api/internal/middleware"
	"github.com/decorhaus/storefront_api/internal/repository"
	"github.com/decorhaus/storefront_api/internal/service"
	"github.com/decorhaus/storefront_api/internal/sse"
	"github.com/decorhaus/storefront_api/internal/worker"
	"github.com/decorhaus/storefront_api/pkg/notify"
	"github.com/decorhaus/storefront_api/pkg/razorpay"
)

// main is the application entrypoint for the storefront API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting storefront api")

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := database.Migrate(db.DB, "file://migrations"); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	cartStore := cache.NewCartStore(redisClient)
	otpCounter := cache.NewOTPCounter(redisClient, cfg.OTP.Window)
	feedCache := cache.NewFeedCache(redisClient)

	// 4. External clients
	bootCtx, bootCancel := context.WithTimeout(context.Background(), 15*time.Second)
	storageAWS, err := cfg.LoadAWS(bootCtx, cfg.Storage.Region)
	if err != nil {
		bootCancel()
		log.Error().Err(err).Msg("aws config failed")
		fmt.Fprintf(os.Stderr, "aws config failed: %v\n", err)
		os.Exit(1)
	}
	notifyAWS, err := cfg.LoadAWS(bootCtx, cfg.Notify.Region)
	bootCancel()
	if err != nil {
		log.Error().Err(err).Msg("aws config failed")
		fmt.Fprintf(os.Stderr, "aws config failed: %v\n", err)
		os.Exit(1)
	}

	var emailSender notify.EmailSender = notify.LogSender{}
	if cfg.Notify.EmailFrom != "" {
		emailSender = notify.NewSESSender(notifyAWS, cfg.Notify.EmailFrom)
	} else {
		log.Warn().Msg("EMAIL_FROM not set - emails will only be logged")
	}
	var smsSender notify.SMSSender = notify.LogSender{}
	if cfg.Notify.SMSSenderID != "" {
		smsSender = notify.NewSNSSender(notifyAWS, cfg.Notify.SMSSenderID)
	} else {
		log.Warn().Msg("SMS_SENDER_ID not set - SMS will only be logged")
	}

	gateway := razorpay.NewClient(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret)
	if cfg.Razorpay.KeyID == "" {
		log.Warn().Msg("Razorpay keys not set - online payments are disabled")
	}

	// 5. Initialize repositories
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	wishlistRepo := repository.NewWishlistRepository(db)
	otpRepo := repository.NewOTPRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	contentRepo := repository.NewContentRepository(db)
	inboxRepo := repository.NewInboxRepository(db)

	// 6. Initialize services
	hub := sse.NewHub()
	inTx := func(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
		return database.WithTx(ctx, db, fn)
	}

	storageSvc := service.NewStorageService(storageAWS, &cfg.Storage)
	feedSvc := service.NewFeedService(productRepo, feedCache, service.FeedOptions{
		SiteURL:  cfg.SiteURL,
		Brand:    cfg.Shop.BrandName,
		Currency: cfg.Razorpay.Currency,
	})
	catalogSvc := service.NewCatalogService(productRepo, reviewRepo)
	productMgmtSvc := service.NewProductManagementService(productRepo, inTx, storageSvc, feedCache)
	cartSvc := service.NewCartService(cartStore, productRepo)
	orderSvc := service.NewOrderService(
		orderRepo, productRepo,
		service.ShippingPolicy{Fee: cfg.Shop.ShippingFee, FreeAbove: cfg.Shop.FreeShippingThreshold},
		sse.NewHubNotifier(hub), emailSender, cfg.Shop.BrandName,
	)
	paymentSvc := service.NewPaymentService(gateway, cfg.Razorpay.KeySecret, cfg.Razorpay.Currency)
	couponSvc := service.NewCouponService(couponRepo)
	otpSvc := service.NewOTPService(otpRepo, otpCounter, profileRepo, inTx, emailSender, smsSender, service.OTPOptions{
		TTL:          cfg.OTP.TTL,
		MaxPerWindow: cfg.OTP.MaxPerWindow,
		BrandName:    cfg.Shop.BrandName,
	})
	userSvc := service.NewUserService(profileRepo)
	reviewSvc := service.NewReviewService(reviewRepo)
	wishlistSvc := service.NewWishlistService(wishlistRepo)
	contentSvc := service.NewContentService(contentRepo, feedCache)
	inboxSvc := service.NewInboxService(inboxRepo)
	dashboardSvc := service.NewDashboardService(orderRepo, productRepo, reviewRepo, profileRepo)

	// 7. Initialize handlers
	handlers := &Handlers{
		Health:            handler.NewHealthHandler(db, redisClient),
		Catalog:           handler.NewCatalogHandler(catalogSvc, contentSvc, reviewSvc),
		Cart:              handler.NewCartHandler(cartSvc),
		Checkout:          handler.NewCheckoutHandler(orderSvc, paymentSvc),
		Account:           handler.NewAccountHandler(userSvc, otpSvc, reviewSvc, wishlistSvc),
		Storefront:        handler.NewStorefrontHandler(couponSvc, inboxSvc),
		Feed:              handler.NewFeedHandler(feedSvc),
		ProductManagement: handler.NewProductManagementHandler(productMgmtSvc, storageSvc),
		AdminOrder:        handler.NewAdminOrderHandler(orderSvc, dashboardSvc),
		Admin:             handler.NewAdminHandler(couponSvc, userSvc, reviewSvc, contentSvc, inboxSvc),
		SSE:               handler.NewSSEHandler(hub, userSvc, cfg.AuthJWTSecret),
	}

	// 8. Initialize middleware
	mw := &Middleware{
		Session:  middleware.NewSessionMiddleware(cfg.AuthJWTSecret),
		Admin:    middleware.NewAdminMiddleware(userSvc),
		OTPIssue: middleware.NewIPRateLimiter(cfg.OTP.IssuePerMinute, cfg.OTP.IssuePerMinute),
		Intake:   middleware.NewIPRateLimiter(5, 5),
		Checkout: middleware.NewIPRateLimiter(30, 10),
	}

	// 9. Setup router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	router.Use(middleware.LoggingMiddleware())
	router.MaxMultipartMemory = service.MaxUploadBytes
	setupRoutes(router, handlers, mw)

	// 10. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 11. Start workers
	go worker.NewCleanupWorker(otpRepo, cfg.Worker.OTPCleanupInterval, mw.OTPIssue, mw.Intake, mw.Checkout).Start(ctx)

	// 12. Start HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 13. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 14. Cancel context to stop workers
	cancel()

	// 15. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health            *handler.HealthHandler
	Catalog           *handler.CatalogHandler
	Cart              *handler.CartHandler
	Checkout          *handler.CheckoutHandler
	Account           *handler.AccountHandler
	Storefront        *handler.StorefrontHandler
	Feed              *handler.FeedHandler
	ProductManagement *handler.ProductManagementHandler
	AdminOrder        *handler.AdminOrderHandler
	Admin             *handler.AdminHandler
	SSE               *handler.SSEHandler
}

// Middleware groups the configured route middleware.
type Middleware struct {
	Session  *middleware.SessionMiddleware
	Admin    *middleware.AdminMiddleware
	OTPIssue *middleware.IPRateLimiter
	Intake   *middleware.IPRateLimiter
	Checkout *middleware.IPRateLimiter
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, h *Handlers, mw *Middleware) {
	router.GET("/v1/health", h.Health.GetHealth)

	// Feeds and sitemap
	router.GET("/feeds/products.tsv", h.Feed.TSV)
	router.GET("/feeds/products.xml", h.Feed.RSS)
	router.GET("/sitemap.xml", h.Feed.Sitemap)

	// Public storefront
	v1 := router.Group("/v1")
	{
		v1.GET("/products", h.Catalog.ListProducts)
		v1.GET("/products/:slug", h.Catalog.GetProduct)
		v1.GET("/categories", h.Catalog.ListCategories)
		v1.GET("/settings", h.Catalog.GetSettings)
		v1.GET("/pages/:slug", h.Catalog.GetPage)
		v1.GET("/reviews", h.Catalog.ListReviews)

		v1.GET("/cart", h.Cart.Get)
		v1.POST("/cart/actions", h.Cart.Apply)
		v1.DELETE("/cart", h.Cart.Clear)

		v1.POST("/coupons/validate", h.Storefront.ValidateCoupon)
		v1.POST("/contact", mw.Intake.Handle(), h.Storefront.SubmitContact)
		v1.POST("/faq/questions", mw.Intake.Handle(), h.Storefront.SubmitQuestion)

		// Checkout works for guests and signed-in customers alike
		v1.POST("/payments/orders", mw.Checkout.Handle(), h.Checkout.CreateGatewayOrder)
		v1.POST("/payments/verify", h.Checkout.VerifyPayment)
		v1.POST("/orders", mw.Checkout.Handle(), mw.Session.Optional(), h.Checkout.PlaceOrder)
	}

	// Signed-in customer
	account := router.Group("/v1")
	account.Use(mw.Session.Required())
	{
		account.GET("/me", h.Account.Me)
		account.PUT("/me", h.Account.UpdateMe)
		account.POST("/otp/issue", mw.OTPIssue.Handle(), h.Account.IssueOTP)
		account.POST("/otp/verify", h.Account.VerifyOTP)

		account.GET("/orders", h.Checkout.ListMyOrders)
		account.GET("/orders/:id", h.Checkout.GetMyOrder)

		account.POST("/reviews", h.Account.SubmitReview)
		account.GET("/wishlist", h.Account.ListWishlist)
		account.POST("/wishlist", h.Account.AddWishlist)
		account.DELETE("/wishlist/:productId", h.Account.RemoveWishlist)
	}

	// EventSource cannot send headers; the stream authenticates from its query string.
	router.GET("/v1/admin/orders/stream", h.SSE.Stream)

	// Admin routes
	admin := router.Group("/v1/admin")
	admin.Use(mw.Session.Required(), mw.Admin.Handle())
	{
		admin.GET("/dashboard", h.AdminOrder.Dashboard)

		// Product Management
		admin.GET("/products", h.ProductManagement.ListProducts)
		admin.POST("/products", h.ProductManagement.CreateProduct)
		admin.GET("/products/:id", h.ProductManagement.GetProduct)
		admin.PUT("/products/:id", h.ProductManagement.UpdateProduct)
		admin.PATCH("/products/:id/active", h.ProductManagement.ToggleProduct)
		admin.DELETE("/products/:id", h.ProductManagement.DeleteProduct)
		admin.POST("/uploads", h.ProductManagement.UploadImage)

		// Orders
		admin.GET("/orders", h.AdminOrder.ListOrders)
		admin.GET("/orders/:id", h.AdminOrder.GetOrder)
		admin.PATCH("/orders/:id/status", h.AdminOrder.UpdateOrderStatus)

		// Coupons
		admin.GET("/coupons", h.Admin.ListCoupons)
		admin.POST("/coupons", h.Admin.CreateCoupon)
		admin.PUT("/coupons/:id", h.Admin.UpdateCoupon)
		admin.DELETE("/coupons/:id", h.Admin.DeleteCoupon)

		// Users
		admin.GET("/users", h.Admin.ListUsers)
		admin.GET("/users/:userId", h.Admin.GetUser)
		admin.PUT("/users/:userId/admin", h.Admin.SetAdmin)

		// Reviews
		admin.GET("/reviews", h.Admin.ListReviews)
		admin.PATCH("/reviews/:id", h.Admin.ApproveReview)
		admin.DELETE("/reviews/:id", h.Admin.DeleteReview)

		// Site content
		admin.GET("/settings", h.Admin.ListSettings)
		admin.PUT("/settings/:key", h.Admin.UpsertSetting)
		admin.GET("/categories", h.Admin.ListCategories)
		admin.POST("/categories", h.Admin.CreateCategory)
		admin.PUT("/categories/:id", h.Admin.UpdateCategory)
		admin.DELETE("/categories/:id", h.Admin.DeleteCategory)
		admin.GET("/pages", h.Admin.ListPages)
		admin.GET("/pages/:slug", h.Admin.GetPage)
		admin.PUT("/pages/:slug", h.Admin.UpsertPage)
		admin.DELETE("/pages/:slug", h.Admin.DeletePage)

		// Inbox
		admin.GET("/inbox/contacts", h.Admin.ListContacts)
		admin.POST("/inbox/contacts/:id/handled", h.Admin.HandleContact)
		admin.GET("/inbox/questions", h.Admin.ListQuestions)
		admin.POST("/inbox/questions/:id/handled", h.Admin.HandleQuestion)
	}
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
