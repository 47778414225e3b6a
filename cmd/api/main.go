package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/gigfolio/gigfolio_be/internal/config"
	"github.com/gigfolio/gigfolio_be/internal/db"
	"github.com/gigfolio/gigfolio_be/internal/handlers"
	"github.com/gigfolio/gigfolio_be/internal/logger"
	"github.com/gigfolio/gigfolio_be/internal/middleware"
	"github.com/gigfolio/gigfolio_be/internal/realtime"
	"github.com/gigfolio/gigfolio_be/internal/services/booking"
	"github.com/gigfolio/gigfolio_be/internal/services/cart"
	"github.com/gigfolio/gigfolio_be/internal/services/portfolio"
	"github.com/gigfolio/gigfolio_be/internal/services/tripay"
	"github.com/gigfolio/gigfolio_be/internal/services/users"
	"github.com/gigfolio/gigfolio_be/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger.Init(cfg.AppEnv)

	gdb, err := db.Connect(cfg.DBDSN, !cfg.IsProduction())
	if err != nil {
		logger.Fatal("database connection failed", "error", err)
	}
	if err := db.Migrate(gdb); err != nil {
		logger.Fatal("migration failed", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := realtime.NewHub()
	go hub.Run(ctx)

	// without redis, notifications only reach sockets on this instance
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = realtime.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unavailable, using local delivery", "addr", cfg.RedisAddr, "error", err)
			_ = rdb.Close()
			rdb = nil
		}
		cancel()
	}
	notifier := realtime.NewNotifier(hub, rdb)
	if rdb != nil {
		go notifier.Subscribe(ctx)
	}

	files, err := storage.NewLocalStorage(cfg.UploadDir, cfg.AppBaseURL)
	if err != nil {
		logger.Fatal("storage init failed", "error", err)
	}

	portfolioStore := portfolio.NewGormStore(gdb)
	portfolioSvc := portfolio.NewService(portfolioStore, files, notifier)
	userStore := users.NewGormStore(gdb)
	userSvc := users.NewService(userStore, cfg.HandlePrefix, files)
	pointsSvc := users.NewPointsService(userStore)
	tripaySvc := tripay.NewTripayService(tripay.Config{
		Env:          cfg.TripayEnv,
		APIKey:       cfg.TripayAPIKey,
		PrivateKey:   cfg.TripayPrivateKey,
		MerchantCode: cfg.TripayMerchantCode,
		CallbackURL:  cfg.AppBaseURL + "/api/payments/tripay/callback",
		ReturnURL:    cfg.FrontendBaseURL + "/bookings",
	})
	bookingSvc := booking.NewService(booking.NewGormStore(gdb), portfolioStore, tripaySvc, notifier)
	cartSvc := cart.NewService(cart.NewGormStore(gdb), portfolioStore, bookingSvc)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
		// room for a video upload plus form fields
		BodyLimit: 110 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.Origins(), ","),
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))

	app.Static("/uploads", cfg.UploadDir)

	authH := &handlers.AuthHandler{
		Users:         userSvc,
		Points:        pointsSvc,
		Files:         files,
		JWTSecret:     cfg.JWTSecret,
		Expires:       cfg.JWTExpiresMin,
		SecureCookie:  cfg.IsProduction(),
		MaxImageWidth: cfg.MaxImageWidth,
	}
	googleH := &handlers.GoogleOAuthHandler{
		Users:           userSvc,
		Session:         authH,
		GoogleClientID:  cfg.GoogleClientID,
		GoogleSecret:    cfg.GoogleSecret,
		GoogleRedirect:  cfg.GoogleRedirect,
		FrontendBaseURL: cfg.FrontendBaseURL,
	}
	portfolioH := handlers.NewPortfolioHandler(portfolioSvc, files, cfg.MaxImageWidth)
	adminH := handlers.NewAdminHandler(portfolioSvc, userSvc)
	cartH := handlers.NewCartHandler(cartSvc)
	bookingH := handlers.NewBookingHandler(bookingSvc)
	paymentH := handlers.NewPaymentHandler(bookingSvc)

	api := app.Group("/api")

	auth := api.Group("/auth", limiter.New(limiter.Config{
		Max:        20,
		Expiration: time.Minute,
	}))
	auth.Post("/register", authH.Register)
	auth.Post("/login", authH.Login)
	auth.Post("/logout", authH.Logout)
	auth.Get("/google/start", googleH.GoogleStart)
	auth.Get("/google/callback", googleH.GoogleCallback)

	// gateway callback is authenticated by its signature
	api.Post("/payments/tripay/callback", paymentH.Callback)

	// portfolio routes accept anonymous callers; a token, when present, names the owner
	public := api.Group("", middleware.OptionalJWT(cfg.JWTSecret))
	public.Post("/portfolio", portfolioH.Submit)
	public.Get("/portfolio/:ownerId", portfolioH.GetByOwner)
	public.Get("/portfolio-status/:ownerId", portfolioH.Status)
	public.Get("/portfolios", portfolioH.ListApproved)
	public.Get("/portfolios-with-users", portfolioH.ListApprovedWithUsers)
	public.Post("/add-service", portfolioH.AddService)
	public.Post("/add-video", portfolioH.AddVideo)
	public.Post("/remove-video", portfolioH.RemoveVideo)

	// group middleware matches every later /api route, so this stays below the public routes
	protected := api.Group("",
		middleware.JWTFromCookie(cfg.JWTSecret),
		middleware.AttachJWTLocals(),
	)
	protected.Get("/me", authH.Me)
	protected.Patch("/me", authH.UpdateMe)
	protected.Get("/me/points", authH.MyPoints)

	protected.Get("/cart", cartH.Get)
	protected.Post("/cart/items", cartH.AddItem)
	protected.Delete("/cart/items/:serviceId", cartH.RemoveItem)
	protected.Post("/cart/checkout", cartH.Checkout)
	protected.Get("/wishlist", cartH.Wishlist)
	protected.Post("/wishlist", cartH.AddWishlist)
	protected.Delete("/wishlist/:submissionId", cartH.RemoveWishlist)

	protected.Get("/bookings", bookingH.List)
	protected.Post("/bookings", bookingH.Create)
	protected.Get("/bookings/:id", bookingH.Get)
	protected.Patch("/bookings/:id/status", bookingH.UpdateStatus)

	protected.Get("/payments/channels", paymentH.GetChannels)
	protected.Post("/payments/checkout", paymentH.CreatePayment)

	admin := protected.Group("/admin", middleware.RequireRoles("admin"))
	admin.Get("/portfolio-submissions", adminH.ListSubmissions)
	admin.Put("/portfolio-submissions/:id/status", adminH.SetStatus)
	admin.Post("/portfolio-submissions/migrate-headlines", adminH.MigrateHeadlines)
	admin.Post("/users/backfill-handles", adminH.BackfillHandles)

	app.Get("/ws/notifications", handlers.WSUpgrade(cfg.JWTSecret), websocket.New(hub.ServeWS))

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	logger.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		logger.Fatal("server stopped", "error", err)
	}

	if rdb != nil {
		_ = rdb.Close()
	}
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
