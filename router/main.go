package router

import (
	"log"
	"os"
	"time"

	"github.com/coinacademy/api/database"
	"github.com/coinacademy/api/handlers"
	admin_handlers "github.com/coinacademy/api/handlers/admin"
	auth_handlers "github.com/coinacademy/api/handlers/auth"
	checkout_handlers "github.com/coinacademy/api/handlers/checkout"
	course_handlers "github.com/coinacademy/api/handlers/course"
	payment_handlers "github.com/coinacademy/api/handlers/payment"
	"github.com/coinacademy/api/services"
	"github.com/coinacademy/api/services/audit"
	"github.com/coinacademy/api/services/payments"
	"github.com/coinacademy/api/services/pricefeed"
	"github.com/coinacademy/api/services/storage"
	"github.com/coinacademy/api/utils"
	"github.com/coinacademy/api/utils/auth"
	"github.com/coinacademy/api/utils/cache"
	"github.com/coinacademy/api/utils/middleware"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, store database.Storage) {
	// Get JWT secret from environment
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "coinacademy-api"
	}

	jwtConfig := auth.JWTConfig{
		Secret:        jwtSecret,
		Expiry:        24 * time.Hour,     // Access token expires in 24 hours
		RefreshExpiry: 7 * 24 * time.Hour, // Refresh token expires in 7 days
		Issuer:        jwtIssuer,
	}
	jwtManager := auth.NewJWTManager(jwtConfig)

	// Get DB instance (type assert from interface)
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Initialize Redis cache for brute force protection and rate data
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection will be disabled.", err)
	}

	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	// Auth middleware does blacklist checks and re-reads the user row
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	// Screenshot storage is optional; checkout degrades without it
	spacesClient, err := storage.NewSpacesClient()
	if err != nil {
		log.Printf("Warning: Screenshot storage disabled: %v", err)
		spacesClient = nil
	}

	// Core services
	emailService := services.NewEmailService()
	paymentService := payments.NewService(db, audit.NewRecorder(db), emailService)
	priceFeed := pricefeed.NewPoller(redisCache, os.Getenv("PRICE_FEED_URL"))

	// Catalog reads go through the raw connection; fall back to the GORM
	// store when it cannot be opened
	var catalogStore database.Storage = store
	if raw, err := database.Start(); err == nil {
		catalogStore = raw
	} else {
		log.Printf("Warning: raw catalog store unavailable, using GORM store: %v", err)
	}

	// Handlers
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection)
	courseHandler := course_handlers.NewCourseHandler(db, catalogStore)
	lessonHandler := course_handlers.NewLessonHandler(db)
	progressHandler := course_handlers.NewProgressHandler(db)
	checkoutHandler := checkout_handlers.NewCheckoutHandler(paymentService, spacesClient, priceFeed)
	paymentHandler := payment_handlers.NewPaymentHandler(db, paymentService)

	// Apply security middleware
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,             // 100 requests
		RateLimitWindow:   1 * time.Minute, // per minute
	})

	// Health check endpoint (public)
	app.Get("/ping", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, store))

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)

	// Login with brute force protection
	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}

	authGroup.Post("/refresh", authHandler.RefreshToken)
	authGroup.Post("/forgot-password", authHandler.ForgotPassword)
	authGroup.Post("/reset-password", authHandler.ResetPassword)

	// Protected auth routes
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)
	authGroup.Post("/change-password", authMiddleware.Required(), authHandler.ChangePassword)

	// Profile routes (protected)
	profileGroup := api.Group("/profile", authMiddleware.Required())
	profileGroup.Get("/", authHandler.GetProfile)
	profileGroup.Put("/", authHandler.UpdateProfile)

	// Storefront catalog (public, published courses only)
	courses := api.Group("/courses")
	courses.Get("/", courseHandler.ListCourses)
	courses.Get("/:slug", courseHandler.GetCourseBySlug)

	// Course actions for signed-in students
	api.Post("/courses/:id/enroll", authMiddleware.Required(), progressHandler.EnrollFreeCourse)
	api.Get("/courses/:id/progress", authMiddleware.Required(), progressHandler.GetCourseProgress)

	// Lesson playback access. Optional auth: anonymous viewers get a
	// decision for free lessons, invalid tokens degrade to anonymous.
	api.Get("/lessons/:id/access", authMiddleware.Optional(), lessonHandler.GetLessonAccess)
	api.Post("/lessons/:id/progress", authMiddleware.Required(), progressHandler.MarkLessonComplete)

	// Checkout (protected)
	checkoutGroup := api.Group("/checkout", authMiddleware.Required())
	checkoutGroup.Post("/", checkoutHandler.CreateCheckout)
	checkoutGroup.Get("/rates", checkoutHandler.GetRates)

	// Student purchase history (protected)
	api.Get("/payments", authMiddleware.Required(), paymentHandler.ListMyPayments)
	api.Get("/payments/:id/invoice", authMiddleware.Required(), paymentHandler.GetMyInvoice)
	api.Get("/enrollments", authMiddleware.Required(), paymentHandler.ListMyEnrollments)
	api.Get("/subscriptions", authMiddleware.Required(), paymentHandler.ListMySubscriptions)

	// Admin back office. RequireAdmin re-checks the role against the
	// live user row on every request.
	admin := api.Group("/admin", authMiddleware.RequireAdmin())

	// Payment confirmation queue
	admin.Get("/payments", paymentHandler.ListPayments)
	admin.Post("/payments/:id/activate", paymentHandler.ActivatePayment)
	admin.Post("/payments/:id/reject", paymentHandler.RejectPayment)

	// Course and lesson management
	admin.Get("/courses", courseHandler.ListAllCourses)
	admin.Post("/courses", courseHandler.CreateCourse)
	admin.Put("/courses/:id", courseHandler.UpdateCourse)
	admin.Delete("/courses/:id", courseHandler.DeleteCourse)
	admin.Get("/courses/:id/lessons", lessonHandler.ListLessons)
	admin.Post("/lessons", lessonHandler.CreateLesson)
	admin.Put("/lessons/:id", lessonHandler.UpdateLesson)
	admin.Delete("/lessons/:id", lessonHandler.DeleteLesson)

	// User management
	admin.Get("/users", func(c *fiber.Ctx) error { return admin_handlers.ListUsers(c, store) })
	admin.Get("/users/:id", func(c *fiber.Ctx) error { return admin_handlers.GetUser(c, store) })
	admin.Post("/users/:id/suspend", func(c *fiber.Ctx) error { return admin_handlers.SuspendUser(c, store) })
	admin.Post("/users/:id/unsuspend", func(c *fiber.Ctx) error { return admin_handlers.UnsuspendUser(c, store) })

	// Audit trail, dashboard and settings
	admin.Get("/audit", func(c *fiber.Ctx) error { return admin_handlers.ListAuditLogs(c, store) })
	admin.Get("/stats", func(c *fiber.Ctx) error { return admin_handlers.GetStats(c, store) })
	admin.Get("/settings", func(c *fiber.Ctx) error { return admin_handlers.ListSettings(c, store) })
	admin.Put("/settings/:key", func(c *fiber.Ctx) error { return admin_handlers.UpsertSetting(c, store) })
}
