package main

import (
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/hotelaria/opshub/internal/config"
	"github.com/hotelaria/opshub/internal/database"
	"github.com/hotelaria/opshub/internal/handlers"
	"github.com/hotelaria/opshub/internal/middleware"
	"github.com/hotelaria/opshub/internal/storage"
	"github.com/hotelaria/opshub/internal/template"
	"github.com/hotelaria/opshub/internal/types"

	_ "github.com/hotelaria/opshub/docs/api" // Swagger docs
)

// @title OpsHub Inspections API
// @version 1.0.0
// @description Inspection evaluation and scoring engine for hotel property operations

// @contact.name API Support

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name cookie_session

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Load the inspection template catalog
	catalog, err := template.Load()
	if err != nil {
		log.Fatalf("Failed to load template catalog: %v", err)
	}
	log.Printf("Loaded inspection templates for categories: %v", catalog.Categories())

	// Evidence URL signer (external object store boundary)
	signer, err := storage.NewHMACSigner(cfg.EvidenceURLBase, cfg.EvidenceSigningSecret, cfg.EvidenceURLTTL)
	if err != nil {
		log.Fatalf("Failed to create evidence signer: %v", err)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())

	// Prometheus metrics
	prometheus := fiberprometheus.New("opshub")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API routes under /api
	api := app.Group("/api")

	// Version middleware
	api.Use(middleware.VersionMiddleware())

	handler := &handlers.InspectionHandler{DB: db, Signer: signer, Catalog: catalog, Config: cfg}

	api.Get("/health", handler.Health)

	// Inspection routes (all require a validated session and an assignment record)
	inspections := api.Group("/inspections", middleware.Auth(db, cfg))
	inspections.Post("/", handler.CreateInspection)
	inspections.Get("/", handler.ListInspections)
	inspections.Get("/stats", handler.GetAggregateStats)
	inspections.Get("/:id", handler.GetInspection)
	inspections.Post("/:id/items", handler.UpdateItems)
	inspections.Post("/:id/status", handler.TransitionStatus)
	inspections.Delete("/:id", handler.DeleteInspection)
	inspections.Put("/:id/items/:itemId/evidence/:slot", handler.AttachEvidence)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":    fiber.StatusNotFound,
			"message":   "[404] Resource Not Found",
			"ok":        false,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"url":       c.OriginalURL(),
		})
	})

	// The Authorizer client initializes lazily on the first authenticated request
	log.Printf("Authorizer will be initialized on first authenticated request")

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	// Start server
	port := cfg.Port
	log.Printf("Starting server on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Println("Server stopped")
}

// customErrorHandler handles errors globally
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	errorType := "unknown"

	// Check if it's a Fiber error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Check for middleware errors carrying their own code and type
	var ce *types.CustomError
	if errors.As(err, &ce) {
		code = ce.Code
		message = ce.Message
		errorType = ce.Type
	}

	// Check for version errors
	versionError := false
	if code == fiber.StatusConflict || (message != "" && len(message) >= 9 && message[:9] == "E_VERSION") {
		versionError = true
		errorType = "version"
		code = fiber.StatusConflict
	}

	return c.Status(code).JSON(fiber.Map{
		"status":       code,
		"message":      message,
		"ok":           false,
		"versionError": versionError,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"url":          c.OriginalURL(),
		"type":         errorType,
	})
}
