package main

import (
	"log"
	"strings"

	"github.com/Ryuu-x/File-Sharing-App/internal/b2"
	"github.com/Ryuu-x/File-Sharing-App/internal/config"
	"github.com/Ryuu-x/File-Sharing-App/internal/db"
	"github.com/Ryuu-x/File-Sharing-App/internal/handlers"
	"github.com/Ryuu-x/File-Sharing-App/internal/middleware"
	"github.com/Ryuu-x/File-Sharing-App/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading it, using environment variables")
	}

	cfg := config.Load()

	// Missing storage credentials are reported but do not halt startup;
	// upload/download requests will fail against the provider instead.
	if missing := cfg.MissingStorageVars(); len(missing) > 0 {
		log.Printf("Missing required B2 env vars: %s", strings.Join(missing, ", "))
	}

	// Initialize Fiber; body limit must sit above the 200 MiB upload ceiling
	app := fiber.New(fiber.Config{
		BodyLimit: 210 * 1024 * 1024,
	})

	// Middleware
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.AllowOrigins,
		ExposeHeaders: "Retry-After,X-RateLimit-Limit,X-RateLimit-Remaining",
	}))

	// Connect to MongoDB
	mongoDB, err := db.Connect(cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		log.Fatalf("MongoDB connection failed: %v", err)
	}

	provider := b2.New(cfg.B2AccountID, cfg.B2ApplicationKey, cfg.B2BucketID, cfg.B2BucketName)

	fileService := services.NewFileService(db.NewFileStore(mongoDB), provider)
	authService := services.NewAuthService(db.NewUserStore(mongoDB), cfg.JWTSecret)
	h := handlers.New(fileService, authService, mongoDB)

	// Auth Routes
	auth := app.Group("/auth")
	auth.Post("/register", h.Register)
	auth.Post("/login", h.Login)

	// File Routes
	optionalAuth := middleware.OptionalAuth(cfg.JWTSecret)
	app.Post("/upload", optionalAuth, middleware.UploadLimiter(cfg.UploadLimit), h.Upload)
	app.Get("/file/:fileId", optionalAuth, middleware.DownloadLimiter(cfg.DownloadLimit), h.Download)

	app.Get("/health", h.Health)

	// Start server
	log.Fatal(app.Listen(":" + cfg.Port))
}
