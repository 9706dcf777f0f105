package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"share-counts/internal/auth"
	"share-counts/internal/config"
	"share-counts/internal/database"
	"share-counts/internal/handlers"
	"share-counts/internal/live"
	"share-counts/internal/models"
	"share-counts/internal/services"
	"share-counts/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load database configuration
	dbConfig := database.LoadConfig()

	// Connect to database
	if err := database.Connect(dbConfig); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Load settings once; every component receives them explicitly.
	settingsStore := config.NewStore(database.DB)
	settings, err := settingsStore.Load()
	if err != nil {
		log.Fatal("Failed to load settings:", err)
	}

	// Wire services
	secret := getEnv("AUTH_SECRET", "change-me-in-production")
	nonces := auth.NewNonceService(secret, 12*time.Hour)
	capabilities := auth.NewCapabilityService(secret, 24*time.Hour)

	registry := services.NewGroupRegistry(database.DB)
	cache := services.NewSnapshotCache(os.Getenv("REDIS_ADDR"), 30*time.Minute)
	defer cache.Close()

	fetcher := services.NewFetcher(settings)
	resolver := services.NewPermalinkResolver(os.Getenv("CONTENT_BASE_URL"))
	counts := services.NewCountsService(registry, fetcher, resolver, cache, settings)

	// Initialize and start the background refresh worker
	workerService := worker.NewWorkerService(database.DB, counts)
	if err := workerService.Start(); err != nil {
		log.Fatal("Failed to start background workers:", err)
	}

	hub := live.NewHub()

	// Setup graceful shutdown
	setupGracefulShutdown(workerService, hub)

	// Setup HTTP server
	setupServer(settingsStore, settings, registry, counts, nonces, capabilities, hub)
}

func setupGracefulShutdown(workerService *worker.WorkerService, hub *live.Hub) {
	// Setup signal handling for graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Received shutdown signal, gracefully shutting down...")

		workerService.Stop()
		hub.Close()
		database.Close()

		log.Println("Shutdown complete")
		os.Exit(0)
	}()
}

func setupServer(
	settingsStore *config.Store,
	settings models.Settings,
	registry *services.GroupRegistry,
	counts *services.CountsService,
	nonces *auth.NonceService,
	capabilities *auth.CapabilityService,
	hub *live.Hub,
) {
	// Set Gin mode based on environment
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router
	r := gin.Default()

	// Resolve the caller's capability for every request
	r.Use(capabilities.Middleware())

	// Initialize handlers
	utcOffset := time.Duration(envFloat("UTC_OFFSET_HOURS", 0) * float64(time.Hour))

	refreshHandler := handlers.NewRefreshHandler(registry, counts, nonces, hub, settings, utcOffset)
	saveHandler := handlers.NewSaveHandler(registry, nonces)
	countsHandler := handlers.NewCountsHandler(registry)
	settingsHandler := handlers.NewSettingsHandler(settingsStore)
	tokenHandler := handlers.NewTokenHandler(capabilities, nonces)
	docsHandler := handlers.NewDocsHandler()

	// Health check
	r.GET("/health", countsHandler.HealthCheck)

	// Serve Markdown documentation as HTML
	r.GET("/doc/:doc", docsHandler.ServeMarkdownAsHTML)

	// Live count updates for admin pages
	r.GET("/ws/counts", hub.Serve)

	// API routes
	api := r.Group("/api")
	{
		api.POST("/auth/token", tokenHandler.IssueToken)

		apiCounts := api.Group("/counts")
		{
			apiCounts.GET("/nonce", tokenHandler.IssueNonces)
			apiCounts.POST("/refresh", refreshHandler.Refresh)
			apiCounts.POST("/save", saveHandler.Save)
			apiCounts.GET("/:content_id", countsHandler.GetCounts)
		}

		api.GET("/settings", settingsHandler.GetSettings)
		api.PUT("/settings", settingsHandler.UpdateSettings)
	}

	// Get port from environment or default to 8080
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// envFloat returns a float environment variable value or default
func envFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
