package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/VoltaiLTD/voltdesigns/config"
	"github.com/VoltaiLTD/voltdesigns/handler"
	"github.com/VoltaiLTD/voltdesigns/middleware"
	"github.com/VoltaiLTD/voltdesigns/pkg/logger"
	"github.com/VoltaiLTD/voltdesigns/service"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env before config so env overrides see it
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.Load("config.yaml")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully")

	// Initialize services
	mailer := service.NewMailer(&cfg.Mail)
	if !mailer.Configured() {
		slog.Warn("email provider not configured; quote requests will fail until RESEND_API_KEY is set")
	}

	composer := service.NewComposer(&cfg.Company, &cfg.Pricing, &cfg.Assets)

	var archive *service.ArchiveService
	if cfg.Archive.Enabled() {
		archive, err = service.NewArchiveService(&cfg.Archive)
		if err != nil {
			slog.Error("failed to initialize invoice archive", "error", err)
			os.Exit(1)
		}
		if err := archive.EnsureBucket(context.Background()); err != nil {
			// Archive is best-effort; keep serving quotes without it
			slog.Warn("invoice archive unavailable", "error", err)
			archive = nil
		}
	}

	service.InitQuoteStore(&cfg.Store)

	drafts := service.NewDraftStore(service.NewFileKV(cfg.Drafts.Dir))

	// Initialize handlers
	catalogHandler := handler.NewCatalogHandler()
	draftHandler := handler.NewDraftHandler(drafts)
	quoteHandler := handler.NewQuoteHandler(cfg, mailer, composer, archive, drafts)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New() // Use New() instead of Default() to avoid default middleware

	// Add custom middleware
	router.Use(middleware.RequestID())                 // Request ID for tracing
	router.Use(middleware.Recovery())                  // Panic recovery
	router.Use(middleware.RequestLogger())             // Access logging
	router.Use(corsMiddleware())                       // CORS
	router.Use(cacheMiddleware())                      // Cache control
	router.Use(middleware.RateLimit(100, time.Minute)) // Rate limiting: 100 requests per minute

	// Static assets (logo, fonts, material images)
	if info, err := os.Stat(cfg.Assets.PublicDir); err == nil && info.IsDir() {
		router.Static("/static", cfg.Assets.PublicDir)
		slog.Info("serving static assets", "directory", cfg.Assets.PublicDir)
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api")
	{
		api.GET("/catalog", catalogHandler.List)
		api.GET("/catalog/:slug", catalogHandler.Get)

		api.GET("/quote-draft", draftHandler.Get)
		api.PUT("/quote-draft", draftHandler.Put)
		api.DELETE("/quote-draft", draftHandler.Delete)

		api.POST("/estimate", quoteHandler.Estimate)
		api.POST("/request-quote", quoteHandler.RequestQuote)
		api.POST("/quote-email", quoteHandler.NotifySales)
		api.POST("/invoice", quoteHandler.Invoice)

		api.GET("/quotes", quoteHandler.List)
		api.GET("/quotes/:id", quoteHandler.Get)
	}

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}

// corsMiddleware handles CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// cacheMiddleware sets cache control headers for static assets
func cacheMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		// Skip caching for API routes
		if strings.HasPrefix(path, "/api") {
			c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
			return
		}

		// Material images and fonts rarely change (1 hour)
		if strings.HasPrefix(path, "/static") {
			c.Header("Cache-Control", "public, max-age=3600, must-revalidate")
		}

		c.Next()
	}
}
