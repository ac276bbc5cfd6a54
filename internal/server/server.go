package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/ridwanfathin/tour-quote-service/internal/config"
	"github.com/ridwanfathin/tour-quote-service/internal/handler"
	"github.com/ridwanfathin/tour-quote-service/internal/metrics"
	"github.com/ridwanfathin/tour-quote-service/internal/middleware"
	"github.com/ridwanfathin/tour-quote-service/internal/model"
)

// Server represents the HTTP server for the tour quote service
type Server struct {
	router       *gin.Engine
	httpServer   *http.Server
	quoteHandler *handler.QuoteHandler
	syncHandler  *handler.SyncHandler
	metrics      *metrics.Metrics
	config       *config.Config
	onShutdown   []func()
	storageCheck func(context.Context) error
}

// NewServer creates and configures a new server instance
func NewServer(cfg *config.Config, quoteHandler *handler.QuoteHandler, syncHandler *handler.SyncHandler, m *metrics.Metrics) *Server {
	// Create router
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(m.GinMiddleware())
	router.Use(middleware.RequestResponseLogger(middleware.LoggerConfig{
		Format:    cfg.LogFormat,
		Level:     cfg.LogLevel,
		SkipPaths: []string{"/health", "/metrics"},
	}))

	// Create server
	server := &Server{
		router:       router,
		quoteHandler: quoteHandler,
		syncHandler:  syncHandler,
		metrics:      m,
		config:       cfg,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}

	// Configure routes
	server.setupRoutes()

	return server
}

// OnShutdown registers a func run after the HTTP server has stopped
func (s *Server) OnShutdown(fn func()) {
	s.onShutdown = append(s.onShutdown, fn)
}

// SetStorageCheck registers the probe /health runs against the storage backend
func (s *Server) SetStorageCheck(check func(context.Context) error) {
	s.storageCheck = check
}

// GetRouter returns the gin router instance
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// setupRoutes configures all application routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.GET("/health", func(c *gin.Context) {
		if s.storageCheck != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := s.storageCheck(ctx); err != nil {
				log.Printf("Health check failed: %v", err)
				c.JSON(http.StatusServiceUnavailable, model.HealthResponse{
					Status:  "unavailable",
					Storage: s.config.StorageDriver,
				})
				return
			}
		}
		c.JSON(http.StatusOK, model.HealthResponse{
			Status:  "ok",
			Storage: s.config.StorageDriver,
		})
	})

	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	// API documentation endpoints
	// Access the Swagger UI at http://localhost:8080/api-docs/index.html
	swaggerHandler := ginSwagger.WrapHandler(swaggerFiles.Handler)
	s.router.GET("/api-docs/*any", swaggerHandler)

	s.router.GET("/api-docs", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/api-docs/index.html")
	})

	v1 := s.router.Group("/v1")

	quotes := v1.Group("/quotes")
	quotes.POST("", s.quoteHandler.CreateQuote)
	quotes.GET("", s.quoteHandler.ListQuotes)
	quotes.POST("/calculate", s.quoteHandler.Calculate)
	quotes.GET("/:id", s.quoteHandler.GetQuote)
	quotes.PATCH("/:id", s.quoteHandler.UpdateQuote)
	quotes.PUT("/:id/state", s.quoteHandler.UpdateState)
	quotes.GET("/:id/calculation", s.quoteHandler.GetCalculation)
	quotes.PUT("/:id/tiers", s.quoteHandler.SetTiers)
	quotes.POST("/:id/tiers/local", s.quoteHandler.ApplyLocalTiers)

	quotes.GET("/:id/versions", s.quoteHandler.ListVersions)
	quotes.POST("/:id/versions", s.quoteHandler.SaveVersion)
	quotes.POST("/:id/versions/:index/load", s.quoteHandler.LoadVersion)
	quotes.DELETE("/:id/versions/:index", s.quoteHandler.DeleteVersion)

	quotes.POST("/:id/sync/meals/preview", s.syncHandler.PreviewMealSync)
	quotes.POST("/:id/sync/meals/apply", s.syncHandler.ApplyMealSync)
	quotes.POST("/:id/sync/accommodation", s.syncHandler.SyncAccommodation)
	quotes.GET("/:id/itinerary-draft", s.syncHandler.GetItineraryDraft)
	quotes.POST("/:id/itinerary", s.syncHandler.CreateItineraryFromQuote)
	quotes.POST("/:id/import/meals", s.syncHandler.ImportMeals)
	quotes.POST("/:id/import/activities", s.syncHandler.ImportActivities)

	itineraries := v1.Group("/itineraries")
	itineraries.POST("", s.syncHandler.CreateItinerary)
	itineraries.GET("/:id", s.syncHandler.GetItinerary)
}

// Start begins listening for requests and handles graceful shutdown
func (s *Server) Start() error {
	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		log.Printf("Server listening on port %d", s.config.Port)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	<-quit
	log.Println("Shutting down server...")

	if err := s.Shutdown(); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("Server exited gracefully")
	return nil
}

// Shutdown gracefully stops the server and then runs the shutdown hooks
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)
	for _, fn := range s.onShutdown {
		fn()
	}
	return err
}
