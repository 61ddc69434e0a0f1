package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/otd-mx/ordenes-api/config"
	"github.com/otd-mx/ordenes-api/controllers"
	"github.com/otd-mx/ordenes-api/logger"
	"github.com/otd-mx/ordenes-api/middleware"
	"github.com/otd-mx/ordenes-api/services"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()
	zap.ReplaceGlobals(appLogger)

	appLogger.Info("Starting work order API server...", zap.String("env", cfg.GoEnv))

	storage, err := newWorkbookStorage(context.Background(), cfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize workbook storage", zap.Error(err))
	}

	metrics := services.NewMetrics()
	services.InitOrderStore(storage, cfg.WorkbookSheet, metrics)
	if services.InitAuth0Service(cfg) == nil {
		appLogger.Warn("AUTH0_DOMAIN not set, order mutations are not protected")
	}

	appLogger.Info("Workbook storage ready",
		zap.String("location", storage.Describe()),
		zap.String("sheet", cfg.WorkbookSheet),
	)

	router, err := setupRouter(cfg, appLogger, metrics)
	if err != nil {
		appLogger.Fatal("Failed to configure routes", zap.Error(err))
	}

	port := ":" + cfg.Port
	appLogger.Info(fmt.Sprintf("Server is running on http://localhost%s", port))
	if err := router.Run(port); err != nil {
		appLogger.Fatal("Failed to start server", zap.Error(err))
	}
}

// newWorkbookStorage picks the storage backend named in the configuration
func newWorkbookStorage(ctx context.Context, cfg *config.Config) (services.WorkbookStorage, error) {
	switch cfg.StorageBackend {
	case config.StorageS3:
		return services.NewS3WorkbookStorage(ctx, cfg)
	default:
		return services.NewLocalWorkbookStorage(cfg.WorkbookPath), nil
	}
}

// setupRouter builds the gin engine with middleware and the /api/v1 routes.
// The order store must be initialized before the router serves requests.
func setupRouter(cfg *config.Config, appLogger *zap.Logger, metrics *services.Metrics) (*gin.Engine, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(appLogger, metrics))
	router.Use(cors.New(corsConfig(cfg)))

	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	// Mutations need a token with write:orders once Auth0 is configured
	protected := []gin.HandlerFunc{}
	if cfg.AuthEnabled() {
		ensureValidToken, err := middleware.EnsureValidToken(cfg)
		if err != nil {
			return nil, err
		}
		protected = append(protected, ensureValidToken, middleware.RequireScope(middleware.ScopeWriteOrders))
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/storage/status", controllers.StorageStatus)
		v1.GET("/workbook", controllers.DownloadWorkbook)

		orders := v1.Group("/orders")
		{
			orders.GET("", controllers.ListOrders)
			orders.GET("/filters", controllers.GetOrderFilters)
			orders.GET("/next-id", controllers.GetNextOrderID)
			orders.GET("/form", controllers.GetOrderForm)
			orders.GET("/export", controllers.ExportOrders)
			orders.GET("/:id", controllers.GetOrder)
		}

		mutations := v1.Group("/orders", protected...)
		{
			mutations.POST("", controllers.CreateOrder)
			mutations.PATCH("/:id", controllers.UpdateOrder)
			mutations.DELETE("/:id", controllers.DeleteOrder)
		}
	}

	return router, nil
}

func corsConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	return corsCfg
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Work order API is running",
	})
}
