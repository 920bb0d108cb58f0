// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/battery-scm/backend-go/internal/api/handlers"
	"github.com/andresuchdata/battery-scm/backend-go/internal/api/middleware"
	"github.com/andresuchdata/battery-scm/backend-go/internal/metrics"
	"github.com/andresuchdata/battery-scm/backend-go/internal/service"
)

// NewRouter wires the HTTP routes. m may be nil, in which case /metrics is
// not served.
func NewRouter(services *service.Services, allowedOrigins []string, m *metrics.Metrics) *gin.Engine {
	middleware.InitValidator()

	router := gin.New()

	// Add middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	if m != nil {
		router.Use(middleware.Metrics(m))
	}
	router.Use(cors.New(corsConfig(allowedOrigins)))
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if m != nil {
		router.GET("/metrics", middleware.MetricsEndpoint(m))
	}

	apiGroup := router.Group("/api/v1")

	if services == nil {
		return router
	}

	if services.MRP != nil {
		mrpHandler := handlers.NewMRPHandler(services.MRP)
		mrpGroup := apiGroup.Group("/mrp")
		{
			mrpGroup.GET("/requirements", mrpHandler.GetRequirements)
			mrpGroup.GET("/productions/:id/requirements", mrpHandler.GetProductionRequirements)
			mrpGroup.POST("/orders", mrpHandler.ConfirmOrders)
			mrpGroup.POST("/runs", mrpHandler.CreateRun)
			mrpGroup.GET("/runs", mrpHandler.ListRuns)
			mrpGroup.GET("/runs/:id", mrpHandler.GetRun)
		}
	}

	if services.Inventory != nil {
		materialHandler := handlers.NewMaterialHandler(services.Inventory)
		materialGroup := apiGroup.Group("/materials")
		{
			materialGroup.GET("", materialHandler.ListMaterials)
			materialGroup.GET("/low-stock", materialHandler.LowStock)
			materialGroup.GET("/:code", materialHandler.GetMaterial)
			materialGroup.POST("/:code/receipts", materialHandler.ReceiveStock)
			materialGroup.POST("/:code/issues", materialHandler.IssueStock)
		}
		apiGroup.GET("/boms", materialHandler.ListBOMs)
		apiGroup.GET("/boms/:product", materialHandler.GetBOM)
	}

	if services.Orders != nil {
		orderHandler := handlers.NewOrderHandler(services.Orders)
		orderGroup := apiGroup.Group("/orders")
		{
			orderGroup.GET("", orderHandler.ListOrders)
			orderGroup.POST("", orderHandler.CreateOrder)
			orderGroup.GET("/:id", orderHandler.GetOrder)
			orderGroup.POST("/:id/confirm", orderHandler.ConfirmOrder)
			orderGroup.POST("/:id/transition", orderHandler.TransitionOrder)
		}
	}

	if services.Production != nil {
		productionHandler := handlers.NewProductionHandler(services.Production)
		productionGroup := apiGroup.Group("/productions")
		{
			productionGroup.GET("", productionHandler.ListProductions)
			productionGroup.POST("", productionHandler.CreateProduction)
			productionGroup.GET("/:id", productionHandler.GetProduction)
			productionGroup.POST("/:id/transition", productionHandler.TransitionProduction)
		}
	}

	return router
}

func corsConfig(allowedOrigins []string) cors.Config {
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	config := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			config.AllowOrigins = nil
			config.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			config.AllowOrigins = normalizedOrigins
		}
	}
	return config
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
