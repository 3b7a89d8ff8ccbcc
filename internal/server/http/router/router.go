package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/celustore/payserver/internal/config"
	"github.com/celustore/payserver/internal/server/http/handlers"
	"github.com/celustore/payserver/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.CommerceFacade, cfg *config.Config, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	orderHandler := handlers.NewOrderHandler(facade)
	catalogHandler := handlers.NewCatalogHandler(facade)
	paymentHandler := handlers.NewPaymentHandler(facade)
	healthHandler := handlers.NewHealthHandler(facade)

	api := engine.Group("/api")
	api.GET("/health", healthHandler.Check)
	api.GET("/products/:id/units", catalogHandler.Units)

	orders := api.Group("/orders")
	orders.POST("", orderHandler.Create)
	orders.GET("/:id", orderHandler.Get)

	payments := api.Group("/payments")
	payments.POST("/:id/card", paymentHandler.Start)
	payments.POST("/:id/card/continue", paymentHandler.Continue)
	payments.POST("/:id/card/challenge", paymentHandler.Challenge)

	admin := api.Group("/admin")
	admin.Use(middleware.AdminAuth(cfg.AdminKeyHash))
	admin.DELETE("/orders/:id", orderHandler.Cancel)

	return engine
}
