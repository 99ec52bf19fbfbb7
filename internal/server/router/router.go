package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/logidash/internal/server/handlers"
)

// Handlers groups the HTTP adapters mounted by the router.
type Handlers struct {
	Shipments *handlers.ShipmentHandler
	Customers *handlers.CustomerHandler
	Dashboard *handlers.DashboardHandler
	WS        *handlers.WSHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	api := r.Group("/api")

	shipments := api.Group("/shipments")
	shipments.GET("", h.Shipments.List)
	shipments.POST("", h.Shipments.Create)
	shipments.POST("/refresh", h.Shipments.Refresh)
	shipments.GET("/:id/form", h.Shipments.Form)
	shipments.PUT("/:id", h.Shipments.Edit)
	shipments.PATCH("/:id", h.Shipments.Patch)
	shipments.DELETE("/:id", h.Shipments.Delete)

	customers := api.Group("/customers")
	customers.GET("", h.Customers.List)
	customers.POST("", h.Customers.Create)
	customers.POST("/refresh", h.Customers.Refresh)
	customers.GET("/:id/form", h.Customers.Form)
	customers.PUT("/:id", h.Customers.Edit)
	customers.PATCH("/:id", h.Customers.Patch)
	customers.DELETE("/:id", h.Customers.Delete)

	api.GET("/dashboard", h.Dashboard.Dashboard)
	api.POST("/dashboard/refresh", h.Dashboard.Refresh)
	api.GET("/activities", h.Dashboard.Activities)
	api.GET("/sections", h.Dashboard.Sections)
	api.GET("/views/:section", h.Dashboard.Navigate)

	if h.WS != nil {
		r.GET("/ws", h.WS.Serve)
	}
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("request failed", fields...)
			return
		}
		logger.Info("request completed", fields...)
	}
}
