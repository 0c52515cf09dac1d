package handlers

import (
	"net/http"

	"sensor_console/internal/logger"
	"sensor_console/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	metrics  http.Handler
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies. metrics may be nil.
func NewHandler(services *service.Service, metrics http.Handler, log *logger.Logger) *Handler {
	return &Handler{services: services, metrics: metrics, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics))
	}

	// Versioned API endpoints
	h.registerAPIRoutes(router)

	// Viewer stream (HTTP upgrade) on the same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		h.registerDashboardRoutes(api)
		h.registerFormRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerDashboardRoutes(api *gin.RouterGroup) {
	api.GET("/state", h.getState)
	api.POST("/devices/:id/toggle", h.toggleDevice)
	// Body: {"confirm":true}
	api.POST("/reset", h.factoryReset)
	api.DELETE("/notice", h.dismissNotice)
	api.GET("/chart.png", h.getChart)
	// Body: {"width":640,"height":320}
	api.POST("/chart/size", h.resizeChart)
}

func (h *Handler) registerFormRoutes(api *gin.RouterGroup) {
	forms := api.Group("/forms")
	{
		forms.POST("/settings", h.submitSettings)
		forms.POST("/thresholds", h.submitThresholds)
		forms.POST("/led-pattern", h.submitLedPattern)
		forms.POST("/neo-color", h.submitNeoColor)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}
