package handlers

import (
	"heater_server/internal/logger"
	"heater_server/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires the HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	// WebSocket push of the current snapshot — same port.
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		h.registerHeaterRoutes(api)
		h.registerNotifierRoutes(api)
		api.POST("/logs", h.addClientLogs)
	}
}

func (h *Handler) registerHeaterRoutes(api *gin.RouterGroup) {
	heater := api.Group("/heater")
	{
		heater.POST("/values", h.submitValues)
		heater.GET("/current", h.getCurrent)
		heater.GET("/data", h.getData)
		heater.POST("/history", h.importHistory)
		heater.GET("/operating-hours", h.getOperatingHours)
		heater.PUT("/logging-state", h.setLoggingState)
	}
}

func (h *Handler) registerNotifierRoutes(api *gin.RouterGroup) {
	notifier := api.Group("/notifier")
	{
		notifier.GET("/config", h.getNotifierConfig)
		notifier.PUT("/config", h.setNotifierConfig)
	}
}
