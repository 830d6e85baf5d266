package handlers

import (
	"distillation_monitor/internal/logger"
	"distillation_monitor/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	hub      *Hub
	gatherer prometheus.Gatherer
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies. A nil hub gets
// a private one; a nil gatherer serves the default prometheus registry.
func NewHandler(services *service.Service, hub *Hub, gatherer prometheus.Gatherer, log *logger.Logger) *Handler {
	if hub == nil {
		hub = NewHub(nil, log)
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Handler{services: services, hub: hub, gatherer: gatherer, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))

	router.GET("/health", h.health)

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	// Sample stream; same port
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
	api := r.Group("/api/v1", h.operatorIdMiddleware)
	{
		h.registerTransmissionRoutes(api)
		h.registerSourceRoutes(api)
		h.registerArchiveRoutes(api)
		h.registerCalcRoutes(api)
		h.registerSettingsRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerTransmissionRoutes(api *gin.RouterGroup) {
	tr := api.Group("/transmission")
	{
		tr.POST("/start", h.startTransmission)
		tr.POST("/toggle", h.toggleTransmission)
		tr.POST("/cancel", h.cancelTransmission)
		// Body example: {"factor":2}
		tr.POST("/speed", h.setSpeed)
		// Body example: {"delta":-10}
		tr.POST("/skip", h.skip)
		tr.GET("/state", h.getState)
	}
	api.GET("/history", h.getHistory)
}

func (h *Handler) registerSourceRoutes(api *gin.RouterGroup) {
	src := api.Group("/source")
	{
		src.POST("/live", h.connectLive)
		src.POST("/live/disconnect", h.disconnectLive)
		src.POST("/playback", h.loadPlayback)
		src.POST("/temperatures", h.loadTemperatures)
	}
	api.GET("/modbus/ports", h.listPorts)
}

func (h *Handler) registerArchiveRoutes(api *gin.RouterGroup) {
	sessions := api.Group("/sessions")
	{
		sessions.GET("", h.listSessions)
		sessions.GET("/:id/samples", h.getSessionSamples)
	}
}

func (h *Handler) registerCalcRoutes(api *gin.RouterGroup) {
	calc := api.Group("/calc")
	{
		calc.POST("/composition", h.calcComposition)
		calc.POST("/interpolate", h.calcInterpolate)
		calc.POST("/mass", h.calcMass)
		calc.POST("/mass/history", h.calcMassFromHistory)
	}
}

func (h *Handler) registerSettingsRoutes(api *gin.RouterGroup) {
	api.GET("/settings", h.getSettings)
	api.PUT("/settings", h.saveSettings)
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}
