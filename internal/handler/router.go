package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/pantry-sync-api/internal/middleware"
	"github.com/noah-isme/pantry-sync-api/internal/models"
	"github.com/noah-isme/pantry-sync-api/internal/realtime"
	"github.com/noah-isme/pantry-sync-api/internal/service"
	"github.com/noah-isme/pantry-sync-api/pkg/config"
	"github.com/noah-isme/pantry-sync-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/pantry-sync-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/pantry-sync-api/pkg/middleware/requestid"
)

// Routes carries everything the HTTP surface is built from.
type Routes struct {
	Config   *config.Config
	Logger   *zap.Logger
	Metrics  *service.MetricsService
	Sessions realtime.SessionVerifier
	Hub      *realtime.Hub

	Appointments *AppointmentHandler
	Delivery     *DeliveryHandler
	Shoppers     *ShopperHandler
	Realtime     *RealtimeHandler
	Health       *MetricsHandler
}

// NewRouter assembles the gin engine with the shared middleware chain.
func NewRouter(rt Routes) *gin.Engine {
	cfg := rt.Config
	cors := corsmiddleware.NewPolicy(cfg.CORS.AllowedOrigins)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(rt.Logger))
	r.Use(cors.Middleware())
	r.Use(middleware.Metrics(rt.Metrics))

	r.GET("/health", rt.Health.Health)
	r.GET("/ready", rt.Health.Ready)
	r.GET("/metrics", rt.Health.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.GET("/ws", rt.Hub.Handler(realtime.HandshakeConfig{
		CookieName:   cfg.Session.CookieName,
		WriteTimeout: cfg.Realtime.WriteTimeout,
		CheckOrigin:  cors.CheckOrigin,
	}))

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta(), middleware.Session(rt.Sessions, cfg.Session.CookieName))

	greeter := middleware.RequirePermission(models.PermissionGreeter)
	scheduler := middleware.RequirePermission(models.PermissionScheduler)

	api.GET("/session", greeter, rt.Realtime.Me)
	api.GET("/roster", greeter, rt.Realtime.Roster)

	api.GET("/appointments", scheduler, rt.Appointments.List)
	api.GET("/appointments/occupancy", scheduler, rt.Appointments.Occupancy)
	api.PUT("/fulfillments", scheduler, middleware.Audit(rt.Logger, "save_fulfillment"), rt.Appointments.Save)
	api.DELETE("/fulfillments/:distribution/:family", scheduler, middleware.Audit(rt.Logger, "cancel_appointment"), rt.Appointments.Cancel)
	api.PATCH("/fulfillments/:distribution/:family/fulfilled", greeter, middleware.Audit(rt.Logger, "update_fulfilled"), rt.Appointments.UpdateFulfilled)
	api.POST("/arrivals", greeter, rt.Appointments.Arrival)

	api.GET("/delivery-day", greeter, rt.Delivery.Today)
	api.GET("/delivery-day/sheet", greeter, rt.Delivery.Sheet)

	api.GET("/shoppers", greeter, rt.Shoppers.List)
	api.PUT("/shoppers", scheduler, middleware.Audit(rt.Logger, "update_shoppers"), rt.Shoppers.Replace)

	return r
}
