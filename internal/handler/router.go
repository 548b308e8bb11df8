package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Fosho-App/fosho-v1/pkg/middleware"
)

// RouterConfig bundles the handlers and cross-cutting middleware the
// HTTP surface is assembled from.
type RouterConfig struct {
	Health    *HealthHandler
	Community *CommunityHandler
	Event     *EventHandler
	Attendee  *AttendeeHandler

	JWTSecret string
	RateLimit *middleware.RateLimitConfig
	Audit     *middleware.AuditLogger
}

// SetupRouter wires all routes onto a gin engine. Everything under
// /api/v1 requires a signed identity.
func SetupRouter(engine *gin.Engine, cfg *RouterConfig) {
	engine.GET("/health", cfg.Health.Health)
	engine.GET("/ready", cfg.Health.Ready)

	api := engine.Group("/api/v1")

	if cfg.RateLimit != nil {
		api.Use(middleware.RateLimiter(*cfg.RateLimit))
	}
	api.Use(middleware.JWTMiddleware(&middleware.JWTConfig{
		Secret: cfg.JWTSecret,
	}))
	if cfg.Audit != nil {
		api.Use(middleware.AuditMiddleware(cfg.Audit))
	}

	communities := api.Group("/communities")
	{
		communities.POST("", cfg.Community.Create)
		communities.GET("/:id", cfg.Community.GetByID)
		communities.POST("/:id/events", cfg.Event.Create)
		communities.GET("/:id/events", cfg.Event.ListByCommunity)
	}

	events := api.Group("/events")
	{
		events.GET("/:id", cfg.Event.GetByID)
		events.POST("/:id/cancel", cfg.Event.Cancel)
		events.POST("/:id/join", cfg.Attendee.Join)
		events.GET("/:id/attendees", cfg.Attendee.ListByEvent)
	}

	attendees := api.Group("/attendees")
	{
		attendees.GET("/:id", cfg.Attendee.GetByID)
		attendees.POST("/:id/verify", cfg.Attendee.Verify)
		attendees.POST("/:id/reject", cfg.Attendee.Reject)
		attendees.POST("/:id/claim", cfg.Attendee.Claim)
	}
}
