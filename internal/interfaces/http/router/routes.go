package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/interfaces/http/handler"
)

// HotelPMSPrefix scopes every operator call to one hotel and vendor
const HotelPMSPrefix = "/hotels/:hotelId/pms/:provider"

// PMSGroups returns the operator routes and the inbound webhook route.
// webhookMiddleware only wraps the webhook endpoint.
func PMSGroups(h *handler.PMSHandler, webhookMiddleware ...gin.HandlerFunc) []RouteRegistrar {
	hotels := NewDomainGroup("pms", HotelPMSPrefix).
		POST("/sync/:entity", h.Sync).
		GET("/connection", h.TestConnection).
		POST("/bookings", h.CreateBooking).
		DELETE("/bookings/:externalId", h.CancelBooking)

	webhooks := NewDomainGroup("pms-webhooks", "/pms/webhooks").
		Use(webhookMiddleware...).
		POST("/:provider/:hotelId", h.Webhook)

	return []RouteRegistrar{hotels, webhooks}
}

// SchedulerGroups returns the background sync routes
func SchedulerGroups(h *handler.SchedulerHandler) []RouteRegistrar {
	jobs := NewDomainGroup("pms-scheduler", "/pms/scheduler").
		GET("/jobs", h.ListJobs)
	trigger := NewDomainGroup("pms-schedule", HotelPMSPrefix).
		POST("/schedule/:entity", h.Trigger)
	return []RouteRegistrar{jobs, trigger}
}

// SystemGroup returns the system info route
func SystemGroup(h *handler.SystemHandler) RouteRegistrar {
	return NewDomainGroup("system", "/system").GET("/info", h.GetSystemInfo)
}

// RegisterOperational mounts health and Prometheus scrape endpoints at the root
func RegisterOperational(engine *gin.Engine, system *handler.SystemHandler, metrics http.Handler) {
	engine.GET("/health", system.Health)
	if metrics != nil {
		engine.GET("/metrics", gin.WrapH(metrics))
	}
}
