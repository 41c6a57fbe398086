package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/facilityops/incident-service/internal/api/http/handlers"
	"github.com/facilityops/incident-service/internal/auth"
	"github.com/facilityops/incident-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Incidents      *handlers.IncidentsHandler
	Cases          *handlers.CasesHandler
	Offers         *handlers.OffersHandler
	Notifications  *handlers.NotificationsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, auth.RequireAnyRole(), cfg.Auth.ChangePassword)

	incidents := app.Group("/incidents", cfg.AuthMiddleware.Handle)
	incidents.Post("", auth.RequireRole(domain.RoleReporter, domain.RoleControl), cfg.Incidents.CreateIncident)
	incidents.Get("", auth.RequireAnyRole(), cfg.Incidents.ListIncidents)
	incidents.Get("/:id", auth.RequireAnyRole(), cfg.Incidents.GetIncident)
	incidents.Post("/:id/assign", auth.RequireRole(domain.RoleControl), cfg.Incidents.AssignProvider)
	incidents.Post("/:id/close", auth.RequireRole(domain.RoleControl), cfg.Incidents.CloseIncident)
	incidents.Post("/:id/annul", auth.RequireRole(domain.RoleControl), cfg.Incidents.AnnulIncident)
	incidents.Post("/:id/manual-resolve", auth.RequireRole(domain.RoleControl), cfg.Incidents.ManualResolve)

	cases := app.Group("/cases", cfg.AuthMiddleware.Handle)
	cases.Get("/:id/actions", auth.RequireAnyRole(), cfg.Cases.Actions)
	cases.Post("/:id/resolve", auth.RequireRole(domain.RoleVendor, domain.RoleControl), cfg.Cases.Resolve)
	cases.Post("/:id/accept-resolution", auth.RequireRole(domain.RoleControl), cfg.Cases.AcceptResolution)
	cases.Post("/:id/send-to-review", auth.RequireRole(domain.RoleControl), cfg.Cases.SendToReview)
	cases.Post("/:id/value", auth.RequireRole(domain.RoleVendor), cfg.Cases.Value)
	cases.Post("/:id/annul", auth.RequireRole(domain.RoleControl), cfg.Cases.Annul)
	cases.Post("/:id/visits", auth.RequireRole(domain.RoleVendor), cfg.Cases.ScheduleVisit)
	cases.Post("/:id/offers", auth.RequireRole(domain.RoleVendor), cfg.Offers.SubmitOffer)

	offers := app.Group("/offers", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleControl))
	offers.Post("/:id/approve", cfg.Offers.ApproveOffer)
	offers.Post("/:id/reject", cfg.Offers.RejectOffer)

	notifications := app.Group("/notifications", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleVendor))
	notifications.Get("", cfg.Notifications.ListUnread)
	notifications.Get("/count", cfg.Notifications.UnreadCount)
	notifications.Post("/incidents/:id/seen", cfg.Notifications.MarkSeen)
	notifications.Post("/clear", cfg.Notifications.ClearAll)
}
