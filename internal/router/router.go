package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/publihazclick/publihazclick-sub000/internal/handler"
	"github.com/publihazclick/publihazclick-sub000/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Ad      *handler.AdHandler
	View    *handler.ViewHandler
	Claim   *handler.ClaimHandler
	Session *handler.SessionHandler
	Viewer  *handler.ViewerHandler
	Stats   *handler.StatsHandler
	Admin   *handler.AdminHandler
	Health  *handler.HealthHandler
}

// Setup configures the middleware stack and all API routes on the given Fiber
// app. botFilter may be nil (filtering disabled).
func Setup(app *fiber.App, h *Handlers, corsOrigins string, botFilter *middleware.BotFilter) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(middleware.NewRequestLogger())
	app.Use(middleware.NewCORS(corsOrigins))
	app.Use(handler.MetricsMiddleware())

	// Probes and metrics (before API group, no rate limits)
	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/metrics", handler.MetricsHandler())

	api := app.Group("/api")

	// Catalog routes
	catalogLimit := middleware.NewCatalogRateLimiter().Handler()
	api.Get("/catalog/:surface", h.Ad.GetCatalog, catalogLimit)
	api.Get("/ads", h.Ad.GetAd, catalogLimit)

	// View session routes — the bot filter guards the crediting flows only;
	// read-only routes stay open.
	viewGuards := []fiber.Handler{}
	if botFilter != nil {
		viewGuards = append(viewGuards, botFilter.Handler())
	}

	openLimit := middleware.NewViewOpenRateLimiter().Handler()
	answerLimit := middleware.NewAnswerRateLimiter().Handler()
	api.Post("/views", h.View.Open, append(viewGuards, openLimit)...)
	api.Get("/views/:viewId", h.View.Get)
	api.Post("/views/:viewId/answer", h.View.Answer, append(viewGuards, answerLimit)...)
	api.Delete("/views/:viewId", h.View.Close)

	// Direct claim RPC
	claimLimit := middleware.NewClaimRateLimiter().Handler()
	api.Post("/claims", h.Claim.Record, append(viewGuards, claimLimit)...)

	// Session routes
	sessionLimit := middleware.NewSessionRateLimiter().Handler()
	api.Post("/sessions", h.Session.Initialize, sessionLimit)
	api.Post("/sessions/refresh-ip", h.Session.RefreshIP, sessionLimit)
	api.Get("/sessions/:viewerId/views", h.Session.ViewsToday)
	api.Delete("/sessions/:viewerId/views", h.Session.ClearHistory)

	// Viewer routes
	api.Get("/viewers/:viewerId", h.Viewer.GetByViewerID)

	// Stats routes
	statsLimit := middleware.NewStatsRateLimiter().Handler()
	api.Get("/stats", h.Stats.GetStats, statsLimit)

	// Admin routes (token-gated in the handler)
	api.Get("/admin/claims", h.Admin.ListPending)
	api.Post("/admin/claims/:claimId/resolve", h.Admin.Resolve)
}
