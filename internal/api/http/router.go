package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civicpulse/internal/api/http/handlers"
	"github.com/spec-kit/civicpulse/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Issues         *handlers.IssuesHandler
	Comments       *handlers.CommentsHandler
	Government     *handlers.GovernmentHandler
	Realtime       *handlers.RealtimeHandler
	AuthMiddleware *auth.AuthMiddleware
	UploadDir      string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	if cfg.UploadDir != "" {
		app.Static("/uploads", cfg.UploadDir)
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/users/register", cfg.Users.Register)
	authGroup.Post("/users/login", cfg.Users.Login)
	authGroup.Post("/government/login", cfg.Government.Login)
	authGroup.Post("/password/reset/request", cfg.Users.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Users.ConfirmPasswordReset)

	authProtected := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	authProtected.Post("/password/change", cfg.Users.ChangePassword)

	// fixed paths before the :id wildcard
	issues := app.Group("/issues")
	issues.Get("/hot", cfg.Issues.ListHotIssues)
	issues.Get("/mine", cfg.AuthMiddleware.Handle, auth.RequireUser(), cfg.Issues.ListMyIssues)
	issues.Post("/media", cfg.AuthMiddleware.Handle, auth.RequireUser(), cfg.Issues.UploadMedia)
	issues.Get("/", cfg.Issues.ListIssues)
	issues.Post("/", cfg.AuthMiddleware.Handle, auth.RequireUser(), cfg.Issues.CreateIssue)
	issues.Get("/:id", cfg.Issues.GetIssue)
	issues.Get("/:id/comments", cfg.Comments.ListComments)

	citizenIssues := issues.Group("", cfg.AuthMiddleware.Handle, auth.RequireUser())
	citizenIssues.Post("/:id/vote", cfg.Issues.CastVote)
	citizenIssues.Get("/:id/vote", cfg.Issues.GetMyVote)
	citizenIssues.Delete("/:id/vote", cfg.Issues.RemoveVote)
	citizenIssues.Post("/:id/comments", cfg.Comments.AddComment)

	app.Delete("/comments/:id", cfg.AuthMiddleware.Handle, auth.RequireUser(), cfg.Comments.DeleteComment)

	me := app.Group("/users/me", cfg.AuthMiddleware.Handle, auth.RequireUser())
	me.Get("/", cfg.Users.GetProfile)
	me.Patch("/", cfg.Users.UpdateProfile)
	me.Get("/activity", cfg.Users.ListActivity)
	me.Get("/badges", cfg.Users.ListBadges)
	me.Get("/impact", cfg.Users.GetImpact)

	app.Get("/analytics/dashboard", cfg.Government.GetPublicDashboard)

	government := app.Group("/government", cfg.AuthMiddleware.Handle, auth.RequireOfficialRole())
	government.Get("/dashboard", cfg.Government.GetDashboard)
	government.Get("/issues/priority", cfg.Government.ListPriorityIssues)
	government.Patch("/issues/:id/status", cfg.Government.UpdateStatus)
	government.Patch("/issues/:id/assign", cfg.Government.AssignIssue)

	app.Get("/ws", cfg.Realtime.Upgrade, cfg.Realtime.Serve())
}
