package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"

	"github.com/mlopezgez/group-habits-tracking/internal/middleware"
	"github.com/mlopezgez/group-habits-tracking/web"
)

// Register mounts every route on app. Pages are registered with literal
// segments ahead of parameters so /groups/join is not read as a group id.
func Register(app *fiber.App, h *Handler, auth *middleware.Authenticator, sm *middleware.SecurityMiddleware, signInURL string) {
	app.Get("/healthz", h.Healthz)
	app.Get("/metrics", h.Metrics())
	app.Use("/static", filesystem.New(filesystem.Config{
		Root:   http.FS(web.Static()),
		MaxAge: 3600,
	}))

	// Signed by the identity provider; no session.
	app.Post("/webhooks/identity", h.IdentityWebhook)

	api := app.Group("/api", auth.RequireUser(), sm.SameOriginWrites())
	api.Get("/groups", h.ListGroups)
	api.Post("/groups", h.CreateGroup)
	api.Post("/groups/join", sm.RateLimit(middleware.LimitJoin), h.JoinGroup)
	api.Get("/groups/:groupId", h.GetGroup)
	api.Delete("/groups/:groupId", h.DeleteGroup)
	api.Post("/groups/:groupId/habits", h.CreateHabit)
	api.Get("/groups/:groupId/habits/:habitId", h.GetHabit)
	api.Post("/groups/:groupId/habits/:habitId/join", h.TrackHabit)
	api.Delete("/groups/:groupId/habits/:habitId/join", h.UntrackHabit)
	api.Post("/groups/:groupId/habits/:habitId/checkin", sm.RateLimit(middleware.LimitCheckIn), h.CheckIn)
	api.Delete("/groups/:groupId/habits/:habitId/checkin", h.DeleteCheckIn)
	api.Get("/groups/:groupId/habits/:habitId/checkins", h.ListCheckIns)
	api.Get("/groups/:groupId/messages", h.ListMessages)
	api.Post("/groups/:groupId/messages", sm.RateLimit(middleware.LimitMessage), h.PostMessage)

	page := auth.RequirePageUser(signInURL)
	app.Get("/", page, h.HomePage)
	app.Get("/dashboard", page, h.DashboardPage)
	app.Get("/groups/join", page, h.JoinPage)
	app.Get("/groups/join/:inviteCode", page, h.JoinLink)
	app.Get("/groups/:groupId", page, h.GroupPage)
	app.Get("/groups/:groupId/chat", page, h.ChatPage)
	app.Get("/groups/:groupId/habits/:habitId", page, h.HabitPage)
	app.Get("/groups/:groupId/habits/:habitId/checkins", page, h.CheckInsPage)
}
