package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"

	"github.com/mlopezgez/group-habits-tracking/internal/models"
	"github.com/mlopezgez/group-habits-tracking/internal/repository"
	"github.com/mlopezgez/group-habits-tracking/internal/services"
	"github.com/mlopezgez/group-habits-tracking/web"
)

const layout = "layouts/main"

// NewViews builds the template engine over the embedded templates. With
// reload set, templates are re-parsed on every render.
func NewViews(reload bool) *html.Engine {
	engine := html.NewFileSystem(http.FS(web.Templates()), ".html")
	engine.Reload(reload)
	engine.AddFuncMap(map[string]interface{}{
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"displayName": func(u *models.User) string {
			if u.Name != nil {
				return *u.Name
			}
			return u.Email
		},
		"date":    func(t time.Time) string { return t.Format("Mon, Jan 2 2006") },
		"weekday": func(t time.Time) string { return t.Format("Mon") },
	})
	return engine
}

// pageRedirect sends the browser somewhere sensible instead of rendering an
// access or lookup failure: non-members and unknown groups go back to the
// dashboard, unknown habits go to their group.
func pageRedirect(c *fiber.Ctx, err error, groupID string) error {
	switch {
	case errors.Is(err, services.ErrHabitNotFound):
		return c.Redirect("/groups/" + url.PathEscape(groupID))
	case errors.Is(err, services.ErrNotMember), errors.Is(err, services.ErrGroupNotFound):
		return c.Redirect("/dashboard")
	}
	return err
}

// HomePage redirects to the dashboard.
//
// Route: GET /
func (h *Handler) HomePage(c *fiber.Ctx) error {
	return c.Redirect("/dashboard")
}

// DashboardPage lists the caller's groups with a create form.
//
// Route: GET /dashboard
func (h *Handler) DashboardPage(c *fiber.Ctx) error {
	user := currentUser(c)
	groups, err := h.svc.Groups.Dashboard(c.UserContext(), user)
	if err != nil {
		return err
	}
	return c.Render("dashboard", fiber.Map{
		"Title":  "Dashboard",
		"User":   user,
		"Groups": groups,
	}, layout)
}

// GroupPage shows members, habits and, for admins, the invite link.
//
// Route: GET /groups/:groupId
func (h *Handler) GroupPage(c *fiber.Ctx) error {
	user := currentUser(c)
	groupID := c.Params("groupId")

	detail, err := h.svc.Groups.Detail(c.UserContext(), user, groupID)
	if err != nil {
		return pageRedirect(c, err, groupID)
	}

	return c.Render("group", fiber.Map{
		"Title":      detail.Group.Name,
		"User":       user,
		"Detail":     detail,
		"IsAdmin":    detail.Role == models.RoleAdmin,
		"InviteLink": services.InviteLink(c.BaseURL(), detail.Group.InviteCode),
	}, layout)
}

// HabitPage shows weekly progress, the caller's history and today's
// check-ins.
//
// Route: GET /groups/:groupId/habits/:habitId
func (h *Handler) HabitPage(c *fiber.Ctx) error {
	user := currentUser(c)
	groupID := c.Params("groupId")

	detail, err := h.svc.Habits.Detail(c.UserContext(), user, groupID, c.Params("habitId"))
	if err != nil {
		return pageRedirect(c, err, groupID)
	}

	return c.Render("habit", fiber.Map{
		"Title":  detail.Habit.Name,
		"User":   user,
		"Detail": detail,
		"Today":  h.svc.Calendar.Today().Format(repository.DayLayout),
	}, layout)
}

// CheckInsPage shows the habit's feed of recent check-ins.
//
// Route: GET /groups/:groupId/habits/:habitId/checkins
func (h *Handler) CheckInsPage(c *fiber.Ctx) error {
	user := currentUser(c)
	groupID := c.Params("groupId")

	habit, feed, err := h.svc.CheckIns.Feed(c.UserContext(), user, groupID, c.Params("habitId"))
	if err != nil {
		return pageRedirect(c, err, groupID)
	}

	return c.Render("checkins", fiber.Map{
		"Title":    habit.Name,
		"User":     user,
		"Habit":    habit,
		"CheckIns": feed,
	}, layout)
}

// ChatPage renders the current chat window; the browser then polls the
// messages endpoint.
//
// Route: GET /groups/:groupId/chat
func (h *Handler) ChatPage(c *fiber.Ctx) error {
	user := currentUser(c)
	groupID := c.Params("groupId")

	detail, err := h.svc.Groups.Detail(c.UserContext(), user, groupID)
	if err != nil {
		return pageRedirect(c, err, groupID)
	}
	messages, err := h.svc.Chat.Window(c.UserContext(), user, groupID)
	if err != nil {
		return pageRedirect(c, err, groupID)
	}

	return c.Render("chat", fiber.Map{
		"Title":      detail.Group.Name,
		"User":       user,
		"Group":      detail.Group,
		"Messages":   messages,
		"PollMillis": h.pollInterval.Milliseconds(),
	}, layout)
}

// JoinPage shows the join form, prefilled from ?code=.
//
// Route: GET /groups/join
func (h *Handler) JoinPage(c *fiber.Ctx) error {
	return c.Render("join", fiber.Map{
		"Title": "Join a group",
		"User":  currentUser(c),
		"Code":  c.Query("code"),
	}, layout)
}

// JoinLink turns a shared invite link into the prefilled join form.
//
// Route: GET /groups/join/:inviteCode
func (h *Handler) JoinLink(c *fiber.Ctx) error {
	return c.Redirect("/groups/join?code=" + url.QueryEscape(c.Params("inviteCode")))
}
