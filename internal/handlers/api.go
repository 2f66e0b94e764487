package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mlopezgez/group-habits-tracking/internal/metrics"
	"github.com/mlopezgez/group-habits-tracking/internal/models"
	"github.com/mlopezgez/group-habits-tracking/internal/repository"
	"github.com/mlopezgez/group-habits-tracking/internal/security"
)

// ListGroups returns the caller's dashboard: every group they belong to,
// newest first.
//
// Route: GET /api/groups
func (h *Handler) ListGroups(c *fiber.Ctx) error {
	groups, err := h.svc.Groups.Dashboard(c.UserContext(), currentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"groups": groups})
}

// CreateGroup creates a group owned by the caller, who becomes its admin.
//
// Route: POST /api/groups
// Body: {name, description?}
// Audit: CREATE_GROUP
func (h *Handler) CreateGroup(c *fiber.Ctx) error {
	var req models.CreateGroupRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	user := currentUser(c)
	group, err := h.svc.Groups.Create(c.UserContext(), user, req)
	metrics.RecordDomainEvent(metrics.EventGroupCreated, err)
	if err != nil {
		return err
	}

	h.record(c, user, repository.ActionCreateGroup, "group", group.ID)
	return c.JSON(fiber.Map{"group": group})
}

// JoinGroup adds the caller to the group behind an invite code or link.
//
// Route: POST /api/groups/join
// Body: {inviteCode}
// Audit: JOIN_GROUP
func (h *Handler) JoinGroup(c *fiber.Ctx) error {
	var req models.JoinGroupRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	user := currentUser(c)
	group, err := h.svc.Groups.JoinByInvite(c.UserContext(), user, req.InviteCode)
	metrics.RecordDomainEvent(metrics.EventGroupJoined, err)
	if err != nil {
		return err
	}

	h.record(c, user, repository.ActionJoinGroup, "group", group.ID)
	return c.JSON(fiber.Map{"group": group})
}

// GetGroup returns the group page data for a member.
//
// Route: GET /api/groups/:groupId
func (h *Handler) GetGroup(c *fiber.Ctx) error {
	detail, err := h.svc.Groups.Detail(c.UserContext(), currentUser(c), c.Params("groupId"))
	if err != nil {
		return err
	}
	return c.JSON(detail)
}

// DeleteGroup deletes a group and everything in it. Owner only.
//
// Route: DELETE /api/groups/:groupId
// Audit: DELETE_GROUP
func (h *Handler) DeleteGroup(c *fiber.Ctx) error {
	user := currentUser(c)
	group, err := h.svc.Groups.Delete(c.UserContext(), user, c.Params("groupId"))
	metrics.RecordDomainEvent(metrics.EventGroupDeleted, err)
	if err != nil {
		return err
	}

	h.record(c, user, repository.ActionDeleteGroup, "group", group.ID)
	h.logger.SecurityEvent(security.EventGroupDeleted, user.ID, c.IP(), c.Get(fiber.HeaderUserAgent),
		map[string]interface{}{"group_id": group.ID, "name": group.Name})
	return success(c)
}

// CreateHabit adds a habit to a group. Admins only.
//
// Route: POST /api/groups/:groupId/habits
// Body: {name, description?, frequency, targetDays, icon, color}
// Audit: CREATE_HABIT
func (h *Handler) CreateHabit(c *fiber.Ctx) error {
	user := currentUser(c)
	groupID := c.Params("groupId")

	// Access is decided before the body is looked at.
	if _, err := h.svc.Access.RequireAdmin(c.UserContext(), user.ID, groupID); err != nil {
		return err
	}

	var req models.CreateHabitRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	habit, err := h.svc.Habits.Create(c.UserContext(), user, groupID, req)
	metrics.RecordDomainEvent(metrics.EventHabitCreated, err)
	if err != nil {
		return err
	}

	h.record(c, user, repository.ActionCreateHabit, "habit", habit.ID)
	return c.JSON(fiber.Map{"habit": habit})
}

// GetHabit returns the habit page data: recent check-ins, weekly progress and
// today's check-ins of trackers.
//
// Route: GET /api/groups/:groupId/habits/:habitId
func (h *Handler) GetHabit(c *fiber.Ctx) error {
	detail, err := h.svc.Habits.Detail(c.UserContext(), currentUser(c), c.Params("groupId"), c.Params("habitId"))
	if err != nil {
		return err
	}
	return c.JSON(detail)
}

// TrackHabit subscribes the caller to a habit.
//
// Route: POST /api/groups/:groupId/habits/:habitId/join
func (h *Handler) TrackHabit(c *fiber.Ctx) error {
	err := h.svc.Habits.Subscribe(c.UserContext(), currentUser(c), c.Params("groupId"), c.Params("habitId"))
	metrics.RecordDomainEvent(metrics.EventSubscribed, err)
	if err != nil {
		return err
	}
	return success(c)
}

// UntrackHabit removes the caller's subscription. Past check-ins stay.
//
// Route: DELETE /api/groups/:groupId/habits/:habitId/join
func (h *Handler) UntrackHabit(c *fiber.Ctx) error {
	err := h.svc.Habits.Unsubscribe(c.UserContext(), currentUser(c), c.Params("groupId"), c.Params("habitId"))
	metrics.RecordDomainEvent(metrics.EventUnsubscribed, err)
	if err != nil {
		return err
	}
	return success(c)
}

// CheckIn records a check-in for the caller, today unless a date is given.
//
// Route: POST /api/groups/:groupId/habits/:habitId/checkin
// Body: {date?, note?, photoUrl?}
func (h *Handler) CheckIn(c *fiber.Ctx) error {
	var req models.CheckInRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	req.Note = h.validate.SanitizeOptional(req.Note)
	if err := h.validate.ValidateNote(req.Note); err != nil {
		return err
	}

	checkIn, err := h.svc.CheckIns.CheckIn(c.UserContext(), currentUser(c), c.Params("groupId"), c.Params("habitId"), req)
	metrics.RecordDomainEvent(metrics.EventCheckIn, err)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"checkIn": checkIn})
}

// DeleteCheckIn removes one of the caller's check-ins.
//
// Route: DELETE /api/groups/:groupId/habits/:habitId/checkin?checkInId=
// Audit: DELETE_CHECKIN
func (h *Handler) DeleteCheckIn(c *fiber.Ctx) error {
	user := currentUser(c)
	checkIn, err := h.svc.CheckIns.Delete(c.UserContext(), user, c.Params("habitId"), c.Query("checkInId"))
	metrics.RecordDomainEvent(metrics.EventCheckInDeleted, err)
	if err != nil {
		return err
	}

	h.record(c, user, repository.ActionDeleteCheckIn, "check_in", checkIn.ID)
	return success(c)
}

// ListCheckIns returns the latest check-ins of every user for a habit.
//
// Route: GET /api/groups/:groupId/habits/:habitId/checkins
func (h *Handler) ListCheckIns(c *fiber.Ctx) error {
	habit, feed, err := h.svc.CheckIns.Feed(c.UserContext(), currentUser(c), c.Params("groupId"), c.Params("habitId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"habit": habit, "checkIns": feed})
}

// ListMessages returns the chat window, oldest first. Clients poll it.
//
// Route: GET /api/groups/:groupId/messages
func (h *Handler) ListMessages(c *fiber.Ctx) error {
	messages, err := h.svc.Chat.Window(c.UserContext(), currentUser(c), c.Params("groupId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"messages": messages})
}

// PostMessage appends a chat message.
//
// Route: POST /api/groups/:groupId/messages
// Body: {content}
func (h *Handler) PostMessage(c *fiber.Ctx) error {
	user := currentUser(c)
	groupID := c.Params("groupId")

	if _, err := h.svc.Access.RequireMembership(c.UserContext(), user.ID, groupID); err != nil {
		return err
	}

	var req models.PostMessageRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	content := h.validate.SanitizeString(req.Content)
	if err := h.validate.ValidateMessage(content); err != nil {
		return err
	}

	msg, err := h.svc.Chat.Post(c.UserContext(), user, groupID, content)
	metrics.RecordDomainEvent(metrics.EventMessagePosted, err)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": msg})
}
