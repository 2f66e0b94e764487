package handlers

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlopezgez/group-habits-tracking/internal/models"
	"github.com/mlopezgez/group-habits-tracking/internal/repository"
)

func TestAPI_RequiresSession(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/groups", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Unauthorized", decodeJSON(t, resp)["error"])

	// A verified identity with no local user and no profile fetcher.
	resp = env.do(t, http.MethodGet, "/api/groups", "user_ghost", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "User not found", decodeJSON(t, resp)["error"])
}

func TestAPI_CreateAndListGroups(t *testing.T) {
	env := newTestEnv(t)
	env.mem.MustUser("user_owner", "owner@example.com", "Olive Owner")

	resp := env.do(t, http.MethodPost, "/api/groups", "user_owner", map[string]string{
		"name":        "  Morning Runners ",
		"description": "5k before work",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	group := decodeJSON(t, resp)["group"].(map[string]interface{})
	assert.Equal(t, "Morning Runners", group["name"])
	assert.Equal(t, "5k before work", group["description"])
	assert.Len(t, group["inviteCode"], 10)

	assert.Equal(t, []string{repository.ActionCreateGroup}, env.audit.actions())

	resp = env.do(t, http.MethodGet, "/api/groups", "user_owner", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	groups := decodeJSON(t, resp)["groups"].([]interface{})
	require.Len(t, groups, 1)
	summary := groups[0].(map[string]interface{})
	assert.Equal(t, "Morning Runners", summary["name"])
	assert.Equal(t, "Olive Owner", summary["ownerName"])
	assert.EqualValues(t, 1, summary["memberCount"])
	assert.EqualValues(t, 0, summary["habitCount"])
}

func TestAPI_CreateGroup_RejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	env.mem.MustUser("user_owner", "owner@example.com", "")

	tests := []struct {
		name    string
		body    interface{}
		wantErr string
	}{
		{"malformed json", `{"name":`, "Invalid request body"},
		{"missing name", map[string]string{"name": "   "}, "Name is required"},
		{"name too long", map[string]string{"name": strings.Repeat("x", 101)}, "name must be 100 characters or less"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, "/api/groups", "user_owner", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.wantErr, decodeJSON(t, resp)["error"])
		})
	}
	assert.Empty(t, env.audit.actions())
}

func TestAPI_JoinByInvite(t *testing.T) {
	env := newTestEnv(t)
	owner := env.mem.MustUser("user_owner", "owner@example.com", "")
	env.mem.MustUser("user_joiner", "joiner@example.com", "")
	group := env.mem.MustGroup(owner, "Readers", "AbCdEf1234")

	resp := env.do(t, http.MethodPost, "/api/groups/join", "user_joiner", map[string]string{
		"inviteCode": "https://habits.example.com/groups/join/AbCdEf1234",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	joined := decodeJSON(t, resp)["group"].(map[string]interface{})
	assert.Equal(t, group.ID, joined["id"])

	resp = env.do(t, http.MethodPost, "/api/groups/join", "user_joiner", map[string]string{"inviteCode": "AbCdEf1234"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Already a member of this group", decodeJSON(t, resp)["error"])

	resp = env.do(t, http.MethodPost, "/api/groups/join", "user_joiner", map[string]string{"inviteCode": "nope"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Invalid invite code", decodeJSON(t, resp)["error"])

	assert.Equal(t, []string{repository.ActionJoinGroup}, env.audit.actions())
}

func TestAPI_JoinIsRateLimited(t *testing.T) {
	env := newTestEnv(t)
	env.mem.MustUser("user_joiner", "joiner@example.com", "")

	for i := 0; i < 10; i++ {
		resp := env.do(t, http.MethodPost, "/api/groups/join", "user_joiner", map[string]string{"inviteCode": "missing"})
		require.Equal(t, http.StatusNotFound, resp.StatusCode, "attempt %d", i+1)
	}

	resp := env.do(t, http.MethodPost, "/api/groups/join", "user_joiner", map[string]string{"inviteCode": "missing"})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get("Retry-After"))
}

func TestAPI_DeleteGroup_OwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	owner := env.mem.MustUser("user_owner", "owner@example.com", "")
	member := env.mem.MustUser("user_member", "member@example.com", "")
	group := env.mem.MustGroup(owner, "Readers", "AbCdEf1234")
	env.mem.MustMember(member, group, models.RoleAdmin)

	resp := env.do(t, http.MethodDelete, "/api/groups/"+group.ID, "user_member", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Only the group owner can delete the group", decodeJSON(t, resp)["error"])

	resp = env.do(t, http.MethodDelete, "/api/groups/"+group.ID, "user_owner", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decodeJSON(t, resp)["success"])
	assert.Equal(t, []string{repository.ActionDeleteGroup}, env.audit.actions())

	resp = env.do(t, http.MethodGet, "/api/groups/"+group.ID, "user_owner", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Group not found", decodeJSON(t, resp)["error"])

	assert.NotEmpty(t, env.logs.FilterMessage("security event").FilterField(eventField("group_deleted")).All())
}

func TestAPI_GroupDetail_RequiresMembership(t *testing.T) {
	env := newTestEnv(t)
	owner := env.mem.MustUser("user_owner", "owner@example.com", "")
	env.mem.MustUser("user_stranger", "stranger@example.com", "")
	group := env.mem.MustGroup(owner, "Readers", "AbCdEf1234")

	resp := env.do(t, http.MethodGet, "/api/groups/"+group.ID, "user_stranger", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Not a member of this group", decodeJSON(t, resp)["error"])

	resp = env.do(t, http.MethodGet, "/api/groups/"+group.ID, "user_owner", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	detail := decodeJSON(t, resp)
	assert.Equal(t, models.RoleAdmin, detail["role"])
	assert.Equal(t, true, detail["isOwner"])
	assert.Len(t, detail["members"], 1)
}

func TestAPI_HabitAndCheckInFlow(t *testing.T) {
	env := newTestEnv(t)
	owner := env.mem.MustUser("user_owner", "owner@example.com", "Olive")
	member := env.mem.MustUser("user_member", "member@example.com", "Max")
	group := env.mem.MustGroup(owner, "Readers", "AbCdEf1234")
	env.mem.MustMember(member, group, models.RoleMember)
	groupPath := "/api/groups/" + group.ID

	// Members cannot create habits.
	resp := env.do(t, http.MethodPost, groupPath+"/habits", "user_member", map[string]string{"name": "Read"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Only admins can create habits", decodeJSON(t, resp)["error"])

	resp = env.do(t, http.MethodPost, groupPath+"/habits", "user_owner", map[string]interface{}{
		"name":       "Read 20 pages",
		"targetDays": 3,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	habit := decodeJSON(t, resp)["habit"].(map[string]interface{})
	habitID := habit["id"].(string)
	assert.Equal(t, "daily", habit["frequency"])
	assert.EqualValues(t, 3, habit["targetDays"])
	assert.Equal(t, "🎯", habit["icon"])
	habitPath := groupPath + "/habits/" + habitID

	resp = env.do(t, http.MethodPost, habitPath+"/join", "user_member", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = env.do(t, http.MethodPost, habitPath+"/join", "user_member", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Already tracking this habit", decodeJSON(t, resp)["error"])

	resp = env.do(t, http.MethodPost, habitPath+"/checkin", "user_member", map[string]string{"note": "  chapter 4 \x07"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	checkIn := decodeJSON(t, resp)["checkIn"].(map[string]interface{})
	checkInID := checkIn["id"].(string)
	assert.Equal(t, "2025-10-22T00:00:00Z", checkIn["date"])
	assert.Equal(t, "chapter 4", checkIn["note"])

	resp = env.do(t, http.MethodPost, habitPath+"/checkin", "user_member", map[string]string{"date": "2025-10-22"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Already checked in for this date", decodeJSON(t, resp)["error"])

	resp = env.do(t, http.MethodPost, habitPath+"/checkin", "user_member", map[string]string{"photoUrl": "not a url"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "photoUrl must be a valid URL", decodeJSON(t, resp)["error"])

	resp = env.do(t, http.MethodGet, habitPath, "user_member", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	detail := decodeJSON(t, resp)
	assert.Equal(t, true, detail["isTracking"])
	progress := detail["progress"].(map[string]interface{})
	assert.EqualValues(t, 1, progress["actual"])
	assert.EqualValues(t, 3, progress["target"])
	assert.EqualValues(t, 33, progress["percent"])
	assert.Len(t, detail["todayCheckIns"], 1)

	resp = env.do(t, http.MethodGet, habitPath+"/checkins", "user_owner", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	feed := decodeJSON(t, resp)["checkIns"].([]interface{})
	require.Len(t, feed, 1)
	assert.Equal(t, "Max", feed[0].(map[string]interface{})["userName"])

	resp = env.do(t, http.MethodDelete, habitPath+"/checkin?checkInId="+checkInID, "user_owner", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Unauthorized to delete this check-in", decodeJSON(t, resp)["error"])

	resp = env.do(t, http.MethodDelete, habitPath+"/checkin", "user_member", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Check-in ID is required", decodeJSON(t, resp)["error"])

	resp = env.do(t, http.MethodDelete, habitPath+"/checkin?checkInId="+checkInID, "user_member", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, habitPath+"/join", "user_member", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = env.do(t, http.MethodDelete, habitPath+"/join", "user_member", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not tracking this habit", decodeJSON(t, resp)["error"])

	assert.Equal(t, []string{repository.ActionCreateHabit, repository.ActionDeleteCheckIn}, env.audit.actions())
}

func TestAPI_Messages(t *testing.T) {
	env := newTestEnv(t)
	owner := env.mem.MustUser("user_owner", "owner@example.com", "Olive")
	env.mem.MustUser("user_stranger", "stranger@example.com", "")
	group := env.mem.MustGroup(owner, "Readers", "AbCdEf1234")
	path := "/api/groups/" + group.ID + "/messages"

	resp := env.do(t, http.MethodPost, path, "user_owner", map[string]string{"content": "  good morning  "})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	msg := decodeJSON(t, resp)["message"].(map[string]interface{})
	assert.Equal(t, "good morning", msg["content"])
	assert.Equal(t, "Olive", msg["userName"])

	resp = env.do(t, http.MethodPost, path, "user_owner", map[string]string{"content": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Message content is required", decodeJSON(t, resp)["error"])

	resp = env.do(t, http.MethodPost, path, "user_owner", map[string]string{"content": strings.Repeat("a", 2001)})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, path, "user_stranger", map[string]string{"content": "hi"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, http.MethodGet, path, "user_owner", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	messages := decodeJSON(t, resp)["messages"].([]interface{})
	require.Len(t, messages, 1)
	assert.Equal(t, "good morning", messages[0].(map[string]interface{})["content"])
}

func TestAPI_AccessCheckedBeforeBody(t *testing.T) {
	env := newTestEnv(t)
	owner := env.mem.MustUser("user_owner", "owner@example.com", "")
	member := env.mem.MustUser("user_member", "member@example.com", "")
	env.mem.MustUser("user_stranger", "stranger@example.com", "")
	group := env.mem.MustGroup(owner, "Readers", "AbCdEf1234")
	env.mem.MustMember(member, group, models.RoleMember)

	longName := map[string]interface{}{"name": strings.Repeat("n", 101)}
	longMessage := map[string]string{"content": strings.Repeat("a", 2001)}
	habits := "/api/groups/" + group.ID + "/habits"
	messages := "/api/groups/" + group.ID + "/messages"

	tests := []struct {
		name       string
		path       string
		clerkID    string
		body       interface{}
		wantStatus int
		wantError  string
	}{
		{"habit by member", habits, "user_member", longName, http.StatusForbidden, "Only admins can create habits"},
		{"habit by stranger", habits, "user_stranger", longName, http.StatusForbidden, "Only admins can create habits"},
		{"habit by admin", habits, "user_owner", longName, http.StatusBadRequest, "name must be 100 characters or less"},
		{"message by stranger", messages, "user_stranger", longMessage, http.StatusForbidden, "Not a member of this group"},
		{"message by member", messages, "user_member", longMessage, http.StatusBadRequest, "content must be 2000 characters or less"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, tt.path, tt.clerkID, tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantError, decodeJSON(t, resp)["error"])
		})
	}
	assert.Zero(t, env.mem.Counts()["habits"])
	assert.Zero(t, env.mem.Counts()["messages"])
}

func TestAPI_RejectsCrossOriginWrites(t *testing.T) {
	env := newTestEnv(t)
	env.mem.MustUser("user_owner", "owner@example.com", "")

	req := newJSONRequest(t, http.MethodPost, "/api/groups", `{"name":"Evil"}`)
	req.Header.Set("Authorization", "Bearer valid:user_owner")
	req.Header.Set("Origin", "https://evil.example")

	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Cross-origin request rejected", decodeJSON(t, resp)["error"])
	assert.Empty(t, env.audit.actions())
}

func TestAPI_AuditFailureIsNotSurfaced(t *testing.T) {
	env := newTestEnv(t)
	env.mem.MustUser("user_owner", "owner@example.com", "")
	env.audit.err = errors.New("audit table unavailable")

	resp := env.do(t, http.MethodPost, "/api/groups", "user_owner", map[string]string{"name": "Runners"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, env.logs.FilterMessage("failed to write audit log").Len())
}

func TestAPI_StoreFailureIsInternal(t *testing.T) {
	env := newTestEnv(t)
	env.mem.MustUser("user_owner", "owner@example.com", "")

	// Consumed by the identity lookup.
	env.mem.FailNext = errors.New("connection reset")

	resp := env.do(t, http.MethodGet, "/api/groups", "user_owner", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Internal server error", decodeJSON(t, resp)["error"])
	assert.Equal(t, 1, env.logs.FilterMessage("request failed").Len())
}

func TestOps_HealthzAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decodeJSON(t, resp)["status"])

	env.healthy = false
	resp = env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "down", decodeJSON(t, resp)["database"])

	resp = env.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "habits_http_inflight_requests")
}
