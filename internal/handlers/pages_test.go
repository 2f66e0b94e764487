package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlopezgez/group-habits-tracking/internal/models"
)

func TestPages_AnonymousVisitorsSignIn(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		path     string
		location string
	}{
		{"/dashboard", "/sign-in?redirect_url=%2Fdashboard"},
		{"/groups/join/AbCdEf1234", "/sign-in?redirect_url=%2Fgroups%2Fjoin%2FAbCdEf1234"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp := env.do(t, http.MethodGet, tt.path, "", nil)
			assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
			assert.Equal(t, tt.location, resp.Header.Get("Location"))
		})
	}
}

func TestPages_Redirects(t *testing.T) {
	env := newTestEnv(t)
	owner := env.mem.MustUser("user_owner", "owner@example.com", "")
	env.mem.MustUser("user_stranger", "stranger@example.com", "")
	group := env.mem.MustGroup(owner, "Readers", "AbCdEf1234")

	tests := []struct {
		name     string
		path     string
		clerkID  string
		location string
	}{
		{"home", "/", "user_owner", "/dashboard"},
		{"invite link", "/groups/join/AbCdEf1234", "user_stranger", "/groups/join?code=AbCdEf1234"},
		{"non-member group", "/groups/" + group.ID, "user_stranger", "/dashboard"},
		{"non-member chat", "/groups/" + group.ID + "/chat", "user_stranger", "/dashboard"},
		{"unknown group", "/groups/does-not-exist", "user_owner", "/dashboard"},
		{"unknown habit", "/groups/" + group.ID + "/habits/does-not-exist", "user_owner", "/groups/" + group.ID},
		{"unknown habit feed", "/groups/" + group.ID + "/habits/does-not-exist/checkins", "user_owner", "/groups/" + group.ID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodGet, tt.path, tt.clerkID, nil)
			assert.Equal(t, http.StatusFound, resp.StatusCode)
			assert.Equal(t, tt.location, resp.Header.Get("Location"))
		})
	}
}

func TestPages_Render(t *testing.T) {
	env := newTestEnv(t)
	owner := env.mem.MustUser("user_owner", "owner@example.com", "Olive Owner")
	member := env.mem.MustUser("user_member", "member@example.com", "Max")
	group := env.mem.MustGroup(owner, "Readers", "AbCdEf1234")
	env.mem.MustMember(member, group, models.RoleMember)
	habit := env.mem.MustHabit(group, "Read 20 pages", 3)
	env.mem.MustSubscribe(member, habit)
	env.mem.MustCheckIn(member, habit, time.Date(2025, 10, 22, 0, 0, 0, 0, time.UTC))
	env.mem.MustMessage(member, group, "finished chapter 4")

	groupPath := "/groups/" + group.ID
	habitPath := groupPath + "/habits/" + habit.ID

	t.Run("dashboard", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/dashboard", "user_member", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := readBody(t, resp)
		assert.Contains(t, body, "Readers")
		assert.Contains(t, body, "Olive Owner")
		assert.Contains(t, body, `href="/groups/`+group.ID+`"`)
	})

	t.Run("group page for admin shows invite link", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, groupPath, "user_owner", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := readBody(t, resp)
		assert.Contains(t, body, "http://example.com/groups/join/AbCdEf1234")
		assert.Contains(t, body, "Delete group")
		assert.Contains(t, body, "Read 20 pages")
	})

	t.Run("group page for member hides admin controls", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, groupPath, "user_member", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := readBody(t, resp)
		assert.NotContains(t, body, "AbCdEf1234")
		assert.NotContains(t, body, "Delete group")
		assert.Contains(t, body, "Stop tracking")
	})

	t.Run("habit page", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, habitPath, "user_member", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := readBody(t, resp)
		assert.Contains(t, body, "1 / 3 days (33%)")
		assert.Contains(t, body, `value="2025-10-22"`)
		assert.Contains(t, body, "Max")
	})

	t.Run("check-in feed", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, habitPath+"/checkins", "user_owner", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := readBody(t, resp)
		assert.Contains(t, body, "Max")
		assert.Contains(t, body, "Wed, Oct 22 2025")
	})

	t.Run("chat", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, groupPath+"/chat", "user_owner", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := readBody(t, resp)
		assert.Contains(t, body, "finished chapter 4")
		assert.Contains(t, body, `data-poll-ms="2000"`)
		assert.Contains(t, body, `data-messages="/api/groups/`+group.ID+`/messages"`)
	})

	t.Run("join form prefill", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/groups/join?code=AbCdEf1234", "user_owner", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), `value="AbCdEf1234"`)
	})
}

func TestStaticAssets(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/static/app.js", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "data-poll-ms")
}
