package models

import "time"

// Group is a set of users sharing habits, joined through an invite code.
//
// Database: groups table
// Invariant: InviteCode is unique; the owner always has an admin membership
type Group struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description"`
	InviteCode  string    `db:"invite_code" json:"inviteCode"`
	OwnerID     string    `db:"owner_id" json:"ownerId"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// GroupMember represents membership of a user in a group.
//
// Database: group_members table, unique per (user_id, group_id)
type GroupMember struct {
	ID       string    `db:"id" json:"id"`
	UserID   string    `db:"user_id" json:"userId"`
	GroupID  string    `db:"group_id" json:"groupId"`
	Role     string    `db:"role" json:"role"` // "member" or "admin"
	JoinedAt time.Time `db:"joined_at" json:"joinedAt"`
}

// IsAdmin reports whether the membership carries the admin role.
func (m GroupMember) IsAdmin() bool {
	return m.Role == RoleAdmin
}

// GroupSummary is a dashboard card: the group plus owner and counts.
type GroupSummary struct {
	Group
	OwnerName   *string `json:"ownerName"`
	OwnerImage  *string `json:"ownerImage"`
	MemberCount int     `json:"memberCount"`
	HabitCount  int     `json:"habitCount"` // Active habits only
}

// MemberView is a member row joined with the user's profile.
type MemberView struct {
	UserID       string    `json:"userId"`
	Name         *string   `json:"name"`
	Email        string    `json:"email"`
	ProfileImage *string   `json:"profileImage"`
	Role         string    `json:"role"`
	JoinedAt     time.Time `json:"joinedAt"`
}

// HabitView is a habit annotated for one viewer.
type HabitView struct {
	Habit
	IsTracking bool `json:"isTracking"`
}

// GroupDetail is everything the group page shows.
type GroupDetail struct {
	Group   Group        `json:"group"`
	Role    string       `json:"role"`
	IsOwner bool         `json:"isOwner"`
	Members []MemberView `json:"members"`
	Habits  []HabitView  `json:"habits"`
}

// CheckInView is a check-in joined with its author's profile.
type CheckInView struct {
	CheckIn
	UserName  *string `json:"userName"`
	UserEmail string  `json:"userEmail"`
	UserImage *string `json:"userImage"`
}

// MessageView is a chat message joined with its author's profile.
type MessageView struct {
	Message
	UserName  *string `json:"userName"`
	UserEmail string  `json:"userEmail"`
	UserImage *string `json:"userImage"`
}

// ProgressDay is one cell of the weekly progress strip.
type ProgressDay struct {
	Date      time.Time `json:"date"`
	CheckedIn bool      `json:"checkedIn"`
	IsToday   bool      `json:"isToday"`
}

// Progress is a user's completion of a habit over the current Monday-start week.
// Percent may exceed 100; DisplayPercent is clamped for rendering.
type Progress struct {
	WeekStart      time.Time     `json:"weekStart"`
	Actual         int           `json:"actual"`
	Target         int           `json:"target"`
	Percent        int           `json:"percent"`
	DisplayPercent int           `json:"displayPercent"`
	Days           []ProgressDay `json:"days"`
}

// HabitDetail is everything the habit page shows.
type HabitDetail struct {
	Habit         Habit         `json:"habit"`
	GroupName     string        `json:"groupName"`
	IsTracking    bool          `json:"isTracking"`
	CheckIns      []CheckIn     `json:"checkIns"` // Caller's, last 30 days, newest first
	Progress      Progress      `json:"progress"`
	TodayCheckIns []CheckInView `json:"todayCheckIns"`
}
