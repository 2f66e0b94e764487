// Package models defines the domain entities and data transfer objects for the
// habit tracker. It includes database models mapped to PostgreSQL tables, request
// DTOs for API input, and view models for JSON reads and page rendering.
package models

import "time"

// ============================================================================
// Domain Models (Database Entities)
// ============================================================================

// Role values for GroupMember.Role.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// Frequency values for Habit.Frequency.
const (
	FrequencyDaily  = "daily"
	FrequencyWeekly = "weekly"
)

// User is the local mirror of an identity held by the external provider.
//
// Database Table: users
// Invariant: ClerkID and Email are unique
type User struct {
	ID           string    `db:"id" json:"id"`                      // Primary key (UUID)
	ClerkID      string    `db:"clerk_id" json:"clerkId"`           // External identity id
	Email        string    `db:"email" json:"email"`                // Primary email from the provider
	Name         *string   `db:"name" json:"name"`                  // "first last", nil when both are blank
	ProfileImage *string   `db:"profile_image" json:"profileImage"` // Avatar URL
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// DisplayName returns the name to show for the user, falling back to email.
func (u User) DisplayName() string {
	if u.Name != nil && *u.Name != "" {
		return *u.Name
	}
	return u.Email
}

// Habit is a trackable activity inside one group.
//
// Database Table: habits
// Related: Group (many-to-one), UserHabit, CheckIn
type Habit struct {
	ID          string    `db:"id" json:"id"`
	GroupID     string    `db:"group_id" json:"groupId"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description"`
	Frequency   string    `db:"frequency" json:"frequency"`    // "daily" or "weekly"
	TargetDays  int       `db:"target_days" json:"targetDays"` // Days per week, 1..7
	Icon        string    `db:"icon" json:"icon"`
	Color       string    `db:"color" json:"color"`
	IsActive    bool      `db:"is_active" json:"isActive"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// UserHabit marks that a user tracks a habit.
//
// Database Table: user_habits
// Invariant: unique per (user_id, habit_id)
type UserHabit struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	HabitID   string    `db:"habit_id" json:"habitId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// CheckIn records one day's completion of a habit by a user.
//
// Database Table: check_ins
// Invariant: unique per (user_id, habit_id, day)
type CheckIn struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	HabitID   string    `db:"habit_id" json:"habitId"`
	Date      time.Time `db:"date" json:"date"` // Midnight of the check-in day in the server calendar
	Note      *string   `db:"note" json:"note"`
	PhotoURL  *string   `db:"photo_url" json:"photoUrl"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Message is one chat line in a group. Messages are never edited.
//
// Database Table: messages
type Message struct {
	ID        string    `db:"id" json:"id"`
	GroupID   string    `db:"group_id" json:"groupId"`
	UserID    string    `db:"user_id" json:"userId"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// AuditLog represents an audit trail entry for mutating actions.
//
// Database Table: audit_logs
// Actions: "CREATE_GROUP", "DELETE_GROUP", "JOIN_GROUP", "CREATE_HABIT", "DELETE_CHECKIN"
type AuditLog struct {
	ID         int64     `db:"id" json:"id"`
	ActorID    *string   `db:"actor_id" json:"actorId"` // nil for system actions
	Action     string    `db:"action" json:"action"`
	ObjectType string    `db:"object_type" json:"objectType"`
	ObjectID   *string   `db:"object_id" json:"objectId"`
	IP         string    `db:"ip" json:"ip"`
	UserAgent  string    `db:"user_agent" json:"userAgent"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// ============================================================================
// Identity
// ============================================================================

// IdentityAttributes are the profile fields the provider supplies for a user.
// They feed the single upsert used by both the webhook and the request-time
// fallback.
type IdentityAttributes struct {
	ClerkID      string
	Email        string
	Name         *string
	ProfileImage *string
}

// ============================================================================
// Request DTOs (API input)
// ============================================================================

// CreateGroupRequest is the body of POST /api/groups.
type CreateGroupRequest struct {
	Name        string  `json:"name" validate:"max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

// JoinGroupRequest is the body of POST /api/groups/join.
type JoinGroupRequest struct {
	InviteCode string `json:"inviteCode" validate:"max=200"`
}

// CreateHabitRequest is the body of POST /api/groups/:groupId/habits.
// Zero values fall back to the defaults offered by the habit form.
type CreateHabitRequest struct {
	Name        string  `json:"name" validate:"max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Frequency   string  `json:"frequency" validate:"omitempty,oneof=daily weekly"`
	TargetDays  int     `json:"targetDays" validate:"omitempty,min=1,max=7"`
	Icon        string  `json:"icon" validate:"max=16"`
	Color       string  `json:"color" validate:"max=64"`
}

// CheckInRequest is the body of POST .../checkin. Date is either YYYY-MM-DD or
// an RFC 3339 timestamp; nil means today.
type CheckInRequest struct {
	Date     *string `json:"date"`
	Note     *string `json:"note" validate:"omitempty,max=1000"`
	PhotoURL *string `json:"photoUrl" validate:"omitempty,url"`
}

// PostMessageRequest is the body of POST /api/groups/:groupId/messages.
type PostMessageRequest struct {
	Content string `json:"content" validate:"max=2000"`
}
