// Package services holds the business rules of the habit tracker: the identity
// bridge, group access checks, the invite flow, the habit catalog, the check-in
// ledger and group chat. Services talk to persistence through the small store
// interfaces below; the pgx repositories implement them in production.
package services

import (
	"context"
	"time"

	"github.com/mlopezgez/group-habits-tracking/internal/models"
	"github.com/mlopezgez/group-habits-tracking/internal/repository"
)

// UserStore persists local users keyed by external identity.
type UserStore interface {
	FindByClerkID(ctx context.Context, clerkID string) (*models.User, error)
	Upsert(ctx context.Context, attrs models.IdentityAttributes) (*models.User, error)
	RelinkByEmail(ctx context.Context, attrs models.IdentityAttributes) (*models.User, error)
	DeleteByClerkID(ctx context.Context, clerkID string) error
}

// GroupStore persists groups.
type GroupStore interface {
	CreateWithOwner(ctx context.Context, group *models.Group) error
	FindByID(ctx context.Context, id string) (*models.Group, error)
	FindByInviteCode(ctx context.Context, code string) (*models.Group, error)
	Delete(ctx context.Context, groupID string) error
	ListForUser(ctx context.Context, userID string) ([]models.GroupSummary, error)
}

// MembershipStore persists group memberships.
type MembershipStore interface {
	Find(ctx context.Context, userID, groupID string) (*models.GroupMember, error)
	Add(ctx context.Context, m *models.GroupMember) error
	ListMembers(ctx context.Context, groupID string) ([]models.MemberView, error)
}

// HabitStore persists the habit catalog.
type HabitStore interface {
	Create(ctx context.Context, habit *models.Habit) error
	FindByID(ctx context.Context, id string) (*models.Habit, error)
	ListActive(ctx context.Context, groupID, viewerID string) ([]models.HabitView, error)
}

// SubscriptionStore persists tracking subscriptions.
type SubscriptionStore interface {
	Add(ctx context.Context, sub *models.UserHabit) error
	Remove(ctx context.Context, userID, habitID string) error
	Exists(ctx context.Context, userID, habitID string) (bool, error)
}

// CheckInStore persists the check-in ledger.
type CheckInStore interface {
	Create(ctx context.Context, checkIn *models.CheckIn) error
	FindByID(ctx context.Context, id string) (*models.CheckIn, error)
	Delete(ctx context.Context, id string) error
	ListForUser(ctx context.Context, userID, habitID string, since time.Time) ([]models.CheckIn, error)
	ListTrackersOnDay(ctx context.Context, habitID string, day time.Time) ([]models.CheckInView, error)
	ListRecent(ctx context.Context, habitID string, limit int) ([]models.CheckInView, error)
}

// MessageStore persists the group chat log.
type MessageStore interface {
	Create(ctx context.Context, msg *models.Message) error
	ListLatest(ctx context.Context, groupID string, limit int) ([]models.MessageView, error)
}

// Store bundles every store a service may need.
type Store struct {
	Users         UserStore
	Groups        GroupStore
	Members       MembershipStore
	Habits        HabitStore
	Subscriptions SubscriptionStore
	CheckIns      CheckInStore
	Messages      MessageStore
}

// NewPostgresStore wires the pgx repositories.
func NewPostgresStore() Store {
	return Store{
		Users:         repository.NewUserRepository(),
		Groups:        repository.NewGroupRepository(),
		Members:       repository.NewMembershipRepository(),
		Habits:        repository.NewHabitRepository(),
		Subscriptions: repository.NewSubscriptionRepository(),
		CheckIns:      repository.NewCheckInRepository(),
		Messages:      repository.NewMessageRepository(),
	}
}
