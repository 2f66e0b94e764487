package testutil

import (
	"context"
	"time"

	"github.com/mlopezgez/group-habits-tracking/internal/models"
)

// MustUser inserts a user linked to clerkID and returns it. It panics on
// failure since fixtures never conflict.
func (s *MemoryStore) MustUser(clerkID, email, name string) *models.User {
	attrs := models.IdentityAttributes{ClerkID: clerkID, Email: email}
	if name != "" {
		attrs.Name = &name
	}
	u, err := memUsers{s}.Upsert(context.Background(), attrs)
	if err != nil {
		panic(err)
	}
	return u
}

// MustGroup creates a group owned by owner with the given invite code.
func (s *MemoryStore) MustGroup(owner *models.User, name, inviteCode string) *models.Group {
	g := &models.Group{Name: name, InviteCode: inviteCode, OwnerID: owner.ID}
	if err := (memGroups{s}).CreateWithOwner(context.Background(), g); err != nil {
		panic(err)
	}
	return g
}

// MustMember adds user to group with role.
func (s *MemoryStore) MustMember(user *models.User, group *models.Group, role string) {
	m := &models.GroupMember{UserID: user.ID, GroupID: group.ID, Role: role}
	if err := (memMembers{s}).Add(context.Background(), m); err != nil {
		panic(err)
	}
}

// MustHabit creates an active daily habit in group.
func (s *MemoryStore) MustHabit(group *models.Group, name string, targetDays int) *models.Habit {
	h := &models.Habit{GroupID: group.ID, Name: name, Frequency: models.FrequencyDaily, TargetDays: targetDays}
	if err := (memHabits{s}).Create(context.Background(), h); err != nil {
		panic(err)
	}
	return h
}

// MustSubscribe makes user track habit.
func (s *MemoryStore) MustSubscribe(user *models.User, habit *models.Habit) {
	sub := &models.UserHabit{UserID: user.ID, HabitID: habit.ID}
	if err := (memSubscriptions{s}).Add(context.Background(), sub); err != nil {
		panic(err)
	}
}

// MustCheckIn records a check-in by user for habit on day.
func (s *MemoryStore) MustCheckIn(user *models.User, habit *models.Habit, day time.Time) *models.CheckIn {
	c := &models.CheckIn{UserID: user.ID, HabitID: habit.ID, Date: day}
	if err := (memCheckIns{s}).Create(context.Background(), c); err != nil {
		panic(err)
	}
	return c
}

// MustMessage appends a chat message.
func (s *MemoryStore) MustMessage(user *models.User, group *models.Group, content string) *models.Message {
	m := &models.Message{GroupID: group.ID, UserID: user.ID, Content: content}
	if err := (memMessages{s}).Create(context.Background(), m); err != nil {
		panic(err)
	}
	return m
}

// StubProfiles is a ProfileFetcher backed by a map of identities.
type StubProfiles struct {
	Identities map[string]models.IdentityAttributes
	Err        error
	Calls      int
}

// FetchIdentity returns the configured identity or Err.
func (p *StubProfiles) FetchIdentity(ctx context.Context, clerkID string) (*models.IdentityAttributes, error) {
	p.Calls++
	if p.Err != nil {
		return nil, p.Err
	}
	attrs, ok := p.Identities[clerkID]
	if !ok {
		attrs = models.IdentityAttributes{ClerkID: clerkID}
	}
	return &attrs, nil
}
