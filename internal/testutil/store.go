// Package testutil provides an in-memory implementation of the service stores.
// It mirrors the schema's uniqueness constraints and ON DELETE CASCADE rules so
// service and handler tests exercise the same invariants as PostgreSQL.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mlopezgez/group-habits-tracking/internal/models"
	"github.com/mlopezgez/group-habits-tracking/internal/repository"
	"github.com/mlopezgez/group-habits-tracking/internal/services"
)

// MemoryStore holds every table in maps guarded by one mutex.
type MemoryStore struct {
	mu    sync.Mutex
	clock func() time.Time

	users         map[string]models.User
	groups        map[string]models.Group
	members       map[string]models.GroupMember
	habits        map[string]models.Habit
	subscriptions map[string]models.UserHabit
	checkIns      map[string]models.CheckIn
	messages      map[string]models.Message

	// FailNext, when set, is returned by the next store call and then cleared.
	FailNext error
}

// NewMemoryStore returns an empty store whose timestamps come from a clock
// that advances one second per write, keeping orderings deterministic.
func NewMemoryStore() *MemoryStore {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var tick int
	return &MemoryStore{
		clock: func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Second)
		},
		users:         map[string]models.User{},
		groups:        map[string]models.Group{},
		members:       map[string]models.GroupMember{},
		habits:        map[string]models.Habit{},
		subscriptions: map[string]models.UserHabit{},
		checkIns:      map[string]models.CheckIn{},
		messages:      map[string]models.Message{},
	}
}

// Store exposes the memory tables through the service interfaces.
func (s *MemoryStore) Store() services.Store {
	return services.Store{
		Users:         memUsers{s},
		Groups:        memGroups{s},
		Members:       memMembers{s},
		Habits:        memHabits{s},
		Subscriptions: memSubscriptions{s},
		CheckIns:      memCheckIns{s},
		Messages:      memMessages{s},
	}
}

func (s *MemoryStore) lock() error {
	s.mu.Lock()
	if err := s.FailNext; err != nil {
		s.FailNext = nil
		s.mu.Unlock()
		return err
	}
	return nil
}

// Counts reports the number of rows per table, for cascade assertions.
func (s *MemoryStore) Counts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return map[string]int{
		"users":         len(s.users),
		"groups":        len(s.groups),
		"group_members": len(s.members),
		"habits":        len(s.habits),
		"user_habits":   len(s.subscriptions),
		"check_ins":     len(s.checkIns),
		"messages":      len(s.messages),
	}
}

// ---------------------------------------------------------------------------
// Cascades
// ---------------------------------------------------------------------------

func (s *MemoryStore) deleteUserLocked(id string) {
	delete(s.users, id)
	for gid, g := range s.groups {
		if g.OwnerID == id {
			s.deleteGroupLocked(gid)
		}
	}
	for k, m := range s.members {
		if m.UserID == id {
			delete(s.members, k)
		}
	}
	for k, sub := range s.subscriptions {
		if sub.UserID == id {
			delete(s.subscriptions, k)
		}
	}
	for k, c := range s.checkIns {
		if c.UserID == id {
			delete(s.checkIns, k)
		}
	}
	for k, m := range s.messages {
		if m.UserID == id {
			delete(s.messages, k)
		}
	}
}

func (s *MemoryStore) deleteGroupLocked(id string) {
	delete(s.groups, id)
	for k, m := range s.members {
		if m.GroupID == id {
			delete(s.members, k)
		}
	}
	for hid, h := range s.habits {
		if h.GroupID == id {
			s.deleteHabitLocked(hid)
		}
	}
	for k, m := range s.messages {
		if m.GroupID == id {
			delete(s.messages, k)
		}
	}
}

func (s *MemoryStore) deleteHabitLocked(id string) {
	delete(s.habits, id)
	for k, sub := range s.subscriptions {
		if sub.HabitID == id {
			delete(s.subscriptions, k)
		}
	}
	for k, c := range s.checkIns {
		if c.HabitID == id {
			delete(s.checkIns, k)
		}
	}
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

type memUsers struct{ s *MemoryStore }

func (r memUsers) FindByClerkID(ctx context.Context, clerkID string) (*models.User, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.ClerkID == clerkID {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memUsers) Upsert(ctx context.Context, attrs models.IdentityAttributes) (*models.User, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	var existing *models.User
	for _, u := range r.s.users {
		u := u
		if u.ClerkID == attrs.ClerkID {
			existing = &u
		}
	}
	for _, u := range r.s.users {
		if u.Email == attrs.Email && (existing == nil || u.ID != existing.ID) {
			return nil, repository.ErrEmailTaken
		}
	}

	now := r.s.clock()
	if existing == nil {
		existing = &models.User{ID: uuid.NewString(), ClerkID: attrs.ClerkID, CreatedAt: now}
	}
	existing.Email = attrs.Email
	existing.Name = attrs.Name
	existing.ProfileImage = attrs.ProfileImage
	existing.UpdatedAt = now
	r.s.users[existing.ID] = *existing

	u := *existing
	return &u, nil
}

func (r memUsers) RelinkByEmail(ctx context.Context, attrs models.IdentityAttributes) (*models.User, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.ClerkID == attrs.ClerkID && u.Email != attrs.Email {
			return nil, repository.ErrIdentityTaken
		}
	}
	for id, u := range r.s.users {
		if u.Email == attrs.Email {
			u.ClerkID = attrs.ClerkID
			u.Name = attrs.Name
			u.ProfileImage = attrs.ProfileImage
			u.UpdatedAt = r.s.clock()
			r.s.users[id] = u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memUsers) DeleteByClerkID(ctx context.Context, clerkID string) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	for id, u := range r.s.users {
		if u.ClerkID == clerkID {
			r.s.deleteUserLocked(id)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Groups
// ---------------------------------------------------------------------------

type memGroups struct{ s *MemoryStore }

func (r memGroups) CreateWithOwner(ctx context.Context, group *models.Group) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()

	for _, g := range r.s.groups {
		if g.InviteCode == group.InviteCode {
			return repository.ErrDuplicate
		}
	}

	now := r.s.clock()
	group.ID = newID(group.ID)
	group.CreatedAt, group.UpdatedAt = now, now
	r.s.groups[group.ID] = *group

	m := models.GroupMember{ID: uuid.NewString(), UserID: group.OwnerID, GroupID: group.ID, Role: models.RoleAdmin, JoinedAt: now}
	r.s.members[m.ID] = m
	return nil
}

func (r memGroups) FindByID(ctx context.Context, id string) (*models.Group, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	g, ok := r.s.groups[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &g, nil
}

func (r memGroups) FindByInviteCode(ctx context.Context, code string) (*models.Group, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	for _, g := range r.s.groups {
		if g.InviteCode == code {
			g := g
			return &g, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memGroups) Delete(ctx context.Context, groupID string) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	if _, ok := r.s.groups[groupID]; !ok {
		return repository.ErrNotFound
	}
	r.s.deleteGroupLocked(groupID)
	return nil
}

func (r memGroups) ListForUser(ctx context.Context, userID string) ([]models.GroupSummary, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	out := []models.GroupSummary{}
	for _, m := range r.s.members {
		if m.UserID != userID {
			continue
		}
		g := r.s.groups[m.GroupID]
		owner := r.s.users[g.OwnerID]
		summary := models.GroupSummary{Group: g, OwnerName: owner.Name, OwnerImage: owner.ProfileImage}
		for _, other := range r.s.members {
			if other.GroupID == g.ID {
				summary.MemberCount++
			}
		}
		for _, h := range r.s.habits {
			if h.GroupID == g.ID && h.IsActive {
				summary.HabitCount++
			}
		}
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ---------------------------------------------------------------------------
// Memberships
// ---------------------------------------------------------------------------

type memMembers struct{ s *MemoryStore }

func (r memMembers) Find(ctx context.Context, userID, groupID string) (*models.GroupMember, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	for _, m := range r.s.members {
		if m.UserID == userID && m.GroupID == groupID {
			m := m
			return &m, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memMembers) Add(ctx context.Context, m *models.GroupMember) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	for _, existing := range r.s.members {
		if existing.UserID == m.UserID && existing.GroupID == m.GroupID {
			return repository.ErrDuplicate
		}
	}
	m.ID = newID(m.ID)
	m.JoinedAt = r.s.clock()
	r.s.members[m.ID] = *m
	return nil
}

func (r memMembers) ListMembers(ctx context.Context, groupID string) ([]models.MemberView, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	out := []models.MemberView{}
	for _, m := range r.s.members {
		if m.GroupID != groupID {
			continue
		}
		u := r.s.users[m.UserID]
		out = append(out, models.MemberView{
			UserID: u.ID, Name: u.Name, Email: u.Email, ProfileImage: u.ProfileImage,
			Role: m.Role, JoinedAt: m.JoinedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

// ---------------------------------------------------------------------------
// Habits
// ---------------------------------------------------------------------------

type memHabits struct{ s *MemoryStore }

func (r memHabits) Create(ctx context.Context, habit *models.Habit) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	now := r.s.clock()
	habit.ID = newID(habit.ID)
	habit.IsActive = true
	habit.CreatedAt, habit.UpdatedAt = now, now
	r.s.habits[habit.ID] = *habit
	return nil
}

func (r memHabits) FindByID(ctx context.Context, id string) (*models.Habit, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	h, ok := r.s.habits[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &h, nil
}

func (r memHabits) ListActive(ctx context.Context, groupID, viewerID string) ([]models.HabitView, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	out := []models.HabitView{}
	for _, h := range r.s.habits {
		if h.GroupID != groupID || !h.IsActive {
			continue
		}
		view := models.HabitView{Habit: h}
		for _, sub := range r.s.subscriptions {
			if sub.HabitID == h.ID && sub.UserID == viewerID {
				view.IsTracking = true
			}
		}
		out = append(out, view)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ---------------------------------------------------------------------------
// Subscriptions
// ---------------------------------------------------------------------------

type memSubscriptions struct{ s *MemoryStore }

func (r memSubscriptions) Add(ctx context.Context, sub *models.UserHabit) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	for _, existing := range r.s.subscriptions {
		if existing.UserID == sub.UserID && existing.HabitID == sub.HabitID {
			return repository.ErrDuplicate
		}
	}
	sub.ID = newID(sub.ID)
	sub.CreatedAt = r.s.clock()
	r.s.subscriptions[sub.ID] = *sub
	return nil
}

func (r memSubscriptions) Remove(ctx context.Context, userID, habitID string) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	for k, sub := range r.s.subscriptions {
		if sub.UserID == userID && sub.HabitID == habitID {
			delete(r.s.subscriptions, k)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r memSubscriptions) Exists(ctx context.Context, userID, habitID string) (bool, error) {
	if err := r.s.lock(); err != nil {
		return false, err
	}
	defer r.s.mu.Unlock()
	for _, sub := range r.s.subscriptions {
		if sub.UserID == userID && sub.HabitID == habitID {
			return true, nil
		}
	}
	return false, nil
}

// ---------------------------------------------------------------------------
// Check-ins
// ---------------------------------------------------------------------------

type memCheckIns struct{ s *MemoryStore }

func dayKey(t time.Time) string { return t.Format(repository.DayLayout) }

func (r memCheckIns) Create(ctx context.Context, checkIn *models.CheckIn) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	for _, c := range r.s.checkIns {
		if c.UserID == checkIn.UserID && c.HabitID == checkIn.HabitID && dayKey(c.Date) == dayKey(checkIn.Date) {
			return repository.ErrDuplicate
		}
	}
	checkIn.ID = newID(checkIn.ID)
	checkIn.CreatedAt = r.s.clock()
	r.s.checkIns[checkIn.ID] = *checkIn
	return nil
}

func (r memCheckIns) FindByID(ctx context.Context, id string) (*models.CheckIn, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	c, ok := r.s.checkIns[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r memCheckIns) Delete(ctx context.Context, id string) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	if _, ok := r.s.checkIns[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.checkIns, id)
	return nil
}

func (r memCheckIns) ListForUser(ctx context.Context, userID, habitID string, since time.Time) ([]models.CheckIn, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	out := []models.CheckIn{}
	for _, c := range r.s.checkIns {
		if c.UserID == userID && c.HabitID == habitID && dayKey(c.Date) >= dayKey(since) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (r memCheckIns) view(c models.CheckIn) models.CheckInView {
	u := r.s.users[c.UserID]
	return models.CheckInView{CheckIn: c, UserName: u.Name, UserEmail: u.Email, UserImage: u.ProfileImage}
}

func (r memCheckIns) ListTrackersOnDay(ctx context.Context, habitID string, day time.Time) ([]models.CheckInView, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	out := []models.CheckInView{}
	for _, c := range r.s.checkIns {
		if c.HabitID != habitID || dayKey(c.Date) != dayKey(day) {
			continue
		}
		for _, sub := range r.s.subscriptions {
			if sub.UserID == c.UserID && sub.HabitID == habitID {
				out = append(out, r.view(c))
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memCheckIns) ListRecent(ctx context.Context, habitID string, limit int) ([]models.CheckInView, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	out := []models.CheckInView{}
	for _, c := range r.s.checkIns {
		if c.HabitID == habitID {
			out = append(out, r.view(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Messages
// ---------------------------------------------------------------------------

type memMessages struct{ s *MemoryStore }

func (r memMessages) Create(ctx context.Context, msg *models.Message) error {
	if err := r.s.lock(); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	msg.ID = newID(msg.ID)
	msg.CreatedAt = r.s.clock()
	r.s.messages[msg.ID] = *msg
	return nil
}

func (r memMessages) ListLatest(ctx context.Context, groupID string, limit int) ([]models.MessageView, error) {
	if err := r.s.lock(); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	out := []models.MessageView{}
	for _, m := range r.s.messages {
		if m.GroupID != groupID {
			continue
		}
		u := r.s.users[m.UserID]
		out = append(out, models.MessageView{Message: m, UserName: u.Name, UserEmail: u.Email, UserImage: u.ProfileImage})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
