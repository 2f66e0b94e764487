package services

import (
	"context"
	"errors"
	"strings"

	"github.com/mlopezgez/group-habits-tracking/internal/models"
	"github.com/mlopezgez/group-habits-tracking/internal/repository"
)

// Defaults applied to habits created without explicit presentation fields.
const (
	DefaultFrequency  = models.FrequencyDaily
	DefaultTargetDays = 7
	DefaultIcon       = "🎯"
	DefaultColor      = "oklch(0.55 0.22 262)"

	checkInHistoryDays = 30
)

// HabitService implements the habit catalog and tracking subscriptions.
type HabitService struct {
	store  Store
	access *AccessService
	cal    *Calendar
}

// NewHabitService creates a HabitService.
func NewHabitService(store Store, access *AccessService, cal *Calendar) *HabitService {
	return &HabitService{store: store, access: access, cal: cal}
}

// Create adds an active habit to a group. Only group admins may do this.
func (s *HabitService) Create(ctx context.Context, user *models.User, groupID string, req models.CreateHabitRequest) (*models.Habit, error) {
	if _, err := s.access.RequireAdmin(ctx, user.ID, groupID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrMissingName
	}

	habit := &models.Habit{
		GroupID:     groupID,
		Name:        name,
		Description: trimmedOrNil(req.Description),
		Frequency:   orDefault(req.Frequency, DefaultFrequency),
		TargetDays:  req.TargetDays,
		Icon:        orDefault(req.Icon, DefaultIcon),
		Color:       orDefault(req.Color, DefaultColor),
	}
	if habit.TargetDays == 0 {
		habit.TargetDays = DefaultTargetDays
	}

	if err := s.store.Habits.Create(ctx, habit); err != nil {
		return nil, err
	}
	return habit, nil
}

// Subscribe marks that user tracks the habit.
func (s *HabitService) Subscribe(ctx context.Context, user *models.User, groupID, habitID string) error {
	if _, err := s.access.RequireMembership(ctx, user.ID, groupID); err != nil {
		return err
	}
	if _, err := s.habitInGroup(ctx, groupID, habitID); err != nil {
		return err
	}

	err := s.store.Subscriptions.Add(ctx, &models.UserHabit{UserID: user.ID, HabitID: habitID})
	if errors.Is(err, repository.ErrDuplicate) {
		return ErrAlreadySubscribed
	}
	return err
}

// Unsubscribe stops tracking. The user's past check-ins are kept.
func (s *HabitService) Unsubscribe(ctx context.Context, user *models.User, groupID, habitID string) error {
	if _, err := s.access.RequireMembership(ctx, user.ID, groupID); err != nil {
		return err
	}
	if _, err := s.habitInGroup(ctx, groupID, habitID); err != nil {
		return err
	}

	err := s.store.Subscriptions.Remove(ctx, user.ID, habitID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotTracking
	}
	return err
}

// Detail returns the habit page for a member: the caller's recent check-ins,
// weekly progress and who among the trackers checked in today.
func (s *HabitService) Detail(ctx context.Context, user *models.User, groupID, habitID string) (*models.HabitDetail, error) {
	group, err := s.store.Groups.FindByID(ctx, groupID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, err
	}
	if _, err := s.access.RequireMembership(ctx, user.ID, groupID); err != nil {
		return nil, err
	}

	habit, err := s.habitInGroup(ctx, groupID, habitID)
	if err != nil {
		return nil, err
	}

	tracking, err := s.store.Subscriptions.Exists(ctx, user.ID, habitID)
	if err != nil {
		return nil, err
	}

	today := s.cal.Today()
	checkIns, err := s.store.CheckIns.ListForUser(ctx, user.ID, habitID, today.AddDate(0, 0, -checkInHistoryDays))
	if err != nil {
		return nil, err
	}

	todays, err := s.store.CheckIns.ListTrackersOnDay(ctx, habitID, today)
	if err != nil {
		return nil, err
	}

	return &models.HabitDetail{
		Habit:         *habit,
		GroupName:     group.Name,
		IsTracking:    tracking,
		CheckIns:      checkIns,
		Progress:      s.cal.WeeklyProgress(checkIns, habit.TargetDays),
		TodayCheckIns: todays,
	}, nil
}

// habitInGroup loads a habit and hides habits of other groups behind
// ErrHabitNotFound.
func (s *HabitService) habitInGroup(ctx context.Context, groupID, habitID string) (*models.Habit, error) {
	return findHabitInGroup(ctx, s.store.Habits, groupID, habitID)
}

func findHabitInGroup(ctx context.Context, habits HabitStore, groupID, habitID string) (*models.Habit, error) {
	habit, err := habits.FindByID(ctx, habitID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrHabitNotFound
	}
	if err != nil {
		return nil, err
	}
	if habit.GroupID != groupID {
		return nil, ErrHabitNotFound
	}
	return habit, nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
