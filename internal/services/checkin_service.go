package services

import (
	"context"
	"errors"

	"github.com/mlopezgez/group-habits-tracking/internal/models"
	"github.com/mlopezgez/group-habits-tracking/internal/repository"
)

const checkInFeedSize = 50

// CheckInService implements the check-in ledger.
type CheckInService struct {
	store  Store
	access *AccessService
	cal    *Calendar
}

// NewCheckInService creates a CheckInService.
func NewCheckInService(store Store, access *AccessService, cal *Calendar) *CheckInService {
	return &CheckInService{store: store, access: access, cal: cal}
}

// CheckIn records that user completed the habit on a day, today by default.
// The day is normalized to midnight in the service calendar; a second check-in
// for the same day is rejected by the store's (user, habit, day) constraint.
func (s *CheckInService) CheckIn(ctx context.Context, user *models.User, groupID, habitID string, req models.CheckInRequest) (*models.CheckIn, error) {
	if _, err := s.access.RequireMembership(ctx, user.ID, groupID); err != nil {
		return nil, err
	}
	if _, err := findHabitInGroup(ctx, s.store.Habits, groupID, habitID); err != nil {
		return nil, err
	}

	day := s.cal.Today()
	if req.Date != nil && *req.Date != "" {
		parsed, err := s.cal.ParseDay(*req.Date)
		if err != nil {
			return nil, err
		}
		day = parsed
	}

	checkIn := &models.CheckIn{
		UserID:   user.ID,
		HabitID:  habitID,
		Date:     day,
		Note:     trimmedOrNil(req.Note),
		PhotoURL: trimmedOrNil(req.PhotoURL),
	}

	err := s.store.CheckIns.Create(ctx, checkIn)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrAlreadyCheckedIn
	}
	if err != nil {
		return nil, err
	}
	return checkIn, nil
}

// Delete removes one of the caller's own check-ins. The check-in must belong
// to habitID.
func (s *CheckInService) Delete(ctx context.Context, user *models.User, habitID, checkInID string) (*models.CheckIn, error) {
	if checkInID == "" {
		return nil, ErrMissingCheckInID
	}

	checkIn, err := s.store.CheckIns.FindByID(ctx, checkInID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCheckInNotFound
	}
	if err != nil {
		return nil, err
	}

	if checkIn.UserID != user.ID {
		return nil, ErrNotCheckInOwner
	}
	if checkIn.HabitID != habitID {
		return nil, ErrHabitMismatch
	}

	err = s.store.CheckIns.Delete(ctx, checkInID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCheckInNotFound
	}
	if err != nil {
		return nil, err
	}
	return checkIn, nil
}

// Feed returns the habit and its latest check-ins from every user.
func (s *CheckInService) Feed(ctx context.Context, user *models.User, groupID, habitID string) (*models.Habit, []models.CheckInView, error) {
	if _, err := s.access.RequireMembership(ctx, user.ID, groupID); err != nil {
		return nil, nil, err
	}
	habit, err := findHabitInGroup(ctx, s.store.Habits, groupID, habitID)
	if err != nil {
		return nil, nil, err
	}

	feed, err := s.store.CheckIns.ListRecent(ctx, habitID, checkInFeedSize)
	if err != nil {
		return nil, nil, err
	}
	return habit, feed, nil
}
