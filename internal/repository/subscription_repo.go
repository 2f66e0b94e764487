package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mlopezgez/group-habits-tracking/internal/database"
	"github.com/mlopezgez/group-habits-tracking/internal/models"
)

// SubscriptionRepository handles user_habits, the per-user tracking opt-in.
type SubscriptionRepository struct{}

// NewSubscriptionRepository creates a new instance of SubscriptionRepository.
func NewSubscriptionRepository() *SubscriptionRepository {
	return &SubscriptionRepository{}
}

// Add records that a user tracks a habit.
//
// Returns:
//   - error: ErrDuplicate if the user already tracks it
//
// Database: ON CONFLICT (user_id, habit_id) DO NOTHING
func (r *SubscriptionRepository) Add(ctx context.Context, sub *models.UserHabit) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}

	query := `
		INSERT INTO user_habits (id, user_id, habit_id, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, habit_id) DO NOTHING
		RETURNING created_at
	`

	err := database.DB.QueryRow(ctx, query, sub.ID, sub.UserID, sub.HabitID).Scan(&sub.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("add subscription: %w", err)
	}
	return nil
}

// Remove deletes the tracking row. Past check-ins are kept.
//
// Returns:
//   - error: ErrNotFound if the user was not tracking the habit
func (r *SubscriptionRepository) Remove(ctx context.Context, userID, habitID string) error {
	tag, err := database.DB.Exec(ctx,
		`DELETE FROM user_habits WHERE user_id = $1 AND habit_id = $2`, userID, habitID)
	if err != nil {
		return fmt.Errorf("remove subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Exists reports whether the user tracks the habit.
func (r *SubscriptionRepository) Exists(ctx context.Context, userID, habitID string) (bool, error) {
	var exists bool
	err := database.DB.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_habits WHERE user_id = $1 AND habit_id = $2)`,
		userID, habitID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check subscription: %w", err)
	}
	return exists, nil
}
