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

// HabitRepository handles the per-group habit catalog.
type HabitRepository struct{}

// NewHabitRepository creates a new instance of HabitRepository.
func NewHabitRepository() *HabitRepository {
	return &HabitRepository{}
}

// Create inserts an active habit.
//
// Side Effects: Populates habit.ID, habit.IsActive and the timestamps
func (r *HabitRepository) Create(ctx context.Context, habit *models.Habit) error {
	if habit.ID == "" {
		habit.ID = uuid.NewString()
	}

	query := `
		INSERT INTO habits (id, group_id, name, description, frequency, target_days, icon, color, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, NOW(), NOW())
		RETURNING is_active, created_at, updated_at
	`

	err := database.DB.QueryRow(ctx, query,
		habit.ID, habit.GroupID, habit.Name, habit.Description, habit.Frequency,
		habit.TargetDays, habit.Icon, habit.Color,
	).Scan(&habit.IsActive, &habit.CreatedAt, &habit.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create habit: %w", err)
	}
	return nil
}

// FindByID retrieves a habit by primary key.
//
// Returns:
//   - error: ErrNotFound if the habit does not exist
func (r *HabitRepository) FindByID(ctx context.Context, id string) (*models.Habit, error) {
	query := `
		SELECT id, group_id, name, description, frequency, target_days, icon, color, is_active, created_at, updated_at
		FROM habits
		WHERE id = $1
	`

	var h models.Habit
	err := database.DB.QueryRow(ctx, query, id).Scan(
		&h.ID, &h.GroupID, &h.Name, &h.Description, &h.Frequency, &h.TargetDays,
		&h.Icon, &h.Color, &h.IsActive, &h.CreatedAt, &h.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find habit: %w", err)
	}
	return &h, nil
}

// ListActive returns the group's active habits, newest first, each flagged with
// whether viewerID tracks it.
func (r *HabitRepository) ListActive(ctx context.Context, groupID, viewerID string) ([]models.HabitView, error) {
	query := `
		SELECT h.id, h.group_id, h.name, h.description, h.frequency, h.target_days, h.icon, h.color,
		       h.is_active, h.created_at, h.updated_at,
		       EXISTS (SELECT 1 FROM user_habits uh WHERE uh.habit_id = h.id AND uh.user_id = $2) AS is_tracking
		FROM habits h
		WHERE h.group_id = $1 AND h.is_active
		ORDER BY h.created_at DESC
	`

	rows, err := database.DB.Query(ctx, query, groupID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	defer rows.Close()

	habits := []models.HabitView{}
	for rows.Next() {
		var h models.HabitView
		if err := rows.Scan(
			&h.ID, &h.GroupID, &h.Name, &h.Description, &h.Frequency, &h.TargetDays,
			&h.Icon, &h.Color, &h.IsActive, &h.CreatedAt, &h.UpdatedAt, &h.IsTracking,
		); err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}

	return habits, rows.Err()
}
