package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mlopezgez/group-habits-tracking/internal/database"
	"github.com/mlopezgez/group-habits-tracking/internal/models"
)

// DayLayout is the wire format of the check_ins.day column.
const DayLayout = "2006-01-02"

const checkInColumns = `c.id, c.user_id, c.habit_id, c.date, c.note, c.photo_url, c.created_at`

// CheckInRepository handles the check-in ledger.
//
// The day a check-in counts for is the calendar date of CheckIn.Date in the
// location it carries; callers normalize Date to midnight before inserting.
type CheckInRepository struct{}

// NewCheckInRepository creates a new instance of CheckInRepository.
func NewCheckInRepository() *CheckInRepository {
	return &CheckInRepository{}
}

// Create inserts a check-in.
// The (user, habit, day) uniqueness is enforced by the store, not by a prior read.
//
// Returns:
//   - error: ErrDuplicate if the user already checked in that day
//
// Database: ON CONFLICT (user_id, habit_id, day) DO NOTHING
func (r *CheckInRepository) Create(ctx context.Context, checkIn *models.CheckIn) error {
	if checkIn.ID == "" {
		checkIn.ID = uuid.NewString()
	}

	query := `
		INSERT INTO check_ins (id, user_id, habit_id, date, day, note, photo_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (user_id, habit_id, day) DO NOTHING
		RETURNING created_at
	`

	err := database.DB.QueryRow(ctx, query,
		checkIn.ID, checkIn.UserID, checkIn.HabitID, checkIn.Date, checkIn.Date.Format(DayLayout),
		checkIn.Note, checkIn.PhotoURL,
	).Scan(&checkIn.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("create check-in: %w", err)
	}
	return nil
}

// FindByID retrieves a check-in by primary key.
//
// Returns:
//   - error: ErrNotFound if the check-in does not exist
func (r *CheckInRepository) FindByID(ctx context.Context, id string) (*models.CheckIn, error) {
	query := `SELECT ` + checkInColumns + ` FROM check_ins c WHERE c.id = $1`

	var c models.CheckIn
	err := database.DB.QueryRow(ctx, query, id).
		Scan(&c.ID, &c.UserID, &c.HabitID, &c.Date, &c.Note, &c.PhotoURL, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find check-in: %w", err)
	}
	return &c, nil
}

// Delete removes a check-in by ID.
func (r *CheckInRepository) Delete(ctx context.Context, id string) error {
	tag, err := database.DB.Exec(ctx, `DELETE FROM check_ins WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete check-in: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListForUser returns a user's check-ins for a habit on or after the given
// day, newest first.
func (r *CheckInRepository) ListForUser(ctx context.Context, userID, habitID string, since time.Time) ([]models.CheckIn, error) {
	query := `
		SELECT ` + checkInColumns + `
		FROM check_ins c
		WHERE c.user_id = $1 AND c.habit_id = $2 AND c.day >= $3
		ORDER BY c.date DESC
	`

	rows, err := database.DB.Query(ctx, query, userID, habitID, since.Format(DayLayout))
	if err != nil {
		return nil, fmt.Errorf("list check-ins: %w", err)
	}
	defer rows.Close()

	checkIns := []models.CheckIn{}
	for rows.Next() {
		var c models.CheckIn
		if err := rows.Scan(&c.ID, &c.UserID, &c.HabitID, &c.Date, &c.Note, &c.PhotoURL, &c.CreatedAt); err != nil {
			return nil, err
		}
		checkIns = append(checkIns, c)
	}

	return checkIns, rows.Err()
}

// ListTrackersOnDay returns the check-ins made on one day by users who
// currently track the habit, newest first.
func (r *CheckInRepository) ListTrackersOnDay(ctx context.Context, habitID string, day time.Time) ([]models.CheckInView, error) {
	query := `
		SELECT ` + checkInColumns + `, u.name, u.email, u.profile_image
		FROM check_ins c
		JOIN users u ON u.id = c.user_id
		JOIN user_habits uh ON uh.user_id = c.user_id AND uh.habit_id = c.habit_id
		WHERE c.habit_id = $1 AND c.day = $2
		ORDER BY c.created_at DESC
	`
	return r.listViews(ctx, query, habitID, day.Format(DayLayout))
}

// ListRecent returns the latest check-ins of every user for a habit, newest day first.
func (r *CheckInRepository) ListRecent(ctx context.Context, habitID string, limit int) ([]models.CheckInView, error) {
	query := `
		SELECT ` + checkInColumns + `, u.name, u.email, u.profile_image
		FROM check_ins c
		JOIN users u ON u.id = c.user_id
		WHERE c.habit_id = $1
		ORDER BY c.date DESC, c.created_at DESC
		LIMIT $2
	`
	return r.listViews(ctx, query, habitID, limit)
}

func (r *CheckInRepository) listViews(ctx context.Context, query string, args ...interface{}) ([]models.CheckInView, error) {
	rows, err := database.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list check-ins: %w", err)
	}
	defer rows.Close()

	views := []models.CheckInView{}
	for rows.Next() {
		var v models.CheckInView
		if err := rows.Scan(
			&v.ID, &v.UserID, &v.HabitID, &v.Date, &v.Note, &v.PhotoURL, &v.CreatedAt,
			&v.UserName, &v.UserEmail, &v.UserImage,
		); err != nil {
			return nil, err
		}
		views = append(views, v)
	}

	return views, rows.Err()
}
