package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlopezgez/group-habits-tracking/internal/models"
	"github.com/mlopezgez/group-habits-tracking/internal/repository"
)

func TestHabitRepository_Create(t *testing.T) {
	mock := setupMock(t)
	now := time.Date(2025, 10, 25, 12, 0, 0, 0, time.UTC)

	habit := &models.Habit{
		GroupID:    "g1",
		Name:       "Run",
		Frequency:  models.FrequencyDaily,
		TargetDays: 5,
		Icon:       "🏃",
		Color:      "oklch(0.6 0.2 240)",
	}

	mock.ExpectQuery("INSERT INTO habits").
		WithArgs(pgxmock.AnyArg(), "g1", "Run", nilStr, "daily", 5, "🏃", "oklch(0.6 0.2 240)").
		WillReturnRows(pgxmock.NewRows([]string{"is_active", "created_at", "updated_at"}).AddRow(true, now, now))

	err := repository.NewHabitRepository().Create(context.Background(), habit)

	require.NoError(t, err)
	assert.NotEmpty(t, habit.ID)
	assert.True(t, habit.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHabitRepository_FindByID_NotFound(t *testing.T) {
	mock := setupMock(t)

	mock.ExpectQuery("SELECT (.+) FROM habits WHERE id = \\$1").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "group_id", "name", "description", "frequency", "target_days",
			"icon", "color", "is_active", "created_at", "updated_at",
		}))

	habit, err := repository.NewHabitRepository().FindByID(context.Background(), "missing")

	assert.Nil(t, habit)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestHabitRepository_ListActive verifies the tracking flag is computed for the viewer.
func TestHabitRepository_ListActive(t *testing.T) {
	mock := setupMock(t)
	now := time.Date(2025, 10, 25, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM habits h WHERE h.group_id = \\$1 AND h.is_active ORDER BY h.created_at DESC").
		WithArgs("g1", "u1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "group_id", "name", "description", "frequency", "target_days",
			"icon", "color", "is_active", "created_at", "updated_at", "is_tracking",
		}).
			AddRow("h2", "g1", "Read", nilStr, "daily", 7, "📚", "c", true, now, now, true).
			AddRow("h1", "g1", "Run", nilStr, "weekly", 3, "🏃", "c", true, now, now, false))

	habits, err := repository.NewHabitRepository().ListActive(context.Background(), "g1", "u1")

	require.NoError(t, err)
	require.Len(t, habits, 2)
	assert.True(t, habits[0].IsTracking)
	assert.False(t, habits[1].IsTracking)
	assert.Equal(t, 3, habits[1].TargetDays)
	assert.NoError(t, mock.ExpectationsWereMet())
}
