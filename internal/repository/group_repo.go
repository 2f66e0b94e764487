// Package repository implements the database access layer for the habit tracker.
// This file handles groups and their dashboard summaries.
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

const groupColumns = `id, name, description, invite_code, owner_id, created_at, updated_at`

// GroupRepository handles group-related database operations.
type GroupRepository struct{}

// NewGroupRepository creates a new instance of GroupRepository.
//
// Returns:
//   - *GroupRepository: Initialized repository instance
func NewGroupRepository() *GroupRepository {
	return &GroupRepository{}
}

func scanGroup(row pgx.Row) (*models.Group, error) {
	var g models.Group
	err := row.Scan(&g.ID, &g.Name, &g.Description, &g.InviteCode, &g.OwnerID, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// CreateWithOwner inserts the group and the owner's admin membership in one
// transaction, so a group never exists without its admin.
//
// Parameters:
//   - ctx: Context for cancellation and timeout control
//   - group: Group with Name, Description, InviteCode and OwnerID set
//
// Returns:
//   - error: ErrDuplicate if the invite code is taken, database error otherwise
//
// Side Effects: Populates group.ID, group.CreatedAt and group.UpdatedAt
// Database: groups + group_members inside a single transaction
func (r *GroupRepository) CreateWithOwner(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}

	err := database.WithTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO groups (id, name, description, invite_code, owner_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
			RETURNING created_at, updated_at
		`, group.ID, group.Name, group.Description, group.InviteCode, group.OwnerID,
		).Scan(&group.CreatedAt, &group.UpdatedAt)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO group_members (id, user_id, group_id, role, joined_at)
			VALUES ($1, $2, $3, $4, NOW())
		`, uuid.NewString(), group.OwnerID, group.ID, models.RoleAdmin)
		return err
	})

	if _, ok := uniqueViolation(err); ok {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

// FindByID retrieves a group by primary key.
//
// Returns:
//   - error: ErrNotFound if the group does not exist
func (r *GroupRepository) FindByID(ctx context.Context, id string) (*models.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups WHERE id = $1`
	return scanGroup(database.DB.QueryRow(ctx, query, id))
}

// FindByInviteCode retrieves the group an invite code belongs to.
//
// Returns:
//   - error: ErrNotFound if no group carries the code
func (r *GroupRepository) FindByInviteCode(ctx context.Context, code string) (*models.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups WHERE invite_code = $1`
	return scanGroup(database.DB.QueryRow(ctx, query, code))
}

// Delete removes a group by ID.
// CASCADE deletion removes members, habits, subscriptions, check-ins and messages.
//
// Returns:
//   - error: ErrNotFound if nothing was deleted
func (r *GroupRepository) Delete(ctx context.Context, groupID string) error {
	tag, err := database.DB.Exec(ctx, `DELETE FROM groups WHERE id = $1`, groupID)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListForUser retrieves the dashboard cards for every group the user belongs to.
//
// Returns:
//   - []models.GroupSummary: Groups newest first, with owner profile,
//     member count and active habit count
//
// Database: correlated subqueries over group_members and habits
func (r *GroupRepository) ListForUser(ctx context.Context, userID string) ([]models.GroupSummary, error) {
	query := `
		SELECT g.id, g.name, g.description, g.invite_code, g.owner_id, g.created_at, g.updated_at,
		       o.name, o.profile_image,
		       (SELECT COUNT(*) FROM group_members gm2 WHERE gm2.group_id = g.id) AS member_count,
		       (SELECT COUNT(*) FROM habits h WHERE h.group_id = g.id AND h.is_active) AS habit_count
		FROM groups g
		JOIN group_members gm ON gm.group_id = g.id AND gm.user_id = $1
		JOIN users o ON o.id = g.owner_id
		ORDER BY g.created_at DESC
	`

	rows, err := database.DB.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	groups := []models.GroupSummary{}
	for rows.Next() {
		var s models.GroupSummary
		if err := rows.Scan(
			&s.ID, &s.Name, &s.Description, &s.InviteCode, &s.OwnerID, &s.CreatedAt, &s.UpdatedAt,
			&s.OwnerName, &s.OwnerImage, &s.MemberCount, &s.HabitCount,
		); err != nil {
			return nil, err
		}
		groups = append(groups, s)
	}

	return groups, rows.Err()
}
