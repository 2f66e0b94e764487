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

// MembershipRepository handles group_members rows.
type MembershipRepository struct{}

// NewMembershipRepository creates a new instance of MembershipRepository.
func NewMembershipRepository() *MembershipRepository {
	return &MembershipRepository{}
}

// Find returns the membership of a user in a group.
//
// Returns:
//   - error: ErrNotFound if the user is not a member
func (r *MembershipRepository) Find(ctx context.Context, userID, groupID string) (*models.GroupMember, error) {
	query := `
		SELECT id, user_id, group_id, role, joined_at
		FROM group_members
		WHERE user_id = $1 AND group_id = $2
	`

	var m models.GroupMember
	err := database.DB.QueryRow(ctx, query, userID, groupID).
		Scan(&m.ID, &m.UserID, &m.GroupID, &m.Role, &m.JoinedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find membership: %w", err)
	}
	return &m, nil
}

// Add inserts a membership.
// A second insert for the same (user, group) is rejected rather than ignored.
//
// Returns:
//   - error: ErrDuplicate if the user is already a member
//
// Side Effects: Populates m.ID and m.JoinedAt
// Database: ON CONFLICT (user_id, group_id) DO NOTHING
func (r *MembershipRepository) Add(ctx context.Context, m *models.GroupMember) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	query := `
		INSERT INTO group_members (id, user_id, group_id, role, joined_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id, group_id) DO NOTHING
		RETURNING joined_at
	`

	err := database.DB.QueryRow(ctx, query, m.ID, m.UserID, m.GroupID, m.Role).Scan(&m.JoinedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("add membership: %w", err)
	}
	return nil
}

// ListMembers returns the group's members with their profiles, earliest joiner first.
func (r *MembershipRepository) ListMembers(ctx context.Context, groupID string) ([]models.MemberView, error) {
	query := `
		SELECT u.id, u.name, u.email, u.profile_image, gm.role, gm.joined_at
		FROM group_members gm
		JOIN users u ON u.id = gm.user_id
		WHERE gm.group_id = $1
		ORDER BY gm.joined_at ASC
	`

	rows, err := database.DB.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := []models.MemberView{}
	for rows.Next() {
		var m models.MemberView
		if err := rows.Scan(&m.UserID, &m.Name, &m.Email, &m.ProfileImage, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}

	return members, rows.Err()
}
