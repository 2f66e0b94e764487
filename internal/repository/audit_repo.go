// Package repository provides the data access layer for the habit tracker.
// This file implements the audit repository for mutating group actions.
package repository

import (
	"context"
	"fmt"

	"github.com/mlopezgez/group-habits-tracking/internal/database"
	"github.com/mlopezgez/group-habits-tracking/internal/models"
)

// Audit actions recorded by the API handlers.
const (
	ActionCreateGroup   = "CREATE_GROUP"
	ActionDeleteGroup   = "DELETE_GROUP"
	ActionJoinGroup     = "JOIN_GROUP"
	ActionCreateHabit   = "CREATE_HABIT"
	ActionDeleteCheckIn = "DELETE_CHECKIN"
)

// AuditRepository handles all database operations related to audit logging.
//
// Purpose:
//   - Record who created, joined or deleted groups and habits
//   - Keep a trace of destructive actions such as check-in removal
//
// Immutability Note:
//
//	Audit rows are never updated. They reference users and objects by id
//	without foreign keys, so they outlive deleted groups.
type AuditRepository struct{}

// NewAuditRepository creates and returns a new AuditRepository instance.
//
// Example:
//
//	repo := repository.NewAuditRepository()
//	err := repo.Log(ctx, entry)
func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

// Log creates a new audit log entry.
//
// Parameters:
//   - ctx: Context for cancellation and timeout control
//   - entry: AuditLog entry to create (Action and ObjectType required)
//
// Returns:
//   - error: Database error if logging fails, nil on success
//
// Side Effects:
//   - Sets entry.ID to the generated id
//   - Sets entry.CreatedAt to the server timestamp
//
// Example:
//
//	entry := &models.AuditLog{
//	    ActorID:    &user.ID,
//	    Action:     repository.ActionDeleteGroup,
//	    ObjectType: "group",
//	    ObjectID:   &group.ID,
//	    IP:         c.IP(),
//	    UserAgent:  c.Get("User-Agent"),
//	}
//	err := repo.Log(ctx, entry)
func (r *AuditRepository) Log(ctx context.Context, entry *models.AuditLog) error {
	query := `
        INSERT INTO audit_logs (actor_id, action, object_type, object_id, ip, user_agent)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at
    `

	if err := database.DB.QueryRow(ctx, query,
		entry.ActorID, entry.Action, entry.ObjectType, entry.ObjectID, entry.IP, entry.UserAgent,
	).Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}
