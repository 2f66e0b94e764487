// Package repository implements the database access layer for the habit tracker.
// This file maps external identities to local user rows.
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

const userColumns = `id, clerk_id, email, name, profile_image, created_at, updated_at`

// UserRepository handles user-related database operations.
// Rows are keyed by the provider's identity id (clerk_id) and never by email.
type UserRepository struct{}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.ClerkID, &u.Email, &u.Name, &u.ProfileImage, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByClerkID retrieves the user linked to an external identity.
//
// Returns:
//   - *models.User: The linked user
//   - error: ErrNotFound if no row is linked, database error otherwise
func (r *UserRepository) FindByClerkID(ctx context.Context, clerkID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE clerk_id = $1`
	return scanUser(database.DB.QueryRow(ctx, query, clerkID))
}

// FindByID retrieves a user by primary key.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(database.DB.QueryRow(ctx, query, id))
}

// Upsert inserts the identity or refreshes the profile of the row already
// linked to it. Concurrent upserts of one identity converge on a single row
// through the clerk_id constraint.
//
// Parameters:
//   - ctx: Context for cancellation and timeout control
//   - attrs: Provider attributes; ClerkID and Email are required
//
// Returns:
//   - *models.User: The inserted or refreshed row
//   - error: ErrEmailTaken if another identity already owns the email
//
// Database: INSERT ... ON CONFLICT (clerk_id) DO UPDATE
func (r *UserRepository) Upsert(ctx context.Context, attrs models.IdentityAttributes) (*models.User, error) {
	query := `
		INSERT INTO users (id, clerk_id, email, name, profile_image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (clerk_id) DO UPDATE
		SET email = EXCLUDED.email,
		    name = EXCLUDED.name,
		    profile_image = EXCLUDED.profile_image,
		    updated_at = NOW()
		RETURNING ` + userColumns

	user, err := scanUser(database.DB.QueryRow(ctx, query,
		uuid.NewString(), attrs.ClerkID, attrs.Email, attrs.Name, attrs.ProfileImage,
	))
	if constraint, ok := uniqueViolation(err); ok && constraint == usersEmailConstraint {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return user, nil
}

// RelinkByEmail points the row owning attrs.Email at a new identity id and
// refreshes its profile. Used when the provider re-issues an identity for an
// existing account.
//
// Returns:
//   - error: ErrNotFound if no row has the email, ErrIdentityTaken if another
//     row already carries attrs.ClerkID
func (r *UserRepository) RelinkByEmail(ctx context.Context, attrs models.IdentityAttributes) (*models.User, error) {
	query := `
		UPDATE users
		SET clerk_id = $1, name = $2, profile_image = $3, updated_at = NOW()
		WHERE email = $4
		RETURNING ` + userColumns

	user, err := scanUser(database.DB.QueryRow(ctx, query,
		attrs.ClerkID, attrs.Name, attrs.ProfileImage, attrs.Email,
	))
	if constraint, ok := uniqueViolation(err); ok && constraint == usersClerkIDConstraint {
		return nil, ErrIdentityTaken
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("relink user: %w", err)
	}
	return user, err
}

// DeleteByClerkID removes the user linked to an identity. Owned groups,
// memberships, subscriptions, check-ins and messages cascade.
// Deleting an unknown identity is not an error.
func (r *UserRepository) DeleteByClerkID(ctx context.Context, clerkID string) error {
	_, err := database.DB.Exec(ctx, `DELETE FROM users WHERE clerk_id = $1`, clerkID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
