package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mlopezgez/group-habits-tracking/internal/models"
	"github.com/mlopezgez/group-habits-tracking/internal/repository"
)

// ProfileFetcher loads identity attributes from the identity provider.
type ProfileFetcher interface {
	FetchIdentity(ctx context.Context, clerkID string) (*models.IdentityAttributes, error)
}

// IdentityService maps provider identities to local users.
//
// Both the webhook and the request-time fallback go through Sync, a single
// idempotent "upsert by identity id, reconcile by email" operation.
type IdentityService struct {
	users    UserStore
	profiles ProfileFetcher
	logger   *zap.Logger
}

// NewIdentityService creates the identity bridge. profiles may be nil, in
// which case unknown identities are not created lazily.
func NewIdentityService(users UserStore, profiles ProfileFetcher, logger *zap.Logger) *IdentityService {
	return &IdentityService{users: users, profiles: profiles, logger: logger}
}

// Sync upserts the local user for attrs.
//
// Concurrent calls for one identity converge through the store's uniqueness on
// the identity id. When the email already belongs to a row linked to another
// identity, that row is re-linked instead of duplicated, unless the identity
// has a row of its own: then the update is refused with ErrEmailInUse.
func (s *IdentityService) Sync(ctx context.Context, attrs models.IdentityAttributes) (*models.User, error) {
	attrs.Email = strings.TrimSpace(attrs.Email)
	if attrs.Email == "" {
		return nil, ErrMissingIdentityAttribute
	}

	user, err := s.users.Upsert(ctx, attrs)
	if !errors.Is(err, repository.ErrEmailTaken) {
		return user, err
	}

	if _, err := s.users.FindByClerkID(ctx, attrs.ClerkID); err == nil {
		s.logger.Warn("identity update collides with another account's email",
			zap.String("clerk_id", attrs.ClerkID))
		return nil, ErrEmailInUse
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	s.logger.Info("relinking user to new identity", zap.String("clerk_id", attrs.ClerkID))
	user, err = s.users.RelinkByEmail(ctx, attrs)
	switch {
	case errors.Is(err, repository.ErrIdentityTaken):
		// The identity gained its own row between the lookup and the update.
		return nil, ErrEmailInUse
	case errors.Is(err, repository.ErrNotFound):
		// The email owner vanished between the two statements; a plain upsert
		// now succeeds or reports a real failure.
		return s.users.Upsert(ctx, attrs)
	}
	return user, err
}

// Resolve returns the local user for an authenticated identity, creating it
// from provider attributes when no webhook has delivered it yet.
func (s *IdentityService) Resolve(ctx context.Context, clerkID string) (*models.User, error) {
	user, err := s.users.FindByClerkID(ctx, clerkID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if s.profiles == nil {
		return nil, ErrUserNotFound
	}

	attrs, err := s.profiles.FetchIdentity(ctx, clerkID)
	if err != nil {
		return nil, fmt.Errorf("fetch identity %s: %w", clerkID, err)
	}

	user, err = s.Sync(ctx, *attrs)
	if err != nil {
		return nil, err
	}
	s.logger.Info("created user from identity provider", zap.String("user_id", user.ID))
	return user, nil
}

// Remove deletes the local user of an identity and everything it owns.
func (s *IdentityService) Remove(ctx context.Context, clerkID string) error {
	return s.users.DeleteByClerkID(ctx, clerkID)
}
