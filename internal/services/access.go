package services

import (
	"context"
	"errors"

	"github.com/mlopezgez/group-habits-tracking/internal/models"
	"github.com/mlopezgez/group-habits-tracking/internal/repository"
)

// AccessService answers group authorization questions. Results are never
// cached: every request re-reads membership rows.
type AccessService struct {
	groups  GroupStore
	members MembershipStore
}

// NewAccessService creates an AccessService.
func NewAccessService(groups GroupStore, members MembershipStore) *AccessService {
	return &AccessService{groups: groups, members: members}
}

// RequireMembership fails with ErrNotMember unless the user belongs to the group.
func (a *AccessService) RequireMembership(ctx context.Context, userID, groupID string) (*models.GroupMember, error) {
	m, err := a.members.Find(ctx, userID, groupID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotMember
	}
	return m, err
}

// RequireAdmin fails with ErrNotAdmin unless the user is an admin of the group.
func (a *AccessService) RequireAdmin(ctx context.Context, userID, groupID string) (*models.GroupMember, error) {
	m, err := a.members.Find(ctx, userID, groupID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotAdmin
	}
	if err != nil {
		return nil, err
	}
	if !m.IsAdmin() {
		return nil, ErrNotAdmin
	}
	return m, nil
}

// RequireOwner loads the group and fails with ErrNotOwner unless the user owns it.
func (a *AccessService) RequireOwner(ctx context.Context, userID, groupID string) (*models.Group, error) {
	g, err := a.groups.FindByID(ctx, groupID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, err
	}
	if g.OwnerID != userID {
		return nil, ErrNotOwner
	}
	return g, nil
}
