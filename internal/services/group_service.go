package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"

	"github.com/mlopezgez/group-habits-tracking/internal/models"
	"github.com/mlopezgez/group-habits-tracking/internal/repository"
)

// InviteCodeLength is the length of generated invite codes.
const InviteCodeLength = 10

const (
	invitePathPrefix = "/groups/join/"
	maxCodeAttempts  = 3
)

// NewInviteCode returns a random URL-safe invite code.
func NewInviteCode() (string, error) {
	return gonanoid.New(InviteCodeLength)
}

// ParseInviteInput extracts an invite code from what a user pasted: either a
// bare code or an invite link. For links, the code is the path segment after
// /groups/join/; anything else is taken as the code itself.
func ParseInviteInput(input string) string {
	input = strings.TrimSpace(input)

	idx := strings.LastIndex(input, invitePathPrefix)
	if idx < 0 {
		return input
	}

	code := input[idx+len(invitePathPrefix):]
	if cut := strings.IndexAny(code, "/?#"); cut >= 0 {
		code = code[:cut]
	}
	return strings.TrimSpace(code)
}

// InviteLink builds the shareable link for a group's invite code.
func InviteLink(origin, code string) string {
	return strings.TrimRight(origin, "/") + invitePathPrefix + code
}

// GroupService implements group creation, the invite flow and group reads.
type GroupService struct {
	store  Store
	access *AccessService
	logger *zap.Logger
}

// NewGroupService creates a GroupService.
func NewGroupService(store Store, access *AccessService, logger *zap.Logger) *GroupService {
	return &GroupService{store: store, access: access, logger: logger}
}

// Create makes a group owned by owner, who becomes its admin member in the
// same transaction. An invite code collision is retried with a fresh code.
func (s *GroupService) Create(ctx context.Context, owner *models.User, req models.CreateGroupRequest) (*models.Group, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrMissingName
	}

	group := &models.Group{
		Name:        name,
		Description: trimmedOrNil(req.Description),
		OwnerID:     owner.ID,
	}

	for attempt := 1; ; attempt++ {
		code, err := NewInviteCode()
		if err != nil {
			return nil, fmt.Errorf("generate invite code: %w", err)
		}
		group.InviteCode = code

		err = s.store.Groups.CreateWithOwner(ctx, group)
		if err == nil {
			return group, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) || attempt == maxCodeAttempts {
			return nil, err
		}
		s.logger.Warn("invite code collision, retrying", zap.Int("attempt", attempt))
		group.ID = ""
	}
}

// JoinByInvite adds user to the group identified by input as a plain member.
// input may be a code or an invite link.
func (s *GroupService) JoinByInvite(ctx context.Context, user *models.User, input string) (*models.Group, error) {
	code := ParseInviteInput(input)
	if code == "" {
		return nil, ErrMissingInviteCode
	}

	group, err := s.store.Groups.FindByInviteCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCode
	}
	if err != nil {
		return nil, err
	}

	err = s.store.Members.Add(ctx, &models.GroupMember{
		UserID:  user.ID,
		GroupID: group.ID,
		Role:    models.RoleMember,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrAlreadyMember
	}
	if err != nil {
		return nil, err
	}
	return group, nil
}

// Delete removes a group owned by user. Members, habits, subscriptions,
// check-ins and messages go with it.
func (s *GroupService) Delete(ctx context.Context, user *models.User, groupID string) (*models.Group, error) {
	group, err := s.access.RequireOwner(ctx, user.ID, groupID)
	if err != nil {
		return nil, err
	}

	err = s.store.Groups.Delete(ctx, groupID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, err
	}
	return group, nil
}

// Dashboard lists the groups user belongs to, newest first.
func (s *GroupService) Dashboard(ctx context.Context, user *models.User) ([]models.GroupSummary, error) {
	return s.store.Groups.ListForUser(ctx, user.ID)
}

// Detail returns the group page for a member.
func (s *GroupService) Detail(ctx context.Context, user *models.User, groupID string) (*models.GroupDetail, error) {
	group, err := s.store.Groups.FindByID(ctx, groupID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, err
	}

	membership, err := s.access.RequireMembership(ctx, user.ID, groupID)
	if err != nil {
		return nil, err
	}

	members, err := s.store.Members.ListMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}

	habits, err := s.store.Habits.ListActive(ctx, groupID, user.ID)
	if err != nil {
		return nil, err
	}

	return &models.GroupDetail{
		Group:   *group,
		Role:    membership.Role,
		IsOwner: group.OwnerID == user.ID,
		Members: members,
		Habits:  habits,
	}, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
