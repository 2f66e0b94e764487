package services

import (
	"context"
	"strings"

	"github.com/mlopezgez/group-habits-tracking/internal/models"
)

// ChatWindow is the number of messages a chat read returns.
const ChatWindow = 100

// ChatService implements the per-group chat log. Clients poll Window; there
// is no push delivery.
type ChatService struct {
	store  Store
	access *AccessService
}

// NewChatService creates a ChatService.
func NewChatService(store Store, access *AccessService) *ChatService {
	return &ChatService{store: store, access: access}
}

// Post appends a trimmed message from a group member.
func (s *ChatService) Post(ctx context.Context, user *models.User, groupID, content string) (*models.MessageView, error) {
	if _, err := s.access.RequireMembership(ctx, user.ID, groupID); err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	msg := models.Message{GroupID: groupID, UserID: user.ID, Content: content}
	if err := s.store.Messages.Create(ctx, &msg); err != nil {
		return nil, err
	}

	return &models.MessageView{
		Message:   msg,
		UserName:  user.Name,
		UserEmail: user.Email,
		UserImage: user.ProfileImage,
	}, nil
}

// Window returns the latest ChatWindow messages, oldest first.
func (s *ChatService) Window(ctx context.Context, user *models.User, groupID string) ([]models.MessageView, error) {
	if _, err := s.access.RequireMembership(ctx, user.ID, groupID); err != nil {
		return nil, err
	}

	messages, err := s.store.Messages.ListLatest(ctx, groupID, ChatWindow)
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
