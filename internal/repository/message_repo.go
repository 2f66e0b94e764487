package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mlopezgez/group-habits-tracking/internal/database"
	"github.com/mlopezgez/group-habits-tracking/internal/models"
)

// MessageRepository handles the append-only group chat log.
type MessageRepository struct{}

// NewMessageRepository creates a new instance of MessageRepository.
func NewMessageRepository() *MessageRepository {
	return &MessageRepository{}
}

// Create appends a message stamped with the server time.
//
// Side Effects: Populates msg.ID and msg.CreatedAt
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	query := `
		INSERT INTO messages (id, group_id, user_id, content, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at
	`

	if err := database.DB.QueryRow(ctx, query, msg.ID, msg.GroupID, msg.UserID, msg.Content).
		Scan(&msg.CreatedAt); err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

// ListLatest returns up to limit of the group's most recent messages,
// newest first, with author profiles.
func (r *MessageRepository) ListLatest(ctx context.Context, groupID string, limit int) ([]models.MessageView, error) {
	query := `
		SELECT m.id, m.group_id, m.user_id, m.content, m.created_at,
		       u.name, u.email, u.profile_image
		FROM messages m
		JOIN users u ON u.id = m.user_id
		WHERE m.group_id = $1
		ORDER BY m.created_at DESC
		LIMIT $2
	`

	rows, err := database.DB.Query(ctx, query, groupID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := []models.MessageView{}
	for rows.Next() {
		var m models.MessageView
		if err := rows.Scan(
			&m.ID, &m.GroupID, &m.UserID, &m.Content, &m.CreatedAt,
			&m.UserName, &m.UserEmail, &m.UserImage,
		); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}
