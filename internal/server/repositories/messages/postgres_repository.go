package messages

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/parley/internal/common"
	"github.com/dmitrijs2005/parley/internal/dbx"
	"github.com/dmitrijs2005/parley/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, msg *models.Message) (*models.Message, error) {

	query :=
		`INSERT INTO messages (conversation_id, sender_id, content, image_key, type)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		msg.ConversationID, msg.SenderID, msg.Content, msg.ImageKey, msg.Type).
		Scan(&msg.ID, &msg.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return msg, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	query :=
		`SELECT id, conversation_id, sender_id, content, image_key, type, created_at
		 FROM messages
		 WHERE id = $1
		 `

	msg := &models.Message{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Content, &msg.ImageKey, &msg.Type, &msg.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return msg, nil
}

func (r *PostgresRepository) ListByConversation(ctx context.Context, conversationID string, limit int) ([]*models.Message, error) {
	query :=
		`SELECT m.id, m.conversation_id, m.sender_id, m.content, m.image_key, m.type, m.created_at,
		        p.id, p.user_id, p.username, p.display_name, p.avatar_key, p.bio, p.last_seen, p.created_at, p.updated_at
		 FROM messages m
		 JOIN profiles p ON p.user_id = m.sender_id
		 WHERE m.conversation_id = $1
		 ORDER BY m.created_at
		 LIMIT $2
		 `

	rows, err := r.db.QueryContext(ctx, query, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Message
	for rows.Next() {
		msg := &models.Message{Sender: &models.Profile{}}
		s := msg.Sender
		err := rows.Scan(
			&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Content, &msg.ImageKey, &msg.Type, &msg.CreatedAt,
			&s.ID, &s.UserID, &s.Username, &s.DisplayName, &s.AvatarKey, &s.Bio, &s.LastSeen, &s.CreatedAt, &s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
