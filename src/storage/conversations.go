package storage

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/google/uuid"
)

const messageColumns = `id, conversation_id, project_id, role, content, status, seq, created_at`

// GetConversationByID retrieves a conversation by its ID
func GetConversationByID(ctx context.Context, db sqlscan.Querier, conversationID string) (*Conversation, error) {
	query := `SELECT id, project_id, title, created_at, updated_at FROM conversations WHERE id = ?`
	var conv Conversation
	err := sqlscan.Get(ctx, db, &conv, query, conversationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, err
	}
	return &conv, nil
}

// ListConversations returns a project's conversations, most recent first.
func ListConversations(ctx context.Context, db sqlscan.Querier, projectID string) ([]Conversation, error) {
	query := `SELECT id, project_id, title, created_at, updated_at FROM conversations WHERE project_id = ? ORDER BY updated_at DESC`
	var convs []Conversation
	if err := sqlscan.Select(ctx, db, &convs, query, projectID); err != nil {
		return nil, err
	}
	return convs, nil
}

// CreateConversation creates a new conversation in the database
func CreateConversation(ctx context.Context, db Execer, conversation *Conversation) error {
	if conversation.ID == "" {
		conversation.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if conversation.CreatedAt.IsZero() {
		conversation.CreatedAt = now
	}
	if conversation.UpdatedAt.IsZero() {
		conversation.UpdatedAt = now
	}

	query := `INSERT INTO conversations (id, project_id, title, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query, conversation.ID, conversation.ProjectID, conversation.Title, conversation.CreatedAt, conversation.UpdatedAt)
	return err
}

// UpdateConversationTitle replaces a conversation's title.
func UpdateConversationTitle(ctx context.Context, db Execer, conversationID, title string) error {
	res, err := db.ExecContext(ctx, `UPDATE conversations SET title = ?, updated_at = ? WHERE id = ?`, title, time.Now().UTC(), conversationID)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrConversationGone)
}

// CreateMessage appends a message to its conversation and bumps the conversation.
func CreateMessage(ctx context.Context, db ExecQuerier, message *Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	var seq int64
	if err := sqlscan.Get(ctx, db, &seq, `SELECT ifnull(max(seq), 0) + 1 FROM messages WHERE conversation_id = ?`, message.ConversationID); err != nil {
		return err
	}
	message.Seq = seq

	query := `INSERT INTO messages (` + messageColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		message.ID,
		message.ConversationID,
		message.ProjectID,
		message.Role,
		message.Content,
		message.Status,
		message.Seq,
		message.CreatedAt,
	)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `UPDATE conversations SET updated_at = ? WHERE id = ?`, message.CreatedAt, message.ConversationID)
	return err
}

// GetMessageByID retrieves a message by its ID
func GetMessageByID(ctx context.Context, db sqlscan.Querier, messageID string) (*Message, error) {
	var m Message
	err := sqlscan.Get(ctx, db, &m, `SELECT `+messageColumns+` FROM messages WHERE id = ?`, messageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// GetMessagesByConversationID retrieves all messages for a conversation in order.
func GetMessagesByConversationID(ctx context.Context, db sqlscan.Querier, conversationID string) ([]Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE conversation_id = ? ORDER BY seq`
	var messages []Message
	if err := sqlscan.Select(ctx, db, &messages, query, conversationID); err != nil {
		return nil, err
	}
	return messages, nil
}

// GetRecentMessages returns the last limit messages of a conversation, oldest first.
func GetRecentMessages(ctx context.Context, db sqlscan.Querier, conversationID string, limit int) ([]Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE conversation_id = ? ORDER BY seq DESC LIMIT ?`
	var messages []Message
	if err := sqlscan.Select(ctx, db, &messages, query, conversationID, limit); err != nil {
		return nil, err
	}
	slices.Reverse(messages)
	return messages, nil
}

// UpdateMessageContent writes the message content and sets its status,
// completed unless a status is given.
func UpdateMessageContent(ctx context.Context, db Execer, messageID, content string, status ...MessageStatus) error {
	st := StatusCompleted
	if len(status) > 0 {
		st = status[0]
	}
	res, err := db.ExecContext(ctx, `UPDATE messages SET content = ?, status = ? WHERE id = ?`, content, st, messageID)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrMessageNotFound)
}

// SetMessageStatus changes only the status of a message.
func SetMessageStatus(ctx context.Context, db Execer, messageID string, status MessageStatus) error {
	res, err := db.ExecContext(ctx, `UPDATE messages SET status = ? WHERE id = ?`, status, messageID)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrMessageNotFound)
}

// ListPendingMessages returns the messages still processing in a project.
func ListPendingMessages(ctx context.Context, db sqlscan.Querier, projectID string) ([]Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE project_id = ? AND status = ? ORDER BY created_at, seq`
	var messages []Message
	if err := sqlscan.Select(ctx, db, &messages, query, projectID, StatusPending); err != nil {
		return nil, err
	}
	return messages, nil
}

// ListPendingInConversation returns the pending messages of one conversation.
func ListPendingInConversation(ctx context.Context, db sqlscan.Querier, conversationID string) ([]Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE conversation_id = ? AND status = ? ORDER BY seq`
	var messages []Message
	if err := sqlscan.Select(ctx, db, &messages, query, conversationID, StatusPending); err != nil {
		return nil, err
	}
	return messages, nil
}
