package storage

import (
	"context"
	"database/sql"
	"log/slog"
)

// Repository bundles the store functions over one database handle.
type Repository struct {
	db    *sql.DB
	files *FileStore
}

func NewRepository(db *sql.DB, blobs BlobReleaser, logger *slog.Logger) *Repository {
	return &Repository{
		db:    db,
		files: NewFileStore(db, blobs, logger),
	}
}

func (r *Repository) DB() *sql.DB {
	return r.db
}

func (r *Repository) Files() *FileStore {
	return r.files
}

func (r *Repository) GetProject(ctx context.Context, projectID string) (*Project, error) {
	return GetProject(ctx, r.db, projectID)
}

func (r *Repository) GetConversation(ctx context.Context, conversationID string) (*Conversation, error) {
	return GetConversationByID(ctx, r.db, conversationID)
}

func (r *Repository) GetMessage(ctx context.Context, messageID string) (*Message, error) {
	return GetMessageByID(ctx, r.db, messageID)
}

func (r *Repository) GetRecentMessages(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	return GetRecentMessages(ctx, r.db, conversationID, limit)
}

func (r *Repository) UpdateMessageContent(ctx context.Context, messageID, content string, status ...MessageStatus) error {
	return UpdateMessageContent(ctx, r.db, messageID, content, status...)
}

func (r *Repository) UpdateConversationTitle(ctx context.Context, conversationID, title string) error {
	return UpdateConversationTitle(ctx, r.db, conversationID, title)
}

func (r *Repository) SetMessageStatus(ctx context.Context, messageID string, status MessageStatus) error {
	return SetMessageStatus(ctx, r.db, messageID, status)
}

func (r *Repository) ListPendingMessages(ctx context.Context, projectID string) ([]Message, error) {
	return ListPendingMessages(ctx, r.db, projectID)
}

func (r *Repository) ListPendingInConversation(ctx context.Context, conversationID string) ([]Message, error) {
	return ListPendingInConversation(ctx, r.db, conversationID)
}

// CreateMessage inserts a message in its own transaction so the sequence
// number and the insert cannot interleave with another writer.
func (r *Repository) CreateMessage(ctx context.Context, message *Message) error {
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		return CreateMessage(ctx, tx, message)
	})
}

// CreateProjectWithConversation creates a project and its first conversation atomically.
func (r *Repository) CreateProjectWithConversation(ctx context.Context, project *Project, title string) (*Conversation, error) {
	conv := &Conversation{Title: title}
	err := WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := CreateProject(ctx, tx, project); err != nil {
			return err
		}
		conv.ProjectID = project.ID
		return CreateConversation(ctx, tx, conv)
	})
	if err != nil {
		return nil, err
	}
	return conv, nil
}
