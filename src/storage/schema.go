package storage

import (
	"database/sql"
	"time"
)

// NodeType distinguishes files from folders in the project tree.
type NodeType string

const (
	NodeFile   NodeType = "file"
	NodeFolder NodeType = "folder"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// MessageStatus is only meaningful for assistant messages awaiting agent output.
type MessageStatus string

const (
	StatusPending   MessageStatus = "pending"
	StatusCompleted MessageStatus = "completed"
	StatusFailed    MessageStatus = "failed"
)

type Project struct {
	ID             string         `json:"id" db:"id"`
	Name           string         `json:"name" db:"name"`
	OwnerID        string         `json:"owner_id" db:"owner_id"`
	InstallCommand sql.NullString `json:"-" db:"install_command"`
	DevCommand     sql.NullString `json:"-" db:"dev_command"`
	ImportStatus   sql.NullString `json:"-" db:"import_status"`
	ExportStatus   sql.NullString `json:"-" db:"export_status"`
	ExportRepoURL  sql.NullString `json:"-" db:"export_repo_url"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// File is a node of the project tree: either a file or a folder.
// A nil ParentID places the node at the project root.
type File struct {
	ID        string    `json:"id" db:"id"`
	ProjectID string    `json:"project_id" db:"project_id"`
	ParentID  *string   `json:"parent_id" db:"parent_id"`
	Name      string    `json:"name" db:"name"`
	Type      NodeType  `json:"type" db:"type"`
	Content   *string   `json:"content,omitempty" db:"content"`
	StorageID *string   `json:"storage_id,omitempty" db:"storage_id"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (f *File) IsFolder() bool {
	return f.Type == NodeFolder
}

type Conversation struct {
	ID        string    `json:"id" db:"id"`
	ProjectID string    `json:"project_id" db:"project_id"`
	Title     string    `json:"title" db:"title"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Message struct {
	ID             string         `json:"id" db:"id"`
	ConversationID string         `json:"conversation_id" db:"conversation_id"`
	ProjectID      string         `json:"project_id" db:"project_id"`
	Role           Role           `json:"role" db:"role"`
	Content        string         `json:"content" db:"content"`
	Status         *MessageStatus `json:"status,omitempty" db:"status"`
	Seq            int64          `json:"-" db:"seq"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
}

// IsPending reports whether the message is still waiting on the agent.
func (m *Message) IsPending() bool {
	return m.Status != nil && *m.Status == StatusPending
}
