package storage

import (
	"errors"
	"fmt"
)

var (
	ErrFileExists        = errors.New("File already exists")
	ErrFolderExists      = errors.New("Folder already exists")
	ErrNodeNotFound      = errors.New("File not found")
	ErrParentNotFound    = errors.New("Parent folder not found")
	ErrParentNotFolder   = errors.New("Parent is not a folder")
	ErrNotAFile          = errors.New("Only files can be updated")
	ErrProjectNotFound   = errors.New("Project not found")
	ErrConversationGone  = errors.New("Conversation not found")
	ErrMessageNotFound   = errors.New("Message not found")
	ErrEmptyName         = errors.New("Name cannot be empty")
	ErrInvalidName       = errors.New("Name cannot contain '/'")
	ErrCyclicParentChain = errors.New("parent chain contains a cycle")
)

// ConflictError is returned by Rename when a same-kind sibling already uses the name.
type ConflictError struct {
	Type NodeType
	Name string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("A %s with this name already exists in this location", e.Type)
}

// existsError maps a node type to its uniqueness sentinel.
func existsError(t NodeType) error {
	if t == NodeFolder {
		return ErrFolderExists
	}
	return ErrFileExists
}

// IsConflict reports whether err is any uniqueness violation on the project tree.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.Is(err, ErrFileExists) || errors.Is(err, ErrFolderExists) || errors.As(err, &ce)
}
