// Package blob stores the binary content of project files outside the database.
package blob

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("blob not found")

// sniffLen is how many leading bytes are used to detect the content type.
const sniffLen = 3072

// Info describes a stored blob.
type Info struct {
	StorageID   string `json:"storage_id"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Store holds binary blobs addressed by an opaque storage id.
type Store interface {
	// Put stores the content of r. size may be -1 when unknown.
	Put(ctx context.Context, r io.Reader, size int64) (string, error)
	// Get opens a blob for reading. Missing blobs return ErrNotFound.
	Get(ctx context.Context, storageID string) (io.ReadCloser, *Info, error)
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, storageID string) error
}

func newStorageID() string {
	return uuid.New().String()
}

// sniff detects the content type from the head of r and returns a reader
// that still yields the full content.
func sniff(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", nil, err
	}
	head = head[:n]
	return mimetype.Detect(head).String(), io.MultiReader(bytes.NewReader(head), r), nil
}
