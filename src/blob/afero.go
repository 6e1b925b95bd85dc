package blob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"

	"github.com/spf13/afero"
)

// AferoStore keeps blobs as plain files under a root directory, with a JSON
// sidecar per blob holding its metadata.
type AferoStore struct {
	fs     afero.Fs
	root   string
	logger *slog.Logger
}

func NewAferoStore(fs afero.Fs, root string, logger *slog.Logger) (*AferoStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := fs.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob root %s: %w", root, err)
	}
	return &AferoStore{
		fs:     fs,
		root:   root,
		logger: logger.With("component", "blob", "driver", "afero"),
	}, nil
}

func (s *AferoStore) dataPath(id string) string { return path.Join(s.root, id) }
func (s *AferoStore) metaPath(id string) string { return path.Join(s.root, id+".meta.json") }

func (s *AferoStore) Put(ctx context.Context, r io.Reader, size int64) (string, error) {
	contentType, body, err := sniff(r)
	if err != nil {
		return "", fmt.Errorf("failed to read blob: %w", err)
	}

	id := newStorageID()
	f, err := s.fs.Create(s.dataPath(id))
	if err != nil {
		return "", err
	}
	written, err := io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		s.fs.Remove(s.dataPath(id))
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	if size >= 0 && written != size {
		s.fs.Remove(s.dataPath(id))
		return "", fmt.Errorf("blob size mismatch: expected %d bytes, got %d", size, written)
	}

	meta, err := json.Marshal(Info{StorageID: id, ContentType: contentType, Size: written})
	if err != nil {
		return "", err
	}
	if err := afero.WriteFile(s.fs, s.metaPath(id), meta, 0o644); err != nil {
		s.fs.Remove(s.dataPath(id))
		return "", err
	}

	s.logger.Debug("blob stored", "storage_id", id, "size", written, "content_type", contentType)
	return id, nil
}

func (s *AferoStore) Get(ctx context.Context, storageID string) (io.ReadCloser, *Info, error) {
	raw, err := afero.ReadFile(s.fs, s.metaPath(storageID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	var info Info
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, nil, fmt.Errorf("corrupt blob metadata for %s: %w", storageID, err)
	}

	f, err := s.fs.Open(s.dataPath(storageID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	return f, &info, nil
}

func (s *AferoStore) Delete(ctx context.Context, storageID string) error {
	for _, p := range []string{s.dataPath(storageID), s.metaPath(storageID)} {
		if err := s.fs.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	s.logger.Debug("blob deleted", "storage_id", storageID)
	return nil
}
