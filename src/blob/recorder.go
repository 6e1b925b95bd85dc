package blob

import (
	"context"
	"io"
	"sync"
)

// Recorder wraps a Store and remembers every storage id passed to Delete.
type Recorder struct {
	Store

	mu       sync.Mutex
	released []string
}

func NewRecorder(inner Store) *Recorder {
	return &Recorder{Store: inner}
}

func (r *Recorder) Delete(ctx context.Context, storageID string) error {
	if err := r.Store.Delete(ctx, storageID); err != nil {
		return err
	}
	r.mu.Lock()
	r.released = append(r.released, storageID)
	r.mu.Unlock()
	return nil
}

// Released returns the ids deleted so far, in call order.
func (r *Recorder) Released() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.released...)
}

var _ Store = (*Recorder)(nil)
var _ Store = (*AferoStore)(nil)
var _ Store = (*MinioStore)(nil)

// ReadAll is a convenience for small blobs.
func ReadAll(ctx context.Context, s Store, storageID string) ([]byte, *Info, error) {
	rc, info, err := s.Get(ctx, storageID)
	if err != nil {
		return nil, nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	return data, info, err
}
