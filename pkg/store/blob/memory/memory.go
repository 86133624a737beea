// Package memory implements an in-memory blob store.
//
// Bytes live in a map behind a read-write mutex. Suitable for tests,
// development, and ephemeral deployments; data is lost on restart.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/marmos91/dittodrive/pkg/store/blob"
	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

// MemoryBlobStore implements blob.Store using an in-memory map.
//
// Thread Safety:
// All operations are protected by a sync.RWMutex. Data is copied on read and
// write so callers can never alias the store's internal buffers.
type MemoryBlobStore struct {
	mu   sync.RWMutex
	data map[metadata.BlobID][]byte
}

// NewMemoryBlobStore creates an empty in-memory blob store.
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{
		data: make(map[metadata.BlobID][]byte),
	}
}

// Put implements blob.Store. Ids are random UUIDs.
func (s *MemoryBlobStore) Put(ctx context.Context, r io.Reader) (metadata.BlobID, uint64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read blob payload: %w", err)
	}

	id := metadata.BlobID(uuid.NewString())

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[id] = data
	return id, uint64(len(data)), nil
}

// Open implements blob.Store.
func (s *MemoryBlobStore) Open(ctx context.Context, id metadata.BlobID) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	data, ok := s.data[id]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("blob %s: %w", id, blob.ErrBlobNotFound)
	}

	// Copy so a concurrent Delete cannot pull the buffer out from under the
	// reader.
	dup := make([]byte, len(data))
	copy(dup, data)
	return io.NopCloser(bytes.NewReader(dup)), nil
}

// Stat implements blob.Store.
func (s *MemoryBlobStore) Stat(ctx context.Context, id metadata.BlobID) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.data[id]
	if !ok {
		return 0, fmt.Errorf("blob %s: %w", id, blob.ErrBlobNotFound)
	}
	return uint64(len(data)), nil
}

// Exists implements blob.Store.
func (s *MemoryBlobStore) Exists(ctx context.Context, id metadata.BlobID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.data[id]
	return ok, nil
}

// Delete implements blob.Store. Idempotent.
func (s *MemoryBlobStore) Delete(ctx context.Context, id metadata.BlobID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, id)
	return nil
}

// List implements blob.Store.
func (s *MemoryBlobStore) List(ctx context.Context) ([]metadata.BlobID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]metadata.BlobID, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}
