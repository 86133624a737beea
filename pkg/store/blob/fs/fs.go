// Package fs implements filesystem-based blob storage.
//
// Each blob is stored as a single file named after its id under a base
// directory. Writes go through a temp file and an atomic rename so a crash
// mid-upload never leaves a partially written blob resolvable by id.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/marmos91/dittodrive/pkg/store/blob"
	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

// FSBlobStore implements blob.Store using the local filesystem.
//
// Thread Safety:
// Filesystem operations are safe at the OS level and blob ids are
// single-writer, so no additional locking is needed.
type FSBlobStore struct {
	basePath string
}

// NewFSBlobStore creates a filesystem blob store rooted at basePath,
// creating the directory (0755) if it does not exist.
func NewFSBlobStore(ctx context.Context, basePath string) (*FSBlobStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FSBlobStore{basePath: basePath}, nil
}

// blobPath returns the file path for a blob id. Ids are UUIDs generated by
// Put, so they are always filesystem-safe.
func (s *FSBlobStore) blobPath(id metadata.BlobID) string {
	return filepath.Join(s.basePath, string(id))
}

// Put implements blob.Store.
func (s *FSBlobStore) Put(ctx context.Context, r io.Reader) (metadata.BlobID, uint64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	id := metadata.BlobID(uuid.NewString())

	tmp, err := os.CreateTemp(s.basePath, ".upload-*")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	written, err := io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpName)
		return "", 0, fmt.Errorf("failed to write blob: %w", err)
	}

	if err := os.Rename(tmpName, s.blobPath(id)); err != nil {
		os.Remove(tmpName)
		return "", 0, fmt.Errorf("failed to finalize blob: %w", err)
	}

	return id, uint64(written), nil
}

// Open implements blob.Store.
func (s *FSBlobStore) Open(ctx context.Context, id metadata.BlobID) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.blobPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("blob %s: %w", id, blob.ErrBlobNotFound)
		}
		return nil, fmt.Errorf("failed to open blob %s: %w", id, err)
	}
	return f, nil
}

// Stat implements blob.Store.
func (s *FSBlobStore) Stat(ctx context.Context, id metadata.BlobID) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	info, err := os.Stat(s.blobPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("blob %s: %w", id, blob.ErrBlobNotFound)
		}
		return 0, fmt.Errorf("failed to stat blob %s: %w", id, err)
	}
	return uint64(info.Size()), nil
}

// Exists implements blob.Store.
func (s *FSBlobStore) Exists(ctx context.Context, id metadata.BlobID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := os.Stat(s.blobPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat blob %s: %w", id, err)
	}
	return true, nil
}

// Delete implements blob.Store. Idempotent.
func (s *FSBlobStore) Delete(ctx context.Context, id metadata.BlobID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(s.blobPath(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete blob %s: %w", id, err)
	}
	return nil
}

// List implements blob.Store. In-flight temp files are skipped.
func (s *FSBlobStore) List(ctx context.Context) ([]metadata.BlobID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to list blobs: %w", err)
	}

	ids := make([]metadata.BlobID, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if len(name) > 0 && name[0] == '.' {
			continue
		}
		ids = append(ids, metadata.BlobID(name))
	}
	return ids, nil
}
