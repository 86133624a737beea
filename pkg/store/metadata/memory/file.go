package memory

import (
	"context"
	"fmt"

	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

// CreateFile implements metadata.Store.
func (s *MemoryStore) CreateFile(ctx context.Context, file *metadata.FileRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.files[file.ID]; exists {
		return fmt.Errorf("file %s: %w", file.ID, metadata.ErrAlreadyExists)
	}
	s.files[file.ID] = file.Clone()
	return nil
}

// PutFile implements metadata.Store.
func (s *MemoryStore) PutFile(ctx context.Context, file *metadata.FileRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.files[file.ID] = file.Clone()
	return nil
}

// GetFile implements metadata.Store.
func (s *MemoryStore) GetFile(ctx context.Context, id string) (*metadata.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	file, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", id, metadata.ErrNotFound)
	}
	return file.Clone(), nil
}

// DeleteFile implements metadata.Store. Deleting a missing record succeeds.
func (s *MemoryStore) DeleteFile(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.files, id)
	return nil
}

// FilesByIDs implements metadata.Store. Missing ids are skipped.
func (s *MemoryStore) FilesByIDs(ctx context.Context, ids []string) ([]*metadata.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*metadata.FileRecord, 0, len(ids))
	for _, id := range ids {
		if file, ok := s.files[id]; ok {
			records = append(records, file.Clone())
		}
	}
	return records, nil
}

// ListOwnerFiles implements metadata.Store.
func (s *MemoryStore) ListOwnerFiles(ctx context.Context, ownerID string) ([]*metadata.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*metadata.FileRecord
	for _, file := range s.files {
		if file.OwnerID == ownerID {
			records = append(records, file.Clone())
		}
	}
	return records, nil
}

// ListFilesInFolder implements metadata.Store.
func (s *MemoryStore) ListFilesInFolder(ctx context.Context, folderID string, includeDeleted bool) ([]*metadata.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*metadata.FileRecord
	for _, file := range s.files {
		if file.FolderID == nil || *file.FolderID != folderID {
			continue
		}
		if file.Deleted && !includeDeleted {
			continue
		}
		records = append(records, file.Clone())
	}
	return records, nil
}

// ListSharedFiles implements metadata.Store.
func (s *MemoryStore) ListSharedFiles(ctx context.Context, principalID string) ([]*metadata.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*metadata.FileRecord
	for _, file := range s.files {
		if file.Deleted {
			continue
		}
		if _, ok := file.ShareFor(principalID); ok {
			records = append(records, file.Clone())
		}
	}
	return records, nil
}

// SetFilesDeleted implements metadata.Store. Records missing from the store
// or owned by someone else are skipped, not reported.
func (s *MemoryStore) SetFilesDeleted(ctx context.Context, ownerID string, ids []string, deleted bool) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updated := 0
	for _, id := range ids {
		file, ok := s.files[id]
		if !ok || file.OwnerID != ownerID {
			continue
		}
		file.Deleted = deleted
		updated++
	}
	return updated, nil
}

// SetFilesStarred implements metadata.Store.
func (s *MemoryStore) SetFilesStarred(ctx context.Context, ownerID string, ids []string, starred bool) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updated := 0
	for _, id := range ids {
		file, ok := s.files[id]
		if !ok || file.OwnerID != ownerID {
			continue
		}
		file.Starred = starred
		updated++
	}
	return updated, nil
}

// MoveFiles implements metadata.Store. The PathSegments display hint is
// abandoned on move rather than recomputed.
func (s *MemoryStore) MoveFiles(ctx context.Context, ownerID string, ids []string, folderID *string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updated := 0
	for _, id := range ids {
		file, ok := s.files[id]
		if !ok || file.OwnerID != ownerID {
			continue
		}
		if folderID != nil {
			dest := *folderID
			file.FolderID = &dest
		} else {
			file.FolderID = nil
		}
		file.PathSegments = nil
		updated++
	}
	return updated, nil
}

// AllFiles implements metadata.Store.
func (s *MemoryStore) AllFiles(ctx context.Context) ([]*metadata.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*metadata.FileRecord, 0, len(s.files))
	for _, file := range s.files {
		records = append(records, file.Clone())
	}
	return records, nil
}
