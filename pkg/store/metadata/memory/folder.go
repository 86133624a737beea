package memory

import (
	"context"
	"fmt"

	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

// CreateFolder implements metadata.Store.
func (s *MemoryStore) CreateFolder(ctx context.Context, folder *metadata.FolderRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.folders[folder.ID]; exists {
		return fmt.Errorf("folder %s: %w", folder.ID, metadata.ErrAlreadyExists)
	}
	if folder.PublicID != "" {
		if existing, taken := s.publicIDs[folder.PublicID]; taken && existing != folder.ID {
			return fmt.Errorf("folder %s: %w", folder.ID, metadata.ErrDuplicatePublicID)
		}
	}

	s.folders[folder.ID] = folder.Clone()
	if folder.PublicID != "" {
		s.publicIDs[folder.PublicID] = folder.ID
	}
	return nil
}

// PutFolder implements metadata.Store. The public id index follows the
// record: a replaced record's stale public id mapping is dropped.
func (s *MemoryStore) PutFolder(ctx context.Context, folder *metadata.FolderRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if folder.PublicID != "" {
		if existing, taken := s.publicIDs[folder.PublicID]; taken && existing != folder.ID {
			return fmt.Errorf("folder %s: %w", folder.ID, metadata.ErrDuplicatePublicID)
		}
	}

	if previous, ok := s.folders[folder.ID]; ok && previous.PublicID != "" && previous.PublicID != folder.PublicID {
		delete(s.publicIDs, previous.PublicID)
	}

	s.folders[folder.ID] = folder.Clone()
	if folder.PublicID != "" {
		s.publicIDs[folder.PublicID] = folder.ID
	}
	return nil
}

// GetFolder implements metadata.Store.
func (s *MemoryStore) GetFolder(ctx context.Context, id string) (*metadata.FolderRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	folder, ok := s.folders[id]
	if !ok {
		return nil, fmt.Errorf("folder %s: %w", id, metadata.ErrNotFound)
	}
	return folder.Clone(), nil
}

// GetFolderByPublicID implements metadata.Store.
func (s *MemoryStore) GetFolderByPublicID(ctx context.Context, publicID string) (*metadata.FolderRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.publicIDs[publicID]
	if !ok {
		return nil, fmt.Errorf("folder public id %s: %w", publicID, metadata.ErrNotFound)
	}
	folder, ok := s.folders[id]
	if !ok {
		return nil, fmt.Errorf("folder %s: %w", id, metadata.ErrNotFound)
	}
	return folder.Clone(), nil
}

// EnsureFolderPublicID implements metadata.Store. The check-and-set runs
// under the store lock, so concurrent backfills of the same legacy record
// settle on whichever id landed first.
func (s *MemoryStore) EnsureFolderPublicID(ctx context.Context, id string, publicID string) (*metadata.FolderRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	folder, ok := s.folders[id]
	if !ok {
		return nil, fmt.Errorf("folder %s: %w", id, metadata.ErrNotFound)
	}
	if folder.PublicID == "" {
		folder.PublicID = publicID
		s.publicIDs[publicID] = id
	}
	return folder.Clone(), nil
}

// DeleteFolder implements metadata.Store. Idempotent.
func (s *MemoryStore) DeleteFolder(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if folder, ok := s.folders[id]; ok && folder.PublicID != "" {
		delete(s.publicIDs, folder.PublicID)
	}
	delete(s.folders, id)
	return nil
}

// FoldersByIDs implements metadata.Store. Missing ids are skipped.
func (s *MemoryStore) FoldersByIDs(ctx context.Context, ids []string) ([]*metadata.FolderRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*metadata.FolderRecord, 0, len(ids))
	for _, id := range ids {
		if folder, ok := s.folders[id]; ok {
			records = append(records, folder.Clone())
		}
	}
	return records, nil
}

// ListOwnerFolders implements metadata.Store.
func (s *MemoryStore) ListOwnerFolders(ctx context.Context, ownerID string) ([]*metadata.FolderRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*metadata.FolderRecord
	for _, folder := range s.folders {
		if folder.OwnerID == ownerID {
			records = append(records, folder.Clone())
		}
	}
	return records, nil
}

// ListFoldersInFolder implements metadata.Store.
func (s *MemoryStore) ListFoldersInFolder(ctx context.Context, parentID string, includeDeleted bool) ([]*metadata.FolderRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*metadata.FolderRecord
	for _, folder := range s.folders {
		if folder.ParentID == nil || *folder.ParentID != parentID {
			continue
		}
		if folder.Deleted && !includeDeleted {
			continue
		}
		records = append(records, folder.Clone())
	}
	return records, nil
}

// ListSharedFolders implements metadata.Store.
func (s *MemoryStore) ListSharedFolders(ctx context.Context, principalID string) ([]*metadata.FolderRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*metadata.FolderRecord
	for _, folder := range s.folders {
		if folder.Deleted {
			continue
		}
		if _, ok := folder.ShareFor(principalID); ok {
			records = append(records, folder.Clone())
		}
	}
	return records, nil
}

// SetFoldersDeleted implements metadata.Store. Location follows the Deleted
// flag in lockstep.
func (s *MemoryStore) SetFoldersDeleted(ctx context.Context, ownerID string, ids []string, deleted bool) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updated := 0
	for _, id := range ids {
		folder, ok := s.folders[id]
		if !ok || folder.OwnerID != ownerID {
			continue
		}
		folder.Deleted = deleted
		if deleted {
			folder.Location = metadata.LocationTrash
		} else {
			folder.Location = metadata.LocationMyDrive
		}
		updated++
	}
	return updated, nil
}

// SetFoldersStarred implements metadata.Store.
func (s *MemoryStore) SetFoldersStarred(ctx context.Context, ownerID string, ids []string, starred bool) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updated := 0
	for _, id := range ids {
		folder, ok := s.folders[id]
		if !ok || folder.OwnerID != ownerID {
			continue
		}
		folder.Starred = starred
		updated++
	}
	return updated, nil
}
