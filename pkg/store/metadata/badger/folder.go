package badger

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

// writeFolderTxn persists a folder record and reconciles every index entry
// whose indexed field changed relative to old (nil for a fresh insert).
// Public id uniqueness is enforced against the dp: index here.
func writeFolderTxn(txn *badger.Txn, old, folder *metadata.FolderRecord) error {
	if old != nil {
		if old.OwnerID != folder.OwnerID {
			if err := txn.Delete(keyOwnerFolder(old.OwnerID, old.ID)); err != nil {
				return err
			}
		}
		if old.ParentID != nil && !sameFolder(old.ParentID, folder.ParentID) {
			if err := txn.Delete(keyChildFolder(*old.ParentID, old.ID)); err != nil {
				return err
			}
		}
		if old.PublicID != "" && old.PublicID != folder.PublicID {
			if err := txn.Delete(keyPublicID(old.PublicID)); err != nil {
				return err
			}
		}
		for _, share := range old.SharedWith {
			if _, still := folder.ShareFor(share.PrincipalID); !still {
				if err := txn.Delete(keyShareFolder(share.PrincipalID, old.ID)); err != nil {
					return err
				}
			}
		}
	}

	if folder.PublicID != "" && (old == nil || old.PublicID != folder.PublicID) {
		item, err := txn.Get(keyPublicID(folder.PublicID))
		if err == nil {
			var holder string
			if err := item.Value(func(val []byte) error {
				holder = string(val)
				return nil
			}); err != nil {
				return err
			}
			if holder != folder.ID {
				return metadata.ErrDuplicatePublicID
			}
		} else if err != badger.ErrKeyNotFound {
			return fmt.Errorf("failed to check public id: %w", err)
		}
	}

	bytes, err := encodeFolderRecord(folder)
	if err != nil {
		return err
	}
	if err := txn.Set(keyFolder(folder.ID), bytes); err != nil {
		return fmt.Errorf("failed to store folder record: %w", err)
	}

	if err := txn.Set(keyOwnerFolder(folder.OwnerID, folder.ID), nil); err != nil {
		return err
	}
	if folder.ParentID != nil {
		if err := txn.Set(keyChildFolder(*folder.ParentID, folder.ID), nil); err != nil {
			return err
		}
	}
	if folder.PublicID != "" {
		if err := txn.Set(keyPublicID(folder.PublicID), []byte(folder.ID)); err != nil {
			return err
		}
	}
	for _, share := range folder.SharedWith {
		if err := txn.Set(keyShareFolder(share.PrincipalID, folder.ID), nil); err != nil {
			return err
		}
	}
	return nil
}

// deleteFolderTxn removes a folder record and all of its index entries.
func deleteFolderTxn(txn *badger.Txn, folder *metadata.FolderRecord) error {
	if err := txn.Delete(keyFolder(folder.ID)); err != nil {
		return err
	}
	if err := txn.Delete(keyOwnerFolder(folder.OwnerID, folder.ID)); err != nil {
		return err
	}
	if folder.ParentID != nil {
		if err := txn.Delete(keyChildFolder(*folder.ParentID, folder.ID)); err != nil {
			return err
		}
	}
	if folder.PublicID != "" {
		if err := txn.Delete(keyPublicID(folder.PublicID)); err != nil {
			return err
		}
	}
	for _, share := range folder.SharedWith {
		if err := txn.Delete(keyShareFolder(share.PrincipalID, folder.ID)); err != nil {
			return err
		}
	}
	return nil
}

// CreateFolder inserts a new folder record.
func (s *BadgerStore) CreateFolder(ctx context.Context, folder *metadata.FolderRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(keyFolder(folder.ID))
		if err == nil {
			return metadata.ErrAlreadyExists
		}
		if err != badger.ErrKeyNotFound {
			return fmt.Errorf("failed to check folder existence: %w", err)
		}
		return writeFolderTxn(txn, nil, folder)
	})
}

// PutFolder inserts or replaces a folder record by ID.
func (s *BadgerStore) PutFolder(ctx context.Context, folder *metadata.FolderRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		old, err := getFolderTxn(txn, folder.ID)
		if err != nil && !errors.Is(err, metadata.ErrNotFound) {
			return err
		}
		return writeFolderTxn(txn, old, folder)
	})
}

// GetFolder retrieves a folder record by internal ID.
func (s *BadgerStore) GetFolder(ctx context.Context, id string) (*metadata.FolderRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var folder *metadata.FolderRecord
	err := s.db.View(func(txn *badger.Txn) error {
		loaded, err := getFolderTxn(txn, id)
		if err != nil {
			return err
		}
		folder = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return folder, nil
}

// GetFolderByPublicID retrieves a folder record by its public id.
func (s *BadgerStore) GetFolderByPublicID(ctx context.Context, publicID string) (*metadata.FolderRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var folder *metadata.FolderRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyPublicID(publicID))
		if err == badger.ErrKeyNotFound {
			return metadata.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to resolve public id: %w", err)
		}

		var id string
		if err := item.Value(func(val []byte) error {
			id = string(val)
			return nil
		}); err != nil {
			return err
		}

		loaded, err := getFolderTxn(txn, id)
		if err != nil {
			return err
		}
		folder = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return folder, nil
}

// EnsureFolderPublicID assigns publicID to the folder if it does not have
// one yet. The check and the write share one transaction, so concurrent
// backfills settle on a single id.
func (s *BadgerStore) EnsureFolderPublicID(ctx context.Context, id string, publicID string) (*metadata.FolderRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var folder *metadata.FolderRecord
	err := s.db.Update(func(txn *badger.Txn) error {
		loaded, err := getFolderTxn(txn, id)
		if err != nil {
			return err
		}
		if loaded.PublicID != "" {
			folder = loaded
			return nil
		}

		old := loaded.Clone()
		loaded.PublicID = publicID
		if err := writeFolderTxn(txn, old, loaded); err != nil {
			return err
		}
		folder = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return folder, nil
}

// DeleteFolder removes a folder record by ID. Idempotent.
func (s *BadgerStore) DeleteFolder(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		folder, err := getFolderTxn(txn, id)
		if errors.Is(err, metadata.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return deleteFolderTxn(txn, folder)
	})
}

// FoldersByIDs returns the records for the given ids, skipping missing ones.
func (s *BadgerStore) FoldersByIDs(ctx context.Context, ids []string) ([]*metadata.FolderRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var folders []*metadata.FolderRecord
	err := s.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			folder, err := getFolderTxn(txn, id)
			if errors.Is(err, metadata.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			folders = append(folders, folder)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return folders, nil
}

// ListOwnerFolders returns every folder record owned by ownerID, including
// deleted ones.
func (s *BadgerStore) ListOwnerFolders(ctx context.Context, ownerID string) ([]*metadata.FolderRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var folders []*metadata.FolderRecord
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(prefixOwnerFolder + ownerID + ":")
		for _, id := range scanIndex(txn, prefix) {
			folder, err := getFolderTxn(txn, id)
			if errors.Is(err, metadata.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			folders = append(folders, folder)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return folders, nil
}

// ListFoldersInFolder returns the folders whose parent is parentID.
func (s *BadgerStore) ListFoldersInFolder(ctx context.Context, parentID string, includeDeleted bool) ([]*metadata.FolderRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var folders []*metadata.FolderRecord
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(prefixChildFolder + parentID + ":")
		for _, id := range scanIndex(txn, prefix) {
			folder, err := getFolderTxn(txn, id)
			if errors.Is(err, metadata.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if folder.Deleted && !includeDeleted {
				continue
			}
			folders = append(folders, folder)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return folders, nil
}

// ListSharedFolders returns the non-deleted folders shared with principalID.
func (s *BadgerStore) ListSharedFolders(ctx context.Context, principalID string) ([]*metadata.FolderRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var folders []*metadata.FolderRecord
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(prefixShareFolder + principalID + ":")
		for _, id := range scanIndex(txn, prefix) {
			folder, err := getFolderTxn(txn, id)
			if errors.Is(err, metadata.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if folder.Deleted {
				continue
			}
			folders = append(folders, folder)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return folders, nil
}

// updateOwnedFolders loads the owned subset of ids, applies mutate and
// writes the records back, all within one transaction. Returns the updated
// count.
func (s *BadgerStore) updateOwnedFolders(ctx context.Context, ownerID string, ids []string, mutate func(*metadata.FolderRecord)) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updated := 0
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, id := range ids {
			folder, err := getFolderTxn(txn, id)
			if errors.Is(err, metadata.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if folder.OwnerID != ownerID {
				continue
			}
			old := folder.Clone()
			mutate(folder)
			if err := writeFolderTxn(txn, old, folder); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

// SetFoldersDeleted bulk-updates the Deleted flag and Location on the owned
// subset of ids.
func (s *BadgerStore) SetFoldersDeleted(ctx context.Context, ownerID string, ids []string, deleted bool) (int, error) {
	return s.updateOwnedFolders(ctx, ownerID, ids, func(folder *metadata.FolderRecord) {
		folder.Deleted = deleted
		if deleted {
			folder.Location = metadata.LocationTrash
		} else {
			folder.Location = metadata.LocationMyDrive
		}
	})
}

// SetFoldersStarred bulk-updates the Starred flag on the owned subset of
// ids.
func (s *BadgerStore) SetFoldersStarred(ctx context.Context, ownerID string, ids []string, starred bool) (int, error) {
	return s.updateOwnedFolders(ctx, ownerID, ids, func(folder *metadata.FolderRecord) {
		folder.Starred = starred
	})
}
