package badger

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

// writeFileTxn persists a file record and reconciles every index entry whose
// indexed field changed relative to old (nil for a fresh insert).
func writeFileTxn(txn *badger.Txn, old, file *metadata.FileRecord) error {
	if old != nil {
		if old.OwnerID != file.OwnerID {
			if err := txn.Delete(keyOwnerFile(old.OwnerID, old.ID)); err != nil {
				return err
			}
		}
		if old.FolderID != nil && !sameFolder(old.FolderID, file.FolderID) {
			if err := txn.Delete(keyChildFile(*old.FolderID, old.ID)); err != nil {
				return err
			}
		}
		for _, share := range old.SharedWith {
			if _, still := file.ShareFor(share.PrincipalID); !still {
				if err := txn.Delete(keyShareFile(share.PrincipalID, old.ID)); err != nil {
					return err
				}
			}
		}
	}

	bytes, err := encodeFileRecord(file)
	if err != nil {
		return err
	}
	if err := txn.Set(keyFile(file.ID), bytes); err != nil {
		return fmt.Errorf("failed to store file record: %w", err)
	}

	if err := txn.Set(keyOwnerFile(file.OwnerID, file.ID), nil); err != nil {
		return err
	}
	if file.FolderID != nil {
		if err := txn.Set(keyChildFile(*file.FolderID, file.ID), nil); err != nil {
			return err
		}
	}
	for _, share := range file.SharedWith {
		if err := txn.Set(keyShareFile(share.PrincipalID, file.ID), nil); err != nil {
			return err
		}
	}
	return nil
}

// deleteFileTxn removes a file record and all of its index entries.
func deleteFileTxn(txn *badger.Txn, file *metadata.FileRecord) error {
	if err := txn.Delete(keyFile(file.ID)); err != nil {
		return err
	}
	if err := txn.Delete(keyOwnerFile(file.OwnerID, file.ID)); err != nil {
		return err
	}
	if file.FolderID != nil {
		if err := txn.Delete(keyChildFile(*file.FolderID, file.ID)); err != nil {
			return err
		}
	}
	for _, share := range file.SharedWith {
		if err := txn.Delete(keyShareFile(share.PrincipalID, file.ID)); err != nil {
			return err
		}
	}
	return nil
}

func sameFolder(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// CreateFile inserts a new file record.
func (s *BadgerStore) CreateFile(ctx context.Context, file *metadata.FileRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(keyFile(file.ID))
		if err == nil {
			return metadata.ErrAlreadyExists
		}
		if err != badger.ErrKeyNotFound {
			return fmt.Errorf("failed to check file existence: %w", err)
		}
		return writeFileTxn(txn, nil, file)
	})
}

// PutFile inserts or replaces a file record by ID.
func (s *BadgerStore) PutFile(ctx context.Context, file *metadata.FileRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		old, err := getFileTxn(txn, file.ID)
		if err != nil && !errors.Is(err, metadata.ErrNotFound) {
			return err
		}
		return writeFileTxn(txn, old, file)
	})
}

// GetFile retrieves a file record by ID.
func (s *BadgerStore) GetFile(ctx context.Context, id string) (*metadata.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var file *metadata.FileRecord
	err := s.db.View(func(txn *badger.Txn) error {
		loaded, err := getFileTxn(txn, id)
		if err != nil {
			return err
		}
		file = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return file, nil
}

// DeleteFile removes a file record by ID. Deleting a missing record is not
// an error.
func (s *BadgerStore) DeleteFile(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		file, err := getFileTxn(txn, id)
		if errors.Is(err, metadata.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return deleteFileTxn(txn, file)
	})
}

// FilesByIDs returns the records for the given ids, skipping missing ones.
func (s *BadgerStore) FilesByIDs(ctx context.Context, ids []string) ([]*metadata.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var files []*metadata.FileRecord
	err := s.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			file, err := getFileTxn(txn, id)
			if errors.Is(err, metadata.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			files = append(files, file)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// ListOwnerFiles returns every file record owned by ownerID, including
// deleted ones.
func (s *BadgerStore) ListOwnerFiles(ctx context.Context, ownerID string) ([]*metadata.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var files []*metadata.FileRecord
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(prefixOwnerFile + ownerID + ":")
		for _, id := range scanIndex(txn, prefix) {
			file, err := getFileTxn(txn, id)
			if errors.Is(err, metadata.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			files = append(files, file)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// ListFilesInFolder returns the files contained in folderID.
func (s *BadgerStore) ListFilesInFolder(ctx context.Context, folderID string, includeDeleted bool) ([]*metadata.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var files []*metadata.FileRecord
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(prefixChildFile + folderID + ":")
		for _, id := range scanIndex(txn, prefix) {
			file, err := getFileTxn(txn, id)
			if errors.Is(err, metadata.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if file.Deleted && !includeDeleted {
				continue
			}
			files = append(files, file)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// ListSharedFiles returns the non-deleted files shared with principalID.
func (s *BadgerStore) ListSharedFiles(ctx context.Context, principalID string) ([]*metadata.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var files []*metadata.FileRecord
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(prefixShareFile + principalID + ":")
		for _, id := range scanIndex(txn, prefix) {
			file, err := getFileTxn(txn, id)
			if errors.Is(err, metadata.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if file.Deleted {
				continue
			}
			files = append(files, file)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// updateOwnedFiles loads the owned subset of ids, applies mutate and writes
// the records back, all within one transaction. Returns the updated count.
func (s *BadgerStore) updateOwnedFiles(ctx context.Context, ownerID string, ids []string, mutate func(*metadata.FileRecord)) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updated := 0
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, id := range ids {
			file, err := getFileTxn(txn, id)
			if errors.Is(err, metadata.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if file.OwnerID != ownerID {
				continue
			}
			old := file.Clone()
			mutate(file)
			if err := writeFileTxn(txn, old, file); err != nil {
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

// SetFilesDeleted bulk-updates the Deleted flag on the owned subset of ids.
func (s *BadgerStore) SetFilesDeleted(ctx context.Context, ownerID string, ids []string, deleted bool) (int, error) {
	return s.updateOwnedFiles(ctx, ownerID, ids, func(file *metadata.FileRecord) {
		file.Deleted = deleted
	})
}

// SetFilesStarred bulk-updates the Starred flag on the owned subset of ids.
func (s *BadgerStore) SetFilesStarred(ctx context.Context, ownerID string, ids []string, starred bool) (int, error) {
	return s.updateOwnedFiles(ctx, ownerID, ids, func(file *metadata.FileRecord) {
		file.Starred = starred
	})
}

// MoveFiles bulk-sets FolderID on the owned subset of ids and abandons the
// path display hint.
func (s *BadgerStore) MoveFiles(ctx context.Context, ownerID string, ids []string, folderID *string) (int, error) {
	return s.updateOwnedFiles(ctx, ownerID, ids, func(file *metadata.FileRecord) {
		if folderID != nil {
			id := *folderID
			file.FolderID = &id
		} else {
			file.FolderID = nil
		}
		file.PathSegments = nil
	})
}

// AllFiles returns every file record in the store.
func (s *BadgerStore) AllFiles(ctx context.Context) ([]*metadata.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var files []*metadata.FileRecord
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixFile)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				file, err := decodeFileRecord(val)
				if err != nil {
					return err
				}
				files = append(files, file)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
