// Package memory implements an in-memory metadata store for DittoDrive.
//
// The store is backed by plain maps behind a single read-write mutex. It is
// the reference implementation of the metadata.Store contract and the store
// used by tests and development setups; production deployments use the
// BadgerDB store in pkg/store/metadata/badger.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

// MemoryStore implements metadata.Store using in-memory maps.
//
// Thread Safety:
// All operations are protected by a single read-write mutex. This
// coarse-grained locking is simple and correct; the expected scale of a
// single-process drive core does not warrant finer granularity.
//
// Storage Model:
//   - files:    file id → FileRecord
//   - folders:  folder id → FolderRecord
//   - publicIDs: folder public id → folder id (secondary index)
//   - accounts: owner id → Account
//
// All reads return deep copies so callers can never alias internal state.
type MemoryStore struct {
	mu sync.RWMutex

	files     map[string]*metadata.FileRecord
	folders   map[string]*metadata.FolderRecord
	publicIDs map[string]string
	accounts  map[string]*metadata.Account
}

// NewMemoryStore creates an empty in-memory metadata store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		files:     make(map[string]*metadata.FileRecord),
		folders:   make(map[string]*metadata.FolderRecord),
		publicIDs: make(map[string]string),
		accounts:  make(map[string]*metadata.Account),
	}
}

// Healthcheck implements metadata.Store. The memory store has no external
// dependencies, so only context cancellation can fail it.
func (s *MemoryStore) Healthcheck(ctx context.Context) error {
	return ctx.Err()
}

// Close implements metadata.Store. Nothing to release.
func (s *MemoryStore) Close() error {
	return nil
}

// touchAccount returns the account for ownerID, creating it in place if
// missing. Caller must hold the write lock.
func (s *MemoryStore) touchAccount(ownerID string) *metadata.Account {
	account, ok := s.accounts[ownerID]
	if !ok {
		account = &metadata.Account{OwnerID: ownerID}
		s.accounts[ownerID] = account
	}
	return account
}

// GetAccount implements metadata.Store.
func (s *MemoryStore) GetAccount(ctx context.Context, ownerID string) (*metadata.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if account, ok := s.accounts[ownerID]; ok {
		dup := *account
		return &dup, nil
	}
	return &metadata.Account{OwnerID: ownerID}, nil
}

// PutAccount implements metadata.Store.
func (s *MemoryStore) PutAccount(ctx context.Context, account *metadata.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dup := *account
	s.accounts[account.OwnerID] = &dup
	return nil
}

// AdjustUsage implements metadata.Store. The counter is clamped at zero on
// subtraction so accounting drift can never drive it negative.
func (s *MemoryStore) AdjustUsage(ctx context.Context, ownerID string, delta int64) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account := s.touchAccount(ownerID)
	if delta >= 0 {
		account.StorageUsed += uint64(delta)
	} else {
		sub := uint64(-delta)
		if sub >= account.StorageUsed {
			account.StorageUsed = 0
		} else {
			account.StorageUsed -= sub
		}
	}
	account.UpdatedAt = time.Now()
	return account.StorageUsed, nil
}
