package badger

import (
	"context"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

// getAccountTxn loads one account inside a transaction, returning a
// zero-value account when none is stored.
func getAccountTxn(txn *badger.Txn, ownerID string) (*metadata.Account, error) {
	item, err := txn.Get(keyAccount(ownerID))
	if err == badger.ErrKeyNotFound {
		return &metadata.Account{OwnerID: ownerID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	var account *metadata.Account
	err = item.Value(func(val []byte) error {
		decoded, err := decodeAccount(val)
		if err != nil {
			return err
		}
		account = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// GetAccount returns the storage account for ownerID, zero-valued when no
// account is stored yet.
func (s *BadgerStore) GetAccount(ctx context.Context, ownerID string) (*metadata.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var account *metadata.Account
	err := s.db.View(func(txn *badger.Txn) error {
		loaded, err := getAccountTxn(txn, ownerID)
		if err != nil {
			return err
		}
		account = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// PutAccount inserts or replaces an account by owner id.
func (s *BadgerStore) PutAccount(ctx context.Context, account *metadata.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		bytes, err := encodeAccount(account)
		if err != nil {
			return err
		}
		return txn.Set(keyAccount(account.OwnerID), bytes)
	})
}

// AdjustUsage atomically adds delta to the owner's usage counter, clamping
// at zero and creating the account on first touch.
func (s *BadgerStore) AdjustUsage(ctx context.Context, ownerID string, delta int64) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var usage uint64
	err := s.db.Update(func(txn *badger.Txn) error {
		account, err := getAccountTxn(txn, ownerID)
		if err != nil {
			return err
		}

		if delta >= 0 {
			account.StorageUsed += uint64(delta)
		} else {
			decrease := uint64(-delta)
			if decrease > account.StorageUsed {
				account.StorageUsed = 0
			} else {
				account.StorageUsed -= decrease
			}
		}
		account.UpdatedAt = time.Now()

		bytes, err := encodeAccount(account)
		if err != nil {
			return err
		}
		if err := txn.Set(keyAccount(ownerID), bytes); err != nil {
			return err
		}
		usage = account.StorageUsed
		return nil
	})
	if err != nil {
		return 0, err
	}
	return usage, nil
}
