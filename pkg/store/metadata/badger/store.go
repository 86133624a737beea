package badger

import (
	"context"
	"fmt"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

// BadgerStore implements metadata.Store using BadgerDB for persistence.
//
// This implementation provides a persistent metadata store backed by
// BadgerDB, a fast embedded key-value store. It is suitable for:
//   - Production deployments requiring persistence across restarts
//   - Single-node installations without an external database
//   - Multi-GB metadata working sets
//
// Storage Model:
// The store uses namespaced key prefixes to organize record collections and
// their secondary indexes (see keys.go for the schema). Every record
// mutation runs inside one BadgerDB transaction that rewrites both the
// record and any index entries whose indexed fields changed, so the indexes
// never drift from the records they point at.
//
// Thread Safety:
// BadgerDB transactions provide isolation on their own; the additional mutex
// serializes multi-key read-modify-write operations (bulk updates, usage
// adjustments, public id backfill) so they behave atomically toward each
// other without transaction retry loops.
type BadgerStore struct {
	// mu serializes read-modify-write operations.
	mu sync.RWMutex

	// db is the BadgerDB database handle.
	db *badger.DB
}

// Config contains configuration for creating a BadgerDB metadata store.
type Config struct {
	// DBPath is the directory where BadgerDB stores its files. BadgerDB
	// creates multiple files in this directory (value log, LSM tree).
	DBPath string

	// BadgerOptions allows customization of BadgerDB behavior.
	// If nil, defaults tuned for small-document metadata workloads are used.
	BadgerOptions *badger.Options

	// BlockCacheSizeMB is BadgerDB's block cache size in MB (default: 128).
	BlockCacheSizeMB int64
}

// NewBadgerStore opens (or creates) a BadgerDB-backed store at the
// configured path. The returned store is immediately ready for use and safe
// for concurrent access from multiple goroutines.
func NewBadgerStore(ctx context.Context, config Config) (*BadgerStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var opts badger.Options
	if config.BadgerOptions != nil {
		opts = *config.BadgerOptions
	} else {
		opts = badger.DefaultOptions(config.DBPath)
		opts = opts.WithLoggingLevel(badger.WARNING)
		// Records are small JSON documents; compression overhead is not
		// worth it at this size.
		opts = opts.WithCompression(options.None)

		blockCacheMB := config.BlockCacheSizeMB
		if blockCacheMB == 0 {
			blockCacheMB = 128
		}
		opts = opts.WithBlockCacheSize(blockCacheMB << 20)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", config.DBPath, err)
	}

	return &BadgerStore{db: db}, nil
}

// Healthcheck verifies the database can serve a read.
func (s *BadgerStore) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte("healthcheck"))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	})
}

// Close closes the BadgerDB database and releases all resources. The close
// waits for pending transactions and flushes data to disk; the store must
// not be used afterwards.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close BadgerDB: %w", err)
	}
	return nil
}

// scanIndex collects the record ids referenced by every index entry under
// scanPrefix. Index entries are keys only, so the iterator skips value
// prefetch entirely.
func scanIndex(txn *badger.Txn, scanPrefix []byte) []string {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = scanPrefix

	it := txn.NewIterator(opts)
	defer it.Close()

	var ids []string
	for it.Rewind(); it.Valid(); it.Next() {
		ids = append(ids, indexSuffix(it.Item().KeyCopy(nil), scanPrefix))
	}
	return ids
}

// getFolderTxn loads and decodes one folder record inside a transaction.
func getFolderTxn(txn *badger.Txn, id string) (*metadata.FolderRecord, error) {
	item, err := txn.Get(keyFolder(id))
	if err == badger.ErrKeyNotFound {
		return nil, metadata.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get folder: %w", err)
	}

	var folder *metadata.FolderRecord
	err = item.Value(func(val []byte) error {
		decoded, err := decodeFolderRecord(val)
		if err != nil {
			return err
		}
		folder = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return folder, nil
}

// getFileTxn loads and decodes one file record inside a transaction.
func getFileTxn(txn *badger.Txn, id string) (*metadata.FileRecord, error) {
	item, err := txn.Get(keyFile(id))
	if err == badger.ErrKeyNotFound {
		return nil, metadata.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}

	var file *metadata.FileRecord
	err = item.Value(func(val []byte) error {
		decoded, err := decodeFileRecord(val)
		if err != nil {
			return err
		}
		file = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return file, nil
}
