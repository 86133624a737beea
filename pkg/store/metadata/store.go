package metadata

import (
	"context"
)

// ============================================================================
// Store Interface
// ============================================================================

// Store provides transport-agnostic metadata management for the drive core.
//
// The store persists two document collections (files and folders) plus
// per-owner storage accounts. It is deliberately dumb: it offers document CRUD
// with a handful of indexed lookups and ownership-scoped bulk updates, and it
// knows nothing about capabilities, tree invariants, or blob coordination.
// Those live in pkg/drive.
//
// Separation of Concerns:
//
// The metadata store manages drive structure and metadata (records, share
// lists, flags, usage counters) but does NOT manage file content. Content is
// stored separately in a blob store (pkg/store/blob) and referenced through
// BlobID.
//
// This separation allows:
//   - Independent scaling of metadata and content storage
//   - Flexible content backends (memory, local disk, S3)
//   - Out-of-band reconciliation of metadata/blob drift (pkg/gc)
//
// Result Ownership:
// All read operations return deep copies. Callers may mutate returned records
// freely; changes become visible only through a Put or bulk update.
//
// Bulk Updates:
// SetFilesDeleted, SetFilesStarred, MoveFiles and the folder equivalents apply
// one logical update scoped by id-set AND ownership: records in the id list
// that are missing or owned by someone else are silently skipped, and the
// returned count reflects only the records actually updated.
//
// Thread Safety:
// Implementations must be safe for concurrent use by multiple goroutines.
// There is no cross-operation transaction support; last-write-wins is the
// concurrency control at this layer.
type Store interface {
	// ========================================================================
	// Files
	// ========================================================================

	// CreateFile inserts a new file record.
	//
	// Returns ErrAlreadyExists if a record with the same ID is present.
	CreateFile(ctx context.Context, file *FileRecord) error

	// PutFile inserts or replaces a file record by ID.
	PutFile(ctx context.Context, file *FileRecord) error

	// GetFile retrieves a file record by ID.
	//
	// Returns ErrNotFound if no record exists.
	GetFile(ctx context.Context, id string) (*FileRecord, error)

	// DeleteFile removes a file record by ID.
	//
	// Deleting a missing record is not an error (idempotent). This removes
	// metadata only; the caller coordinates blob deletion and accounting.
	DeleteFile(ctx context.Context, id string) error

	// FilesByIDs returns the records for the given ids, skipping missing
	// ones. Order follows the input ids.
	FilesByIDs(ctx context.Context, ids []string) ([]*FileRecord, error)

	// ListOwnerFiles returns every file record owned by ownerID, including
	// deleted ones. Callers filter by folder membership and flags.
	ListOwnerFiles(ctx context.Context, ownerID string) ([]*FileRecord, error)

	// ListFilesInFolder returns the files whose FolderID equals folderID,
	// regardless of owner. Deleted records are excluded unless
	// includeDeleted is set.
	ListFilesInFolder(ctx context.Context, folderID string, includeDeleted bool) ([]*FileRecord, error)

	// ListSharedFiles returns the files whose share list includes
	// principalID, excluding deleted records.
	ListSharedFiles(ctx context.Context, principalID string) ([]*FileRecord, error)

	// SetFilesDeleted bulk-updates the Deleted flag on the owned subset of
	// ids. Returns the number of records updated.
	SetFilesDeleted(ctx context.Context, ownerID string, ids []string, deleted bool) (int, error)

	// SetFilesStarred bulk-updates the Starred flag on the owned subset of
	// ids. Returns the number of records updated.
	SetFilesStarred(ctx context.Context, ownerID string, ids []string, starred bool) (int, error)

	// MoveFiles bulk-sets FolderID (nil = root) on the owned subset of ids
	// and clears the PathSegments display hint. Returns the number of
	// records updated.
	MoveFiles(ctx context.Context, ownerID string, ids []string, folderID *string) (int, error)

	// AllFiles returns every file record in the store. Used by the
	// reconciliation sweep; may be slow on large stores.
	AllFiles(ctx context.Context) ([]*FileRecord, error)

	// ========================================================================
	// Folders
	// ========================================================================

	// CreateFolder inserts a new folder record.
	//
	// Returns ErrAlreadyExists if a record with the same ID is present, and
	// ErrDuplicatePublicID if the record carries a PublicID already assigned
	// to another folder.
	CreateFolder(ctx context.Context, folder *FolderRecord) error

	// PutFolder inserts or replaces a folder record by ID.
	PutFolder(ctx context.Context, folder *FolderRecord) error

	// GetFolder retrieves a folder record by internal ID.
	//
	// Returns ErrNotFound if no record exists.
	GetFolder(ctx context.Context, id string) (*FolderRecord, error)

	// GetFolderByPublicID retrieves a folder record by its public id.
	//
	// Returns ErrNotFound if no record carries this public id.
	GetFolderByPublicID(ctx context.Context, publicID string) (*FolderRecord, error)

	// EnsureFolderPublicID assigns publicID to the folder if and only if it
	// does not have one yet, atomically with respect to concurrent calls.
	// The (possibly updated) record is returned either way, so concurrent
	// resolutions of a legacy record settle on a single backfilled id.
	//
	// Returns ErrNotFound if the folder does not exist.
	EnsureFolderPublicID(ctx context.Context, id string, publicID string) (*FolderRecord, error)

	// DeleteFolder removes a folder record by ID. Idempotent. The caller is
	// responsible for the subtree; this removes the single record.
	DeleteFolder(ctx context.Context, id string) error

	// FoldersByIDs returns the records for the given ids, skipping missing
	// ones. Order follows the input ids.
	FoldersByIDs(ctx context.Context, ids []string) ([]*FolderRecord, error)

	// ListOwnerFolders returns every folder record owned by ownerID,
	// including deleted ones.
	ListOwnerFolders(ctx context.Context, ownerID string) ([]*FolderRecord, error)

	// ListFoldersInFolder returns the folders whose ParentID equals
	// parentID, regardless of owner. Deleted records are excluded unless
	// includeDeleted is set.
	ListFoldersInFolder(ctx context.Context, parentID string, includeDeleted bool) ([]*FolderRecord, error)

	// ListSharedFolders returns the folders whose share list includes
	// principalID, excluding deleted records.
	ListSharedFolders(ctx context.Context, principalID string) ([]*FolderRecord, error)

	// SetFoldersDeleted bulk-updates the Deleted flag and Location on the
	// owned subset of ids (TRASH when deleting, MY_DRIVE when restoring).
	// Returns the number of records updated.
	SetFoldersDeleted(ctx context.Context, ownerID string, ids []string, deleted bool) (int, error)

	// SetFoldersStarred bulk-updates the Starred flag on the owned subset
	// of ids. Returns the number of records updated.
	SetFoldersStarred(ctx context.Context, ownerID string, ids []string, starred bool) (int, error)

	// ========================================================================
	// Storage Accounts
	// ========================================================================

	// GetAccount returns the storage account for ownerID. If none is
	// stored a zero-value account (usage 0, limit 0 = service default) is
	// returned rather than ErrNotFound.
	GetAccount(ctx context.Context, ownerID string) (*Account, error)

	// PutAccount inserts or replaces an account by owner id.
	PutAccount(ctx context.Context, account *Account) error

	// AdjustUsage atomically adds delta (which may be negative) to the
	// owner's StorageUsed counter, clamping at zero, creating the account
	// if needed. Returns the new counter value.
	AdjustUsage(ctx context.Context, ownerID string, delta int64) (uint64, error)

	// ========================================================================
	// Lifecycle
	// ========================================================================

	// Healthcheck verifies the store can serve requests. Implementations
	// with external dependencies should verify connectivity; in-memory
	// stores typically return nil.
	Healthcheck(ctx context.Context) error

	// Close releases the store's resources. The store must not be used
	// afterwards.
	Close() error
}
