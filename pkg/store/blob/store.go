// Package blob defines the blob store contract used by the drive core.
//
// The blob store holds raw file bytes addressed by opaque ids. It knows
// nothing about records, folders, ownership, or quotas; that is all
// pkg/store/metadata and pkg/drive territory. The two layers are coordinated
// through metadata.BlobID, and drift between them (orphaned blobs, records
// with missing blobs) is reconciled out of band by pkg/gc.
package blob

import (
	"context"
	"io"

	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

// Store provides content storage addressed by opaque blob ids.
//
// Implementations:
//   - memory: map-backed, for tests and development
//   - fs: one file per blob under a base directory
//   - s3: Amazon S3 or any compatible endpoint (MinIO, Localstack)
//
// Thread Safety:
// Implementations must be safe for concurrent use by multiple goroutines.
// Concurrent writes to the same blob id are undefined; the drive core never
// issues them (blob ids are single-writer by construction: generated at Put
// time and never rewritten).
type Store interface {
	// Put stores the bytes read from r under a newly generated id and
	// returns the id together with the number of bytes stored.
	//
	// The write is atomic from the reader's point of view: a blob is either
	// fully stored and resolvable by the returned id, or not stored at all.
	Put(ctx context.Context, r io.Reader) (metadata.BlobID, uint64, error)

	// Open returns a reader over the blob's bytes. The caller must close
	// it.
	//
	// Returns ErrBlobNotFound if no blob has this id.
	Open(ctx context.Context, id metadata.BlobID) (io.ReadCloser, error)

	// Stat returns the stored length of the blob in bytes without reading
	// the data.
	//
	// Returns ErrBlobNotFound if no blob has this id.
	Stat(ctx context.Context, id metadata.BlobID) (uint64, error)

	// Exists reports whether a blob with this id is stored. Non-existence
	// is not an error.
	Exists(ctx context.Context, id metadata.BlobID) (bool, error)

	// Delete removes the blob. Deleting a missing blob succeeds
	// (idempotent), so delete paths tolerate already-reconciled orphans.
	Delete(ctx context.Context, id metadata.BlobID) error

	// List returns the ids of every stored blob. Used by the
	// reconciliation sweep; may be slow on large stores.
	List(ctx context.Context) ([]metadata.BlobID, error)
}
