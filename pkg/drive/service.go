// Package drive implements the DittoDrive core: the folder tree engine,
// access control resolver, batch operation coordinator, and storage
// accounting, layered over a metadata store and a blob store.
//
// The core is transport-agnostic. Every operation takes a caller principal id
// that an external collaborator has already authenticated; the embedding
// transport maps DriveError codes to its own wire format.
//
// Coordination model: a logical operation may span a blob write, a metadata
// write, and an accounting update, executed as separate non-atomic steps.
// There is no cross-store transaction; upload uses a compensating delete when
// registration fails, and remaining drift is reconciled out of band by
// pkg/gc.
package drive

import (
	"github.com/marmos91/dittodrive/pkg/store/blob"
	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

const (
	// defaultQuotaBytes is the per-user storage ceiling used when the
	// account carries no override (10 GiB).
	defaultQuotaBytes = 10 * 1024 * 1024 * 1024

	// defaultMaxTreeDepth bounds every tree walk (breadcrumb climbs,
	// subtree copy/delete/download). Personal-drive hierarchies are
	// shallow; hitting this indicates a pathological or corrupted tree.
	defaultMaxTreeDepth = 128

	// defaultMaxTreeNodes bounds the number of records a single subtree
	// operation may visit.
	defaultMaxTreeNodes = 100_000
)

// Service is the drive core. All dependencies are injected at construction;
// the core holds no globals and no in-process caches shared across requests.
type Service struct {
	meta  metadata.Store
	blobs blob.Store

	quotaBytes   uint64
	maxTreeDepth int
	maxTreeNodes int
}

// Options tunes service limits. Zero values select the defaults.
type Options struct {
	// DefaultQuotaBytes is the storage ceiling applied to accounts without
	// a per-account override.
	DefaultQuotaBytes uint64

	// MaxTreeDepth bounds ancestor climbs and subtree recursion depth.
	MaxTreeDepth int

	// MaxTreeNodes bounds the records visited by one subtree operation.
	MaxTreeNodes int
}

// NewService creates a drive core over the given stores.
func NewService(meta metadata.Store, blobs blob.Store, opts Options) *Service {
	if opts.DefaultQuotaBytes == 0 {
		opts.DefaultQuotaBytes = defaultQuotaBytes
	}
	if opts.MaxTreeDepth == 0 {
		opts.MaxTreeDepth = defaultMaxTreeDepth
	}
	if opts.MaxTreeNodes == 0 {
		opts.MaxTreeNodes = defaultMaxTreeNodes
	}

	return &Service{
		meta:         meta,
		blobs:        blobs,
		quotaBytes:   opts.DefaultQuotaBytes,
		maxTreeDepth: opts.MaxTreeDepth,
		maxTreeNodes: opts.MaxTreeNodes,
	}
}
