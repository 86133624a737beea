package metadata

import (
	"time"
)

// BlobID is an identifier for retrieving file bytes from the blob store.
//
// This is an opaque identifier used to coordinate between the metadata store
// and the blob store. Every FileRecord owns exactly one BlobID; the record and
// the blob must be created and removed in lockstep. A record whose blob is
// missing (or a blob with no record) is an orphan, detected by the
// reconciliation sweep in pkg/gc.
type BlobID string

// Location classifies where a folder currently lives in the user-visible
// drive. It is kept consistent with the Deleted flag by every mutator but is
// informational, not independently authoritative.
type Location string

const (
	// LocationMyDrive is the default location for active folders.
	LocationMyDrive Location = "MY_DRIVE"

	// LocationTrash marks soft-deleted folders.
	LocationTrash Location = "TRASH"

	// LocationShared marks folders surfaced through a share rather than
	// ownership.
	LocationShared Location = "SHARED"
)

// Permission is the capability granted by a file share entry.
type Permission string

const (
	// PermissionRead grants read-only access to a shared file.
	PermissionRead Permission = "read"

	// PermissionWrite grants read and write access to a shared file.
	PermissionWrite Permission = "write"
)

// Valid reports whether p is one of the known permission values.
func (p Permission) Valid() bool {
	return p == PermissionRead || p == PermissionWrite
}

// FileShare grants a principal access to a single file.
//
// A file's SharedWith list holds at most one entry per principal; re-sharing
// with the same principal replaces the entry rather than duplicating it.
type FileShare struct {
	// PrincipalID is the user the file is shared with. Never the owner.
	PrincipalID string `json:"principal_id"`

	// Permission is "read" or "write". Write implies read.
	Permission Permission `json:"permission"`
}

// FolderShare grants a principal access to a folder.
//
// Folders use a boolean edit capability rather than the file permission enum.
type FolderShare struct {
	// PrincipalID is the user the folder is shared with. Never the owner.
	PrincipalID string `json:"principal_id"`

	// CanEdit grants write access when true; read-only otherwise.
	CanEdit bool `json:"can_edit"`
}

// FileRecord is the metadata document for a single stored file.
//
// The record references its bytes through BlobID and its position in the
// folder tree through FolderID (nil = root of the owner's drive). SizeBytes
// mirrors the blob's stored length at upload time and is not re-derived on
// reads.
//
// PathSegments is a display-only breadcrumb hint. The folder tree is the
// source of truth; the hint may be empty or stale (it is abandoned, not
// recomputed, when a file is bulk-moved).
type FileRecord struct {
	// ID uniquely identifies this record.
	ID string `json:"id"`

	// BlobID references the file bytes in the blob store.
	// Exclusively owned by this record.
	BlobID BlobID `json:"blob_id"`

	// DisplayName is the user-visible name, independently renameable.
	DisplayName string `json:"display_name"`

	// OriginalName is the name the file was uploaded with.
	OriginalName string `json:"original_name"`

	// OwnerID is the owning principal. Ownership never transfers.
	OwnerID string `json:"owner_id"`

	// SizeBytes is the blob length recorded at upload time.
	SizeBytes uint64 `json:"size_bytes"`

	// MimeType is the declared content type (free-form).
	MimeType string `json:"mime_type"`

	// FolderID is the containing folder, nil for the owner's root.
	// If set it must reference a folder with the same OwnerID; enforcement
	// is advisory.
	FolderID *string `json:"folder_id,omitempty"`

	// PathSegments is an informational breadcrumb cache.
	PathSegments []string `json:"path_segments,omitempty"`

	// Starred and Deleted are independently togglable flags.
	Starred bool `json:"starred"`
	Deleted bool `json:"deleted"`

	// Description is free-form user text, default empty.
	Description string `json:"description"`

	// SharedWith lists share grants, at most one per principal.
	SharedWith []FileShare `json:"shared_with,omitempty"`

	// CreatedAt is the registration time.
	CreatedAt time.Time `json:"created_at"`

	// LastAccessedAt updates on download/open.
	LastAccessedAt time.Time `json:"last_accessed_at"`
}

// FolderRecord is the metadata document for a folder in the tree.
//
// Folders form an acyclic tree through ParentID (nil = root). Path is a
// slash-joined cache of ancestor names, recomputed by every mutator that
// changes Name or ParentID; it is trusted by buildPath and so must be kept in
// sync on structural change.
type FolderRecord struct {
	// ID uniquely identifies this record.
	ID string `json:"id"`

	// PublicID is a second, stable externally-shareable identifier.
	// Unique across all folders, assigned once, immutable thereafter.
	// Legacy records may lack one; it is backfilled lazily on first
	// resolution (see Store.EnsureFolderPublicID).
	PublicID string `json:"public_id,omitempty"`

	// Name is the folder name.
	Name string `json:"name"`

	// OwnerID is the owning principal.
	OwnerID string `json:"owner_id"`

	// ParentID is the parent folder, nil for the owner's root.
	// The chain must be acyclic; move operations actively check this.
	ParentID *string `json:"parent_id,omitempty"`

	// Deleted and Starred are independently togglable flags.
	Deleted bool `json:"deleted"`
	Starred bool `json:"starred"`

	// Location classifies the folder; kept in lockstep with Deleted.
	Location Location `json:"location"`

	// Description is free-form user text.
	Description string `json:"description"`

	// Path is the slash-joined ancestor-name cache (e.g. "/Reports/2024").
	Path string `json:"path"`

	// SharedWith lists share grants, at most one per principal.
	SharedWith []FolderShare `json:"shared_with,omitempty"`

	// CreatedAt and UpdatedAt are maintained by the store callers.
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Account tracks aggregate storage consumption for one owner.
//
// StorageUsed is a cached counter adjusted as blobs are added and removed; it
// is advisory (quota admission checks it without re-validating against actual
// blob-store occupancy) and never goes negative.
type Account struct {
	// OwnerID is the principal this account belongs to.
	OwnerID string `json:"owner_id"`

	// StorageUsed is the aggregate bytes consumed, clamped at zero.
	StorageUsed uint64 `json:"storage_used"`

	// StorageLimit is the quota ceiling in bytes. Zero means "use the
	// service default".
	StorageLimit uint64 `json:"storage_limit"`

	// UpdatedAt is the time of the last counter adjustment.
	UpdatedAt time.Time `json:"updated_at"`
}

// Access is the capability bitmap a principal holds on a record.
type Access uint8

const (
	// AccessNone grants nothing (also the fail-closed value).
	AccessNone Access = 0

	// AccessRead permits reading metadata and content.
	AccessRead Access = 1 << 0

	// AccessWrite permits mutation. Write always implies read.
	AccessWrite Access = 1 << 1
)

// CanRead reports whether the bitmap includes read capability.
func (a Access) CanRead() bool { return a&AccessRead != 0 }

// CanWrite reports whether the bitmap includes write capability.
func (a Access) CanWrite() bool { return a&AccessWrite != 0 }

// Protected is implemented by record types that carry ownership and share
// grants. It is the capability surface the access resolver in pkg/drive
// evaluates; both record kinds implement it so callers never need to switch
// on the concrete type.
type Protected interface {
	// Owner returns the owning principal id.
	Owner() string

	// AccessFor returns the capability bitmap granted to the principal,
	// derived from ownership and the share list.
	AccessFor(principalID string) Access
}

// Owner implements Protected.
func (f *FileRecord) Owner() string { return f.OwnerID }

// AccessFor implements Protected. The owner holds read and write; a shared
// principal holds read, plus write when the share permission is "write".
func (f *FileRecord) AccessFor(principalID string) Access {
	if principalID == "" {
		return AccessNone
	}
	if f.OwnerID == principalID {
		return AccessRead | AccessWrite
	}
	for _, share := range f.SharedWith {
		if share.PrincipalID != principalID {
			continue
		}
		if share.Permission == PermissionWrite {
			return AccessRead | AccessWrite
		}
		return AccessRead
	}
	return AccessNone
}

// ShareFor returns the share entry for the principal, if any.
func (f *FileRecord) ShareFor(principalID string) (FileShare, bool) {
	for _, share := range f.SharedWith {
		if share.PrincipalID == principalID {
			return share, true
		}
	}
	return FileShare{}, false
}

// Owner implements Protected.
func (f *FolderRecord) Owner() string { return f.OwnerID }

// AccessFor implements Protected. The owner holds read and write; a shared
// principal holds read, plus write when the share grants edit.
func (f *FolderRecord) AccessFor(principalID string) Access {
	if principalID == "" {
		return AccessNone
	}
	if f.OwnerID == principalID {
		return AccessRead | AccessWrite
	}
	for _, share := range f.SharedWith {
		if share.PrincipalID != principalID {
			continue
		}
		if share.CanEdit {
			return AccessRead | AccessWrite
		}
		return AccessRead
	}
	return AccessNone
}

// ShareFor returns the share entry for the principal, if any.
func (f *FolderRecord) ShareFor(principalID string) (FolderShare, bool) {
	for _, share := range f.SharedWith {
		if share.PrincipalID == principalID {
			return share, true
		}
	}
	return FolderShare{}, false
}

// Clone returns a deep copy of the record. Stores return clones so callers
// can mutate results without racing the store's internal state.
func (f *FileRecord) Clone() *FileRecord {
	dup := *f
	if f.FolderID != nil {
		id := *f.FolderID
		dup.FolderID = &id
	}
	if f.PathSegments != nil {
		dup.PathSegments = append([]string(nil), f.PathSegments...)
	}
	if f.SharedWith != nil {
		dup.SharedWith = append([]FileShare(nil), f.SharedWith...)
	}
	return &dup
}

// Clone returns a deep copy of the record.
func (f *FolderRecord) Clone() *FolderRecord {
	dup := *f
	if f.ParentID != nil {
		id := *f.ParentID
		dup.ParentID = &id
	}
	if f.SharedWith != nil {
		dup.SharedWith = append([]FolderShare(nil), f.SharedWith...)
	}
	return &dup
}
