package metadata

import "errors"

// ============================================================================
// Standard Metadata Store Errors
// ============================================================================

// These errors provide a consistent way to indicate common failure conditions
// across all metadata store implementations. The drive core checks for them
// with errors.Is and maps them to its own error taxonomy.
//
// Implementations should wrap these errors with additional context:
//
//	if !exists {
//	    return fmt.Errorf("folder %s: %w", id, metadata.ErrNotFound)
//	}

var (
	// ErrNotFound indicates the requested record does not exist.
	//
	// Returned by Get*/Delete*/EnsureFolderPublicID when the id (or public
	// id) resolves to nothing, and by AdjustUsage for unknown accounts only
	// when the implementation does not auto-create them.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyExists indicates a record with this id is already stored.
	//
	// Returned by Put* operations with explicit "must not exist" semantics
	// (create paths). Plain updates overwrite and do NOT return this.
	ErrAlreadyExists = errors.New("record already exists")

	// ErrDuplicatePublicID indicates the public id is already assigned to a
	// different folder. Public ids are unique across all folders.
	ErrDuplicatePublicID = errors.New("public id already in use")
)
