package blob

import "errors"

// ErrBlobNotFound indicates the requested blob does not exist.
//
// Returned by Open and Stat when the id resolves to nothing. The drive core
// surfaces this to callers as a data-integrity condition (a record whose blob
// is gone), not as a user error.
//
// Implementations wrap it with context:
//
//	return fmt.Errorf("blob %s: %w", id, blob.ErrBlobNotFound)
var ErrBlobNotFound = errors.New("blob not found")
