package drive

import "errors"

// DriveError represents a domain error from drive core operations.
//
// These are business logic errors (record not found, capability missing,
// quota breached) as opposed to infrastructure errors (store I/O failures),
// which are wrapped under CodeInternal.
//
// The embedding transport translates Code to its own status values; the core
// never deals in HTTP status codes.
type DriveError struct {
	// Code is the error category.
	Code ErrorCode

	// Message is a human-readable error description.
	Message string

	// Path is the drive path or record id related to the error, when known.
	Path string
}

// Error implements the error interface.
func (e *DriveError) Error() string {
	if e.Path != "" {
		return e.Message + ": " + e.Path
	}
	return e.Message
}

// ErrorCode represents the category of a drive error.
type ErrorCode int

const (
	// CodeInvalidInput indicates a missing or malformed required field
	// (empty folder name, unknown permission value, empty batch selection).
	CodeInvalidInput ErrorCode = iota

	// CodeNotFound indicates the entity is absent OR the caller lacks even
	// read visibility. The two are intentionally conflated so existence is
	// not leaked to principals without read capability.
	CodeNotFound

	// CodeForbidden indicates the entity is visible to the caller but the
	// capability is insufficient (read granted, write required).
	CodeForbidden

	// CodeParentNotFound indicates a referenced parent or destination
	// folder is absent.
	CodeParentNotFound

	// CodeQuotaExceeded indicates the storage ceiling would be breached.
	CodeQuotaExceeded

	// CodeBlobMissing indicates metadata references a blob the store no
	// longer has. A data-integrity condition, not a user error; the
	// reconciliation sweep in pkg/gc reports these.
	CodeBlobMissing

	// CodeTreeTooDeep indicates a tree walk exceeded the configured depth
	// or node budget. Guards against pathological hierarchies.
	CodeTreeTooDeep

	// CodeInternal indicates an unexpected failure in a storage layer.
	CodeInternal
)

// String returns the symbolic name of the code.
func (c ErrorCode) String() string {
	switch c {
	case CodeInvalidInput:
		return "INVALID_INPUT"
	case CodeNotFound:
		return "NOT_FOUND"
	case CodeForbidden:
		return "FORBIDDEN"
	case CodeParentNotFound:
		return "PARENT_NOT_FOUND"
	case CodeQuotaExceeded:
		return "QUOTA_EXCEEDED"
	case CodeBlobMissing:
		return "BLOB_MISSING"
	case CodeTreeTooDeep:
		return "TREE_TOO_DEEP"
	case CodeInternal:
		return "SERVER_ERROR"
	default:
		return "UNKNOWN"
	}
}

// IsCode reports whether err is (or wraps) a DriveError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var driveErr *DriveError
	if errors.As(err, &driveErr) {
		return driveErr.Code == code
	}
	return false
}

func invalidInput(message string) *DriveError {
	return &DriveError{Code: CodeInvalidInput, Message: message}
}

func notFound(message, path string) *DriveError {
	return &DriveError{Code: CodeNotFound, Message: message, Path: path}
}

func forbidden(message, path string) *DriveError {
	return &DriveError{Code: CodeForbidden, Message: message, Path: path}
}

func parentNotFound(path string) *DriveError {
	return &DriveError{Code: CodeParentNotFound, Message: "parent folder not found", Path: path}
}

func quotaExceeded(message string) *DriveError {
	return &DriveError{Code: CodeQuotaExceeded, Message: message}
}

func blobMissing(path string) *DriveError {
	return &DriveError{Code: CodeBlobMissing, Message: "referenced blob is missing", Path: path}
}

func treeTooDeep(path string) *DriveError {
	return &DriveError{Code: CodeTreeTooDeep, Message: "folder tree exceeds traversal limits", Path: path}
}

func internal(message string, err error) *DriveError {
	if err != nil {
		message = message + ": " + err.Error()
	}
	return &DriveError{Code: CodeInternal, Message: message}
}
