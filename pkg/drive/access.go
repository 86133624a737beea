package drive

import (
	"reflect"

	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

// Capability checks are pure functions of (entity, principal) and are
// evaluated fresh on every operation, with no caching. A nil entity fails closed.

// CanRead reports whether the principal may read the entity: true for the
// owner and for any principal in the share list, whatever the grant level.
func CanRead(entity metadata.Protected, principalID string) bool {
	if isNilEntity(entity) {
		return false
	}
	return entity.AccessFor(principalID).CanRead()
}

// CanWrite reports whether the principal may mutate the entity: true for the
// owner and for share entries carrying write permission (files) or the edit
// capability (folders). CanWrite implies CanRead by construction.
func CanWrite(entity metadata.Protected, principalID string) bool {
	if isNilEntity(entity) {
		return false
	}
	return entity.AccessFor(principalID).CanWrite()
}

// isNilEntity catches both nil interfaces and typed nil record pointers so a
// failed lookup can never grant access.
func isNilEntity(entity metadata.Protected) bool {
	if entity == nil {
		return true
	}
	v := reflect.ValueOf(entity)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// requireRead enforces read capability, conflating "absent" and "not visible"
// into CodeNotFound so existence is never leaked.
func requireRead(entity metadata.Protected, principalID, path string) error {
	if !CanRead(entity, principalID) {
		return notFound("not found", path)
	}
	return nil
}

// requireWrite enforces write capability. A caller who can read but not
// write gets CodeForbidden; a caller who cannot even read gets CodeNotFound.
func requireWrite(entity metadata.Protected, principalID, path string) error {
	if !CanRead(entity, principalID) {
		return notFound("not found", path)
	}
	if !CanWrite(entity, principalID) {
		return forbidden("write capability required", path)
	}
	return nil
}
