package badger

// Database Key Namespace Design
// ==============================
//
// BadgerDB is a key-value store, so we use prefixed keys to organize the
// drive's collections into logical namespaces. This design:
//   - Prevents key collisions between different data types
//   - Enables efficient range scans (owner listings, folder children)
//   - Makes the database structure self-documenting
//
// Records are identified by UUID strings assigned at creation time. Index
// entries carry no payload of their own (or only the target id): the record
// keys are the single source of truth, and every index is rebuilt entry by
// entry whenever a record mutation changes the indexed field.
//
// Key Namespace Prefixes:
//
// Data Type             Prefix   Key Format                    Value
// =========================================================================
// File Records          "f:"     f:<fileID>                    FileRecord (JSON)
// Folder Records        "d:"     d:<folderID>                  FolderRecord (JSON)
// Public ID Index       "dp:"    dp:<publicID>                 folderID (bytes)
// File Owner Index      "of:"    of:<ownerID>:<fileID>         (empty)
// Folder Owner Index    "od:"    od:<ownerID>:<folderID>       (empty)
// Folder Children (f)   "cf:"    cf:<folderID>:<fileID>        (empty)
// Folder Children (d)   "cd:"    cd:<parentID>:<folderID>      (empty)
// File Share Index      "sf:"    sf:<principalID>:<fileID>     (empty)
// Folder Share Index    "sd:"    sd:<principalID>:<folderID>   (empty)
// Storage Accounts      "a:"     a:<ownerID>                   Account (JSON)
//
// Index Rationale:
//
// 1. Owner indexes (of:/od:) back the per-owner listings and the
//    ownership-scoped bulk updates. One entry per record, range scan by
//    "of:<ownerID>:".
//
// 2. Children indexes (cf:/cd:) back folder listings. Root-level records
//    (nil parent) have no entry here; root listings go through the owner
//    index instead, filtered to nil parents.
//
// 3. Share indexes (sf:/sd:) carry one entry per (principal, record) pair
//    mirroring the record's share list, backing the shared-with-me views.
//
// 4. The public id index (dp:) maps the externally shareable folder id back
//    to the internal id. Uniqueness of public ids is enforced against this
//    index at write time.

const (
	// prefixFile is the key prefix for file records.
	prefixFile = "f:"

	// prefixFolder is the key prefix for folder records.
	prefixFolder = "d:"

	// prefixPublicID is the key prefix for the folder public id index.
	prefixPublicID = "dp:"

	// prefixOwnerFile is the key prefix for the file owner index.
	prefixOwnerFile = "of:"

	// prefixOwnerFolder is the key prefix for the folder owner index.
	prefixOwnerFolder = "od:"

	// prefixChildFile is the key prefix for the folder-to-file children index.
	prefixChildFile = "cf:"

	// prefixChildFolder is the key prefix for the folder-to-folder children index.
	prefixChildFolder = "cd:"

	// prefixShareFile is the key prefix for the file share index.
	prefixShareFile = "sf:"

	// prefixShareFolder is the key prefix for the folder share index.
	prefixShareFolder = "sd:"

	// prefixAccount is the key prefix for storage accounts.
	prefixAccount = "a:"
)

// keyFile generates a key for a file record.
func keyFile(id string) []byte {
	return []byte(prefixFile + id)
}

// keyFolder generates a key for a folder record.
func keyFolder(id string) []byte {
	return []byte(prefixFolder + id)
}

// keyPublicID generates a key for the folder public id index.
func keyPublicID(publicID string) []byte {
	return []byte(prefixPublicID + publicID)
}

// keyOwnerFile generates a key for the file owner index.
func keyOwnerFile(ownerID, fileID string) []byte {
	return []byte(prefixOwnerFile + ownerID + ":" + fileID)
}

// keyOwnerFolder generates a key for the folder owner index.
func keyOwnerFolder(ownerID, folderID string) []byte {
	return []byte(prefixOwnerFolder + ownerID + ":" + folderID)
}

// keyChildFile generates a key for the folder-to-file children index.
func keyChildFile(folderID, fileID string) []byte {
	return []byte(prefixChildFile + folderID + ":" + fileID)
}

// keyChildFolder generates a key for the folder-to-folder children index.
func keyChildFolder(parentID, folderID string) []byte {
	return []byte(prefixChildFolder + parentID + ":" + folderID)
}

// keyShareFile generates a key for the file share index.
func keyShareFile(principalID, fileID string) []byte {
	return []byte(prefixShareFile + principalID + ":" + fileID)
}

// keyShareFolder generates a key for the folder share index.
func keyShareFolder(principalID, folderID string) []byte {
	return []byte(prefixShareFolder + principalID + ":" + folderID)
}

// keyAccount generates a key for a storage account.
func keyAccount(ownerID string) []byte {
	return []byte(prefixAccount + ownerID)
}

// indexSuffix extracts the record id from an index key of the form
// "<prefix><scopeID>:<recordID>" given the scan prefix "<prefix><scopeID>:".
func indexSuffix(key []byte, scanPrefix []byte) string {
	return string(key[len(scanPrefix):])
}
