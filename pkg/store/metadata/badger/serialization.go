package badger

import (
	"encoding/json"
	"fmt"

	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

// Serialization Strategy
// ======================
//
// BadgerDB stores raw bytes, so records are serialized before storage. All
// record types use JSON: the documents are small, schema evolution stays
// cheap (new optional fields decode as zero values from old rows), and a
// stored record can be inspected with standard tooling when debugging.
// Index entries store either nothing or a bare id and skip encoding
// entirely.

// encodeFileRecord serializes a file record to JSON bytes.
func encodeFileRecord(file *metadata.FileRecord) ([]byte, error) {
	bytes, err := json.Marshal(file)
	if err != nil {
		return nil, fmt.Errorf("failed to encode file record: %w", err)
	}
	return bytes, nil
}

// decodeFileRecord deserializes a file record from JSON bytes.
func decodeFileRecord(bytes []byte) (*metadata.FileRecord, error) {
	var file metadata.FileRecord
	if err := json.Unmarshal(bytes, &file); err != nil {
		return nil, fmt.Errorf("failed to decode file record: %w", err)
	}
	return &file, nil
}

// encodeFolderRecord serializes a folder record to JSON bytes.
func encodeFolderRecord(folder *metadata.FolderRecord) ([]byte, error) {
	bytes, err := json.Marshal(folder)
	if err != nil {
		return nil, fmt.Errorf("failed to encode folder record: %w", err)
	}
	return bytes, nil
}

// decodeFolderRecord deserializes a folder record from JSON bytes.
func decodeFolderRecord(bytes []byte) (*metadata.FolderRecord, error) {
	var folder metadata.FolderRecord
	if err := json.Unmarshal(bytes, &folder); err != nil {
		return nil, fmt.Errorf("failed to decode folder record: %w", err)
	}
	return &folder, nil
}

// encodeAccount serializes a storage account to JSON bytes.
func encodeAccount(account *metadata.Account) ([]byte, error) {
	bytes, err := json.Marshal(account)
	if err != nil {
		return nil, fmt.Errorf("failed to encode account: %w", err)
	}
	return bytes, nil
}

// decodeAccount deserializes a storage account from JSON bytes.
func decodeAccount(bytes []byte) (*metadata.Account, error) {
	var account metadata.Account
	if err := json.Unmarshal(bytes, &account); err != nil {
		return nil, fmt.Errorf("failed to decode account: %w", err)
	}
	return &account, nil
}
