package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

func newTestStore(t *testing.T) *BadgerStore {
	t.Helper()
	store, err := NewBadgerStore(context.Background(), Config{DBPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Failed to close store: %v", err)
		}
	})
	return store
}

func TestBadgerFileRoundtrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	folderID := "D1"
	file := &metadata.FileRecord{
		ID:          "F1",
		BlobID:      "B1",
		DisplayName: "doc.txt",
		OwnerID:     "U1",
		FolderID:    &folderID,
		SizeBytes:   7,
		SharedWith: []metadata.FileShare{
			{PrincipalID: "U2", Permission: metadata.PermissionRead},
		},
	}
	if err := store.CreateFile(ctx, file); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	if err := store.CreateFile(ctx, file); !errors.Is(err, metadata.ErrAlreadyExists) {
		t.Errorf("Expected ErrAlreadyExists, got %v", err)
	}

	loaded, err := store.GetFile(ctx, "F1")
	if err != nil {
		t.Fatalf("Failed to get file: %v", err)
	}
	if loaded.DisplayName != "doc.txt" || loaded.SizeBytes != 7 {
		t.Errorf("Unexpected record: %+v", loaded)
	}
	if loaded.FolderID == nil || *loaded.FolderID != "D1" {
		t.Error("Expected folder reference preserved")
	}
	if len(loaded.SharedWith) != 1 || loaded.SharedWith[0].PrincipalID != "U2" {
		t.Error("Expected share entries preserved")
	}
}

// Moving a record between folders must reconcile the children index: the
// record disappears from the old folder's listing and appears in the new one.
func TestBadgerFileIndexReconciliation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	oldFolder := "D1"
	file := &metadata.FileRecord{ID: "F1", OwnerID: "U1", FolderID: &oldFolder}
	if err := store.CreateFile(ctx, file); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	newFolder := "D2"
	file.FolderID = &newFolder
	if err := store.PutFile(ctx, file); err != nil {
		t.Fatalf("Failed to move file: %v", err)
	}

	inOld, err := store.ListFilesInFolder(ctx, oldFolder, true)
	if err != nil {
		t.Fatalf("Failed to list old folder: %v", err)
	}
	if len(inOld) != 0 {
		t.Errorf("Expected old folder empty, got %d records", len(inOld))
	}

	inNew, err := store.ListFilesInFolder(ctx, newFolder, true)
	if err != nil {
		t.Fatalf("Failed to list new folder: %v", err)
	}
	if len(inNew) != 1 || inNew[0].ID != "F1" {
		t.Errorf("Expected file in new folder, got %d records", len(inNew))
	}
}

func TestBadgerShareIndex(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	file := &metadata.FileRecord{
		ID:      "F1",
		OwnerID: "U1",
		SharedWith: []metadata.FileShare{
			{PrincipalID: "U2", Permission: metadata.PermissionRead},
		},
	}
	if err := store.CreateFile(ctx, file); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	shared, err := store.ListSharedFiles(ctx, "U2")
	if err != nil {
		t.Fatalf("Failed to list shared files: %v", err)
	}
	if len(shared) != 1 || shared[0].ID != "F1" {
		t.Fatalf("Expected one shared file, got %d", len(shared))
	}

	// Revoking the share drops the index entry.
	file.SharedWith = nil
	if err := store.PutFile(ctx, file); err != nil {
		t.Fatalf("Failed to update file: %v", err)
	}
	shared, err = store.ListSharedFiles(ctx, "U2")
	if err != nil {
		t.Fatalf("Failed to list shared files: %v", err)
	}
	if len(shared) != 0 {
		t.Errorf("Expected no shared files after revoke, got %d", len(shared))
	}
}

func TestBadgerFolderPublicID(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	folder := &metadata.FolderRecord{ID: "D1", PublicID: "P1", Name: "Docs", OwnerID: "U1"}
	if err := store.CreateFolder(ctx, folder); err != nil {
		t.Fatalf("Failed to create folder: %v", err)
	}

	byPublic, err := store.GetFolderByPublicID(ctx, "P1")
	if err != nil {
		t.Fatalf("Failed to look up by public id: %v", err)
	}
	if byPublic.ID != "D1" {
		t.Errorf("Expected D1, got %s", byPublic.ID)
	}

	clash := &metadata.FolderRecord{ID: "D2", PublicID: "P1", Name: "Clash", OwnerID: "U1"}
	if err := store.CreateFolder(ctx, clash); !errors.Is(err, metadata.ErrDuplicatePublicID) {
		t.Errorf("Expected ErrDuplicatePublicID, got %v", err)
	}
}

func TestBadgerEnsureFolderPublicID(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	legacy := &metadata.FolderRecord{ID: "D1", Name: "Legacy", OwnerID: "U1"}
	if err := store.CreateFolder(ctx, legacy); err != nil {
		t.Fatalf("Failed to create folder: %v", err)
	}

	first, err := store.EnsureFolderPublicID(ctx, "D1", "P1")
	if err != nil {
		t.Fatalf("Failed to backfill: %v", err)
	}
	if first.PublicID != "P1" {
		t.Errorf("Expected P1, got %q", first.PublicID)
	}

	second, err := store.EnsureFolderPublicID(ctx, "D1", "P2")
	if err != nil {
		t.Fatalf("Failed to re-ensure: %v", err)
	}
	if second.PublicID != "P1" {
		t.Errorf("Expected first backfill to stick, got %q", second.PublicID)
	}
}

func TestBadgerBulkUpdates(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for _, folder := range []*metadata.FolderRecord{
		{ID: "D1", Name: "Mine", OwnerID: "U1", Location: metadata.LocationMyDrive},
		{ID: "D2", Name: "Theirs", OwnerID: "U2", Location: metadata.LocationMyDrive},
	} {
		if err := store.CreateFolder(ctx, folder); err != nil {
			t.Fatalf("Failed to create %s: %v", folder.ID, err)
		}
	}

	n, err := store.SetFoldersDeleted(ctx, "U1", []string{"D1", "D2"}, true)
	if err != nil {
		t.Fatalf("Failed to bulk trash: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 folder updated, got %d", n)
	}

	trashed, err := store.GetFolder(ctx, "D1")
	if err != nil {
		t.Fatalf("Failed to get folder: %v", err)
	}
	if !trashed.Deleted || trashed.Location != metadata.LocationTrash {
		t.Errorf("Expected TRASH lockstep, got deleted=%v location=%v", trashed.Deleted, trashed.Location)
	}

	foreign, err := store.GetFolder(ctx, "D2")
	if err != nil {
		t.Fatalf("Failed to get folder: %v", err)
	}
	if foreign.Deleted {
		t.Error("Expected foreign folder untouched")
	}
}

func TestBadgerUsageCounter(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	used, err := store.AdjustUsage(ctx, "U1", 100)
	if err != nil {
		t.Fatalf("Failed to debit: %v", err)
	}
	if used != 100 {
		t.Errorf("Expected counter 100, got %d", used)
	}

	used, err = store.AdjustUsage(ctx, "U1", -250)
	if err != nil {
		t.Fatalf("Failed to credit: %v", err)
	}
	if used != 0 {
		t.Errorf("Expected counter clamped at zero, got %d", used)
	}

	account, err := store.GetAccount(ctx, "U1")
	if err != nil {
		t.Fatalf("Failed to get account: %v", err)
	}
	if account.StorageUsed != 0 {
		t.Errorf("Expected persisted counter 0, got %d", account.StorageUsed)
	}
}

func TestBadgerPersistenceAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewBadgerStore(ctx, Config{DBPath: dir})
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	if err := store.CreateFolder(ctx, &metadata.FolderRecord{ID: "D1", Name: "Persistent", OwnerID: "U1"}); err != nil {
		t.Fatalf("Failed to create folder: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Failed to close store: %v", err)
	}

	reopened, err := NewBadgerStore(ctx, Config{DBPath: dir})
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer reopened.Close()

	folder, err := reopened.GetFolder(ctx, "D1")
	if err != nil {
		t.Fatalf("Failed to get folder after reopen: %v", err)
	}
	if folder.Name != "Persistent" {
		t.Errorf("Expected record to survive reopen, got %+v", folder)
	}
}
