package drive_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/marmos91/dittodrive/pkg/drive"
	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

func mustUpload(t *testing.T, svc *drive.Service, owner, name, folderToken, content string) *metadata.FileRecord {
	t.Helper()
	file, err := svc.UploadFile(context.Background(), owner, drive.UploadRequest{
		Name:        name,
		FolderToken: folderToken,
		Content:     strings.NewReader(content),
	})
	if err != nil {
		t.Fatalf("Failed to upload %s: %v", name, err)
	}
	return file
}

func TestBatchOperations_EmptySelection(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	var err error
	if _, err = svc.BatchTrash(ctx, "U1", drive.Selection{}, true); !drive.IsCode(err, drive.CodeInvalidInput) {
		t.Errorf("BatchTrash: expected CodeInvalidInput, got %v", err)
	}
	if _, err = svc.BatchStar(ctx, "U1", drive.Selection{}, true); !drive.IsCode(err, drive.CodeInvalidInput) {
		t.Errorf("BatchStar: expected CodeInvalidInput, got %v", err)
	}
	if _, err = svc.BatchDelete(ctx, "U1", drive.Selection{}); !drive.IsCode(err, drive.CodeInvalidInput) {
		t.Errorf("BatchDelete: expected CodeInvalidInput, got %v", err)
	}
	if _, err = svc.BatchMove(ctx, "U1", drive.Selection{}, ""); !drive.IsCode(err, drive.CodeInvalidInput) {
		t.Errorf("BatchMove: expected CodeInvalidInput, got %v", err)
	}
	if _, err = svc.BatchShare(ctx, "U1", drive.Selection{}, "U2", metadata.PermissionRead); !drive.IsCode(err, drive.CodeInvalidInput) {
		t.Errorf("BatchShare: expected CodeInvalidInput, got %v", err)
	}
	if _, err = svc.BatchCopy(ctx, "U1", drive.Selection{}); !drive.IsCode(err, drive.CodeInvalidInput) {
		t.Errorf("BatchCopy: expected CodeInvalidInput, got %v", err)
	}
	if err = svc.BatchDownload(ctx, "U1", drive.Selection{}, io.Discard); !drive.IsCode(err, drive.CodeInvalidInput) {
		t.Errorf("BatchDownload: expected CodeInvalidInput, got %v", err)
	}
}

// A mixed-ownership selection only touches the caller's own records; foreign
// ids are silently skipped and missing from the counts.
func TestBatchTrash_ScopedToOwner(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	mine := mustUpload(t, svc, "U1", "mine.txt", "", "a")
	theirs := mustUpload(t, svc, "U2", "theirs.txt", "", "b")
	myFolder, err := svc.CreateFolder(ctx, "U1", "Mine", "")
	if err != nil {
		t.Fatalf("Failed to create folder: %v", err)
	}

	result, err := svc.BatchTrash(ctx, "U1", drive.Selection{
		FileIDs:   []string{mine.ID, theirs.ID, "no-such-file"},
		FolderIDs: []string{myFolder.ID},
	}, true)
	if err != nil {
		t.Fatalf("Failed to batch trash: %v", err)
	}
	if result.FilesAffected != 1 {
		t.Errorf("Expected 1 file affected, got %d", result.FilesAffected)
	}
	if result.FoldersAffected != 1 {
		t.Errorf("Expected 1 folder affected, got %d", result.FoldersAffected)
	}

	trashedFile, err := svc.StatFile(ctx, "U1", mine.ID)
	if err != nil {
		t.Fatalf("Failed to stat file: %v", err)
	}
	if !trashedFile.Deleted {
		t.Error("Expected owned file trashed")
	}

	untouched, err := svc.StatFile(ctx, "U2", theirs.ID)
	if err != nil {
		t.Fatalf("Failed to stat foreign file: %v", err)
	}
	if untouched.Deleted {
		t.Error("Expected foreign file untouched")
	}

	trashedFolder, err := svc.ResolveFolder(ctx, myFolder.ID)
	if err != nil {
		t.Fatalf("Failed to resolve folder: %v", err)
	}
	if !trashedFolder.Deleted || trashedFolder.Location != metadata.LocationTrash {
		t.Error("Expected folder trashed with TRASH location")
	}
}

// Trashing an already-trashed selection is a no-op that still reports the
// items as affected; nothing about the records changes further.
func TestBatchTrash_Idempotent(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	file := mustUpload(t, svc, "U1", "twice.txt", "", "a")
	folder, err := svc.CreateFolder(ctx, "U1", "Twice", "")
	if err != nil {
		t.Fatalf("Failed to create folder: %v", err)
	}
	sel := drive.Selection{FileIDs: []string{file.ID}, FolderIDs: []string{folder.ID}}

	if _, err := svc.BatchTrash(ctx, "U1", sel, true); err != nil {
		t.Fatalf("Failed to batch trash: %v", err)
	}
	second, err := svc.BatchTrash(ctx, "U1", sel, true)
	if err != nil {
		t.Fatalf("Failed to repeat batch trash: %v", err)
	}
	if second.FilesAffected != 1 || second.FoldersAffected != 1 {
		t.Errorf("Expected repeat trash to report 1/1, got %d/%d", second.FilesAffected, second.FoldersAffected)
	}

	trashedFile, err := svc.StatFile(ctx, "U1", file.ID)
	if err != nil {
		t.Fatalf("Failed to stat file: %v", err)
	}
	if !trashedFile.Deleted {
		t.Error("Expected file still trashed")
	}
	trashedFolder, err := svc.ResolveFolder(ctx, folder.ID)
	if err != nil {
		t.Fatalf("Failed to resolve folder: %v", err)
	}
	if !trashedFolder.Deleted || trashedFolder.Location != metadata.LocationTrash {
		t.Error("Expected folder still trashed with TRASH location")
	}

	restored, err := svc.BatchTrash(ctx, "U1", sel, false)
	if err != nil {
		t.Fatalf("Failed to restore: %v", err)
	}
	if restored.FoldersAffected != 1 {
		t.Errorf("Expected restore to report the folder, got %d", restored.FoldersAffected)
	}
	live, err := svc.ResolveFolder(ctx, folder.ID)
	if err != nil {
		t.Fatalf("Failed to resolve folder: %v", err)
	}
	if live.Deleted || live.Location != metadata.LocationMyDrive {
		t.Error("Expected folder restored to MY_DRIVE")
	}
}

func TestBatchStar(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	file := mustUpload(t, svc, "U1", "a.txt", "", "a")

	if _, err := svc.BatchStar(ctx, "U1", drive.Selection{FileIDs: []string{file.ID}}, true); err != nil {
		t.Fatalf("Failed to star: %v", err)
	}
	starred, err := svc.StatFile(ctx, "U1", file.ID)
	if err != nil {
		t.Fatalf("Failed to stat: %v", err)
	}
	if !starred.Starred {
		t.Error("Expected file starred")
	}

	if _, err := svc.BatchStar(ctx, "U1", drive.Selection{FileIDs: []string{file.ID}}, false); err != nil {
		t.Fatalf("Failed to unstar: %v", err)
	}
	unstarred, err := svc.StatFile(ctx, "U1", file.ID)
	if err != nil {
		t.Fatalf("Failed to stat: %v", err)
	}
	if unstarred.Starred {
		t.Error("Expected file unstarred")
	}
}

func TestBatchMove(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	destination, err := svc.CreateFolder(ctx, "U1", "Destination", "")
	if err != nil {
		t.Fatalf("Failed to create destination: %v", err)
	}
	folder, err := svc.CreateFolder(ctx, "U1", "Movable", "")
	if err != nil {
		t.Fatalf("Failed to create folder: %v", err)
	}
	file := mustUpload(t, svc, "U1", "doc.txt", "", "x")

	result, err := svc.BatchMove(ctx, "U1", drive.Selection{
		FileIDs:   []string{file.ID},
		FolderIDs: []string{folder.ID},
	}, destination.ID)
	if err != nil {
		t.Fatalf("Failed to batch move: %v", err)
	}
	if result.FilesAffected != 1 || result.FoldersAffected != 1 {
		t.Errorf("Expected 1 file and 1 folder moved, got %d and %d", result.FilesAffected, result.FoldersAffected)
	}

	movedFile, err := svc.StatFile(ctx, "U1", file.ID)
	if err != nil {
		t.Fatalf("Failed to stat file: %v", err)
	}
	if movedFile.FolderID == nil || *movedFile.FolderID != destination.ID {
		t.Error("Expected file reparented to destination")
	}
	if movedFile.PathSegments != nil {
		t.Error("Expected path hint abandoned on bulk move")
	}

	movedFolder, err := svc.ResolveFolder(ctx, folder.ID)
	if err != nil {
		t.Fatalf("Failed to resolve folder: %v", err)
	}
	if movedFolder.ParentID == nil || *movedFolder.ParentID != destination.ID {
		t.Error("Expected folder reparented to destination")
	}
	if movedFolder.Path != "/Destination/Movable" {
		t.Errorf("Expected recomputed folder path, got %q", movedFolder.Path)
	}
}

func TestBatchMove_SkipsCycleAndMovesToRoot(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	parent, err := svc.CreateFolder(ctx, "U1", "Parent", "")
	if err != nil {
		t.Fatalf("Failed to create parent: %v", err)
	}
	child, err := svc.CreateFolder(ctx, "U1", "Child", parent.ID)
	if err != nil {
		t.Fatalf("Failed to create child: %v", err)
	}

	// Moving the parent into its own child is skipped, not fatal.
	result, err := svc.BatchMove(ctx, "U1", drive.Selection{FolderIDs: []string{parent.ID}}, child.ID)
	if err != nil {
		t.Fatalf("Failed to batch move: %v", err)
	}
	if result.FoldersAffected != 0 {
		t.Errorf("Expected cycle-producing move skipped, got %d affected", result.FoldersAffected)
	}

	// Empty destination token moves to root.
	if _, err := svc.BatchMove(ctx, "U1", drive.Selection{FolderIDs: []string{child.ID}}, ""); err != nil {
		t.Fatalf("Failed to move to root: %v", err)
	}
	moved, err := svc.ResolveFolder(ctx, child.ID)
	if err != nil {
		t.Fatalf("Failed to resolve folder: %v", err)
	}
	if moved.ParentID != nil {
		t.Error("Expected folder at root")
	}
	if moved.Path != "/Child" {
		t.Errorf("Expected root path, got %q", moved.Path)
	}
}

func TestBatchShare_UpsertsLatestGrant(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	file := mustUpload(t, svc, "U1", "shared.txt", "", "x")
	sel := drive.Selection{FileIDs: []string{file.ID}}

	if _, err := svc.BatchShare(ctx, "U1", sel, "U2", metadata.PermissionRead); err != nil {
		t.Fatalf("Failed to share: %v", err)
	}
	if _, err := svc.BatchShare(ctx, "U1", sel, "U2", metadata.PermissionWrite); err != nil {
		t.Fatalf("Failed to re-share: %v", err)
	}

	shared, err := svc.StatFile(ctx, "U1", file.ID)
	if err != nil {
		t.Fatalf("Failed to stat: %v", err)
	}
	if len(shared.SharedWith) != 1 {
		t.Fatalf("Expected one share entry after re-share, got %d", len(shared.SharedWith))
	}
	if shared.SharedWith[0].Permission != metadata.PermissionWrite {
		t.Errorf("Expected latest grant to win, got %v", shared.SharedWith[0].Permission)
	}
}

func TestBatchShare_Rules(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	file := mustUpload(t, svc, "U1", "doc.txt", "", "x")
	folder, err := svc.CreateFolder(ctx, "U1", "Folder", "")
	if err != nil {
		t.Fatalf("Failed to create folder: %v", err)
	}

	t.Run("invalid arguments", func(t *testing.T) {
		sel := drive.Selection{FileIDs: []string{file.ID}}
		if _, err := svc.BatchShare(ctx, "U1", sel, "", metadata.PermissionRead); !drive.IsCode(err, drive.CodeInvalidInput) {
			t.Errorf("Expected CodeInvalidInput for empty principal, got %v", err)
		}
		if _, err := svc.BatchShare(ctx, "U1", sel, "U2", metadata.Permission("admin")); !drive.IsCode(err, drive.CodeInvalidInput) {
			t.Errorf("Expected CodeInvalidInput for unknown permission, got %v", err)
		}
	})

	t.Run("write-grant holder can re-share a file", func(t *testing.T) {
		if _, err := svc.BatchShare(ctx, "U1", drive.Selection{FileIDs: []string{file.ID}}, "U2", metadata.PermissionWrite); err != nil {
			t.Fatalf("Failed to share: %v", err)
		}
		result, err := svc.BatchShare(ctx, "U2", drive.Selection{FileIDs: []string{file.ID}}, "U3", metadata.PermissionRead)
		if err != nil {
			t.Fatalf("Failed to re-share as grant holder: %v", err)
		}
		if result.FilesAffected != 1 {
			t.Errorf("Expected grant holder share to land, got %d affected", result.FilesAffected)
		}
	})

	t.Run("folders are shareable by owner only", func(t *testing.T) {
		if _, err := svc.BatchShare(ctx, "U1", drive.Selection{FolderIDs: []string{folder.ID}}, "U2", metadata.PermissionWrite); err != nil {
			t.Fatalf("Failed to share folder: %v", err)
		}
		result, err := svc.BatchShare(ctx, "U2", drive.Selection{FolderIDs: []string{folder.ID}}, "U3", metadata.PermissionRead)
		if err != nil {
			t.Fatalf("Batch share failed: %v", err)
		}
		if result.FoldersAffected != 0 {
			t.Errorf("Expected non-owner folder share skipped, got %d affected", result.FoldersAffected)
		}
	})

	t.Run("sharing with the owner is a no-op", func(t *testing.T) {
		result, err := svc.BatchShare(ctx, "U1", drive.Selection{FileIDs: []string{file.ID}}, "U1", metadata.PermissionRead)
		if err != nil {
			t.Fatalf("Batch share failed: %v", err)
		}
		if result.FilesAffected != 0 {
			t.Errorf("Expected owner self-share skipped, got %d affected", result.FilesAffected)
		}
	})

	t.Run("write grant maps to folder edit capability", func(t *testing.T) {
		shared, err := svc.ResolveFolder(ctx, folder.ID)
		if err != nil {
			t.Fatalf("Failed to resolve folder: %v", err)
		}
		entry, ok := shared.ShareFor("U2")
		if !ok {
			t.Fatal("Expected a share entry for U2")
		}
		if !entry.CanEdit {
			t.Error("Expected write permission to grant edit capability")
		}
	})
}

func TestBatchCopy(t *testing.T) {
	ctx := context.Background()
	svc, meta, _ := newTestService(t)

	folder, err := svc.CreateFolder(ctx, "U1", "Docs", "")
	if err != nil {
		t.Fatalf("Failed to create folder: %v", err)
	}
	file := mustUpload(t, svc, "U1", "report.txt", folder.ID, "quarterly numbers")
	foreign := mustUpload(t, svc, "U2", "foreign.txt", "", "not yours")

	result, err := svc.BatchCopy(ctx, "U1", drive.Selection{
		FileIDs:   []string{file.ID, foreign.ID},
		FolderIDs: []string{folder.ID},
	})
	if err != nil {
		t.Fatalf("Failed to batch copy: %v", err)
	}
	if result.FilesAffected != 1 {
		t.Errorf("Expected 1 file copied, got %d", result.FilesAffected)
	}
	if result.FoldersAffected != 0 {
		t.Errorf("Expected folder ids skipped, got %d", result.FoldersAffected)
	}

	contents, err := svc.ListChildren(ctx, "U1", folder.ID)
	if err != nil {
		t.Fatalf("Failed to list folder: %v", err)
	}
	if len(contents.Files) != 2 {
		t.Fatalf("Expected original plus copy, got %d files", len(contents.Files))
	}

	var copied *metadata.FileRecord
	for _, f := range contents.Files {
		if f.ID != file.ID {
			copied = f
		}
	}
	if copied == nil {
		t.Fatal("Expected a copied record next to the original")
	}
	if copied.DisplayName != "Copy of report.txt" {
		t.Errorf("Expected copy name prefix, got %q", copied.DisplayName)
	}
	if copied.BlobID == file.BlobID {
		t.Error("Expected the copy to own a fresh blob")
	}

	download, err := svc.OpenFile(ctx, "U1", copied.ID)
	if err != nil {
		t.Fatalf("Failed to open copy: %v", err)
	}
	defer download.Content.Close()
	data, err := io.ReadAll(download.Content)
	if err != nil {
		t.Fatalf("Failed to read copy: %v", err)
	}
	if string(data) != "quarterly numbers" {
		t.Errorf("Expected copied content, got %q", data)
	}

	// The copy is charged against the owner's account.
	account, err := meta.GetAccount(ctx, "U1")
	if err != nil {
		t.Fatalf("Failed to load account: %v", err)
	}
	want := uint64(2 * len("quarterly numbers"))
	if account.StorageUsed != want {
		t.Errorf("Expected %d bytes used after copy, got %d", want, account.StorageUsed)
	}
}

// Permanent deletion is reserved for owners. A write grant lets a grantee
// edit and trash, but a shared folder in a delete selection is skipped.
func TestBatchDelete_FolderOwnerOnly(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	shared, err := svc.CreateFolder(ctx, "owner", "Shared", "")
	if err != nil {
		t.Fatalf("Failed to create folder: %v", err)
	}
	mustUpload(t, svc, "owner", "keep.txt", shared.ID, "keep")
	if _, err := svc.BatchShare(ctx, "owner", drive.Selection{FolderIDs: []string{shared.ID}}, "grantee", metadata.PermissionWrite); err != nil {
		t.Fatalf("Failed to share folder: %v", err)
	}

	// The grant holds for edits, so the skip below is the ownership gate
	// and not a missing capability.
	if _, err := svc.UpdateFolder(ctx, "grantee", shared.ID, drive.FolderPatch{Description: strPtr("annotated")}); err != nil {
		t.Fatalf("Failed to edit as grantee: %v", err)
	}

	result, err := svc.BatchDelete(ctx, "grantee", drive.Selection{FolderIDs: []string{shared.ID}})
	if err != nil {
		t.Fatalf("Failed to batch delete: %v", err)
	}
	if result.FoldersAffected != 0 || result.FilesAffected != 0 {
		t.Errorf("Expected shared folder skipped, got %d folders and %d files affected", result.FoldersAffected, result.FilesAffected)
	}

	survivor, err := svc.ResolveFolder(ctx, shared.ID)
	if err != nil {
		t.Fatalf("Expected folder to survive, got %v", err)
	}
	if survivor.OwnerID != "owner" {
		t.Errorf("Expected owner unchanged, got %q", survivor.OwnerID)
	}
	contents, err := svc.ListChildren(ctx, "owner", shared.ID)
	if err != nil {
		t.Fatalf("Failed to list folder: %v", err)
	}
	if len(contents.Files) != 1 {
		t.Errorf("Expected contents intact, got %d files", len(contents.Files))
	}

	owned, err := svc.BatchDelete(ctx, "owner", drive.Selection{FolderIDs: []string{shared.ID}})
	if err != nil {
		t.Fatalf("Failed to batch delete as owner: %v", err)
	}
	if owned.FoldersAffected != 1 || owned.FilesAffected != 1 {
		t.Errorf("Expected owner delete to remove 1 folder and 1 file, got %d/%d", owned.FoldersAffected, owned.FilesAffected)
	}
}
