package drive_test

import (
	"context"
	"strings"
	"testing"

	"github.com/marmos91/dittodrive/pkg/drive"
	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

func TestCopyFolderTree(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	root, err := svc.CreateFolder(ctx, "U1", "Project", "")
	if err != nil {
		t.Fatalf("Failed to create root: %v", err)
	}
	sub, err := svc.CreateFolder(ctx, "U1", "Assets", root.ID)
	if err != nil {
		t.Fatalf("Failed to create subfolder: %v", err)
	}
	if _, err := svc.CreateFolder(ctx, "U1", "Icons", sub.ID); err != nil {
		t.Fatalf("Failed to create nested subfolder: %v", err)
	}
	if _, err := svc.UploadFile(ctx, "U1", drive.UploadRequest{
		Name:        "plan.txt",
		FolderToken: root.ID,
		Content:     strings.NewReader("plan"),
	}); err != nil {
		t.Fatalf("Failed to upload file: %v", err)
	}

	// Share and star the source so the copy can prove it resets both.
	if _, err := svc.BatchShare(ctx, "U1", drive.Selection{FolderIDs: []string{root.ID}}, "U2", metadata.PermissionRead); err != nil {
		t.Fatalf("Failed to share source: %v", err)
	}
	if _, err := svc.UpdateFolder(ctx, "U1", root.ID, drive.FolderPatch{Starred: boolPtr(true)}); err != nil {
		t.Fatalf("Failed to star source: %v", err)
	}

	copied, err := svc.CopyFolderTree(ctx, "U2", root.ID, "", "")
	if err != nil {
		t.Fatalf("Failed to copy tree: %v", err)
	}

	t.Run("root copy resets ownership and flags", func(t *testing.T) {
		if copied.Name != "Project (copy)" {
			t.Errorf("Expected default copy name, got %q", copied.Name)
		}
		if copied.OwnerID != "U2" {
			t.Errorf("Expected copy owned by caller, got %q", copied.OwnerID)
		}
		if copied.ID == root.ID || copied.PublicID == root.PublicID {
			t.Error("Expected fresh identifiers on the copy")
		}
		if len(copied.SharedWith) != 0 {
			t.Error("Expected copy to start unshared")
		}
		if copied.Starred {
			t.Error("Expected copy to start unstarred")
		}
		if copied.Location != metadata.LocationMyDrive {
			t.Errorf("Expected copy in MY_DRIVE, got %v", copied.Location)
		}
	})

	t.Run("subfolders are copied, files are not", func(t *testing.T) {
		contents, err := svc.ListChildren(ctx, "U2", copied.ID)
		if err != nil {
			t.Fatalf("Failed to list copy: %v", err)
		}
		if len(contents.Folders) != 1 || contents.Folders[0].Name != "Assets" {
			t.Fatalf("Expected one copied subfolder, got %d", len(contents.Folders))
		}
		if len(contents.Files) != 0 {
			t.Errorf("Expected no files in the copy, got %d", len(contents.Files))
		}
		nested, err := svc.ListChildren(ctx, "U2", contents.Folders[0].ID)
		if err != nil {
			t.Fatalf("Failed to list nested copy: %v", err)
		}
		if len(nested.Folders) != 1 || nested.Folders[0].Name != "Icons" {
			t.Errorf("Expected nested subfolder copied")
		}
	})

	t.Run("source is untouched", func(t *testing.T) {
		source, err := svc.ResolveFolder(ctx, root.ID)
		if err != nil {
			t.Fatalf("Failed to resolve source: %v", err)
		}
		if source.OwnerID != "U1" || !source.Starred || len(source.SharedWith) != 1 {
			t.Error("Expected source record unchanged by the copy")
		}
	})
}

func TestCopyFolderTree_SkipsTrashedChildren(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	root, err := svc.CreateFolder(ctx, "U1", "Root", "")
	if err != nil {
		t.Fatalf("Failed to create root: %v", err)
	}
	trashed, err := svc.CreateFolder(ctx, "U1", "Gone", root.ID)
	if err != nil {
		t.Fatalf("Failed to create subfolder: %v", err)
	}
	if _, err := svc.UpdateFolder(ctx, "U1", trashed.ID, drive.FolderPatch{Deleted: boolPtr(true)}); err != nil {
		t.Fatalf("Failed to trash subfolder: %v", err)
	}

	copied, err := svc.CopyFolderTree(ctx, "U1", root.ID, "", "Backup")
	if err != nil {
		t.Fatalf("Failed to copy tree: %v", err)
	}
	if copied.Name != "Backup" {
		t.Errorf("Expected explicit name to win, got %q", copied.Name)
	}

	contents, err := svc.ListChildren(ctx, "U1", copied.ID)
	if err != nil {
		t.Fatalf("Failed to list copy: %v", err)
	}
	if len(contents.Folders) != 0 {
		t.Errorf("Expected trashed subtree excluded from the copy, got %d folders", len(contents.Folders))
	}
}

func TestCopyFolderTree_Destination(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	source, err := svc.CreateFolder(ctx, "U1", "Source", "")
	if err != nil {
		t.Fatalf("Failed to create source: %v", err)
	}
	child, err := svc.CreateFolder(ctx, "U1", "Child", source.ID)
	if err != nil {
		t.Fatalf("Failed to create subfolder: %v", err)
	}
	target, err := svc.CreateFolder(ctx, "U1", "Target", "")
	if err != nil {
		t.Fatalf("Failed to create target: %v", err)
	}

	t.Run("copy lands under the destination", func(t *testing.T) {
		copied, err := svc.CopyFolderTree(ctx, "U1", source.ID, target.ID, "")
		if err != nil {
			t.Fatalf("Failed to copy into destination: %v", err)
		}
		if copied.ParentID == nil || *copied.ParentID != target.ID {
			t.Error("Expected copy parented under the destination")
		}
		if copied.Path != "/Target/Source (copy)" {
			t.Errorf("Expected path under destination, got %q", copied.Path)
		}
	})

	t.Run("public id resolves the destination", func(t *testing.T) {
		copied, err := svc.CopyFolderTree(ctx, "U1", source.ID, target.PublicID, "ByPublic")
		if err != nil {
			t.Fatalf("Failed to copy via public id: %v", err)
		}
		if copied.Path != "/Target/ByPublic" {
			t.Errorf("Expected path under destination, got %q", copied.Path)
		}
	})

	t.Run("destination requires write capability", func(t *testing.T) {
		mine, err := svc.CreateFolder(ctx, "U2", "Mine", "")
		if err != nil {
			t.Fatalf("Failed to create folder: %v", err)
		}
		if _, err := svc.BatchShare(ctx, "U2", drive.Selection{FolderIDs: []string{mine.ID}}, "U1", metadata.PermissionRead); err != nil {
			t.Fatalf("Failed to share destination: %v", err)
		}
		if _, err := svc.CopyFolderTree(ctx, "U1", source.ID, mine.ID, ""); !drive.IsCode(err, drive.CodeForbidden) {
			t.Errorf("Expected CodeForbidden for read-only destination, got %v", err)
		}
	})

	t.Run("unknown destination is a missing parent", func(t *testing.T) {
		if _, err := svc.CopyFolderTree(ctx, "U1", source.ID, "no-such-folder", ""); !drive.IsCode(err, drive.CodeParentNotFound) {
			t.Errorf("Expected CodeParentNotFound, got %v", err)
		}
	})

	t.Run("destination inside the source subtree is rejected", func(t *testing.T) {
		if _, err := svc.CopyFolderTree(ctx, "U1", source.ID, child.ID, ""); !drive.IsCode(err, drive.CodeInvalidInput) {
			t.Errorf("Expected CodeInvalidInput for subtree destination, got %v", err)
		}
		if _, err := svc.CopyFolderTree(ctx, "U1", source.ID, source.ID, ""); !drive.IsCode(err, drive.CodeInvalidInput) {
			t.Errorf("Expected CodeInvalidInput for self destination, got %v", err)
		}
	})
}

func TestCopyFolderTree_RequiresRead(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	private, err := svc.CreateFolder(ctx, "U1", "Private", "")
	if err != nil {
		t.Fatalf("Failed to create folder: %v", err)
	}

	if _, err := svc.CopyFolderTree(ctx, "U2", private.ID, "", ""); !drive.IsCode(err, drive.CodeNotFound) {
		t.Errorf("Expected CodeNotFound for unreadable source, got %v", err)
	}
}
