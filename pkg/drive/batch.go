package drive

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/store/blob"
	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

// Selection names the files and folders a batch operation targets. At least
// one id must be present.
type Selection struct {
	FileIDs   []string `json:"file_ids"`
	FolderIDs []string `json:"folder_ids"`
}

func (sel Selection) empty() bool {
	return len(sel.FileIDs) == 0 && len(sel.FolderIDs) == 0
}

// BatchResult counts the records a batch operation actually touched. Ids
// that were missing, foreign-owned or failed mid-loop are simply absent from
// the counts; the call as a whole still succeeds.
type BatchResult struct {
	FilesAffected   int `json:"files_affected"`
	FoldersAffected int `json:"folders_affected"`

	// BytesFreed is set by destructive batches only.
	BytesFreed uint64 `json:"bytes_freed,omitempty"`
}

// BatchTrash bulk-sets the trash flag on the caller-owned subset of the
// selection. One bulk update per collection; folder location tags follow the
// flag. Children of a trashed folder are not touched.
func (s *Service) BatchTrash(ctx context.Context, callerID string, sel Selection, deleted bool) (*BatchResult, error) {
	if sel.empty() {
		return nil, invalidInput("selection must not be empty")
	}

	result := &BatchResult{}

	if len(sel.FileIDs) > 0 {
		n, err := s.meta.SetFilesDeleted(ctx, callerID, sel.FileIDs, deleted)
		if err != nil {
			return nil, internal("failed to update files", err)
		}
		result.FilesAffected = n
	}
	if len(sel.FolderIDs) > 0 {
		n, err := s.meta.SetFoldersDeleted(ctx, callerID, sel.FolderIDs, deleted)
		if err != nil {
			return nil, internal("failed to update folders", err)
		}
		result.FoldersAffected = n
	}
	return result, nil
}

// BatchStar bulk-sets the star flag on the caller-owned subset of the
// selection.
func (s *Service) BatchStar(ctx context.Context, callerID string, sel Selection, starred bool) (*BatchResult, error) {
	if sel.empty() {
		return nil, invalidInput("selection must not be empty")
	}

	result := &BatchResult{}

	if len(sel.FileIDs) > 0 {
		n, err := s.meta.SetFilesStarred(ctx, callerID, sel.FileIDs, starred)
		if err != nil {
			return nil, internal("failed to update files", err)
		}
		result.FilesAffected = n
	}
	if len(sel.FolderIDs) > 0 {
		n, err := s.meta.SetFoldersStarred(ctx, callerID, sel.FolderIDs, starred)
		if err != nil {
			return nil, internal("failed to update folders", err)
		}
		result.FoldersAffected = n
	}
	return result, nil
}

// BatchDelete permanently removes the caller-owned subset of the selection.
//
// Files go one by one: blob, record, usage credit; a failed file is logged
// and skipped. Each requested folder is removed as a full subtree after an
// ownership gate on the top-level folder only; descendants are trusted to
// the walk.
func (s *Service) BatchDelete(ctx context.Context, callerID string, sel Selection) (*BatchResult, error) {
	if sel.empty() {
		return nil, invalidInput("selection must not be empty")
	}

	result := &BatchResult{}

	files, err := s.meta.FilesByIDs(ctx, sel.FileIDs)
	if err != nil {
		return nil, internal("failed to load files", err)
	}
	for _, file := range files {
		if file.OwnerID != callerID {
			continue
		}
		if err := s.removeFile(ctx, file); err != nil {
			logger.Warn("Skipping file %s in batch delete: %v", file.ID, err)
			continue
		}
		result.FilesAffected++
		result.BytesFreed += file.SizeBytes
	}

	for _, folderID := range sel.FolderIDs {
		folder, err := s.ResolveFolder(ctx, folderID)
		if err != nil {
			logger.Warn("Skipping folder %s in batch delete: %v", folderID, err)
			continue
		}
		if folder.OwnerID != callerID {
			continue
		}
		report, err := s.DeleteFolderTree(ctx, callerID, folderID)
		if err != nil {
			logger.Warn("Skipping folder %s in batch delete: %v", folderID, err)
			continue
		}
		result.FoldersAffected += report.FoldersRemoved
		result.FilesAffected += report.FilesRemoved
		result.BytesFreed += report.BytesFreed
	}

	return result, nil
}

// BatchMove reparents the caller-owned subset of the selection into the
// folder identified by destinationToken (empty token = root).
//
// Files move in one bulk update that also abandons their cached path hints.
// Folders move one by one because each needs its own recomputed path; a
// folder whose move would land inside its own subtree is skipped.
func (s *Service) BatchMove(ctx context.Context, callerID string, sel Selection, destinationToken string) (*BatchResult, error) {
	if sel.empty() {
		return nil, invalidInput("selection must not be empty")
	}

	var destination *metadata.FolderRecord
	var destinationID *string
	if destinationToken != "" {
		var err error
		destination, err = s.ResolveFolder(ctx, destinationToken)
		if err != nil {
			return nil, err
		}
		if err := requireWrite(destination, callerID, destination.Path); err != nil {
			return nil, err
		}
		destinationID = &destination.ID
	}

	result := &BatchResult{}

	if len(sel.FileIDs) > 0 {
		n, err := s.meta.MoveFiles(ctx, callerID, sel.FileIDs, destinationID)
		if err != nil {
			return nil, internal("failed to move files", err)
		}
		result.FilesAffected = n
	}

	folders, err := s.meta.FoldersByIDs(ctx, sel.FolderIDs)
	if err != nil {
		return nil, internal("failed to load folders", err)
	}
	for _, folder := range folders {
		if folder.OwnerID != callerID {
			continue
		}
		if destination != nil {
			if err := s.ensureNotInSubtree(ctx, folder.ID, destination); err != nil {
				logger.Warn("Skipping folder %s in batch move: %v", folder.ID, err)
				continue
			}
			folder.Path = destination.Path + "/" + folder.Name
		} else {
			folder.Path = "/" + folder.Name
		}
		folder.ParentID = destinationID
		folder.UpdatedAt = time.Now()
		if err := s.meta.PutFolder(ctx, folder); err != nil {
			logger.Warn("Skipping folder %s in batch move: %v", folder.ID, err)
			continue
		}
		result.FoldersAffected++
	}

	return result, nil
}

// BatchShare upserts a share entry for principalID on every shareable item
// of the selection.
//
// Files are shareable by anyone holding write capability, so a write-grant
// recipient can pass access on; folders are shareable by their owner only.
// Re-sharing with a principal that already holds a grant replaces the grant
// in place. Sharing with the owner themselves is a no-op.
func (s *Service) BatchShare(ctx context.Context, callerID string, sel Selection, principalID string, permission metadata.Permission) (*BatchResult, error) {
	if sel.empty() {
		return nil, invalidInput("selection must not be empty")
	}
	if principalID == "" {
		return nil, invalidInput("target principal is required")
	}
	if !permission.Valid() {
		return nil, invalidInput("permission must be read or write")
	}

	result := &BatchResult{}

	files, err := s.meta.FilesByIDs(ctx, sel.FileIDs)
	if err != nil {
		return nil, internal("failed to load files", err)
	}
	for _, file := range files {
		if !CanWrite(file, callerID) || file.OwnerID == principalID {
			continue
		}
		upsertFileShare(file, principalID, permission)
		if err := s.meta.PutFile(ctx, file); err != nil {
			logger.Warn("Skipping file %s in batch share: %v", file.ID, err)
			continue
		}
		result.FilesAffected++
	}

	folders, err := s.meta.FoldersByIDs(ctx, sel.FolderIDs)
	if err != nil {
		return nil, internal("failed to load folders", err)
	}
	for _, folder := range folders {
		if folder.OwnerID != callerID || folder.OwnerID == principalID {
			continue
		}
		upsertFolderShare(folder, principalID, permission == metadata.PermissionWrite)
		folder.UpdatedAt = time.Now()
		if err := s.meta.PutFolder(ctx, folder); err != nil {
			logger.Warn("Skipping folder %s in batch share: %v", folder.ID, err)
			continue
		}
		result.FoldersAffected++
	}

	return result, nil
}

func upsertFileShare(file *metadata.FileRecord, principalID string, permission metadata.Permission) {
	for i, share := range file.SharedWith {
		if share.PrincipalID == principalID {
			file.SharedWith[i].Permission = permission
			return
		}
	}
	file.SharedWith = append(file.SharedWith, metadata.FileShare{PrincipalID: principalID, Permission: permission})
}

func upsertFolderShare(folder *metadata.FolderRecord, principalID string, canEdit bool) {
	for i, share := range folder.SharedWith {
		if share.PrincipalID == principalID {
			folder.SharedWith[i].CanEdit = canEdit
			return
		}
	}
	folder.SharedWith = append(folder.SharedWith, metadata.FolderShare{PrincipalID: principalID, CanEdit: canEdit})
}

// BatchCopy duplicates each caller-owned file in the selection: the blob is
// streamed server-side into a fresh blob, and the new record lands next to
// the original named "Copy of <name>", unshared and unstarred. Usage is
// debited by the stored size of each copy.
//
// Folder ids are accepted and skipped; subtree duplication goes through
// CopyFolderTree instead.
func (s *Service) BatchCopy(ctx context.Context, callerID string, sel Selection) (*BatchResult, error) {
	if sel.empty() {
		return nil, invalidInput("selection must not be empty")
	}

	result := &BatchResult{}

	files, err := s.meta.FilesByIDs(ctx, sel.FileIDs)
	if err != nil {
		return nil, internal("failed to load files", err)
	}
	for _, file := range files {
		if file.OwnerID != callerID {
			continue
		}
		if err := s.copyFile(ctx, callerID, file); err != nil {
			logger.Warn("Skipping file %s in batch copy: %v", file.ID, err)
			continue
		}
		result.FilesAffected++
	}

	return result, nil
}

// copyFile streams one blob into a new one and registers the copy. The
// fresh blob is rolled back when the record cannot be created.
func (s *Service) copyFile(ctx context.Context, callerID string, source *metadata.FileRecord) error {
	content, err := s.blobs.Open(ctx, source.BlobID)
	if err != nil {
		return err
	}

	blobID, written, err := s.blobs.Put(ctx, content)
	closeErr := content.Close()
	if err != nil {
		return err
	}
	if closeErr != nil {
		logger.Warn("Failed to close source blob %s: %v", source.BlobID, closeErr)
	}

	now := time.Now()
	copied := &metadata.FileRecord{
		ID:           uuid.NewString(),
		BlobID:       blobID,
		DisplayName:  "Copy of " + source.DisplayName,
		OriginalName: source.OriginalName,
		OwnerID:      callerID,
		SizeBytes:    written,
		MimeType:     source.MimeType,
		FolderID:     source.FolderID,
		Description:  source.Description,
		CreatedAt:    now,
	}

	if err := s.meta.CreateFile(ctx, copied); err != nil {
		if delErr := s.blobs.Delete(ctx, blobID); delErr != nil && !errors.Is(delErr, blob.ErrBlobNotFound) {
			logger.Error("Failed to roll back blob %s after copy failure: %v", blobID, delErr)
		}
		return err
	}

	s.debitUsage(ctx, callerID, written)
	return nil
}
