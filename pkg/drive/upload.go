package drive

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/store/blob"
	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

// UploadRequest carries the inputs of a file upload.
type UploadRequest struct {
	// Name is the display name; it must not be empty after trimming.
	Name string

	// FolderToken targets the destination folder; empty means the caller's
	// root.
	FolderToken string

	// MimeType is stored as-is; empty is allowed.
	MimeType string

	// DeclaredSize is the size the caller claims, used for quota admission
	// before any bytes move. The stored size is whatever the blob store
	// actually wrote.
	DeclaredSize uint64

	// Content supplies the file bytes.
	Content io.Reader
}

// UploadFile stores the content and creates the file record.
//
// The sequence is quota admission, blob write, metadata create, usage debit.
// When the metadata create fails the freshly written blob is deleted again
// so no unreachable content lingers; the compensation itself is best-effort
// and falls back to the reconciler.
func (s *Service) UploadFile(ctx context.Context, callerID string, req UploadRequest) (*metadata.FileRecord, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalidInput("file name must not be empty")
	}
	if req.Content == nil {
		return nil, invalidInput("file content is required")
	}

	var folderID *string
	if req.FolderToken != "" {
		folder, err := s.ResolveFolder(ctx, req.FolderToken)
		if err != nil {
			if IsCode(err, CodeNotFound) {
				return nil, parentNotFound(req.FolderToken)
			}
			return nil, err
		}
		if err := requireWrite(folder, callerID, folder.Path); err != nil {
			return nil, err
		}
		folderID = &folder.ID
	}

	if err := s.checkQuota(ctx, callerID, req.DeclaredSize); err != nil {
		return nil, err
	}

	blobID, written, err := s.blobs.Put(ctx, req.Content)
	if err != nil {
		return nil, internal("failed to store file content", err)
	}

	now := time.Now()
	file := &metadata.FileRecord{
		ID:           uuid.NewString(),
		BlobID:       blobID,
		DisplayName:  name,
		OriginalName: req.Name,
		OwnerID:      callerID,
		SizeBytes:    written,
		MimeType:     req.MimeType,
		FolderID:     folderID,
		CreatedAt:    now,
	}

	if err := s.meta.CreateFile(ctx, file); err != nil {
		if delErr := s.blobs.Delete(ctx, blobID); delErr != nil && !errors.Is(delErr, blob.ErrBlobNotFound) {
			logger.Error("Failed to roll back blob %s after metadata failure: %v", blobID, delErr)
		}
		return nil, internal("failed to persist file", err)
	}

	s.debitUsage(ctx, callerID, written)

	logger.Debug("Uploaded file %s (%d bytes) for %s", file.ID, written, callerID)
	return file, nil
}

// FilePatch selects the file fields to update. Nil pointers mean "do not
// change".
type FilePatch struct {
	// Name renames the file. Empty-after-trim values are ignored.
	Name *string

	// Description replaces the description.
	Description *string

	// Starred toggles the star flag.
	Starred *bool

	// Deleted toggles trash state.
	Deleted *bool
}

// UpdateFile applies a patch to the file's mutable metadata. The caller must
// hold write capability.
func (s *Service) UpdateFile(ctx context.Context, callerID, fileID string, patch FilePatch) (*metadata.FileRecord, error) {
	file, err := s.meta.GetFile(ctx, fileID)
	if err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			return nil, notFound("file not found", fileID)
		}
		return nil, internal("failed to load file", err)
	}
	if err := requireWrite(file, callerID, file.DisplayName); err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if name := strings.TrimSpace(*patch.Name); name != "" {
			file.DisplayName = name
		}
	}
	if patch.Description != nil {
		file.Description = *patch.Description
	}
	if patch.Starred != nil {
		file.Starred = *patch.Starred
	}
	if patch.Deleted != nil {
		file.Deleted = *patch.Deleted
	}

	if err := s.meta.PutFile(ctx, file); err != nil {
		return nil, internal("failed to persist file", err)
	}
	return file, nil
}

// DeleteFile permanently removes a single file: blob, metadata and the usage
// credit. The caller must hold write capability.
func (s *Service) DeleteFile(ctx context.Context, callerID, fileID string) error {
	file, err := s.meta.GetFile(ctx, fileID)
	if err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			return notFound("file not found", fileID)
		}
		return internal("failed to load file", err)
	}
	if err := requireWrite(file, callerID, file.DisplayName); err != nil {
		return err
	}
	if err := s.removeFile(ctx, file); err != nil {
		return internal("failed to delete file", err)
	}
	return nil
}
