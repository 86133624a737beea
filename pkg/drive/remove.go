package drive

import (
	"context"
	"errors"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/store/blob"
	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

// RemovalReport summarizes a hard delete of a folder subtree.
type RemovalReport struct {
	// FoldersRemoved counts folder records deleted.
	FoldersRemoved int `json:"folders_removed"`

	// FilesRemoved counts file records deleted.
	FilesRemoved int `json:"files_removed"`

	// BytesFreed is the total size of the removed files, already credited
	// back to the owner's usage counter.
	BytesFreed uint64 `json:"bytes_freed"`
}

// DeleteFolderTree permanently removes the folder identified by token,
// every descendant folder, and every contained file including trashed ones.
//
// Within each folder, files are removed before the folder record itself so
// that an interrupted run never leaves files whose parent is gone. Blob
// deletion tolerates already-missing blobs, and a file whose metadata delete
// fails is logged and skipped rather than aborting the sweep; the storage
// reconciler picks up any stragglers.
func (s *Service) DeleteFolderTree(ctx context.Context, callerID, token string) (*RemovalReport, error) {
	root, err := s.ResolveFolder(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := requireWrite(root, callerID, root.Path); err != nil {
		return nil, err
	}

	// Collect the subtree breadth-first, then delete it deepest-first so
	// every folder is emptied before its parent goes.
	type node struct {
		folder *metadata.FolderRecord
		depth  int
	}

	order := []node{{folder: root, depth: 0}}
	for i := 0; i < len(order); i++ {
		current := order[i]
		if current.depth >= s.maxTreeDepth {
			return nil, treeTooDeep(root.Path)
		}

		children, err := s.meta.ListFoldersInFolder(ctx, current.folder.ID, true)
		if err != nil {
			return nil, internal("failed to list subtree", err)
		}
		for _, child := range children {
			order = append(order, node{folder: child, depth: current.depth + 1})
			if len(order) > s.maxTreeNodes {
				return nil, treeTooDeep(root.Path)
			}
		}
	}

	report := &RemovalReport{}

	for i := len(order) - 1; i >= 0; i-- {
		folder := order[i].folder

		files, err := s.meta.ListFilesInFolder(ctx, folder.ID, true)
		if err != nil {
			return nil, internal("failed to list folder files", err)
		}

		for _, file := range files {
			if err := s.removeFile(ctx, file); err != nil {
				logger.Warn("Skipping file %s during tree removal: %v", file.ID, err)
				continue
			}
			report.FilesRemoved++
			report.BytesFreed += file.SizeBytes
		}

		if err := s.meta.DeleteFolder(ctx, folder.ID); err != nil {
			return nil, internal("failed to delete folder", err)
		}
		report.FoldersRemoved++
	}

	logger.Info("Removed folder tree %s: %d folders, %d files, %d bytes freed",
		root.ID, report.FoldersRemoved, report.FilesRemoved, report.BytesFreed)
	return report, nil
}

// removeFile hard-deletes one file: blob first (missing blobs tolerated),
// then metadata, then the usage credit.
func (s *Service) removeFile(ctx context.Context, file *metadata.FileRecord) error {
	if file.BlobID != "" {
		if err := s.blobs.Delete(ctx, file.BlobID); err != nil && !errors.Is(err, blob.ErrBlobNotFound) {
			return err
		}
	}
	if err := s.meta.DeleteFile(ctx, file.ID); err != nil {
		return err
	}
	s.creditUsage(ctx, file.OwnerID, file.SizeBytes)
	return nil
}
