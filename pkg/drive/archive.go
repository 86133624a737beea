package drive

import (
	"archive/zip"
	"context"
	"errors"
	"io"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/store/blob"
	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

// archiveEntry pairs a blob with the path it takes inside the archive.
type archiveEntry struct {
	blobID      metadata.BlobID
	archivePath string
}

// BatchDownload streams a zip archive of the selection to w.
//
// Directly selected files enter the archive under their display name.
// Selected folders are walked breadth-first, read-capability scoped, and
// their files enter under "folderName/.../fileName" built from the ancestor
// names accumulated during the walk; the cached path field plays no part.
// Trashed records are excluded.
//
// An empty collected set is CodeNotFound. Blobs that have gone missing by
// streaming time are logged and skipped so one lost blob does not void the
// whole archive.
func (s *Service) BatchDownload(ctx context.Context, callerID string, sel Selection, w io.Writer) error {
	if sel.empty() {
		return invalidInput("selection must not be empty")
	}

	entries, err := s.collectArchiveEntries(ctx, callerID, sel)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return notFound("no downloadable files in selection", "")
	}

	archive := zip.NewWriter(w)

	for _, entry := range entries {
		content, err := s.blobs.Open(ctx, entry.blobID)
		if err != nil {
			if errors.Is(err, blob.ErrBlobNotFound) {
				logger.Warn("Skipping missing blob %s for archive entry %s", entry.blobID, entry.archivePath)
				continue
			}
			archive.Close()
			return internal("failed to open blob", err)
		}

		header, err := archive.Create(entry.archivePath)
		if err != nil {
			content.Close()
			archive.Close()
			return internal("failed to add archive entry", err)
		}
		if _, err := io.Copy(header, content); err != nil {
			content.Close()
			archive.Close()
			return internal("failed to stream archive entry", err)
		}
		content.Close()
	}

	if err := archive.Close(); err != nil {
		return internal("failed to finalize archive", err)
	}
	return nil
}

// collectArchiveEntries flattens the selection into (blob, archive path)
// pairs. Files require read capability individually; folder walks carry the
// capability gate to every visited folder.
func (s *Service) collectArchiveEntries(ctx context.Context, callerID string, sel Selection) ([]archiveEntry, error) {
	var entries []archiveEntry

	files, err := s.meta.FilesByIDs(ctx, sel.FileIDs)
	if err != nil {
		return nil, internal("failed to load files", err)
	}
	for _, file := range files {
		if file.Deleted || !CanRead(file, callerID) {
			continue
		}
		entries = append(entries, archiveEntry{blobID: file.BlobID, archivePath: file.DisplayName})
	}

	for _, folderID := range sel.FolderIDs {
		folderEntries, err := s.collectFolderEntries(ctx, callerID, folderID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, folderEntries...)
	}

	return entries, nil
}

// collectFolderEntries walks one selected folder. Unreadable or missing
// top-level folders are silently skipped like any other unreadable item; the
// guards on depth and node count bound the walk.
func (s *Service) collectFolderEntries(ctx context.Context, callerID, folderID string) ([]archiveEntry, error) {
	root, err := s.ResolveFolder(ctx, folderID)
	if err != nil {
		if IsCode(err, CodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !CanRead(root, callerID) || root.Deleted {
		return nil, nil
	}

	type frontierEntry struct {
		folderID string
		prefix   string
		depth    int
	}

	var entries []archiveEntry
	frontier := []frontierEntry{{folderID: root.ID, prefix: root.Name + "/", depth: 0}}
	visited := 1

	for len(frontier) > 0 {
		current := frontier[0]
		frontier = frontier[1:]

		if current.depth >= s.maxTreeDepth {
			return nil, treeTooDeep(root.Path)
		}

		files, err := s.meta.ListFilesInFolder(ctx, current.folderID, false)
		if err != nil {
			return nil, internal("failed to list folder files", err)
		}
		for _, file := range files {
			if !CanRead(file, callerID) {
				continue
			}
			entries = append(entries, archiveEntry{
				blobID:      file.BlobID,
				archivePath: current.prefix + file.DisplayName,
			})
		}

		children, err := s.meta.ListFoldersInFolder(ctx, current.folderID, false)
		if err != nil {
			return nil, internal("failed to list subtree", err)
		}
		for _, child := range children {
			if !CanRead(child, callerID) {
				continue
			}
			visited++
			if visited > s.maxTreeNodes {
				return nil, treeTooDeep(root.Path)
			}
			frontier = append(frontier, frontierEntry{
				folderID: child.ID,
				prefix:   current.prefix + child.Name + "/",
				depth:    current.depth + 1,
			})
		}
	}

	return entries, nil
}
