package drive

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

// CopyFolderTree duplicates the folder identified by token and its live
// descendant folders into the caller's space.
//
// The copy root lands under the folder identified by destinationToken, or
// next to the original (same parent) when the token is empty, under newName
// or "<original> (copy)" when newName is empty. The caller needs write
// capability on the destination, and a destination inside the source
// subtree is rejected: the walk would otherwise re-copy its own output.
// Copies are owned by the caller, unshared and unstarred regardless of the
// originals; descriptions are inherited. Trashed descendants and files are
// not copied; only the folder skeleton is duplicated.
//
// The walk is iterative with an explicit frontier. Depth is bounded by the
// service limit and total visited nodes by the node limit, so a corrupted
// parent graph cannot pin the process.
func (s *Service) CopyFolderTree(ctx context.Context, callerID, token, destinationToken, newName string) (*metadata.FolderRecord, error) {
	source, err := s.ResolveFolder(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := requireRead(source, callerID, source.Path); err != nil {
		return nil, err
	}

	parentID := source.ParentID
	if destinationToken != "" {
		destination, err := s.ResolveFolder(ctx, destinationToken)
		if err != nil {
			if IsCode(err, CodeNotFound) {
				return nil, parentNotFound(destinationToken)
			}
			return nil, err
		}
		if err := requireWrite(destination, callerID, destination.Path); err != nil {
			return nil, err
		}
		if err := s.ensureNotInSubtree(ctx, source.ID, destination); err != nil {
			return nil, err
		}
		parentID = &destination.ID
	}

	if newName == "" {
		newName = source.Name + " (copy)"
	}

	now := time.Now()
	rootCopy := &metadata.FolderRecord{
		ID:          uuid.NewString(),
		PublicID:    uuid.NewString(),
		Name:        newName,
		OwnerID:     callerID,
		ParentID:    parentID,
		Location:    metadata.LocationMyDrive,
		Description: source.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	path, err := s.buildPath(ctx, rootCopy.Name, rootCopy.ParentID)
	if err != nil {
		return nil, err
	}
	rootCopy.Path = path

	if err := s.meta.CreateFolder(ctx, rootCopy); err != nil {
		return nil, internal("failed to persist folder copy", err)
	}

	type frontierEntry struct {
		sourceID string
		copy     *metadata.FolderRecord
		depth    int
	}

	frontier := []frontierEntry{{sourceID: source.ID, copy: rootCopy, depth: 0}}
	visited := 1

	for len(frontier) > 0 {
		entry := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]

		if entry.depth >= s.maxTreeDepth {
			return nil, treeTooDeep(source.Path)
		}

		children, err := s.meta.ListFoldersInFolder(ctx, entry.sourceID, false)
		if err != nil {
			return nil, internal("failed to list subtree", err)
		}

		for _, child := range children {
			visited++
			if visited > s.maxTreeNodes {
				return nil, treeTooDeep(source.Path)
			}

			childCopy := &metadata.FolderRecord{
				ID:          uuid.NewString(),
				PublicID:    uuid.NewString(),
				Name:        child.Name,
				OwnerID:     callerID,
				ParentID:    &entry.copy.ID,
				Location:    metadata.LocationMyDrive,
				Description: child.Description,
				Path:        entry.copy.Path + "/" + child.Name,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := s.meta.CreateFolder(ctx, childCopy); err != nil {
				return nil, internal("failed to persist folder copy", err)
			}
			frontier = append(frontier, frontierEntry{sourceID: child.ID, copy: childCopy, depth: entry.depth + 1})
		}
	}

	logger.Info("Copied folder tree %s -> %s (%d folders) for %s", source.ID, rootCopy.ID, visited, callerID)
	return rootCopy, nil
}
