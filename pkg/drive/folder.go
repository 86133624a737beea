package drive

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

// ResolveFolder resolves a folder token that may be either an internal id or
// a public id, so callers never need to know which flavor they hold.
//
// Legacy records without a public id get one generated and persisted on
// first resolution. The backfill is delegated to the store's atomic
// EnsureFolderPublicID, so concurrent resolutions of the same record settle
// on a single id.
func (s *Service) ResolveFolder(ctx context.Context, token string) (*metadata.FolderRecord, error) {
	if token == "" {
		return nil, invalidInput("folder token is required")
	}

	folder, err := s.meta.GetFolder(ctx, token)
	if errors.Is(err, metadata.ErrNotFound) {
		folder, err = s.meta.GetFolderByPublicID(ctx, token)
	}
	if err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			return nil, notFound("folder not found", token)
		}
		return nil, internal("failed to resolve folder", err)
	}

	if folder.PublicID == "" {
		folder, err = s.meta.EnsureFolderPublicID(ctx, folder.ID, uuid.NewString())
		if err != nil {
			return nil, internal("failed to backfill folder public id", err)
		}
	}

	return folder, nil
}

// buildPath computes the path cache value for a folder with the given name
// under parentID (nil = root).
//
// The parent's own Path is trusted as already correct; this function does
// not re-walk the ancestor chain, so correctness depends on every mutator
// keeping Path in sync on structural change.
func (s *Service) buildPath(ctx context.Context, name string, parentID *string) (string, error) {
	if parentID == nil {
		return "/" + name, nil
	}

	parent, err := s.meta.GetFolder(ctx, *parentID)
	if err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			return "", parentNotFound(*parentID)
		}
		return "", internal("failed to load parent folder", err)
	}

	return parent.Path + "/" + name, nil
}

// CreateFolder creates a folder under the parent identified by parentToken
// (empty token = the caller's root).
//
// The caller must hold write capability on the parent. The new folder starts
// active in MY_DRIVE with a fresh public id.
func (s *Service) CreateFolder(ctx context.Context, callerID, name, parentToken string) (*metadata.FolderRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidInput("folder name must not be empty")
	}

	var parentID *string
	if parentToken != "" {
		parent, err := s.ResolveFolder(ctx, parentToken)
		if err != nil {
			if IsCode(err, CodeNotFound) {
				return nil, parentNotFound(parentToken)
			}
			return nil, err
		}
		if err := requireWrite(parent, callerID, parent.Path); err != nil {
			return nil, err
		}
		parentID = &parent.ID
	}

	path, err := s.buildPath(ctx, name, parentID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	folder := &metadata.FolderRecord{
		ID:        uuid.NewString(),
		PublicID:  uuid.NewString(),
		Name:      name,
		OwnerID:   callerID,
		ParentID:  parentID,
		Location:  metadata.LocationMyDrive,
		Path:      path,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.meta.CreateFolder(ctx, folder); err != nil {
		return nil, internal("failed to persist folder", err)
	}

	logger.Debug("Created folder %s at %s for %s", folder.ID, folder.Path, callerID)
	return folder, nil
}

// FolderPatch selects the folder fields to update. Nil pointers mean "do not
// change"; set pointers are applied even when they carry the zero value.
type FolderPatch struct {
	// Name renames the folder. Empty-after-trim values are ignored rather
	// than rejected.
	Name *string

	// ParentToken moves the folder. An empty token means "move to root";
	// otherwise it is resolved like any folder token.
	ParentToken *string

	// Deleted toggles trash state. Location follows in lockstep.
	Deleted *bool

	// Starred toggles the star flag.
	Starred *bool

	// Description replaces the description.
	Description *string

	// Location overrides the location tag directly. Rarely used; Deleted
	// already maintains it.
	Location *metadata.Location
}

// UpdateFolder applies a patch to the folder identified by token.
//
// The caller must hold write capability. Reparenting requires write
// capability on the destination and rejects moves into the folder's own
// subtree, which would disconnect a cycle from the tree. Path is recomputed
// whenever a name or parent is supplied, even if unchanged, so a stale
// cached path heals on the folder's next update; descendants keep their
// cached paths until their own updates run.
func (s *Service) UpdateFolder(ctx context.Context, callerID, token string, patch FolderPatch) (*metadata.FolderRecord, error) {
	folder, err := s.ResolveFolder(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := requireWrite(folder, callerID, folder.Path); err != nil {
		return nil, err
	}

	structuralChange := false

	if patch.Name != nil {
		if name := strings.TrimSpace(*patch.Name); name != "" {
			folder.Name = name
			structuralChange = true
		}
	}

	if patch.ParentToken != nil {
		if *patch.ParentToken == "" {
			folder.ParentID = nil
		} else {
			destination, err := s.ResolveFolder(ctx, *patch.ParentToken)
			if err != nil {
				if IsCode(err, CodeNotFound) {
					return nil, parentNotFound(*patch.ParentToken)
				}
				return nil, err
			}
			if err := requireWrite(destination, callerID, destination.Path); err != nil {
				return nil, err
			}
			if err := s.ensureNotInSubtree(ctx, folder.ID, destination); err != nil {
				return nil, err
			}
			folder.ParentID = &destination.ID
		}
		structuralChange = true
	}

	if patch.Deleted != nil {
		folder.Deleted = *patch.Deleted
		if folder.Deleted {
			folder.Location = metadata.LocationTrash
		} else {
			folder.Location = metadata.LocationMyDrive
		}
	}
	if patch.Starred != nil {
		folder.Starred = *patch.Starred
	}
	if patch.Description != nil {
		folder.Description = *patch.Description
	}
	if patch.Location != nil {
		folder.Location = *patch.Location
	}

	if structuralChange {
		path, err := s.buildPath(ctx, folder.Name, folder.ParentID)
		if err != nil {
			return nil, err
		}
		folder.Path = path
	}

	folder.UpdatedAt = time.Now()
	if err := s.meta.PutFolder(ctx, folder); err != nil {
		return nil, internal("failed to persist folder", err)
	}

	return folder, nil
}

// ensureNotInSubtree rejects a reparent whose destination is the folder
// itself or one of its descendants. The ancestor chain is climbed
// iteratively with the service depth guard; a broken chain terminates the
// climb (the destination is then clearly outside the subtree).
func (s *Service) ensureNotInSubtree(ctx context.Context, folderID string, destination *metadata.FolderRecord) error {
	if destination.ID == folderID {
		return invalidInput("cannot place a folder inside its own subtree")
	}

	current := destination
	for depth := 0; current.ParentID != nil; depth++ {
		if depth >= s.maxTreeDepth {
			return treeTooDeep(destination.Path)
		}

		parent, err := s.meta.GetFolder(ctx, *current.ParentID)
		if err != nil {
			if errors.Is(err, metadata.ErrNotFound) {
				return nil
			}
			return internal("failed to walk ancestor chain", err)
		}
		if parent.ID == folderID {
			return invalidInput("cannot place a folder inside its own subtree")
		}
		current = parent
	}
	return nil
}

// FolderContents is one folder level: child folders and files the caller may
// see.
type FolderContents struct {
	Folders []*metadata.FolderRecord
	Files   []*metadata.FileRecord
}

// ListChildren lists the non-deleted children of the folder identified by
// parentToken, or of the caller's root when the token is empty. Results are
// scoped to records the caller owns or that are shared with the caller.
func (s *Service) ListChildren(ctx context.Context, callerID, parentToken string) (*FolderContents, error) {
	if parentToken == "" {
		return s.listRoot(ctx, callerID)
	}

	parent, err := s.ResolveFolder(ctx, parentToken)
	if err != nil {
		return nil, err
	}
	if err := requireRead(parent, callerID, parent.Path); err != nil {
		return nil, err
	}

	folders, err := s.meta.ListFoldersInFolder(ctx, parent.ID, false)
	if err != nil {
		return nil, internal("failed to list child folders", err)
	}
	files, err := s.meta.ListFilesInFolder(ctx, parent.ID, false)
	if err != nil {
		return nil, internal("failed to list child files", err)
	}

	contents := &FolderContents{}
	for _, folder := range folders {
		if CanRead(folder, callerID) {
			contents.Folders = append(contents.Folders, folder)
		}
	}
	for _, file := range files {
		if CanRead(file, callerID) {
			contents.Files = append(contents.Files, file)
		}
	}
	return contents, nil
}

// listRoot lists the caller's own root plus nothing else: shared items live
// under the SHARED view, not the root listing.
func (s *Service) listRoot(ctx context.Context, callerID string) (*FolderContents, error) {
	folders, err := s.meta.ListOwnerFolders(ctx, callerID)
	if err != nil {
		return nil, internal("failed to list folders", err)
	}
	files, err := s.meta.ListOwnerFiles(ctx, callerID)
	if err != nil {
		return nil, internal("failed to list files", err)
	}

	contents := &FolderContents{}
	for _, folder := range folders {
		if folder.ParentID == nil && !folder.Deleted {
			contents.Folders = append(contents.Folders, folder)
		}
	}
	for _, file := range files {
		if file.FolderID == nil && !file.Deleted {
			contents.Files = append(contents.Files, file)
		}
	}
	return contents, nil
}

// ListShared lists records shared with the caller, excluding deleted ones.
func (s *Service) ListShared(ctx context.Context, callerID string) (*FolderContents, error) {
	folders, err := s.meta.ListSharedFolders(ctx, callerID)
	if err != nil {
		return nil, internal("failed to list shared folders", err)
	}
	files, err := s.meta.ListSharedFiles(ctx, callerID)
	if err != nil {
		return nil, internal("failed to list shared files", err)
	}
	return &FolderContents{Folders: folders, Files: files}, nil
}

// ListTrashed lists the caller's soft-deleted records.
//
// Trash does not cascade: a child of a trashed folder appears here only if it
// was trashed itself (see the batch coordinator notes).
func (s *Service) ListTrashed(ctx context.Context, callerID string) (*FolderContents, error) {
	folders, err := s.meta.ListOwnerFolders(ctx, callerID)
	if err != nil {
		return nil, internal("failed to list folders", err)
	}
	files, err := s.meta.ListOwnerFiles(ctx, callerID)
	if err != nil {
		return nil, internal("failed to list files", err)
	}

	contents := &FolderContents{}
	for _, folder := range folders {
		if folder.Deleted {
			contents.Folders = append(contents.Folders, folder)
		}
	}
	for _, file := range files {
		if file.Deleted {
			contents.Files = append(contents.Files, file)
		}
	}
	return contents, nil
}

// ListStarred lists the caller's starred, non-deleted records.
func (s *Service) ListStarred(ctx context.Context, callerID string) (*FolderContents, error) {
	folders, err := s.meta.ListOwnerFolders(ctx, callerID)
	if err != nil {
		return nil, internal("failed to list folders", err)
	}
	files, err := s.meta.ListOwnerFiles(ctx, callerID)
	if err != nil {
		return nil, internal("failed to list files", err)
	}

	contents := &FolderContents{}
	for _, folder := range folders {
		if folder.Starred && !folder.Deleted {
			contents.Folders = append(contents.Folders, folder)
		}
	}
	for _, file := range files {
		if file.Starred && !file.Deleted {
			contents.Files = append(contents.Files, file)
		}
	}
	return contents, nil
}

// BreadcrumbEntry is one step of a folder's ancestor chain.
type BreadcrumbEntry struct {
	// ID is the internal folder id; empty for the synthetic root entry.
	ID string `json:"id"`

	// PublicID is the shareable id; empty for the synthetic root entry.
	PublicID string `json:"public_id,omitempty"`

	// Name is the folder name ("My Drive" for the root entry).
	Name string `json:"name"`
}

// Breadcrumb returns the ancestor chain of the folder identified by token,
// ordered root-first and prefixed with a synthetic "My Drive" root entry.
//
// The caller must hold read capability on the target folder only. A broken
// parent reference terminates the climb without failing; partially migrated
// trees still render a usable trail.
func (s *Service) Breadcrumb(ctx context.Context, callerID, token string) ([]BreadcrumbEntry, error) {
	folder, err := s.ResolveFolder(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := requireRead(folder, callerID, folder.Path); err != nil {
		return nil, err
	}

	// Collected child-first, reversed below.
	chain := []BreadcrumbEntry{{ID: folder.ID, PublicID: folder.PublicID, Name: folder.Name}}

	current := folder
	for depth := 0; current.ParentID != nil; depth++ {
		if depth >= s.maxTreeDepth {
			return nil, treeTooDeep(folder.Path)
		}

		parent, err := s.meta.GetFolder(ctx, *current.ParentID)
		if err != nil {
			if errors.Is(err, metadata.ErrNotFound) {
				break
			}
			return nil, internal("failed to walk ancestor chain", err)
		}
		chain = append(chain, BreadcrumbEntry{ID: parent.ID, PublicID: parent.PublicID, Name: parent.Name})
		current = parent
	}

	chain = append(chain, BreadcrumbEntry{Name: "My Drive"})

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}
