package drive

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/store/blob"
	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

// Download is an open file handle plus the metadata a caller needs to serve
// it. Content must be closed by the caller.
type Download struct {
	File    *metadata.FileRecord
	Content io.ReadCloser
}

// OpenFile opens a file for reading. The caller must hold read capability;
// a record whose blob has gone missing surfaces as CodeBlobMissing so the
// condition is distinguishable from a plain not-found.
//
// The last-access timestamp is updated best-effort after the open; a failed
// touch never blocks the download.
func (s *Service) OpenFile(ctx context.Context, callerID, fileID string) (*Download, error) {
	file, err := s.meta.GetFile(ctx, fileID)
	if err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			return nil, notFound("file not found", fileID)
		}
		return nil, internal("failed to load file", err)
	}
	if err := requireRead(file, callerID, file.DisplayName); err != nil {
		return nil, err
	}

	content, err := s.blobs.Open(ctx, file.BlobID)
	if err != nil {
		if errors.Is(err, blob.ErrBlobNotFound) {
			return nil, blobMissing(file.DisplayName)
		}
		return nil, internal("failed to open file content", err)
	}

	touched := *file
	touched.LastAccessedAt = time.Now()
	if err := s.meta.PutFile(ctx, &touched); err != nil {
		logger.Warn("Failed to record access time for file %s: %v", file.ID, err)
	}

	return &Download{File: file, Content: content}, nil
}

// StatFile returns the file record without opening content. The caller must
// hold read capability.
func (s *Service) StatFile(ctx context.Context, callerID, fileID string) (*metadata.FileRecord, error) {
	file, err := s.meta.GetFile(ctx, fileID)
	if err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			return nil, notFound("file not found", fileID)
		}
		return nil, internal("failed to load file", err)
	}
	if err := requireRead(file, callerID, file.DisplayName); err != nil {
		return nil, err
	}
	return file, nil
}
