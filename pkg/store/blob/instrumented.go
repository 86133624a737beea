package blob

import (
	"context"
	"io"
	"time"

	"github.com/marmos91/dittodrive/pkg/metrics"
	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

// WithMetrics wraps a blob store so every operation is observed. When m is
// nil the store is returned unwrapped.
func WithMetrics(inner Store, m metrics.BlobMetrics) Store {
	if m == nil {
		return inner
	}
	return &instrumentedStore{inner: inner, metrics: m}
}

// instrumentedStore records operation counts, latency and bytes moved for an
// underlying blob store.
type instrumentedStore struct {
	inner   Store
	metrics metrics.BlobMetrics
}

func (s *instrumentedStore) Put(ctx context.Context, r io.Reader) (metadata.BlobID, uint64, error) {
	start := time.Now()
	id, written, err := s.inner.Put(ctx, r)
	s.metrics.ObserveOperation("Put", time.Since(start), err)
	if err == nil {
		s.metrics.RecordBytes("write", int64(written))
	}
	return id, written, err
}

func (s *instrumentedStore) Open(ctx context.Context, id metadata.BlobID) (io.ReadCloser, error) {
	start := time.Now()
	rc, err := s.inner.Open(ctx, id)
	s.metrics.ObserveOperation("Open", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return &countingReadCloser{inner: rc, metrics: s.metrics}, nil
}

func (s *instrumentedStore) Stat(ctx context.Context, id metadata.BlobID) (uint64, error) {
	start := time.Now()
	size, err := s.inner.Stat(ctx, id)
	s.metrics.ObserveOperation("Stat", time.Since(start), err)
	return size, err
}

func (s *instrumentedStore) Exists(ctx context.Context, id metadata.BlobID) (bool, error) {
	start := time.Now()
	exists, err := s.inner.Exists(ctx, id)
	s.metrics.ObserveOperation("Exists", time.Since(start), err)
	return exists, err
}

func (s *instrumentedStore) Delete(ctx context.Context, id metadata.BlobID) error {
	start := time.Now()
	err := s.inner.Delete(ctx, id)
	s.metrics.ObserveOperation("Delete", time.Since(start), err)
	return err
}

func (s *instrumentedStore) List(ctx context.Context) ([]metadata.BlobID, error) {
	start := time.Now()
	ids, err := s.inner.List(ctx)
	s.metrics.ObserveOperation("List", time.Since(start), err)
	return ids, err
}

// countingReadCloser reports bytes actually read from an opened blob.
type countingReadCloser struct {
	inner   io.ReadCloser
	metrics metrics.BlobMetrics
}

func (c *countingReadCloser) Read(p []byte) (int, error) {
	n, err := c.inner.Read(p)
	if n > 0 {
		c.metrics.RecordBytes("read", int64(n))
	}
	return n, err
}

func (c *countingReadCloser) Close() error {
	return c.inner.Close()
}
