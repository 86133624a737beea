// Package s3 implements S3-based blob storage for DittoDrive.
//
// Blobs are stored as individual objects keyed by blob id (with an optional
// key prefix), against Amazon S3 or any compatible endpoint (MinIO,
// Localstack). The client is injected fully constructed; endpoint and
// credential wiring lives in pkg/config.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/marmos91/dittodrive/pkg/store/blob"
	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

// S3BlobStore implements blob.Store backed by an S3 bucket.
//
// Thread Safety:
// The AWS SDK client is safe for concurrent use, and blob ids are
// single-writer, so no additional locking is needed.
type S3BlobStore struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
}

// S3BlobStoreConfig contains the dependencies for an S3 blob store.
type S3BlobStoreConfig struct {
	// Client is the fully configured S3 client (required).
	Client *s3.Client

	// Bucket is the bucket blobs are stored in (required).
	Bucket string

	// KeyPrefix is prepended to every object key (optional, e.g.
	// "dittodrive/").
	KeyPrefix string
}

// NewS3BlobStore creates an S3 blob store and verifies bucket access with a
// HeadBucket call so misconfiguration fails at startup rather than on the
// first upload.
func NewS3BlobStore(ctx context.Context, cfg S3BlobStoreConfig) (*S3BlobStore, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	_, err := cfg.Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}

	return &S3BlobStore{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

// objectKey returns the full S3 object key for a blob id.
func (s *S3BlobStore) objectKey(id metadata.BlobID) string {
	return s.keyPrefix + string(id)
}

// isNotFound reports whether an S3 error indicates a missing object.
// GetObject surfaces *types.NoSuchKey while HeadObject surfaces *types.NotFound.
func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}

// Put implements blob.Store.
//
// The payload is buffered in memory before the PutObject call because the SDK
// needs a sized body for a single-shot upload. Drive uploads are bounded by
// the per-user quota, which keeps this within reason.
func (s *S3BlobStore) Put(ctx context.Context, r io.Reader) (metadata.BlobID, uint64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read blob payload: %w", err)
	}

	id := metadata.BlobID(uuid.NewString())

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(id)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return "", 0, fmt.Errorf("failed to put blob to S3: %w", err)
	}

	return id, uint64(len(data)), nil
}

// Open implements blob.Store.
func (s *S3BlobStore) Open(ctx context.Context, id metadata.BlobID) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(id)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("blob %s: %w", id, blob.ErrBlobNotFound)
		}
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}

	return result.Body, nil
}

// Stat implements blob.Store.
func (s *S3BlobStore) Stat(ctx context.Context, id metadata.BlobID) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	result, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(id)),
	})
	if err != nil {
		if isNotFound(err) {
			return 0, fmt.Errorf("blob %s: %w", id, blob.ErrBlobNotFound)
		}
		return 0, fmt.Errorf("failed to head object: %w", err)
	}

	if result.ContentLength == nil {
		return 0, fmt.Errorf("content length not available for blob %s", id)
	}
	return uint64(*result.ContentLength), nil
}

// Exists implements blob.Store.
func (s *S3BlobStore) Exists(ctx context.Context, id metadata.BlobID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(id)),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}
	return true, nil
}

// Delete implements blob.Store. S3 DeleteObject is already idempotent.
func (s *S3BlobStore) Delete(ctx context.Context, id metadata.BlobID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(id)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete blob %s: %w", id, err)
	}
	return nil
}

// List implements blob.Store. Pages through ListObjectsV2 under the key
// prefix.
func (s *S3BlobStore) List(ctx context.Context) ([]metadata.BlobID, error) {
	var ids []metadata.BlobID

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.keyPrefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list blobs: %w", err)
		}
		for _, object := range page.Contents {
			if object.Key == nil {
				continue
			}
			key := *object.Key
			if len(key) < len(s.keyPrefix) {
				continue
			}
			ids = append(ids, metadata.BlobID(key[len(s.keyPrefix):]))
		}
	}

	return ids, nil
}
