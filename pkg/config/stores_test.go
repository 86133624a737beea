package config

import (
	"context"
	"testing"
)

func TestCreateMetadataStore(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		store, err := CreateMetadataStore(ctx, MetadataConfig{Type: "memory"})
		if err != nil {
			t.Fatalf("Failed to create memory store: %v", err)
		}
		defer store.Close()

		if err := store.Healthcheck(ctx); err != nil {
			t.Errorf("Healthcheck failed: %v", err)
		}
	})

	t.Run("badger", func(t *testing.T) {
		store, err := CreateMetadataStore(ctx, MetadataConfig{
			Type:   "badger",
			Badger: map[string]any{"db_path": t.TempDir()},
		})
		if err != nil {
			t.Fatalf("Failed to create badger store: %v", err)
		}
		defer store.Close()

		if err := store.Healthcheck(ctx); err != nil {
			t.Errorf("Healthcheck failed: %v", err)
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		if _, err := CreateMetadataStore(ctx, MetadataConfig{Type: "etcd"}); err == nil {
			t.Error("Expected error for unknown store type")
		}
	})
}

func TestCreateBlobStore(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		if _, err := CreateBlobStore(ctx, BlobConfig{Type: "memory"}); err != nil {
			t.Fatalf("Failed to create memory store: %v", err)
		}
	})

	t.Run("filesystem", func(t *testing.T) {
		store, err := CreateBlobStore(ctx, BlobConfig{
			Type:       "filesystem",
			Filesystem: map[string]any{"path": t.TempDir()},
		})
		if err != nil {
			t.Fatalf("Failed to create filesystem store: %v", err)
		}
		if _, err := store.List(ctx); err != nil {
			t.Errorf("Expected empty listing, got %v", err)
		}
	})

	t.Run("s3 requires bucket and region", func(t *testing.T) {
		if _, err := CreateBlobStore(ctx, BlobConfig{
			Type: "s3",
			S3:   map[string]any{"region": "eu-west-1"},
		}); err == nil {
			t.Error("Expected error for missing bucket")
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		if _, err := CreateBlobStore(ctx, BlobConfig{Type: "tape"}); err == nil {
			t.Error("Expected error for unknown store type")
		}
	})
}
