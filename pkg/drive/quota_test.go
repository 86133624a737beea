package drive_test

import (
	"context"
	"strings"
	"testing"

	"github.com/marmos91/dittodrive/pkg/drive"
	blobmemory "github.com/marmos91/dittodrive/pkg/store/blob/memory"
	"github.com/marmos91/dittodrive/pkg/store/metadata"
	metamemory "github.com/marmos91/dittodrive/pkg/store/metadata/memory"
)

func TestUploadRejectedOverQuota(t *testing.T) {
	ctx := context.Background()
	meta := metamemory.NewMemoryStore()
	blobs := blobmemory.NewMemoryBlobStore()
	svc := drive.NewService(meta, blobs, drive.Options{DefaultQuotaBytes: 10})

	if _, err := svc.UploadFile(ctx, "U1", drive.UploadRequest{
		Name:         "small.txt",
		DeclaredSize: 8,
		Content:      strings.NewReader("12345678"),
	}); err != nil {
		t.Fatalf("Failed to upload within quota: %v", err)
	}

	_, err := svc.UploadFile(ctx, "U1", drive.UploadRequest{
		Name:         "big.txt",
		DeclaredSize: 8,
		Content:      strings.NewReader("12345678"),
	})
	if !drive.IsCode(err, drive.CodeQuotaExceeded) {
		t.Fatalf("Expected CodeQuotaExceeded, got %v", err)
	}

	// The rejected upload must not have written a blob.
	ids, listErr := blobs.List(ctx)
	if listErr != nil {
		t.Fatalf("Failed to list blobs: %v", listErr)
	}
	if len(ids) != 1 {
		t.Errorf("Expected rejected upload to leave no blob, found %d", len(ids))
	}
}

func TestAccountLimitOverridesDefault(t *testing.T) {
	ctx := context.Background()
	meta := metamemory.NewMemoryStore()
	blobs := blobmemory.NewMemoryBlobStore()
	svc := drive.NewService(meta, blobs, drive.Options{DefaultQuotaBytes: 5})

	if err := meta.PutAccount(ctx, &metadata.Account{OwnerID: "U1", StorageLimit: 100}); err != nil {
		t.Fatalf("Failed to seed account: %v", err)
	}

	if _, err := svc.UploadFile(ctx, "U1", drive.UploadRequest{
		Name:         "ok.txt",
		DeclaredSize: 50,
		Content:      strings.NewReader(strings.Repeat("x", 50)),
	}); err != nil {
		t.Fatalf("Expected per-account limit to admit the upload, got %v", err)
	}
}

func TestUsageReport(t *testing.T) {
	ctx := context.Background()
	meta := metamemory.NewMemoryStore()
	blobs := blobmemory.NewMemoryBlobStore()
	svc := drive.NewService(meta, blobs, drive.Options{DefaultQuotaBytes: 100})

	mustUpload(t, svc, "U1", "a.txt", "", "1234567890")

	report, err := svc.Usage(ctx, "U1")
	if err != nil {
		t.Fatalf("Failed to read usage: %v", err)
	}
	if report.UsedBytes != 10 {
		t.Errorf("Expected 10 bytes used, got %d", report.UsedBytes)
	}
	if report.LimitBytes != 100 {
		t.Errorf("Expected limit 100, got %d", report.LimitBytes)
	}
	if report.RemainingBytes != 90 {
		t.Errorf("Expected 90 bytes remaining, got %d", report.RemainingBytes)
	}
}

// The usage counter never goes negative, even when credits outrun debits
// after a counter reset.
func TestUsageCreditClampsAtZero(t *testing.T) {
	ctx := context.Background()
	meta := metamemory.NewMemoryStore()

	if _, err := meta.AdjustUsage(ctx, "U1", 5); err != nil {
		t.Fatalf("Failed to debit: %v", err)
	}
	used, err := meta.AdjustUsage(ctx, "U1", -50)
	if err != nil {
		t.Fatalf("Failed to credit: %v", err)
	}
	if used != 0 {
		t.Errorf("Expected counter clamped at zero, got %d", used)
	}
}
