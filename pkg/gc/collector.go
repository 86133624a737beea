// Package gc provides reconciliation of metadata/blob drift.
//
// The drive core writes blobs and file records without a cross-store
// transaction, so the two can drift apart:
//   - Crashes between blob write and record create leave orphaned blobs
//   - Failed compensations after metadata errors leave orphaned blobs
//   - Lost blobs leave records whose downloads fail with a missing-blob error
//
// The collector periodically scans both stores, deletes blobs no record
// references, and reports records whose blob has gone missing. It never
// deletes metadata: a dangling record is user-visible state that an operator
// (or the owner) should resolve deliberately.
package gc

import (
	"context"
	"fmt"
	"time"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/metrics"
	"github.com/marmos91/dittodrive/pkg/store/blob"
	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

// Collector performs periodic reconciliation sweeps.
//
// The collector runs in the background and periodically compares the blob
// store's contents against the file records' blob references.
//
// Thread Safety: Safe for concurrent use.
type Collector struct {
	meta   metadata.Store
	blobs  blob.Store
	config Config
	stopCh chan struct{}
	doneCh chan struct{}
}

// Config contains configuration for the reconciliation sweep.
type Config struct {
	// Enabled controls whether reconciliation is active (default: true).
	Enabled bool

	// Interval is how often to run a sweep (default: 24h).
	Interval time.Duration

	// BatchSize caps how many orphaned blobs are deleted per batch, with a
	// cancellation check between batches (default: 1000).
	BatchSize int

	// DryRun logs what would be deleted without actually deleting.
	// Useful for validating a deployment before enabling cleanup.
	DryRun bool

	// Metrics observes completed sweeps. Nil disables collection.
	Metrics metrics.SweepMetrics
}

// NewCollector creates a new reconciliation collector.
//
// The collector is initialized but not started. Call Start to begin
// background sweeps, or RunNow for a one-shot pass.
func NewCollector(meta metadata.Store, blobs blob.Store, config Config) *Collector {
	if config.Interval == 0 {
		config.Interval = 24 * time.Hour
	}
	if config.BatchSize == 0 {
		config.BatchSize = 1000
	}

	return &Collector{
		meta:   meta,
		blobs:  blobs,
		config: config,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins background reconciliation.
//
// This starts a goroutine that sweeps at the configured interval until Stop
// is called.
func (c *Collector) Start() {
	if !c.config.Enabled {
		logger.Info("Reconciliation sweep disabled")
		return
	}

	logger.Info("Starting reconciliation sweep: interval=%s batch_size=%d dry_run=%v",
		c.config.Interval, c.config.BatchSize, c.config.DryRun)

	go c.worker()
}

// Stop stops the collector and waits for any in-progress sweep to finish.
// Returns the context error if the deadline expires first.
func (c *Collector) Stop(ctx context.Context) error {
	if !c.config.Enabled {
		return nil
	}

	logger.Info("Stopping reconciliation sweep...")

	close(c.stopCh)

	select {
	case <-c.doneCh:
		logger.Info("Reconciliation sweep stopped")
		return nil
	case <-ctx.Done():
		logger.Warn("Reconciliation sweep shutdown timeout")
		return ctx.Err()
	}
}

// RunNow triggers an immediate sweep, blocking until it completes or the
// context is cancelled. Useful for tests, admin triggers and startup
// cleanup.
func (c *Collector) RunNow(ctx context.Context) (*Stats, error) {
	logger.Info("Running reconciliation sweep (manual trigger)...")
	return c.sweep(ctx)
}

// worker is the background goroutine running periodic sweeps.
func (c *Collector) worker() {
	defer close(c.doneCh)

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	logger.Info("Reconciliation worker started")

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			stats, err := c.sweep(ctx)
			cancel()

			if err != nil {
				logger.Error("Reconciliation sweep failed: %v", err)
			} else {
				logger.Info("Reconciliation sweep completed: %s", stats.Summary())
			}

		case <-c.stopCh:
			logger.Info("Reconciliation worker stopping...")
			return
		}
	}
}

// sweep runs one reconciliation pass and reports it to the configured
// metrics sink.
func (c *Collector) sweep(ctx context.Context) (*Stats, error) {
	stats, err := c.reconcile(ctx)
	if c.config.Metrics != nil {
		c.config.Metrics.RecordSweep(stats.DeletedCount, stats.FailedCount, stats.DanglingCount, stats.Duration(), err)
	}
	return stats, err
}

// reconcile performs a single reconciliation run:
//  1. Collect every BlobID referenced by a file record
//  2. List every blob the blob store holds
//  3. Delete blobs with no referencing record (orphans)
//  4. Report records whose blob is gone (dangling)
func (c *Collector) reconcile(ctx context.Context) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}

	files, err := c.meta.AllFiles(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list file records: %w", err)
	}

	referenced := make(map[metadata.BlobID]struct{}, len(files))
	for _, file := range files {
		if file.BlobID != "" {
			referenced[file.BlobID] = struct{}{}
		}
	}
	stats.ReferencedCount = uint64(len(referenced))

	existing, err := c.blobs.List(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list blobs: %w", err)
	}
	stats.ExistingCount = uint64(len(existing))

	existingSet := make(map[metadata.BlobID]struct{}, len(existing))
	var orphaned []metadata.BlobID
	for _, id := range existing {
		existingSet[id] = struct{}{}
		if _, ok := referenced[id]; !ok {
			orphaned = append(orphaned, id)
		}
	}
	stats.OrphanedCount = uint64(len(orphaned))

	// Dangling records are reported, never deleted here.
	for _, file := range files {
		if file.BlobID == "" {
			continue
		}
		if _, ok := existingSet[file.BlobID]; !ok {
			stats.DanglingCount++
			logger.Warn("GC: file record %s references missing blob %s", file.ID, file.BlobID)
		}
	}

	if len(orphaned) == 0 {
		stats.EndTime = time.Now()
		return stats, nil
	}

	logger.Info("GC: Found %d orphaned blobs", stats.OrphanedCount)

	if c.config.DryRun {
		logger.Info("GC: DRY RUN - Would delete %d blobs:", stats.OrphanedCount)
		for i, id := range orphaned {
			if i < 10 {
				logger.Info("  - %s", id)
			}
		}
		if len(orphaned) > 10 {
			logger.Info("  ... and %d more", len(orphaned)-10)
		}
		stats.EndTime = time.Now()
		return stats, nil
	}

	for i := 0; i < len(orphaned); i += c.config.BatchSize {
		if err := ctx.Err(); err != nil {
			stats.EndTime = time.Now()
			return stats, err
		}

		end := i + c.config.BatchSize
		if end > len(orphaned) {
			end = len(orphaned)
		}

		for _, id := range orphaned[i:end] {
			if err := c.blobs.Delete(ctx, id); err != nil {
				logger.Debug("GC: Failed to delete blob %s: %v", id, err)
				stats.FailedCount++
				continue
			}
			stats.DeletedCount++
		}

		logger.Debug("GC: Processed batch %d-%d", i, end)
	}

	stats.EndTime = time.Now()

	logger.Info("GC: Completed - deleted %d blobs, %d failed, duration=%s",
		stats.DeletedCount, stats.FailedCount, stats.Duration())

	return stats, nil
}

// Stats contains statistics from a reconciliation run.
type Stats struct {
	StartTime       time.Time // When the sweep started
	EndTime         time.Time // When the sweep ended
	ReferencedCount uint64    // Distinct BlobIDs referenced by records
	ExistingCount   uint64    // Blobs present in the blob store
	OrphanedCount   uint64    // Blobs with no referencing record
	DanglingCount   uint64    // Records whose blob is missing
	DeletedCount    uint64    // Orphaned blobs successfully deleted
	FailedCount     uint64    // Orphaned blobs that failed to delete
}

// Duration returns the total sweep duration.
func (s *Stats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Summary returns a human-readable summary of the sweep.
func (s *Stats) Summary() string {
	return fmt.Sprintf("referenced=%d existing=%d orphaned=%d dangling=%d deleted=%d failed=%d duration=%s",
		s.ReferencedCount, s.ExistingCount, s.OrphanedCount,
		s.DanglingCount, s.DeletedCount, s.FailedCount, s.Duration())
}
