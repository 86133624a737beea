package drive

import (
	"context"
	"fmt"

	"github.com/marmos91/dittodrive/internal/logger"
)

// UsageReport is a point-in-time view of an owner's storage accounting.
type UsageReport struct {
	// UsedBytes is the running counter of stored bytes.
	UsedBytes uint64 `json:"used_bytes"`

	// LimitBytes is the owner's quota.
	LimitBytes uint64 `json:"limit_bytes"`

	// RemainingBytes is the admission headroom left.
	RemainingBytes uint64 `json:"remaining_bytes"`
}

// Usage reports the caller's current storage accounting. Owners without an
// explicit account record get the service default quota and zero usage.
func (s *Service) Usage(ctx context.Context, callerID string) (*UsageReport, error) {
	account, err := s.meta.GetAccount(ctx, callerID)
	if err != nil {
		return nil, internal("failed to load account", err)
	}

	limit := account.StorageLimit
	if limit == 0 {
		limit = s.quotaBytes
	}

	report := &UsageReport{UsedBytes: account.StorageUsed, LimitBytes: limit}
	if report.UsedBytes < limit {
		report.RemainingBytes = limit - report.UsedBytes
	}
	return report, nil
}

// checkQuota admits or rejects an incoming write of size bytes.
//
// Admission is advisory: it reads the current counter without holding any
// lock across the subsequent write, so concurrent uploads can overshoot the
// quota by at most the in-flight sizes. That is the intended trade; the
// counter is an accounting signal, not a hard reservation.
func (s *Service) checkQuota(ctx context.Context, ownerID string, size uint64) error {
	account, err := s.meta.GetAccount(ctx, ownerID)
	if err != nil {
		return internal("failed to load account", err)
	}

	limit := account.StorageLimit
	if limit == 0 {
		limit = s.quotaBytes
	}

	if account.StorageUsed+size > limit {
		return quotaExceeded(fmt.Sprintf("upload of %d bytes exceeds quota (%d of %d bytes used)",
			size, account.StorageUsed, limit))
	}
	return nil
}

// debitUsage charges size bytes against the owner's counter. Accounting
// failures are logged, not propagated: the stored data is the source of
// truth and the reconciler repairs counter drift.
func (s *Service) debitUsage(ctx context.Context, ownerID string, size uint64) {
	if _, err := s.meta.AdjustUsage(ctx, ownerID, int64(size)); err != nil {
		logger.Error("Failed to debit %d bytes for %s: %v", size, ownerID, err)
	}
}

// creditUsage refunds size bytes to the owner's counter. The store clamps at
// zero, so double credits cannot drive the counter negative.
func (s *Service) creditUsage(ctx context.Context, ownerID string, size uint64) {
	if _, err := s.meta.AdjustUsage(ctx, ownerID, -int64(size)); err != nil {
		logger.Error("Failed to credit %d bytes for %s: %v", size, ownerID, err)
	}
}
