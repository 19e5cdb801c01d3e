package engagement

import (
	"context"
	"fmt"

	"github.com/ignite/engagement-tracker/internal/metrics"
	"github.com/ignite/engagement-tracker/internal/pkg/distlock"
	"github.com/ignite/engagement-tracker/internal/pkg/logger"
)

// Aggregator keeps Campaign.opened_count/clicked_count equal to the true
// recipient counts. It is a two-tier strategy:
//
//   - primary: a single atomic, campaign-scoped recompute-and-write
//     statement in the campaign repository
//   - fallback: count engaged recipients in the recipient repository and
//     write the pair directly
//
// Both paths are idempotent and converge to the same numbers for the same
// underlying recipient data, so the aggregator self-heals: a failed or
// skipped refresh is corrected by the next ingestion event.
type Aggregator struct {
	campaigns  CampaignRepository
	recipients RecipientRepository

	// lockFor optionally returns a campaign-scoped lock used to serialize
	// fallback recomputes under ingestion bursts. Skipping a refresh when
	// the lock is contended is safe; correctness never depends on locking.
	lockFor func(campaignID string) distlock.DistLock
}

// NewAggregator creates an aggregator over the given repositories.
func NewAggregator(campaigns CampaignRepository, recipients RecipientRepository) *Aggregator {
	return &Aggregator{campaigns: campaigns, recipients: recipients}
}

// WithLock installs a campaign-scoped lock factory for the fallback path.
func (a *Aggregator) WithLock(lockFor func(campaignID string) distlock.DistLock) *Aggregator {
	a.lockFor = lockFor
	return a
}

// Refresh brings a campaign's rollups in line with its recipient rows.
// It tries the atomic primary path first and degrades to the fallback
// recompute, logging which path executed.
func (a *Aggregator) Refresh(ctx context.Context, campaignID string) error {
	err := a.campaigns.RefreshEngagementCounts(ctx, campaignID)
	if err == nil {
		metrics.AggregationRuns.WithLabelValues("primary").Inc()
		return nil
	}

	logger.Warn("primary aggregation failed, using fallback recompute",
		"campaign_id", campaignID, "error", err.Error())

	if err := a.refreshFallback(ctx, campaignID); err != nil {
		metrics.AggregationRuns.WithLabelValues("failed").Inc()
		return err
	}
	metrics.AggregationRuns.WithLabelValues("fallback").Inc()
	return nil
}

func (a *Aggregator) refreshFallback(ctx context.Context, campaignID string) error {
	if a.lockFor != nil {
		lock := a.lockFor(campaignID)
		ok, err := lock.Acquire(ctx)
		if err != nil {
			logger.Warn("aggregation lock unavailable, recomputing unlocked",
				"campaign_id", campaignID, "error", err.Error())
		} else if !ok {
			// Another refresh is already recomputing this campaign; the
			// next ingestion event triggers another attempt anyway.
			logger.Debug("aggregation already in progress, skipping",
				"campaign_id", campaignID)
			return nil
		} else {
			defer lock.Release(ctx)
		}
	}

	opened, clicked, err := a.recipients.CountEngaged(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("count engaged recipients: %w", err)
	}
	if err := a.campaigns.SetEngagementCounts(ctx, campaignID, opened, clicked); err != nil {
		return fmt.Errorf("write engagement counts: %w", err)
	}
	return nil
}
