package engagement

import (
	"context"

	"github.com/ignite/engagement-tracker/internal/domain"
	"github.com/ignite/engagement-tracker/internal/pkg/logger"
)

// Notifier is the activity-timeline collaborator interface. It is informed
// of first-open and click events after a successful state transition.
type Notifier interface {
	NotifyEngagement(ctx context.Context, e domain.Engagement) error
}

// NopNotifier discards notifications. Used when no queue is configured.
type NopNotifier struct{}

// NotifyEngagement implements Notifier.
func (NopNotifier) NotifyEngagement(context.Context, domain.Engagement) error { return nil }

// BestEffort wraps a Notifier so that failures are logged and swallowed.
// Notification is a side effect of ingestion and must never delay or fail
// the pixel/redirect response; wrapping makes that policy explicit rather
// than burying an ignored error at the call site.
type BestEffort struct {
	next Notifier
}

// NewBestEffort wraps next in the swallow-errors policy.
func NewBestEffort(next Notifier) *BestEffort {
	return &BestEffort{next: next}
}

// NotifyEngagement delivers the notification and always returns nil.
func (b *BestEffort) NotifyEngagement(ctx context.Context, e domain.Engagement) error {
	if err := b.next.NotifyEngagement(ctx, e); err != nil {
		logger.Warn("engagement notification dropped",
			"kind", string(e.Kind),
			"campaign_id", e.CampaignID,
			"contact_id", e.ContactID,
			"error", err.Error(),
		)
	}
	return nil
}
