package engagement

import (
	"context"
	"time"

	"github.com/ignite/engagement-tracker/internal/domain"
)

// RecipientRepository defines data access for per-recipient engagement
// records. Implementations must be safe for concurrent use, and the Apply*
// methods must execute the whole read-modify-write as one atomic operation
// per recipient row: concurrent transitions on the same recipient may not
// lose an increment or regress a flag.
type RecipientRepository interface {
	// Get returns one recipient. Returns ErrRecipientNotFound if the pair
	// does not resolve.
	Get(ctx context.Context, campaignID, recipientID string) (*domain.Recipient, error)

	// ApplyOpen atomically applies an open event and returns the updated
	// record plus what changed.
	ApplyOpen(ctx context.Context, campaignID, recipientID string, at time.Time) (*domain.Recipient, domain.Transition, error)

	// ApplyClick atomically applies a click event, recording the implied
	// open when needed, and returns the updated record plus what changed.
	ApplyClick(ctx context.Context, campaignID, recipientID string, at time.Time) (*domain.Recipient, domain.Transition, error)

	// ListByCampaign returns all recipients of a campaign.
	ListByCampaign(ctx context.Context, campaignID string) ([]domain.Recipient, error)

	// CountEngaged counts recipients with opened=true and clicked=true.
	// This is the fallback aggregation input.
	CountEngaged(ctx context.Context, campaignID string) (opened, clicked int, err error)

	// CreateBatch inserts recipient rows registered at dispatch time.
	CreateBatch(ctx context.Context, recipients []domain.Recipient) error
}

// CampaignRepository defines data access for campaigns and their rollups.
type CampaignRepository interface {
	// Get returns a campaign scoped to its owning organization.
	// Returns ErrCampaignNotFound for unknown or foreign campaigns.
	Get(ctx context.Context, orgID, id string) (*domain.Campaign, error)

	// GetByID returns a campaign without owner scoping. Used by ingestion,
	// where the trust boundary is possession of the URL.
	GetByID(ctx context.Context, id string) (*domain.Campaign, error)

	// List returns an organization's campaigns, newest first.
	List(ctx context.Context, orgID string, limit, offset int) ([]domain.Campaign, int, error)

	// Create inserts a new campaign.
	Create(ctx context.Context, c *domain.Campaign) error

	// AddSent increments sent_count as recipients are registered.
	AddSent(ctx context.Context, id string, n int) error

	// RefreshEngagementCounts recomputes opened_count/clicked_count from the
	// recipient rows and writes both in a single atomic statement. This is
	// the aggregator's primary path and must be idempotent.
	RefreshEngagementCounts(ctx context.Context, id string) error

	// SetEngagementCounts writes both counts directly. This is the
	// aggregator's fallback sink; the values come from
	// RecipientRepository.CountEngaged.
	SetEngagementCounts(ctx context.Context, id string, opened, clicked int) error
}

// ClickEventRepository defines access to the append-only click log.
type ClickEventRepository interface {
	// Append records one click event. Events are never updated or deleted.
	Append(ctx context.Context, e *domain.ClickEvent) error

	// ListByCampaign returns a campaign's click events ordered by
	// clicked_at, then insertion order for equal timestamps.
	ListByCampaign(ctx context.Context, campaignID string) ([]domain.ClickEvent, error)
}
