package engagement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/engagement-tracker/internal/domain"
	"github.com/ignite/engagement-tracker/internal/pkg/logger"
)

// Service coordinates recipient state transitions, rollup aggregation, the
// activity notifier, and report building. All public methods are safe for
// concurrent use if the underlying repositories are concurrency-safe.
type Service struct {
	campaigns  CampaignRepository
	recipients RecipientRepository
	clicks     ClickEventRepository
	aggregator *Aggregator
	notifier   Notifier

	now func() time.Time
}

// NewService creates an engagement service. The notifier is wrapped in the
// best-effort policy: its failures are logged, never propagated.
func NewService(
	campaigns CampaignRepository,
	recipients RecipientRepository,
	clicks ClickEventRepository,
	aggregator *Aggregator,
	notifier Notifier,
) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{
		campaigns:  campaigns,
		recipients: recipients,
		clicks:     clicks,
		aggregator: aggregator,
		notifier:   NewBestEffort(notifier),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// OpenInput is a decoded open-pixel request.
type OpenInput struct {
	CampaignID  string
	RecipientID string
	UserAgent   string
	IPAddress   string
}

// ClickInput is a decoded click-redirect request.
type ClickInput struct {
	CampaignID  string
	RecipientID string
	URL         string
	UserAgent   string
	IPAddress   string
}

// RecordOpen applies an open event. The returned error exists for logging
// and tests; ingestion handlers mask it and serve the pixel regardless.
func (s *Service) RecordOpen(ctx context.Context, in OpenInput) error {
	if in.CampaignID == "" || in.RecipientID == "" {
		return errors.New("missing campaign or recipient id")
	}

	rec, tr, err := s.recipients.ApplyOpen(ctx, in.CampaignID, in.RecipientID, s.now())
	if err != nil {
		return fmt.Errorf("apply open: %w", err)
	}

	s.refreshRollups(ctx, in.CampaignID)
	if tr.FirstOpen {
		s.notify(ctx, domain.EngagementOpen, rec, "")
	}
	return nil
}

// RecordClick applies a click event and appends the click-log entry. The
// log entry is appended even when the recipient does not resolve, so that
// link reporting is never blocked by bookkeeping failure. The error return
// is for logging and tests; handlers redirect regardless.
func (s *Service) RecordClick(ctx context.Context, in ClickInput) error {
	if in.CampaignID == "" || in.URL == "" {
		return errors.New("missing campaign id or url")
	}

	at := s.now()

	var transitionErr error
	rec, tr, err := s.recipients.ApplyClick(ctx, in.CampaignID, in.RecipientID, at)
	if err != nil {
		transitionErr = fmt.Errorf("apply click: %w", err)
	}

	evt, err := domain.NewClickEvent(uuid.New().String(), in.CampaignID, in.RecipientID,
		in.URL, in.UserAgent, in.IPAddress, at)
	if err != nil {
		return fmt.Errorf("build click event: %w", err)
	}
	if err := s.clicks.Append(ctx, evt); err != nil {
		logger.Error("click event append failed",
			"campaign_id", in.CampaignID, "recipient_id", in.RecipientID, "error", err.Error())
	}

	if transitionErr != nil {
		return transitionErr
	}

	s.refreshRollups(ctx, in.CampaignID)
	if tr.FirstOpen {
		s.notify(ctx, domain.EngagementOpen, rec, "")
	}
	s.notify(ctx, domain.EngagementClick, rec, in.URL)
	return nil
}

// refreshRollups is a best-effort aggregator invocation. Failures are
// logged and absorbed; the next event triggers another full recompute.
func (s *Service) refreshRollups(ctx context.Context, campaignID string) {
	if s.aggregator == nil {
		return
	}
	if err := s.aggregator.Refresh(ctx, campaignID); err != nil {
		logger.Error("rollup refresh failed", "campaign_id", campaignID, "error", err.Error())
	}
}

func (s *Service) notify(ctx context.Context, kind domain.EngagementKind, rec *domain.Recipient, url string) {
	name := ""
	if c, err := s.campaigns.GetByID(ctx, rec.CampaignID); err == nil {
		name = c.Name
	}
	s.notifier.NotifyEngagement(ctx, domain.Engagement{
		Kind:         kind,
		ContactID:    rec.ContactID,
		CampaignID:   rec.CampaignID,
		CampaignName: name,
		URL:          url,
		OccurredAt:   s.now(),
	})
}

// Campaign returns an owner-scoped campaign.
func (s *Service) Campaign(ctx context.Context, orgID, id string) (*domain.Campaign, error) {
	return s.campaigns.Get(ctx, orgID, id)
}

// Campaigns lists an organization's campaigns.
func (s *Service) Campaigns(ctx context.Context, orgID string, limit, offset int) ([]domain.Campaign, int, error) {
	return s.campaigns.List(ctx, orgID, limit, offset)
}

// CreateCampaignInput holds the fields the dispatcher registers at send time.
type CreateCampaignInput struct {
	Name    string `json:"name"`
	Subject string `json:"subject"`
}

// CreateCampaign registers a campaign dispatched by the sender.
func (s *Service) CreateCampaign(ctx context.Context, orgID string, in CreateCampaignInput) (*domain.Campaign, error) {
	c, err := domain.NewCampaign(uuid.New().String(), orgID, in.Name, in.Subject)
	if err != nil {
		return nil, err
	}
	if err := s.campaigns.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// RecipientInput identifies one contact that received the campaign.
type RecipientInput struct {
	ContactID string `json:"contact_id"`
	Email     string `json:"email"`
}

// RegisterRecipients records the recipients of a dispatched send and bumps
// the campaign's sent_count. Returns the created recipient records.
func (s *Service) RegisterRecipients(ctx context.Context, orgID, campaignID string, in []RecipientInput) ([]domain.Recipient, error) {
	if _, err := s.campaigns.Get(ctx, orgID, campaignID); err != nil {
		return nil, err
	}
	if len(in) == 0 {
		return nil, errors.New("no recipients given")
	}

	recs := make([]domain.Recipient, 0, len(in))
	for _, r := range in {
		rec, err := domain.NewRecipient(uuid.New().String(), campaignID, r.ContactID, r.Email)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	if err := s.recipients.CreateBatch(ctx, recs); err != nil {
		return nil, fmt.Errorf("create recipients: %w", err)
	}
	if err := s.campaigns.AddSent(ctx, campaignID, len(recs)); err != nil {
		return nil, fmt.Errorf("bump sent count: %w", err)
	}
	return recs, nil
}
