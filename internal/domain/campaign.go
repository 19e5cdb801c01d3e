package domain

import (
	"errors"
	"time"
)

// Campaign identifies a single send and carries the denormalized engagement
// rollups maintained by the aggregator. Campaigns are created when a send is
// dispatched and are never deleted by this service.
type Campaign struct {
	ID             string `json:"id" db:"id"`
	OrganizationID string `json:"organization_id" db:"organization_id"`
	Name           string `json:"name" db:"name"`
	Subject        string `json:"subject" db:"subject"`

	// Rollups (sent_count set at dispatch, opened/clicked maintained by the
	// aggregator; the report recomputes these from recipients instead of
	// trusting them).
	SentCount    int `json:"sent_count" db:"sent_count"`
	OpenedCount  int `json:"opened_count" db:"opened_count"`
	ClickedCount int `json:"clicked_count" db:"clicked_count"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewCampaign builds a campaign in its initial state.
func NewCampaign(id, orgID, name, subject string) (*Campaign, error) {
	if id == "" {
		return nil, errors.New("campaign id is required")
	}
	if orgID == "" {
		return nil, errors.New("organization id is required")
	}
	if name == "" {
		return nil, errors.New("campaign name is required")
	}
	now := time.Now().UTC()
	return &Campaign{
		ID:             id,
		OrganizationID: orgID,
		Name:           name,
		Subject:        subject,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// OpenRate returns opens as a fraction of sends, 0 when nothing was sent.
func (c *Campaign) OpenRate() float64 {
	if c.SentCount == 0 {
		return 0
	}
	return float64(c.OpenedCount) / float64(c.SentCount)
}

// ClickRate returns clicks as a fraction of sends, 0 when nothing was sent.
func (c *Campaign) ClickRate() float64 {
	if c.SentCount == 0 {
		return 0
	}
	return float64(c.ClickedCount) / float64(c.SentCount)
}
