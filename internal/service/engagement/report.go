package engagement

import (
	"context"
	"sort"
	"time"

	"github.com/ignite/engagement-tracker/internal/pkg/logger"
)

// Report is the per-campaign attribution report: one engagement record per
// contact, partitioned into the opened and clicked sets (which overlap,
// since every click implies an open).
type Report struct {
	Campaign        CampaignSummary     `json:"campaign"`
	ContactsOpened  []ContactEngagement `json:"contactsOpened"`
	ContactsClicked []ContactEngagement `json:"contactsClicked"`
}

// CampaignSummary carries counts recomputed from the recipient set at
// report time, so the report stays self-consistent even when the
// denormalized rollups are temporarily behind.
type CampaignSummary struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Subject      string  `json:"subject"`
	SentCount    int     `json:"sent_count"`
	OpenedCount  int     `json:"opened_count"`
	ClickedCount int     `json:"clicked_count"`
	OpenRate     float64 `json:"open_rate"`
	ClickRate    float64 `json:"click_rate"`
}

// ContactEngagement is one contact's merged open/click view.
type ContactEngagement struct {
	ContactID      string     `json:"contact_id"`
	Email          string     `json:"email"`
	OpenCount      int        `json:"open_count"`
	ClickCount     int        `json:"click_count"`
	FirstOpenedAt  *time.Time `json:"first_opened_at"`
	LastOpenedAt   *time.Time `json:"last_opened_at"`
	FirstClickedAt *time.Time `json:"first_clicked_at"`
	LinksClicked   []string   `json:"links_clicked"`
}

// BuildReport produces the attribution report for an owner-scoped campaign.
// A click-log read failure degrades to a report without link detail rather
// than failing the whole report.
func (s *Service) BuildReport(ctx context.Context, orgID, campaignID string) (*Report, error) {
	c, err := s.campaigns.Get(ctx, orgID, campaignID)
	if err != nil {
		return nil, err
	}

	recipients, err := s.recipients.ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	events, err := s.clicks.ListByCampaign(ctx, campaignID)
	if err != nil {
		logger.Warn("click log unavailable, reporting without link detail",
			"campaign_id", campaignID, "error", err.Error())
		events = nil
	}

	// Distinct URLs per recipient, preserving event order (clicked_at, then
	// insertion order) so ties resolve deterministically.
	linksByRecipient := make(map[string][]string)
	seen := make(map[string]map[string]bool)
	firstClickByRecipient := make(map[string]time.Time)
	for _, e := range events {
		if seen[e.RecipientID] == nil {
			seen[e.RecipientID] = make(map[string]bool)
			firstClickByRecipient[e.RecipientID] = e.ClickedAt
		}
		if !seen[e.RecipientID][e.URL] {
			seen[e.RecipientID][e.URL] = true
			linksByRecipient[e.RecipientID] = append(linksByRecipient[e.RecipientID], e.URL)
		}
	}

	report := &Report{
		Campaign: CampaignSummary{
			ID:        c.ID,
			Name:      c.Name,
			Subject:   c.Subject,
			SentCount: len(recipients),
		},
		ContactsOpened:  []ContactEngagement{},
		ContactsClicked: []ContactEngagement{},
	}

	for i := range recipients {
		r := &recipients[i]
		if !r.Opened && !r.Clicked {
			continue
		}

		ce := ContactEngagement{
			ContactID:     r.ContactID,
			Email:         r.Email,
			OpenCount:     r.OpenedCount,
			ClickCount:    r.ClickedCount,
			FirstOpenedAt: r.OpenedAt,
			LastOpenedAt:  r.LastOpenedAt,
			LinksClicked:  []string{},
		}
		if r.Clicked {
			ce.FirstClickedAt = r.ClickedAt
			if ce.FirstClickedAt == nil {
				if at, ok := firstClickByRecipient[r.ID]; ok {
					ce.FirstClickedAt = &at
				}
			}
			if links := linksByRecipient[r.ID]; links != nil {
				ce.LinksClicked = links
			}
		}

		if r.Opened {
			report.Campaign.OpenedCount++
			report.ContactsOpened = append(report.ContactsOpened, ce)
		}
		if r.Clicked {
			report.Campaign.ClickedCount++
			report.ContactsClicked = append(report.ContactsClicked, ce)
		}
	}

	if report.Campaign.SentCount > 0 {
		report.Campaign.OpenRate = float64(report.Campaign.OpenedCount) / float64(report.Campaign.SentCount)
		report.Campaign.ClickRate = float64(report.Campaign.ClickedCount) / float64(report.Campaign.SentCount)
	}

	sort.Slice(report.ContactsOpened, func(i, j int) bool {
		return report.ContactsOpened[i].ContactID < report.ContactsOpened[j].ContactID
	})
	sort.Slice(report.ContactsClicked, func(i, j int) bool {
		return report.ContactsClicked[i].ContactID < report.ContactsClicked[j].ContactID
	})

	return report, nil
}
