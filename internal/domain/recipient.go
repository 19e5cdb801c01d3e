package domain

import (
	"errors"
	"fmt"
	"time"
)

// Recipient is the per-(campaign, contact) engagement record. Engagement is
// monotonic: no transition ever clears a flag or decrements a counter, and
// the first-occurrence timestamps are written once and never overwritten.
//
// Invariants:
//   - Clicked implies Opened (mail clients often block the pixel but still
//     let the user click, so a click records the implied open)
//   - Opened implies OpenedCount >= 1, Clicked implies ClickedCount >= 1
type Recipient struct {
	ID         string `json:"id" db:"id"`
	CampaignID string `json:"campaign_id" db:"campaign_id"`
	ContactID  string `json:"contact_id" db:"contact_id"`
	Email      string `json:"email" db:"email"`

	Opened       bool       `json:"opened" db:"opened"`
	OpenedAt     *time.Time `json:"opened_at" db:"opened_at"`
	LastOpenedAt *time.Time `json:"last_opened_at" db:"last_opened_at"`
	OpenedCount  int        `json:"opened_count" db:"opened_count"`

	Clicked      bool       `json:"clicked" db:"clicked"`
	ClickedAt    *time.Time `json:"clicked_at" db:"clicked_at"`
	ClickedCount int        `json:"clicked_count" db:"clicked_count"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewRecipient builds an unengaged recipient record for a dispatched send.
func NewRecipient(id, campaignID, contactID, email string) (*Recipient, error) {
	if id == "" {
		return nil, errors.New("recipient id is required")
	}
	if campaignID == "" {
		return nil, errors.New("campaign id is required")
	}
	if contactID == "" {
		return nil, errors.New("contact id is required")
	}
	now := time.Now().UTC()
	return &Recipient{
		ID:         id,
		CampaignID: campaignID,
		ContactID:  contactID,
		Email:      email,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Transition reports what a single open/click application actually changed.
// FirstOpen/FirstClick drive activity notifications and let callers
// distinguish a fresh engagement from a pixel reload or repeat click.
type Transition struct {
	FirstOpen  bool
	FirstClick bool
}

// ApplyOpen applies an open event at the given time. Repeat opens only
// increment the counter; OpenedAt keeps its first-occurrence value.
func (r *Recipient) ApplyOpen(at time.Time) Transition {
	var tr Transition
	if !r.Opened {
		r.Opened = true
		r.OpenedAt = &at
		tr.FirstOpen = true
	}
	r.OpenedCount++
	r.LastOpenedAt = &at
	r.UpdatedAt = at
	return tr
}

// ApplyClick applies a click event at the given time. A click on an unopened
// recipient records the implied open with the same timestamp as the click.
func (r *Recipient) ApplyClick(at time.Time) Transition {
	var tr Transition
	if !r.Opened {
		r.Opened = true
		r.OpenedAt = &at
		r.OpenedCount++
		r.LastOpenedAt = &at
		tr.FirstOpen = true
	}
	if !r.Clicked {
		r.Clicked = true
		r.ClickedAt = &at
		tr.FirstClick = true
	}
	r.ClickedCount++
	r.UpdatedAt = at
	return tr
}

// Validate checks the engagement invariants. Repositories call this after
// hydration to catch rows corrupted by out-of-band writes.
func (r *Recipient) Validate() error {
	if r.Clicked && !r.Opened {
		return fmt.Errorf("recipient %s: clicked without opened", r.ID)
	}
	if r.Opened && r.OpenedCount < 1 {
		return fmt.Errorf("recipient %s: opened with opened_count=%d", r.ID, r.OpenedCount)
	}
	if r.Clicked && r.ClickedCount < 1 {
		return fmt.Errorf("recipient %s: clicked with clicked_count=%d", r.ID, r.ClickedCount)
	}
	if r.Opened && r.OpenedAt == nil {
		return fmt.Errorf("recipient %s: opened with nil opened_at", r.ID)
	}
	if r.Clicked && r.ClickedAt == nil {
		return fmt.Errorf("recipient %s: clicked with nil clicked_at", r.ID)
	}
	return nil
}
