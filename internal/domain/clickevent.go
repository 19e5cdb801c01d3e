package domain

import (
	"errors"
	"strings"
	"time"
)

// ClickEvent is one append-only log entry per click request. Events are never
// mutated or deleted; they exist for link-level reporting, not for counting
// (counting uses Recipient.ClickedCount).
type ClickEvent struct {
	ID          string    `json:"id" db:"id"`
	CampaignID  string    `json:"campaign_id" db:"campaign_id"`
	RecipientID string    `json:"recipient_id" db:"recipient_id"`
	URL         string    `json:"url" db:"url"`
	UserAgent   string    `json:"user_agent" db:"user_agent"`
	IPAddress   string    `json:"ip_address" db:"ip_address"`
	DeviceType  string    `json:"device_type" db:"device_type"`
	ClickedAt   time.Time `json:"clicked_at" db:"clicked_at"`
}

// NewClickEvent builds a click log entry. The recipient id may belong to a
// row that no longer resolves; the log is appended regardless so that
// click-through is never blocked by bookkeeping.
func NewClickEvent(id, campaignID, recipientID, url, userAgent, ip string, at time.Time) (*ClickEvent, error) {
	if id == "" {
		return nil, errors.New("click event id is required")
	}
	if campaignID == "" {
		return nil, errors.New("campaign id is required")
	}
	if url == "" {
		return nil, errors.New("url is required")
	}
	return &ClickEvent{
		ID:          id,
		CampaignID:  campaignID,
		RecipientID: recipientID,
		URL:         url,
		UserAgent:   userAgent,
		IPAddress:   ip,
		DeviceType:  DetectDevice(userAgent),
		ClickedAt:   at,
	}, nil
}

// DetectDevice classifies a user agent into mobile/tablet/desktop.
func DetectDevice(ua string) string {
	ua = strings.ToLower(ua)
	if strings.Contains(ua, "tablet") || strings.Contains(ua, "ipad") {
		return "tablet"
	}
	if strings.Contains(ua, "mobile") || strings.Contains(ua, "android") || strings.Contains(ua, "iphone") {
		return "mobile"
	}
	return "desktop"
}
