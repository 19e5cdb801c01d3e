package domain

import "time"

// EngagementKind enumerates the engagement event kinds surfaced to the
// activity timeline.
type EngagementKind string

const (
	EngagementOpen  EngagementKind = "open"
	EngagementClick EngagementKind = "click"
)

// Engagement is the notification payload sent to the activity-timeline
// collaborator after a successful state transition.
type Engagement struct {
	Kind         EngagementKind `json:"kind"`
	ContactID    string         `json:"contact_id"`
	CampaignID   string         `json:"campaign_id"`
	CampaignName string         `json:"campaign_name"`
	URL          string         `json:"url,omitempty"`
	OccurredAt   time.Time      `json:"occurred_at"`
}
