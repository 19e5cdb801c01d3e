package engagement

import "errors"

// Sentinel errors for the engagement service layer.
var (
	ErrCampaignNotFound  = errors.New("campaign not found")
	ErrRecipientNotFound = errors.New("recipient not found")
)
