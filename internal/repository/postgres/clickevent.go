package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/engagement-tracker/internal/domain"
)

// ClickEventRepo implements engagement.ClickEventRepository against
// PostgreSQL. The table is append-only: rows are never updated or deleted.
type ClickEventRepo struct{ db *sql.DB }

// NewClickEventRepo creates a Postgres-backed click log.
func NewClickEventRepo(db *sql.DB) *ClickEventRepo { return &ClickEventRepo{db: db} }

// Append records one click event. recipient_id is a UUID column and the
// event may carry an empty id when the recipient never resolved, so empty
// binds as NULL; the row must land either way.
func (p *ClickEventRepo) Append(ctx context.Context, e *domain.ClickEvent) error {
	rid := sql.NullString{String: e.RecipientID, Valid: e.RecipientID != ""}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO tracking_click_events
			(id, campaign_id, recipient_id, url, user_agent, ip_address, device_type, clicked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, e.ID, e.CampaignID, rid, e.URL, e.UserAgent, e.IPAddress, e.DeviceType, e.ClickedAt)
	if err != nil {
		return fmt.Errorf("append click event: %w", err)
	}
	return nil
}

// ListByCampaign returns a campaign's click events ordered by clicked_at;
// the insertion sequence breaks timestamp ties deterministically.
func (p *ClickEventRepo) ListByCampaign(ctx context.Context, campaignID string) ([]domain.ClickEvent, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, campaign_id, recipient_id, url, user_agent, ip_address, device_type, clicked_at
		FROM tracking_click_events
		WHERE campaign_id = $1
		ORDER BY clicked_at, seq
	`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list click events: %w", err)
	}
	defer rows.Close()

	var out []domain.ClickEvent
	for rows.Next() {
		var e domain.ClickEvent
		var rid sql.NullString
		if err := rows.Scan(&e.ID, &e.CampaignID, &rid, &e.URL,
			&e.UserAgent, &e.IPAddress, &e.DeviceType, &e.ClickedAt); err != nil {
			return nil, fmt.Errorf("scan click event: %w", err)
		}
		e.RecipientID = rid.String
		out = append(out, e)
	}
	return out, rows.Err()
}
