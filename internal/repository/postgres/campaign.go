package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/engagement-tracker/internal/domain"
	"github.com/ignite/engagement-tracker/internal/service/engagement"
)

// CampaignRepo implements engagement.CampaignRepository against PostgreSQL.
type CampaignRepo struct{ db *sql.DB }

// NewCampaignRepo creates a Postgres-backed campaign repository.
func NewCampaignRepo(db *sql.DB) *CampaignRepo { return &CampaignRepo{db: db} }

const campaignColumns = `id, organization_id, name, COALESCE(subject,''),
	sent_count, opened_count, clicked_count, created_at, updated_at`

func scanCampaign(row interface{ Scan(...any) error }) (*domain.Campaign, error) {
	c := &domain.Campaign{}
	err := row.Scan(
		&c.ID, &c.OrganizationID, &c.Name, &c.Subject,
		&c.SentCount, &c.OpenedCount, &c.ClickedCount, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns a single campaign scoped to its owning organization.
func (r *CampaignRepo) Get(ctx context.Context, orgID, id string) (*domain.Campaign, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+campaignColumns+`
		FROM tracking_campaigns
		WHERE id = $1 AND organization_id = $2
	`, id, orgID)
	c, err := scanCampaign(row)
	if err == sql.ErrNoRows {
		return nil, engagement.ErrCampaignNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

// GetByID returns a campaign without owner scoping (ingestion path).
func (r *CampaignRepo) GetByID(ctx context.Context, id string) (*domain.Campaign, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+campaignColumns+`
		FROM tracking_campaigns
		WHERE id = $1
	`, id)
	c, err := scanCampaign(row)
	if err == sql.ErrNoRows {
		return nil, engagement.ErrCampaignNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

// List returns an organization's campaigns, newest first.
func (r *CampaignRepo) List(ctx context.Context, orgID string, limit, offset int) ([]domain.Campaign, int, error) {
	if limit <= 0 {
		limit = 50
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tracking_campaigns WHERE organization_id = $1`, orgID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count campaigns: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+campaignColumns+`
		FROM tracking_campaigns
		WHERE organization_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, orgID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var out []domain.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

// Create inserts a new campaign.
func (r *CampaignRepo) Create(ctx context.Context, c *domain.Campaign) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tracking_campaigns
			(id, organization_id, name, subject, sent_count, opened_count, clicked_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, 0, 0, $5, $6)
	`, c.ID, c.OrganizationID, c.Name, c.Subject, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}
	return nil
}

// AddSent increments sent_count as recipients are registered.
func (r *CampaignRepo) AddSent(ctx context.Context, id string, n int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tracking_campaigns
		SET sent_count = sent_count + $2, updated_at = NOW()
		WHERE id = $1
	`, id, n)
	if err != nil {
		return fmt.Errorf("add sent: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return engagement.ErrCampaignNotFound
	}
	return nil
}

// RefreshEngagementCounts is the aggregator's primary path: one atomic
// campaign-scoped statement that recomputes both rollups from the
// recipient rows and writes the pair together. Running it twice with no
// intervening recipient change yields the same numbers.
func (r *CampaignRepo) RefreshEngagementCounts(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tracking_campaigns c SET
			opened_count = agg.opened,
			clicked_count = agg.clicked,
			updated_at = NOW()
		FROM (
			SELECT COUNT(*) FILTER (WHERE opened)  AS opened,
			       COUNT(*) FILTER (WHERE clicked) AS clicked
			FROM tracking_recipients
			WHERE campaign_id = $1
		) agg
		WHERE c.id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("refresh engagement counts: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return engagement.ErrCampaignNotFound
	}
	return nil
}

// SetEngagementCounts writes both rollups directly (fallback sink).
func (r *CampaignRepo) SetEngagementCounts(ctx context.Context, id string, opened, clicked int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tracking_campaigns
		SET opened_count = $2, clicked_count = $3, updated_at = NOW()
		WHERE id = $1
	`, id, opened, clicked)
	if err != nil {
		return fmt.Errorf("set engagement counts: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return engagement.ErrCampaignNotFound
	}
	return nil
}
