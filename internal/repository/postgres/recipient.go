package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ignite/engagement-tracker/internal/domain"
	"github.com/ignite/engagement-tracker/internal/service/engagement"
)

// RecipientRepo implements engagement.RecipientRepository against
// PostgreSQL. Each state transition is a single conditional UPDATE keyed by
// recipient id, so concurrent opens and clicks on the same recipient
// serialize on the row lock and can never lose an increment or regress a
// flag. There is no application-level read-then-write.
type RecipientRepo struct{ db *sql.DB }

// NewRecipientRepo creates a Postgres-backed recipient repository.
func NewRecipientRepo(db *sql.DB) *RecipientRepo { return &RecipientRepo{db: db} }

const recipientColumns = `id, campaign_id, contact_id, email,
	opened, opened_at, last_opened_at, opened_count,
	clicked, clicked_at, clicked_count, created_at, updated_at`

func scanRecipient(row interface{ Scan(...any) error }) (*domain.Recipient, error) {
	r := &domain.Recipient{}
	err := row.Scan(
		&r.ID, &r.CampaignID, &r.ContactID, &r.Email,
		&r.Opened, &r.OpenedAt, &r.LastOpenedAt, &r.OpenedCount,
		&r.Clicked, &r.ClickedAt, &r.ClickedCount, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Get returns one recipient.
func (p *RecipientRepo) Get(ctx context.Context, campaignID, recipientID string) (*domain.Recipient, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT `+recipientColumns+`
		FROM tracking_recipients
		WHERE id = $1 AND campaign_id = $2
	`, recipientID, campaignID)
	r, err := scanRecipient(row)
	if err == sql.ErrNoRows {
		return nil, engagement.ErrRecipientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get recipient: %w", err)
	}
	return r, nil
}

// ApplyOpen applies an open event in one atomic statement. opened_at is
// written once (COALESCE keeps the first-occurrence value) while
// opened_count and last_opened_at advance on every open.
func (p *RecipientRepo) ApplyOpen(ctx context.Context, campaignID, recipientID string, at time.Time) (*domain.Recipient, domain.Transition, error) {
	row := p.db.QueryRowContext(ctx, `
		UPDATE tracking_recipients SET
			opened = TRUE,
			opened_at = COALESCE(opened_at, $3),
			last_opened_at = $3,
			opened_count = opened_count + 1,
			updated_at = $3
		WHERE id = $1 AND campaign_id = $2
		RETURNING `+recipientColumns,
		recipientID, campaignID, at)
	r, err := scanRecipient(row)
	if err == sql.ErrNoRows {
		return nil, domain.Transition{}, engagement.ErrRecipientNotFound
	}
	if err != nil {
		return nil, domain.Transition{}, fmt.Errorf("apply open: %w", err)
	}
	// Counts are monotonic, so count==1 after the increment means this was
	// the first open.
	return r, domain.Transition{FirstOpen: r.OpenedCount == 1}, nil
}

// ApplyClick applies a click event in one atomic statement. A click on an
// unopened row records the implied open with the click's timestamp. The
// locked self-join carries the pre-update flags through RETURNING, so the
// transition reports exactly what this statement changed.
func (p *RecipientRepo) ApplyClick(ctx context.Context, campaignID, recipientID string, at time.Time) (*domain.Recipient, domain.Transition, error) {
	row := p.db.QueryRowContext(ctx, `
		UPDATE tracking_recipients r SET
			opened = TRUE,
			opened_at = COALESCE(old.opened_at, $3),
			last_opened_at = CASE WHEN old.opened THEN old.last_opened_at ELSE $3 END,
			opened_count = old.opened_count + CASE WHEN old.opened THEN 0 ELSE 1 END,
			clicked = TRUE,
			clicked_at = COALESCE(old.clicked_at, $3),
			clicked_count = old.clicked_count + 1,
			updated_at = $3
		FROM (
			SELECT id, opened, clicked, opened_at, clicked_at, last_opened_at,
			       opened_count, clicked_count
			FROM tracking_recipients
			WHERE id = $1 AND campaign_id = $2
			FOR UPDATE
		) old
		WHERE r.id = old.id
		RETURNING r.id, r.campaign_id, r.contact_id, r.email,
			r.opened, r.opened_at, r.last_opened_at, r.opened_count,
			r.clicked, r.clicked_at, r.clicked_count, r.created_at, r.updated_at,
			old.opened, old.clicked`,
		recipientID, campaignID, at)

	r := &domain.Recipient{}
	var wasOpened, wasClicked bool
	err := row.Scan(
		&r.ID, &r.CampaignID, &r.ContactID, &r.Email,
		&r.Opened, &r.OpenedAt, &r.LastOpenedAt, &r.OpenedCount,
		&r.Clicked, &r.ClickedAt, &r.ClickedCount, &r.CreatedAt, &r.UpdatedAt,
		&wasOpened, &wasClicked,
	)
	if err == sql.ErrNoRows {
		return nil, domain.Transition{}, engagement.ErrRecipientNotFound
	}
	if err != nil {
		return nil, domain.Transition{}, fmt.Errorf("apply click: %w", err)
	}
	return r, domain.Transition{FirstOpen: !wasOpened, FirstClick: !wasClicked}, nil
}

// ListByCampaign returns all recipients of a campaign.
func (p *RecipientRepo) ListByCampaign(ctx context.Context, campaignID string) ([]domain.Recipient, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT `+recipientColumns+`
		FROM tracking_recipients
		WHERE campaign_id = $1
		ORDER BY created_at, id
	`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	defer rows.Close()

	var out []domain.Recipient
	for rows.Next() {
		r, err := scanRecipient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recipient: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// CountEngaged counts opened and clicked recipients for the fallback
// aggregation path.
func (p *RecipientRepo) CountEngaged(ctx context.Context, campaignID string) (opened, clicked int, err error) {
	err = p.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FILTER (WHERE opened),
		       COUNT(*) FILTER (WHERE clicked)
		FROM tracking_recipients
		WHERE campaign_id = $1
	`, campaignID).Scan(&opened, &clicked)
	if err != nil {
		return 0, 0, fmt.Errorf("count engaged: %w", err)
	}
	return opened, clicked, nil
}

// CreateBatch inserts dispatched recipient rows.
func (p *RecipientRepo) CreateBatch(ctx context.Context, recipients []domain.Recipient) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tracking_recipients
			(id, campaign_id, contact_id, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i := range recipients {
		r := &recipients[i]
		if _, err := stmt.ExecContext(ctx, r.ID, r.CampaignID, r.ContactID, r.Email, r.CreatedAt, r.UpdatedAt); err != nil {
			return fmt.Errorf("insert recipient %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}
