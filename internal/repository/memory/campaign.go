package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ignite/engagement-tracker/internal/domain"
	"github.com/ignite/engagement-tracker/internal/service/engagement"
)

// CampaignRepo implements engagement.CampaignRepository in memory.
type CampaignRepo struct {
	mu        sync.Mutex
	campaigns map[string]*domain.Campaign
	// recipients backs the atomic recompute, the same way the SQL
	// statement reads recipient rows in the Postgres implementation.
	recipients *RecipientRepo

	// RefreshErr, when set, makes RefreshEngagementCounts fail so tests can
	// force the aggregator's fallback path.
	RefreshErr error
}

// NewCampaignRepo creates an in-memory campaign store whose primary
// aggregation path recomputes from the given recipient repo.
func NewCampaignRepo(recipients *RecipientRepo) *CampaignRepo {
	return &CampaignRepo{
		campaigns:  make(map[string]*domain.Campaign),
		recipients: recipients,
	}
}

// Get returns an owner-scoped campaign copy.
func (m *CampaignRepo) Get(_ context.Context, orgID, id string) (*domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.OrganizationID != orgID {
		return nil, engagement.ErrCampaignNotFound
	}
	cp := *c
	return &cp, nil
}

// GetByID returns a campaign copy without owner scoping.
func (m *CampaignRepo) GetByID(_ context.Context, id string) (*domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, engagement.ErrCampaignNotFound
	}
	cp := *c
	return &cp, nil
}

// List returns an organization's campaigns, newest first.
func (m *CampaignRepo) List(_ context.Context, orgID string, limit, offset int) ([]domain.Campaign, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Campaign
	for _, c := range m.campaigns {
		if c.OrganizationID == orgID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := len(out)
	if offset >= len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

// Create inserts a campaign.
func (m *CampaignRepo) Create(_ context.Context, c *domain.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.campaigns[cp.ID] = &cp
	return nil
}

// AddSent increments sent_count.
func (m *CampaignRepo) AddSent(_ context.Context, id string, n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return engagement.ErrCampaignNotFound
	}
	c.SentCount += n
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// RefreshEngagementCounts recomputes both rollups from the recipient store
// in one locked step (the primary aggregation path).
func (m *CampaignRepo) RefreshEngagementCounts(ctx context.Context, id string) error {
	if m.RefreshErr != nil {
		return m.RefreshErr
	}
	opened, clicked, err := m.recipients.CountEngaged(ctx, id)
	if err != nil {
		return err
	}
	return m.SetEngagementCounts(ctx, id, opened, clicked)
}

// SetEngagementCounts writes both rollups together.
func (m *CampaignRepo) SetEngagementCounts(_ context.Context, id string, opened, clicked int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return engagement.ErrCampaignNotFound
	}
	c.OpenedCount = opened
	c.ClickedCount = clicked
	c.UpdatedAt = time.Now().UTC()
	return nil
}
