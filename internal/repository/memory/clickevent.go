package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/ignite/engagement-tracker/internal/domain"
)

// ClickEventRepo implements engagement.ClickEventRepository in memory.
type ClickEventRepo struct {
	mu     sync.Mutex
	events []domain.ClickEvent

	// AppendErr / ListErr force failures so tests can exercise the
	// never-block-the-redirect and degraded-report behaviors.
	AppendErr error
	ListErr   error
}

// NewClickEventRepo creates an empty in-memory click log.
func NewClickEventRepo() *ClickEventRepo {
	return &ClickEventRepo{}
}

// Append records one click event.
func (m *ClickEventRepo) Append(_ context.Context, e *domain.ClickEvent) error {
	if m.AppendErr != nil {
		return m.AppendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *e)
	return nil
}

// ListByCampaign returns a campaign's events ordered by clicked_at, with
// insertion order breaking timestamp ties (stable sort).
func (m *ClickEventRepo) ListByCampaign(_ context.Context, campaignID string) ([]domain.ClickEvent, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ClickEvent
	for _, e := range m.events {
		if e.CampaignID == campaignID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ClickedAt.Before(out[j].ClickedAt) })
	return out, nil
}
