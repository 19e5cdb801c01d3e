package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ignite/engagement-tracker/internal/domain"
	"github.com/ignite/engagement-tracker/internal/service/engagement"
)

// RecipientRepo implements engagement.RecipientRepository in memory.
// The mutex makes each Apply* call a single atomic read-modify-write,
// mirroring the conditional-update semantics of the Postgres repo.
type RecipientRepo struct {
	mu         sync.Mutex
	recipients map[string]*domain.Recipient // keyed by recipient id
}

// NewRecipientRepo creates an empty in-memory recipient store.
func NewRecipientRepo() *RecipientRepo {
	return &RecipientRepo{recipients: make(map[string]*domain.Recipient)}
}

func (m *RecipientRepo) find(campaignID, recipientID string) (*domain.Recipient, error) {
	r, ok := m.recipients[recipientID]
	if !ok || r.CampaignID != campaignID {
		return nil, engagement.ErrRecipientNotFound
	}
	return r, nil
}

// Get returns a copy of one recipient.
func (m *RecipientRepo) Get(_ context.Context, campaignID, recipientID string) (*domain.Recipient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, err := m.find(campaignID, recipientID)
	if err != nil {
		return nil, err
	}
	cp := *r
	return &cp, nil
}

// ApplyOpen atomically applies an open event.
func (m *RecipientRepo) ApplyOpen(_ context.Context, campaignID, recipientID string, at time.Time) (*domain.Recipient, domain.Transition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, err := m.find(campaignID, recipientID)
	if err != nil {
		return nil, domain.Transition{}, err
	}
	tr := r.ApplyOpen(at)
	cp := *r
	return &cp, tr, nil
}

// ApplyClick atomically applies a click event.
func (m *RecipientRepo) ApplyClick(_ context.Context, campaignID, recipientID string, at time.Time) (*domain.Recipient, domain.Transition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, err := m.find(campaignID, recipientID)
	if err != nil {
		return nil, domain.Transition{}, err
	}
	tr := r.ApplyClick(at)
	cp := *r
	return &cp, tr, nil
}

// ListByCampaign returns copies of a campaign's recipients.
func (m *RecipientRepo) ListByCampaign(_ context.Context, campaignID string) ([]domain.Recipient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Recipient
	for _, r := range m.recipients {
		if r.CampaignID == campaignID {
			out = append(out, *r)
		}
	}
	return out, nil
}

// CountEngaged counts opened and clicked recipients for a campaign.
func (m *RecipientRepo) CountEngaged(_ context.Context, campaignID string) (opened, clicked int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.recipients {
		if r.CampaignID != campaignID {
			continue
		}
		if r.Opened {
			opened++
		}
		if r.Clicked {
			clicked++
		}
	}
	return opened, clicked, nil
}

// CreateBatch inserts recipient rows.
func (m *RecipientRepo) CreateBatch(_ context.Context, recipients []domain.Recipient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range recipients {
		cp := recipients[i]
		m.recipients[cp.ID] = &cp
	}
	return nil
}
