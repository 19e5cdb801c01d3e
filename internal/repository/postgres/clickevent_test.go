package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/ignite/engagement-tracker/internal/domain"
)

func TestClickEventRepo_Append(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewClickEventRepo(db)

	at := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	e, err := domain.NewClickEvent("evt1", "camp1", "rec1",
		"https://example.com/pricing", "Mozilla/5.0", "203.0.113.9", at)
	if err != nil {
		t.Fatalf("NewClickEvent: %v", err)
	}

	mock.ExpectExec("INSERT INTO tracking_click_events").
		WithArgs(e.ID, e.CampaignID, e.RecipientID, e.URL, e.UserAgent, e.IPAddress, e.DeviceType, e.ClickedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Append(context.Background(), e); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestClickEventRepo_Append_UnresolvedRecipientBindsNull(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewClickEventRepo(db)

	at := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	e, err := domain.NewClickEvent("evt1", "camp1", "",
		"https://example.com/pricing", "Mozilla/5.0", "203.0.113.9", at)
	if err != nil {
		t.Fatalf("NewClickEvent: %v", err)
	}

	// The empty recipient id must reach the UUID column as NULL, not ''.
	mock.ExpectExec("INSERT INTO tracking_click_events").
		WithArgs(e.ID, e.CampaignID, nil, e.URL, e.UserAgent, e.IPAddress, e.DeviceType, e.ClickedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Append(context.Background(), e); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestClickEventRepo_ListByCampaign_NullRecipient(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewClickEventRepo(db)

	cols := []string{"id", "campaign_id", "recipient_id", "url", "user_agent", "ip_address", "device_type", "clicked_at"}
	at := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM tracking_click_events").
		WithArgs("camp1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("evt1", "camp1", nil, "https://example.com/x", "ua", "ip", "desktop", at))

	events, err := repo.ListByCampaign(context.Background(), "camp1")
	if err != nil {
		t.Fatalf("ListByCampaign() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("ListByCampaign() = %d events, want 1", len(events))
	}
	if events[0].RecipientID != "" {
		t.Errorf("RecipientID = %q, want empty for NULL column", events[0].RecipientID)
	}
}

func TestClickEventRepo_ListByCampaign(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewClickEventRepo(db)

	cols := []string{"id", "campaign_id", "recipient_id", "url", "user_agent", "ip_address", "device_type", "clicked_at"}
	t1 := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)

	mock.ExpectQuery("SELECT (.+) FROM tracking_click_events").
		WithArgs("camp1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("evt1", "camp1", "rec1", "https://example.com/pricing", "ua", "ip", "desktop", t1).
			AddRow("evt2", "camp1", "rec2", "https://example.com/docs", "ua", "ip", "mobile", t2))

	events, err := repo.ListByCampaign(context.Background(), "camp1")
	if err != nil {
		t.Fatalf("ListByCampaign() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("ListByCampaign() = %d events, want 2", len(events))
	}
	if events[0].ID != "evt1" || events[1].ID != "evt2" {
		t.Errorf("events out of order: %s, %s", events[0].ID, events[1].ID)
	}
}
