package engagement_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ignite/engagement-tracker/internal/service/engagement"
)

func TestBuildReport_MergesOpenedAndClicked(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "org1", "camp1", "recA", "recB", "recC")
	ctx := context.Background()

	// A opens twice, never clicks. B opens via a blocked pixel (click
	// only). C stays silent.
	f.svc.RecordOpen(ctx, engagement.OpenInput{CampaignID: "camp1", RecipientID: "recA"})
	f.svc.RecordOpen(ctx, engagement.OpenInput{CampaignID: "camp1", RecipientID: "recA"})
	f.svc.RecordClick(ctx, engagement.ClickInput{CampaignID: "camp1", RecipientID: "recB", URL: "/pricing"})

	report, err := f.svc.BuildReport(ctx, "org1", "camp1")
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}

	if report.Campaign.SentCount != 3 {
		t.Errorf("SentCount = %d, want 3", report.Campaign.SentCount)
	}
	if report.Campaign.OpenedCount != 2 || report.Campaign.ClickedCount != 1 {
		t.Errorf("summary = (%d, %d), want (2, 1)", report.Campaign.OpenedCount, report.Campaign.ClickedCount)
	}

	if len(report.ContactsOpened) != 2 {
		t.Fatalf("ContactsOpened = %d contacts, want 2", len(report.ContactsOpened))
	}
	byContact := map[string]engagement.ContactEngagement{}
	for _, ce := range report.ContactsOpened {
		byContact[ce.ContactID] = ce
	}

	a, ok := byContact["contact-recA"]
	if !ok {
		t.Fatal("contact-recA missing from ContactsOpened")
	}
	if a.OpenCount != 2 || a.ClickCount != 0 {
		t.Errorf("A counts = (%d, %d), want (2, 0)", a.OpenCount, a.ClickCount)
	}
	if len(a.LinksClicked) != 0 {
		t.Errorf("A LinksClicked = %v, want empty", a.LinksClicked)
	}

	b, ok := byContact["contact-recB"]
	if !ok {
		t.Fatal("contact-recB missing from ContactsOpened (implied open)")
	}
	if b.OpenCount < 1 {
		t.Errorf("B OpenCount = %d, want >= 1 (implied open, not zero)", b.OpenCount)
	}

	if len(report.ContactsClicked) != 1 {
		t.Fatalf("ContactsClicked = %d contacts, want 1", len(report.ContactsClicked))
	}
	clicked := report.ContactsClicked[0]
	if clicked.ContactID != "contact-recB" {
		t.Errorf("clicked contact = %s, want contact-recB", clicked.ContactID)
	}
	if clicked.ClickCount != 1 {
		t.Errorf("B ClickCount = %d, want 1", clicked.ClickCount)
	}
	if len(clicked.LinksClicked) != 1 || clicked.LinksClicked[0] != "/pricing" {
		t.Errorf("B LinksClicked = %v, want [/pricing]", clicked.LinksClicked)
	}
	if clicked.FirstClickedAt == nil {
		t.Error("B FirstClickedAt is nil")
	}
}

func TestBuildReport_DistinctLinks(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "org1", "camp1", "rec1")
	ctx := context.Background()

	for _, url := range []string{"/pricing", "/docs", "/pricing", "/docs", "/pricing"} {
		f.svc.RecordClick(ctx, engagement.ClickInput{CampaignID: "camp1", RecipientID: "rec1", URL: url})
	}

	report, err := f.svc.BuildReport(ctx, "org1", "camp1")
	if err != nil {
		t.Fatalf("BuildReport: %v", err)
	}
	if len(report.ContactsClicked) != 1 {
		t.Fatalf("ContactsClicked = %d, want 1", len(report.ContactsClicked))
	}
	ce := report.ContactsClicked[0]
	if ce.ClickCount != 5 {
		t.Errorf("ClickCount = %d, want 5", ce.ClickCount)
	}
	want := []string{"/pricing", "/docs"}
	if len(ce.LinksClicked) != len(want) {
		t.Fatalf("LinksClicked = %v, want %v", ce.LinksClicked, want)
	}
	for i := range want {
		if ce.LinksClicked[i] != want[i] {
			t.Errorf("LinksClicked[%d] = %q, want %q (first-click order)", i, ce.LinksClicked[i], want[i])
		}
	}
}

func TestBuildReport_DegradesWithoutClickLog(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "org1", "camp1", "rec1")
	ctx := context.Background()

	f.svc.RecordClick(ctx, engagement.ClickInput{CampaignID: "camp1", RecipientID: "rec1", URL: "/x"})
	f.clicks.ListErr = errors.New("click log unavailable")

	report, err := f.svc.BuildReport(ctx, "org1", "camp1")
	if err != nil {
		t.Fatalf("BuildReport should degrade, not fail: %v", err)
	}
	if len(report.ContactsClicked) != 1 {
		t.Fatalf("ContactsClicked = %d, want 1", len(report.ContactsClicked))
	}
	ce := report.ContactsClicked[0]
	if ce.ClickCount != 1 {
		t.Errorf("ClickCount = %d, want 1 (from recipient, not the log)", ce.ClickCount)
	}
	if len(ce.LinksClicked) != 0 {
		t.Errorf("LinksClicked = %v, want empty when log is unavailable", ce.LinksClicked)
	}
}

func TestBuildReport_OwnerScoped(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "org1", "camp1", "rec1")
	ctx := context.Background()

	if _, err := f.svc.BuildReport(ctx, "org2", "camp1"); err != engagement.ErrCampaignNotFound {
		t.Errorf("foreign org report error = %v, want ErrCampaignNotFound", err)
	}
	if _, err := f.svc.BuildReport(ctx, "org1", "nope"); err != engagement.ErrCampaignNotFound {
		t.Errorf("unknown campaign report error = %v, want ErrCampaignNotFound", err)
	}
}
