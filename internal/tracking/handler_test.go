package tracking

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ignite/engagement-tracker/internal/domain"
	"github.com/ignite/engagement-tracker/internal/repository/memory"
	"github.com/ignite/engagement-tracker/internal/service/engagement"
)

const defaultRedirect = "https://www.example-home.com"

func newTestHandler(t *testing.T) (*Handler, *memory.RecipientRepo, *memory.ClickEventRepo) {
	t.Helper()
	ctx := context.Background()

	recipients := memory.NewRecipientRepo()
	campaigns := memory.NewCampaignRepo(recipients)
	clicks := memory.NewClickEventRepo()

	c, _ := domain.NewCampaign("camp1", "org1", "Spring Sale", "")
	if err := campaigns.Create(ctx, c); err != nil {
		t.Fatalf("create campaign: %v", err)
	}
	r, _ := domain.NewRecipient("rec1", "camp1", "contact1", "a@example.com")
	if err := recipients.CreateBatch(ctx, []domain.Recipient{*r}); err != nil {
		t.Fatalf("create recipient: %v", err)
	}

	agg := engagement.NewAggregator(campaigns, recipients)
	svc := engagement.NewService(campaigns, recipients, clicks, agg, nil)
	return NewHandler(svc, defaultRedirect), recipients, clicks
}

func TestHandleOpen_ServesPixel(t *testing.T) {
	h, recipients, _ := newTestHandler(t)
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/track/open?cid=camp1&rid=rec1")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/gif" {
		t.Errorf("Content-Type = %q, want image/gif", ct)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-cache, no-store, must-revalidate" {
		t.Errorf("Cache-Control = %q", cc)
	}

	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if !bytes.Equal(buf.Bytes(), pixelGIF) {
		t.Error("body is not the tracking pixel")
	}

	r, err := recipients.Get(context.Background(), "camp1", "rec1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !r.Opened || r.OpenedCount != 1 {
		t.Errorf("opened=%v count=%d, want true/1", r.Opened, r.OpenedCount)
	}
}

func TestHandleOpen_NeverFails(t *testing.T) {
	h, _, _ := newTestHandler(t)
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	urls := []string{
		"/track/open",                         // no identifiers
		"/track/open?cid=camp1",               // missing rid
		"/track/open?cid=nope&rid=ghost",      // nothing resolves
		"/track/open?cid=camp1&rid=ghost",     // unknown recipient
		"/track/open?cid=%00&rid=%00",         // garbage
	}
	for _, u := range urls {
		resp, err := http.Get(srv.URL + u)
		if err != nil {
			t.Fatalf("GET %s: %v", u, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", u, resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "image/gif" {
			t.Errorf("GET %s Content-Type = %q, want image/gif", u, ct)
		}
	}
}

func noFollowClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func TestHandleClick_RedirectNormalization(t *testing.T) {
	h, _, _ := newTestHandler(t)
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()
	client := noFollowClient()

	tests := []struct {
		name     string
		query    string
		location string
	}{
		{"schemeless", "cid=camp1&rid=rec1&url=example.com/x", "https://example.com/x"},
		{"https unchanged", "cid=camp1&rid=rec1&url=https://example.com/x", "https://example.com/x"},
		{"http unchanged", "cid=camp1&rid=rec1&url=http://example.com/x", "http://example.com/x"},
		{"missing url", "cid=camp1&rid=rec1", defaultRedirect},
		{"unknown recipient still redirects", "cid=camp1&rid=ghost&url=https://example.com/y", "https://example.com/y"},
		{"no identifiers still redirects", "url=https://example.com/z", "https://example.com/z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := client.Get(srv.URL + "/track/click?" + tt.query)
			if err != nil {
				t.Fatalf("GET: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusFound {
				t.Errorf("status = %d, want 302", resp.StatusCode)
			}
			if loc := resp.Header.Get("Location"); loc != tt.location {
				t.Errorf("Location = %q, want %q", loc, tt.location)
			}
		})
	}
}

func TestHandleClick_RecordsStateAndLog(t *testing.T) {
	h, recipients, clicks := newTestHandler(t)
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()
	client := noFollowClient()

	req, _ := http.NewRequest("GET", srv.URL+"/track/click?cid=camp1&rid=rec1&url=https://example.com/deal", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0) Mobile")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()

	r, _ := recipients.Get(context.Background(), "camp1", "rec1")
	if !r.Clicked || !r.Opened {
		t.Errorf("clicked=%v opened=%v, want both true", r.Clicked, r.Opened)
	}

	events, _ := clicks.ListByCampaign(context.Background(), "camp1")
	if len(events) != 1 {
		t.Fatalf("click log entries = %d, want 1", len(events))
	}
	if events[0].URL != "https://example.com/deal" {
		t.Errorf("logged url = %q", events[0].URL)
	}
	if events[0].DeviceType != "mobile" {
		t.Errorf("device = %q, want mobile", events[0].DeviceType)
	}
}

func TestHandleClick_UnknownRecipientStillAppendsLog(t *testing.T) {
	h, _, clicks := newTestHandler(t)
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()
	client := noFollowClient()

	resp, err := client.Get(srv.URL + "/track/click?cid=camp1&rid=ghost&url=https://example.com/x")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()

	events, _ := clicks.ListByCampaign(context.Background(), "camp1")
	if len(events) != 1 {
		t.Errorf("click log entries = %d, want 1 (append is unconditional)", len(events))
	}
}

func TestHandleClick_MissingRecipientIDStillAppendsLog(t *testing.T) {
	h, _, clicks := newTestHandler(t)
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()
	client := noFollowClient()

	resp, err := client.Get(srv.URL + "/track/click?cid=camp1&url=https://example.com/x")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Errorf("status = %d, want 302", resp.StatusCode)
	}

	events, _ := clicks.ListByCampaign(context.Background(), "camp1")
	if len(events) != 1 {
		t.Fatalf("click log entries = %d, want 1 (appended without a recipient id)", len(events))
	}
	if events[0].RecipientID != "" {
		t.Errorf("logged recipient = %q, want empty", events[0].RecipientID)
	}
}

func TestNormalizeRedirectURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"example.com/x", "https://example.com/x"},
		{"https://example.com/x", "https://example.com/x"},
		{"http://example.com", "http://example.com"},
		{"sub.example.com/a?b=c", "https://sub.example.com/a?b=c"},
	}
	for _, tt := range tests {
		if got := normalizeRedirectURL(tt.in); got != tt.want {
			t.Errorf("normalizeRedirectURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
