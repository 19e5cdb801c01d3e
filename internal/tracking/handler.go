// Package tracking serves the public, unauthenticated ingestion endpoints.
//
// Both endpoints are fail-open: the caller is a third-party mail client
// that cannot interpret errors, so every internal failure is logged and
// masked behind the expected pixel or redirect. Correctness of tracking is
// sacrificed before availability of the email/click experience.
package tracking

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/engagement-tracker/internal/metrics"
	"github.com/ignite/engagement-tracker/internal/pkg/logger"
	"github.com/ignite/engagement-tracker/internal/service/engagement"
)

// 1x1 transparent GIF
var pixelGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00,
	0x80, 0x00, 0x00, 0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x2c,
	0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x02,
	0x02, 0x44, 0x01, 0x00, 0x3b,
}

// Handler serves the open-pixel and click-redirect endpoints.
type Handler struct {
	svc             *engagement.Service
	defaultRedirect string
}

// NewHandler creates a tracking handler. defaultRedirect is where clicks
// land when no target URL survives (missing parameter or total failure).
func NewHandler(svc *engagement.Service, defaultRedirect string) *Handler {
	return &Handler{svc: svc, defaultRedirect: defaultRedirect}
}

// Routes returns the public tracking router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/track/open", h.HandleOpen)
	r.Get("/track/click", h.HandleClick)
	r.Get("/health", h.HandleHealth)
	return r
}

// HandleOpen records an open event and always serves the pixel. Missing or
// unknown identifiers are logged and masked, never surfaced: mail clients
// retry failed images, and retries are harmful here.
func (h *Handler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	in := engagement.OpenInput{
		CampaignID:  r.URL.Query().Get("cid"),
		RecipientID: r.URL.Query().Get("rid"),
		UserAgent:   r.UserAgent(),
		IPAddress:   realIP(r),
	}

	if err := h.svc.RecordOpen(r.Context(), in); err != nil {
		logger.Warn("open event masked",
			"campaign_id", in.CampaignID, "recipient_id", in.RecipientID, "error", err.Error())
		metrics.TrackingRequests.WithLabelValues("open", "masked").Inc()
	} else {
		metrics.TrackingRequests.WithLabelValues("open", "recorded").Inc()
	}

	h.servePixel(w)
}

// HandleClick records a click event and always redirects. The click log is
// appended even when the recipient lookup fails, and any bookkeeping error
// still ends in a redirect — to the target if we have one, to the default
// page otherwise.
func (h *Handler) HandleClick(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	target := q.Get("url")
	if target == "" {
		metrics.RedirectsServed.WithLabelValues("default").Inc()
		http.Redirect(w, r, h.defaultRedirect, http.StatusFound)
		return
	}

	in := engagement.ClickInput{
		CampaignID:  q.Get("cid"),
		RecipientID: q.Get("rid"),
		URL:         target,
		UserAgent:   r.UserAgent(),
		IPAddress:   realIP(r),
	}

	if err := h.svc.RecordClick(r.Context(), in); err != nil {
		logger.Warn("click event masked",
			"campaign_id", in.CampaignID, "recipient_id", in.RecipientID, "error", err.Error())
		metrics.TrackingRequests.WithLabelValues("click", "masked").Inc()
	} else {
		metrics.TrackingRequests.WithLabelValues("click", "recorded").Inc()
	}

	metrics.RedirectsServed.WithLabelValues("target").Inc()
	http.Redirect(w, r, normalizeRedirectURL(target), http.StatusFound)
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (h *Handler) servePixel(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Write(pixelGIF)
}

// normalizeRedirectURL prefixes scheme-less targets with https:// so
// "example.com/x" in a template still redirects somewhere sensible.
func normalizeRedirectURL(target string) string {
	if strings.Contains(target, "://") {
		return target
	}
	return "https://" + target
}

func realIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
