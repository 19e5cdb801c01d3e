package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/engagement-tracker/internal/auth"
	"github.com/ignite/engagement-tracker/internal/pkg/httputil"
	"github.com/ignite/engagement-tracker/internal/service/engagement"
)

func orgID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := auth.OrgIDFromContext(r.Context())
	if !ok {
		httputil.Unauthorized(w, "no organization in context")
		return "", false
	}
	return id, true
}

func (s *Server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	org, ok := orgID(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	campaigns, total, err := s.svc.Campaigns(r.Context(), org, limit, offset)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{
		"campaigns": campaigns,
		"total":     total,
	})
}

func (s *Server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	org, ok := orgID(w, r)
	if !ok {
		return
	}

	var in engagement.CreateCampaignInput
	if !httputil.Decode(w, r, &in) {
		return
	}

	c, err := s.svc.CreateCampaign(r.Context(), org, in)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.Created(w, c)
}

func (s *Server) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	org, ok := orgID(w, r)
	if !ok {
		return
	}

	c, err := s.svc.Campaign(r.Context(), org, chi.URLParam(r, "id"))
	if err == engagement.ErrCampaignNotFound {
		httputil.NotFound(w, "campaign not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, c)
}

func (s *Server) handleRegisterRecipients(w http.ResponseWriter, r *http.Request) {
	org, ok := orgID(w, r)
	if !ok {
		return
	}

	var in struct {
		Recipients []engagement.RecipientInput `json:"recipients"`
	}
	if !httputil.Decode(w, r, &in) {
		return
	}

	recs, err := s.svc.RegisterRecipients(r.Context(), org, chi.URLParam(r, "id"), in.Recipients)
	if err == engagement.ErrCampaignNotFound {
		httputil.NotFound(w, "campaign not found")
		return
	}
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.Created(w, map[string]any{
		"registered": len(recs),
		"recipients": recs,
	})
}

// handleCampaignReport serves the per-contact attribution report. Unknown
// and foreign campaigns are indistinguishable to the caller (both 404).
func (s *Server) handleCampaignReport(w http.ResponseWriter, r *http.Request) {
	org, ok := orgID(w, r)
	if !ok {
		return
	}

	report, err := s.svc.BuildReport(r.Context(), org, chi.URLParam(r, "id"))
	if err == engagement.ErrCampaignNotFound {
		httputil.NotFound(w, "campaign not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, report)
}
