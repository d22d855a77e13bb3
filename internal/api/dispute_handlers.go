package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/guffzilla/wartest-sub004/internal/models"
)

type openDisputeRequest struct {
	PlayerID    int64  `json:"player_id"`
	Reason      string `json:"reason"`
	EvidenceURI string `json:"evidence_uri"`
}

func (s *Server) handleOpenDispute(w http.ResponseWriter, r *http.Request) {
	var req openDisputeRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	d, err := s.Disputes.Open(r.Context(), chi.URLParam(r, "id"), req.PlayerID, req.Reason, req.EvidenceURI)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, d)
}

func (s *Server) handleGetDispute(w http.ResponseWriter, r *http.Request) {
	d, err := s.Disputes.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, d)
}

func (s *Server) handleListDisputes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.DisputeFilter{
		MatchID: q.Get("match_id"),
		Status:  models.DisputeStatus(q.Get("status")),
	}
	if v, err := strconv.ParseInt(q.Get("player_id"), 10, 64); err == nil {
		filter.PlayerID = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		filter.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil {
		filter.Offset = v
	}

	disputes, err := s.Disputes.List(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"disputes": disputes})
}

type resolveDisputeRequest struct {
	Decision string `json:"decision"`
	Note     string `json:"note"`
}

func (s *Server) handleResolveDispute(w http.ResponseWriter, r *http.Request) {
	var req resolveDisputeRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	d, err := s.Disputes.Resolve(r.Context(), chi.URLParam(r, "id"), req.Decision, req.Note)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, d)
}
