package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/guffzilla/wartest-sub004/internal/models"
)

func (s *Server) handleSubmitMatch(w http.ResponseWriter, r *http.Request) {
	var report models.MatchReport
	if err := decodeJSON(r, &report); err != nil {
		handleError(w, r, err)
		return
	}

	m, err := s.Matches.Submit(r.Context(), report)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, m)
}

func (s *Server) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	m, err := s.Matches.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, m)
}

func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.MatchFilter{
		GameTitle: q.Get("game_title"),
		MatchType: models.MatchType(q.Get("match_type")),
		Status:    models.VerificationStatus(q.Get("status")),
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

	matches, err := s.Matches.List(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"matches": matches})
}

func (s *Server) handleVerifyMatch(w http.ResponseWriter, r *http.Request) {
	m, err := s.Matches.Verify(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, m)
}

func (s *Server) handleRejectMatch(w http.ResponseWriter, r *http.Request) {
	m, err := s.Matches.Reject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, m)
}

func (s *Server) handleDeleteMatch(w http.ResponseWriter, r *http.Request) {
	if err := s.Matches.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusNoContent, nil)
}
