package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/guffzilla/wartest-sub004/internal/errors"
)

type resolvePlayerRequest struct {
	AccountID string `json:"account_id"`
	GameTitle string `json:"game_title"`
}

func (s *Server) handleResolvePlayer(w http.ResponseWriter, r *http.Request) {
	var req resolvePlayerRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	p, err := s.Players.Resolve(r.Context(), req.AccountID, req.GameTitle)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, p)
}

func playerID(r *http.Request) (int64, error) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return 0, errors.NewBadRequestError("invalid player id: " + idStr)
	}
	return id, nil
}

func (s *Server) handlePlayerProfile(w http.ResponseWriter, r *http.Request) {
	id, err := playerID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	profile, err := s.Players.Profile(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, profile)
}

func (s *Server) handlePlayerHistory(w http.ResponseWriter, r *http.Request) {
	id, err := playerID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	limit := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		limit = v
	}

	entries, err := s.Players.History(r.Context(), id, limit)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"history": entries})
}
