package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type proposeEditRequest struct {
	AuthorPlayerID int64             `json:"author_player_id"`
	Fields         map[string]string `json:"fields"`
}

func (s *Server) handleProposeEdit(w http.ResponseWriter, r *http.Request) {
	var req proposeEditRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	p, err := s.Proposals.Propose(r.Context(), chi.URLParam(r, "id"), req.AuthorPlayerID, req.Fields)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, p)
}

func (s *Server) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	p, err := s.Proposals.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, p)
}

func (s *Server) handleApproveProposal(w http.ResponseWriter, r *http.Request) {
	p, err := s.Proposals.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, p)
}

func (s *Server) handleRejectProposal(w http.ResponseWriter, r *http.Request) {
	p, err := s.Proposals.Reject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, p)
}
