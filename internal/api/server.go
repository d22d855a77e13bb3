// Package api exposes the engine over HTTP as a JSON API.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/guffzilla/wartest-sub004/internal/services"
)

type Server struct {
	Matches   services.MatchService
	Disputes  services.DisputeService
	Proposals services.ProposalService
	Players   services.PlayerService
}

// NewServer creates a new Server
func NewServer(matches services.MatchService, disputes services.DisputeService, proposals services.ProposalService, players services.PlayerService) *Server {
	return &Server{Matches: matches, Disputes: disputes, Proposals: proposals, Players: players}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", s.handleHealth)

	r.Route("/matches", func(r chi.Router) {
		r.Post("/", s.handleSubmitMatch)
		r.Get("/", s.handleListMatches)
		r.Get("/{id}", s.handleGetMatch)
		r.Delete("/{id}", s.handleDeleteMatch)
		r.Post("/{id}/verify", s.handleVerifyMatch)
		r.Post("/{id}/reject", s.handleRejectMatch)
		r.Post("/{id}/disputes", s.handleOpenDispute)
		r.Post("/{id}/proposals", s.handleProposeEdit)
	})

	r.Route("/disputes", func(r chi.Router) {
		r.Get("/", s.handleListDisputes)
		r.Get("/{id}", s.handleGetDispute)
		r.Post("/{id}/resolve", s.handleResolveDispute)
	})

	r.Route("/proposals", func(r chi.Router) {
		r.Get("/{id}", s.handleGetProposal)
		r.Post("/{id}/approve", s.handleApproveProposal)
		r.Post("/{id}/reject", s.handleRejectProposal)
	})

	r.Route("/players", func(r chi.Router) {
		r.Post("/resolve", s.handleResolvePlayer)
		r.Get("/{id}", s.handlePlayerProfile)
		r.Get("/{id}/history", s.handlePlayerHistory)
	})

	return r
}
