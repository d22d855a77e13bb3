package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/guffzilla/wartest-sub004/internal/api"
	"github.com/guffzilla/wartest-sub004/internal/config"
	"github.com/guffzilla/wartest-sub004/internal/db"
	"github.com/guffzilla/wartest-sub004/internal/events"
	"github.com/guffzilla/wartest-sub004/internal/logger"
	"github.com/guffzilla/wartest-sub004/internal/repository/sqlite"
	"github.com/guffzilla/wartest-sub004/internal/services"
	"github.com/guffzilla/wartest-sub004/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	log.Info().
		Str("addr", cfg.Addr).
		Str("db_path", cfg.DBPath).
		Str("log_level", cfg.LogLevel).
		Msg("ladder engine starting")

	database, err := db.Open(cfg.DBPath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer database.Close()

	playerRepo := sqlite.NewPlayerRepository(database)
	matchRepo := sqlite.NewMatchRepository(database)
	disputeRepo := sqlite.NewDisputeRepository(database)
	proposalRepo := sqlite.NewProposalRepository(database)

	bus := events.NewBus(cfg.EventBufferSize, log)
	defer bus.Close()

	eventPool := worker.NewPool(cfg.EventWorkerCount, cfg.EventQueueSize, log)
	emitter := events.NewAsyncEmitter(bus, eventPool)

	matchService := services.NewMatchService(matchRepo, playerRepo, emitter)
	disputeService := services.NewDisputeService(disputeRepo, matchRepo, playerRepo, emitter)
	proposalService := services.NewProposalService(proposalRepo, matchRepo, emitter)
	playerService := services.NewPlayerService(playerRepo)

	srv := api.NewServer(matchService, disputeService, proposalService, playerService)

	ctx, cancel := context.WithCancel(context.Background())
	eventPool.Start(ctx)
	go logVerifiedMatches(ctx, bus, log)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	log.Info().Str("signal", sig.String()).Msg("initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// Drain queued event publishes before the worker context goes away.
	eventPool.Stop()
	cancel()
	log.Info().Msg("ladder engine stopped")
}

// logVerifiedMatches drains the verified-match topic so rating results are
// visible in the server log even without an external subscriber attached.
func logVerifiedMatches(ctx context.Context, bus *events.Bus, log zerolog.Logger) {
	slog := logger.Component(log, "event-log")

	messages, err := bus.Subscribe(ctx, events.TopicMatchVerified)
	if err != nil {
		slog.Error().Err(err).Msg("failed to subscribe to verified matches")
		return
	}
	for msg := range messages {
		var ev events.MatchVerified
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			slog.Warn().Err(err).Msg("malformed verified-match event")
			msg.Ack()
			continue
		}
		for _, res := range ev.Results {
			slog.Info().
				Str("match_id", ev.MatchID).
				Int64("player_id", res.PlayerID).
				Str("outcome", res.Outcome).
				Int("delta", res.Delta).
				Int("rating_after", res.RatingAfter).
				Str("tier", res.TierName).
				Msg("rating applied")
		}
		msg.Ack()
	}
}
