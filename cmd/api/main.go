package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"freightline/auth"
	"freightline/carrier"
	"freightline/config"
	"freightline/db"
	"freightline/load"
	"freightline/match"
	"freightline/metrics"
	"freightline/negotiation"
	"freightline/outcome"
	"freightline/webhook"
)

const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 15 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("bootstrap database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Error("apply schema", "error", err)
		os.Exit(1)
	}

	loadRepo := load.NewRepository(pool)
	scorer := match.NewScorer(match.Weights{
		BaseScore:          cfg.Matching.BaseScore,
		PreferredLaneBonus: cfg.Matching.PreferredLaneBonus,
		PreferredLanes:     cfg.Matching.PreferredLanes,
		RateBonusPer100:    cfg.Matching.RateBonusPer100,
		RateBonusCap:       cfg.Matching.RateBonusCap,
		MilesPenaltyPer50:  cfg.Matching.MilesPenaltyPer50,
	})
	matchSvc := match.NewService(loadRepo, scorer, cfg.Matching.MaxResults)

	policy := negotiation.Policy{
		MaxRounds:     cfg.Negotiation.MaxRounds,
		FloorFraction: cfg.Negotiation.FloorFraction,
		Concessions:   cfg.Negotiation.ConcessionSchedule,
	}
	sessionRepo := negotiation.NewSessionRepository(pool)
	negotiationSvc := negotiation.NewService(sessionRepo, policy)

	outcomeRepo := outcome.NewRepository(pool)
	recorder := outcome.NewRecorder(outcomeRepo, loadRepo)

	verifier := carrier.NewVerifier(cfg.FMCSA.BaseURL, cfg.FMCSA.APIKey, cfg.FMCSA.Timeout)

	authRepo := auth.NewRepository(pool)
	authSvc := auth.NewService(authRepo, cfg.JWTSecret)

	server := webhook.NewServer(webhook.Deps{
		Verifier:  verifier,
		Matcher:   matchSvc,
		Board:     loadRepo,
		Sessions:  negotiationSvc,
		Outcomes:  recorder,
		Analytics: outcomeRepo,
		Auth:      authSvc,
		DB:        pool,
	}, cfg.APIKey, logger)

	mux := http.NewServeMux()
	server.Register(mux)

	go sweepStaleSessions(ctx, logger, negotiationSvc, recorder, cfg.SessionTTL, cfg.SweepInterval)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("stopped")
}

// sweepStaleSessions periodically expires idle Open sessions and records their
// failed outcomes so abandoned calls don't linger forever.
func sweepStaleSessions(ctx context.Context, logger *slog.Logger, svc *negotiation.Service, recorder *outcome.Recorder, ttl, interval time.Duration) {
	if ttl <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		expired, err := svc.ExpireStale(ctx, ttl)
		if err != nil {
			logger.Error("expire stale sessions", "error", err)
			continue
		}
		for _, sess := range expired {
			if _, err := recorder.Record(ctx, sess); err != nil {
				logger.Error("record expired session", "call_id", sess.CallID, "error", err)
				continue
			}
			metrics.RecordOutcome(string(outcome.StatusNegotiationFailed))
			logger.Info("expired stale session", "call_id", sess.CallID, "load_id", sess.LoadID)
		}
	}
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
