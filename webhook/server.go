// Package webhook exposes the HTTP surface the voice platform calls during a
// live carrier conversation, plus the operator dashboard endpoints.
package webhook

import (
	"context"
	"log/slog"
	"net/http"

	"freightline/auth"
	"freightline/carrier"
	"freightline/load"
	"freightline/match"
	"freightline/metrics"
	"freightline/negotiation"
	"freightline/outcome"
)

// CarrierVerifier checks a carrier's operating authority.
type CarrierVerifier interface {
	Verify(ctx context.Context, mcNumber string) (carrier.Verification, error)
}

// LoadSearcher ranks available loads for a carrier's criteria.
type LoadSearcher interface {
	Search(ctx context.Context, criteria match.Criteria) ([]match.Scored, error)
}

// LoadBoard resolves posted loads by identifier.
type LoadBoard interface {
	GetByID(ctx context.Context, id string) (load.Load, error)
}

// Negotiator runs the rate negotiation rounds.
type Negotiator interface {
	Negotiate(ctx context.Context, callID, loadID string, postedRate, offer float64) (negotiation.Session, negotiation.Response, error)
	Reject(ctx context.Context, callID, loadID string) (negotiation.Session, error)
	Get(ctx context.Context, callID, loadID string) (negotiation.Session, error)
}

// OutcomeRecorder persists terminal call outcomes.
type OutcomeRecorder interface {
	Record(ctx context.Context, sess negotiation.Session) (outcome.CallOutcome, error)
	RecordNoMatch(ctx context.Context, callID string) (outcome.CallOutcome, error)
	RecordVerificationFailed(ctx context.Context, callID string) (outcome.CallOutcome, error)
}

// Analytics aggregates recorded outcomes for the dashboard.
type Analytics interface {
	Summarize(ctx context.Context) (outcome.Summary, error)
}

// Authenticator manages operator accounts and tokens.
type Authenticator interface {
	Register(ctx context.Context, req auth.RegisterRequest) (*auth.Operator, error)
	Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResult, error)
	VerifyToken(token string) (string, auth.Role, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps bundles everything the HTTP surface delegates to.
type Deps struct {
	Verifier  CarrierVerifier
	Matcher   LoadSearcher
	Board     LoadBoard
	Sessions  Negotiator
	Outcomes  OutcomeRecorder
	Analytics Analytics
	Auth      Authenticator
	DB        Pinger
}

// Server adapts the domain services to HTTP.
type Server struct {
	deps   Deps
	apiKey string
	logger *slog.Logger
}

// NewServer builds the HTTP adapter. The apiKey guards the webhook endpoints;
// dashboard endpoints use operator JWTs instead.
func NewServer(deps Deps, apiKey string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		deps:   deps,
		apiKey: apiKey,
		logger: logger,
	}
}

// Register attaches all routes to the mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.Handle("POST /webhook/verify-carrier", s.webhookChain("/webhook/verify-carrier", s.handleVerifyCarrier))
	mux.Handle("POST /webhook/search-loads", s.webhookChain("/webhook/search-loads", s.handleSearchLoads))
	mux.Handle("POST /webhook/negotiate-rate", s.webhookChain("/webhook/negotiate-rate", s.handleNegotiateRate))
	mux.Handle("POST /webhook/reject-offer", s.webhookChain("/webhook/reject-offer", s.handleRejectOffer))
	mux.Handle("POST /webhook/confirm-load", s.webhookChain("/webhook/confirm-load", s.handleConfirmLoad))
	mux.Handle("POST /webhook/call-completed", s.webhookChain("/webhook/call-completed", s.handleCallCompleted))

	mux.Handle("POST /auth/login", s.instrument("/auth/login", s.handleLogin))
	mux.Handle("POST /auth/register", s.webhookChain("/auth/register", s.handleRegister))
	mux.Handle("GET /dashboard/metrics", s.instrument("/dashboard/metrics", s.requireJWT(s.handleDashboardMetrics)))

	mux.Handle("GET /healthz", s.instrument("/healthz", s.handleHealthz))
	mux.Handle("GET /metrics", metrics.Handler())
}

// webhookChain applies the API-key gate plus instrumentation.
func (s *Server) webhookChain(endpoint string, h http.HandlerFunc) http.Handler {
	return s.instrument(endpoint, s.requireAPIKey(h))
}
