package webhook

import (
	"encoding/json"
	"net/http"
	"time"

	"freightline/auth"
	"freightline/load"
	"freightline/match"
	"freightline/metrics"
	"freightline/negotiation"
	"freightline/outcome"
)

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}

type verifyCarrierRequest struct {
	CallID   string `json:"call_id"`
	MCNumber string `json:"mc_number"`
}

type verifyCarrierResponse struct {
	MCNumber        string `json:"mc_number"`
	Eligible        bool   `json:"eligible"`
	CompanyName     string `json:"company_name,omitempty"`
	OperatingStatus string `json:"operating_status"`
	SafetyRating    string `json:"safety_rating,omitempty"`
	InsuranceOnFile bool   `json:"insurance_on_file"`
	Source          string `json:"source"`
}

func (s *Server) handleVerifyCarrier(w http.ResponseWriter, r *http.Request) {
	var req verifyCarrierRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ver, err := s.deps.Verifier.Verify(r.Context(), req.MCNumber)
	if err != nil {
		s.respondError(w, err)
		return
	}

	result := "rejected"
	if ver.Authorized {
		result = "authorized"
	}
	metrics.RecordVerification(result, ver.Source)

	writeJSON(w, http.StatusOK, verifyCarrierResponse{
		MCNumber:        ver.MCNumber,
		Eligible:        ver.Authorized,
		CompanyName:     ver.CompanyName,
		OperatingStatus: ver.OperatingStatus,
		SafetyRating:    ver.SafetyRating,
		InsuranceOnFile: ver.InsuranceOnFile,
		Source:          ver.Source,
	})
}

type searchLoadsRequest struct {
	CallID      string  `json:"call_id"`
	Equipment   string  `json:"equipment_type"`
	OriginState string  `json:"origin_state,omitempty"`
	DestState   string  `json:"dest_state,omitempty"`
	MinRate     float64 `json:"min_rate,omitempty"`
	MaxMiles    int     `json:"max_miles,omitempty"`
}

type matchedLoad struct {
	LoadID      string     `json:"load_id"`
	OriginCity  string     `json:"origin_city"`
	OriginState string     `json:"origin_state"`
	DestCity    string     `json:"dest_city"`
	DestState   string     `json:"dest_state"`
	Equipment   string     `json:"equipment_type"`
	PostedRate  float64    `json:"loadboard_rate"`
	Miles       int        `json:"miles"`
	WeightLbs   *int       `json:"weight_lbs,omitempty"`
	Commodity   *string    `json:"commodity,omitempty"`
	PickupAt    *time.Time `json:"pickup_datetime,omitempty"`
	DeliveryAt  *time.Time `json:"delivery_datetime,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
	Score       float64    `json:"score"`
}

type searchLoadsResponse struct {
	Matches []matchedLoad `json:"matches"`
	Count   int           `json:"count"`
}

func (s *Server) handleSearchLoads(w http.ResponseWriter, r *http.Request) {
	var req searchLoadsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	criteria := match.Criteria{
		Equipment:   load.Equipment(req.Equipment),
		OriginState: req.OriginState,
		DestState:   req.DestState,
		MinRate:     req.MinRate,
		MaxMiles:    req.MaxMiles,
	}

	ranked, err := s.deps.Matcher.Search(r.Context(), criteria)
	if err != nil {
		s.respondError(w, err)
		return
	}
	metrics.RecordLoadSearch(len(ranked))

	matches := make([]matchedLoad, 0, len(ranked))
	for _, sc := range ranked {
		ld := sc.Load
		matches = append(matches, matchedLoad{
			LoadID:      ld.ID,
			OriginCity:  ld.OriginCity,
			OriginState: ld.OriginState,
			DestCity:    ld.DestCity,
			DestState:   ld.DestState,
			Equipment:   string(ld.Equipment),
			PostedRate:  ld.PostedRate,
			Miles:       ld.Miles,
			WeightLbs:   ld.WeightLbs,
			Commodity:   ld.Commodity,
			PickupAt:    ld.PickupAt,
			DeliveryAt:  ld.DeliveryAt,
			Notes:       ld.Notes,
			Score:       sc.Score,
		})
	}

	writeJSON(w, http.StatusOK, searchLoadsResponse{Matches: matches, Count: len(matches)})
}

type negotiateRateRequest struct {
	CallID       string  `json:"call_id"`
	LoadID       string  `json:"load_id"`
	CarrierOffer float64 `json:"carrier_offer"`
}

type negotiateRateResponse struct {
	Decision      string  `json:"decision"`
	Rate          float64 `json:"rate,omitempty"`
	FinalOffer    bool    `json:"final_offer,omitempty"`
	Round         int     `json:"round"`
	Message       string  `json:"message"`
	SessionStatus string  `json:"session_status"`
}

func (s *Server) handleNegotiateRate(w http.ResponseWriter, r *http.Request) {
	var req negotiateRateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.CallID == "" || req.LoadID == "" {
		writeError(w, http.StatusBadRequest, "call_id and load_id are required")
		return
	}

	ld, err := s.deps.Board.GetByID(r.Context(), req.LoadID)
	if err != nil {
		s.respondError(w, err)
		return
	}

	sess, resp, err := s.deps.Sessions.Negotiate(r.Context(), req.CallID, req.LoadID, ld.PostedRate, req.CarrierOffer)
	if err != nil {
		s.respondError(w, err)
		return
	}
	metrics.RecordNegotiationDecision(string(resp.Decision))

	// An escalated session is settled; record the failure now so a dropped
	// call still shows up in the analytics.
	if sess.Status == negotiation.StatusExpired {
		if rec, err := s.deps.Outcomes.Record(r.Context(), sess); err != nil {
			s.logger.Error("record escalation outcome", "call_id", sess.CallID, "error", err)
		} else {
			metrics.RecordOutcome(string(rec.Status))
		}
	}

	writeJSON(w, http.StatusOK, negotiateRateResponse{
		Decision:      string(resp.Decision),
		Rate:          resp.Rate,
		FinalOffer:    resp.FinalOffer,
		Round:         resp.RoundsUsed,
		Message:       resp.Message,
		SessionStatus: string(sess.Status),
	})
}

type rejectOfferRequest struct {
	CallID string `json:"call_id"`
	LoadID string `json:"load_id"`
}

type outcomeResponse struct {
	CallID       string   `json:"call_id"`
	Status       string   `json:"status"`
	LoadID       *string  `json:"load_id,omitempty"`
	FinalRate    *float64 `json:"final_rate,omitempty"`
	RoundsUsed   int      `json:"rounds_used"`
	Confirmation *string  `json:"confirmation_number,omitempty"`
}

func toOutcomeResponse(rec outcome.CallOutcome) outcomeResponse {
	return outcomeResponse{
		CallID:       rec.CallID,
		Status:       string(rec.Status),
		LoadID:       rec.LoadID,
		FinalRate:    rec.FinalRate,
		RoundsUsed:   rec.RoundsUsed,
		Confirmation: rec.Confirmation,
	}
}

func (s *Server) handleRejectOffer(w http.ResponseWriter, r *http.Request) {
	var req rejectOfferRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess, err := s.deps.Sessions.Reject(r.Context(), req.CallID, req.LoadID)
	if err != nil {
		s.respondError(w, err)
		return
	}

	rec, err := s.deps.Outcomes.Record(r.Context(), sess)
	if err != nil {
		s.respondError(w, err)
		return
	}
	metrics.RecordOutcome(string(rec.Status))

	writeJSON(w, http.StatusOK, toOutcomeResponse(rec))
}

type confirmLoadRequest struct {
	CallID string `json:"call_id"`
	LoadID string `json:"load_id"`
}

func (s *Server) handleConfirmLoad(w http.ResponseWriter, r *http.Request) {
	var req confirmLoadRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess, err := s.deps.Sessions.Get(r.Context(), req.CallID, req.LoadID)
	if err != nil {
		s.respondError(w, err)
		return
	}

	rec, err := s.deps.Outcomes.Record(r.Context(), sess)
	if err != nil {
		s.respondError(w, err)
		return
	}
	metrics.RecordOutcome(string(rec.Status))

	writeJSON(w, http.StatusOK, toOutcomeResponse(rec))
}

type callCompletedRequest struct {
	CallID         string `json:"call_id"`
	Classification string `json:"classification"`
}

// handleCallCompleted records calls that ended without opening a session:
// carriers that failed verification and searches that found nothing.
func (s *Server) handleCallCompleted(w http.ResponseWriter, r *http.Request) {
	var req callCompletedRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.CallID == "" {
		writeError(w, http.StatusBadRequest, "call_id is required")
		return
	}

	var (
		rec outcome.CallOutcome
		err error
	)
	switch req.Classification {
	case string(outcome.StatusNoMatch):
		rec, err = s.deps.Outcomes.RecordNoMatch(r.Context(), req.CallID)
	case string(outcome.StatusVerificationFailed):
		rec, err = s.deps.Outcomes.RecordVerificationFailed(r.Context(), req.CallID)
	default:
		writeError(w, http.StatusBadRequest, "unknown classification")
		return
	}
	if err != nil {
		s.respondError(w, err)
		return
	}
	metrics.RecordOutcome(string(rec.Status))

	writeJSON(w, http.StatusOK, toOutcomeResponse(rec))
}

type operatorResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type loginResponse struct {
	Token    string           `json:"token"`
	Operator operatorResponse `json:"operator"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := s.deps.Auth.Login(r.Context(), req)
	if err != nil {
		s.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token: result.Token,
		Operator: operatorResponse{
			ID:       result.Operator.ID,
			Email:    result.Operator.Email,
			FullName: result.Operator.FullName,
			Role:     string(result.Operator.Role),
		},
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	op, err := s.deps.Auth.Register(r.Context(), req)
	if err != nil {
		s.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, operatorResponse{
		ID:       op.ID,
		Email:    op.Email,
		FullName: op.FullName,
		Role:     string(op.Role),
	})
}

type summaryResponse struct {
	TotalCalls         int     `json:"total_calls"`
	Booked             int     `json:"booked"`
	NegotiationFailed  int     `json:"negotiation_failed"`
	NoMatch            int     `json:"no_match"`
	VerificationFailed int     `json:"verification_failed"`
	AverageRounds      float64 `json:"average_rounds"`
	BookedRevenue      float64 `json:"booked_revenue"`
	BookingRate        float64 `json:"booking_rate"`
}

func (s *Server) handleDashboardMetrics(w http.ResponseWriter, r *http.Request) {
	sum, err := s.deps.Analytics.Summarize(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summaryResponse{
		TotalCalls:         sum.TotalCalls,
		Booked:             sum.Booked,
		NegotiationFailed:  sum.NegotiationFailed,
		NoMatch:            sum.NoMatch,
		VerificationFailed: sum.VerificationFailed,
		AverageRounds:      sum.AverageRounds,
		BookedRevenue:      sum.BookedRevenue,
		BookingRate:        sum.BookingRate,
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.deps.DB != nil {
		if err := s.deps.DB.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
