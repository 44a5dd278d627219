package outcome

import "time"

// Status classifies how a call ended.
type Status string

const (
	StatusBooked             Status = "booked"
	StatusNegotiationFailed  Status = "negotiation_failed"
	StatusNoMatch            Status = "no_match"
	StatusVerificationFailed Status = "verification_failed"
)

// CallOutcome is the terminal summary of one call. Rows are append-only;
// recording twice for the same call returns the original row.
type CallOutcome struct {
	ID           string
	CallID       string
	Status       Status
	LoadID       *string
	FinalRate    *float64
	RoundsUsed   int
	Confirmation *string
	CreatedAt    time.Time
}

// InsertParams enumerates the fields written for a new outcome.
type InsertParams struct {
	CallID       string
	Status       Status
	LoadID       *string
	FinalRate    *float64
	RoundsUsed   int
	Confirmation *string
}

// Summary aggregates recorded outcomes for the dashboard.
type Summary struct {
	TotalCalls         int
	Booked             int
	NegotiationFailed  int
	NoMatch            int
	VerificationFailed int
	AverageRounds      float64
	BookedRevenue      float64
	BookingRate        float64
}
