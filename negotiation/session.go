// Package negotiation implements the bounded multi-round rate negotiation
// between a carrier's offers and the broker's counter-offers.
package negotiation

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Status is the lifecycle state of a negotiation session. Every status other
// than Open is terminal.
type Status string

const (
	StatusOpen     Status = "open"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

var (
	// ErrInvalidOffer signals a non-positive carrier offer.
	ErrInvalidOffer = errors.New("negotiation: offer must be positive")
	// ErrSessionTerminal signals an operation on an already-settled session.
	ErrSessionTerminal = errors.New("negotiation: session already terminal")
	// ErrNotFound signals the session does not exist.
	ErrNotFound = errors.New("negotiation: session not found")
	// ErrVersionConflict signals a lost optimistic-concurrency race; the
	// caller may reload and retry.
	ErrVersionConflict = errors.New("negotiation: concurrent update conflict")
)

// Session tracks one carrier's negotiation over one load within one call.
type Session struct {
	ID             string
	CallID         string
	LoadID         string
	Round          int
	CarrierOffers  []float64
	BrokerCounters []float64
	TargetRate     float64
	FloorRate      float64
	Status         Status
	FinalRate      *float64
	Version        int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Terminal reports whether the session can no longer change.
func (s *Session) Terminal() bool {
	return s.Status != StatusOpen
}

// Decision is the broker's move for one round.
type Decision string

const (
	DecisionAccept   Decision = "accept"
	DecisionCounter  Decision = "counter"
	DecisionEscalate Decision = "escalate"
)

// Response is the broker's answer to a carrier offer, shaped for the voice
// agent to read back.
type Response struct {
	Decision   Decision
	Rate       float64
	FinalOffer bool
	RoundsUsed int
	Message    string
}

// Policy carries the negotiation parameters. The concession schedule gives,
// per round, the fraction of the remaining gap the broker concedes; later
// rounds concede less.
type Policy struct {
	MaxRounds     int
	FloorFraction float64
	Concessions   []float64
}

// DefaultPolicy mirrors the configuration defaults.
func DefaultPolicy() Policy {
	return Policy{
		MaxRounds:     3,
		FloorFraction: 0.90,
		Concessions:   []float64{0.5, 0.3, 0.15},
	}
}

// FloorFor derives the minimum acceptable rate from a posted rate.
func (p Policy) FloorFor(postedRate float64) float64 {
	return roundCents(postedRate * p.FloorFraction)
}

func (p Policy) factor(round int) float64 {
	if len(p.Concessions) == 0 {
		return 0
	}
	if round >= len(p.Concessions) {
		round = len(p.Concessions) - 1
	}
	return p.Concessions[round]
}

// Step advances an Open session by one round for the given carrier offer.
// Transitions are evaluated in order: round exhaustion, acceptance at or above
// floor, counter-offer (clamped to the floor). The session is mutated in
// place; persisting it is the caller's concern.
func (p Policy) Step(s *Session, offer float64) (Response, error) {
	if offer <= 0 {
		return Response{}, ErrInvalidOffer
	}
	if s.Terminal() {
		return Response{}, ErrSessionTerminal
	}

	if s.Round >= p.MaxRounds {
		s.Status = StatusExpired
		return Response{
			Decision:   DecisionEscalate,
			RoundsUsed: s.Round,
			Message:    "Let me connect you with a senior dispatcher who may have more room on the rate.",
		}, nil
	}

	s.CarrierOffers = append(s.CarrierOffers, offer)

	// An offer at or above the floor is taken as-is; countering an already
	// acceptable offer would leave money on the table.
	if offer >= s.FloorRate {
		s.Status = StatusAccepted
		s.FinalRate = &offer
		return Response{
			Decision:   DecisionAccept,
			Rate:       offer,
			RoundsUsed: s.Round,
			Message:    fmt.Sprintf("Done — $%.2f works for this load. Let me get you set up.", offer),
		}, nil
	}

	counter := roundCents(offer + (s.TargetRate-offer)*p.factor(s.Round))
	finalOffer := false
	if counter < s.FloorRate {
		counter = s.FloorRate
		finalOffer = true
	}

	s.BrokerCounters = append(s.BrokerCounters, counter)
	s.Round++

	msg := fmt.Sprintf("How about $%.2f? That works better on this lane.", counter)
	if finalOffer {
		msg = fmt.Sprintf("The best I can do is $%.2f — that's our floor on this load.", counter)
	}

	return Response{
		Decision:   DecisionCounter,
		Rate:       counter,
		FinalOffer: finalOffer,
		RoundsUsed: s.Round,
		Message:    msg,
	}, nil
}

// Reject settles an Open session as declined. It models an out-of-band
// cancellation (carrier hangs up or walks away), never an automatic
// transition from the round logic.
func Reject(s *Session) error {
	if s.Terminal() {
		return ErrSessionTerminal
	}
	s.Status = StatusRejected
	return nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
