// Package outcome projects terminal negotiation sessions into append-only
// call outcome records.
package outcome

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"freightline/load"
	"freightline/negotiation"
)

// ErrSessionOpen signals outcome recording attempted before the session
// settled; it indicates a caller ordering bug.
var ErrSessionOpen = errors.New("outcome: session still open")

// Repository abstracts outcome persistence for the recorder.
type Repository interface {
	Insert(ctx context.Context, params InsertParams) (CallOutcome, error)
	GetByCallID(ctx context.Context, callID string) (CallOutcome, error)
}

// LoadAssigner marks a load booked at the final rate.
type LoadAssigner interface {
	MarkAssigned(ctx context.Context, id string, rate float64) (load.Load, error)
}

// Recorder writes exactly one CallOutcome per call. Recording again for the
// same call is a no-op that returns the original outcome.
type Recorder struct {
	repo    Repository
	loads   LoadAssigner
	confGen func() string
}

// NewRecorder builds a Recorder over the given repository and load inventory.
func NewRecorder(repo Repository, loads LoadAssigner) *Recorder {
	return &Recorder{
		repo:    repo,
		loads:   loads,
		confGen: newConfirmationNumber,
	}
}

// Record translates a terminal session into a persisted outcome. Accepted
// sessions become booked outcomes with a confirmation number and the load is
// flagged assigned; rejected and expired sessions become negotiation failures.
func (r *Recorder) Record(ctx context.Context, sess negotiation.Session) (CallOutcome, error) {
	if !sess.Terminal() {
		return CallOutcome{}, ErrSessionOpen
	}

	params := InsertParams{
		CallID:     sess.CallID,
		LoadID:     &sess.LoadID,
		RoundsUsed: sess.Round,
	}

	booked := sess.Status == negotiation.StatusAccepted
	if booked {
		if sess.FinalRate == nil {
			return CallOutcome{}, fmt.Errorf("outcome: accepted session %s has no final rate", sess.ID)
		}
		conf := r.confGen()
		params.Status = StatusBooked
		params.FinalRate = sess.FinalRate
		params.Confirmation = &conf
	} else {
		params.Status = StatusNegotiationFailed
	}

	rec, err := r.repo.Insert(ctx, params)
	if err != nil {
		if errors.Is(err, ErrDuplicateCall) {
			return r.repo.GetByCallID(ctx, sess.CallID)
		}
		return CallOutcome{}, err
	}

	if booked {
		if _, err := r.loads.MarkAssigned(ctx, sess.LoadID, *sess.FinalRate); err != nil && !errors.Is(err, load.ErrAlreadyAssigned) {
			return CallOutcome{}, fmt.Errorf("outcome: assign load %s: %w", sess.LoadID, err)
		}
	}

	return rec, nil
}

// RecordNoMatch records a call that ended without a suitable load. No session
// ever opened, so it is keyed by call alone.
func (r *Recorder) RecordNoMatch(ctx context.Context, callID string) (CallOutcome, error) {
	return r.recordSessionless(ctx, callID, StatusNoMatch)
}

// RecordVerificationFailed records a call that ended at credential checking.
func (r *Recorder) RecordVerificationFailed(ctx context.Context, callID string) (CallOutcome, error) {
	return r.recordSessionless(ctx, callID, StatusVerificationFailed)
}

func (r *Recorder) recordSessionless(ctx context.Context, callID string, status Status) (CallOutcome, error) {
	rec, err := r.repo.Insert(ctx, InsertParams{CallID: callID, Status: status})
	if err != nil {
		if errors.Is(err, ErrDuplicateCall) {
			return r.repo.GetByCallID(ctx, callID)
		}
		return CallOutcome{}, err
	}
	return rec, nil
}

func newConfirmationNumber() string {
	return "CONF-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
