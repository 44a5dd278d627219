package negotiation

import (
	"context"
	"time"
)

// SessionRepository abstracts session persistence for the service.
type SessionRepository interface {
	GetOrCreate(ctx context.Context, callID, loadID string, targetRate, floorRate float64) (Session, error)
	Get(ctx context.Context, callID, loadID string) (Session, error)
	Update(ctx context.Context, s Session) (Session, error)
	ExpireStale(ctx context.Context, cutoff time.Time) ([]Session, error)
}

// Service runs negotiation rounds against persisted sessions. Rounds for the
// same call are serialized twice over: an in-process lock per call identifier,
// and the repository's version check for anything the lock cannot see (other
// processes, retried deliveries racing a crash).
type Service struct {
	repo   SessionRepository
	policy Policy
	locks  *lockTable
	now    func() time.Time
}

// NewService builds a Service with the given repository and policy.
func NewService(repo SessionRepository, policy Policy) *Service {
	return &Service{
		repo:   repo,
		policy: policy,
		locks:  newLockTable(),
		now:    time.Now,
	}
}

// Negotiate advances the session for (callID, loadID) by one round. The
// session is created on first use with the load's posted rate as target and
// the policy floor. The returned session reflects the persisted state.
func (s *Service) Negotiate(ctx context.Context, callID, loadID string, postedRate, offer float64) (Session, Response, error) {
	if offer <= 0 {
		return Session{}, Response{}, ErrInvalidOffer
	}

	release := s.locks.acquire(callID)
	defer release()

	sess, err := s.repo.GetOrCreate(ctx, callID, loadID, postedRate, s.policy.FloorFor(postedRate))
	if err != nil {
		return Session{}, Response{}, err
	}

	resp, err := s.policy.Step(&sess, offer)
	if err != nil {
		return sess, Response{}, err
	}

	updated, err := s.repo.Update(ctx, sess)
	if err != nil {
		return Session{}, Response{}, err
	}
	return updated, resp, nil
}

// Reject settles the session as declined by the carrier. Only valid while the
// session is Open.
func (s *Service) Reject(ctx context.Context, callID, loadID string) (Session, error) {
	release := s.locks.acquire(callID)
	defer release()

	sess, err := s.repo.Get(ctx, callID, loadID)
	if err != nil {
		return Session{}, err
	}
	if err := Reject(&sess); err != nil {
		return sess, err
	}
	return s.repo.Update(ctx, sess)
}

// Get returns the current session state.
func (s *Service) Get(ctx context.Context, callID, loadID string) (Session, error) {
	return s.repo.Get(ctx, callID, loadID)
}

// ExpireStale settles Open sessions idle longer than ttl and returns them so
// the caller can record their outcomes.
func (s *Service) ExpireStale(ctx context.Context, ttl time.Duration) ([]Session, error) {
	return s.repo.ExpireStale(ctx, s.now().Add(-ttl))
}
