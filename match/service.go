package match

import (
	"context"

	"freightline/load"
)

// Inventory abstracts the load repository for the service.
type Inventory interface {
	ListAvailable(ctx context.Context, equipment load.Equipment) ([]load.Load, error)
}

// Service exposes load search over the live inventory.
type Service struct {
	inventory  Inventory
	scorer     *Scorer
	maxResults int
}

// NewService builds a Service using the provided inventory and scorer.
func NewService(inventory Inventory, scorer *Scorer, maxResults int) *Service {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &Service{
		inventory:  inventory,
		scorer:     scorer,
		maxResults: maxResults,
	}
}

// Search ranks the available loads for the criteria and returns at most the
// configured number of candidates.
func (s *Service) Search(ctx context.Context, criteria Criteria) ([]Scored, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	inventory, err := s.inventory.ListAvailable(ctx, criteria.Equipment)
	if err != nil {
		return nil, err
	}

	ranked, err := s.scorer.FindMatches(criteria, inventory)
	if err != nil {
		return nil, err
	}
	if len(ranked) > s.maxResults {
		ranked = ranked[:s.maxResults]
	}
	return ranked, nil
}
