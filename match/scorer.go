// Package match ranks available loads against a carrier's stated preferences.
package match

import (
	"errors"
	"sort"
	"strings"

	"freightline/load"
)

var (
	// ErrEquipmentRequired signals criteria without an equipment type.
	ErrEquipmentRequired = errors.New("match: equipment type required")
	// ErrInvalidEquipment signals an equipment type the board does not post.
	ErrInvalidEquipment = errors.New("match: invalid equipment type")
	// ErrInvalidCriteria signals negative rate or mileage bounds.
	ErrInvalidCriteria = errors.New("match: negative rate or mileage bound")
)

// Criteria is a carrier's search request. Zero values mean "no preference"
// for the optional fields.
type Criteria struct {
	Equipment load.Equipment
	// OriginState and DestState filter by exact state code when set.
	OriginState string
	DestState   string
	// MinRate excludes loads posted below it when positive.
	MinRate float64
	// MaxMiles excludes longer hauls when positive.
	MaxMiles int
}

// Validate rejects criteria the scorer cannot rank.
func (c Criteria) Validate() error {
	if c.Equipment == "" {
		return ErrEquipmentRequired
	}
	if !c.Equipment.Valid() {
		return ErrInvalidEquipment
	}
	if c.MinRate < 0 || c.MaxMiles < 0 {
		return ErrInvalidCriteria
	}
	return nil
}

// Scored pairs a load with its fitness score.
type Scored struct {
	Load  load.Load
	Score float64
}

// Weights carries the scoring policy. The numbers are business heuristics and
// live in configuration; scenarios in the tests pin the resulting ordering.
type Weights struct {
	BaseScore          float64
	PreferredLaneBonus float64
	PreferredLanes     []string
	RateBonusPer100    float64
	RateBonusCap       float64
	MilesPenaltyPer50  float64
}

// DefaultWeights mirrors the configuration defaults.
func DefaultWeights() Weights {
	return Weights{
		BaseScore:          100,
		PreferredLaneBonus: 20,
		PreferredLanes:     []string{"TX", "GA", "IL", "OH"},
		RateBonusPer100:    10,
		RateBonusCap:       10,
		MilesPenaltyPer50:  1,
	}
}

// Scorer ranks inventory loads for a carrier.
type Scorer struct {
	weights   Weights
	preferred map[string]struct{}
}

// NewScorer builds a Scorer from the given weights.
func NewScorer(weights Weights) *Scorer {
	preferred := make(map[string]struct{}, len(weights.PreferredLanes))
	for _, state := range weights.PreferredLanes {
		preferred[strings.ToUpper(state)] = struct{}{}
	}
	return &Scorer{weights: weights, preferred: preferred}
}

// FindMatches filters the inventory by the criteria and returns the survivors
// ranked by descending score. Ties break by ascending miles, then ascending
// load identifier. An empty result is not an error; the caller decides how to
// present "no match".
func (s *Scorer) FindMatches(criteria Criteria, inventory []load.Load) ([]Scored, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	originState := strings.ToUpper(criteria.OriginState)
	destState := strings.ToUpper(criteria.DestState)

	results := make([]Scored, 0, len(inventory))
	for _, ld := range inventory {
		if ld.Assigned || ld.Equipment != criteria.Equipment {
			continue
		}
		if originState != "" && ld.OriginState != originState {
			continue
		}
		if destState != "" && ld.DestState != destState {
			continue
		}
		if criteria.MinRate > 0 && ld.PostedRate < criteria.MinRate {
			continue
		}
		if criteria.MaxMiles > 0 && ld.Miles > criteria.MaxMiles {
			continue
		}
		results = append(results, Scored{Load: ld, Score: s.score(criteria, ld)})
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Load.Miles != b.Load.Miles {
			return a.Load.Miles < b.Load.Miles
		}
		return a.Load.ID < b.Load.ID
	})

	return results, nil
}

func (s *Scorer) score(criteria Criteria, ld load.Load) float64 {
	score := s.weights.BaseScore

	if _, ok := s.preferred[ld.DestState]; ok {
		score += s.weights.PreferredLaneBonus
	}

	if criteria.MinRate > 0 && ld.PostedRate > criteria.MinRate {
		bonus := (ld.PostedRate - criteria.MinRate) / 100 * s.weights.RateBonusPer100
		if bonus > s.weights.RateBonusCap {
			bonus = s.weights.RateBonusCap
		}
		score += bonus
	}

	score -= float64(ld.Miles) / 50 * s.weights.MilesPenaltyPer50

	return score
}
