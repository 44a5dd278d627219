package match

import (
	"context"
	"errors"
	"testing"

	"freightline/load"
)

func testInventory() []load.Load {
	return []load.Load{
		{ID: "L100", OriginState: "TX", DestState: "FL", Equipment: load.EquipmentDryVan, PostedRate: 2100, Miles: 925},
		{ID: "L101", OriginState: "TX", DestState: "NC", Equipment: load.EquipmentDryVan, PostedRate: 2300, Miles: 1050},
		{ID: "L102", OriginState: "CA", DestState: "WA", Equipment: load.EquipmentReefer, PostedRate: 3200, Miles: 1100},
		{ID: "L103", OriginState: "TX", DestState: "FL", Equipment: load.EquipmentDryVan, PostedRate: 1800, Miles: 400},
		{ID: "L104", OriginState: "IL", DestState: "GA", Equipment: load.EquipmentFlatbed, PostedRate: 2600, Miles: 700},
	}
}

func TestFindMatchesFiltersEquipmentExactly(t *testing.T) {
	scorer := NewScorer(DefaultWeights())

	results, err := scorer.FindMatches(Criteria{Equipment: load.EquipmentDryVan}, testInventory())
	if err != nil {
		t.Fatalf("find matches: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected dry van matches")
	}
	for _, r := range results {
		if r.Load.Equipment != load.EquipmentDryVan {
			t.Fatalf("result %s has equipment %s", r.Load.ID, r.Load.Equipment)
		}
	}
}

func TestFindMatchesSkipsAssignedLoads(t *testing.T) {
	scorer := NewScorer(DefaultWeights())
	inventory := testInventory()
	inventory[0].Assigned = true

	results, err := scorer.FindMatches(Criteria{Equipment: load.EquipmentDryVan}, inventory)
	if err != nil {
		t.Fatalf("find matches: %v", err)
	}
	for _, r := range results {
		if r.Load.ID == "L100" {
			t.Fatal("assigned load must not be returned")
		}
	}
}

func TestFindMatchesOptionalFilters(t *testing.T) {
	scorer := NewScorer(DefaultWeights())
	inventory := testInventory()

	results, err := scorer.FindMatches(Criteria{
		Equipment:   load.EquipmentDryVan,
		OriginState: "tx",
		DestState:   "FL",
		MinRate:     2000,
		MaxMiles:    1000,
	}, inventory)
	if err != nil {
		t.Fatalf("find matches: %v", err)
	}
	if len(results) != 1 || results[0].Load.ID != "L100" {
		t.Fatalf("expected only L100, got %+v", results)
	}
}

// Two loads both above the stated minimum rank by miles: the rate bonus caps,
// so the shorter haul wins.
func TestFindMatchesDeterministicRanking(t *testing.T) {
	scorer := NewScorer(DefaultWeights())
	inventory := []load.Load{
		{ID: "L101", OriginState: "TX", DestState: "NC", Equipment: load.EquipmentDryVan, PostedRate: 2300, Miles: 1050},
		{ID: "L100", OriginState: "TX", DestState: "FL", Equipment: load.EquipmentDryVan, PostedRate: 2100, Miles: 925},
	}

	results, err := scorer.FindMatches(Criteria{Equipment: load.EquipmentDryVan, MinRate: 2000}, inventory)
	if err != nil {
		t.Fatalf("find matches: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected both loads, got %d", len(results))
	}
	if results[0].Load.ID != "L100" {
		t.Fatalf("expected the shorter L100 ranked first, got %s", results[0].Load.ID)
	}
	if results[0].Score <= results[1].Score {
		t.Fatalf("expected strictly higher score first: %.2f vs %.2f", results[0].Score, results[1].Score)
	}
}

func TestFindMatchesTieBreaksByMilesThenID(t *testing.T) {
	scorer := NewScorer(Weights{BaseScore: 100})
	inventory := []load.Load{
		{ID: "L202", OriginState: "TX", DestState: "FL", Equipment: load.EquipmentDryVan, PostedRate: 2000, Miles: 500},
		{ID: "L201", OriginState: "TX", DestState: "FL", Equipment: load.EquipmentDryVan, PostedRate: 2000, Miles: 500},
		{ID: "L200", OriginState: "TX", DestState: "FL", Equipment: load.EquipmentDryVan, PostedRate: 2000, Miles: 800},
	}

	results, err := scorer.FindMatches(Criteria{Equipment: load.EquipmentDryVan}, inventory)
	if err != nil {
		t.Fatalf("find matches: %v", err)
	}

	// All zero-weight deltas except the (disabled) miles penalty: equal
	// scores, so ordering falls to miles then identifier.
	want := []string{"L201", "L202", "L200"}
	for i, id := range want {
		if results[i].Load.ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, results[i].Load.ID)
		}
	}
}

func TestFindMatchesPreferredLaneBonus(t *testing.T) {
	scorer := NewScorer(DefaultWeights())
	inventory := []load.Load{
		{ID: "L300", OriginState: "TX", DestState: "GA", Equipment: load.EquipmentDryVan, PostedRate: 2000, Miles: 500},
		{ID: "L301", OriginState: "TX", DestState: "FL", Equipment: load.EquipmentDryVan, PostedRate: 2000, Miles: 500},
	}

	results, err := scorer.FindMatches(Criteria{Equipment: load.EquipmentDryVan}, inventory)
	if err != nil {
		t.Fatalf("find matches: %v", err)
	}
	if results[0].Load.ID != "L300" {
		t.Fatalf("expected preferred-lane load first, got %s", results[0].Load.ID)
	}
	if diff := results[0].Score - results[1].Score; diff != 20 {
		t.Fatalf("expected 20 point lane bonus, got %.2f", diff)
	}
}

func TestFindMatchesEmptyResultIsNotError(t *testing.T) {
	scorer := NewScorer(DefaultWeights())

	results, err := scorer.FindMatches(Criteria{Equipment: load.EquipmentStepDeck}, testInventory())
	if err != nil {
		t.Fatalf("find matches: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty result, got %d", len(results))
	}
}

func TestFindMatchesValidation(t *testing.T) {
	scorer := NewScorer(DefaultWeights())

	if _, err := scorer.FindMatches(Criteria{}, nil); !errors.Is(err, ErrEquipmentRequired) {
		t.Fatalf("expected ErrEquipmentRequired, got %v", err)
	}
	if _, err := scorer.FindMatches(Criteria{Equipment: "hovercraft"}, nil); !errors.Is(err, ErrInvalidEquipment) {
		t.Fatalf("expected ErrInvalidEquipment, got %v", err)
	}
	if _, err := scorer.FindMatches(Criteria{Equipment: load.EquipmentDryVan, MinRate: -1}, nil); !errors.Is(err, ErrInvalidCriteria) {
		t.Fatalf("expected ErrInvalidCriteria, got %v", err)
	}
}

type fakeInventory struct {
	loads []load.Load
}

func (f *fakeInventory) ListAvailable(ctx context.Context, equipment load.Equipment) ([]load.Load, error) {
	out := make([]load.Load, 0, len(f.loads))
	for _, ld := range f.loads {
		if ld.Equipment == equipment && !ld.Assigned {
			out = append(out, ld)
		}
	}
	return out, nil
}

func TestServiceSearchCapsResults(t *testing.T) {
	inventory := &fakeInventory{}
	for i := 0; i < 10; i++ {
		inventory.loads = append(inventory.loads, load.Load{
			ID:          string(rune('A' + i)),
			OriginState: "TX",
			DestState:   "FL",
			Equipment:   load.EquipmentDryVan,
			PostedRate:  2000,
			Miles:       500 + i,
		})
	}

	svc := NewService(inventory, NewScorer(DefaultWeights()), 5)
	results, err := svc.Search(context.Background(), Criteria{Equipment: load.EquipmentDryVan})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("expected 5 capped results, got %d", len(results))
	}
}
