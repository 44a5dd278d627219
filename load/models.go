package load

import "time"

// Equipment identifies the trailer type a load requires.
type Equipment string

const (
	EquipmentDryVan    Equipment = "dry_van"
	EquipmentReefer    Equipment = "reefer"
	EquipmentFlatbed   Equipment = "flatbed"
	EquipmentStepDeck  Equipment = "step_deck"
	EquipmentPowerOnly Equipment = "power_only"
)

// Valid reports whether the equipment type is one the board posts.
func (e Equipment) Valid() bool {
	switch e {
	case EquipmentDryVan, EquipmentReefer, EquipmentFlatbed, EquipmentStepDeck, EquipmentPowerOnly:
		return true
	default:
		return false
	}
}

// Load is a posted shipment. It is immutable once posted except for the
// assignment fields, which are set exactly once on a successful booking.
type Load struct {
	ID           string
	OriginCity   string
	OriginState  string
	DestCity     string
	DestState    string
	Equipment    Equipment
	PostedRate   float64
	Miles        int
	WeightLbs    *int
	Commodity    *string
	PickupAt     *time.Time
	DeliveryAt   *time.Time
	Notes        *string
	Assigned     bool
	AssignedRate *float64
	AssignedAt   *time.Time
	CreatedAt    time.Time
}

// CreateParams enumerates the fields required to post a new load.
type CreateParams struct {
	ID          string
	OriginCity  string
	OriginState string
	DestCity    string
	DestState   string
	Equipment   Equipment
	PostedRate  float64
	Miles       int
	WeightLbs   *int
	Commodity   *string
	PickupAt    *time.Time
	DeliveryAt  *time.Time
	Notes       *string
}
