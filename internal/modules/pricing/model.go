// README: Delivery tier definitions keyed by distance to the nearest fulfillment location.
package pricing

import "pizzabot/internal/types"

// Tier buckets a delivery distance. Higher values are stricter.
type Tier int

const (
	// TierPickupSuggested: the customer is next door; delivery is free.
	TierPickupSuggested Tier = iota
	TierNear
	TierFar
	TierPickupOnly
)

func (t Tier) String() string {
	switch t {
	case TierPickupSuggested:
		return "pickup_suggested"
	case TierNear:
		return "near"
	case TierFar:
		return "far"
	case TierPickupOnly:
		return "pickup_only"
	default:
		return "unknown"
	}
}

// Distance thresholds in km, inclusive upper bounds.
const (
	PickupSuggestedMaxKm = 0.5
	NearMaxKm            = 5.0
	FarMaxKm             = 20.0
)

type Fees struct {
	Near types.Money
	Far  types.Money
}

type Quote struct {
	Tier             Tier
	DeliveryEligible bool
	Fee              types.Money
}
