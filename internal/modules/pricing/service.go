// README: Pricing service maps a delivery distance to its tier and fee.
package pricing

import (
	"math"

	"pizzabot/internal/types"
)

type Service struct {
	fees Fees
}

func NewService(fees Fees) *Service {
	return &Service{fees: fees}
}

// TierFor evaluates the tiers in ascending order; the first match wins.
// Negative distances are treated as zero; NaN is not deliverable.
func TierFor(distanceKm float64) Tier {
	switch {
	case math.IsNaN(distanceKm):
		return TierPickupOnly
	case distanceKm <= PickupSuggestedMaxKm:
		return TierPickupSuggested
	case distanceKm <= NearMaxKm:
		return TierNear
	case distanceKm <= FarMaxKm:
		return TierFar
	default:
		return TierPickupOnly
	}
}

func (s *Service) Quote(distanceKm float64) Quote {
	tier := TierFor(distanceKm)
	q := Quote{Tier: tier, DeliveryEligible: tier != TierPickupOnly}
	switch tier {
	case TierPickupSuggested:
		q.Fee = types.Money{Currency: s.fees.Near.Currency}
	case TierNear:
		q.Fee = s.fees.Near
	case TierFar:
		q.Fee = s.fees.Far
	}
	return q
}
