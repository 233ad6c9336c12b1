// README: Nearest-site routing over a freshly fetched set of fulfillment locations.
package location

import (
	"errors"

	"pizzabot/internal/types"
)

var ErrNoSites = errors.New("no fulfillment locations")

// FindNearest returns the site closest to origin. Ties keep the first site
// encountered, so callers that pass sites in a fixed order get a stable answer.
func FindNearest(origin types.Point, sites []Site) (Nearest, error) {
	if len(sites) == 0 {
		return Nearest{}, ErrNoSites
	}
	best := Nearest{Index: 0, SiteID: sites[0].ID, DistanceKm: DistanceKm(origin, sites[0].Position)}
	for i := 1; i < len(sites); i++ {
		d := DistanceKm(origin, sites[i].Position)
		if d < best.DistanceKm {
			best = Nearest{Index: i, SiteID: sites[i].ID, DistanceKm: d}
		}
	}
	return best, nil
}
