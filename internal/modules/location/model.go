// README: Fulfillment location as seen by the router.
package location

import "pizzabot/internal/types"

// Site is a fulfillment location reduced to what routing needs.
type Site struct {
	ID       string
	Position types.Point
}

// Nearest is the outcome of a routing lookup.
type Nearest struct {
	Index      int
	SiteID     string
	DistanceKm float64
}
