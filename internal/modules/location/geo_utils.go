// README: Great-circle distance between customer and pizzeria positions.
package location

import (
	"math"

	"pizzabot/internal/types"
)

// Mean Earth radius; the tier thresholds are coarse enough that the
// spherical model is accurate.
const earthRadiusKm = 6371.0

// DistanceKm is the haversine distance between a and b in kilometres.
func DistanceKm(a, b types.Point) float64 {
	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	dLat := lat2 - lat1
	dLng := radians(b.Lng - a.Lng)

	h := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dLng/2), 2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
