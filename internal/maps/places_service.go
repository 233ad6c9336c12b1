package maps

import (
	"context"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"

	"pizzabot/internal/types"
)

type placeSearcher interface {
	TextSearch(ctx context.Context, r *maps.TextSearchRequest) (maps.PlacesSearchResponse, error)
}

// searchPlace resolves landmark-style input ("Bolshoi Theatre", "Central
// Market food court") that the Geocoding API does not recognise as an address.
func (s *GeocoderService) searchPlace(ctx context.Context, query string) (types.Point, bool, error) {
	r := &maps.TextSearchRequest{
		Query:    query,
		Language: s.language,
		Region:   s.region,
	}
	resp, err := s.places.TextSearch(ctx, r)
	if err != nil {
		if strings.Contains(err.Error(), "ZERO_RESULTS") {
			return types.Point{}, false, nil
		}
		return types.Point{}, false, fmt.Errorf("places api error: %w", err)
	}
	for _, result := range resp.Results {
		// Skip results without a usable position.
		loc := result.Geometry.Location
		if loc.Lat == 0 && loc.Lng == 0 {
			continue
		}
		return types.Point{Lat: loc.Lat, Lng: loc.Lng}, true, nil
	}
	return types.Point{}, false, nil
}
