package maps

import (
	"context"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"

	"pizzabot/internal/types"
)

type geocodeClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// GeocoderService resolves free-form addresses with the Google Geocoding API,
// falling back to a Places text search when the address matches nothing.
type GeocoderService struct {
	client geocodeClient
	// places is optional; nil disables the fallback.
	places   placeSearcher
	language string
	region   string
}

// NewGeocoderService creates a GeocoderService with the given API Key.
func NewGeocoderService(apiKey, language, region string) (*GeocoderService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GeocoderService{client: client, places: client, language: language, region: region}, nil
}

// Geocode returns the coordinates of the best match. found is false when the
// address matches nothing; err is reserved for API failures.
func (s *GeocoderService) Geocode(ctx context.Context, address string) (types.Point, bool, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return types.Point{}, false, nil
	}

	r := &maps.GeocodingRequest{
		Address:  address,
		Language: s.language,
		Region:   s.region,
	}
	results, err := s.client.Geocode(ctx, r)
	if err != nil && !strings.Contains(err.Error(), "ZERO_RESULTS") {
		return types.Point{}, false, fmt.Errorf("geocoding api error: %w", err)
	}
	if len(results) == 0 {
		if s.places == nil {
			return types.Point{}, false, nil
		}
		return s.searchPlace(ctx, address)
	}

	loc := results[0].Geometry.Location
	return types.Point{Lat: loc.Lat, Lng: loc.Lng}, true, nil
}
