package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/i474232898/city-weather/internal/weather"
)

// Getter fetches a URL and returns its body.
type Getter interface {
	Get(ctx context.Context, rawURL string) ([]byte, error)
}

// GeocodingProvider implements weather.Geocoder with the Open-Meteo geocoding search API.
type GeocodingProvider struct {
	client  Getter
	baseURL string
}

func NewGeocodingProvider(client Getter, baseURL string) *GeocodingProvider {
	return &GeocodingProvider{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/") + "/v1/search",
	}
}

type geocodeResponse struct {
	Results []struct {
		Name      string   `json:"name"`
		Country   string   `json:"country"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	} `json:"results"`
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

// Resolve returns the coordinates of the first match for city.
func (p *GeocodingProvider) Resolve(ctx context.Context, city string) (weather.Coordinates, error) {
	values := url.Values{}
	values.Set("name", city)

	body, err := p.client.Get(ctx, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()))
	if err != nil {
		return weather.Coordinates{}, err
	}

	var payload geocodeResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return weather.Coordinates{}, fmt.Errorf("%w: geocode %q: %v", weather.ErrMalformedResponse, city, err)
	}

	if len(payload.Results) == 0 {
		if payload.Error {
			return weather.Coordinates{}, fmt.Errorf("%w: %s (%s)", weather.ErrNotFound, city, payload.Reason)
		}
		return weather.Coordinates{}, fmt.Errorf("%w: %s", weather.ErrNotFound, city)
	}

	first := payload.Results[0]
	if first.Latitude == nil || first.Longitude == nil {
		return weather.Coordinates{}, fmt.Errorf("%w: geocode %q: result without coordinates", weather.ErrMalformedResponse, city)
	}

	return weather.Coordinates{
		Latitude:  *first.Latitude,
		Longitude: *first.Longitude,
	}, nil
}
