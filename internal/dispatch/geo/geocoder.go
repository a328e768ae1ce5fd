package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNoAPIKey is returned when the geocoding provider is not configured.
// Callers fail open to "location unknown" rather than failing the request.
var ErrNoAPIKey = errors.New("geocoder API key not configured")

// Provider resolves a free-form location query to coordinates. A nil result
// with nil error means the provider had no match.
type Provider interface {
	Geocode(ctx context.Context, query string) (*LatLng, error)
}

// HTTPProvider calls an external geocoding API over HTTP. Requests carry a
// hard timeout so a slow provider can never block a job feed.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPProvider creates an HTTPProvider. A zero timeout defaults to 5s.
func NewHTTPProvider(baseURL, apiKey string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type geocodeResponse struct {
	Results []struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"results"`
}

func (p *HTTPProvider) Geocode(ctx context.Context, query string) (*LatLng, error) {
	if p.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("api_key", p.apiKey)
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v1/geocode?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build geocode request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode request returned status %d", resp.StatusCode)
	}

	var body geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode geocode response: %w", err)
	}

	if len(body.Results) == 0 {
		return nil, nil
	}
	return &LatLng{Lat: body.Results[0].Lat, Lng: body.Results[0].Lng}, nil
}
