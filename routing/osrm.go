package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"fleet-dispatch-system/logger"
)

// OSRMProvider fetches routes from an OSRM HTTP instance.
type OSRMProvider struct {
	baseURL    string
	profile    string
	httpClient *http.Client
	log        logger.Logger
}

func NewOSRMProvider(baseURL, profile string, timeout time.Duration, log logger.Logger) *OSRMProvider {
	if profile == "" {
		profile = "driving"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &OSRMProvider{
		baseURL:    baseURL,
		profile:    profile,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

func (p *OSRMProvider) Route(ctx context.Context, startLat, startLon, endLat, endLon float64) (*Route, error) {
	url := fmt.Sprintf(
		"%s/route/v1/%s/%f,%f;%f,%f?overview=full&geometries=geojson&alternatives=false&steps=false",
		p.baseURL, p.profile, startLon, startLat, endLon, endLat,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.log.Warnf("osrm request failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.log.Warnf("osrm error status %d", resp.StatusCode)
		return nil, fmt.Errorf("%w: OSRM status %d", ErrUnavailable, resp.StatusCode)
	}

	var payload osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if payload.Code != "Ok" || len(payload.Routes) == 0 {
		return nil, ErrNoRoute
	}

	best := payload.Routes[0]
	// OSRM emits [lon, lat]; flip for map consumers.
	path := make([][2]float64, 0, len(best.Geometry.Coordinates))
	for _, c := range best.Geometry.Coordinates {
		if len(c) < 2 {
			continue
		}
		path = append(path, [2]float64{c[1], c[0]})
	}
	return &Route{
		Path:            path,
		DistanceMeters:  best.Distance,
		DurationSeconds: best.Duration,
	}, nil
}
