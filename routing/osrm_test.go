package routing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fleet-dispatch-system/logger"
)

const osrmOKBody = `{
	"code": "Ok",
	"routes": [{
		"geometry": {"coordinates": [[73.847, 18.525], [73.850, 18.530]]},
		"distance": 742.5,
		"duration": 96.3
	}]
}`

func TestOSRMRouteSuccess(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(osrmOKBody))
	}))
	defer srv.Close()

	p := NewOSRMProvider(srv.URL, "driving", time.Second, logger.Nop())
	route, err := p.Route(context.Background(), 18.525, 73.847, 18.530, 73.850)
	require.NoError(t, err)

	// Coordinates go out lon-first.
	require.True(t, strings.HasPrefix(gotPath, "/route/v1/driving/73.847"), "path %s", gotPath)

	require.Equal(t, 742.5, route.DistanceMeters)
	require.Equal(t, 96.3, route.DurationSeconds)
	// GeoJSON [lon, lat] comes back flipped to [lat, lon].
	require.Equal(t, [][2]float64{{18.525, 73.847}, {18.530, 73.850}}, route.Path)
}

func TestOSRMRouteNoRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"code": "NoRoute", "routes": []}`))
	}))
	defer srv.Close()

	p := NewOSRMProvider(srv.URL, "", time.Second, logger.Nop())
	_, err := p.Route(context.Background(), 18.525, 73.847, 18.530, 73.850)
	require.ErrorIs(t, err, ErrNoRoute)
}

func TestOSRMRouteServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewOSRMProvider(srv.URL, "driving", time.Second, logger.Nop())
	_, err := p.Route(context.Background(), 18.525, 73.847, 18.530, 73.850)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestOSRMRouteUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	p := NewOSRMProvider(srv.URL, "driving", 100*time.Millisecond, logger.Nop())
	_, err := p.Route(context.Background(), 18.525, 73.847, 18.530, 73.850)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestUnavailableProvider(t *testing.T) {
	p := UnavailableProvider{}
	_, err := p.Route(context.Background(), 0, 0, 1, 1)
	require.ErrorIs(t, err, ErrUnavailable)
}
