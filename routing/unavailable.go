package routing

import "context"

// UnavailableProvider always reports the provider as unreachable. It
// is selected when no routing backend is configured, so the dispatch
// path exercises its degraded branch instead of special-casing nil.
type UnavailableProvider struct{}

func (UnavailableProvider) Route(context.Context, float64, float64, float64, float64) (*Route, error) {
	return nil, ErrUnavailable
}
