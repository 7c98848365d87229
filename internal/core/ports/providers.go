package ports

import (
	"context"

	"github.com/qiyuanliu/mapnav/internal/core/domain"
)

// MapProvider is the per-provider resolver and URL capability. AMap and Baidu
// each implement it with their own endpoints, field mappings, and coordinate
// conventions; the dispatcher never branches on the concrete provider.
//
// Resolve methods return (nil, nil) when nothing matched — "not found" is an
// outcome, not an error. Transport and decode failures are swallowed into not
// found by the adapter; the only error a resolver raises is
// domain.ErrNotConfigured for a missing credential.
type MapProvider interface {
	// ResolvePlace resolves a free-text keyword, trying the keyword place
	// search first and falling back to structured geocoding. First result
	// wins; there is no ranking.
	ResolvePlace(ctx context.Context, keyword string) (*domain.Place, error)

	// ResolvePosition reverse-geocodes a raw WGS-84 device coordinate.
	ResolvePosition(ctx context.Context, lng, lat float64) (*domain.Place, error)

	// RouteURL synthesizes the provider's web-map deep link for a route.
	// The returned URL is directly openable without further editing.
	RouteURL(from, to *domain.Place) string
}
