package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/qiyuanliu/mapnav/internal/core/domain"
	"github.com/qiyuanliu/mapnav/internal/core/ports"
	"github.com/qiyuanliu/mapnav/internal/pkg/geospatial"
	"github.com/qiyuanliu/mapnav/internal/pkg/metrics"
)

// NavigationService turns a free-text travel request into a launched
// provider navigation session. Per request it moves through extract →
// resolve → synthesize → launch; any stage failure aborts the rest. The
// service holds no per-request state.
type NavigationService struct {
	providers map[domain.Provider]ports.MapProvider
	extractor ports.IntentExtractor
	opener    ports.URLOpener
	events    ports.EventPublisher // optional
	cache     ports.CacheService   // optional
	cacheTTL  int
}

// NewNavigationService wires the dispatcher. events and cache may be nil.
func NewNavigationService(
	providers map[domain.Provider]ports.MapProvider,
	extractor ports.IntentExtractor,
	opener ports.URLOpener,
	events ports.EventPublisher,
	cache ports.CacheService,
	cacheTTLSeconds int,
) *NavigationService {
	return &NavigationService{
		providers: providers,
		extractor: extractor,
		opener:    opener,
		events:    events,
		cache:     cache,
		cacheTTL:  cacheTTLSeconds,
	}
}

// Plan runs the whole pipeline for one request. deviceLoc is the optional
// browser coordinate (WGS-84); an explicit origin in the request text always
// takes priority over it.
func (s *NavigationService) Plan(ctx context.Context, input string, deviceLoc *domain.GeoPoint, provider domain.Provider) (*domain.NavigationPlan, error) {
	start := time.Now()

	prov, ok := s.providers[provider]
	if !ok {
		return nil, fmt.Errorf("不支持的地图类型: %s", provider)
	}

	intent, err := s.extractor.Extract(ctx, input)
	if err != nil {
		metrics.NavigationsTotal.WithLabelValues(string(provider), "failed").Inc()
		return nil, err
	}
	slog.Info("intent extracted", "from", intent.From, "to", intent.To, "provider", provider)

	// Origin source is decided before any resolution runs.
	var resolveOrigin func(context.Context) (*domain.Place, error)
	switch {
	case intent.HasFrom():
		from := intent.From
		resolveOrigin = func(ctx context.Context) (*domain.Place, error) {
			return s.ResolvePlace(ctx, provider, from)
		}
	case deviceLoc != nil:
		loc := *deviceLoc
		resolveOrigin = func(ctx context.Context) (*domain.Place, error) {
			return prov.ResolvePosition(ctx, loc.Lng, loc.Lat)
		}
	default:
		metrics.NavigationsTotal.WithLabelValues(string(provider), "failed").Inc()
		return nil, domain.ErrMissingOrigin
	}

	// Origin and destination have no data dependency, so they resolve
	// concurrently. Destination absence is still reported first.
	type resolved struct {
		place *domain.Place
		err   error
	}
	originCh := make(chan resolved, 1)
	go func() {
		place, err := resolveOrigin(ctx)
		originCh <- resolved{place, err}
	}()

	dest, destErr := s.ResolvePlace(ctx, provider, intent.To)
	origin := <-originCh

	if destErr != nil {
		metrics.NavigationsTotal.WithLabelValues(string(provider), "failed").Inc()
		return nil, destErr
	}
	if origin.err != nil {
		metrics.NavigationsTotal.WithLabelValues(string(provider), "failed").Inc()
		return nil, origin.err
	}
	if dest == nil {
		metrics.NavigationsTotal.WithLabelValues(string(provider), "failed").Inc()
		return nil, domain.ErrDestinationNotFound
	}
	if origin.place == nil {
		metrics.NavigationsTotal.WithLabelValues(string(provider), "failed").Inc()
		return nil, domain.ErrOriginNotFound
	}

	navURL := prov.RouteURL(origin.place, dest)
	distance := geospatial.Haversine(
		origin.place.Location.Lng, origin.place.Location.Lat,
		dest.Location.Lng, dest.Location.Lat,
	)
	slog.Info("navigation url synthesized",
		"provider", provider,
		"from", origin.place.Name,
		"to", dest.Name,
		"distance_m", distance,
		"url", navURL,
	)

	if err := s.opener.Open(ctx, navURL); err != nil {
		metrics.NavigationsTotal.WithLabelValues(string(provider), "failed").Inc()
		return nil, &domain.LaunchError{URL: navURL, Err: err}
	}

	plan := &domain.NavigationPlan{
		Provider:       provider,
		From:           origin.place,
		To:             dest,
		URL:            navURL,
		DistanceMeters: distance,
	}
	s.publish(ctx, plan)

	metrics.NavigationsTotal.WithLabelValues(string(provider), "ok").Inc()
	metrics.NavigationDuration.WithLabelValues(string(provider)).Observe(time.Since(start).Seconds())
	return plan, nil
}

// ResolvePlace resolves a keyword through the selected provider with a
// read-through cache. Not-found results are not cached, so a place that
// appears upstream later is picked up immediately.
func (s *NavigationService) ResolvePlace(ctx context.Context, provider domain.Provider, keyword string) (*domain.Place, error) {
	prov, ok := s.providers[provider]
	if !ok {
		return nil, fmt.Errorf("不支持的地图类型: %s", provider)
	}

	key := "place:" + string(provider) + ":" + keyword
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var place domain.Place
			if err := json.Unmarshal(data, &place); err == nil {
				metrics.CacheHits.WithLabelValues("place").Inc()
				return &place, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("place").Inc()
	}

	place, err := prov.ResolvePlace(ctx, keyword)
	if err != nil || place == nil {
		return place, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(place); err == nil {
			if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
				slog.Debug("place cache write failed", "key", key, "error", err)
			}
		}
	}
	return place, nil
}

// ResolvePosition reverse-geocodes a device coordinate through the selected
// provider. Positions are not cached; raw coordinates rarely repeat exactly.
func (s *NavigationService) ResolvePosition(ctx context.Context, provider domain.Provider, lng, lat float64) (*domain.Place, error) {
	prov, ok := s.providers[provider]
	if !ok {
		return nil, fmt.Errorf("不支持的地图类型: %s", provider)
	}
	return prov.ResolvePosition(ctx, lng, lat)
}

// ExtractIntent exposes the intent extractor to secondary surfaces (GraphQL).
func (s *NavigationService) ExtractIntent(ctx context.Context, input string) (*domain.Intent, error) {
	return s.extractor.Extract(ctx, input)
}

// publish emits the launched-navigation event, best effort.
func (s *NavigationService) publish(ctx context.Context, plan *domain.NavigationPlan) {
	if s.events == nil {
		return
	}
	ev := &domain.NavigationEvent{
		Provider:       string(plan.Provider),
		From:           plan.From.Name,
		To:             plan.To.Name,
		URL:            plan.URL,
		DistanceMeters: plan.DistanceMeters,
		LaunchedAt:     time.Now().UTC(),
	}
	if err := s.events.PublishNavigation(ctx, ev); err != nil {
		slog.Warn("navigation event publish failed", "error", err)
	}
}
