// Package amap implements the AMap (高德) provider capability: keyword place
// search with structured-geocode fallback, reverse geocoding, and the
// www.amap.com deep-link route URL. Coordinates are GCJ-02 throughout.
package amap

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/qiyuanliu/mapnav/internal/core/domain"
	"github.com/qiyuanliu/mapnav/internal/pkg/metrics"
)

const providerLabel = "amap"

// Client calls the AMap v3 REST API.
type Client struct {
	key     string
	baseURL string
	http    *http.Client
}

// New creates an AMap client. httpClient may be nil.
func New(key, baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{key: key, baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// looseString decodes AMap fields that are a string when present but an empty
// array when absent (address, adcode on some records).
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	*s = ""
	return nil
}

type searchResponse struct {
	Status string `json:"status"`
	POIs   []struct {
		Name     string      `json:"name"`
		Location string      `json:"location"`
		Adcode   looseString `json:"adcode"`
		Address  looseString `json:"address"`
		PName    looseString `json:"pname"`
		CityName looseString `json:"cityname"`
		AdName   looseString `json:"adname"`
	} `json:"pois"`
}

type geocodeResponse struct {
	Status   string `json:"status"`
	Geocodes []struct {
		FormattedAddress looseString `json:"formatted_address"`
		Location         string      `json:"location"`
		Adcode           looseString `json:"adcode"`
	} `json:"geocodes"`
}

type regeoResponse struct {
	Status   string `json:"status"`
	Regeocode *struct {
		FormattedAddress looseString `json:"formatted_address"`
		AddressComponent struct {
			Adcode looseString `json:"adcode"`
		} `json:"addressComponent"`
	} `json:"regeocode"`
}

// ResolvePlace resolves a keyword via place search, falling back to
// structured geocoding. The first result wins. Upstream failures are logged
// and reported as not found.
func (c *Client) ResolvePlace(ctx context.Context, keyword string) (*domain.Place, error) {
	if c.key == "" {
		return nil, fmt.Errorf("amap: %w", domain.ErrNotConfigured)
	}

	var search searchResponse
	err := c.getJSON(ctx, "/v3/place/text", url.Values{
		"key":      {c.key},
		"keywords": {keyword},
		"output":   {"json"},
	}, &search)
	if err == nil && search.Status == "1" && len(search.POIs) > 0 {
		poi := search.POIs[0]
		loc, perr := parseLngLat(poi.Location)
		if perr == nil {
			address := string(poi.Address)
			if address == "" {
				address = string(poi.PName) + string(poi.CityName) + string(poi.AdName)
			}
			metrics.ResolverLookups.WithLabelValues(providerLabel, "place", "hit").Inc()
			return &domain.Place{
				Name:     poi.Name,
				Location: loc,
				Adcode:   string(poi.Adcode),
				Address:  address,
			}, nil
		}
		err = perr
	}
	if err != nil {
		slog.Warn("amap place search failed", "keyword", keyword, "error", err)
		metrics.ResolverLookups.WithLabelValues(providerLabel, "place", "error").Inc()
	}

	metrics.ResolverFallbacks.WithLabelValues(providerLabel).Inc()

	var geo geocodeResponse
	err = c.getJSON(ctx, "/v3/geocode/geo", url.Values{
		"key":     {c.key},
		"address": {keyword},
		"output":  {"json"},
	}, &geo)
	if err != nil {
		slog.Warn("amap geocode failed", "keyword", keyword, "error", err)
		metrics.ResolverLookups.WithLabelValues(providerLabel, "place", "error").Inc()
		return nil, nil
	}
	if geo.Status != "1" || len(geo.Geocodes) == 0 {
		metrics.ResolverLookups.WithLabelValues(providerLabel, "place", "miss").Inc()
		return nil, nil
	}

	g := geo.Geocodes[0]
	loc, perr := parseLngLat(g.Location)
	if perr != nil {
		slog.Warn("amap geocode returned bad location", "keyword", keyword, "location", g.Location)
		return nil, nil
	}
	name := string(g.FormattedAddress)
	if name == "" {
		name = keyword
	}
	metrics.ResolverLookups.WithLabelValues(providerLabel, "place", "hit").Inc()
	return &domain.Place{
		Name:     name,
		Location: loc,
		Adcode:   string(g.Adcode),
		Address:  name,
	}, nil
}

// ResolvePosition reverse-geocodes a device coordinate. AMap expects the
// location parameter in lng,lat order.
func (c *Client) ResolvePosition(ctx context.Context, lng, lat float64) (*domain.Place, error) {
	if c.key == "" {
		return nil, fmt.Errorf("amap: %w", domain.ErrNotConfigured)
	}

	var regeo regeoResponse
	err := c.getJSON(ctx, "/v3/geocode/regeo", url.Values{
		"key":      {c.key},
		"location": {formatLngLat(lng, lat)},
		"output":   {"json"},
	}, &regeo)
	if err != nil {
		slog.Warn("amap reverse geocode failed", "lng", lng, "lat", lat, "error", err)
		metrics.ResolverLookups.WithLabelValues(providerLabel, "position", "error").Inc()
		return nil, nil
	}
	if regeo.Status != "1" || regeo.Regeocode == nil {
		metrics.ResolverLookups.WithLabelValues(providerLabel, "position", "miss").Inc()
		return nil, nil
	}

	addr := string(regeo.Regeocode.FormattedAddress)
	metrics.ResolverLookups.WithLabelValues(providerLabel, "position", "hit").Inc()
	return &domain.Place{
		Name:     addr,
		Location: domain.GeoPoint{Lng: lng, Lat: lat},
		Adcode:   string(regeo.Regeocode.AddressComponent.Adcode),
		Address:  addr,
	}, nil
}

// RouteURL builds the www.amap.com driving deep link. The parameter order and
// the fixed policy=1&type=car tail match what the web map expects.
func (c *Client) RouteURL(from, to *domain.Place) string {
	fromLngLat := formatLngLat(from.Location.Lng, from.Location.Lat)
	toLngLat := formatLngLat(to.Location.Lng, to.Location.Lat)

	var b strings.Builder
	b.WriteString("https://www.amap.com/dir?dateTime=now")
	b.WriteString("&from[adcode]=" + from.Adcode)
	b.WriteString("&from[id]=")
	b.WriteString("&from[lnglat]=" + fromLngLat)
	b.WriteString("&from[modxy]=" + fromLngLat)
	b.WriteString("&from[name]=" + from.Name)
	b.WriteString("&from[poitype]=")
	b.WriteString("&to[adcode]=" + to.Adcode)
	b.WriteString("&to[id]=")
	b.WriteString("&to[lnglat]=" + toLngLat)
	b.WriteString("&to[modxy]=" + toLngLat)
	b.WriteString("&to[name]=" + to.Name)
	b.WriteString("&to[poitype]=")
	b.WriteString("&policy=1&type=car")
	return b.String()
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func parseLngLat(s string) (domain.GeoPoint, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return domain.GeoPoint{}, fmt.Errorf("bad location %q", s)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("bad location %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("bad location %q", s)
	}
	return domain.GeoPoint{Lng: lng, Lat: lat}, nil
}

func formatLngLat(lng, lat float64) string {
	return strconv.FormatFloat(lng, 'f', -1, 64) + "," + strconv.FormatFloat(lat, 'f', -1, 64)
}
