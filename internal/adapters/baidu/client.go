// Package baidu implements the Baidu (百度) provider capability. Results are
// BD-09; the web-map deep link needs them projected to Mercator first.
package baidu

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
	"github.com/qiyuanliu/mapnav/internal/pkg/geospatial"
	"github.com/qiyuanliu/mapnav/internal/pkg/metrics"
)

const providerLabel = "baidu"

// Client calls the Baidu Maps REST API.
type Client struct {
	key     string
	baseURL string
	http    *http.Client
}

// New creates a Baidu client. httpClient may be nil.
func New(key, baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{key: key, baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

type lngLat struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

type searchResponse struct {
	Status  int `json:"status"`
	Results []struct {
		Name     string `json:"name"`
		Location lngLat `json:"location"`
		Address  string `json:"address"`
	} `json:"results"`
}

type geocodeResponse struct {
	Status int `json:"status"`
	Result *struct {
		Location lngLat `json:"location"`
	} `json:"result"`
}

type reverseResponse struct {
	Status int `json:"status"`
	Result *struct {
		FormattedAddress string `json:"formatted_address"`
		Location         lngLat `json:"location"`
	} `json:"result"`
}

// ResolvePlace resolves a keyword via the place search API (region 全国),
// falling back to geocoding. First result wins; Baidu records carry no
// adcode. Upstream failures are logged and reported as not found.
func (c *Client) ResolvePlace(ctx context.Context, keyword string) (*domain.Place, error) {
	if c.key == "" {
		return nil, fmt.Errorf("baidu: %w", domain.ErrNotConfigured)
	}

	var search searchResponse
	err := c.getJSON(ctx, "/place/v2/search", url.Values{
		"query":  {keyword},
		"region": {"全国"},
		"output": {"json"},
		"ak":     {c.key},
	}, &search)
	if err == nil && search.Status == 0 && len(search.Results) > 0 {
		poi := search.Results[0]
		address := poi.Address
		if address == "" {
			address = poi.Name
		}
		metrics.ResolverLookups.WithLabelValues(providerLabel, "place", "hit").Inc()
		return &domain.Place{
			Name:     poi.Name,
			Location: domain.GeoPoint{Lng: poi.Location.Lng, Lat: poi.Location.Lat},
			Address:  address,
		}, nil
	}
	if err != nil {
		slog.Warn("baidu place search failed", "keyword", keyword, "error", err)
		metrics.ResolverLookups.WithLabelValues(providerLabel, "place", "error").Inc()
	}

	metrics.ResolverFallbacks.WithLabelValues(providerLabel).Inc()

	var geo geocodeResponse
	err = c.getJSON(ctx, "/geocoding/v3/", url.Values{
		"address": {keyword},
		"output":  {"json"},
		"ak":      {c.key},
	}, &geo)
	if err != nil {
		slog.Warn("baidu geocode failed", "keyword", keyword, "error", err)
		metrics.ResolverLookups.WithLabelValues(providerLabel, "place", "error").Inc()
		return nil, nil
	}
	if geo.Status != 0 || geo.Result == nil {
		metrics.ResolverLookups.WithLabelValues(providerLabel, "place", "miss").Inc()
		return nil, nil
	}

	metrics.ResolverLookups.WithLabelValues(providerLabel, "place", "hit").Inc()
	return &domain.Place{
		Name:     keyword,
		Location: domain.GeoPoint{Lng: geo.Result.Location.Lng, Lat: geo.Result.Location.Lat},
		Address:  keyword,
	}, nil
}

// ResolvePosition reverse-geocodes a device coordinate. Baidu expects the
// location parameter in lat,lng order — the reverse of AMap — together with
// coordtype declaring the input datum as WGS-84.
func (c *Client) ResolvePosition(ctx context.Context, lng, lat float64) (*domain.Place, error) {
	if c.key == "" {
		return nil, fmt.Errorf("baidu: %w", domain.ErrNotConfigured)
	}

	var rev reverseResponse
	err := c.getJSON(ctx, "/reverse_geocoding/v3/", url.Values{
		"ak":        {c.key},
		"output":    {"json"},
		"coordtype": {"wgs84ll"},
		"location":  {formatFloat(lat) + "," + formatFloat(lng)},
	}, &rev)
	if err != nil {
		slog.Warn("baidu reverse geocode failed", "lng", lng, "lat", lat, "error", err)
		metrics.ResolverLookups.WithLabelValues(providerLabel, "position", "error").Inc()
		return nil, nil
	}
	if rev.Status != 0 || rev.Result == nil {
		metrics.ResolverLookups.WithLabelValues(providerLabel, "position", "miss").Inc()
		return nil, nil
	}

	metrics.ResolverLookups.WithLabelValues(providerLabel, "position", "hit").Inc()
	return &domain.Place{
		Name:     rev.Result.FormattedAddress,
		Location: domain.GeoPoint{Lng: rev.Result.Location.Lng, Lat: rev.Result.Location.Lat},
		Address:  rev.Result.FormattedAddress,
	}, nil
}

// RouteURL builds the map.baidu.com/dir share link. The web map wants
// Mercator coordinates: the midpoint (2 decimals) centers the view at zoom
// 10, and the sn/en waypoint blobs repeat the endpoints rounded to whole
// meters. Names are percent-encoded both in the path and inside the blobs.
func (c *Client) RouteURL(from, to *domain.Place) string {
	fromMC := geospatial.BD09ToMercator(from.Location.Lng, from.Location.Lat)
	toMC := geospatial.BD09ToMercator(to.Location.Lng, to.Location.Lat)
	center := geospatial.Midpoint(fromMC, toMC)

	fromName := escapeName(from.Name)
	toName := escapeName(to.Name)

	var b strings.Builder
	b.WriteString("https://map.baidu.com/dir/" + fromName + "/" + toName + "/")
	b.WriteString("@" + fixed(center.X, 2) + "," + fixed(center.Y, 2) + ",10z")
	b.WriteString("?querytype=bt")
	b.WriteString("&c=289")
	b.WriteString("&sn=" + waypoint(fromMC, fromName))
	b.WriteString("&en=" + waypoint(toMC, toName))
	b.WriteString("&sc=289&ec=289")
	b.WriteString("&pn=0&rn=5")
	b.WriteString("&version=5")
	b.WriteString("&da_src=shareurl")
	return b.String()
}

// waypoint encodes one endpoint of the compound sn/en parameter. Fields are
// separated by $$ with empty fields where the share URL leaves slots blank.
func waypoint(p geospatial.MercatorPoint, encodedName string) string {
	return "1$$$$" + fixed(p.X, 0) + "," + fixed(p.Y, 0) + "$$" + encodedName + "$$0$$$$"
}

// escapeName percent-encodes a place name the way encodeURIComponent does,
// so $ and & in a name cannot break the URL structure it is embedded in.
func escapeName(name string) string {
	return strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
}

func fixed(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
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
