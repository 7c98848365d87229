package domain

import "time"

// GeoPoint is a lng/lat coordinate pair. The datum depends on where it came
// from: browser geolocation is WGS-84, AMap results are GCJ-02, Baidu results
// are BD-09. A point is never converted between datums; it stays in the datum
// of the provider that produced it.
type GeoPoint struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// Place is one resolved endpoint of a route: a human-readable name plus the
// provider-native coordinate. Adcode is only set by AMap. A Place lives for a
// single request and is never stored.
type Place struct {
	Name     string   `json:"name"`
	Location GeoPoint `json:"location"`
	Adcode   string   `json:"adcode,omitempty"`
	Address  string   `json:"address"`
}

// Intent is the origin/destination pair extracted from free text.
// An empty From means "use the device location".
type Intent struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// HasFrom reports whether the user stated an explicit origin.
func (i Intent) HasFrom() bool { return i.From != "" }

// NavigationPlan is the result of a planned navigation: both resolved
// endpoints and the provider deep link that was handed to the browser.
type NavigationPlan struct {
	Provider Provider `json:"provider"`
	From     *Place   `json:"from"`
	To       *Place   `json:"to"`
	URL      string   `json:"url"`
	// DistanceMeters is the great-circle distance between the endpoints,
	// computed in the provider's native datum. Informational only.
	DistanceMeters float64 `json:"distance_meters"`
}

// NavigationEvent is published after a navigation session is launched.
type NavigationEvent struct {
	Provider       string    `json:"provider"`
	From           string    `json:"from"`
	To             string    `json:"to"`
	URL            string    `json:"url"`
	DistanceMeters float64   `json:"distance_meters"`
	LaunchedAt     time.Time `json:"launched_at"`
}
