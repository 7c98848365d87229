package domain

// Provider selects which map provider handles a request. The selection covers
// the whole request: resolvers, URL template, and coordinate convention are
// never mixed.
type Provider string

const (
	ProviderAMap  Provider = "amap"
	ProviderBaidu Provider = "baidu"
)

// ParseProvider maps a request value to a Provider. Anything that is not
// "baidu" falls back to AMap, matching the request default.
func ParseProvider(s string) Provider {
	if s == string(ProviderBaidu) {
		return ProviderBaidu
	}
	return ProviderAMap
}

// DisplayName is the user-facing name used in response messages.
func (p Provider) DisplayName() string {
	if p == ProviderBaidu {
		return "百度地图"
	}
	return "高德地图"
}
