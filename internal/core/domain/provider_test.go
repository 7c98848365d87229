package domain

import "testing"

func TestParseProvider(t *testing.T) {
	cases := []struct {
		in   string
		want Provider
	}{
		{"baidu", ProviderBaidu},
		{"amap", ProviderAMap},
		{"", ProviderAMap},
		{"BAIDU", ProviderAMap}, // exact match only
		{"google", ProviderAMap},
	}
	for _, tc := range cases {
		if got := ParseProvider(tc.in); got != tc.want {
			t.Errorf("ParseProvider(%q): got %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestProviderDisplayName(t *testing.T) {
	if got := ProviderAMap.DisplayName(); got != "高德地图" {
		t.Errorf("amap: got %q", got)
	}
	if got := ProviderBaidu.DisplayName(); got != "百度地图" {
		t.Errorf("baidu: got %q", got)
	}
}
