package amap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/qiyuanliu/mapnav/internal/core/domain"
)

func newTestServer(t *testing.T, search, geocode, regeo http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	if search != nil {
		mux.HandleFunc("/v3/place/text", search)
	}
	if geocode != nil {
		mux.HandleFunc("/v3/geocode/geo", geocode)
	}
	if regeo != nil {
		mux.HandleFunc("/v3/geocode/regeo", regeo)
	}
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestResolvePlace_SearchHit(t *testing.T) {
	var gotKey, gotKeywords string
	ts := newTestServer(t,
		func(w http.ResponseWriter, r *http.Request) {
			gotKey = r.URL.Query().Get("key")
			gotKeywords = r.URL.Query().Get("keywords")
			// address and adcode come back as an empty array on some records
			w.Write([]byte(`{"status":"1","pois":[
				{"name":"北京西站","location":"116.322056,39.894910","adcode":"110107",
				 "address":[],"pname":"北京市","cityname":"北京市","adname":"丰台区"}
			]}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			t.Error("geocode fallback must not run on a search hit")
		}, nil)

	c := New("test-key", ts.URL, nil)
	place, err := c.ResolvePlace(context.Background(), "北京西站")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if place == nil {
		t.Fatal("expected a place")
	}
	if gotKey != "test-key" || gotKeywords != "北京西站" {
		t.Errorf("bad request params: key=%q keywords=%q", gotKey, gotKeywords)
	}
	if place.Name != "北京西站" {
		t.Errorf("name: got %q", place.Name)
	}
	if place.Location.Lng != 116.322056 || place.Location.Lat != 39.894910 {
		t.Errorf("location: got %+v", place.Location)
	}
	if place.Adcode != "110107" {
		t.Errorf("adcode: got %q", place.Adcode)
	}
	// empty address falls back to province+city+district
	if place.Address != "北京市北京市丰台区" {
		t.Errorf("address: got %q", place.Address)
	}
}

func TestResolvePlace_GeocodeFallback(t *testing.T) {
	ts := newTestServer(t,
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"1","pois":[]}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("address"); got != "某小区" {
				t.Errorf("address param: got %q", got)
			}
			w.Write([]byte(`{"status":"1","geocodes":[
				{"formatted_address":"北京市朝阳区某小区","location":"116.5,39.95","adcode":"110105"}
			]}`))
		}, nil)

	c := New("test-key", ts.URL, nil)
	place, err := c.ResolvePlace(context.Background(), "某小区")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if place == nil {
		t.Fatal("expected a place from the geocode fallback")
	}
	if place.Name != "北京市朝阳区某小区" {
		t.Errorf("name: got %q", place.Name)
	}
	if place.Location.Lng != 116.5 || place.Location.Lat != 39.95 {
		t.Errorf("location: got %+v", place.Location)
	}
	if place.Adcode != "110105" {
		t.Errorf("adcode: got %q", place.Adcode)
	}
}

func TestResolvePlace_NotFound(t *testing.T) {
	ts := newTestServer(t,
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"1","pois":[]}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"1","geocodes":[]}`))
		}, nil)

	c := New("test-key", ts.URL, nil)
	place, err := c.ResolvePlace(context.Background(), "不存在的地方xyzzy")
	if err != nil {
		t.Fatalf("not-found must not be an error, got %v", err)
	}
	if place != nil {
		t.Fatalf("expected nil place, got %+v", place)
	}
}

func TestResolvePlace_SearchFailureFallsBack(t *testing.T) {
	ts := newTestServer(t,
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"1","geocodes":[{"formatted_address":"天安门","location":"116.397455,39.909187","adcode":"110101"}]}`))
		}, nil)

	c := New("test-key", ts.URL, nil)
	place, err := c.ResolvePlace(context.Background(), "天安门")
	if err != nil {
		t.Fatalf("upstream failure must degrade to the fallback, got %v", err)
	}
	if place == nil || place.Name != "天安门" {
		t.Fatalf("expected fallback place, got %+v", place)
	}
}

func TestResolvePlace_NoKey(t *testing.T) {
	c := New("", "http://unused.invalid", nil)
	_, err := c.ResolvePlace(context.Background(), "天安门")
	if !errors.Is(err, domain.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestResolvePosition(t *testing.T) {
	ts := newTestServer(t, nil, nil,
		func(w http.ResponseWriter, r *http.Request) {
			// lng,lat order
			if got := r.URL.Query().Get("location"); got != "116.3,39.9" {
				t.Errorf("location param: got %q, want lng,lat order", got)
			}
			w.Write([]byte(`{"status":"1","regeocode":
				{"formatted_address":"北京市海淀区某街道","addressComponent":{"adcode":"110108"}}}`))
		})

	c := New("test-key", ts.URL, nil)
	place, err := c.ResolvePosition(context.Background(), 116.3, 39.9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if place == nil {
		t.Fatal("expected a place")
	}
	if place.Name != "北京市海淀区某街道" || place.Address != place.Name {
		t.Errorf("name/address: got %q / %q", place.Name, place.Address)
	}
	if place.Location.Lng != 116.3 || place.Location.Lat != 39.9 {
		t.Errorf("location must echo the input coordinate: %+v", place.Location)
	}
	if place.Adcode != "110108" {
		t.Errorf("adcode: got %q", place.Adcode)
	}
}

func TestResolvePosition_Miss(t *testing.T) {
	ts := newTestServer(t, nil, nil,
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"0"}`))
		})

	c := New("test-key", ts.URL, nil)
	place, err := c.ResolvePosition(context.Background(), 0, 0)
	if err != nil || place != nil {
		t.Fatalf("expected (nil,nil), got (%+v,%v)", place, err)
	}
}

func TestRouteURL(t *testing.T) {
	c := New("test-key", "https://restapi.amap.com", nil)
	from := &domain.Place{
		Name:     "北京西站",
		Location: domain.GeoPoint{Lng: 116.322056, Lat: 39.89491},
		Adcode:   "110107",
	}
	to := &domain.Place{
		Name:     "天安门",
		Location: domain.GeoPoint{Lng: 116.397455, Lat: 39.909187},
		Adcode:   "110101",
	}

	want := "https://www.amap.com/dir?dateTime=now" +
		"&from[adcode]=110107&from[id]=&from[lnglat]=116.322056,39.89491&from[modxy]=116.322056,39.89491&from[name]=北京西站&from[poitype]=" +
		"&to[adcode]=110101&to[id]=&to[lnglat]=116.397455,39.909187&to[modxy]=116.397455,39.909187&to[name]=天安门&to[poitype]=" +
		"&policy=1&type=car"

	if got := c.RouteURL(from, to); got != want {
		t.Errorf("route URL mismatch:\n got  %s\n want %s", got, want)
	}
}

func TestLooseString(t *testing.T) {
	var s looseString
	if err := s.UnmarshalJSON([]byte(`"abc"`)); err != nil || s != "abc" {
		t.Errorf("string value: got %q, err %v", s, err)
	}
	if err := s.UnmarshalJSON([]byte(`[]`)); err != nil || s != "" {
		t.Errorf("empty array: got %q, err %v", s, err)
	}
}
