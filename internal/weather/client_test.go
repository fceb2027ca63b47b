package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newTestServer(t *testing.T, flaky *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("name") == "Nowhere" {
			_, _ = w.Write([]byte(`{"results":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"results":[{"latitude":9.9312,"longitude":76.2673}]}`))
	})
	mux.HandleFunc("/v1/forecast", func(w http.ResponseWriter, r *http.Request) {
		if flaky != nil && flaky.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"current":{"temperature_2m":31.5,"relative_humidity_2m":78,"wind_speed_10m":14.2,"weather_code":63}}`))
	})
	return httptest.NewServer(mux)
}

func TestCurrentFor(t *testing.T) {
	srv := newTestServer(t, nil)
	defer srv.Close()

	c := New(srv.URL, srv.URL)
	got, err := c.CurrentFor(context.Background(), "Kochi, Kerala")
	if err != nil {
		t.Fatalf("CurrentFor: %v", err)
	}
	if got.TemperatureC != 31.5 || got.Humidity != 78 || got.WindKmh != 14.2 {
		t.Fatalf("unexpected conditions: %+v", got)
	}
	if got.Condition != "Rain" {
		t.Fatalf("weather code 63 should map to Rain, got %s", got.Condition)
	}
}

func TestCurrentFor_RetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	srv := newTestServer(t, &calls)
	defer srv.Close()

	c := New(srv.URL, srv.URL)
	if _, err := c.CurrentFor(context.Background(), "Kochi"); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if calls.Load() < 2 {
		t.Fatalf("expected at least two forecast attempts, got %d", calls.Load())
	}
}

func TestCurrentFor_UnknownLocation(t *testing.T) {
	srv := newTestServer(t, nil)
	defer srv.Close()

	c := New(srv.URL, srv.URL)
	if _, err := c.CurrentFor(context.Background(), "Nowhere"); err == nil {
		t.Fatal("expected error for unknown location")
	}
}
