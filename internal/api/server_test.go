package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/skywatch/skycore/internal/auth"
	"github.com/skywatch/skycore/internal/stream"
	"github.com/skywatch/skycore/internal/tle"
)

const (
	issLine1 = "1 25544U 98067A   24358.50000000  .00016717  00000+0  10270-3 0  9990"
	issLine2 = "2 25544  51.6404 211.5285 0006278  52.1566  98.7102 15.50135517486637"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seededStore() *tle.Store {
	store := tle.NewStore()
	store.Set(&tle.Dataset{
		Source:    "test",
		FetchedAt: time.Now(),
		Records: []tle.CatalogRecord{
			{ObjectName: "ISS (ZARYA)", NoradCatID: 25544, Line1: issLine1, Line2: issLine2},
			{ObjectName: "STARLINK-1007", NoradCatID: 44713, Line1: issLine1, Line2: issLine2},
		},
	})
	return store
}

func newTestServer(t *testing.T, store *tle.Store, authCfg auth.Config) *httptest.Server {
	t.Helper()
	logger := testLogger()
	sh := stream.NewHandler(store, stream.Config{MaxConcurrentPerIP: 10, KeepaliveInterval: 30 * time.Second}, logger)
	srv := NewServer(":0", logger, authCfg, store, sh)
	ts := httptest.NewServer(srv.HTTPServer().Handler)
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s response: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, seededStore(), auth.Config{})
	if code := getJSON(t, ts.URL+"/healthz", nil); code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", code)
	}
}

func TestReadyz(t *testing.T) {
	empty := tle.NewStore()
	ts := newTestServer(t, empty, auth.Config{})
	if code := getJSON(t, ts.URL+"/readyz", nil); code != http.StatusServiceUnavailable {
		t.Errorf("readyz with empty store = %d, want 503", code)
	}

	ts2 := newTestServer(t, seededStore(), auth.Config{})
	if code := getJSON(t, ts2.URL+"/readyz", nil); code != http.StatusOK {
		t.Errorf("readyz with catalog = %d, want 200", code)
	}
}

func TestPositionsEndpoint(t *testing.T) {
	ts := newTestServer(t, seededStore(), auth.Config{})

	var resp struct {
		Time      string `json:"t"`
		Count     int    `json:"count"`
		Positions []struct {
			Name       string  `json:"name"`
			CatalogID  int     `json:"catalog_id"`
			AltitudeKm float64 `json:"altitude_km"`
		} `json:"positions"`
	}
	code := getJSON(t, ts.URL+"/api/v1/positions?t=2024-12-23T12:30:00Z", &resp)
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if resp.Count != 2 || len(resp.Positions) != 2 {
		t.Fatalf("count = %d, positions = %d, want 2 each", resp.Count, len(resp.Positions))
	}
	if resp.Positions[0].Name != "ISS (ZARYA)" {
		t.Errorf("positions[0].Name = %q, want ISS (ZARYA)", resp.Positions[0].Name)
	}
	if alt := resp.Positions[0].AltitudeKm; alt < 300 || alt > 500 {
		t.Errorf("altitude = %.1f, want LEO range", alt)
	}
}

func TestPositionsNameFilterAndRender(t *testing.T) {
	ts := newTestServer(t, seededStore(), auth.Config{})

	var resp struct {
		Count  int `json:"count"`
		Render []struct {
			ID int     `json:"id"`
			X  float64 `json:"x"`
		} `json:"render"`
	}
	code := getJSON(t, ts.URL+"/api/v1/positions?name=starlink&scale=10&t=2024-12-23T12:30:00Z", &resp)
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if resp.Count != 1 {
		t.Fatalf("count = %d, want 1 after name filter", resp.Count)
	}
	if len(resp.Render) != 1 {
		t.Fatalf("render entries = %d, want 1", len(resp.Render))
	}
	// At scale 10 an Earth radius maps to 10 units; LEO stays near ~10.7.
	if x := resp.Render[0].X; x < -12 || x > 12 {
		t.Errorf("render x = %.2f, implausible for scale 10", x)
	}
}

func TestPositionsBadParams(t *testing.T) {
	ts := newTestServer(t, seededStore(), auth.Config{})

	if code := getJSON(t, ts.URL+"/api/v1/positions?t=yesterday", nil); code != http.StatusBadRequest {
		t.Errorf("bad t: status = %d, want 400", code)
	}
	if code := getJSON(t, ts.URL+"/api/v1/positions?scale=-1", nil); code != http.StatusBadRequest {
		t.Errorf("bad scale: status = %d, want 400", code)
	}
}

func TestPositionsNoCatalog(t *testing.T) {
	ts := newTestServer(t, tle.NewStore(), auth.Config{})
	if code := getJSON(t, ts.URL+"/api/v1/positions", nil); code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", code)
	}
}

func TestElementsEndpoint(t *testing.T) {
	ts := newTestServer(t, seededStore(), auth.Config{})

	var resp struct {
		Source   string `json:"source"`
		Count    int    `json:"count"`
		Elements []struct {
			CatalogID      int     `json:"catalog_id"`
			InclinationDeg float64 `json:"inclination_deg"`
		} `json:"elements"`
	}
	code := getJSON(t, ts.URL+"/api/v1/elements", &resp)
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if resp.Source != "test" || resp.Count != 2 {
		t.Errorf("source = %q count = %d, want test/2", resp.Source, resp.Count)
	}
	if resp.Elements[0].InclinationDeg != 51.6404 {
		t.Errorf("inclination = %v, want 51.6404", resp.Elements[0].InclinationDeg)
	}
}

func TestPassesEndpointValidation(t *testing.T) {
	ts := newTestServer(t, seededStore(), auth.Config{})

	tests := []struct {
		name  string
		query string
	}{
		{"missing lat", "lon=0"},
		{"lat out of range", "lat=91&lon=0"},
		{"lon out of range", "lat=0&lon=361"},
		{"hours too long", "lat=0&lon=0&hours=169"},
		{"min_elevation too high", "lat=0&lon=0&min_elevation=90"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := getJSON(t, ts.URL+"/api/v1/passes?"+tt.query, nil); code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", code)
			}
		})
	}
}

func TestPassesEndpoint(t *testing.T) {
	ts := newTestServer(t, seededStore(), auth.Config{})

	var results []struct {
		CatalogID int    `json:"catalog_id"`
		Name      string `json:"name"`
	}
	code := getJSON(t, ts.URL+"/api/v1/passes?lat=39.74&lon=-104.99&hours=1&name=iss", &results)
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].CatalogID != 25544 {
		t.Errorf("catalog_id = %d, want 25544", results[0].CatalogID)
	}
}

func TestAuthProtectedEndpoints(t *testing.T) {
	ts := newTestServer(t, seededStore(), auth.Config{Enabled: true, Token: "secret-token"})

	// /api/v1/elements is protected.
	if code := getJSON(t, ts.URL+"/api/v1/elements", nil); code != http.StatusUnauthorized {
		t.Errorf("elements without token = %d, want 401", code)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/elements", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("elements with token = %d, want 200", resp.StatusCode)
	}

	req.Header.Set("Authorization", "Bearer wrong")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("elements with wrong token = %d, want 401", resp.StatusCode)
	}

	// Positions, probes, and metrics stay public.
	for _, path := range []string{"/healthz", "/readyz", "/metrics", "/api/v1/positions"} {
		if code := getJSON(t, ts.URL+path, nil); code == http.StatusUnauthorized {
			t.Errorf("%s should be exempt from auth", path)
		}
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, seededStore(), auth.Config{})

	resp, err := http.Post(ts.URL+"/api/v1/positions", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("POST positions = %d, want 405", resp.StatusCode)
	}
}
