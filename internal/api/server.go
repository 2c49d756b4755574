package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/skywatch/skycore/internal/auth"
	"github.com/skywatch/skycore/internal/health"
	"github.com/skywatch/skycore/internal/metrics"
	"github.com/skywatch/skycore/internal/passes"
	"github.com/skywatch/skycore/internal/propagation"
	"github.com/skywatch/skycore/internal/stream"
	"github.com/skywatch/skycore/internal/tle"
)

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	store      *tle.Store
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server.
func NewServer(addr string, logger *slog.Logger, authCfg auth.Config, store *tle.Store, streamHandler *stream.Handler) *Server {
	s := &Server{
		store:  store,
		logger: logger,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(store))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/v1/positions", s.handlePositions)
	mux.HandleFunc("GET /api/v1/elements", s.handleElements)
	mux.HandleFunc("GET /api/v1/passes", s.handlePasses)
	mux.HandleFunc("GET /api/v1/stream/positions", streamHandler.HandlePositions)

	// Build middleware chain: metrics -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(authCfg)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = metrics.Middleware(handler)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// handlePositions propagates the current catalog to the query time.
// GET /api/v1/positions?name=starlink&t=2026-08-26T00:00:00Z&scale=10
func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	ds := s.store.Get()
	if ds == nil {
		writeError(w, http.StatusServiceUnavailable, "no catalog loaded")
		return
	}

	at := time.Now().UTC()
	if v := r.URL.Query().Get("t"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid t parameter, want RFC3339")
			return
		}
		at = t.UTC()
	}

	records := ds.Records
	if name := r.URL.Query().Get("name"); name != "" {
		records = tle.FilterByName(records, name)
	}

	positions := propagation.PropagateAll(records, at, s.logger)

	resp := positionsResponse{
		Time:      at.Format(time.RFC3339),
		Count:     len(positions),
		Positions: positions,
	}

	if v := r.URL.Query().Get("scale"); v != "" {
		scale, err := strconv.ParseFloat(v, 64)
		if err != nil || scale <= 0 {
			writeError(w, http.StatusBadRequest, "invalid scale parameter")
			return
		}
		resp.Render = make([]renderPayload, len(positions))
		for i, p := range positions {
			rc := propagation.RenderCoordinates(p, scale)
			resp.Render[i] = renderPayload{ID: p.CatalogID, X: rc.X, Y: rc.Y, Z: rc.Z}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleElements returns parsed orbital elements for the current catalog.
// GET /api/v1/elements?name=iridium
func (s *Server) handleElements(w http.ResponseWriter, r *http.Request) {
	ds := s.store.Get()
	if ds == nil {
		writeError(w, http.StatusServiceUnavailable, "no catalog loaded")
		return
	}

	records := ds.Records
	if name := r.URL.Query().Get("name"); name != "" {
		records = tle.FilterByName(records, name)
	}

	elements := make([]elementPayload, 0, len(records))
	for _, rec := range records {
		el, err := tle.FromRecord(rec)
		if err != nil {
			s.logger.Warn("skipping unparseable record", "name", rec.ObjectName, "error", err)
			continue
		}
		elements = append(elements, elementPayload{
			Name:           el.Name,
			CatalogID:      el.CatalogID,
			Epoch:          el.Epoch.UTC().Format(time.RFC3339Nano),
			InclinationDeg: el.InclinationDeg,
			Eccentricity:   el.Eccentricity,
			MeanMotion:     el.MeanMotion,
		})
	}

	writeJSON(w, http.StatusOK, elementsResponse{
		Source:   ds.Source,
		Fetched:  ds.FetchedAt.UTC().Format(time.RFC3339),
		Count:    len(elements),
		Elements: elements,
	})
}

// handlePasses predicts above-horizon windows for an observer.
// GET /api/v1/passes?lat=39.74&lon=-104.99&hours=24&min_elevation=10&name=iss
func (s *Server) handlePasses(w http.ResponseWriter, r *http.Request) {
	ds := s.store.Get()
	if ds == nil {
		writeError(w, http.StatusServiceUnavailable, "no catalog loaded")
		return
	}

	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		writeError(w, http.StatusBadRequest, "invalid lat parameter, want [-90,90]")
		return
	}
	lon, err := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil || lon < -180 || lon > 360 {
		writeError(w, http.StatusBadRequest, "invalid lon parameter, want [-180,360]")
		return
	}

	hours := 24.0
	if v := r.URL.Query().Get("hours"); v != "" {
		hours, err = strconv.ParseFloat(v, 64)
		if err != nil || hours <= 0 || hours > 168 {
			writeError(w, http.StatusBadRequest, "invalid hours parameter, want (0,168]")
			return
		}
	}

	minElev := 10.0
	if v := r.URL.Query().Get("min_elevation"); v != "" {
		minElev, err = strconv.ParseFloat(v, 64)
		if err != nil || minElev < 0 || minElev >= 90 {
			writeError(w, http.StatusBadRequest, "invalid min_elevation parameter, want [0,90)")
			return
		}
	}

	records := ds.Records
	if name := r.URL.Query().Get("name"); name != "" {
		records = tle.FilterByName(records, name)
	}
	// Pass scanning is minutes of simulated time per satellite; cap the set.
	if len(records) > 50 {
		writeError(w, http.StatusBadRequest, "too many satellites for pass prediction, narrow the name filter")
		return
	}

	results := passes.Predict(r.Context(), passes.Request{
		Observer:     passes.Observer{LatDeg: lat, LonDeg: lon},
		Records:      records,
		Start:        time.Now().UTC(),
		HorizonHours: hours,
		MinElevation: minElev,
		MaxPasses:    10,
	})

	writeJSON(w, http.StatusOK, results)
}

type positionsResponse struct {
	Time      string                 `json:"t"`
	Count     int                    `json:"count"`
	Positions []propagation.Position `json:"positions"`
	Render    []renderPayload        `json:"render,omitempty"`
}

type renderPayload struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	Z  float64 `json:"z"`
}

type elementsResponse struct {
	Source   string           `json:"source"`
	Fetched  string           `json:"fetched_at"`
	Count    int              `json:"count"`
	Elements []elementPayload `json:"elements"`
}

type elementPayload struct {
	Name           string  `json:"name"`
	CatalogID      int     `json:"catalog_id"`
	Epoch          string  `json:"epoch"`
	InclinationDeg float64 `json:"inclination_deg"`
	Eccentricity   float64 `json:"eccentricity"`
	MeanMotion     float64 `json:"mean_motion"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

// Flush passes through to the wrapped writer so SSE handlers keep working
// behind the middleware chain.
func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", r.RemoteAddr,
			)
		})
	}
}
