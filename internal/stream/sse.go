// Package stream implements Server-Sent Events (SSE) streaming of satellite
// positions. Clients connect via GET /api/v1/stream/positions and receive a
// continuous stream of render-scaled positions recomputed from the current
// catalog on every tick.
//
// SSE message format:
//
//	data: {"type":"positions","t":"2026-08-26T04:00:00Z","sat":[...]}\n\n
//
// First message is always metadata:
//
//	data: {"type":"metadata","dataset_epoch":"...","catalog_age_seconds":1800}\n\n
//
// Keep-alive comments (:\n\n) are sent every KeepaliveInterval to prevent
// timeout. Reconnecting clients receive a fresh metadata message on each
// connection.
package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/skywatch/skycore/internal/httputil"
	"github.com/skywatch/skycore/internal/metrics"
	"github.com/skywatch/skycore/internal/propagation"
	"github.com/skywatch/skycore/internal/tle"
)

// Config holds streaming configuration.
type Config struct {
	MaxConcurrentPerIP int           // Max concurrent streams per IP (default: 10).
	KeepaliveInterval  time.Duration // Keep-alive ping interval (default: 30s).
	TrustProxy         bool          // Trust X-Forwarded-For for client IPs.
}

// Handler manages SSE streaming connections.
type Handler struct {
	store   *tle.Store
	config  Config
	limiter *streamLimiter
	logger  *slog.Logger
}

// NewHandler creates a new streaming handler.
func NewHandler(store *tle.Store, config Config, logger *slog.Logger) *Handler {
	return &Handler{
		store:   store,
		config:  config,
		limiter: newStreamLimiter(config.MaxConcurrentPerIP),
		logger:  logger,
	}
}

// HandlePositions serves the SSE position stream.
// GET /api/v1/stream/positions?step=1&name=starlink&scale=10
func (h *Handler) HandlePositions(w http.ResponseWriter, r *http.Request) {
	step := 1
	if v := r.URL.Query().Get("step"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 60 {
			writeJSONError(w, http.StatusBadRequest, "invalid step parameter, must be 1-60")
			return
		}
		step = n
	}

	scale := propagation.DefaultRenderScale
	if v := r.URL.Query().Get("scale"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 || f > 1000 {
			writeJSONError(w, http.StatusBadRequest, "invalid scale parameter, must be in (0,1000]")
			return
		}
		scale = f
	}

	nameFilter := r.URL.Query().Get("name")

	// Rate limiting: enforce concurrent stream limit per IP.
	ip := httputil.ClientIP(r, h.config.TrustProxy)
	if !h.limiter.acquire(ip) {
		metrics.IncStreamErrors("rate_limit")
		h.logger.Warn("stream rate limit exceeded",
			"remote_ip", ip,
			"current_count", h.limiter.count(ip),
		)
		w.Header().Set("Retry-After", "30")
		writeJSONError(w, http.StatusTooManyRequests, "too many concurrent streams")
		return
	}

	metrics.IncStreamConnections("connect")
	metrics.IncStreamsActive()

	startTime := time.Now()
	h.logger.Info("stream connected",
		"remote_ip", ip,
		"user_agent", r.Header.Get("User-Agent"),
		"step", step,
		"name_filter", nameFilter,
	)

	defer func() {
		h.limiter.release(ip)
		metrics.IncStreamConnections("disconnect")
		metrics.DecStreamsActive()
		h.logger.Info("stream disconnected",
			"remote_ip", ip,
			"duration_seconds", int(time.Since(startTime).Seconds()),
		)
	}()

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering.
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Clear the server's default WriteTimeout for this long-lived connection.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("could not clear write deadline", "error", err)
	}

	c := &client{
		w:       w,
		flusher: flusher,
		rc:      rc,
		ip:      ip,
		logger:  h.logger,
	}

	// Jittered retry interval (3-7s) prevents thundering-herd reconnection
	// storms when the server restarts.
	retryMs := 3000 + rand.Intn(4000)
	fmt.Fprintf(w, "retry: %d\n\n", retryMs)
	flusher.Flush()

	// Metadata is the first message on every connection.
	if ds := h.store.Get(); ds != nil {
		meta := metadataMessage{
			Type:       "metadata",
			Dataset:    ds.FetchedAt.UTC().Format(time.RFC3339),
			CatalogAge: int(time.Since(ds.FetchedAt).Seconds()),
			Records:    len(ds.Records),
		}
		if err := c.sendJSON(meta); err != nil {
			metrics.IncStreamErrors("send_error")
			h.logger.Warn("stream send error (metadata)", "remote_ip", ip, "error", err)
			return
		}
	}

	ticker := time.NewTicker(time.Duration(step) * time.Second)
	defer ticker.Stop()

	keepaliveTicker := time.NewTicker(h.config.KeepaliveInterval)
	defer keepaliveTicker.Stop()

	ctx := r.Context()

	for {
		select {
		case <-ctx.Done():
			return

		case t := <-ticker.C:
			ds := h.store.Get()
			if ds == nil {
				metrics.IncStreamErrors("no_catalog")
				continue
			}

			records := ds.Records
			if nameFilter != "" {
				records = tle.FilterByName(records, nameFilter)
			}

			positions := propagation.PropagateAll(records, t, h.logger)
			batch := buildBatchMessage(t, positions, scale)

			data, err := json.Marshal(batch)
			if err != nil {
				metrics.IncStreamErrors("marshal_error")
				h.logger.Warn("stream marshal error", "remote_ip", ip, "error", err)
				continue
			}
			if err := c.sendRaw(data); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("stream send error", "remote_ip", ip, "error", err)
				return
			}

			// Reset keepalive since we just sent data.
			keepaliveTicker.Reset(h.config.KeepaliveInterval)

		case <-keepaliveTicker.C:
			if err := c.sendKeepalive(); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("stream keepalive error", "remote_ip", ip, "error", err)
				return
			}
		}
	}
}

// buildBatchMessage formats one propagation tick into the SSE payload.
// Positions are render-scaled so the browser can hand them to the scene
// graph unchanged.
func buildBatchMessage(t time.Time, positions []propagation.Position, scale float64) positionsMessage {
	sats := make([]satPayload, len(positions))
	for i, p := range positions {
		rc := propagation.RenderCoordinates(p, scale)
		sats[i] = satPayload{
			ID:   p.CatalogID,
			Name: p.Name,
			P:    [3]float64{rc.X, rc.Y, rc.Z},
			Alt:  p.AltitudeKm,
		}
	}
	return positionsMessage{
		Type: "positions",
		T:    t.UTC().Format(time.RFC3339),
		Sat:  sats,
	}
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// SSE message payload types.

type metadataMessage struct {
	Type       string `json:"type"`
	Dataset    string `json:"dataset_epoch"`
	CatalogAge int    `json:"catalog_age_seconds"`
	Records    int    `json:"records"`
}

type positionsMessage struct {
	Type string       `json:"type"`
	T    string       `json:"t"`
	Sat  []satPayload `json:"sat"`
}

type satPayload struct {
	ID   int        `json:"id"`
	Name string     `json:"name"`
	P    [3]float64 `json:"p"`
	Alt  float64    `json:"alt"`
}
