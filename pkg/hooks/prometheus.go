package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/servhound/servhound/pkg/engine"
)

// Compile-time interface check.
var _ engine.Hook = (*PrometheusHook)(nil)

// PrometheusHook exposes run metrics for Prometheus scraping. It starts
// an HTTP server serving metrics at the configured path and counts
// items processed, run outcomes, and per-item probe durations.
type PrometheusHook struct {
	server   *http.Server
	registry *prometheus.Registry
	opts     PrometheusOptions

	itemsTotal   *prometheus.CounterVec
	runsTotal    *prometheus.CounterVec
	runRunning   prometheus.Gauge
	itemDuration *prometheus.HistogramVec

	mu      sync.Mutex
	started map[string]time.Time
	closed  bool
}

// PrometheusOptions configures the Prometheus hook behavior.
type PrometheusOptions struct {
	// Addr for the metrics server (default: ":9090").
	Addr string

	// Path for the metrics endpoint (default: "/metrics").
	Path string

	// ReadTimeout for the HTTP server (default: 5s).
	ReadTimeout time.Duration

	// WriteTimeout for the HTTP server (default: 10s).
	WriteTimeout time.Duration
}

// NewPrometheusHook starts the metrics server immediately; it runs
// until Close is called.
func NewPrometheusHook(opts PrometheusOptions) (*PrometheusHook, error) {
	if opts.Addr == "" {
		opts.Addr = ":9090"
	}
	if opts.Path == "" {
		opts.Path = "/metrics"
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 5 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 10 * time.Second
	}

	h := &PrometheusHook{
		// Custom registry, the default one stays clean.
		registry: prometheus.NewRegistry(),
		opts:     opts,
		started:  make(map[string]time.Time),
	}
	if err := h.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	if err := h.startServer(); err != nil {
		return nil, fmt.Errorf("failed to start metrics server: %w", err)
	}
	return h, nil
}

func (h *PrometheusHook) initMetrics() error {
	h.itemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "servhound_items_total",
			Help: "Total processed items by processor and outcome",
		},
		[]string{"processor", "outcome"},
	)
	h.runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "servhound_runs_total",
			Help: "Total processing runs by processor and status",
		},
		[]string{"processor", "status"},
	)
	h.runRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "servhound_run_active",
			Help: "Whether a processing run is currently active",
		},
	)
	h.itemDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "servhound_item_duration_seconds",
			Help:    "Per-item probe duration distribution in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
		[]string{"processor"},
	)

	for _, c := range []prometheus.Collector{h.itemsTotal, h.runsTotal, h.runRunning, h.itemDuration} {
		if err := h.registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (h *PrometheusHook) startServer() error {
	mux := http.NewServeMux()
	mux.Handle(h.opts.Path, promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))

	h.server = &http.Server{
		Addr:         h.opts.Addr,
		Handler:      mux,
		ReadTimeout:  h.opts.ReadTimeout,
		WriteTimeout: h.opts.WriteTimeout,
	}

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()
	return nil
}

func (h *PrometheusHook) Emit(ev engine.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	switch ev.Type {
	case engine.EventRunStarted:
		h.runRunning.Set(1)
	case engine.EventItemStarted:
		if ev.Record != nil {
			h.started[ev.Record.Key()] = ev.Timestamp
		}
	case engine.EventItemFinished:
		outcome := "succeeded"
		if ev.Result != nil && !ev.Result.Success {
			outcome = "failed"
		}
		h.itemsTotal.WithLabelValues(ev.Processor, outcome).Inc()
		if ev.Record != nil {
			if start, ok := h.started[ev.Record.Key()]; ok {
				h.itemDuration.WithLabelValues(ev.Processor).Observe(ev.Timestamp.Sub(start).Seconds())
				delete(h.started, ev.Record.Key())
			}
		}
	case engine.EventRunRejected:
		h.runsTotal.WithLabelValues(ev.Processor, "rejected").Inc()
	case engine.EventRunFinished:
		h.runRunning.Set(0)
		status := "completed"
		if ev.Cancelled {
			status = "cancelled"
		}
		h.runsTotal.WithLabelValues(ev.Processor, status).Inc()
	}
}

// MetricsAddr returns the scrape URL for the running server.
func (h *PrometheusHook) MetricsAddr() string {
	addr := h.opts.Addr
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}
	return "http://" + addr + h.opts.Path
}

// Close shuts down the metrics server.
func (h *PrometheusHook) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return h.server.Shutdown(ctx)
}
