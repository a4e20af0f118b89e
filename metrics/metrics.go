package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/domain/feedback"
)

// Metrics holds the pipeline's Prometheus collectors on a private registry.
// A nil *Metrics is a valid no-op observer.
type Metrics struct {
	frames           prometheus.Counter
	detectorErrors   prometheus.Counter
	detections       *prometheus.CounterVec
	winners          *prometheus.CounterVec
	hysteresis       prometheus.Counter
	blocked          *prometheus.CounterVec
	dispatches       *prometheus.CounterVec
	renders          *prometheus.CounterVec
	framesProcessing prometheus.Histogram

	registry *prometheus.Registry
}

// New creates a Metrics instance with all collectors registered.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eva_frames_total",
			Help: "Frames run through the decision pipeline",
		}),
		detectorErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eva_detector_errors_total",
			Help: "Frames whose detector call failed and were treated as empty",
		}),
		detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eva_detections_total",
			Help: "Detections seen per pipeline stage",
		}, []string{"stage"}),
		winners: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eva_winners_total",
			Help: "Frame winners after hysteresis",
		}, []string{"label"}),
		hysteresis: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eva_hysteresis_overrides_total",
			Help: "Exclusive-set flips suppressed by hysteresis",
		}),
		blocked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eva_gate_blocked_total",
			Help: "Winners held back by a gate",
		}, []string{"gate"}),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eva_dispatch_total",
			Help: "Alerts dispatched per label and audio backend",
		}, []string{"label", "backend"}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eva_render_results_total",
			Help: "Audio render outcomes per backend",
		}, []string{"backend", "result"}),
		framesProcessing: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "eva_frame_process_seconds",
			Help:    "Time spent per frame in detection and decision",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
	}
	m.registry.MustRegister(
		m.frames, m.detectorErrors, m.detections, m.winners, m.hysteresis,
		m.blocked, m.dispatches, m.renders, m.framesProcessing,
	)
	return m
}

// RegisterQueueDepth exposes fn as eva_queue_depth{backend=...}.
func (m *Metrics) RegisterQueueDepth(backend string, fn func() int) {
	if m == nil || fn == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name:        "eva_queue_depth",
			Help:        "Items waiting on an audio backend queue",
			ConstLabels: prometheus.Labels{"backend": backend},
		},
		func() float64 { return float64(fn()) },
	))
}

func (m *Metrics) ObserveFrame(d time.Duration) {
	if m == nil {
		return
	}
	m.frames.Inc()
	m.framesProcessing.Observe(d.Seconds())
}

func (m *Metrics) ObserveDetectorError() {
	if m != nil {
		m.detectorErrors.Inc()
	}
}

func (m *Metrics) ObserveDetections(stage string, n int) {
	if m != nil && n > 0 {
		m.detections.WithLabelValues(stage).Add(float64(n))
	}
}

func (m *Metrics) ObserveWinner(label string) {
	if m != nil {
		m.winners.WithLabelValues(label).Inc()
	}
}

func (m *Metrics) ObserveHysteresisOverride() {
	if m != nil {
		m.hysteresis.Inc()
	}
}

func (m *Metrics) ObserveBlocked(gate string) {
	if m != nil {
		m.blocked.WithLabelValues(gate).Inc()
	}
}

func (m *Metrics) ObserveDispatch(label, backend string) {
	if m != nil {
		m.dispatches.WithLabelValues(label, backend).Inc()
	}
}

// ObserveRender implements feedback.ResultObserver.
func (m *Metrics) ObserveRender(backend feedback.Backend, result feedback.RenderResult) {
	if m != nil {
		m.renders.WithLabelValues(backend.String(), result.String()).Inc()
	}
}

var _ feedback.ResultObserver = (*Metrics)(nil)

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler returns the Prometheus HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartServer serves /metrics on addr until ctx is done. It blocks like
// http.ListenAndServe and returns nil after a clean shutdown.
func (m *Metrics) StartServer(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
