package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/vsync/internal/errors"
	"github.com/vango-dev/vsync/pkg/vdom"
)

// Config configures a Collector.
type Config struct {
	// Namespace is the metrics namespace (default: "vsync").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for pass duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures a Collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "vsync",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector records reconciliation and streaming metrics. It implements
// vdom.Observer; pass it to vdom.WithObserver.
//
// Metrics collected (with the default namespace):
//   - vsync_passes_total: passes by phase and status
//   - vsync_pass_duration_seconds: pass duration by phase
//   - vsync_pass_errors_total: failed passes by phase and error code
//   - vsync_mutations_total: node-level changes by kind
//   - vsync_property_writes_total: property and style writes by kind
//   - vsync_frames_sent_total: wire frames written to clients
//   - vsync_frame_bytes_total: bytes written to clients
//   - vsync_clients: connected stream clients
//   - vsync_websocket_errors_total: WebSocket errors by type
type Collector struct {
	passesTotal    *prometheus.CounterVec
	passDuration   *prometheus.HistogramVec
	passErrors     *prometheus.CounterVec
	mutationsTotal *prometheus.CounterVec
	propertyWrites *prometheus.CounterVec
	framesSent     prometheus.Counter
	frameBytes     prometheus.Counter
	clients        prometheus.Gauge
	wsErrors       *prometheus.CounterVec
}

var _ vdom.Observer = (*Collector)(nil)

// New creates a Collector and registers its metrics. Registering twice on the
// same registry panics, as with promauto.
func New(opts ...Option) *Collector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Collector{
		passesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "passes_total",
			Help:        "Total number of reconciliation passes",
			ConstLabels: config.ConstLabels,
		}, []string{"phase", "status"}),

		passDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pass_duration_seconds",
			Help:        "Reconciliation pass duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"phase"}),

		passErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pass_errors_total",
			Help:        "Total number of failed reconciliation passes",
			ConstLabels: config.ConstLabels,
		}, []string{"phase", "code"}),

		mutationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "mutations_total",
			Help:        "Node-level changes applied to the document",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		propertyWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "property_writes_total",
			Help:        "Property and style writes applied to the document",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		framesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frames_sent_total",
			Help:        "Total number of wire frames sent to clients",
			ConstLabels: config.ConstLabels,
		}),

		frameBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frame_bytes_total",
			Help:        "Total bytes of wire frames sent to clients",
			ConstLabels: config.ConstLabels,
		}),

		clients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "clients",
			Help:        "Number of connected stream clients",
			ConstLabels: config.ConstLabels,
		}),

		wsErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "websocket_errors_total",
			Help:        "Total WebSocket errors by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),
	}
}

// ObservePass implements vdom.Observer.
func (c *Collector) ObservePass(phase vdom.Phase, stats vdom.Stats, elapsed time.Duration, err error) {
	p := string(phase)
	c.passDuration.WithLabelValues(p).Observe(elapsed.Seconds())

	status := "success"
	if err != nil {
		status = "error"
		c.passErrors.WithLabelValues(p, errorCode(err)).Inc()
	}
	c.passesTotal.WithLabelValues(p, status).Inc()

	c.addMutations("created", stats.Created)
	c.addMutations("removed", stats.Removed)
	c.addMutations("moved", stats.Moved)
	c.addMutations("replaced", stats.Replaced)
	c.addMutations("text", stats.TextUpdates)

	c.addWrites("prop_set", stats.PropSets)
	c.addWrites("prop_remove", stats.PropRemovals)
	c.addWrites("style_set", stats.StyleSets)
	c.addWrites("style_clear", stats.StyleClears)
}

func (c *Collector) addMutations(kind string, n int) {
	if n > 0 {
		c.mutationsTotal.WithLabelValues(kind).Add(float64(n))
	}
}

func (c *Collector) addWrites(kind string, n int) {
	if n > 0 {
		c.propertyWrites.WithLabelValues(kind).Add(float64(n))
	}
}

// errorCode keeps label cardinality bounded to registered codes.
func errorCode(err error) string {
	if code := errors.CodeOf(err); code != "" {
		return code
	}
	return "internal"
}

// RecordFrame records one frame of n bytes written to a client.
func (c *Collector) RecordFrame(n int) {
	c.framesSent.Inc()
	c.frameBytes.Add(float64(n))
}

// ClientConnected records a new stream client.
func (c *Collector) ClientConnected() {
	c.clients.Inc()
}

// ClientDisconnected records a stream client leaving.
func (c *Collector) ClientDisconnected() {
	c.clients.Dec()
}

// RecordWebSocketError records a WebSocket error.
func (c *Collector) RecordWebSocketError(errorType string) {
	c.wsErrors.WithLabelValues(errorType).Inc()
}
