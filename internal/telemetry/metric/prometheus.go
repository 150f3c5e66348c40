package metric

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alexu8007/Oxidized/pkg/web"
)

// Namespace prefixes every metric name.
const Namespace = "oxidized"

// DurationBuckets are histogram buckets for request and handler latency,
// from 0.5ms to 10s.
var DurationBuckets = []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 10}

// SessionBuckets are histogram buckets for connection and WebSocket session
// lifetimes, from 10ms to 1h.
var SessionBuckets = []float64{0.01, 0.1, 1, 10, 60, 300, 900, 3600}

// Registry holds all application metrics. It is safe for concurrent use and
// implements server.Observer and ws.SessionObserver.
type Registry struct {
	reg *prometheus.Registry

	// Connection metrics
	ConnectionsActive  prometheus.Gauge
	ConnectionsTotal   prometheus.Counter
	ConnectionDuration prometheus.Histogram
	TLSHandshakeErrors prometheus.Counter
	ProtocolErrors     prometheus.Counter
	Upgrades           prometheus.Counter

	// Request metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	HandlerDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// WebSocket metrics
	WSUpgradeFailures prometheus.Counter
	WSSessionsActive  prometheus.Gauge
	WSSessionDuration prometheus.Histogram
	WSMessages        *prometheus.CounterVec
}

// NewRegistry creates a registry with all collectors registered, including
// the Go runtime, process and build info collectors.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "connections_active",
			Help:      "Connections currently served by the runtime.",
		}),
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "connections_total",
			Help:      "Connections accepted.",
		}),
		ConnectionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "connection_duration_seconds",
			Help:      "Time the runtime spent serving a connection.",
			Buckets:   SessionBuckets,
		}),
		TLSHandshakeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "tls_handshake_errors_total",
			Help:      "Connections abandoned because the TLS handshake failed.",
		}),
		ProtocolErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "protocol_errors_total",
			Help:      "Malformed or oversized requests.",
		}),
		Upgrades: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "connection_upgrades_total",
			Help:      "Connections handed over to an upgraded protocol.",
		}),

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "requests_total",
			Help:      "Requests served, by method, status code and outcome.",
		}, []string{"method", "status", "outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "request_duration_seconds",
			Help:      "Time from request parsed to response built.",
			Buckets:   DurationBuckets,
		}, []string{"method"}),
		HandlerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "handler_duration_seconds",
			Help:      "Time spent in handlers below the metrics layer.",
			Buckets:   DurationBuckets,
		}, []string{"method", "outcome"}),
		RequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "requests_in_flight",
			Help:      "Requests currently inside the metrics layer.",
		}),

		WSUpgradeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "ws",
			Name:      "upgrade_failures_total",
			Help:      "WebSocket handshakes whose connection could not be taken over.",
		}),
		WSSessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "ws",
			Name:      "sessions_active",
			Help:      "Running WebSocket sessions.",
		}),
		WSSessionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "ws",
			Name:      "session_duration_seconds",
			Help:      "WebSocket session lifetime.",
			Buckets:   SessionBuckets,
		}),
		WSMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "ws",
			Name:      "messages_total",
			Help:      "WebSocket messages, by direction and type.",
		}, []string{"direction", "type"}),
	}

	r.reg.MustRegister(
		r.ConnectionsActive,
		r.ConnectionsTotal,
		r.ConnectionDuration,
		r.TLSHandshakeErrors,
		r.ProtocolErrors,
		r.Upgrades,
		r.RequestsTotal,
		r.RequestDuration,
		r.HandlerDuration,
		r.RequestsInFlight,
		r.WSUpgradeFailures,
		r.WSSessionsActive,
		r.WSSessionDuration,
		r.WSMessages,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		NewCollector(),
	)
	return r
}

// Gatherer exposes the underlying registry for scraping and tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler returns the /metrics endpoint in the Prometheus exposition format.
func (r *Registry) Handler() web.Handler {
	return web.WrapHTTP(promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{
		Registry: r.reg,
	}))
}
