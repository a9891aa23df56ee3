package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the system and application registries and the servers exposing them.
//
// A server is nil when its address is configured as "". The application registry
// always exists so collectors can be created with the endpoint disabled.
type Metrics struct {
	SystemServer      *http.Server
	ApplicationServer *http.Server

	// SystemRegistry carries the Go runtime, process and build info collectors.
	SystemRegistry *prometheus.Registry

	// ApplicationRegistry carries everything created through MetricsCollector.
	ApplicationRegistry *prometheus.Registry

	wrappedApplicationRegisterer prometheus.Registerer
}

// NewMetrics creates both registries. Every metric gets a constant service label.
func NewMetrics(cfg Config) *Metrics {
	serviceLabel := prometheus.Labels{"service": cfg.ServiceName}
	m := &Metrics{}

	if addr := address(cfg.SystemMetricsAddress, DefaultSystemMetricsAddress); addr != "" {
		m.SystemRegistry = prometheus.NewRegistry()
		prometheus.WrapRegistererWith(serviceLabel, m.SystemRegistry).MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
		m.SystemServer = newServer(addr, m.SystemRegistry)
	}

	m.ApplicationRegistry = prometheus.NewRegistry()
	m.wrappedApplicationRegisterer = prometheus.WrapRegistererWith(serviceLabel, m.ApplicationRegistry)
	if addr := address(cfg.ApplicationMetricsAddress, DefaultApplicationMetricsAddress); addr != "" {
		m.ApplicationServer = newServer(addr, m.ApplicationRegistry)
	}

	return m
}

func address(configured *string, fallback string) string {
	if configured == nil {
		return fallback
	}
	return *configured
}

func newServer(addr string, registry *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
