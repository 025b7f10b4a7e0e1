package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

type Metrics struct {
	RequestCount      *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	ResponseSize      *prometheus.HistogramVec
	ProbeCount        *prometheus.CounterVec
	ActiveConnections prometheus.Gauge
	HealthStatus      prometheus.Gauge
	CPUUsage          prometheus.Gauge
	MemoryUsage       prometheus.Gauge

	registry *prometheus.Registry
	handler  http.Handler
}

func NewMetrics() *Metrics {
	m := &Metrics{
		RequestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint", "status_code"},
		),
		ResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "endpoint", "status_code"},
		),
		ProbeCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "probe_requests_total",
				Help: "Total number of supervisor probe requests by probe kind",
			},
			[]string{"probe", "outcome"},
		),
		ActiveConnections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_active_connections",
				Help: "Number of active HTTP connections",
			},
		),
		HealthStatus: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "app_health_status",
				Help: "Application health status (1 = healthy, 0 = unhealthy)",
			},
		),
		CPUUsage: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "system_cpu_usage_percent",
				Help: "Host CPU usage percentage",
			},
		),
		MemoryUsage: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "system_memory_usage_percent",
				Help: "Host memory usage percentage",
			},
		),
	}

	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(
		m.RequestCount,
		m.RequestDuration,
		m.ResponseSize,
		m.ProbeCount,
		m.ActiveConnections,
		m.HealthStatus,
		m.CPUUsage,
		m.MemoryUsage,
	)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})

	return m
}

func (m *Metrics) RecordRequest(method, endpoint string, statusCode int, duration time.Duration, responseSize int64) {
	status := strconv.Itoa(statusCode)

	m.RequestCount.WithLabelValues(method, endpoint, status).Inc()
	m.RequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
	m.ResponseSize.WithLabelValues(method, endpoint, status).Observe(float64(responseSize))
}

// RecordProbe counts a supervisor probe by kind ("liveness", "readiness")
// and outcome ("ok", "fail").
func (m *Metrics) RecordProbe(probe string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "fail"
	}
	m.ProbeCount.WithLabelValues(probe, outcome).Inc()
}

func (m *Metrics) SetHealthStatus(healthy bool) {
	if healthy {
		m.HealthStatus.Set(1)
	} else {
		m.HealthStatus.Set(0)
	}
}

func (m *Metrics) Handler() http.Handler {
	return m.handler
}

// UpdateSystemStats samples host CPU and memory usage into the gauges.
// Sampling errors leave the gauges at their previous values.
func (m *Metrics) UpdateSystemStats() {
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		m.CPUUsage.Set(percents[0])
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		m.MemoryUsage.Set(vm.UsedPercent)
	}
}

// StartSystemStatsLoop refreshes system gauges on the given interval
// until stop is closed.
func (m *Metrics) StartSystemStatsLoop(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		m.UpdateSystemStats()
		for {
			select {
			case <-ticker.C:
				m.UpdateSystemStats()
			case <-stop:
				return
			}
		}
	}()
}
