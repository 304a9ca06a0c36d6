package metrics

import (
	"fmt"
	"io"
	"net/http"

	"github.com/harun/toolgate/pkg/toolexecutor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

// Metrics holds the Prometheus collectors for tool execution
type Metrics struct {
	registry *prometheus.Registry

	ToolExecutionsTotal      *prometheus.CounterVec
	ToolExecutionDuration    *prometheus.HistogramVec
	ToolExecutionErrorsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers the execution metrics
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		ToolExecutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_executions_total",
				Help: "Total number of tool executions",
			},
			[]string{"tool_name", "status"},
		),
		ToolExecutionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tool_execution_duration_seconds",
				Help:    "Duration of tool executions in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool_name"},
		),
		ToolExecutionErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_execution_errors_total",
				Help: "Total number of tool execution errors",
			},
			[]string{"tool_name", "error_kind"},
		),
	}

	registry.MustRegister(m.ToolExecutionsTotal)
	registry.MustRegister(m.ToolExecutionDuration)
	registry.MustRegister(m.ToolExecutionErrorsTotal)

	return m
}

// Instrument subscribes to the engine's execution events and exports its
// catalog size and tracked rate limit keys as gauges.
func (m *Metrics) Instrument(engine *toolexecutor.Engine) {
	engine.On(toolexecutor.EventToolExecuted, m.observe)
	engine.On(toolexecutor.EventToolError, m.observe)

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "tools_registered",
			Help: "Number of tools in the catalog",
		},
		func() float64 { return float64(engine.Catalog().Len()) },
	))
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "rate_limit_keys",
			Help: "Number of (user, tool) rate limit windows tracked",
		},
		func() float64 { return float64(engine.RateLimiter().Len()) },
	))
}

// unknownTool labels calls to names missing from the catalog, which are
// caller supplied and unbounded.
const unknownTool = "unknown"

func (m *Metrics) observe(event toolexecutor.Event) {
	toolName := event.ToolName
	if event.ErrorKind == toolexecutor.KindNotFound {
		toolName = unknownTool
	}

	status := "success"
	if !event.Success {
		status = "error"
		m.ToolExecutionErrorsTotal.WithLabelValues(toolName, string(event.ErrorKind)).Inc()
	}
	m.ToolExecutionsTotal.WithLabelValues(toolName, status).Inc()
	m.ToolExecutionDuration.WithLabelValues(toolName).Observe(float64(event.DurationMs) / 1000)
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// WriteText writes the current samples in the Prometheus text format
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
