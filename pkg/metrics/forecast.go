package metrics

import (
	"time"

	"github.com/angelmondragon/packfinderz-forecast/pkg/enums"
	"github.com/prometheus/client_golang/prometheus"
)

// ForecastMetrics records pipeline outcomes. A nil receiver, or one built
// without a registerer, is a no-op.
type ForecastMetrics struct {
	requests          *prometheus.CounterVec
	duration          *prometheus.HistogramVec
	narratives        *prometheus.CounterVec
	narrativeAttempts prometheus.Histogram
	scenarios         *prometheus.CounterVec
}

// NewForecastMetrics registers the forecast metrics on the provided registerer.
func NewForecastMetrics(reg prometheus.Registerer) *ForecastMetrics {
	if reg == nil {
		return &ForecastMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forecast_requests_total",
		Help: "Forecasts served, by producing source.",
	}, []string{"source"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "forecast_duration_seconds",
		Help:    "End-to-end forecast latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})
	narratives := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "narrative_outcomes_total",
		Help: "Narratives produced, by source.",
	}, []string{"source"})
	attempts := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "narrative_attempts",
		Help:    "Provider attempts spent per narrative.",
		Buckets: []float64{0, 1, 2, 3, 4, 5},
	})
	scenarios := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scenario_computations_total",
		Help: "Scenario forecasts computed during comparisons.",
	}, []string{"scenario", "outcome"})
	reg.MustRegister(requests, duration, narratives, attempts, scenarios)
	return &ForecastMetrics{
		requests:          requests,
		duration:          duration,
		narratives:        narratives,
		narrativeAttempts: attempts,
		scenarios:         scenarios,
	}
}

// ObserveForecast counts a served forecast and its latency.
func (m *ForecastMetrics) ObserveForecast(source enums.ForecastSource, elapsed time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	label := normalizeLabel(source.String())
	m.requests.WithLabelValues(label).Inc()
	m.duration.WithLabelValues(label).Observe(elapsed.Seconds())
}

func (m *ForecastMetrics) ObserveNarrative(source enums.NarrativeSource, attempts int) {
	if m == nil || m.narratives == nil {
		return
	}
	m.narratives.WithLabelValues(normalizeLabel(source.String())).Inc()
	m.narrativeAttempts.Observe(float64(attempts))
}

// ObserveScenario counts one scenario computation; ok=false means it failed
// or timed out.
func (m *ForecastMetrics) ObserveScenario(scenario enums.Scenario, ok bool) {
	if m == nil || m.scenarios == nil {
		return
	}
	outcome := "error"
	if ok {
		outcome = "ok"
	}
	m.scenarios.WithLabelValues(normalizeLabel(scenario.String()), outcome).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
