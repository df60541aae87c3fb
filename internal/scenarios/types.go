package scenarios

import (
	"github.com/angelmondragon/packfinderz-forecast/internal/forecast"
	"github.com/angelmondragon/packfinderz-forecast/pkg/enums"
)

// ScenarioResult is one scenario's pipeline output inside a comparison session.
type ScenarioResult struct {
	ScenarioID     enums.Scenario                    `json:"scenarioId"`
	ForecastPoints []forecast.ForecastPoint          `json:"forecastPoints"`
	RevenuePoints  []forecast.RevenueProjectionPoint `json:"revenuePoints,omitempty"`
	Confidence     float64                           `json:"confidence"`
	Summary        string                            `json:"summary"`
	ModelsUsed     []string                          `json:"modelsUsed"`
}

type ScenarioMetrics struct {
	ScenarioID   enums.Scenario `json:"scenarioId"`
	AvgDemand    float64        `json:"avgDemand"`
	TotalRevenue float64        `json:"totalRevenue"`
	Confidence   float64        `json:"confidence"`
}

type RevenueRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type Insights struct {
	RevenueRange               *RevenueRange  `json:"revenueRange,omitempty"`
	OptimisticVsPessimisticPct *float64       `json:"optimisticVsPessimisticPct,omitempty"`
	Recommended                enums.Scenario `json:"recommended,omitempty"`
}

// FailedScenario reports a scenario that could not be computed in this call.
type FailedScenario struct {
	ScenarioID enums.Scenario `json:"scenarioId"`
	Code       string         `json:"code"`
	Message    string         `json:"message"`
}

// Comparison is the accumulated state of a session after one Compare call.
type Comparison struct {
	SessionID string            `json:"sessionId"`
	Results   []ScenarioResult  `json:"results"`
	Metrics   []ScenarioMetrics `json:"metrics"`
	Insights  Insights          `json:"insights"`
	Failed    []FailedScenario  `json:"failed,omitempty"`
}

// Session is what a SessionStore persists between calls. Fingerprint ties the
// stored results to the base request that produced them.
type Session struct {
	Fingerprint string           `json:"fingerprint"`
	Results     []ScenarioResult `json:"results"`
}

func (s *Session) has(id enums.Scenario) bool {
	for _, r := range s.Results {
		if r.ScenarioID == id {
			return true
		}
	}
	return false
}
