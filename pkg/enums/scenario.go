package enums

import (
	"fmt"
	"strings"
)

// Scenario names a forecast variant applied to the same pipeline.
type Scenario string

const (
	ScenarioOptimistic  Scenario = "optimistic"
	ScenarioPessimistic Scenario = "pessimistic"
	ScenarioRealistic   Scenario = "realistic"
)

var validScenarios = []Scenario{
	ScenarioOptimistic,
	ScenarioPessimistic,
	ScenarioRealistic,
}

// String implements fmt.Stringer.
func (s Scenario) String() string {
	return string(s)
}

// IsValid reports whether the value is a known Scenario.
func (s Scenario) IsValid() bool {
	for _, candidate := range validScenarios {
		if candidate == s {
			return true
		}
	}
	return false
}

// DemandMultiplier scales trend-engine output for the scenario. Unknown and
// empty scenarios are treated as realistic.
func (s Scenario) DemandMultiplier() float64 {
	switch s {
	case ScenarioOptimistic:
		return 1.2
	case ScenarioPessimistic:
		return 0.8
	default:
		return 1.0
	}
}

// ParseScenario converts raw input into a Scenario.
func ParseScenario(value string) (Scenario, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validScenarios {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid scenario %q", value)
}

// Scenarios returns every known scenario in display order.
func Scenarios() []Scenario {
	out := make([]Scenario, len(validScenarios))
	copy(out, validScenarios)
	return out
}

// ForecastSource records which path produced a forecast.
type ForecastSource string

const (
	ForecastSourcePrimary  ForecastSource = "primary"
	ForecastSourceFallback ForecastSource = "fallback"
)

func (s ForecastSource) String() string {
	return string(s)
}

// NarrativeSource records whether a summary came from the text provider or a
// local template.
type NarrativeSource string

const (
	NarrativeSourceProvider NarrativeSource = "provider"
	NarrativeSourceTemplate NarrativeSource = "template"
	NarrativeSourceUpstream NarrativeSource = "upstream"
)

func (s NarrativeSource) String() string {
	return string(s)
}
