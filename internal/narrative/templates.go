package narrative

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/packfinderz-forecast/pkg/enums"
)

// trendThreshold is the relative change between first and last forecast
// values below which demand is described as steady.
const trendThreshold = 0.02

var scenarioLead = map[enums.Scenario]string{
	enums.ScenarioOptimistic:  "In the optimistic scenario, demand",
	enums.ScenarioPessimistic: "In the pessimistic scenario, demand",
	enums.ScenarioRealistic:   "Demand",
}

var scenarioAdvice = map[enums.Scenario]string{
	enums.ScenarioOptimistic:  "Consider building inventory ahead of the expected lift.",
	enums.ScenarioPessimistic: "Keep inventory lean and watch sell-through closely.",
	enums.ScenarioRealistic:   "Current stocking levels should cover the expected volume.",
}

// Template renders the local summary used when the text provider is
// unavailable. It never makes a network call.
func Template(in Input) string {
	scenario := in.Scenario
	if !scenario.IsValid() {
		scenario = enums.ScenarioRealistic
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s for this product is projected to average %.2f units per day over the next %d days, %s.",
		scenarioLead[scenario], in.AverageDemand, in.Days, describeTrend(in.FirstValue, in.LastValue))
	if in.TotalRevenue != nil {
		fmt.Fprintf(&b, " Projected revenue for the period is %.2f.", *in.TotalRevenue)
	}
	b.WriteString(" ")
	b.WriteString(scenarioAdvice[scenario])
	return b.String()
}

func describeTrend(first, last float64) string {
	if first <= 0 {
		if last > 0 {
			return "trending upward"
		}
		return "holding steady"
	}
	change := (last - first) / first
	switch {
	case change > trendThreshold:
		return fmt.Sprintf("trending upward by about %.0f%%", change*100)
	case change < -trendThreshold:
		return fmt.Sprintf("trending downward by about %.0f%%", -change*100)
	default:
		return "holding steady"
	}
}
