package scenarios

import (
	"github.com/angelmondragon/packfinderz-forecast/internal/forecast"
	"github.com/angelmondragon/packfinderz-forecast/pkg/enums"
	"github.com/shopspring/decimal"
)

// tie order for the recommended scenario
var recommendRank = map[enums.Scenario]int{
	enums.ScenarioRealistic:   0,
	enums.ScenarioOptimistic:  1,
	enums.ScenarioPessimistic: 2,
}

func metricsFor(r ScenarioResult) ScenarioMetrics {
	return ScenarioMetrics{
		ScenarioID:   r.ScenarioID,
		AvgDemand:    forecast.AverageDemand(r.ForecastPoints),
		TotalRevenue: forecast.TotalRevenue(r.RevenuePoints),
		Confidence:   r.Confidence,
	}
}

// deriveInsights summarizes metrics across the computed scenarios.
func deriveInsights(metrics []ScenarioMetrics) Insights {
	var out Insights
	if len(metrics) == 0 {
		return out
	}

	rng := RevenueRange{Min: metrics[0].TotalRevenue, Max: metrics[0].TotalRevenue}
	byID := make(map[enums.Scenario]ScenarioMetrics, len(metrics))
	best := metrics[0]
	for _, m := range metrics {
		byID[m.ScenarioID] = m
		if m.TotalRevenue < rng.Min {
			rng.Min = m.TotalRevenue
		}
		if m.TotalRevenue > rng.Max {
			rng.Max = m.TotalRevenue
		}
		if m.Confidence > best.Confidence ||
			(m.Confidence == best.Confidence && recommendRank[m.ScenarioID] < recommendRank[best.ScenarioID]) {
			best = m
		}
	}
	out.RevenueRange = &rng
	out.Recommended = best.ScenarioID

	opt, okOpt := byID[enums.ScenarioOptimistic]
	pess, okPess := byID[enums.ScenarioPessimistic]
	if okOpt && okPess && pess.TotalRevenue != 0 {
		delta := decimal.NewFromFloat(opt.TotalRevenue).
			Sub(decimal.NewFromFloat(pess.TotalRevenue)).
			Div(decimal.NewFromFloat(pess.TotalRevenue)).
			Mul(decimal.NewFromInt(100)).
			Round(2)
		pct, _ := delta.Float64()
		out.OptimisticVsPessimisticPct = &pct
	}
	return out
}
