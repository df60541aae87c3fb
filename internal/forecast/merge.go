package forecast

import (
	"sort"

	"github.com/angelmondragon/packfinderz-forecast/pkg/types"
)

// MergeSeries aligns actual and forecast series into one ascending sequence
// keyed by the union of their dates. Sides without data are nil. Inputs are
// not modified and the output shares no pointers with them.
func MergeSeries(actual map[types.Date]float64, forecast map[types.Date]ForecastValue) []MergedSeriesPoint {
	dates := make([]types.Date, 0, len(actual)+len(forecast))
	seen := make(map[types.Date]struct{}, len(actual)+len(forecast))
	for d := range actual {
		seen[d] = struct{}{}
		dates = append(dates, d)
	}
	for d := range forecast {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	out := make([]MergedSeriesPoint, 0, len(dates))
	for _, d := range dates {
		row := MergedSeriesPoint{Date: d}
		if v, ok := actual[d]; ok {
			row.Actual = floatPtr(v)
		}
		if fv, ok := forecast[d]; ok {
			row.Forecast = floatPtr(fv.Value)
			if fv.Lower != nil {
				row.ConfidenceLower = floatPtr(*fv.Lower)
			}
			if fv.Upper != nil {
				row.ConfidenceUpper = floatPtr(*fv.Upper)
			}
		}
		out = append(out, row)
	}
	return out
}

// ActualSeries sums observed quantity per date.
func ActualSeries(history []HistoricalObservation) map[types.Date]float64 {
	out := make(map[types.Date]float64, len(history))
	for _, obs := range history {
		out[obs.Date] += obs.Quantity
	}
	return out
}

// ForecastSeries indexes forecast points by date. Later points win on
// duplicate dates.
func ForecastSeries(points []ForecastPoint) map[types.Date]ForecastValue {
	out := make(map[types.Date]ForecastValue, len(points))
	for _, p := range points {
		out[p.Date] = ForecastValue{Value: p.PredictedValue, Lower: p.ConfidenceLower, Upper: p.ConfidenceUpper}
	}
	return out
}
