package forecast

import "github.com/shopspring/decimal"

// ProjectRevenue scales each forecast point by sellingPrice. It returns nil
// when sellingPrice is nil so the response omits the series entirely.
func ProjectRevenue(points []ForecastPoint, sellingPrice *float64) []RevenueProjectionPoint {
	if sellingPrice == nil {
		return nil
	}
	price := decimal.NewFromFloat(*sellingPrice)

	out := make([]RevenueProjectionPoint, 0, len(points))
	for _, p := range points {
		qty := decimal.NewFromFloat(p.PredictedValue)
		rp := RevenueProjectionPoint{
			Date:              p.Date,
			ProjectedQuantity: p.PredictedValue,
			SellingPrice:      *sellingPrice,
			ProjectedRevenue:  money(qty.Mul(price)),
		}
		if p.ConfidenceLower != nil {
			rp.ConfidenceLower = floatPtr(money(decimal.NewFromFloat(*p.ConfidenceLower).Mul(price)))
		}
		if p.ConfidenceUpper != nil {
			rp.ConfidenceUpper = floatPtr(money(decimal.NewFromFloat(*p.ConfidenceUpper).Mul(price)))
		}
		out = append(out, rp)
	}
	return out
}

// TotalRevenue sums projected revenue without float drift.
func TotalRevenue(points []RevenueProjectionPoint) float64 {
	total := decimal.Zero
	for _, p := range points {
		total = total.Add(decimal.NewFromFloat(p.ProjectedRevenue))
	}
	return money(total)
}

// AverageDemand is the mean predicted value, 0 for an empty series.
func AverageDemand(points []ForecastPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	total := decimal.Zero
	for _, p := range points {
		total = total.Add(decimal.NewFromFloat(p.PredictedValue))
	}
	return money(total.Div(decimal.NewFromInt(int64(len(points)))))
}

func money(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
