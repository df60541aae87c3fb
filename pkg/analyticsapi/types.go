package analyticsapi

// Observation is one historical data point on the wire.
type Observation struct {
	Date     string  `json:"date"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
}

type Request struct {
	ProductID      string        `json:"product_id"`
	HistoricalData []Observation `json:"historical_data"`
	Days           int           `json:"days"`
	SellingPrice   *float64      `json:"selling_price,omitempty"`
	Scenario       string        `json:"scenario,omitempty"`
	Models         []string      `json:"models,omitempty"`
}

type Point struct {
	Date            string   `json:"date"`
	PredictedValue  float64  `json:"predicted_value"`
	ConfidenceLower *float64 `json:"confidence_lower"`
	ConfidenceUpper *float64 `json:"confidence_upper"`
	ModelUsed       string   `json:"model_used"`
}

type RevenuePoint struct {
	Date              string   `json:"date"`
	ProjectedQuantity float64  `json:"projected_quantity"`
	SellingPrice      float64  `json:"selling_price"`
	ProjectedRevenue  float64  `json:"projected_revenue"`
	ConfidenceLower   *float64 `json:"confidence_lower"`
	ConfidenceUpper   *float64 `json:"confidence_upper"`
}

type Response struct {
	ForecastData      []Point        `json:"forecast_data"`
	RevenueProjection []RevenuePoint `json:"revenue_projection,omitempty"`
	ModelsUsed        []string       `json:"models_used,omitempty"`
	Summary           string         `json:"summary"`
	Confidence        *float64       `json:"confidence"`
	Scenario          string         `json:"scenario"`
}
