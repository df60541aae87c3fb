package forecast

import (
	"context"

	"github.com/angelmondragon/packfinderz-forecast/pkg/enums"
	"github.com/angelmondragon/packfinderz-forecast/pkg/types"
	"github.com/google/uuid"
)

const (
	MinDays = 1
	MaxDays = 365

	// MaxObservations caps how much history a provider returns.
	MaxObservations = 100

	ModelTrendExtrapolation = "trend_extrapolation"
)

// HistoricalObservation is one dated sale aggregate for a product.
type HistoricalObservation struct {
	Date     types.Date `json:"date"`
	Quantity float64    `json:"quantity"`
	Price    float64    `json:"price"`
}

// Window optionally narrows the history fetch to a date range (inclusive).
type Window struct {
	From *types.Date
	To   *types.Date
}

// HistoryProvider returns observations newest-first, at most MaxObservations.
type HistoryProvider interface {
	Fetch(ctx context.Context, productID string, ownerID uuid.UUID, window Window) ([]HistoricalObservation, error)
}

// ForecastRequest is the public request shape for a single forecast.
type ForecastRequest struct {
	ProductID         string         `json:"productId" validate:"required,max=128"`
	Days              *int           `json:"days" validate:"required,min=1,max=365"`
	SellingPrice      *float64       `json:"sellingPrice,omitempty" validate:"omitempty,gte=0"`
	DateFrom          *types.Date    `json:"dateFrom,omitempty"`
	DateTo            *types.Date    `json:"dateTo,omitempty"`
	Models            []string       `json:"models,omitempty" validate:"omitempty,max=10,dive,required,max=64"`
	IncludeConfidence *bool          `json:"includeConfidence,omitempty"`
	Scenario          enums.Scenario `json:"scenario,omitempty" validate:"omitempty,oneof=optimistic pessimistic realistic"`
}

// Horizon returns the requested day count; callers validate first.
func (r ForecastRequest) Horizon() int {
	if r.Days == nil {
		return 0
	}
	return *r.Days
}

// WantsConfidence defaults to true when the flag is omitted.
func (r ForecastRequest) WantsConfidence() bool {
	return r.IncludeConfidence == nil || *r.IncludeConfidence
}

// WithScenario returns a copy of the request bound to scenario.
func (r ForecastRequest) WithScenario(scenario enums.Scenario) ForecastRequest {
	out := r
	out.Scenario = scenario
	if r.Models != nil {
		out.Models = append([]string(nil), r.Models...)
	}
	return out
}

type ForecastPoint struct {
	Date            types.Date `json:"date"`
	PredictedValue  float64    `json:"predictedValue"`
	ConfidenceLower *float64   `json:"confidenceLower,omitempty"`
	ConfidenceUpper *float64   `json:"confidenceUpper,omitempty"`
	ModelUsed       string     `json:"modelUsed,omitempty"`
}

type RevenueProjectionPoint struct {
	Date              types.Date `json:"date"`
	ProjectedQuantity float64    `json:"projectedQuantity"`
	SellingPrice      float64    `json:"sellingPrice"`
	ProjectedRevenue  float64    `json:"projectedRevenue"`
	ConfidenceLower   *float64   `json:"confidenceLower,omitempty"`
	ConfidenceUpper   *float64   `json:"confidenceUpper,omitempty"`
}

type Metadata struct {
	DataPoints       int        `json:"dataPoints"`
	ForecastHorizon  int        `json:"forecastHorizon"`
	LastTrainingDate types.Date `json:"lastTrainingDate"`
}

// ForecastResponse is the pipeline output. RevenueProjection is nil when no
// selling price was supplied so callers can tell "not requested" from zero.
type ForecastResponse struct {
	ForecastData      []ForecastPoint          `json:"forecastData"`
	RevenueProjection []RevenueProjectionPoint `json:"revenueProjection,omitempty"`
	Summary           string                   `json:"summary"`
	ModelsUsed        []string                 `json:"modelsUsed,omitempty"`
	Confidence        *float64                 `json:"confidence,omitempty"`
	Scenario          string                   `json:"scenario,omitempty"`
	Metadata          *Metadata                `json:"metadata,omitempty"`

	Source          enums.ForecastSource  `json:"-"`
	NarrativeSource enums.NarrativeSource `json:"-"`
}

// ForecastValue is the forecast side of a merged chart row.
type ForecastValue struct {
	Value float64
	Lower *float64
	Upper *float64
}

// MergedSeriesPoint is one chart row; nil means the side has no data for the date.
type MergedSeriesPoint struct {
	Date            types.Date `json:"date"`
	Actual          *float64   `json:"actual"`
	Forecast        *float64   `json:"forecast"`
	ConfidenceLower *float64   `json:"confidenceLower"`
	ConfidenceUpper *float64   `json:"confidenceUpper"`
}

// ChartResponse pairs a forecast with its merged actual/forecast series.
type ChartResponse struct {
	Forecast *ForecastResponse   `json:"forecast"`
	Series   []MergedSeriesPoint `json:"series"`
}

func floatPtr(v float64) *float64 {
	return &v
}
