package forecast

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/angelmondragon/packfinderz-forecast/pkg/types"
	"github.com/shopspring/decimal"
)

const (
	trendWindow = 10

	noiseFloor = 0.9
	noiseSpan  = 0.2

	lowerBandFactor = 0.85
	upperBandFactor = 1.15
)

// RandSource yields values in [0, 1).
type RandSource interface {
	Float64() float64
}

// Engine is the trend-extrapolation fallback forecaster.
type Engine struct {
	rand RandSource
}

// NewEngine builds an engine drawing noise from src. A nil src uses a
// clock-seeded generator. src is always serialized, so it need not be safe
// for concurrent use.
func NewEngine(src RandSource) *Engine {
	if src == nil {
		seed := uint64(time.Now().UnixNano())
		src = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return &Engine{rand: &lockedRand{src: src}}
}

// Forecast extrapolates days points from history (newest-first). It returns
// exactly days points dated consecutively from the day after the newest
// observation, or nil when history is empty or days < 1.
func (e *Engine) Forecast(history []HistoricalObservation, days int) []ForecastPoint {
	if len(history) == 0 || days < 1 {
		return nil
	}

	window := history
	if len(window) > trendWindow {
		window = window[:trendWindow]
	}
	n := float64(len(window))

	var sum float64
	for _, obs := range window {
		sum += obs.Price
	}
	avgPrice := sum / n
	trend := (window[0].Price - window[len(window)-1].Price) / n

	start := newestDate(history)
	points := make([]ForecastPoint, 0, days)
	for i := 1; i <= days; i++ {
		multiplier := 1.0
		if avgPrice != 0 {
			multiplier = 1 + (trend/avgPrice)*(float64(i)/float64(days))
		}
		noise := noiseFloor + noiseSpan*e.rand.Float64()
		predicted := round2(math.Max(0, avgPrice*multiplier*noise))

		points = append(points, ForecastPoint{
			Date:            start.AddDays(i),
			PredictedValue:  predicted,
			ConfidenceLower: floatPtr(round2(predicted * lowerBandFactor)),
			ConfidenceUpper: floatPtr(round2(predicted * upperBandFactor)),
			ModelUsed:       ModelTrendExtrapolation,
		})
	}
	return points
}

// ScalePoints multiplies values and bounds by factor, re-rounding each.
func ScalePoints(points []ForecastPoint, factor float64) []ForecastPoint {
	out := make([]ForecastPoint, len(points))
	for i, p := range points {
		p.PredictedValue = round2(math.Max(0, p.PredictedValue*factor))
		if p.ConfidenceLower != nil {
			p.ConfidenceLower = floatPtr(round2(math.Max(0, *p.ConfidenceLower*factor)))
		}
		if p.ConfidenceUpper != nil {
			p.ConfidenceUpper = floatPtr(round2(math.Max(0, *p.ConfidenceUpper*factor)))
		}
		out[i] = p
	}
	return out
}

func newestDate(history []HistoricalObservation) types.Date {
	newest := history[0].Date
	for _, obs := range history[1:] {
		if obs.Date.After(newest) {
			newest = obs.Date
		}
	}
	return newest
}

func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// lockedRand guards a generator shared across concurrent scenario runs.
type lockedRand struct {
	mu  sync.Mutex
	src RandSource
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Float64()
}
