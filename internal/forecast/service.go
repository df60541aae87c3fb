package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/angelmondragon/packfinderz-forecast/internal/narrative"
	"github.com/angelmondragon/packfinderz-forecast/pkg/analyticsapi"
	"github.com/angelmondragon/packfinderz-forecast/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-forecast/pkg/errors"
	"github.com/angelmondragon/packfinderz-forecast/pkg/logger"
	"github.com/angelmondragon/packfinderz-forecast/pkg/types"
	"github.com/google/uuid"
)

const (
	baseFallbackConfidence    = 0.5
	historyConfidenceWeight   = 0.2
	scenarioConfidencePenalty = 0.9
)

// PrimaryClient is the external analytics provider.
type PrimaryClient interface {
	Forecast(ctx context.Context, req analyticsapi.Request) (*analyticsapi.Response, error)
}

// Narrator writes the summary. It must not fail.
type Narrator interface {
	Generate(ctx context.Context, in narrative.Input) narrative.Result
}

// Recorder receives per-forecast outcomes. pkg/metrics implements it.
type Recorder interface {
	ObserveForecast(source enums.ForecastSource, elapsed time.Duration)
}

// Service runs the forecast pipeline for one product.
type Service interface {
	Forecast(ctx context.Context, ownerID uuid.UUID, req ForecastRequest) (*ForecastResponse, error)
	Chart(ctx context.Context, ownerID uuid.UUID, req ForecastRequest) (*ChartResponse, error)
}

type ServiceParams struct {
	History  HistoryProvider
	Primary  PrimaryClient
	Engine   *Engine
	Narrator Narrator
	Recorder Recorder
	Logger   *logger.Logger
}

type service struct {
	history  HistoryProvider
	primary  PrimaryClient
	engine   *Engine
	narrator Narrator
	recorder Recorder
	logg     *logger.Logger
}

var timeNow = time.Now

// NewService wires the orchestrator. History is required; a nil Primary
// means every request uses the trend engine.
func NewService(params ServiceParams) (Service, error) {
	if params.History == nil {
		return nil, fmt.Errorf("history provider required")
	}
	engine := params.Engine
	if engine == nil {
		engine = NewEngine(nil)
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	narrator := params.Narrator
	if narrator == nil {
		narrator = narrative.NewGenerator(narrative.GeneratorParams{Logger: logg})
	}
	return &service{
		history:  params.History,
		primary:  params.Primary,
		engine:   engine,
		narrator: narrator,
		recorder: params.Recorder,
		logg:     logg,
	}, nil
}

func (s *service) Forecast(ctx context.Context, ownerID uuid.UUID, req ForecastRequest) (*ForecastResponse, error) {
	resp, _, err := s.run(ctx, ownerID, req)
	return resp, err
}

func (s *service) Chart(ctx context.Context, ownerID uuid.UUID, req ForecastRequest) (*ChartResponse, error) {
	resp, history, err := s.run(ctx, ownerID, req)
	if err != nil {
		return nil, err
	}
	return &ChartResponse{
		Forecast: resp,
		Series:   MergeSeries(ActualSeries(history), ForecastSeries(resp.ForecastData)),
	}, nil
}

func (s *service) run(ctx context.Context, ownerID uuid.UUID, req ForecastRequest) (*ForecastResponse, []HistoricalObservation, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, nil, err
	}
	ctx = s.logg.WithProductID(ctx, req.ProductID)
	ctx = s.logg.WithScenario(ctx, req.Scenario.String())
	started := timeNow()

	history, err := s.history.Fetch(ctx, req.ProductID, ownerID, Window{From: req.DateFrom, To: req.DateTo})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, nil, err
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "fetch historical series")
	}
	if len(history) == 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "no historical data for product")
	}
	if len(history) > MaxObservations {
		history = history[:MaxObservations]
	}
	if err := checkHistory(history); err != nil {
		return nil, nil, err
	}

	resp, ok := s.tryPrimary(ctx, req, history)
	if !ok {
		resp = s.fallback(req, history)
	}

	if resp.RevenueProjection == nil {
		resp.RevenueProjection = ProjectRevenue(resp.ForecastData, req.SellingPrice)
	}
	if !req.WantsConfidence() {
		stripConfidence(resp)
	}
	if resp.Summary == "" {
		s.narrate(ctx, req, resp)
	} else {
		resp.NarrativeSource = enums.NarrativeSourceUpstream
	}
	resp.Metadata = &Metadata{
		DataPoints:       len(history),
		ForecastHorizon:  req.Horizon(),
		LastTrainingDate: newestDate(history),
	}

	if s.recorder != nil {
		s.recorder.ObserveForecast(resp.Source, timeNow().Sub(started))
	}
	return resp, history, nil
}

// tryPrimary makes the single primary call. Any failure is logged and
// reported as !ok so the caller falls back; the reason never reaches the
// response.
func (s *service) tryPrimary(ctx context.Context, req ForecastRequest, history []HistoricalObservation) (*ForecastResponse, bool) {
	if s.primary == nil {
		return nil, false
	}
	out, err := s.primary.Forecast(ctx, toWireRequest(req, history))
	if err == nil {
		var resp *ForecastResponse
		resp, err = fromWireResponse(out, req)
		if err == nil {
			return resp, true
		}
	}
	if errors.Is(err, analyticsapi.ErrDisabled) {
		s.logg.Debug(ctx, "forecast.primary_disabled")
	} else {
		s.logg.WarnErr(ctx, "forecast.primary_unavailable", err)
	}
	return nil, false
}

func (s *service) fallback(req ForecastRequest, history []HistoricalObservation) *ForecastResponse {
	points := s.engine.Forecast(history, req.Horizon())
	if m := req.Scenario.DemandMultiplier(); m != 1 {
		points = ScalePoints(points, m)
	}
	confidence := fallbackConfidence(len(history), req.Scenario)
	return &ForecastResponse{
		ForecastData: points,
		ModelsUsed:   []string{ModelTrendExtrapolation},
		Confidence:   &confidence,
		Scenario:     req.Scenario.String(),
		Source:       enums.ForecastSourceFallback,
	}
}

func (s *service) narrate(ctx context.Context, req ForecastRequest, resp *ForecastResponse) {
	in := narrative.Input{
		ProductID:     req.ProductID,
		Days:          req.Horizon(),
		Scenario:      req.Scenario,
		AverageDemand: AverageDemand(resp.ForecastData),
	}
	if n := len(resp.ForecastData); n > 0 {
		in.FirstValue = resp.ForecastData[0].PredictedValue
		in.LastValue = resp.ForecastData[n-1].PredictedValue
	}
	if resp.RevenueProjection != nil {
		total := TotalRevenue(resp.RevenueProjection)
		in.TotalRevenue = &total
	}
	if resp.Confidence != nil {
		in.Confidence = *resp.Confidence
	}
	result := s.narrator.Generate(ctx, in)
	resp.Summary = result.Text
	resp.NarrativeSource = result.Source
	if resp.Summary == "" {
		resp.Summary = narrative.Template(in)
		resp.NarrativeSource = enums.NarrativeSourceTemplate
	}
}

func fallbackConfidence(observations int, scenario enums.Scenario) float64 {
	n := math.Min(float64(observations), trendWindow)
	c := baseFallbackConfidence + historyConfidenceWeight*n/trendWindow
	if scenario != "" && scenario != enums.ScenarioRealistic {
		c *= scenarioConfidencePenalty
	}
	return round2(c)
}

// checkHistory rejects records no forecast can be built from.
func checkHistory(history []HistoricalObservation) error {
	for i, obs := range history {
		bad := obs.Date.IsZero() ||
			obs.Quantity < 0 || obs.Price < 0 ||
			math.IsNaN(obs.Quantity) || math.IsNaN(obs.Price) ||
			math.IsInf(obs.Quantity, 0) || math.IsInf(obs.Price, 0)
		if bad {
			return pkgerrors.Newf(pkgerrors.CodeInternal, "corrupt historical record at position %d", i)
		}
	}
	return nil
}

func stripConfidence(resp *ForecastResponse) {
	for i := range resp.ForecastData {
		resp.ForecastData[i].ConfidenceLower = nil
		resp.ForecastData[i].ConfidenceUpper = nil
	}
	for i := range resp.RevenueProjection {
		resp.RevenueProjection[i].ConfidenceLower = nil
		resp.RevenueProjection[i].ConfidenceUpper = nil
	}
}

func toWireRequest(req ForecastRequest, history []HistoricalObservation) analyticsapi.Request {
	data := make([]analyticsapi.Observation, 0, len(history))
	for _, obs := range history {
		data = append(data, analyticsapi.Observation{Date: obs.Date.String(), Quantity: obs.Quantity, Price: obs.Price})
	}
	return analyticsapi.Request{
		ProductID:      req.ProductID,
		HistoricalData: data,
		Days:           req.Horizon(),
		SellingPrice:   req.SellingPrice,
		Scenario:       req.Scenario.String(),
		Models:         req.Models,
	}
}

// fromWireResponse renames primary fields into the public shape without
// recomputing anything. Unparseable dates count as a provider failure.
func fromWireResponse(out *analyticsapi.Response, req ForecastRequest) (*ForecastResponse, error) {
	if out == nil {
		return nil, errors.New("empty analytics response")
	}
	points := make([]ForecastPoint, 0, len(out.ForecastData))
	for _, p := range out.ForecastData {
		d, err := types.ParseDate(p.Date)
		if err != nil {
			return nil, fmt.Errorf("analytics forecast point: %w", err)
		}
		points = append(points, ForecastPoint{
			Date:            d,
			PredictedValue:  p.PredictedValue,
			ConfidenceLower: p.ConfidenceLower,
			ConfidenceUpper: p.ConfidenceUpper,
			ModelUsed:       p.ModelUsed,
		})
	}

	var revenue []RevenueProjectionPoint
	if req.SellingPrice != nil && len(out.RevenueProjection) > 0 {
		revenue = make([]RevenueProjectionPoint, 0, len(out.RevenueProjection))
		for _, r := range out.RevenueProjection {
			d, err := types.ParseDate(r.Date)
			if err != nil {
				return nil, fmt.Errorf("analytics revenue point: %w", err)
			}
			revenue = append(revenue, RevenueProjectionPoint{
				Date:              d,
				ProjectedQuantity: r.ProjectedQuantity,
				SellingPrice:      r.SellingPrice,
				ProjectedRevenue:  r.ProjectedRevenue,
				ConfidenceLower:   r.ConfidenceLower,
				ConfidenceUpper:   r.ConfidenceUpper,
			})
		}
	}

	scenario := out.Scenario
	if scenario == "" {
		scenario = req.Scenario.String()
	}
	return &ForecastResponse{
		ForecastData:      points,
		RevenueProjection: revenue,
		Summary:           out.Summary,
		ModelsUsed:        out.ModelsUsed,
		Confidence:        out.Confidence,
		Scenario:          scenario,
		Source:            enums.ForecastSourcePrimary,
	}, nil
}
