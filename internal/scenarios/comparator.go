// Package scenarios compares forecasts for the same product across demand
// scenarios and keeps the results in a session so a comparison can grow over
// several calls.
package scenarios

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"slices"
	"time"

	"github.com/angelmondragon/packfinderz-forecast/internal/forecast"
	"github.com/angelmondragon/packfinderz-forecast/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-forecast/pkg/errors"
	"github.com/angelmondragon/packfinderz-forecast/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

const (
	defaultMaxConcurrency = 3
	defaultTimeout        = 30 * time.Second
)

// Forecaster runs the single-scenario pipeline. forecast.Service satisfies it.
type Forecaster interface {
	Forecast(ctx context.Context, ownerID uuid.UUID, req forecast.ForecastRequest) (*forecast.ForecastResponse, error)
}

type Recorder interface {
	ObserveScenario(scenario enums.Scenario, ok bool)
}

type ComparatorParams struct {
	Forecaster     Forecaster
	Store          SessionStore
	Recorder       Recorder
	Logger         *logger.Logger
	MaxConcurrency int
	Timeout        time.Duration
}

type Comparator struct {
	forecaster Forecaster
	store      SessionStore
	recorder   Recorder
	logg       *logger.Logger
	limit      int
	timeout    time.Duration
}

func NewComparator(params ComparatorParams) (*Comparator, error) {
	if params.Forecaster == nil {
		return nil, errors.New("forecaster required")
	}
	store := params.Store
	if store == nil {
		store = NewMemorySessionStore()
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	limit := params.MaxConcurrency
	if limit <= 0 {
		limit = defaultMaxConcurrency
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Comparator{
		forecaster: params.Forecaster,
		store:      store,
		recorder:   params.Recorder,
		logg:       logg,
		limit:      limit,
		timeout:    timeout,
	}, nil
}

type outcome struct {
	scenario enums.Scenario
	result   *ScenarioResult
	err      error
}

// Compare computes every requested scenario not already stored in the session
// and returns the whole session with its metrics and insights. An empty
// sessionID starts a new session. Scenarios that fail are listed in Failed;
// Compare itself only errors when the session ends up with no results.
func (c *Comparator) Compare(ctx context.Context, sessionID string, base forecast.ForecastRequest, ownerID uuid.UUID, requested []enums.Scenario) (*Comparison, error) {
	wanted, err := normalizeScenarios(requested)
	if err != nil {
		return nil, err
	}
	base = base.WithScenario("")
	if err := forecast.ValidateRequest(base); err != nil {
		return nil, err
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	ctx = c.logg.WithField(ctx, "session_id", sessionID)

	fingerprint, err := fingerprintOf(base)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "fingerprint scenario request")
	}
	session, err := c.store.Load(ctx, ownerID, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.Fingerprint != fingerprint {
		if session != nil {
			// stale results must not outlive a reset whose scenarios all fail
			if err := c.store.Delete(ctx, ownerID, sessionID); err != nil {
				return nil, err
			}
			c.logg.Info(ctx, "scenarios.session_reset")
		}
		session = &Session{Fingerprint: fingerprint}
	}

	var pending []enums.Scenario
	for _, s := range wanted {
		if !session.has(s) {
			pending = append(pending, s)
		}
	}

	outcomes := c.fanOut(ctx, base, ownerID, pending)

	var (
		failed []FailedScenario
		errs   error
	)
	for _, o := range outcomes {
		if o.err != nil {
			errs = multierr.Append(errs, o.err)
			failed = append(failed, FailedScenario{
				ScenarioID: o.scenario,
				Code:       string(pkgerrors.CodeOf(o.err)),
				Message:    failureMessage(o.err),
			})
			continue
		}
		session.Results = append(session.Results, *o.result)
	}
	if errs != nil {
		c.logg.WarnErr(ctx, "scenarios.partial_failure", errs)
	}
	if len(session.Results) == 0 {
		return nil, firstError(errs)
	}
	sortResults(session.Results)

	if len(pending) > len(failed) {
		if err := c.store.Save(ctx, ownerID, sessionID, session); err != nil {
			return nil, err
		}
	}

	comparison := &Comparison{
		SessionID: sessionID,
		Results:   session.Results,
		Metrics:   make([]ScenarioMetrics, 0, len(session.Results)),
		Failed:    failed,
	}
	for _, r := range session.Results {
		comparison.Metrics = append(comparison.Metrics, metricsFor(r))
	}
	comparison.Insights = deriveInsights(comparison.Metrics)
	return comparison, nil
}

// fanOut runs one pipeline per scenario with bounded concurrency. Each call
// gets its own timeout and a failure never cancels its siblings.
func (c *Comparator) fanOut(ctx context.Context, base forecast.ForecastRequest, ownerID uuid.UUID, scenarios []enums.Scenario) []outcome {
	out := make([]outcome, len(scenarios))
	var g errgroup.Group
	g.SetLimit(c.limit)
	for i, scenario := range scenarios {
		g.Go(func() error {
			res, err := c.computeOne(ctx, base.WithScenario(scenario), ownerID)
			out[i] = outcome{scenario: scenario, result: res, err: err}
			if c.recorder != nil {
				c.recorder.ObserveScenario(scenario, err == nil)
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (c *Comparator) computeOne(ctx context.Context, req forecast.ForecastRequest, ownerID uuid.UUID) (*ScenarioResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.forecaster.Forecast(ctx, ownerID, req)
	if err != nil {
		return nil, err
	}
	result := &ScenarioResult{
		ScenarioID:     req.Scenario,
		ForecastPoints: resp.ForecastData,
		RevenuePoints:  resp.RevenueProjection,
		Summary:        resp.Summary,
		ModelsUsed:     resp.ModelsUsed,
	}
	if resp.Confidence != nil {
		result.Confidence = *resp.Confidence
	}
	return result, nil
}

// normalizeScenarios validates ids and collapses repeats. An empty list asks
// for every scenario.
func normalizeScenarios(requested []enums.Scenario) ([]enums.Scenario, error) {
	if len(requested) == 0 {
		return enums.Scenarios(), nil
	}
	seen := make(map[enums.Scenario]struct{}, len(requested))
	out := make([]enums.Scenario, 0, len(requested))
	for _, s := range requested {
		if !s.IsValid() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown scenario %q", s).
				WithDetails(map[string]string{"scenarios": "must be optimistic, pessimistic or realistic"})
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out, nil
}

func fingerprintOf(base forecast.ForecastRequest) (string, error) {
	payload, err := json.Marshal(base)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:8]), nil
}

func sortResults(results []ScenarioResult) {
	order := enums.Scenarios()
	slices.SortStableFunc(results, func(a, b ScenarioResult) int {
		return slices.Index(order, a.ScenarioID) - slices.Index(order, b.ScenarioID)
	})
}

func failureMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Message()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "scenario timed out"
	}
	return "scenario failed"
}

// firstError keeps the code of the first failure so a comparison whose
// scenarios all failed maps to the same status a single forecast would.
func firstError(errs error) error {
	all := multierr.Errors(errs)
	if len(all) == 0 {
		return pkgerrors.New(pkgerrors.CodeInternal, "no scenario results")
	}
	if typed := pkgerrors.As(all[0]); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, errs, "compare scenarios")
}
