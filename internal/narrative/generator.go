// Package narrative produces the human-readable forecast summary. It calls
// an external text provider under a retry policy and falls back to a local
// template, so it never fails a forecast.
package narrative

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/packfinderz-forecast/pkg/enums"
	"github.com/angelmondragon/packfinderz-forecast/pkg/logger"
	"github.com/angelmondragon/packfinderz-forecast/pkg/retry"
)

// TextProvider turns a prompt into free-form text.
type TextProvider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Recorder receives narrative outcomes. pkg/metrics implements it.
type Recorder interface {
	ObserveNarrative(source enums.NarrativeSource, attempts int)
}

// Input is the forecast summary the narrative is written from.
type Input struct {
	ProductID     string
	Days          int
	Scenario      enums.Scenario
	AverageDemand float64
	FirstValue    float64
	LastValue     float64
	TotalRevenue  *float64
	Confidence    float64
}

type Result struct {
	Text     string
	Source   enums.NarrativeSource
	Attempts int
	// Class is the classification of the last provider error, if any.
	Class Class
}

type Generator struct {
	provider TextProvider
	policy   retry.Policy
	logg     *logger.Logger
	recorder Recorder
}

type GeneratorParams struct {
	// Provider may be nil, in which case every call uses the template.
	Provider TextProvider
	// Policy defaults to three attempts with 1s/2s/4s backoff. Retryable is
	// always forced to overload-only.
	Policy   retry.Policy
	Logger   *logger.Logger
	Recorder Recorder
}

func NewGenerator(params GeneratorParams) *Generator {
	policy := params.Policy
	if policy.MaxAttempts <= 0 {
		policy = retry.Default(nil)
	}
	policy.Retryable = Retryable

	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Generator{
		provider: params.Provider,
		policy:   policy,
		logg:     logg,
		recorder: params.Recorder,
	}
}

// Generate always returns a non-empty summary.
func (g *Generator) Generate(ctx context.Context, in Input) Result {
	if g.provider == nil {
		return g.finish(Result{Text: Template(in), Source: enums.NarrativeSourceTemplate})
	}

	prompt := buildPrompt(in)
	var text string
	attempts, err := g.policy.Do(ctx, func(ctx context.Context) error {
		out, err := g.provider.Generate(ctx, prompt)
		if err != nil {
			return err
		}
		text = strings.TrimSpace(out)
		return nil
	})

	if err == nil && text != "" {
		return g.finish(Result{Text: text, Source: enums.NarrativeSourceProvider, Attempts: attempts})
	}

	class := Classify(err)
	logCtx := g.logg.WithFields(ctx, map[string]any{
		"narrative_attempts": attempts,
		"narrative_class":    string(class),
	})
	if err != nil {
		g.logg.WarnErr(logCtx, "narrative.fallback", err)
	} else {
		g.logg.Warn(logCtx, "narrative.empty_response")
	}
	return g.finish(Result{Text: Template(in), Source: enums.NarrativeSourceTemplate, Attempts: attempts, Class: class})
}

func (g *Generator) finish(res Result) Result {
	if g.recorder != nil {
		g.recorder.ObserveNarrative(res.Source, res.Attempts)
	}
	return res
}

func buildPrompt(in Input) string {
	scenario := in.Scenario
	if scenario == "" {
		scenario = enums.ScenarioRealistic
	}
	var b strings.Builder
	b.WriteString("Write a two-sentence demand outlook for a wholesale product listing.\n")
	fmt.Fprintf(&b, "Scenario: %s\n", scenario)
	fmt.Fprintf(&b, "Horizon: %d days\n", in.Days)
	fmt.Fprintf(&b, "Average forecast demand: %.2f units/day\n", in.AverageDemand)
	fmt.Fprintf(&b, "First day: %.2f, last day: %.2f\n", in.FirstValue, in.LastValue)
	fmt.Fprintf(&b, "Model confidence: %.0f%%\n", in.Confidence*100)
	if in.TotalRevenue != nil {
		fmt.Fprintf(&b, "Projected revenue: %.2f\n", *in.TotalRevenue)
	}
	b.WriteString("Do not invent numbers beyond those given.")
	return b.String()
}
