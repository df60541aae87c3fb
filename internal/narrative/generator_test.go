package narrative

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/packfinderz-forecast/pkg/enums"
	"github.com/angelmondragon/packfinderz-forecast/pkg/retry"
	"google.golang.org/genai"
)

type scriptedProvider struct {
	responses []error
	text      string
	calls     int
}

func (p *scriptedProvider) Generate(ctx context.Context, prompt string) (string, error) {
	p.calls++
	if p.calls <= len(p.responses) && p.responses[p.calls-1] != nil {
		return "", p.responses[p.calls-1]
	}
	return p.text, nil
}

type recordedOutcome struct {
	source   enums.NarrativeSource
	attempts int
}

type fakeRecorder struct {
	outcomes []recordedOutcome
}

func (r *fakeRecorder) ObserveNarrative(source enums.NarrativeSource, attempts int) {
	r.outcomes = append(r.outcomes, recordedOutcome{source: source, attempts: attempts})
}

func testPolicy(waits *[]time.Duration) retry.Policy {
	p := retry.Default(nil)
	p.Wait = func(ctx context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return ctx.Err()
	}
	return p
}

func sampleInput() Input {
	total := 300.0
	return Input{ProductID: "p-1", Days: 3, Scenario: enums.ScenarioRealistic, AverageDemand: 20, FirstValue: 19, LastValue: 21, TotalRevenue: &total, Confidence: 0.7}
}

func TestGenerateRetriesOverloadThenFallsBack(t *testing.T) {
	var waits []time.Duration
	overloaded := genai.APIError{Code: 503, Message: "overloaded"}
	provider := &scriptedProvider{responses: []error{overloaded, overloaded, overloaded}}
	rec := &fakeRecorder{}
	g := NewGenerator(GeneratorParams{Provider: provider, Policy: testPolicy(&waits), Recorder: rec})

	res := g.Generate(context.Background(), sampleInput())

	if provider.calls != 3 || res.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got calls=%d attempts=%d", provider.calls, res.Attempts)
	}
	if len(waits) != 2 || waits[0] != time.Second || waits[1] != 2*time.Second {
		t.Fatalf("expected waits [1s 2s], got %v", waits)
	}
	if res.Source != enums.NarrativeSourceTemplate || res.Class != ClassOverloaded {
		t.Fatalf("expected template fallback after overload, got %+v", res)
	}
	if res.Text != Template(sampleInput()) {
		t.Fatalf("expected template text, got %q", res.Text)
	}
	if len(rec.outcomes) != 1 || rec.outcomes[0].source != enums.NarrativeSourceTemplate {
		t.Fatalf("unexpected recorded outcomes %+v", rec.outcomes)
	}
}

func TestGenerateNonRetryableFallsBackAfterOneAttempt(t *testing.T) {
	for name, err := range map[string]error{
		"quota": genai.APIError{Code: 429, Message: "quota exceeded"},
		"auth":  genai.APIError{Code: 401},
	} {
		t.Run(name, func(t *testing.T) {
			var waits []time.Duration
			provider := &scriptedProvider{responses: []error{err}}
			g := NewGenerator(GeneratorParams{Provider: provider, Policy: testPolicy(&waits)})

			res := g.Generate(context.Background(), sampleInput())
			if provider.calls != 1 || res.Attempts != 1 {
				t.Fatalf("expected exactly 1 attempt, got %d", provider.calls)
			}
			if len(waits) != 0 {
				t.Fatalf("expected no backoff, got %v", waits)
			}
			if res.Source != enums.NarrativeSourceTemplate || res.Text == "" {
				t.Fatalf("expected template fallback, got %+v", res)
			}
		})
	}
}

func TestGenerateRecoversAfterTransientOverload(t *testing.T) {
	var waits []time.Duration
	provider := &scriptedProvider{responses: []error{errors.New("503 Service Unavailable")}, text: "Steady demand ahead."}
	g := NewGenerator(GeneratorParams{Provider: provider, Policy: testPolicy(&waits)})

	res := g.Generate(context.Background(), sampleInput())
	if res.Source != enums.NarrativeSourceProvider || res.Text != "Steady demand ahead." {
		t.Fatalf("expected provider text, got %+v", res)
	}
	if res.Attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", res.Attempts)
	}
}

func TestGenerateEmptyProviderTextUsesTemplate(t *testing.T) {
	provider := &scriptedProvider{text: "   "}
	g := NewGenerator(GeneratorParams{Provider: provider})

	res := g.Generate(context.Background(), sampleInput())
	if res.Source != enums.NarrativeSourceTemplate || res.Text == "" {
		t.Fatalf("expected template for empty response, got %+v", res)
	}
}

func TestGenerateWithoutProvider(t *testing.T) {
	g := NewGenerator(GeneratorParams{})
	res := g.Generate(context.Background(), sampleInput())
	if res.Source != enums.NarrativeSourceTemplate || res.Attempts != 0 {
		t.Fatalf("expected direct template, got %+v", res)
	}
}

func TestGenerateCancelledDuringBackoffStillReturnsText(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	provider := &scriptedProvider{responses: []error{genai.APIError{Code: 503}, genai.APIError{Code: 503}, genai.APIError{Code: 503}}}
	policy := retry.Default(nil)
	policy.Backoff = func(int) time.Duration { return time.Hour }
	g := NewGenerator(GeneratorParams{Provider: provider, Policy: policy})

	time.AfterFunc(20*time.Millisecond, cancel)
	start := time.Now()
	res := g.Generate(ctx, sampleInput())
	if time.Since(start) > 5*time.Second {
		t.Fatalf("backoff not aborted on cancel")
	}
	if provider.calls != 1 {
		t.Fatalf("expected one call before cancel, got %d", provider.calls)
	}
	if res.Text == "" || res.Source != enums.NarrativeSourceTemplate {
		t.Fatalf("expected template after cancel, got %+v", res)
	}
}

func TestTemplateVariesByScenario(t *testing.T) {
	in := sampleInput()
	realistic := Template(in)
	in.Scenario = enums.ScenarioOptimistic
	optimistic := Template(in)
	in.Scenario = enums.ScenarioPessimistic
	pessimistic := Template(in)

	if !strings.HasPrefix(optimistic, "In the optimistic scenario") || !strings.HasPrefix(pessimistic, "In the pessimistic scenario") {
		t.Fatalf("unexpected scenario leads: %q / %q", optimistic, pessimistic)
	}
	if realistic == optimistic || optimistic == pessimistic {
		t.Fatalf("templates should differ by scenario")
	}
	if !strings.Contains(realistic, "trending upward") || !strings.Contains(realistic, "300.00") {
		t.Fatalf("expected trend and revenue in %q", realistic)
	}
}

func TestTemplateWithoutRevenue(t *testing.T) {
	in := sampleInput()
	in.TotalRevenue = nil
	in.FirstValue, in.LastValue = 20, 20
	text := Template(in)
	if strings.Contains(text, "revenue") || !strings.Contains(text, "holding steady") {
		t.Fatalf("unexpected template %q", text)
	}
}
