package enums

import "testing"

func TestParseScenario(t *testing.T) {
	got, err := ParseScenario(" Optimistic ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != ScenarioOptimistic {
		t.Fatalf("expected optimistic, got %s", got)
	}
	if _, err := ParseScenario("bullish"); err == nil {
		t.Fatalf("expected error for unknown scenario")
	}
}

func TestScenarioDemandMultiplier(t *testing.T) {
	cases := map[Scenario]float64{
		ScenarioOptimistic:  1.2,
		ScenarioPessimistic: 0.8,
		ScenarioRealistic:   1.0,
		"":                  1.0,
	}
	for scenario, want := range cases {
		if got := scenario.DemandMultiplier(); got != want {
			t.Fatalf("scenario %q expected %v got %v", scenario, want, got)
		}
	}
}

func TestScenariosReturnsCopy(t *testing.T) {
	all := Scenarios()
	all[0] = "mutated"
	if Scenarios()[0] != ScenarioOptimistic {
		t.Fatalf("Scenarios must not expose internal slice")
	}
}
