package cmd

import (
	"testing"

	"github.com/cwbudde/go-dws/internal/engine"
	"github.com/cwbudde/go-dws/internal/engine/config"
	"github.com/cwbudde/go-dws/internal/engine/scenarios"
	"github.com/gkampitakis/go-snaps/snaps"
)

func TestSelectScenarios_NoNamesReturnsAll(t *testing.T) {
	got := selectScenarios(nil)
	if len(got) != len(scenarios.All()) {
		t.Errorf("got %d scenarios, want %d", len(got), len(scenarios.All()))
	}
}

func TestSelectScenarios_FiltersByName(t *testing.T) {
	got := selectScenarios([]string{"nullDereference"})
	if len(got) != 1 || got[0].Name != "nullDereference" {
		t.Errorf("got %v, want exactly the nullDereference scenario", got)
	}
}

func TestSelectScenarios_UnknownNameYieldsNothing(t *testing.T) {
	got := selectScenarios([]string{"notAScenario"})
	if len(got) != 0 {
		t.Errorf("got %v, want no scenarios for an unknown name", got)
	}
}

func TestLoadBounds_DefaultsWithNoConfigFlag(t *testing.T) {
	configPath = ""
	got, err := loadBounds()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != config.Defaults() {
		t.Errorf("expected loadBounds with no --config to return config.Defaults()")
	}
}

// TestRun_IssueOutput snapshots the JSON issue output of every built-in
// scenario run together, the same way the engine's own test suite fixtures
// are pinned (internal/interp/fixture_test.go in the wider codebase).
func TestRun_IssueOutput(t *testing.T) {
	analysis := engine.New()
	for _, s := range scenarios.All() {
		analysis.AnalyzeMethod(s.CFG, s.Method, s.Oracle, config.Defaults())
	}

	doc, err := analysis.Sink.JSON()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snaps.MatchSnapshot(t, "all_scenarios_issues", doc)
}
