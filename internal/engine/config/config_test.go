package config

import "testing"

func TestDefaults(t *testing.T) {
	b := Defaults()
	if b.MaxSteps <= 0 || b.MaxExecProgramPoint <= 0 || b.MaxNestedBooleanStates <= 0 || b.ConstraintsSizeThreshold <= 0 {
		t.Errorf("expected every default bound to be positive, got %+v", b)
	}
}

func TestLoadYAML_OverridesOnlyPresentFields(t *testing.T) {
	doc := []byte("bounds:\n  maxSteps: 42\n")
	cfg, err := LoadYAML(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Bounds.MaxSteps != 42 {
		t.Errorf("got MaxSteps=%d, want 42", cfg.Bounds.MaxSteps)
	}
	if cfg.Bounds.MaxExecProgramPoint != Defaults().MaxExecProgramPoint {
		t.Error("expected an omitted field to keep its default value")
	}
}

func TestLoadYAML_UserCheckerTail(t *testing.T) {
	doc := []byte("userCheckers:\n  - myCustomChecker\n")
	cfg, err := LoadYAML(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.UserCheckerTail) != 1 || cfg.UserCheckerTail[0] != "myCustomChecker" {
		t.Errorf("got %v", cfg.UserCheckerTail)
	}
}

func TestLoadJSON_OverridesOnlyPresentFields(t *testing.T) {
	doc := `{"bounds":{"maxSteps":7}}`
	cfg := LoadJSON(doc)
	if cfg.Bounds.MaxSteps != 7 {
		t.Errorf("got MaxSteps=%d, want 7", cfg.Bounds.MaxSteps)
	}
	if cfg.Bounds.ConstraintsSizeThreshold != Defaults().ConstraintsSizeThreshold {
		t.Error("expected an omitted field to keep its default value")
	}
}

func TestLoadJSON_UserCheckers(t *testing.T) {
	doc := `{"userCheckers":["a","b"]}`
	cfg := LoadJSON(doc)
	if len(cfg.UserCheckerTail) != 2 || cfg.UserCheckerTail[0] != "a" || cfg.UserCheckerTail[1] != "b" {
		t.Errorf("got %v", cfg.UserCheckerTail)
	}
}
