// Package config makes the engine's four bounds (spec.md §6) and its
// checker pipeline order injectable, as that section allows. Defaults
// match the compile-time constants spec.md names; a caller may override
// them from a YAML or JSON document.
package config

import (
	"github.com/goccy/go-yaml"
	"github.com/tidwall/gjson"
)

// Bounds holds the engine's four configurable limits.
type Bounds struct {
	// MaxSteps bounds the total number of interpreted elements per
	// method (B-I1).
	MaxSteps int `yaml:"maxSteps"`
	// MaxExecProgramPoint bounds how many distinct states may visit any
	// one program point along a single path (B-I2).
	MaxExecProgramPoint int `yaml:"maxExecProgramPoint"`
	// MaxNestedBooleanStates bounds how many branch splits one path may
	// pass through (B-I4, checked by the walker's branch handling).
	MaxNestedBooleanStates int `yaml:"maxNestedBooleanStates"`
	// ConstraintsSizeThreshold is the constraints_size() ceiling checked
	// alongside steps+worklist length (B-I3).
	ConstraintsSizeThreshold int `yaml:"constraintsSizeThreshold"`
}

// Defaults returns the bounds spec.md §6 names as compile-time constants.
func Defaults() Bounds {
	return Bounds{
		MaxSteps:                 10000,
		MaxExecProgramPoint:      2,
		MaxNestedBooleanStates:   10000,
		ConstraintsSizeThreshold: 75,
	}
}

// Config is the full injectable configuration: bounds plus the ordering of
// user-supplied checkers that run after the mandatory pipeline (spec.md
// §4.6 — "user-supplied" checkers run after the fixed mandatory order).
type Config struct {
	Bounds          Bounds   `yaml:"bounds"`
	UserCheckerTail []string `yaml:"userCheckers"`
}

// Default returns a Config with default bounds and no extra checkers.
func Default() Config {
	return Config{Bounds: Defaults()}
}

// LoadYAML parses a YAML config document, starting from Default() so any
// field the document omits keeps its default value.
func LoadYAML(doc []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(doc, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadJSON parses a JSON config document using gjson, the same library
// package issue uses on the output side — picking bound overrides off the
// document by path rather than unmarshaling into a mirror struct, since
// the document may carry extra fields the engine doesn't know about (e.g.
// a checker's own private settings) that we want to leave untouched.
func LoadJSON(doc string) Config {
	cfg := Default()
	if v := gjson.Get(doc, "bounds.maxSteps"); v.Exists() {
		cfg.Bounds.MaxSteps = int(v.Int())
	}
	if v := gjson.Get(doc, "bounds.maxExecProgramPoint"); v.Exists() {
		cfg.Bounds.MaxExecProgramPoint = int(v.Int())
	}
	if v := gjson.Get(doc, "bounds.maxNestedBooleanStates"); v.Exists() {
		cfg.Bounds.MaxNestedBooleanStates = int(v.Int())
	}
	if v := gjson.Get(doc, "bounds.constraintsSizeThreshold"); v.Exists() {
		cfg.Bounds.ConstraintsSizeThreshold = int(v.Int())
	}
	if v := gjson.Get(doc, "userCheckers"); v.Exists() {
		for _, item := range v.Array() {
			cfg.UserCheckerTail = append(cfg.UserCheckerTail, item.String())
		}
	}
	return cfg
}
