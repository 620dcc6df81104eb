// Package engine wires the eight components together into one analysis
// pass over a set of methods: a shared issue sink and method-behavior
// registry persist across the whole pass (spec.md §5), while each
// method's constraint-kind registry, checker dispatcher, and walker are
// created fresh, as walker.New's doc comment describes.
package engine

import (
	"github.com/cwbudde/go-dws/internal/engine/behavior"
	"github.com/cwbudde/go-dws/internal/engine/cfgmodel"
	"github.com/cwbudde/go-dws/internal/engine/checker"
	"github.com/cwbudde/go-dws/internal/engine/config"
	"github.com/cwbudde/go-dws/internal/engine/constraint"
	"github.com/cwbudde/go-dws/internal/engine/issue"
	"github.com/cwbudde/go-dws/internal/engine/walker"
)

// Analysis accumulates issues and method behaviors across every method
// analyzed in one pass.
type Analysis struct {
	Sink      *issue.Sink
	Behaviors *behavior.Registry
}

// New starts an empty Analysis.
func New() *Analysis {
	return &Analysis{Sink: issue.NewSink(), Behaviors: behavior.NewRegistry()}
}

// AnalyzeMethod explores one method's CFG to a fixed point, feeding any
// findings into a.Sink and any completed-path summaries into
// a.Behaviors for later callers to replay. extra are user-supplied
// checkers run after the five mandatory ones (spec.md §4.6).
func (a *Analysis) AnalyzeMethod(cfg *cfgmodel.CFG, method *cfgmodel.MethodSymbol, oracle cfgmodel.SymbolOracle, bounds config.Bounds, extra ...checker.Checker) {
	registry := constraint.NewRegistry()
	dispatcher := checker.NewDispatcher(extra...)
	w := walker.New(cfg, method, oracle, bounds, registry, dispatcher, a.Sink, a.Behaviors)
	w.Run()
}
