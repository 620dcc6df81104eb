// Package scenarios builds small, hand-assembled CFGs exercising each of
// the mandatory checkers (SPEC_FULL.md §8) without a real front end — the
// same role cfgmodel.Builder's doc comment describes for tests and the
// built-in scenarios cmd/seexplore selects by name.
package scenarios

import "github.com/cwbudde/go-dws/internal/engine/cfgmodel"

// Oracle is a map-backed cfgmodel.SymbolOracle for scenario fixtures.
type Oracle struct {
	annotations map[*cfgmodel.Symbol]map[cfgmodel.Annotation]bool
}

// NewOracle creates an empty Oracle.
func NewOracle() *Oracle {
	return &Oracle{annotations: make(map[*cfgmodel.Symbol]map[cfgmodel.Annotation]bool)}
}

// Annotate records that s carries annotation a.
func (o *Oracle) Annotate(s *cfgmodel.Symbol, a cfgmodel.Annotation) {
	if o.annotations[s] == nil {
		o.annotations[s] = make(map[cfgmodel.Annotation]bool)
	}
	o.annotations[s][a] = true
}

// SymbolOf returns e's own symbol — fixture elements are pre-resolved by
// the builder, so there is nothing further to look up.
func (o *Oracle) SymbolOf(e *cfgmodel.Element) *cfgmodel.Symbol {
	return e.Sym
}

// HasAnnotation reports whether s carries annotation a.
func (o *Oracle) HasAnnotation(s *cfgmodel.Symbol, a cfgmodel.Annotation) bool {
	return o.annotations[s] != nil && o.annotations[s][a]
}
