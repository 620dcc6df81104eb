// Package behavior implements the Method-Behavior Registry (C5): per-method
// summaries ("yields") replayed at call sites instead of re-exploring the
// callee, plus the default behavior assumed for methods the registry knows
// nothing about.
package behavior

import (
	"github.com/cwbudde/go-dws/internal/engine/cfgmodel"
	"github.com/cwbudde/go-dws/internal/engine/constraint"
	"github.com/cwbudde/go-dws/internal/engine/constraintmgr"
	"github.com/cwbudde/go-dws/internal/engine/pstate"
	"github.com/cwbudde/go-dws/internal/engine/sv"
)

// Yield summarizes one completed exploration path of a method: the
// constraints its parameters carried on that path, the constraint its
// return value carried, and whether fields may have been mutated.
type Yield struct {
	ParamConstraints []constraint.Set // indexed like Behavior.Params
	ReturnConstraint constraint.Set
	HasReturnValue   bool
	MutatesFields    bool
}

// ExceptionYield records that a completed path exited this method via an
// uncaught exception of the given kind, letting a caller's excwalker
// compose the callee's throw behavior without re-exploring its body
// (DESIGN.md, C5).
type ExceptionYield struct {
	ExceptionKind string
}

// Behavior is the set of yields collected for one method, plus the
// interface metadata the walker needs to know how to finish a path
// (spec.md §3, "Method Behavior").
type Behavior struct {
	Params          []*cfgmodel.Symbol
	Yields          []*Yield
	ExceptionYields []ExceptionYield
	IsConstructor   bool
	IsVoidMethod    bool
}

// InterfaceSymbols returns the parameter symbols that cleanup_dead_symbols
// must never drop (spec.md §4.7, "Cleanup-on-exit").
func (b *Behavior) InterfaceSymbols() map[*cfgmodel.Symbol]bool {
	out := make(map[*cfgmodel.Symbol]bool, len(b.Params))
	for _, p := range b.Params {
		out[p] = true
	}
	return out
}

// AddYield records one completed path's summary.
func (b *Behavior) AddYield(y *Yield) {
	b.Yields = append(b.Yields, y)
}

// AddExceptionYield records one completed path's uncaught-exception exit.
func (b *Behavior) AddExceptionYield(y ExceptionYield) {
	b.ExceptionYields = append(b.ExceptionYields, y)
}

// Registry maps method symbols to their behaviors. It is populated
// incrementally as the walker finishes analysing each method; callees
// analysed later in the pass simply get the default unknown-method
// behavior when called from an earlier method (spec.md §5: the registry
// only needs to "return something usable even if in progress").
type Registry struct {
	behaviors map[*cfgmodel.MethodSymbol]*Behavior
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{behaviors: make(map[*cfgmodel.MethodSymbol]*Behavior)}
}

// Get returns the behavior recorded for method, if any.
func (r *Registry) Get(method *cfgmodel.MethodSymbol) (*Behavior, bool) {
	b, ok := r.behaviors[method]
	return b, ok
}

// Put records (or replaces) the behavior for method.
func (r *Registry) Put(method *cfgmodel.MethodSymbol, b *Behavior) {
	r.behaviors[method] = b
}

// GetOrCreate returns the in-progress behavior for method, creating an
// empty one (with params/flags filled in) on first use.
func (r *Registry) GetOrCreate(method *cfgmodel.MethodSymbol) *Behavior {
	if b, ok := r.behaviors[method]; ok {
		return b
	}
	b := &Behavior{
		Params:        method.Params,
		IsConstructor: method.IsConstructor,
		IsVoidMethod:  method.IsVoid,
	}
	r.behaviors[method] = b
	return b
}

// DefaultResult stacks a fresh SV as an unknown method's return value,
// applying the method's non-null annotation if any, and havocking fields
// for heap-escaping sentinels like Object.wait (spec.md §4.5).
func DefaultResult(cm *constraintmgr.ConstraintManager, state *pstate.State, method *cfgmodel.MethodSymbol, tree *cfgmodel.Element) (*pstate.State, *sv.SV) {
	result := cm.CreateSymbolicValue(tree, sv.KindCall)
	next := state
	if method.ReturnsNonnull {
		if n := cm.SetSingleConstraint(next, result, constraint.NotNullConstraint("method annotation")); n != nil {
			next = n
		}
	}
	if method.HeapEscaping {
		next = next.ResetFieldValues(cmFactory(cm))
	}
	return next, result
}

// cmFactory is a small indirection so behavior doesn't need its own SV
// factory: ResetFieldValues needs a *sv.Factory, and the only one that
// exists for this method analysis lives inside the ConstraintManager.
func cmFactory(cm *constraintmgr.ConstraintManager) *sv.Factory {
	return cm.Factory()
}

// ReplayYield applies one yield of method's behavior at a call site:
// unify each yield parameter constraint with the caller's current SV for
// that argument (intersecting via the domain meet; incompatible yields
// are discarded), then apply the yield's return constraint to resultSV.
// Returns ok=false if the yield is incompatible with the caller's current
// state (spec.md §4.5).
func ReplayYield(cm *constraintmgr.ConstraintManager, state *pstate.State, y *Yield, args []*sv.SV, resultSV *sv.SV) (*pstate.State, bool) {
	next := state
	for i, argSV := range args {
		if i >= len(y.ParamConstraints) {
			break
		}
		paramSet := y.ParamConstraints[i]
		ok := true
		paramSet.RangeKinds(func(kind constraint.Kind, c constraint.Constraint) bool {
			n, applied := next.AddConstraint(cm.Registry(), argSV, c)
			if !applied {
				ok = false
				return false
			}
			next = n
			return true
		})
		if !ok {
			return nil, false
		}
	}
	if y.HasReturnValue && resultSV != nil {
		ok := true
		y.ReturnConstraint.RangeKinds(func(kind constraint.Kind, c constraint.Constraint) bool {
			n, applied := next.AddConstraint(cm.Registry(), resultSV, c)
			if !applied {
				ok = false
				return false
			}
			next = n
			return true
		})
		if !ok {
			return nil, false
		}
	}
	if y.MutatesFields {
		next = next.ResetFieldValues(cmFactory(cm))
	}
	return next, true
}
