// Package constraintmgr implements the Constraint Manager (C4): symbolic
// value creation and assumeDual, the state-splitting primitive that turns
// one state into a false-branch set and a true-branch set. Splitting lives
// here rather than in the walker so checker-registered constraint kinds
// (lock-held, resource-open, ...) can be branched on too, using the exact
// same machinery as nullness and boolean (spec.md §4.4, Rationale).
package constraintmgr

import (
	"github.com/cwbudde/go-dws/internal/engine/cfgmodel"
	"github.com/cwbudde/go-dws/internal/engine/constraint"
	"github.com/cwbudde/go-dws/internal/engine/pstate"
	"github.com/cwbudde/go-dws/internal/engine/sv"
)

// ConstraintManager owns the SV factory and the constraint-kind registry
// for one method analysis. It is created fresh per walker.New call and
// discarded at the end (spec.md §5: no shared resources across methods).
type ConstraintManager struct {
	factory  *sv.Factory
	registry *constraint.Registry
}

// New creates a ConstraintManager backed by registry (which the checker
// dispatcher may already have registered private constraint kinds on).
func New(registry *constraint.Registry) *ConstraintManager {
	return &ConstraintManager{factory: sv.NewFactory(), registry: registry}
}

// Registry exposes the constraint-kind registry so checkers can register
// private kinds and the walker can reuse it for add_constraint.
func (cm *ConstraintManager) Registry() *constraint.Registry {
	return cm.registry
}

// Factory exposes the SV factory so other components (e.g. package
// behavior's ResetFieldValues on yield replay) can mint fresh SVs without
// each owning a separate counter.
func (cm *ConstraintManager) Factory() *sv.Factory {
	return cm.factory
}

// CreateSymbolicValue mints a fresh SV of the given kind for tree. kind
// and operands (recorded as computed-from provenance) let the caller
// pre-wire the handful of syntactic kinds assumeDual treats specially
// (`==`, `!=`, `!`); pass no operands for anything else.
func (cm *ConstraintManager) CreateSymbolicValue(tree *cfgmodel.Element, kind sv.Kind, operands ...*sv.SV) *sv.SV {
	value := cm.factory.Fresh(kind, tree)
	if len(operands) > 0 {
		sv.ComputedFrom(value, operands...)
	}
	return value
}

// CreateSymbolicExceptionValue mints a dedicated exception SV carrying the
// thrown type; the walker recognizes it on top-of-stack to start
// exceptional propagation (package excwalker).
func (cm *ConstraintManager) CreateSymbolicExceptionValue(exceptionKind string) *sv.SV {
	value := cm.factory.Fresh(sv.KindException, nil)
	value.ExceptionKind = exceptionKind
	return value
}

// SetSingleConstraint applies c to value with no branching — used when the
// caller already knows no alternative is possible (e.g. "new object is
// NOT_NULL"). Returns nil if the assertion is infeasible.
func (cm *ConstraintManager) SetSingleConstraint(state *pstate.State, value *sv.SV, c constraint.Constraint) *pstate.State {
	next, ok := state.AddConstraint(cm.registry, value, c)
	if !ok {
		return nil
	}
	return next
}

// SetConstraint is the branching hook (spec.md §4.1): for a plain SV it
// behaves like SetSingleConstraint and returns at most one state. For a
// relational SV built from `==`/`!=` (or a `!` over one) it additionally
// propagates the implication onto the SV's operands, which may refine an
// operand's nullness or make the assertion infeasible, depending on what
// is already known about the operands. It never returns more than one
// state per call, matching AddConstraint's "zero or one" result; the
// two-sided branching described in spec.md is assumeDual below, which
// calls SetConstraint once per side.
func (cm *ConstraintManager) SetConstraint(state *pstate.State, value *sv.SV, c constraint.Constraint) []*pstate.State {
	next := cm.SetSingleConstraint(state, value, c)
	if next == nil {
		return nil
	}
	next = cm.propagateRelational(next, value, c)
	if next == nil {
		return nil
	}
	return []*pstate.State{next}
}

// propagateRelational infers constraints on a relational SV's operands
// once the relational SV itself is known true or false. It recurses
// through `!` so that e.g. asserting `!(a == a)` true propagates down to
// `a == a` false, which is infeasible (spec.md scenario 5: "Equals on
// self").
func (cm *ConstraintManager) propagateRelational(state *pstate.State, value *sv.SV, c constraint.Constraint) *pstate.State {
	boolVal, ok := c.Boolean()
	if !ok {
		return state
	}

	if value.Kind == sv.KindNot && len(value.Operands) == 1 {
		inverted := constraint.FalseConstraint()
		if boolVal == constraint.False {
			inverted = constraint.TrueConstraint()
		}
		next := cm.SetConstraint(state, value.Operands[0], inverted)
		if len(next) == 0 {
			return nil
		}
		return next[0]
	}

	if value.Kind != sv.KindEqual && value.Kind != sv.KindNotEqual {
		return state
	}
	if len(value.Operands) != 2 {
		return state
	}
	equalAsserted := (value.Kind == sv.KindEqual) == (boolVal == constraint.True)

	left, right := value.Operands[0], value.Operands[1]
	if left == right {
		// `a == a`: always true regardless of a's nullness.
		if !equalAsserted {
			return nil
		}
		return state
	}

	leftNull, leftHas := state.Constraints(left).Get(constraint.KindNullness)
	rightNull, rightHas := state.Constraints(right).Get(constraint.KindNullness)

	if equalAsserted {
		// a == b: if one side's nullness is known, propagate it to the other.
		if leftHas {
			if s := cm.SetSingleConstraint(state, right, leftNull); s != nil {
				state = s
			} else {
				return nil
			}
		} else if rightHas {
			if s := cm.SetSingleConstraint(state, left, rightNull); s != nil {
				state = s
			} else {
				return nil
			}
		}
		return state
	}

	// a != b: if both sides are known and agree, the inequality is
	// infeasible.
	if leftHas && rightHas && leftNull == rightNull {
		return nil
	}
	return state
}

// AssumeDual asserts the top-of-stack SV (the condition) true in one
// branch and false in the other, popping the operand in both. Either
// returned slice may be empty if that branch is infeasible (spec.md
// §4.4). Both branches are evaluated from the same input state — the
// core branching primitive the walker's `if`/`&&`/`||`/`?:`/loop handling
// all funnel through.
func (cm *ConstraintManager) AssumeDual(state *pstate.State) (falseStates, trueStates []*pstate.State) {
	popped, values, ok := state.Unstack(1)
	if !ok {
		return nil, nil
	}
	condition := values[0]

	if condition == sv.TRUE {
		return nil, []*pstate.State{popped}
	}
	if condition == sv.FALSE {
		return []*pstate.State{popped}, nil
	}

	if falseState := cm.SetConstraint(popped, condition, constraint.FalseConstraint()); falseState != nil {
		falseStates = falseState
	}
	if trueState := cm.SetConstraint(popped, condition, constraint.TrueConstraint()); trueState != nil {
		trueStates = trueState
	}
	return falseStates, trueStates
}
