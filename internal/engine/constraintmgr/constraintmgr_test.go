package constraintmgr

import (
	"testing"

	"github.com/cwbudde/go-dws/internal/engine/cfgmodel"
	"github.com/cwbudde/go-dws/internal/engine/constraint"
	"github.com/cwbudde/go-dws/internal/engine/pstate"
	"github.com/cwbudde/go-dws/internal/engine/sv"
)

func newCM() *ConstraintManager {
	return New(constraint.NewRegistry())
}

func TestAssumeDual_SingletonShortCircuits(t *testing.T) {
	cm := newCM()
	state := pstate.New().StackValue(sv.TRUE)
	falseStates, trueStates := cm.AssumeDual(state)
	if len(falseStates) != 0 {
		t.Error("expected no false branch for a condition already known TRUE")
	}
	if len(trueStates) != 1 {
		t.Error("expected exactly one true branch for a condition already known TRUE")
	}
}

func TestAssumeDual_UnconstrainedSplitsBothWays(t *testing.T) {
	cm := newCM()
	tree := &cfgmodel.Element{}
	cond := cm.CreateSymbolicValue(tree, sv.KindOpaque)
	state := pstate.New().StackValue(cond)

	falseStates, trueStates := cm.AssumeDual(state)
	if len(falseStates) != 1 || len(trueStates) != 1 {
		t.Fatalf("expected both branches feasible for an unconstrained condition, got false=%d true=%d", len(falseStates), len(trueStates))
	}
}

// a == a: asserting it true is always satisfiable; asserting it false is
// never satisfiable, regardless of a's own nullness.
func TestAssumeDual_EqualsOnSelf(t *testing.T) {
	cm := newCM()
	tree := &cfgmodel.Element{}
	a := cm.CreateSymbolicValue(tree, sv.KindOpaque)
	eq := cm.CreateSymbolicValue(tree, sv.KindEqual, a, a)

	state := pstate.New().StackValue(eq)
	falseStates, trueStates := cm.AssumeDual(state)
	if len(falseStates) != 0 {
		t.Error("expected a == a asserted false to be infeasible")
	}
	if len(trueStates) != 1 {
		t.Error("expected a == a asserted true to be feasible")
	}
}

// !(a == a): the negation's true branch propagates "a == a is false",
// which is infeasible — so the condition is always false.
func TestAssumeDual_NotEqualsOnSelf(t *testing.T) {
	cm := newCM()
	tree := &cfgmodel.Element{}
	a := cm.CreateSymbolicValue(tree, sv.KindOpaque)
	eq := cm.CreateSymbolicValue(tree, sv.KindEqual, a, a)
	not := cm.CreateSymbolicValue(tree, sv.KindNot, eq)

	state := pstate.New().StackValue(not)
	falseStates, trueStates := cm.AssumeDual(state)
	if len(trueStates) != 0 {
		t.Error("expected !(a == a) asserted true to be infeasible")
	}
	if len(falseStates) != 1 {
		t.Error("expected !(a == a) asserted false to be feasible (it IS always false)")
	}
}

func TestSetConstraint_PropagatesNullnessAcrossEquality(t *testing.T) {
	cm := newCM()
	tree := &cfgmodel.Element{}
	a := cm.CreateSymbolicValue(tree, sv.KindOpaque)
	b := cm.CreateSymbolicValue(tree, sv.KindOpaque)
	eq := cm.CreateSymbolicValue(tree, sv.KindEqual, a, b)

	state := pstate.New()
	state = cm.SetSingleConstraint(state, a, constraint.NullConstraint())
	if state == nil {
		t.Fatal("setup failed")
	}

	states := cm.SetConstraint(state, eq, constraint.TrueConstraint())
	if len(states) != 1 {
		t.Fatalf("expected exactly one resulting state, got %d", len(states))
	}
	bNullness, has := states[0].Constraints(b).Get(constraint.KindNullness)
	if !has {
		t.Fatal("expected asserting a == b true to propagate a's nullness onto b")
	}
	if n, _ := bNullness.Nullness(); n != constraint.Null {
		t.Errorf("got %v, want Null", n)
	}
}

func TestSetConstraint_NotEqualBothKnownSameIsInfeasible(t *testing.T) {
	cm := newCM()
	tree := &cfgmodel.Element{}
	a := cm.CreateSymbolicValue(tree, sv.KindOpaque)
	b := cm.CreateSymbolicValue(tree, sv.KindOpaque)
	eq := cm.CreateSymbolicValue(tree, sv.KindEqual, a, b)

	state := pstate.New()
	state = cm.SetSingleConstraint(state, a, constraint.NullConstraint())
	state = cm.SetSingleConstraint(state, b, constraint.NullConstraint())
	if state == nil {
		t.Fatal("setup failed")
	}

	states := cm.SetConstraint(state, eq, constraint.FalseConstraint())
	if len(states) != 0 {
		t.Error("expected a != b to be infeasible when both are known NULL")
	}
}

func TestCreateSymbolicExceptionValue(t *testing.T) {
	cm := newCM()
	exc := cm.CreateSymbolicExceptionValue("java.lang.NullPointerException")
	if exc.ExceptionKind != "java.lang.NullPointerException" {
		t.Errorf("got %q", exc.ExceptionKind)
	}
	if exc.Kind != sv.KindException {
		t.Errorf("expected KindException, got %v", exc.Kind)
	}
}
