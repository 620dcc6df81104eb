package checker

import (
	"fmt"

	"github.com/cwbudde/go-dws/internal/engine/cfgmodel"
	"github.com/cwbudde/go-dws/internal/engine/constraint"
	"github.com/cwbudde/go-dws/internal/engine/constraintmgr"
	"github.com/cwbudde/go-dws/internal/engine/issue"
	"github.com/cwbudde/go-dws/internal/engine/sv"
)

// The five mandatory checkers, in the fixed order spec.md §4.6 and
// SPEC_FULL.md §4.6a name.

// alwaysBooleanChecker reports a condition the engine proved is always
// true or always false — driven by Dispatcher.NotifyConditionAlways, which
// the walker calls as soon as assumeDual finds one branch infeasible,
// rather than by a PreStatement/PostStatement hook (there is nothing to
// inspect on the element itself; the fact comes from the split).
type alwaysBooleanChecker struct{}

func NewAlwaysBooleanChecker() Checker { return &alwaysBooleanChecker{} }

func (c *alwaysBooleanChecker) ID() string { return "alwaysBoolean" }

func (c *alwaysBooleanChecker) Init(*cfgmodel.MethodSymbol, *cfgmodel.CFG, *constraintmgr.ConstraintManager, cfgmodel.SymbolOracle) {
}

func (c *alwaysBooleanChecker) PreStatement(*Context, *cfgmodel.Element) bool { return false }
func (c *alwaysBooleanChecker) PostStatement(*Context, *cfgmodel.Element)     {}
func (c *alwaysBooleanChecker) EndOfExecutionPath(*Context)                   {}
func (c *alwaysBooleanChecker) EndOfExecution()                              {}
func (c *alwaysBooleanChecker) ExceptionEndOfExecution()                      {}

// ConditionAlways reports the finding. value is the one outcome the
// condition can ever take.
func (c *alwaysBooleanChecker) ConditionAlways(ctx *Context, tree *cfgmodel.Element, value bool) {
	ctx.Sink.Report(tree, c.ID(), fmt.Sprintf("condition is always %t", value))
}

// nullDereferenceChecker reports a field/method/array access on a receiver
// already known NULL — the engine's flagship finding (spec.md §1).
type nullDereferenceChecker struct{}

func NewNullDereferenceChecker() Checker { return &nullDereferenceChecker{} }

func (c *nullDereferenceChecker) ID() string { return "nullDereference" }

func (c *nullDereferenceChecker) Init(*cfgmodel.MethodSymbol, *cfgmodel.CFG, *constraintmgr.ConstraintManager, cfgmodel.SymbolOracle) {
}

// receiverDepth returns how many stack slots below the top tree's receiver
// sits, given elements push the receiver before any argument/index values.
func receiverDepth(tree *cfgmodel.Element) int {
	switch tree.Kind {
	case cfgmodel.KindMethodInvocation, cfgmodel.KindArrayAccess:
		return tree.NumArgs
	default:
		return 0
	}
}

func (c *nullDereferenceChecker) PreStatement(ctx *Context, tree *cfgmodel.Element) bool {
	switch tree.Kind {
	case cfgmodel.KindMemberSelect, cfgmodel.KindArrayAccess, cfgmodel.KindMethodInvocation:
	default:
		return false
	}
	if tree.Kind == cfgmodel.KindMethodInvocation && tree.Receiver == cfgmodel.ReceiverNone {
		return false
	}
	receiver, ok := ctx.State().PeekAt(receiverDepth(tree))
	if !ok {
		return false
	}
	if n, has := ctx.State().Constraints(receiver).Get(constraint.KindNullness); has {
		if nv, _ := n.Nullness(); nv == constraint.Null {
			ctx.Sink.Report(tree, c.ID(), "dereference of a value known to be null", flowToNull(receiver)...)
			return true
		}
	}
	return false
}

// flowToNull gives a best-effort breadcrumb pointing at where receiver's
// null value was produced (SPEC_FULL.md §10): receiver's own token, when
// it has one. Values with no token — the sv.NULL singleton and freshly
// minted parameters — yield no flow step, since spec.md §6 marks flow
// steps optional.
func flowToNull(receiver *sv.SV) []issue.FlowStep {
	if receiver.Token == nil {
		return nil
	}
	return []issue.FlowStep{{Pos: receiver.Token.Pos, Message: "value produced here"}}
}

func (c *nullDereferenceChecker) PostStatement(*Context, *cfgmodel.Element) {}
func (c *nullDereferenceChecker) EndOfExecutionPath(*Context)               {}
func (c *nullDereferenceChecker) EndOfExecution()                          {}
func (c *nullDereferenceChecker) ExceptionEndOfExecution()                 {}

// resourceOpen is a private constraint kind: true while a resource created
// by a call tagged OpensResource has not yet seen a matching ClosesResource
// call. Its meet function always takes the newer value — it models a flag
// a call toggles, not a fact two paths must agree on.
const resourceOpen constraint.Kind = "resource-open"

func meetLatest(_, b constraint.Constraint) (constraint.Constraint, bool) { return b, true }

// unclosedResourceChecker reports a resource (file handle, socket, ...)
// still open at the end of an execution path (SPEC_FULL.md §4.6a).
type unclosedResourceChecker struct{}

func NewUnclosedResourceChecker() Checker { return &unclosedResourceChecker{} }

func (c *unclosedResourceChecker) ID() string { return "unclosedResource" }

func (c *unclosedResourceChecker) Init(_ *cfgmodel.MethodSymbol, _ *cfgmodel.CFG, cm *constraintmgr.ConstraintManager, _ cfgmodel.SymbolOracle) {
	cm.Registry().Register(resourceOpen, meetLatest)
}

func (c *unclosedResourceChecker) PreStatement(ctx *Context, tree *cfgmodel.Element) bool {
	if tree.Kind != cfgmodel.KindMethodInvocation || tree.Method == nil || !tree.Method.ClosesResource {
		return false
	}
	receiver, ok := ctx.State().PeekAt(receiverDepth(tree))
	if !ok {
		return false
	}
	if _, has := ctx.State().Constraints(receiver).Get(resourceOpen); !has {
		return false
	}
	next := ctx.CM.SetSingleConstraint(ctx.State(), receiver, constraint.Constraint{Kind: resourceOpen, Value: false})
	if next != nil {
		ctx.SetState(next)
	}
	return false
}

func (c *unclosedResourceChecker) PostStatement(ctx *Context, tree *cfgmodel.Element) {
	if tree.Kind != cfgmodel.KindNewObject || tree.Method == nil || !tree.Method.OpensResource {
		return
	}
	created, ok := ctx.State().Peek()
	if !ok {
		return
	}
	next := ctx.CM.SetSingleConstraint(ctx.State(), created, constraint.Constraint{Kind: resourceOpen, Value: true})
	if next != nil {
		ctx.SetState(next)
	}
}

func (c *unclosedResourceChecker) EndOfExecutionPath(ctx *Context) {
	for _, con := range ctx.State().ConstraintsOfKind(resourceOpen) {
		if open, _ := con.Value.(bool); open {
			ctx.Sink.Report(nil, c.ID(), "resource opened but never closed on this path")
		}
	}
}

func (c *unclosedResourceChecker) EndOfExecution()          {}
func (c *unclosedResourceChecker) ExceptionEndOfExecution() {}

// lockHeld is a private constraint kind mirroring resourceOpen, tracking
// whether a lock SV is currently held.
const lockHeld constraint.Kind = "lock-held"

// lockNotUnlockedChecker reports a lock acquired but never released along
// some path (SPEC_FULL.md §4.6a).
type lockNotUnlockedChecker struct{}

func NewLockNotUnlockedChecker() Checker { return &lockNotUnlockedChecker{} }

func (c *lockNotUnlockedChecker) ID() string { return "lockNotUnlocked" }

func (c *lockNotUnlockedChecker) Init(_ *cfgmodel.MethodSymbol, _ *cfgmodel.CFG, cm *constraintmgr.ConstraintManager, _ cfgmodel.SymbolOracle) {
	cm.Registry().Register(lockHeld, meetLatest)
}

func (c *lockNotUnlockedChecker) PreStatement(ctx *Context, tree *cfgmodel.Element) bool {
	if tree.Kind != cfgmodel.KindMethodInvocation || tree.Method == nil {
		return false
	}
	if !tree.Method.AcquiresLock && !tree.Method.ReleasesLock {
		return false
	}
	receiver, ok := ctx.State().PeekAt(receiverDepth(tree))
	if !ok {
		return false
	}
	held := tree.Method.AcquiresLock
	next := ctx.CM.SetSingleConstraint(ctx.State(), receiver, constraint.Constraint{Kind: lockHeld, Value: held})
	if next != nil {
		ctx.SetState(next)
	}
	return false
}

func (c *lockNotUnlockedChecker) PostStatement(*Context, *cfgmodel.Element) {}

func (c *lockNotUnlockedChecker) EndOfExecutionPath(ctx *Context) {
	for _, con := range ctx.State().ConstraintsOfKind(lockHeld) {
		if held, _ := con.Value.(bool); held {
			ctx.Sink.Report(nil, c.ID(), "lock acquired but never released on this path")
		}
	}
}

func (c *lockNotUnlockedChecker) EndOfExecution()          {}
func (c *lockNotUnlockedChecker) ExceptionEndOfExecution() {}

// nonNullSetToNullChecker reports an assignment of a known-null value into
// a symbol the symbol oracle annotates @Nonnull (SPEC_FULL.md §4.6a).
type nonNullSetToNullChecker struct {
	oracle cfgmodel.SymbolOracle
}

func NewNonNullSetToNullChecker() Checker { return &nonNullSetToNullChecker{} }

func (c *nonNullSetToNullChecker) ID() string { return "nonNullSetToNull" }

func (c *nonNullSetToNullChecker) Init(_ *cfgmodel.MethodSymbol, _ *cfgmodel.CFG, _ *constraintmgr.ConstraintManager, oracle cfgmodel.SymbolOracle) {
	c.oracle = oracle
}

func (c *nonNullSetToNullChecker) PreStatement(ctx *Context, tree *cfgmodel.Element) bool {
	if tree.Kind != cfgmodel.KindAssignment && tree.Kind != cfgmodel.KindCompoundAssignment {
		return false
	}
	if tree.Sym == nil || c.oracle == nil || !c.oracle.HasAnnotation(tree.Sym, cfgmodel.AnnotationNonnull) {
		return false
	}
	rhs, ok := ctx.State().Peek()
	if !ok {
		return false
	}
	if n, has := ctx.State().Constraints(rhs).Get(constraint.KindNullness); has {
		if nv, _ := n.Nullness(); nv == constraint.Null {
			ctx.Sink.Report(tree, c.ID(), fmt.Sprintf("null assigned to @Nonnull %s", tree.Sym.Name))
		}
	}
	return false
}

func (c *nonNullSetToNullChecker) PostStatement(*Context, *cfgmodel.Element) {}
func (c *nonNullSetToNullChecker) EndOfExecutionPath(*Context)               {}
func (c *nonNullSetToNullChecker) EndOfExecution()                          {}
func (c *nonNullSetToNullChecker) ExceptionEndOfExecution()                 {}
