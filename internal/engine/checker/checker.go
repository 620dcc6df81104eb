// Package checker implements the Checker Dispatcher (C6): a fixed-order
// pipeline of pluggable checkers the walker notifies before/after each
// statement and at path/method boundaries, plus the five mandatory
// checkers named in SPEC_FULL.md §4.6a.
package checker

import (
	"github.com/cwbudde/go-dws/internal/engine/cfgmodel"
	"github.com/cwbudde/go-dws/internal/engine/constraintmgr"
	"github.com/cwbudde/go-dws/internal/engine/issue"
	"github.com/cwbudde/go-dws/internal/engine/pstate"
)

// Context is the walker's "current-state accessor" (spec.md §4.6):
// checkers read and replace the state being threaded through the current
// step, mint SVs through the shared ConstraintManager, and report through
// Sink.
type Context struct {
	CM    *constraintmgr.ConstraintManager
	Sink  *issue.Sink
	state *pstate.State
}

// NewContext creates a Context for one walker step.
func NewContext(cm *constraintmgr.ConstraintManager, sink *issue.Sink, state *pstate.State) *Context {
	return &Context{CM: cm, Sink: sink, state: state}
}

// State returns the state as of right now in this step.
func (c *Context) State() *pstate.State {
	return c.state
}

// SetState replaces the state a checker's hook sees for the rest of this
// step (and that the walker resumes from afterwards).
func (c *Context) SetState(s *pstate.State) {
	c.state = s
}

// Checker is the plug-in ABI named in spec.md §6. Checkers that need
// private constraint kinds register them with the constraint registry
// during Init.
type Checker interface {
	ID() string
	Init(method *cfgmodel.MethodSymbol, cfg *cfgmodel.CFG, cm *constraintmgr.ConstraintManager, oracle cfgmodel.SymbolOracle)
	// PreStatement runs before tree is interpreted. Returning true sinks
	// the current path here (spec.md §4.6/§4.7a).
	PreStatement(ctx *Context, tree *cfgmodel.Element) bool
	PostStatement(ctx *Context, tree *cfgmodel.Element)
	EndOfExecutionPath(ctx *Context)
	EndOfExecution()
	ExceptionEndOfExecution()
}

// Dispatcher runs checkers in a fixed order: the five mandatory checkers
// named in spec.md §4.6, in that order, followed by any user-supplied
// checkers (spec.md: "Ordering of mandatory checkers is fixed; user
// checkers run after").
type Dispatcher struct {
	mandatory []Checker
	user      []Checker
}

// NewDispatcher creates a Dispatcher running the mandatory checkers in the
// fixed spec.md §4.6 order, followed by extra.
func NewDispatcher(extra ...Checker) *Dispatcher {
	return &Dispatcher{
		mandatory: []Checker{
			NewAlwaysBooleanChecker(),
			NewNullDereferenceChecker(),
			NewUnclosedResourceChecker(),
			NewLockNotUnlockedChecker(),
			NewNonNullSetToNullChecker(),
		},
		user: extra,
	}
}

func (d *Dispatcher) all() []Checker {
	return append(append([]Checker{}, d.mandatory...), d.user...)
}

// Init runs every checker's Init hook once per method.
func (d *Dispatcher) Init(method *cfgmodel.MethodSymbol, cfg *cfgmodel.CFG, cm *constraintmgr.ConstraintManager, oracle cfgmodel.SymbolOracle) {
	for _, c := range d.all() {
		c.Init(method, cfg, cm, oracle)
	}
}

// conditionAlwaysNotifiable is implemented only by checkers that care about
// a condition being statically known true or false before the walker
// splits on it (today, just alwaysBoolean) — a capability interface rather
// than a method on Checker itself, since no other checker needs it.
type conditionAlwaysNotifiable interface {
	ConditionAlways(ctx *Context, tree *cfgmodel.Element, value bool)
}

// NotifyConditionAlways tells any checker that implements
// conditionAlwaysNotifiable that the walker found tree's condition
// statically decided (one of assumeDual's two branches was infeasible)
// before it ever reaches a PreStatement/PostStatement hook on that
// element — spec.md §4.4/§4.7's "always true/false" diagnostics are
// produced here, fed by package walker.
func (d *Dispatcher) NotifyConditionAlways(ctx *Context, tree *cfgmodel.Element, value bool) {
	for _, c := range d.all() {
		if n, ok := c.(conditionAlwaysNotifiable); ok {
			n.ConditionAlways(ctx, tree, value)
		}
	}
}

// PreStatement runs every checker's PreStatement hook in order, returning
// true (sink) as soon as any checker requests it. Later checkers in the
// pipeline still don't run once a checker sinks — the path is already
// ending here.
func (d *Dispatcher) PreStatement(ctx *Context, tree *cfgmodel.Element) bool {
	for _, c := range d.all() {
		if c.PreStatement(ctx, tree) {
			return true
		}
	}
	return false
}

// PostStatement runs every checker's PostStatement hook in order.
func (d *Dispatcher) PostStatement(ctx *Context, tree *cfgmodel.Element) {
	for _, c := range d.all() {
		c.PostStatement(ctx, tree)
	}
}

// EndOfExecutionPath notifies every checker that one path has finished.
func (d *Dispatcher) EndOfExecutionPath(ctx *Context) {
	for _, c := range d.all() {
		c.EndOfExecutionPath(ctx)
	}
}

// EndOfExecution notifies every checker that the whole method is done.
func (d *Dispatcher) EndOfExecution() {
	for _, c := range d.all() {
		c.EndOfExecution()
	}
}

// ExceptionEndOfExecution notifies every checker of an oversize/bound-
// exceeded abort (spec.md §4.6).
func (d *Dispatcher) ExceptionEndOfExecution() {
	for _, c := range d.all() {
		c.ExceptionEndOfExecution()
	}
}
