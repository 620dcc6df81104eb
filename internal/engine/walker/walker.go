// Package walker implements the Exploded-Graph Walker (C7): the worklist
// that drives every other component to a fixed point over one method's
// CFG. It mints starting states, interns (program point, state) nodes,
// dispatches each CFG element to its interpretation (spec.md §4.7a),
// hands branches to the Constraint Manager, follows exception edges
// through package excwalker, and notifies checkers at every hook point
// spec.md §4.6 names.
package walker

import (
	"fmt"

	"github.com/cwbudde/go-dws/internal/engine/behavior"
	"github.com/cwbudde/go-dws/internal/engine/cfgmodel"
	"github.com/cwbudde/go-dws/internal/engine/checker"
	"github.com/cwbudde/go-dws/internal/engine/config"
	"github.com/cwbudde/go-dws/internal/engine/constraint"
	"github.com/cwbudde/go-dws/internal/engine/constraintmgr"
	"github.com/cwbudde/go-dws/internal/engine/engerrors"
	"github.com/cwbudde/go-dws/internal/engine/excwalker"
	"github.com/cwbudde/go-dws/internal/engine/issue"
	"github.com/cwbudde/go-dws/internal/engine/pstate"
	"github.com/cwbudde/go-dws/internal/engine/sv"
)

// node is one exploded-graph node: a program point paired with a state,
// plus the bookkeeping needed to detect loop non-termination and to keep
// the exception in flight while a finally block runs.
type node struct {
	point         cfgmodel.ProgramPoint
	state         *pstate.State
	nestedBoolean int
	// pendingException/pendingRegion carry an in-flight exception through
	// a finally block (spec.md §4.8): the finally's own elements run
	// normally, but once it falls through without itself returning or
	// throwing, the walker resumes the exception search at pendingRegion
	// rather than following the finally block's normal successor.
	pendingException *sv.SV
	pendingRegion    *cfgmodel.TryRegion
}

// Walker explores one method's CFG to a fixed point.
type Walker struct {
	cfg        *cfgmodel.CFG
	method     *cfgmodel.MethodSymbol
	oracle     cfgmodel.SymbolOracle
	bounds     config.Bounds
	cm         *constraintmgr.ConstraintManager
	dispatcher *checker.Dispatcher
	sink       *issue.Sink
	behaviors  *behavior.Registry
	methodBeh  *behavior.Behavior

	steps   int
	visited map[uint64][]*node // bucketed by State.Hash(), per spec.md §4.2 node interning
}

// New creates a Walker for one method analysis. behaviors and sink may be
// shared across the whole analysis pass (spec.md §5); registry and
// dispatcher belong to this one method analysis (package engine creates
// them per method), and cm is created fresh per call since its SV factory
// must not leak identities between methods.
func New(
	cfg *cfgmodel.CFG,
	method *cfgmodel.MethodSymbol,
	oracle cfgmodel.SymbolOracle,
	bounds config.Bounds,
	registry *constraint.Registry,
	dispatcher *checker.Dispatcher,
	sink *issue.Sink,
	behaviors *behavior.Registry,
) *Walker {
	cm := constraintmgr.New(registry)
	dispatcher.Init(method, cfg, cm, oracle)
	return &Walker{
		cfg:        cfg,
		method:     method,
		oracle:     oracle,
		bounds:     bounds,
		cm:         cm,
		dispatcher: dispatcher,
		sink:       sink,
		behaviors:  behaviors,
		methodBeh:  behaviors.GetOrCreate(method),
		visited:    make(map[uint64][]*node),
	}
}

// Run explores the method to a fixed point, recording yields in the
// behavior registry as paths complete, and notifies EndOfExecution once
// the worklist is exhausted. It recovers BoundExceeded and OversizeState
// (spec.md §7) at the method boundary: checkers get
// ExceptionEndOfExecution, the yields recorded so far are discarded, and
// the rest of the method is abandoned. It does not recover
// InvariantViolation, which indicates a bug in the walker itself.
func (w *Walker) Run() {
	worklist := w.startingNodes()
	for len(worklist) > 0 {
		// LIFO: pop from the end (depth-first exploration, spec.md §4.7).
		n := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		next, err := w.step(n, len(worklist))
		if err != nil {
			if ee, ok := err.(*engerrors.EngineError); ok && !ee.Recoverable() {
				panic(ee)
			}
			w.dispatcher.ExceptionEndOfExecution()
			w.methodBeh.Yields = nil
			w.methodBeh.ExceptionYields = nil
			return
		}
		worklist = append(worklist, next...)
	}
	w.dispatcher.EndOfExecution()
}

// startingNodes builds the method's initial states (spec.md §4.7,
// "Starting states"): one state with every parameter bound to a fresh
// SV, split into a NULL/NOT_NULL pair for each parameter the symbol
// oracle marks @Nullable or @CheckForNull, or — for an equals(Object)
// override — for its sole parameter regardless of any annotation, since
// a hand-written equals must handle being passed null.
func (w *Walker) startingNodes() []*node {
	base := pstate.New()
	states := []*pstate.State{base}

	for _, param := range w.method.Params {
		value := w.cm.Factory().Fresh(sv.KindOpaque, nil)
		var widened []*pstate.State
		for _, s := range states {
			bound := s.Put(param, value)
			split := w.method.IsEqualsMethod || (w.oracle != nil && (w.oracle.HasAnnotation(param, cfgmodel.AnnotationNullable) ||
				w.oracle.HasAnnotation(param, cfgmodel.AnnotationCheckForNull)))
			if !split {
				widened = append(widened, bound)
				continue
			}
			if notNull := w.cm.SetSingleConstraint(bound, value, constraint.NotNullConstraint("parameter")); notNull != nil {
				widened = append(widened, notNull)
			}
			if null := w.cm.SetSingleConstraint(bound, value, constraint.NullConstraint()); null != nil {
				widened = append(widened, null)
			}
		}
		states = widened
	}

	entry := cfgmodel.ProgramPoint{Block: w.cfg.Entry, Index: 0}
	nodes := make([]*node, 0, len(states))
	for _, s := range states {
		nodes = append(nodes, &node{point: entry, state: s})
	}
	return nodes
}

// step interprets exactly one program point for n, returning the set of
// successor nodes (zero, one, or two for a branch). worklistLen is the
// number of nodes still queued behind n, needed for the B-I3 check below.
// It enforces B-I1 (MAX_STEPS), B-I2 (the per-path visit bound) and B-I3,
// and skips nodes already interned.
func (w *Walker) step(n *node, worklistLen int) ([]*node, error) {
	w.steps++
	if w.steps > w.bounds.MaxSteps {
		return nil, engerrors.NewBoundExceeded(w.method.Name, engerrors.MsgMaxStepsExceeded, w.bounds.MaxSteps)
	}

	visits := n.state.NumberOfTimesVisited(n.point) + 1
	if visits > w.bounds.MaxExecProgramPoint {
		return nil, nil // B-I2: drop this path silently, per spec.md §4.7
	}
	n.state = n.state.VisitedPoint(n.point, visits)

	if w.intern(n) {
		return nil, nil // already explored an equal (point, state) node
	}

	// B-I3: steps-so-far plus the remaining worklist above MAX_STEPS/2
	// while this state's constraints are already oversize — the guard
	// against constraint-explosion in deeply nested booleans, which can
	// blow up well before B-I1's flat step ceiling ever fires.
	if n.state.ConstraintsSize() > w.bounds.ConstraintsSizeThreshold && w.steps+worklistLen > w.bounds.MaxSteps/2 {
		return nil, engerrors.NewOversizeState(w.method.Name, engerrors.MsgConstraintsTooLarge, n.state.ConstraintsSize(), w.bounds.ConstraintsSizeThreshold)
	}

	block := n.point.Block

	if n.point.AtTerminator() {
		return w.stepTerminator(n, block)
	}

	element := block.Elements[n.point.Index]
	return w.stepElement(n, block, element)
}

// intern registers n's (point, state) pair, reporting whether an
// equivalent node (same point, State.Equal) was already explored — the
// walker's fixed-point stopping condition (spec.md §4.2).
func (w *Walker) intern(n *node) bool {
	h := n.state.Hash()
	bucket := w.visited[h]
	for _, existing := range bucket {
		if existing.point == n.point && existing.state.Equal(n.state) {
			return true
		}
	}
	w.visited[h] = append(bucket, n)
	return false
}

func advance(n *node) *node {
	return &node{
		point:            cfgmodel.ProgramPoint{Block: n.point.Block, Index: n.point.Index + 1},
		state:            n.state,
		nestedBoolean:    n.nestedBoolean,
		pendingException: n.pendingException,
		pendingRegion:    n.pendingRegion,
	}
}

// at transitions from n's current block to target, running cleanup-on-exit
// (spec.md §4.7, "Cleanup-on-exit") against the block n is leaving —
// dropping dead bindings and now-unreachable constraints at every block
// exit, not just at the final yield, which is the walker's second
// state-space reducer alongside node interning (spec.md §4.2).
func (w *Walker) at(target *cfgmodel.Block, n *node) *node {
	return &node{
		point:            cfgmodel.ProgramPoint{Block: target, Index: 0},
		state:            w.cleanupOnExit(n.point.Block, n.state),
		nestedBoolean:    n.nestedBoolean,
		pendingException: n.pendingException,
		pendingRegion:    n.pendingRegion,
	}
}

// liveAtExit is the live set cleanup-on-exit keeps: block's live-out
// symbols (from the CFG's liveness oracle, a non-goal component — see
// cfgmodel.Build) unioned with the method's own interface symbols
// (spec.md §4.7), which must survive regardless of liveness since a
// caller's yield replay still needs them.
func (w *Walker) liveAtExit(block *cfgmodel.Block) map[*cfgmodel.Symbol]bool {
	live := make(map[*cfgmodel.Symbol]bool)
	for sym := range w.cfg.LiveOut(block) {
		live[sym] = true
	}
	for sym := range w.methodBeh.InterfaceSymbols() {
		live[sym] = true
	}
	return live
}

// cleanupOnExit runs cleanup_dead_symbols followed by cleanup_constraints
// against the state leaving block (spec.md §4.7, "Cleanup-on-exit").
func (w *Walker) cleanupOnExit(block *cfgmodel.Block, state *pstate.State) *pstate.State {
	return state.CleanupDeadSymbols(w.liveAtExit(block)).CleanupConstraints()
}

// endOfPath finishes a path: notifies EndOfExecutionPath against the full
// state (so checkers like unclosedResource/lockNotUnlocked can still see
// facts attached to about-to-die locals), then runs cleanup-on-exit and
// records a yield summarizing it (spec.md §4.7, "Cleanup-on-exit" and
// §4.5).
func (w *Walker) endOfPath(n *node, result *sv.SV, hasReturn bool) {
	ctx := checker.NewContext(w.cm, w.sink, n.state)
	w.dispatcher.EndOfExecutionPath(ctx)

	cleaned := w.cleanupOnExit(n.point.Block, ctx.State())

	y := &behavior.Yield{HasReturnValue: hasReturn}
	for _, p := range w.methodBeh.Params {
		pv, _ := cleaned.Get(p)
		y.ParamConstraints = append(y.ParamConstraints, cleaned.Constraints(pv))
	}
	if hasReturn && result != nil {
		y.ReturnConstraint = cleaned.Constraints(result)
	}
	w.methodBeh.AddYield(y)
}

// endOfPathException finishes a path that exits via an uncaught
// exception: no return-value yield, just an exception yield recorded for
// callers (behavior.ExceptionYield). Checkers are notified against
// the full state first, for the same reason endOfPath is.
func (w *Walker) endOfPathException(n *node, exceptionKind string) {
	ctx := checker.NewContext(w.cm, w.sink, n.state)
	w.dispatcher.EndOfExecutionPath(ctx)
	w.methodBeh.AddExceptionYield(behavior.ExceptionYield{ExceptionKind: exceptionKind})
}

// sinkWithException finishes a path a checker's PreStatement hook just
// sank (spec.md §4.7a: "the walker synthesises a symbolic
// NullPointerException SV... onto the stack, registers a yield, and stops
// this path"). It mints the exception SV, pushes it so the path reads as
// if it had actually thrown, and records the exception yield the same way
// a real uncaught throw would.
func (w *Walker) sinkWithException(n *node, exceptionKind string) {
	exc := w.cm.CreateSymbolicExceptionValue(exceptionKind)
	w.endOfPathException(&node{point: n.point, state: n.state.StackValue(exc)}, exceptionKind)
}

// raise starts exception propagation for exceptionValue thrown from
// block, consulting package excwalker for where control resumes.
func (w *Walker) raise(n *node, block *cfgmodel.Block, exceptionValue *sv.SV) []*node {
	region := excwalker.StartingRegion(w.cfg, block)
	return w.continueRaise(n, region, exceptionValue)
}

// continueRaise resumes a handler search at region — used both for the
// initial throw and to keep searching once an intervening finally block
// has finished running (spec.md §4.8).
func (w *Walker) continueRaise(n *node, region *cfgmodel.TryRegion, exceptionValue *sv.SV) []*node {
	result := excwalker.Handle(region, exceptionValue.ExceptionKind)
	switch result.Outcome {
	case excwalker.OutcomeHandled:
		handled := n.state.StackValue(exceptionValue)
		return []*node{w.at(result.Target, &node{point: n.point, state: handled})}
	case excwalker.OutcomeFinally:
		fin := &node{
			point:            cfgmodel.ProgramPoint{Block: result.Target, Index: 0},
			state:            w.cleanupOnExit(n.point.Block, n.state),
			pendingException: exceptionValue,
			pendingRegion:    result.Next,
		}
		return []*node{fin}
	default: // OutcomeUnhandled
		w.endOfPathException(n, exceptionValue.ExceptionKind)
		return nil
	}
}

// resumePendingException is called when a node carrying a pending
// exception reaches its block's exit without the finally block itself
// having returned, thrown, or otherwise exited unconditionally — the
// exception that was in flight before the finally ran now continues
// propagating from pendingRegion (spec.md §4.8: "exit path" propagation).
func (w *Walker) resumePendingException(n *node) []*node {
	exc := n.pendingException
	cleared := &node{point: n.point, state: n.state}
	return w.continueRaise(cleared, n.pendingRegion, exc)
}

func (w *Walker) invariantViolation(point cfgmodel.ProgramPoint, format string, args ...any) error {
	where := "unknown"
	if point.Block != nil {
		where = fmt.Sprintf("block %d index %d", point.Block.Index, point.Index)
	}
	return engerrors.NewInvariantViolation(w.method.Name, where, format, args...)
}
