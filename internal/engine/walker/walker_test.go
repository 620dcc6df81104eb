package walker

import (
	"errors"
	"testing"

	"github.com/cwbudde/go-dws/internal/engine/behavior"
	"github.com/cwbudde/go-dws/internal/engine/cfgmodel"
	"github.com/cwbudde/go-dws/internal/engine/checker"
	"github.com/cwbudde/go-dws/internal/engine/config"
	"github.com/cwbudde/go-dws/internal/engine/constraint"
	"github.com/cwbudde/go-dws/internal/engine/engerrors"
	"github.com/cwbudde/go-dws/internal/engine/issue"
	"github.com/cwbudde/go-dws/internal/engine/pstate"
	"github.com/cwbudde/go-dws/internal/engine/sv"
)

// runMethod mirrors engine.AnalyzeMethod's wiring (one fresh constraint
// registry and dispatcher per method), with its own sink and behavior
// registry, and returns whatever the sink collected.
func runMethod(cfg *cfgmodel.CFG, method *cfgmodel.MethodSymbol, oracle cfgmodel.SymbolOracle, bounds config.Bounds) []issue.Issue {
	registry := constraint.NewRegistry()
	dispatcher := checker.NewDispatcher()
	sink := issue.NewSink()
	behaviors := behavior.NewRegistry()
	w := New(cfg, method, oracle, bounds, registry, dispatcher, sink, behaviors)
	w.Run()
	return sink.Issues()
}

func countByChecker(issues []issue.Issue, id string) int {
	n := 0
	for _, iss := range issues {
		if iss.CheckerID == id {
			n++
		}
	}
	return n
}

// Scenario 1: nested always-true condition — if(a){ if(a){} } — must flag
// only the inner if, since the outer condition is genuinely undecided.
func TestWalker_NestedAlwaysTrue(t *testing.T) {
	a := &cfgmodel.Symbol{Name: "a", Kind: cfgmodel.SymbolParameter, Boolean: true}
	method := &cfgmodel.MethodSymbol{Name: "f", Params: []*cfgmodel.Symbol{a}, IsVoid: true}

	exit := &cfgmodel.Block{Index: 3, IsMethodExitBlock: true}
	inner := &cfgmodel.Block{Index: 2, Successors: []*cfgmodel.Block{exit}}
	outerBody := &cfgmodel.Block{Index: 1,
		Elements:   []*cfgmodel.Element{{Kind: cfgmodel.KindIdentifier, Sym: a}},
		Terminator: &cfgmodel.Element{Kind: cfgmodel.KindIfTerminator},
	}
	outerBody.TrueSuccessor, outerBody.FalseSuccessor = inner, exit
	entry := &cfgmodel.Block{Index: 0,
		Elements:   []*cfgmodel.Element{{Kind: cfgmodel.KindIdentifier, Sym: a}},
		Terminator: &cfgmodel.Element{Kind: cfgmodel.KindIfTerminator},
	}
	entry.TrueSuccessor, entry.FalseSuccessor = outerBody, exit

	cfg := cfgmodel.NewBuilder(entry).AddBlock(entry).AddBlock(outerBody).AddBlock(inner).AddBlock(exit).Build()

	issues := runMethod(cfg, method, nil, config.Defaults())
	if got := countByChecker(issues, "alwaysBoolean"); got != 1 {
		t.Fatalf("expected exactly 1 alwaysBoolean issue, got %d (%v)", got, issues)
	}
}

// Scenario 2: null reassignment then dereference —
// Object a = new Object(); a = null; a.toString();
func TestWalker_NullReassignmentThenDereference(t *testing.T) {
	a := &cfgmodel.Symbol{Name: "a", Kind: cfgmodel.SymbolLocal}
	ctor := &cfgmodel.MethodSymbol{Name: "Object", IsConstructor: true}
	toString := &cfgmodel.MethodSymbol{Name: "toString", IsVoid: false}
	method := &cfgmodel.MethodSymbol{Name: "f", IsVoid: true}

	entry := &cfgmodel.Block{Index: 0, IsMethodExitBlock: true}
	entry.Elements = []*cfgmodel.Element{
		{Kind: cfgmodel.KindNewObject, Method: ctor, NumArgs: 0},
		{Kind: cfgmodel.KindVarDeclWithInit, Sym: a},
		{Kind: cfgmodel.KindNullLiteral},
		{Kind: cfgmodel.KindAssignment, Sym: a, EndsStatement: true},
		{Kind: cfgmodel.KindIdentifier, Sym: a},
		{Kind: cfgmodel.KindMethodInvocation, Method: toString, NumArgs: 0, Receiver: cfgmodel.ReceiverOther, EndsStatement: true},
	}
	cfg := cfgmodel.NewBuilder(entry).AddBlock(entry).Build()

	issues := runMethod(cfg, method, nil, config.Defaults())
	if len(issues) != 1 || issues[0].CheckerID != "nullDereference" {
		t.Fatalf("expected exactly 1 nullDereference issue, got %v", issues)
	}
}

// Scenario 3: null flows through a merge via equality, not an annotation —
// Object b = new Object(); if (a == null) { b = a; b.toString(); }
func TestWalker_NullFlowsThroughEqualityMerge(t *testing.T) {
	a := &cfgmodel.Symbol{Name: "a", Kind: cfgmodel.SymbolParameter}
	b := &cfgmodel.Symbol{Name: "b", Kind: cfgmodel.SymbolLocal}
	ctor := &cfgmodel.MethodSymbol{Name: "Object", IsConstructor: true}
	toString := &cfgmodel.MethodSymbol{Name: "toString", IsVoid: false}
	method := &cfgmodel.MethodSymbol{Name: "f", Params: []*cfgmodel.Symbol{a}, IsVoid: true}

	exit := &cfgmodel.Block{Index: 2, IsMethodExitBlock: true}
	ifBody := &cfgmodel.Block{Index: 1, Successors: []*cfgmodel.Block{exit}}
	ifBody.Elements = []*cfgmodel.Element{
		{Kind: cfgmodel.KindIdentifier, Sym: a},
		{Kind: cfgmodel.KindAssignment, Sym: b, EndsStatement: true},
		{Kind: cfgmodel.KindIdentifier, Sym: b},
		{Kind: cfgmodel.KindMethodInvocation, Method: toString, NumArgs: 0, Receiver: cfgmodel.ReceiverOther, EndsStatement: true},
	}

	entry := &cfgmodel.Block{Index: 0}
	entry.Elements = []*cfgmodel.Element{
		{Kind: cfgmodel.KindNewObject, Method: ctor, NumArgs: 0},
		{Kind: cfgmodel.KindVarDeclWithInit, Sym: b},
		{Kind: cfgmodel.KindIdentifier, Sym: a},
		{Kind: cfgmodel.KindNullLiteral},
		{Kind: cfgmodel.KindBinary, BinaryOp: cfgmodel.OpEq},
	}
	entry.Terminator = &cfgmodel.Element{Kind: cfgmodel.KindIfTerminator}
	entry.TrueSuccessor, entry.FalseSuccessor = ifBody, exit

	cfg := cfgmodel.NewBuilder(entry).AddBlock(entry).AddBlock(ifBody).AddBlock(exit).Build()

	issues := runMethod(cfg, method, nil, config.Defaults())
	if len(issues) != 1 || issues[0].CheckerID != "nullDereference" {
		t.Fatalf("expected exactly 1 nullDereference issue from the equality-derived null, got %v", issues)
	}
}

// Scenario 4: a unary negation reasserting the same symbol —
// if (!a) { if (a) { } }
func TestWalker_UnaryReassertingCondition(t *testing.T) {
	a := &cfgmodel.Symbol{Name: "a", Kind: cfgmodel.SymbolParameter, Boolean: true}
	method := &cfgmodel.MethodSymbol{Name: "f", Params: []*cfgmodel.Symbol{a}, IsVoid: true}

	exit := &cfgmodel.Block{Index: 2, IsMethodExitBlock: true}
	inner := &cfgmodel.Block{Index: 1,
		Elements:   []*cfgmodel.Element{{Kind: cfgmodel.KindIdentifier, Sym: a}},
		Terminator: &cfgmodel.Element{Kind: cfgmodel.KindIfTerminator},
	}
	inner.TrueSuccessor, inner.FalseSuccessor = exit, exit

	entry := &cfgmodel.Block{Index: 0}
	entry.Elements = []*cfgmodel.Element{
		{Kind: cfgmodel.KindIdentifier, Sym: a},
		{Kind: cfgmodel.KindUnary, UnaryOp: cfgmodel.OpNot},
	}
	entry.Terminator = &cfgmodel.Element{Kind: cfgmodel.KindIfTerminator}
	entry.TrueSuccessor, entry.FalseSuccessor = inner, exit

	cfg := cfgmodel.NewBuilder(entry).AddBlock(entry).AddBlock(inner).AddBlock(exit).Build()

	issues := runMethod(cfg, method, nil, config.Defaults())
	if len(issues) != 1 || issues[0].CheckerID != "alwaysBoolean" {
		t.Fatalf("expected exactly 1 alwaysBoolean issue on the inner if, got %v", issues)
	}
}

// Scenario 5: equals-on-self — boolean g(Object a) { return !(a == a); } —
// covered at the engine/scenarios level by AlwaysFalseEqualsOnSelf, but
// exercised again here directly against the walker.
func TestWalker_EqualsOnSelfIsAlwaysFalse(t *testing.T) {
	a := &cfgmodel.Symbol{Name: "a", Kind: cfgmodel.SymbolParameter}
	method := &cfgmodel.MethodSymbol{Name: "g", Params: []*cfgmodel.Symbol{a}, ReturnsBoolean: true}

	entry := &cfgmodel.Block{Index: 0}
	entry.Elements = []*cfgmodel.Element{
		{Kind: cfgmodel.KindIdentifier, Sym: a},
		{Kind: cfgmodel.KindIdentifier, Sym: a},
		{Kind: cfgmodel.KindBinary, BinaryOp: cfgmodel.OpEq},
		{Kind: cfgmodel.KindUnary, UnaryOp: cfgmodel.OpNot},
	}
	entry.Terminator = &cfgmodel.Element{Kind: cfgmodel.KindReturnTerminator}
	cfg := cfgmodel.NewBuilder(entry).AddBlock(entry).Build()

	issues := runMethod(cfg, method, nil, config.Defaults())
	if len(issues) != 1 || issues[0].CheckerID != "alwaysBoolean" {
		t.Fatalf("expected exactly 1 alwaysBoolean issue on the return, got %v", issues)
	}
}

// Scenario 6: a 50-statement while(true) loop must terminate — the loop
// head's own program point is revisited at most MAX_EXEC_PROGRAM_POINT
// times along any one path (B-I2), which is what bounds exploration here
// rather than B-I1's flat step ceiling.
func TestWalker_WhileTrueLoopTerminatesWithinVisitBound(t *testing.T) {
	method := &cfgmodel.MethodSymbol{Name: "f", IsVoid: true}

	exit := &cfgmodel.Block{Index: 2, IsMethodExitBlock: true}
	body := &cfgmodel.Block{Index: 1}
	loopHead := &cfgmodel.Block{Index: 0}

	var bodyElements []*cfgmodel.Element
	for i := 0; i < 50; i++ {
		bodyElements = append(bodyElements, &cfgmodel.Element{Kind: cfgmodel.KindIntLiteral, EndsStatement: true})
	}
	body.Elements = bodyElements
	body.Successors = []*cfgmodel.Block{loopHead}

	loopHead.Elements = []*cfgmodel.Element{{Kind: cfgmodel.KindBooleanLiteral, BoolValue: true}}
	loopHead.Terminator = &cfgmodel.Element{Kind: cfgmodel.KindWhileTerminator}
	loopHead.TrueSuccessor, loopHead.FalseSuccessor = body, exit

	cfg := cfgmodel.NewBuilder(loopHead).AddBlock(loopHead).AddBlock(body).AddBlock(exit).Build()

	// Run() itself is the assertion here: a bug that let B-I2 stop bounding
	// the loop head would make this hang instead of returning.
	runMethod(cfg, method, nil, config.Defaults())
}

// --- direct unit tests on step()'s bound enforcement ---

func newTestWalker(bounds config.Bounds) *Walker {
	entry := &cfgmodel.Block{Index: 0, IsMethodExitBlock: true}
	cfg := cfgmodel.NewBuilder(entry).AddBlock(entry).Build()
	method := &cfgmodel.MethodSymbol{Name: "f", IsVoid: true}
	registry := constraint.NewRegistry()
	dispatcher := checker.NewDispatcher()
	sink := issue.NewSink()
	behaviors := behavior.NewRegistry()
	return New(cfg, method, nil, bounds, registry, dispatcher, sink, behaviors)
}

// TestStep_DropsPathAfterMaxExecProgramPointVisits exercises B-I2 directly:
// a node whose program point has already been visited MaxExecProgramPoint
// times is dropped silently (nil, nil), not explored further.
func TestStep_DropsPathAfterMaxExecProgramPointVisits(t *testing.T) {
	bounds := config.Defaults()
	bounds.MaxExecProgramPoint = 2
	w := newTestWalker(bounds)

	pp := cfgmodel.ProgramPoint{Block: w.cfg.Entry, Index: 0}
	state := pstate.New().VisitedPoint(pp, bounds.MaxExecProgramPoint)
	n := &node{point: pp, state: state}

	next, err := w.step(n, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != nil {
		t.Fatalf("expected the path to be dropped silently, got %v", next)
	}
}

// TestStep_OversizeStateFiresNearHalfMaxSteps regression-tests B-I3: the
// walker must thread the live worklist length into step() and compare
// steps+worklistLen against MAX_STEPS/2, not the number of already-interned
// nodes (which would never exceed MaxSteps and so could never fire).
func TestStep_OversizeStateFiresNearHalfMaxSteps(t *testing.T) {
	bounds := config.Defaults()
	bounds.MaxSteps = 100
	bounds.ConstraintsSizeThreshold = 2
	w := newTestWalker(bounds)

	state := pstate.New()
	for i := 0; i < 3; i++ {
		val := w.cm.Factory().Fresh(sv.KindOpaque, nil)
		next, ok := state.AddConstraint(w.cm.Registry(), val, constraint.NotNullConstraint("test"))
		if !ok {
			t.Fatalf("unexpected constraint conflict building fixture state")
		}
		state = next
	}
	if state.ConstraintsSize() <= bounds.ConstraintsSizeThreshold {
		t.Fatalf("fixture state's constraints size %d does not exceed threshold %d", state.ConstraintsSize(), bounds.ConstraintsSizeThreshold)
	}

	w.steps = 40
	n := &node{point: cfgmodel.ProgramPoint{Block: w.cfg.Entry, Index: 0}, state: state}

	_, err := w.step(n, 20) // steps(41) + worklistLen(20) = 61 > MaxSteps/2(50)
	var ee *engerrors.EngineError
	if !errors.As(err, &ee) || ee.Kind != engerrors.KindOversizeState {
		t.Fatalf("expected OversizeState, got %v", err)
	}
}
