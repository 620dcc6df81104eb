// Package excwalker implements the Exception Walker (C8): given a thrown
// value and the block it was thrown from, find where control resumes —
// a matching catch clause, an intervening finally block (run with the
// "exit path" flag so it knows an exception is still in flight once it
// falls through), or nowhere, in which case the method itself yields the
// exception to its caller (spec.md §4.8).
package excwalker

import "github.com/cwbudde/go-dws/internal/engine/cfgmodel"

// Outcome classifies one step of the handler search.
type Outcome int

const (
	// OutcomeHandled means Target is a catch clause's handler block; the
	// exception stops propagating here.
	OutcomeHandled Outcome = iota
	// OutcomeFinally means Target is a finally block that must run before
	// the search continues at Next (ExitPath is always true here).
	OutcomeFinally
	// OutcomeUnhandled means no enclosing try in this method catches the
	// exception — the method yields it to its caller (package behavior).
	OutcomeUnhandled
)

// Result is one step of Handle. A caller that gets OutcomeFinally must run
// Target and then call Handle(Next, exceptionKind) to continue the search
// once the finally block completes normally (spec.md §4.8: a finally that
// itself exits unconditionally — return/throw/break — replaces the
// original exception instead of re-raising it; that decision belongs to
// the walker, which sees the finally block's own exit, not to this
// package).
type Result struct {
	Outcome  Outcome
	Target   *cfgmodel.Block
	ExitPath bool
	Next     *cfgmodel.TryRegion
}

// StartingRegion returns the innermost TryRegion guarding block, or nil if
// block is not inside any try statement.
func StartingRegion(cfg *cfgmodel.CFG, block *cfgmodel.Block) *cfgmodel.TryRegion {
	region, _ := cfg.TryRegionOf(block)
	return region
}

// Handle searches region and its enclosing regions (syntactic parent
// walking, spec.md §4.8) for a catch clause matching exceptionKind. An
// empty ExceptionKind on a CatchClause matches anything, modeling a root
// "catch (Exception e)" arm.
func Handle(region *cfgmodel.TryRegion, exceptionKind string) Result {
	for region != nil {
		for _, cc := range region.Catches {
			if cc.ExceptionKind == "" || cc.ExceptionKind == exceptionKind {
				return Result{Outcome: OutcomeHandled, Target: cc.Handler}
			}
		}
		if region.Finally != nil {
			return Result{Outcome: OutcomeFinally, Target: region.Finally, ExitPath: true, Next: region.Parent}
		}
		region = region.Parent
	}
	return Result{Outcome: OutcomeUnhandled}
}
