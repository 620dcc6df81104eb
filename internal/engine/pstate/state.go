// Package pstate implements Program State (C3): the walker's immutable
// snapshot of bindings, constraints, operand stack, and per-point visit
// counts, plus the small algebra of operations spec.md §4.3 names. Every
// operation returns a new State; none mutate (invariant S-I1).
package pstate

import (
	"unsafe"

	"github.com/cwbudde/go-dws/internal/engine/cfgmodel"
	"github.com/cwbudde/go-dws/internal/engine/constraint"
	"github.com/cwbudde/go-dws/internal/engine/sv"
)

type stackNode struct {
	value *sv.SV
	next  *stackNode
}

// State is an immutable program state (spec.md §3). The zero value is not
// usable — start from New().
type State struct {
	bindings    *pmap[*cfgmodel.Symbol, *sv.SV]
	constraints *pmap[*sv.SV, constraint.Set]
	stack       *stackNode
	stackLen    int
	visits      *pmap[cfgmodel.ProgramPoint, int]
}

// New creates the empty starting state.
func New() *State {
	return &State{
		bindings:    newPMap[*cfgmodel.Symbol, *sv.SV](),
		constraints: newPMap[*sv.SV, constraint.Set](),
		visits:      newPMap[cfgmodel.ProgramPoint, int](),
	}
}

func (s *State) clone() *State {
	c := *s
	return &c
}

// StackValue pushes v on the operand stack.
func (s *State) StackValue(v *sv.SV) *State {
	next := s.clone()
	next.stack = &stackNode{value: v, next: s.stack}
	next.stackLen = s.stackLen + 1
	return next
}

// Unstack pops n values from the top of the stack. The returned slice is
// top-first (unstack(2) on [..., a, b] with b on top returns [b, a]). ok is
// false if the stack holds fewer than n values, per spec.md §4.3.
func (s *State) Unstack(n int) (next *State, values []*sv.SV, ok bool) {
	if n == 0 {
		return s, nil, true
	}
	if s.stackLen < n {
		return nil, nil, false
	}
	values = make([]*sv.SV, 0, n)
	node := s.stack
	for i := 0; i < n; i++ {
		values = append(values, node.value)
		node = node.next
	}
	next = s.clone()
	next.stack = node
	next.stackLen = s.stackLen - n
	return next, values, true
}

// Peek returns the top of the stack without popping it.
func (s *State) Peek() (*sv.SV, bool) {
	if s.stack == nil {
		return nil, false
	}
	return s.stack.value, true
}

// PeekAt returns the SV depth entries below the top of the stack (0 is the
// top, same as Peek) without popping anything. Used by checkers that need
// to inspect a receiver buried under already-evaluated call arguments.
func (s *State) PeekAt(depth int) (*sv.SV, bool) {
	node := s.stack
	for i := 0; i < depth; i++ {
		if node == nil {
			return nil, false
		}
		node = node.next
	}
	if node == nil {
		return nil, false
	}
	return node.value, true
}

// ClearStack empties the operand stack (invoked after expression
// statements, spec.md §4.7a post_statement).
func (s *State) ClearStack() *State {
	if s.stack == nil {
		return s
	}
	next := s.clone()
	next.stack = nil
	next.stackLen = 0
	return next
}

// Put binds symbol to v. If symbol is nil (no modeled assignment target)
// or already bound to v, Put returns s unchanged (spec.md §4.3).
func (s *State) Put(symbol *cfgmodel.Symbol, v *sv.SV) *State {
	if symbol == nil {
		return s
	}
	if existing, ok := s.bindings.get(symbol); ok && existing == v {
		return s
	}
	next := s.clone()
	next.bindings = s.bindings.put(symbol, v)
	return next
}

// Get looks up symbol's current SV binding.
func (s *State) Get(symbol *cfgmodel.Symbol) (*sv.SV, bool) {
	if symbol == nil {
		return nil, false
	}
	return s.bindings.get(symbol)
}

// AddConstraint merges c onto value's constraint set using registry's meet
// for c.Kind. ok is false if the merge is bottom — the caller must treat
// the state as infeasible and drop it.
func (s *State) AddConstraint(registry *constraint.Registry, value *sv.SV, c constraint.Constraint) (next *State, ok bool) {
	existing := s.Constraints(value) // picks up NULL/TRUE/FALSE's intrinsic fact
	merged, ok := existing.With(registry, c)
	if !ok {
		return nil, false
	}
	next = s.clone()
	next.constraints = s.constraints.put(value, merged)
	return next, true
}

// Constraints returns the constraint set attached to value. The NULL,
// TRUE, and FALSE singletons always carry their intrinsic nullness/boolean
// fact (invariant C-I2) whether or not anything ever called AddConstraint
// on them explicitly.
func (s *State) Constraints(value *sv.SV) constraint.Set {
	set, _ := s.constraints.get(value)
	return withIntrinsic(set, value)
}

func withIntrinsic(set constraint.Set, value *sv.SV) constraint.Set {
	var intrinsic constraint.Constraint
	switch value {
	case sv.NULL:
		intrinsic = constraint.NullConstraint()
	case sv.TRUE:
		intrinsic = constraint.TrueConstraint()
	case sv.FALSE:
		intrinsic = constraint.FalseConstraint()
	default:
		return set
	}
	if _, has := set.Get(intrinsic.Kind); has {
		return set
	}
	// The registry argument is unused on this path (With only calls Meet
	// when a constraint of the same kind already exists), so nil is safe.
	merged, _ := set.With(nil, intrinsic)
	return merged
}

// ResetFieldValues forgets every field binding, rebinding each field
// symbol currently in scope to a fresh, unconstrained SV (heap havocking
// on local calls and synchronized blocks, spec.md §4.3/§4.7).
func (s *State) ResetFieldValues(factory *sv.Factory) *State {
	next := s
	s.bindings.forEach(func(sym *cfgmodel.Symbol, _ *sv.SV) bool {
		if sym.Kind == cfgmodel.SymbolField {
			next = next.Put(sym, factory.Fresh(sv.KindOpaque, nil))
		}
		return true
	})
	return next
}

// CleanupDeadSymbols drops bindings whose symbol is not in live (spec.md
// §4.3/§4.7: live is live-out(block) unioned with the method behavior's
// interface symbols).
func (s *State) CleanupDeadSymbols(live map[*cfgmodel.Symbol]bool) *State {
	var dead []*cfgmodel.Symbol
	s.bindings.forEach(func(sym *cfgmodel.Symbol, _ *sv.SV) bool {
		if !live[sym] {
			dead = append(dead, sym)
		}
		return true
	})
	if len(dead) == 0 {
		return s
	}
	next := s.clone()
	b := s.bindings
	for _, sym := range dead {
		b = b.delete(sym)
	}
	next.bindings = b
	return next
}

// CleanupConstraints drops constraint entries for SVs no longer reachable
// from bindings or the stack — the second state-space reducer named in
// spec.md §4.7.
func (s *State) CleanupConstraints() *State {
	reachable := make(map[*sv.SV]bool)
	s.bindings.forEach(func(_ *cfgmodel.Symbol, v *sv.SV) bool {
		reachable[v] = true
		return true
	})
	for n := s.stack; n != nil; n = n.next {
		reachable[n.value] = true
	}

	var unreachable []*sv.SV
	s.constraints.forEach(func(v *sv.SV, _ constraint.Set) bool {
		if !reachable[v] {
			unreachable = append(unreachable, v)
		}
		return true
	})
	if len(unreachable) == 0 {
		return s
	}
	next := s.clone()
	c := s.constraints
	for _, v := range unreachable {
		c = c.delete(v)
	}
	next.constraints = c
	return next
}

// VisitedPoint returns a new state recording that pp has now been visited
// count times along the current path.
func (s *State) VisitedPoint(pp cfgmodel.ProgramPoint, count int) *State {
	next := s.clone()
	next.visits = s.visits.put(pp, count)
	return next
}

// NumberOfTimesVisited reads how many times pp has been visited so far
// along the current path.
func (s *State) NumberOfTimesVisited(pp cfgmodel.ProgramPoint) int {
	n, _ := s.visits.get(pp)
	return n
}

// ConstraintsSize is the total number of (SV, constraint-kind) facts held
// by this state — the oversize guard's input (spec.md §4.7 B-I3).
func (s *State) ConstraintsSize() int {
	total := 0
	s.constraints.forEach(func(_ *sv.SV, set constraint.Set) bool {
		total += set.Len()
		return true
	})
	return total
}

// ConstraintsOfKind returns every SV currently carrying a constraint of
// kind, keyed by SV. Checkers that must scan for a fact at end-of-path
// (e.g. unclosedResource's "any resource still open?") use this instead of
// looking one SV up at a time.
func (s *State) ConstraintsOfKind(kind constraint.Kind) map[*sv.SV]constraint.Constraint {
	result := make(map[*sv.SV]constraint.Constraint)
	s.constraints.forEach(func(v *sv.SV, set constraint.Set) bool {
		if c, ok := set.Get(kind); ok {
			result[v] = c
		}
		return true
	})
	return result
}

// Equal implements the engine's "forgetful" equality (invariant S-I2):
// only bindings, constraints, and the top of the stack participate. The
// rest of the stack and the visit-count map are deliberately ignored —
// this is the engine's main state-space reducer.
func (s *State) Equal(other *State) bool {
	if s == other {
		return true
	}
	top, topOK := s.Peek()
	otherTop, otherTopOK := other.Peek()
	if topOK != otherTopOK || (topOK && top != otherTop) {
		return false
	}
	if !s.bindings.equal(other.bindings, func(a, b *sv.SV) bool { return a == b }) {
		return false
	}
	return s.constraints.equal(other.constraints, constraintSetEqual)
}

func constraintSetEqual(a, b constraint.Set) bool {
	return a.Equal(b)
}

// Hash returns an order-independent digest of (bindings, constraints,
// peek()) suitable for bucketing States before calling Equal — used by
// package walker to intern exploded-graph nodes.
func (s *State) Hash() uint64 {
	var h uint64 = 1469598103934665603 // FNV offset basis
	// Entries are combined by addition, so the digest does not depend on
	// the (unspecified) order in which forEach visits them.
	mix := func(x uint64) {
		h += x * 1099511628211
	}
	s.bindings.forEach(func(sym *cfgmodel.Symbol, v *sv.SV) bool {
		mix(ptrHash(sym) ^ ptrHash(v))
		return true
	})
	s.constraints.forEach(func(v *sv.SV, set constraint.Set) bool {
		mix(ptrHash(v) ^ uint64(set.Len())*31)
		return true
	})
	if top, ok := s.Peek(); ok {
		mix(ptrHash(top) * 7)
	}
	return h
}

func ptrHash[T any](p *T) uint64 {
	return uint64(uintptr(unsafe.Pointer(p)))
}
