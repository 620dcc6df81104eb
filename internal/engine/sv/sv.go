// Package sv implements Symbolic Value (C1): opaque identity tokens for
// runtime values explored by the walker. An SV carries an optional
// "computed-from" provenance chain so later constraint inference (package
// constraintmgr) can relate the SV of `a == b` back to the SVs of `a` and
// `b`.
package sv

import "github.com/cwbudde/go-dws/internal/engine/cfgmodel"

// Kind tags how an SV was produced. Only a handful of kinds are
// semantically special to the engine (Equal/NotEqual/Not/Call feed
// relational constraint inference); everything else is Opaque.
type Kind int

const (
	KindOpaque Kind = iota
	KindEqual
	KindNotEqual
	KindNot
	KindCall
	KindException
)

// SV is an opaque identity token. Two SVs are the same value if and only
// if they are the same *SV — SVs are never compared by content, only by
// pointer identity, which is what lets Program State's bindings/constraints
// maps use them directly as keys.
type SV struct {
	id       uint64
	Kind     Kind
	Token    *cfgmodel.Element // the syntax element this SV was minted for, if any
	Operands []*SV             // computed-from provenance, set once at creation

	// ExceptionKind is set only on SVs minted by
	// CreateSymbolicExceptionValue; it names the thrown type.
	ExceptionKind string
}

// Well-known singletons. Every NULL binding in every state is this same
// pointer; likewise for TRUE and FALSE (invariant C-I2: package pstate's
// State.Constraints supplies their intrinsic constraints).
var (
	NULL  = &SV{id: 1, Kind: KindOpaque}
	TRUE  = &SV{id: 2, Kind: KindOpaque}
	FALSE = &SV{id: 3, Kind: KindOpaque}
)

// IsSingleton reports whether s is one of NULL, TRUE, FALSE.
func IsSingleton(s *SV) bool {
	return s == NULL || s == TRUE || s == FALSE
}

// Factory mints fresh, non-singleton SVs. It is owned by a single
// constraintmgr.ConstraintManager — see spec.md §5: state and all of its
// machinery belong exclusively to the walker analysing one method at a
// time.
type Factory struct {
	next uint64
}

// NewFactory creates a Factory whose first minted SV has an id distinct
// from the three singletons.
func NewFactory() *Factory {
	return &Factory{next: 4}
}

// Fresh mints a new SV of the given kind for the given syntax element
// (token may be nil for synthetic SVs such as default-unknown-method
// results).
func (f *Factory) Fresh(kind Kind, token *cfgmodel.Element) *SV {
	id := f.next
	f.next++
	return &SV{id: id, Kind: kind, Token: token}
}

// ComputedFrom records sv's operand provenance. It must be called at most
// once per SV, immediately after minting (spec.md §4.1).
func ComputedFrom(value *SV, operands ...*SV) *SV {
	value.Operands = operands
	return value
}
