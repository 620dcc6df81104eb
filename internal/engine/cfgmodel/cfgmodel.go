// Package cfgmodel gives the walker (package walker) something concrete to
// interpret: a control-flow graph made of blocks of Elements, a symbol
// oracle that classifies those elements, and the program-point type the
// walker's worklist is keyed on.
//
// Building these graphs from real analyzed-language source is explicitly
// out of scope (see spec.md §1, Non-goals) — this package models only the
// external interfaces the core consumes (spec.md §6). Builder lets tests
// and the built-in scenarios (package scenarios, selected by name from
// cmd/seexplore) assemble a CFG literal without a front end.
package cfgmodel

// Position is a 1-based source location, used only for issue reporting.
type Position struct {
	Line   int
	Column int
}

// SymbolKind classifies a Symbol the way the (external) symbol oracle would.
type SymbolKind int

const (
	SymbolLocal SymbolKind = iota
	SymbolParameter
	SymbolField
)

// Symbol is an analyzed-language variable, parameter, or field. Symbols are
// interned by the front end; the engine treats them as opaque comparable
// identities and never inspects Name except for diagnostics.
type Symbol struct {
	Name string
	Kind SymbolKind
	// Boolean reports whether the symbol has boolean type — needed for
	// variable-decl-without-initializer default binding (spec.md §4.7a).
	Boolean bool
	// Primitive reports whether the symbol has primitive (non-reference)
	// type — needed for the same default-binding rule and for cast
	// interpretation.
	Primitive bool
}

// Annotation names the engine must be able to recognize (spec.md §6).
type Annotation string

const (
	AnnotationNonnull     Annotation = "Nonnull"
	AnnotationNullable    Annotation = "Nullable"
	AnnotationCheckForNull Annotation = "CheckForNull"
)

// MethodSymbol identifies a callee at an invocation site.
type MethodSymbol struct {
	Name           string
	Params         []*Symbol
	IsConstructor  bool
	IsVoid         bool
	IsEqualsMethod bool // equals(Object) with one parameter — starts dual states
	ReturnsNonnull bool
	// ReturnsBoolean lets the walker run a non-branching always-true/false
	// feasibility check on `return` expressions (DESIGN.md, C7,
	// generalizing spec.md scenario 5 beyond the literal branch-terminator
	// list).
	ReturnsBoolean bool
	// HeapEscaping marks sentinels like Object.wait that the default
	// unknown-method behavior must treat as havocking fields.
	HeapEscaping bool

	// OpensResource/ClosesResource/AcquiresLock/ReleasesLock let the
	// unclosedResource and lockNotUnlocked checkers (SPEC_FULL.md §4.6a)
	// recognize calls like `new FileInputStream(...)`, `.close()`,
	// `lock.lock()`, `lock.unlock()` without needing a real type system —
	// the (external, non-goal) symbol oracle is expected to set these
	// from the analyzed language's actual standard library knowledge.
	OpensResource   bool
	ClosesResource  bool
	AcquiresLock    bool
	ReleasesLock    bool
}

// ElementKind is the closed tag set interpreted by walker's element
// dispatch (spec.md §4.7a) plus the terminator kinds of §4.7.
type ElementKind int

const (
	KindIntLiteral ElementKind = iota
	KindBooleanLiteral
	KindNullLiteral
	KindIdentifier
	KindMemberSelect
	KindDotClass // `.class` — does not pop a receiver
	KindArrayAccess
	KindNewObject
	KindNewArray
	KindBinary
	KindUnary
	KindPrefixIncrDecr
	KindPostfixIncrDecr
	KindAssignment
	KindCompoundAssignment
	KindCastPrimitive
	KindCastReference
	KindVarDeclWithInit
	KindVarDeclNoInit
	KindMethodInvocation
	KindLambda
	KindMethodRef
	KindSystemExit

	// Terminator kinds.
	KindIfTerminator
	KindAndTerminator
	KindOrTerminator
	KindTernaryTerminator
	KindForTerminator
	KindWhileTerminator
	KindDoWhileTerminator
	KindReturnTerminator
	KindThrowTerminator
	KindSynchronizedTerminator
)

// BinaryOp tags a KindBinary element's operator for computed-from
// bookkeeping; only Eq/NotEq feed the relational branching path.
type BinaryOp int

const (
	OpEq BinaryOp = iota
	OpNotEq
	OpOther
)

// UnaryOp tags a KindUnary element's operator.
type UnaryOp int

const (
	OpNot UnaryOp = iota
	OpOtherUnary
	OpInstanceOf
)

// ReceiverKind classifies a method-invocation element's receiver, needed to
// decide whether a call is "local" (triggers reset_field_values).
type ReceiverKind int

const (
	ReceiverNone ReceiverKind = iota // unqualified call
	ReceiverThis
	ReceiverSuper
	ReceiverOther
)

// Element is the engine's stand-in for an analyzed-language syntax tree
// node. Real trees are richer; the engine only ever needs the fields below
// to interpret one CFG element (spec.md §9: "a single match/switch per
// step is preferred over virtual dispatch").
type Element struct {
	Kind ElementKind
	Pos  Position

	// Sym is set for KindIdentifier, KindVarDecl*, and as the assignment
	// target for KindAssignment/KindCompoundAssignment/KindPrefixIncrDecr/
	// KindPostfixIncrDecr (identifier-LHS only, per spec.md §9 Open
	// Questions).
	Sym *Symbol

	// BoolValue carries a KindBooleanLiteral's value.
	BoolValue bool

	// NumArgs is the number of stacked argument/dimension/index values for
	// KindNewObject/KindNewArray/KindMethodInvocation/KindArrayAccess/
	// KindSystemExit. A KindArrayAccess, and a KindMethodInvocation with a
	// receiver, pop one value more (the array or the receiver).
	NumArgs int

	BinaryOp BinaryOp
	UnaryOp  UnaryOp

	Method   *MethodSymbol
	Receiver ReceiverKind

	// ExceptionKind names the thrown/caught type for KindThrowTerminator
	// and catch-clause matching (package excwalker).
	ExceptionKind string

	// CheckPath is false only for a `for` terminator with no condition
	// (spec.md §4.7, "Loop termination").
	CheckPath bool

	// EndsStatement marks the last element of a top-level expression
	// statement (a bare method call, a standalone assignment, ...): the
	// walker clears the operand stack after interpreting it, since
	// nothing downstream reads the discarded result (spec.md §4.7a,
	// post_statement).
	EndsStatement bool
}

// Block is one CFG basic block.
type Block struct {
	Index      int
	Elements   []*Element
	Terminator *Element // nil if the block has no terminator

	Successors     []*Block
	TrueSuccessor  *Block
	FalseSuccessor *Block

	// ExitBlock is the block a finally block falls through to once its
	// own statements finish (its "conceptual" successor set is handled
	// by excwalker instead of Successors).
	ExitBlock *Block

	IsFinallyBlock    bool
	IsMethodExitBlock bool
}

// CatchClause is one catch arm of a try statement.
type CatchClause struct {
	// ExceptionKind is the caught type; "" matches any thrown value
	// (`catch (Exception e)` at the root of the hierarchy).
	ExceptionKind string
	Handler       *Block
}

// TryRegion associates the blocks lexically inside one try statement with
// its catch clauses and optional finally block — the engine's stand-in for
// "walking enclosing try-regions" over a real syntax tree (spec.md §4.8).
type TryRegion struct {
	Catches []CatchClause
	// Finally is the region's finally block, or nil if the try has none.
	Finally *Block
	// Parent is the next-enclosing TryRegion, consulted when no catch
	// here matches (nil at the outermost try).
	Parent *TryRegion
}

// CFG is the method-level control-flow graph the walker explores.
type CFG struct {
	Blocks []*Block
	Entry  *Block

	// liveOut is supplied at construction time by whatever builds the
	// CFG (a non-goal of this module — see Build); the walker only reads
	// it back via LiveOut.
	liveOut map[*Block]map[*Symbol]bool

	// tryRegionOf maps each block guarded by a try statement to that
	// try's innermost TryRegion; blocks outside any try are absent.
	tryRegionOf map[*Block]*TryRegion
}

// TryRegionOf returns the innermost TryRegion guarding block, if any.
func (g *CFG) TryRegionOf(block *Block) (*TryRegion, bool) {
	if g.tryRegionOf == nil {
		return nil, false
	}
	r, ok := g.tryRegionOf[block]
	return r, ok
}

// LiveOut returns the liveness oracle's answer for block, defaulting to an
// empty set when the builder did not supply one.
func (g *CFG) LiveOut(block *Block) map[*Symbol]bool {
	if g.liveOut == nil {
		return nil
	}
	return g.liveOut[block]
}

// ProgramPoint is a position within a CFG: a block plus either the index
// of the next element to interpret, or len(Elements) to mean "evaluate the
// terminator".
type ProgramPoint struct {
	Block *Block
	Index int
}

// AtTerminator reports whether pp denotes "evaluate the terminator".
func (pp ProgramPoint) AtTerminator() bool {
	return pp.Index == len(pp.Block.Elements)
}

// SymbolOracle classifies Elements and Symbols the way the (external,
// non-goal) symbol resolver would (spec.md §6).
type SymbolOracle interface {
	// SymbolOf returns the Symbol an identifier Element refers to,
	// minting a fresh one on first sight if the oracle tracks none yet.
	SymbolOf(e *Element) *Symbol
	HasAnnotation(s *Symbol, a Annotation) bool
}

// Builder assembles a CFG literal; it exists only for tests and the
// built-in scenarios package.All() serves up to cmd/seexplore, never for
// parsing real source.
type Builder struct {
	cfg         *CFG
	liveOut     map[*Block]map[*Symbol]bool
	tryRegionOf map[*Block]*TryRegion
}

// NewBuilder starts a new CFG literal with the given entry block.
func NewBuilder(entry *Block) *Builder {
	return &Builder{cfg: &CFG{Entry: entry}}
}

// AddBlock appends block to the graph being built.
func (b *Builder) AddBlock(block *Block) *Builder {
	b.cfg.Blocks = append(b.cfg.Blocks, block)
	return b
}

// SetLiveOut records the liveness oracle's answer for block.
func (b *Builder) SetLiveOut(block *Block, live map[*Symbol]bool) *Builder {
	if b.liveOut == nil {
		b.liveOut = make(map[*Block]map[*Symbol]bool)
	}
	b.liveOut[block] = live
	return b
}

// SetTryRegion records that block is guarded by region.
func (b *Builder) SetTryRegion(block *Block, region *TryRegion) *Builder {
	if b.tryRegionOf == nil {
		b.tryRegionOf = make(map[*Block]*TryRegion)
	}
	b.tryRegionOf[block] = region
	return b
}

// Build finalizes the CFG.
func (b *Builder) Build() *CFG {
	b.cfg.liveOut = b.liveOut
	b.cfg.tryRegionOf = b.tryRegionOf
	return b.cfg
}
