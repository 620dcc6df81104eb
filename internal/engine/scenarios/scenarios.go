package scenarios

import "github.com/cwbudde/go-dws/internal/engine/cfgmodel"

// Scenario bundles everything Run needs to analyze one example method.
type Scenario struct {
	Name   string
	CFG    *cfgmodel.CFG
	Method *cfgmodel.MethodSymbol
	Oracle *Oracle
}

// All returns every built-in scenario, in a fixed order.
func All() []Scenario {
	return []Scenario{
		NullDereference(),
		AlwaysFalseEqualsOnSelf(),
		UnclosedResource(),
		LockNotUnlocked(),
		NonNullSetToNull(),
	}
}

// NullDereference: void f(Object a) { a.hashCode(); } with a @Nullable —
// the NULL-bound starting state must report a dereference.
func NullDereference() Scenario {
	oracle := NewOracle()
	a := &cfgmodel.Symbol{Name: "a", Kind: cfgmodel.SymbolParameter}
	oracle.Annotate(a, cfgmodel.AnnotationNullable)

	hashCode := &cfgmodel.MethodSymbol{Name: "hashCode", IsVoid: false}
	entry := &cfgmodel.Block{Index: 0, IsMethodExitBlock: true}
	entry.Elements = []*cfgmodel.Element{
		{Kind: cfgmodel.KindIdentifier, Sym: a},
		{Kind: cfgmodel.KindMethodInvocation, Method: hashCode, NumArgs: 0, Receiver: cfgmodel.ReceiverOther, EndsStatement: true},
	}
	cfg := cfgmodel.NewBuilder(entry).AddBlock(entry).Build()
	method := &cfgmodel.MethodSymbol{Name: "f", Params: []*cfgmodel.Symbol{a}, IsVoid: true}
	return Scenario{Name: "nullDereference", CFG: cfg, Method: method, Oracle: oracle}
}

// AlwaysFalseEqualsOnSelf: boolean g(Object a) { return !(a == a); } — the
// always-boolean checker must flag the return expression as always false
// (spec.md scenario 5), even though `return` is not itself a branch.
func AlwaysFalseEqualsOnSelf() Scenario {
	oracle := NewOracle()
	a := &cfgmodel.Symbol{Name: "a", Kind: cfgmodel.SymbolParameter}

	entry := &cfgmodel.Block{Index: 0}
	entry.Elements = []*cfgmodel.Element{
		{Kind: cfgmodel.KindIdentifier, Sym: a},
		{Kind: cfgmodel.KindIdentifier, Sym: a},
		{Kind: cfgmodel.KindBinary, BinaryOp: cfgmodel.OpEq},
		{Kind: cfgmodel.KindUnary, UnaryOp: cfgmodel.OpNot},
	}
	entry.Terminator = &cfgmodel.Element{Kind: cfgmodel.KindReturnTerminator}
	cfg := cfgmodel.NewBuilder(entry).AddBlock(entry).Build()
	method := &cfgmodel.MethodSymbol{Name: "g", Params: []*cfgmodel.Symbol{a}, ReturnsBoolean: true}
	return Scenario{Name: "alwaysBoolean", CFG: cfg, Method: method, Oracle: oracle}
}

// UnclosedResource: void h() { FileInputStream fis = new FileInputStream();
// } with no matching close() call on any path.
func UnclosedResource() Scenario {
	oracle := NewOracle()
	fis := &cfgmodel.Symbol{Name: "fis", Kind: cfgmodel.SymbolLocal}
	ctor := &cfgmodel.MethodSymbol{Name: "FileInputStream", IsConstructor: true, OpensResource: true}

	entry := &cfgmodel.Block{Index: 0, IsMethodExitBlock: true}
	entry.Elements = []*cfgmodel.Element{
		{Kind: cfgmodel.KindNewObject, Method: ctor, NumArgs: 0},
		{Kind: cfgmodel.KindVarDeclWithInit, Sym: fis},
	}
	cfg := cfgmodel.NewBuilder(entry).AddBlock(entry).Build()
	method := &cfgmodel.MethodSymbol{Name: "h", IsVoid: true}
	return Scenario{Name: "unclosedResource", CFG: cfg, Method: method, Oracle: oracle}
}

// LockNotUnlocked: void k(Lock lock) { lock.lock(); } with no matching
// unlock() call on any path.
func LockNotUnlocked() Scenario {
	oracle := NewOracle()
	lock := &cfgmodel.Symbol{Name: "lock", Kind: cfgmodel.SymbolParameter}
	lockMethod := &cfgmodel.MethodSymbol{Name: "lock", IsVoid: true, AcquiresLock: true}

	entry := &cfgmodel.Block{Index: 0, IsMethodExitBlock: true}
	entry.Elements = []*cfgmodel.Element{
		{Kind: cfgmodel.KindIdentifier, Sym: lock},
		{Kind: cfgmodel.KindMethodInvocation, Method: lockMethod, NumArgs: 0, Receiver: cfgmodel.ReceiverOther, EndsStatement: true},
	}
	cfg := cfgmodel.NewBuilder(entry).AddBlock(entry).Build()
	method := &cfgmodel.MethodSymbol{Name: "k", Params: []*cfgmodel.Symbol{lock}, IsVoid: true}
	return Scenario{Name: "lockNotUnlocked", CFG: cfg, Method: method, Oracle: oracle}
}

// NonNullSetToNull: void m() { field = null; } with field annotated
// @Nonnull by the symbol oracle.
func NonNullSetToNull() Scenario {
	oracle := NewOracle()
	field := &cfgmodel.Symbol{Name: "field", Kind: cfgmodel.SymbolField}
	oracle.Annotate(field, cfgmodel.AnnotationNonnull)

	entry := &cfgmodel.Block{Index: 0, IsMethodExitBlock: true}
	entry.Elements = []*cfgmodel.Element{
		{Kind: cfgmodel.KindNullLiteral},
		{Kind: cfgmodel.KindAssignment, Sym: field, EndsStatement: true},
	}
	cfg := cfgmodel.NewBuilder(entry).AddBlock(entry).Build()
	method := &cfgmodel.MethodSymbol{Name: "m", IsVoid: true}
	return Scenario{Name: "nonNullSetToNull", CFG: cfg, Method: method, Oracle: oracle}
}
