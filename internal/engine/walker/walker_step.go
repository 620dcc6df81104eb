package walker

import (
	"github.com/cwbudde/go-dws/internal/engine/behavior"
	"github.com/cwbudde/go-dws/internal/engine/cfgmodel"
	"github.com/cwbudde/go-dws/internal/engine/checker"
	"github.com/cwbudde/go-dws/internal/engine/constraint"
	"github.com/cwbudde/go-dws/internal/engine/engerrors"
	"github.com/cwbudde/go-dws/internal/engine/pstate"
	"github.com/cwbudde/go-dws/internal/engine/sv"
)

// stepTerminator evaluates block's terminator (or its absence) and returns
// the successor nodes (spec.md §4.7).
func (w *Walker) stepTerminator(n *node, block *cfgmodel.Block) ([]*node, error) {
	term := block.Terminator
	if term == nil {
		switch {
		case n.pendingException != nil:
			return w.resumePendingException(n), nil
		case block.IsMethodExitBlock:
			w.endOfPath(n, nil, false)
			return nil, nil
		case block.ExitBlock != nil:
			return []*node{w.at(block.ExitBlock, n)}, nil
		case len(block.Successors) == 1:
			return []*node{w.at(block.Successors[0], n)}, nil
		default:
			return nil, w.invariantViolation(n.point, "block has no terminator and no unique successor")
		}
	}

	switch term.Kind {
	case cfgmodel.KindIfTerminator, cfgmodel.KindAndTerminator, cfgmodel.KindOrTerminator,
		cfgmodel.KindTernaryTerminator, cfgmodel.KindWhileTerminator, cfgmodel.KindDoWhileTerminator:
		return w.stepBranch(n, block, term)

	case cfgmodel.KindForTerminator:
		if !term.CheckPath {
			// A `for` with no condition never evaluates a stack value —
			// it always re-enters the body (spec.md §4.7, "Loop
			// termination").
			return []*node{w.at(block.TrueSuccessor, n)}, nil
		}
		return w.stepBranch(n, block, term)

	case cfgmodel.KindReturnTerminator:
		return w.stepReturn(n, term)

	case cfgmodel.KindThrowTerminator:
		popped, values, ok := n.state.Unstack(1)
		if !ok {
			return nil, w.invariantViolation(n.point, "throw with empty stack")
		}
		return w.raise(&node{point: n.point, state: popped}, block, values[0]), nil

	case cfgmodel.KindSynchronizedTerminator:
		next := n.state.ResetFieldValues(w.cm.Factory())
		if len(block.Successors) != 1 {
			return nil, w.invariantViolation(n.point, "synchronized terminator without a unique successor")
		}
		return []*node{w.at(block.Successors[0], &node{point: n.point, state: next})}, nil

	default:
		return nil, w.invariantViolation(n.point, "unrecognized terminator kind")
	}
}

// stepBranch pops the branch condition and splits into the false/true
// successor(s), notifying alwaysBoolean when one side is infeasible
// (spec.md §4.4/§4.7, invariant B-I4 on nested boolean state growth).
func (w *Walker) stepBranch(n *node, block *cfgmodel.Block, term *cfgmodel.Element) ([]*node, error) {
	if n.nestedBoolean+1 > w.bounds.MaxNestedBooleanStates {
		return nil, engerrors.NewBoundExceeded(w.method.Name, engerrors.MsgNestedBooleanExceeded, w.bounds.MaxNestedBooleanStates)
	}

	falseStates, trueStates := w.cm.AssumeDual(n.state)
	if len(falseStates) == 0 && len(trueStates) == 0 {
		return nil, nil // both sides infeasible: this path was already dead
	}
	if len(falseStates) == 0 || len(trueStates) == 0 {
		ctx := checker.NewContext(w.cm, w.sink, n.state)
		w.dispatcher.NotifyConditionAlways(ctx, term, len(trueStates) > 0)
	}

	var out []*node
	for _, s := range falseStates {
		out = append(out, w.at(block.FalseSuccessor, &node{point: n.point, state: s, nestedBoolean: n.nestedBoolean + 1,
			pendingException: n.pendingException, pendingRegion: n.pendingRegion}))
	}
	for _, s := range trueStates {
		out = append(out, w.at(block.TrueSuccessor, &node{point: n.point, state: s, nestedBoolean: n.nestedBoolean + 1,
			pendingException: n.pendingException, pendingRegion: n.pendingRegion}))
	}
	return out, nil
}

// stepReturn finishes a path normally. It also runs a non-branching
// feasibility check on a boolean return expression (DESIGN.md C7's
// generalization of spec.md scenario 5: `return !(a==a);` must still be
// flagged by alwaysBoolean even though `return` never appears in the
// literal branch-terminator list).
func (w *Walker) stepReturn(n *node, term *cfgmodel.Element) ([]*node, error) {
	state := n.state
	var result *sv.SV
	hasReturn := !w.method.IsVoid
	if hasReturn {
		popped, values, ok := state.Unstack(1)
		if !ok {
			return nil, w.invariantViolation(n.point, "return with empty stack")
		}
		state, result = popped, values[0]

		if w.method.ReturnsBoolean {
			falseStates, trueStates := w.cm.AssumeDual(state.StackValue(result))
			if len(falseStates) == 0 && len(trueStates) == 0 {
				return nil, nil
			}
			if len(falseStates) == 0 || len(trueStates) == 0 {
				ctx := checker.NewContext(w.cm, w.sink, state)
				w.dispatcher.NotifyConditionAlways(ctx, term, len(trueStates) > 0)
			}
		}
	}
	w.endOfPath(&node{point: n.point, state: state}, result, hasReturn)
	return nil, nil
}

// stepElement interprets one non-terminator CFG element (spec.md §4.7a)
// and advances to the next program point in the same block. A method
// invocation with more than one matching behavior yield can fan out into
// more than one successor node.
func (w *Walker) stepElement(n *node, block *cfgmodel.Block, el *cfgmodel.Element) ([]*node, error) {
	ctx := checker.NewContext(w.cm, w.sink, n.state)
	if w.dispatcher.PreStatement(ctx, el) {
		w.sinkWithException(&node{point: n.point, state: ctx.State()}, "NullPointerException")
		return nil, nil // a checker sank this path
	}
	state := ctx.State()

	states, err := w.interpret(state, el)
	if err != nil {
		return nil, err
	}

	var out []*node
	for _, s := range states {
		postCtx := checker.NewContext(w.cm, w.sink, s)
		w.dispatcher.PostStatement(postCtx, el)
		final := postCtx.State()
		if el.EndsStatement {
			final = final.ClearStack()
		}
		out = append(out, advance(&node{point: n.point, state: final, nestedBoolean: n.nestedBoolean,
			pendingException: n.pendingException, pendingRegion: n.pendingRegion}))
	}
	return out, nil
}

// interpret is the element-kind dispatch table itself (spec.md §4.7a).
func (w *Walker) interpret(state *pstate.State, el *cfgmodel.Element) ([]*pstate.State, error) {
	switch el.Kind {
	case cfgmodel.KindIntLiteral:
		return one(state.StackValue(w.cm.CreateSymbolicValue(el, sv.KindOpaque))), nil

	case cfgmodel.KindBooleanLiteral:
		if el.BoolValue {
			return one(state.StackValue(sv.TRUE)), nil
		}
		return one(state.StackValue(sv.FALSE)), nil

	case cfgmodel.KindNullLiteral:
		return one(state.StackValue(sv.NULL)), nil

	case cfgmodel.KindIdentifier:
		value, ok := state.Get(el.Sym)
		if !ok {
			value = w.cm.Factory().Fresh(sv.KindOpaque, el)
			state = state.Put(el.Sym, value)
		}
		return one(state.StackValue(value)), nil

	case cfgmodel.KindMemberSelect:
		popped, _, ok := state.Unstack(1)
		if !ok {
			return nil, w.invariantViolation(cfgmodel.ProgramPoint{}, "member select with empty stack")
		}
		value, has := popped.Get(el.Sym)
		if !has {
			value = w.cm.Factory().Fresh(sv.KindOpaque, el)
			popped = popped.Put(el.Sym, value)
		}
		return one(popped.StackValue(value)), nil

	case cfgmodel.KindDotClass:
		return one(state.StackValue(w.cm.CreateSymbolicValue(el, sv.KindOpaque))), nil

	case cfgmodel.KindArrayAccess:
		popped, _, ok := state.Unstack(el.NumArgs + 1)
		if !ok {
			return nil, w.invariantViolation(cfgmodel.ProgramPoint{}, "array access with too few stacked operands")
		}
		return one(popped.StackValue(w.cm.CreateSymbolicValue(el, sv.KindOpaque))), nil

	case cfgmodel.KindNewObject:
		popped, _, ok := state.Unstack(el.NumArgs)
		if !ok {
			return nil, w.invariantViolation(cfgmodel.ProgramPoint{}, "new-object with too few stacked arguments")
		}
		value := w.cm.CreateSymbolicValue(el, sv.KindOpaque)
		next := w.cm.SetSingleConstraint(popped, value, constraint.NotNullConstraint("new object"))
		if next == nil {
			return nil, nil
		}
		return one(next.StackValue(value)), nil

	case cfgmodel.KindNewArray:
		popped, _, ok := state.Unstack(el.NumArgs)
		if !ok {
			return nil, w.invariantViolation(cfgmodel.ProgramPoint{}, "new-array with too few stacked dimensions")
		}
		value := w.cm.CreateSymbolicValue(el, sv.KindOpaque)
		next := w.cm.SetSingleConstraint(popped, value, constraint.NotNullConstraint("new array"))
		if next == nil {
			return nil, nil
		}
		return one(next.StackValue(value)), nil

	case cfgmodel.KindBinary:
		popped, values, ok := state.Unstack(2)
		if !ok {
			return nil, w.invariantViolation(cfgmodel.ProgramPoint{}, "binary operator with too few stacked operands")
		}
		right, left := values[0], values[1]
		switch el.BinaryOp {
		case cfgmodel.OpEq:
			return one(popped.StackValue(w.cm.CreateSymbolicValue(el, sv.KindEqual, left, right))), nil
		case cfgmodel.OpNotEq:
			return one(popped.StackValue(w.cm.CreateSymbolicValue(el, sv.KindNotEqual, left, right))), nil
		default:
			return one(popped.StackValue(w.cm.CreateSymbolicValue(el, sv.KindOpaque))), nil
		}

	case cfgmodel.KindUnary:
		popped, values, ok := state.Unstack(1)
		if !ok {
			return nil, w.invariantViolation(cfgmodel.ProgramPoint{}, "unary operator with empty stack")
		}
		operand := values[0]
		switch el.UnaryOp {
		case cfgmodel.OpNot:
			return one(popped.StackValue(w.cm.CreateSymbolicValue(el, sv.KindNot, operand))), nil
		case cfgmodel.OpInstanceOf:
			// `x instanceof T` is always false when x is known null — a
			// fact worth tracking even though this core otherwise treats
			// instanceof results as opaque.
			if n, has := popped.Constraints(operand).Get(constraint.KindNullness); has {
				if nv, _ := n.Nullness(); nv == constraint.Null {
					return one(popped.StackValue(sv.FALSE)), nil
				}
			}
			return one(popped.StackValue(w.cm.CreateSymbolicValue(el, sv.KindOpaque))), nil
		default:
			return one(popped.StackValue(w.cm.CreateSymbolicValue(el, sv.KindOpaque))), nil
		}

	case cfgmodel.KindPrefixIncrDecr, cfgmodel.KindPostfixIncrDecr:
		popped, values, ok := state.Unstack(1)
		if !ok {
			return nil, w.invariantViolation(cfgmodel.ProgramPoint{}, "incr/decr with empty stack")
		}
		oldValue := values[0]
		newValue := w.cm.CreateSymbolicValue(el, sv.KindOpaque)
		next := popped.Put(el.Sym, newValue)
		if el.Kind == cfgmodel.KindPrefixIncrDecr {
			return one(next.StackValue(newValue)), nil
		}
		return one(next.StackValue(oldValue)), nil

	case cfgmodel.KindAssignment, cfgmodel.KindCompoundAssignment:
		// Pops only the right-hand side. The element table's "pops 2"
		// note describes a stack slot for the assignment target that
		// this core never pushes — assignment targets are restricted to
		// plain identifiers named directly on the element (el.Sym), with
		// no lvalue ever placed on the operand stack (see DESIGN.md).
		popped, values, ok := state.Unstack(1)
		if !ok {
			return nil, w.invariantViolation(cfgmodel.ProgramPoint{}, "assignment with empty stack")
		}
		rhs := values[0]
		next := popped.Put(el.Sym, rhs)
		return one(next.StackValue(rhs)), nil

	case cfgmodel.KindCastPrimitive:
		popped, _, ok := state.Unstack(1)
		if !ok {
			return nil, w.invariantViolation(cfgmodel.ProgramPoint{}, "primitive cast with empty stack")
		}
		return one(popped.StackValue(w.cm.CreateSymbolicValue(el, sv.KindOpaque))), nil

	case cfgmodel.KindCastReference:
		popped, values, ok := state.Unstack(1)
		if !ok {
			return nil, w.invariantViolation(cfgmodel.ProgramPoint{}, "reference cast with empty stack")
		}
		// A reference cast doesn't change identity or nullness.
		return one(popped.StackValue(values[0])), nil

	case cfgmodel.KindVarDeclWithInit:
		popped, values, ok := state.Unstack(1)
		if !ok {
			return nil, w.invariantViolation(cfgmodel.ProgramPoint{}, "variable declaration with empty stack")
		}
		return one(popped.Put(el.Sym, values[0])), nil

	case cfgmodel.KindVarDeclNoInit:
		return one(state.Put(el.Sym, w.defaultValue(el.Sym))), nil

	case cfgmodel.KindMethodInvocation:
		return w.interpretCall(state, el)

	case cfgmodel.KindLambda, cfgmodel.KindMethodRef:
		value := w.cm.CreateSymbolicValue(el, sv.KindOpaque)
		next := w.cm.SetSingleConstraint(state, value, constraint.NotNullConstraint("function value"))
		if next == nil {
			return nil, nil
		}
		return one(next.StackValue(value)), nil

	case cfgmodel.KindSystemExit:
		_, _, ok := state.Unstack(el.NumArgs)
		if !ok {
			return nil, w.invariantViolation(cfgmodel.ProgramPoint{}, "System.exit with too few stacked arguments")
		}
		return nil, nil // the process exits: no path continues, no yield recorded

	default:
		return nil, w.invariantViolation(cfgmodel.ProgramPoint{}, "unrecognized element kind")
	}
}

// defaultValue is the implicit initializer for a declared-but-uninitialized
// symbol (spec.md §4.7a): false for booleans, a fresh unconstrained value
// for other primitives, NULL for references.
func (w *Walker) defaultValue(sym *cfgmodel.Symbol) *sv.SV {
	switch {
	case sym.Boolean:
		return sv.FALSE
	case sym.Primitive:
		return w.cm.Factory().Fresh(sv.KindOpaque, nil)
	default:
		return sv.NULL
	}
}

// interpretCall handles KindMethodInvocation: it pops the receiver (unless
// the call is unqualified) and its arguments, then asks the behavior
// registry for a result. A callee with recorded yields fans out into one
// successor state per yield that unifies with the caller's current
// argument constraints (spec.md §4.5); an unknown or yield-less callee
// gets the default synthesized result.
func (w *Walker) interpretCall(state *pstate.State, el *cfgmodel.Element) ([]*pstate.State, error) {
	popCount := el.NumArgs
	if el.Receiver != cfgmodel.ReceiverNone {
		popCount++
	}
	popped, values, ok := state.Unstack(popCount)
	if !ok {
		return nil, w.invariantViolation(cfgmodel.ProgramPoint{}, "method invocation with too few stacked operands")
	}
	args := make([]*sv.SV, el.NumArgs)
	for i := 0; i < el.NumArgs; i++ {
		args[el.NumArgs-1-i] = values[i]
	}
	if el.Receiver != cfgmodel.ReceiverOther {
		// A local call (unqualified, this or super) may write any field.
		popped = popped.ResetFieldValues(w.cm.Factory())
	}

	method := el.Method
	var results []*pstate.State

	if b, found := w.behaviors.Get(method); found && len(b.Yields) > 0 {
		for _, y := range b.Yields {
			var resultSV *sv.SV
			callState := popped
			if !method.IsVoid {
				resultSV = w.cm.CreateSymbolicValue(el, sv.KindCall)
			}
			next, ok := behavior.ReplayYield(w.cm, callState, y, args, resultSV)
			if !ok {
				continue
			}
			if !method.IsVoid {
				next = next.StackValue(resultSV)
			}
			results = append(results, next)
		}
		if len(results) > 0 {
			return results, nil
		}
		// Every recorded yield was incompatible with this call site's
		// argument constraints — fall through to the default result
		// rather than dropping the path entirely.
	}

	next, result := behavior.DefaultResult(w.cm, popped, method, el)
	if !method.IsVoid {
		next = next.StackValue(result)
	}
	return one(next), nil
}

func one(s *pstate.State) []*pstate.State {
	return []*pstate.State{s}
}
