package irgen

import (
	"fmt"
	"strconv"

	"sysyc/src/ast"
	"sysyc/src/util"
)

// lowerExpr lowers one expression node, folding it to a compile-time constant
// whenever every operand is itself constant (spec §4.2.3: "no IR is emitted
// for a fully-constant subexpression"), and otherwise emitting the
// instruction(s) needed to compute it into a fresh temporary. A non-const
// identifier reference always emits its load here, at first use, rather than
// deferring to whichever caller eventually consumes the value — that keeps
// the "a load precedes every use" rule uniform across binary operands,
// return statements and store statements alike.
func (b *Builder) lowerExpr(n *ast.Node, blockID int) (result, error) {
	switch n.Kind {
	case ast.ExprNumber:
		return result{isConst: true, val: n.Num}, nil
	case ast.ExprLVal:
		return b.lowerLVal(n, blockID)
	case ast.ExprUnary:
		return b.lowerUnary(n, blockID)
	case ast.ExprBinary:
		return b.lowerBinary(n, blockID)
	default:
		return result{}, util.NewError(util.ParseShape, blockID, "unexpected expression kind "+n.Kind.String())
	}
}

func (b *Builder) lowerLVal(n *ast.Node, blockID int) (result, error) {
	mangled, sym, err := b.ctx.GetNodeFromSBT(blockID, n.Name)
	if err != nil {
		return result{}, err
	}
	if sym.IsConst {
		return result{isConst: true, val: sym.ConstVal}, nil
	}
	t, err := b.ctx.AllocTemp()
	if err != nil {
		return result{}, err
	}
	ref := fmt.Sprintf("%%%d", t)
	fmt.Fprintf(&b.sb, "  %s = load @%s\n", ref, mangled)
	return result{ref: ref}, nil
}

func (b *Builder) lowerUnary(n *ast.Node, blockID int) (result, error) {
	x, err := b.lowerExpr(n.Children[0], blockID)
	if err != nil {
		return result{}, err
	}
	if x.isConst {
		switch n.Un {
		case ast.OpPos:
			return x, nil
		case ast.OpNeg:
			return result{isConst: true, val: -x.val}, nil
		case ast.OpNot:
			return result{isConst: true, val: boolToInt(x.val == 0)}, nil
		}
	}
	switch n.Un {
	case ast.OpPos:
		return x, nil
	case ast.OpNeg:
		return b.emitBinary("sub", result{isConst: true, val: 0}, x)
	case ast.OpNot:
		return b.emitBinary("eq", x, result{isConst: true, val: 0})
	}
	return result{}, util.NewError(util.ParseShape, blockID, "unknown unary operator")
}

func (b *Builder) lowerBinary(n *ast.Node, blockID int) (result, error) {
	l, err := b.lowerExpr(n.Children[0], blockID)
	if err != nil {
		return result{}, err
	}

	// Short-circuit shapes: && and || fold immediately once the left side is
	// decided by a constant, since the right side is logically untouched.
	if n.Bin == ast.OpAnd && l.isConst && l.val == 0 {
		return result{isConst: true, val: 0}, nil
	}
	if n.Bin == ast.OpOr && l.isConst && l.val != 0 {
		return result{isConst: true, val: 1}, nil
	}

	r, err := b.lowerExpr(n.Children[1], blockID)
	if err != nil {
		return result{}, err
	}

	if n.Bin == ast.OpAnd || n.Bin == ast.OpOr {
		if l.isConst && r.isConst {
			lb, rb := l.val != 0, r.val != 0
			if n.Bin == ast.OpAnd {
				return result{isConst: true, val: boolToInt(lb && rb)}, nil
			}
			return result{isConst: true, val: boolToInt(lb || rb)}, nil
		}
		return b.lowerLogical(n.Bin, l, r)
	}

	if l.isConst && r.isConst {
		v, err := foldArith(n.Bin, l.val, r.val, blockID)
		if err != nil {
			return result{}, err
		}
		return result{isConst: true, val: v}, nil
	}

	op, err := binOpInsn(n.Bin)
	if err != nil {
		return result{}, err
	}
	return b.emitBinary(op, l, r)
}

// lowerLogical normalises && and || to the IR's primitive ops (spec §6.4:
// Koopa has no boolean and/or instruction, only bitwise and/or over 0/1
// values), coercing each operand to 0/1 first via `ne 0`.
func (b *Builder) lowerLogical(op ast.BinOp, l, r result) (result, error) {
	lb, err := b.emitBinary("ne", l, result{isConst: true, val: 0})
	if err != nil {
		return result{}, err
	}
	rb, err := b.emitBinary("ne", r, result{isConst: true, val: 0})
	if err != nil {
		return result{}, err
	}
	insn := "and"
	if op == ast.OpOr {
		insn = "or"
	}
	return b.emitBinary(insn, lb, rb)
}

func (b *Builder) emitBinary(insn string, l, r result) (result, error) {
	t, err := b.ctx.AllocTemp()
	if err != nil {
		return result{}, err
	}
	ref := fmt.Sprintf("%%%d", t)
	fmt.Fprintf(&b.sb, "  %s = %s %s, %s\n", ref, insn, l.operand(), r.operand())
	return result{ref: ref}, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

// foldArith evaluates a constant binary arithmetic/comparison operator at
// compile time. A folded division or modulo by zero is reported as a fatal
// compile error rather than deferred to runtime, since the dividend and
// divisor are both already known.
func foldArith(op ast.BinOp, l, r, blockID int) (int, error) {
	switch op {
	case ast.OpAdd:
		return l + r, nil
	case ast.OpSub:
		return l - r, nil
	case ast.OpMul:
		return l * r, nil
	case ast.OpDiv:
		if r == 0 {
			return 0, util.NewError(util.UnsupportedOp, blockID, "division by zero in constant expression")
		}
		return l / r, nil
	case ast.OpMod:
		if r == 0 {
			return 0, util.NewError(util.UnsupportedOp, blockID, "modulo by zero in constant expression")
		}
		return l % r, nil
	case ast.OpLt:
		return boolToInt(l < r), nil
	case ast.OpLe:
		return boolToInt(l <= r), nil
	case ast.OpGt:
		return boolToInt(l > r), nil
	case ast.OpGe:
		return boolToInt(l >= r), nil
	case ast.OpEq:
		return boolToInt(l == r), nil
	case ast.OpNe:
		return boolToInt(l != r), nil
	default:
		return 0, util.NewError(util.ParseShape, blockID, "unknown binary operator "+strconv.Itoa(int(op)))
	}
}

// binOpInsn maps an AST binary operator to its Koopa instruction mnemonic
// (spec §6.4).
func binOpInsn(op ast.BinOp) (string, error) {
	switch op {
	case ast.OpAdd:
		return "add", nil
	case ast.OpSub:
		return "sub", nil
	case ast.OpMul:
		return "mul", nil
	case ast.OpDiv:
		return "div", nil
	case ast.OpMod:
		return "mod", nil
	case ast.OpLt:
		return "lt", nil
	case ast.OpLe:
		return "le", nil
	case ast.OpGt:
		return "gt", nil
	case ast.OpGe:
		return "ge", nil
	case ast.OpEq:
		return "eq", nil
	case ast.OpNe:
		return "ne", nil
	default:
		return "", util.NewError(util.ParseShape, -1, "operator has no Koopa instruction form")
	}
}
