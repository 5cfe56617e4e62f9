// Package riscv is the RISC-V Emitter of spec §4.5: the second hard
// subsystem. It walks the parsed IR graph (src/koopa) one instruction at a
// time, allocates a stack frame per function via src/stackalloc, and emits
// the corresponding RISC-V 32-bit assembly sequence, using t0/t1 as the
// universal work registers the stack-spill calling convention relies on
// (spec's Non-goals: no cross-instruction register allocation). Shaped after
// the teacher's backend/riscv/riscv.go: one Emit-style entry point per IR
// variant, writing through the shared util.Writer.
package riscv

import (
	"strconv"

	"sysyc/src/koopa"
	"sysyc/src/stackalloc"
	"sysyc/src/util"
)

// Emit walks prog and writes RISC-V assembly for every function to w.
func Emit(w *util.Writer, prog *koopa.Program) error {
	for _, fn := range prog.Funcs {
		if err := emitFunction(w, fn); err != nil {
			return err
		}
	}
	return nil
}

func emitFunction(w *util.Writer, fn *koopa.Function) error {
	stackSize := stackalloc.ScanStackSize(renderForSizing(fn))
	frame := stackalloc.NewFrame()

	w.Label(fn.Name)
	w.Ins2imm("addi", "sp", "sp", -stackSize)

	for _, bb := range fn.Blocks {
		// The function's first block is the only one whose label is implicit
		// in the fall-through entry point; every other block's label is a
		// genuine branch target and must be emitted.
		if bb.Name != "%entry" {
			w.Label(bb.Name)
		}
		for _, inst := range bb.Insts {
			if err := emitInst(w, frame, stackSize, inst); err != nil {
				return err
			}
		}
	}
	return nil
}

// renderForSizing reconstructs the minimal whitespace-separated token stream
// ScanStackSize expects, directly from the parsed graph, so sizing does not
// require keeping the original IR text around past the koopa.Parse call.
func renderForSizing(fn *koopa.Function) string {
	var sb []byte
	add := func(s string) { sb = append(append(sb, s...), ' ') }
	addOperand := func(o koopa.Operand) {
		if !o.IsInteger {
			add(o.Name)
		}
	}
	for _, bb := range fn.Blocks {
		for _, inst := range bb.Insts {
			if inst.Dst != "" {
				add(inst.Dst)
			}
			switch inst.Kind {
			case koopa.KLoad:
				addOperand(inst.Src)
			case koopa.KStore:
				addOperand(inst.Src)
				add(inst.Dest)
			case koopa.KBinary:
				addOperand(inst.L)
				addOperand(inst.R)
			case koopa.KRet:
				addOperand(inst.Src)
			case koopa.KBranch:
				addOperand(inst.Src)
			}
		}
	}
	return string(sb)
}

// materialise loads operand into reg: an immediate via li (or mv reg, x0 for
// zero), or a stack value via lw from its assigned slot.
func materialise(w *util.Writer, frame *stackalloc.Frame, reg string, o koopa.Operand) {
	if o.IsInteger {
		if o.Int == 0 {
			w.Ins2("mv", reg, "x0")
		} else {
			w.Write("\tli\t%s, %d\n", reg, o.Int)
		}
		return
	}
	w.LoadStore("lw", reg, frame.GetStackPos(o.Name), "sp")
}

// spill writes reg's value out to dst's assigned slot; the invariant after
// any value-producing instruction is that t0 holds its freshly computed
// result immediately before this spill (spec §4.5.2).
func spill(w *util.Writer, frame *stackalloc.Frame, dst, reg string) {
	w.LoadStore("sw", reg, frame.GetStackPos(dst), "sp")
}

func emitInst(w *util.Writer, frame *stackalloc.Frame, stackSize int, inst koopa.Inst) error {
	switch inst.Kind {
	case koopa.KAlloc:
		// Slot already reserved by ScanStackSize; nothing to emit.
		return nil

	case koopa.KLoad:
		materialise(w, frame, "t0", inst.Src)
		spill(w, frame, inst.Dst, "t0")
		return nil

	case koopa.KStore:
		materialise(w, frame, "t0", inst.Src)
		w.LoadStore("sw", "t0", frame.GetStackPos(inst.Dest), "sp")
		return nil

	case koopa.KRet:
		materialise(w, frame, "a0", inst.Src)
		w.Ins2imm("addi", "sp", "sp", stackSize)
		w.WriteString("\tret\n")
		return nil

	case koopa.KBranch:
		materialise(w, frame, "t0", inst.Src)
		w.Ins3("bne", "t0", "x0", inst.TrueLabel)
		w.Ins1("j", inst.FalseLabel)
		return nil

	case koopa.KJump:
		w.Ins1("j", inst.JumpLabel)
		return nil

	case koopa.KBinary:
		return emitBinary(w, frame, inst)

	default:
		return util.NewError(util.UnsupportedOp, -1, "unhandled IR instruction kind")
	}
}

// emitBinary lowers one binary instruction, folding directly to `li t0,
// <v>` when both operands are already integer literals (spec §4.5.3: a
// secondary fold catching IR the front-end did not fold, e.g. hand-written
// or foreign-emitted IR).
func emitBinary(w *util.Writer, frame *stackalloc.Frame, inst koopa.Inst) error {
	if inst.L.IsInteger && inst.R.IsInteger {
		v, err := foldConst(inst.Op, inst.L.Int, inst.R.Int)
		if err != nil {
			return err
		}
		w.Write("\tli\tt0, %d\n", v)
		spill(w, frame, inst.Dst, "t0")
		return nil
	}

	materialise(w, frame, "t0", inst.L)
	materialise(w, frame, "t1", inst.R)

	switch inst.Op {
	case koopa.OpAdd:
		w.Ins3("add", "t0", "t0", "t1")
	case koopa.OpSub:
		w.Ins3("sub", "t0", "t0", "t1")
	case koopa.OpMul:
		w.Ins3("mul", "t0", "t0", "t1")
	case koopa.OpDiv:
		w.Ins3("div", "t0", "t0", "t1")
	case koopa.OpMod:
		w.Ins3("rem", "t0", "t0", "t1")
	case koopa.OpAnd:
		w.Ins3("and", "t0", "t0", "t1")
	case koopa.OpOr:
		w.Ins3("or", "t0", "t0", "t1")
	case koopa.OpEq:
		w.Ins3("sub", "t0", "t0", "t1")
		w.Ins2("seqz", "t0", "t0")
	case koopa.OpNotEq:
		w.Ins3("sub", "t0", "t0", "t1")
		w.Ins2("snez", "t0", "t0")
	case koopa.OpLt:
		w.Ins3("slt", "t0", "t0", "t1")
	case koopa.OpLe:
		w.Ins3("sgt", "t0", "t0", "t1")
		w.Ins2("seqz", "t0", "t0")
	case koopa.OpGt:
		w.Ins3("sgt", "t0", "t0", "t1")
	case koopa.OpGe:
		w.Ins3("slt", "t0", "t0", "t1")
		w.Ins2("seqz", "t0", "t0")
	default:
		return util.NewError(util.UnsupportedOp, -1, "unhandled binary operator tag")
	}

	spill(w, frame, inst.Dst, "t0")
	return nil
}

func foldConst(op koopa.OpTag, l, r int) (int, error) {
	switch op {
	case koopa.OpAdd:
		return l + r, nil
	case koopa.OpSub:
		return l - r, nil
	case koopa.OpMul:
		return l * r, nil
	case koopa.OpDiv:
		if r == 0 {
			return 0, util.NewError(util.UnsupportedOp, -1, "division by zero folding IR constants")
		}
		return l / r, nil
	case koopa.OpMod:
		if r == 0 {
			return 0, util.NewError(util.UnsupportedOp, -1, "modulo by zero folding IR constants")
		}
		return l % r, nil
	case koopa.OpLt:
		return boolToInt(l < r), nil
	case koopa.OpLe:
		return boolToInt(l <= r), nil
	case koopa.OpGt:
		return boolToInt(l > r), nil
	case koopa.OpGe:
		return boolToInt(l >= r), nil
	case koopa.OpEq:
		return boolToInt(l == r), nil
	case koopa.OpNotEq:
		return boolToInt(l != r), nil
	case koopa.OpAnd:
		return boolToInt(l != 0 && r != 0), nil
	case koopa.OpOr:
		return boolToInt(l != 0 || r != 0), nil
	default:
		return 0, util.NewError(util.UnsupportedOp, -1, "unknown operator tag "+strconv.Itoa(int(op)))
	}
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
