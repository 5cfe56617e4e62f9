// Package koopa is the IR Consumer Interface of spec §4.3/§3.5: it accepts
// the textual IR the irgen package emits (spec §6.2) and returns an in-memory
// graph of Program -> Function -> BasicBlock -> Value that the riscv package
// walks. Per spec's explicit scoping this is an external collaborator — thin
// glue, not a place to spend engineering effort — so the parser below is a
// direct line-oriented reading of the fixed grammar in §6.2 rather than a
// general-purpose one, mirroring how the teacher's own frontend/tree.go
// keeps its AST-building glue minimal and unabstracted.
package koopa

import (
	"strconv"
	"strings"

	"sysyc/src/util"
)

// OpTag enumerates the binary operator tags of spec §3.5.
type OpTag int

const (
	OpEq OpTag = iota
	OpNotEq
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpGe
	OpGt
	OpLe
	OpLt
	OpAnd
	OpOr
)

var mnemonicToTag = map[string]OpTag{
	"eq": OpEq, "ne": OpNotEq, "add": OpAdd, "sub": OpSub, "mul": OpMul,
	"div": OpDiv, "mod": OpMod, "ge": OpGe, "gt": OpGt, "le": OpLe, "lt": OpLt,
	"and": OpAnd, "or": OpOr,
}

// Operand is one operand of an instruction: a folded integer literal, or a
// reference to a temporary (%k) or named alloc (@v).
type Operand struct {
	IsInteger bool
	Int       int
	Name      string // includes the leading '%' or '@' sigil.
}

// Kind discriminates the instruction variants of spec §3.5/§6.2.
type Kind int

const (
	KAlloc Kind = iota
	KLoad
	KStore
	KBinary
	KRet
	KBranch
	KJump
)

// Inst is one IR instruction, tagged by Kind. Only the fields relevant to
// Kind are populated.
type Inst struct {
	Kind Kind

	Dst string // name of the produced value ("@v" for alloc, "%k" otherwise), empty for store/ret/branch/jump.
	Op  OpTag  // meaningful iff Kind == KBinary.
	L, R Operand // meaningful iff KBinary.

	Src Operand // meaningful iff KLoad (alloc name) or KStore (value) or KRet (value) or KBranch (cond).
	Dest string // meaningful iff KStore (alloc name).

	TrueLabel, FalseLabel string // meaningful iff KBranch.
	JumpLabel             string // meaningful iff KJump.
}

// BasicBlock is a label and its straight-line instruction list.
type BasicBlock struct {
	Name  string
	Insts []Inst
}

// Function is one `fun @name(): i32 { ... }` definition.
type Function struct {
	Name   string
	Blocks []*BasicBlock
}

// Program is the root of the parsed IR graph (spec §3.5); this subset never
// carries globals.
type Program struct {
	Funcs []*Function
}

// Parse reads Koopa-subset IR text and returns the in-memory graph the
// back-end walks.
func Parse(text string) (*Program, error) {
	p := &Program{}
	var fn *Function
	var bb *BasicBlock

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "fun "):
			name, err := parseFunHeader(line)
			if err != nil {
				return nil, err
			}
			fn = &Function{Name: name}
			p.Funcs = append(p.Funcs, fn)
			bb = nil
		case line == "}":
			fn = nil
			bb = nil
		case strings.HasSuffix(line, ":"):
			if fn == nil {
				return nil, util.NewError(util.ParseShape, -1, "label outside function: "+line)
			}
			bb = &BasicBlock{Name: strings.TrimSuffix(line, ":")}
			fn.Blocks = append(fn.Blocks, bb)
		default:
			if bb == nil {
				return nil, util.NewError(util.ParseShape, -1, "instruction outside basic block: "+line)
			}
			inst, err := parseInst(line)
			if err != nil {
				return nil, err
			}
			bb.Insts = append(bb.Insts, inst)
		}
	}
	return p, nil
}

// parseFunHeader extracts name from `fun @name(): i32 {`.
func parseFunHeader(line string) (string, error) {
	rest := strings.TrimPrefix(line, "fun @")
	i := strings.IndexByte(rest, '(')
	if i < 0 {
		return "", util.NewError(util.ParseShape, -1, "malformed function header: "+line)
	}
	return rest[:i], nil
}

func parseOperand(tok string) (Operand, error) {
	tok = strings.TrimSuffix(tok, ",")
	if strings.HasPrefix(tok, "%") || strings.HasPrefix(tok, "@") {
		return Operand{Name: tok}, nil
	}
	v, err := strconv.Atoi(tok)
	if err != nil {
		return Operand{}, util.NewError(util.ParseShape, -1, "malformed operand: "+tok)
	}
	return Operand{IsInteger: true, Int: v}, nil
}

// parseInst dispatches one instruction line to its specific parse routine,
// based on the fixed grammar of spec §6.2.
func parseInst(line string) (Inst, error) {
	fields := strings.Fields(line)

	switch {
	case strings.HasPrefix(line, "ret "):
		op, err := parseOperand(fields[1])
		if err != nil {
			return Inst{}, err
		}
		return Inst{Kind: KRet, Src: op}, nil

	case strings.HasPrefix(line, "br "):
		cond, err := parseOperand(fields[1])
		if err != nil {
			return Inst{}, err
		}
		return Inst{
			Kind:       KBranch,
			Src:        cond,
			TrueLabel:  strings.TrimSuffix(fields[2], ","),
			FalseLabel: fields[3],
		}, nil

	case strings.HasPrefix(line, "jump "):
		return Inst{Kind: KJump, JumpLabel: fields[1]}, nil

	case strings.HasPrefix(line, "store "):
		val, err := parseOperand(fields[1])
		if err != nil {
			return Inst{}, err
		}
		return Inst{Kind: KStore, Src: val, Dest: fields[2]}, nil

	case len(fields) >= 2 && fields[1] == "=":
		return parseAssignInst(fields)

	default:
		return Inst{}, util.NewError(util.ParseShape, -1, "unrecognised instruction: "+line)
	}
}

// parseAssignInst parses the three `<dst> = ...` forms: alloc, load and
// binary.
func parseAssignInst(fields []string) (Inst, error) {
	dst := fields[0]
	switch fields[2] {
	case "alloc":
		return Inst{Kind: KAlloc, Dst: dst}, nil
	case "load":
		src, err := parseOperand(fields[3])
		if err != nil {
			return Inst{}, err
		}
		return Inst{Kind: KLoad, Dst: dst, Src: src}, nil
	default:
		op, ok := mnemonicToTag[fields[2]]
		if !ok {
			return Inst{}, util.NewError(util.UnsupportedOp, -1, "unknown mnemonic: "+fields[2])
		}
		l, err := parseOperand(fields[3])
		if err != nil {
			return Inst{}, err
		}
		r, err := parseOperand(fields[4])
		if err != nil {
			return Inst{}, err
		}
		return Inst{Kind: KBinary, Dst: dst, Op: op, L: l, R: r}, nil
	}
}
