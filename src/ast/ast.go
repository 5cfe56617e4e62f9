// Package ast defines the tagged syntax tree produced by the frontend lexer/parser
// (spec §3.1). Kind discriminates productions the way the teacher's
// ir.NodeType discriminates ir.Node, but kept in its own package since this
// tree is the AST, not the Koopa-like textual IR the irgen package emits
// (see src/koopa for that).
package ast

import "fmt"

// Kind discriminates the productions a Node can represent.
type Kind int

const (
	CompUnit Kind = iota
	FuncDef
	Block      // lexical block: function body or a nested { }.
	ConstDecl
	ConstDef
	VarDecl
	VarDef
	StmtEmpty
	StmtAssign // LVal = Expr
	StmtIf     // cond, then, optional else
	StmtReturn // Expr
	ExprBinary // Op, L, R — collapses LOrExp/LAndExp/EqExp/RelExp/AddExp/MulExp of spec §3.1.
	ExprUnary  // Op, X — UnaryExp of spec §3.1.
	ExprNumber // literal integer — PrimaryExp/Number.
	ExprLVal   // identifier reference — PrimaryExp/LVal.
)

var kindNames = [...]string{
	"CompUnit", "FuncDef", "Block", "ConstDecl", "ConstDef",
	"VarDecl", "VarDef", "StmtEmpty", "StmtAssign", "StmtIf",
	"StmtReturn", "ExprBinary", "ExprUnary", "ExprNumber", "ExprLVal",
}

func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(kindNames) {
		return "UNKNOWN"
	}
	return kindNames[k]
}

// BinOp enumerates the binary operators of spec §6.4.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpLt
	OpLe
	OpGt
	OpGe
	OpEq
	OpNe
	OpAnd // &&
	OpOr  // ||
)

var binOpNames = [...]string{"+", "-", "*", "/", "%", "<", "<=", ">", ">=", "==", "!=", "&&", "||"}

func (o BinOp) String() string { return binOpNames[o] }

// UnaryOp enumerates the unary operators of spec §4.2.3.
type UnaryOp int

const (
	OpPos UnaryOp = iota // +x, identity
	OpNeg                // -x
	OpNot                // !x
)

// Node is a single AST node. Line/Pos locate it in source for diagnostics;
// irgen threads block scope and temporaries through its own return values
// while walking the tree rather than writing them back onto Node (see
// src/irgen's result type).
type Node struct {
	Kind Kind
	Line int
	Pos  int

	// Production-specific payload.
	Name string  // identifier for FuncDef/VarDef/ConstDef/ExprLVal/StmtAssign's LVal.
	Num  int     // literal value for ExprNumber.
	Bin  BinOp   // operator for ExprBinary.
	Un   UnaryOp // operator for ExprUnary.

	Children []*Node
}

// New allocates a Node.
func New(kind Kind, line, pos int, children ...*Node) *Node {
	return &Node{Kind: kind, Line: line, Pos: pos, Children: children}
}

// String renders a short, human-readable summary of the node for diagnostics.
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	switch n.Kind {
	case ExprNumber:
		return fmt.Sprintf("%s[%d]", n.Kind, n.Num)
	case ExprLVal, FuncDef, VarDef, ConstDef, StmtAssign:
		return fmt.Sprintf("%s[%s]", n.Kind, n.Name)
	case ExprBinary:
		return fmt.Sprintf("%s[%s]", n.Kind, n.Bin)
	default:
		return n.Kind.String()
	}
}

// Dump recursively prints n and its children, indenting by depth. Mirrors the
// teacher's Node.Print debug helper.
func (n *Node) Dump(depth int) {
	if n == nil {
		fmt.Printf("%*c---> NIL\n", depth<<1, ' ')
		return
	}
	fmt.Printf("%*c%s\n", depth<<1, ' ', n.String())
	for _, c := range n.Children {
		c.Dump(depth + 1)
	}
}
