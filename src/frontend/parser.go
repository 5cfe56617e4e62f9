// parser.go is the external-collaborator grammar driver of spec §1 (thin glue):
// a hand-written recursive-descent parser that turns the lexer's token stream
// into the AST of spec §3.1. Dangling-else is resolved the way every
// recursive-descent parser resolves it for free: parseStmt greedily consumes a
// trailing "else" right after parsing the "if" body, so an "else" always binds
// to the nearest unmatched "if" without needing the grammar's MS/UMS
// production split (see DESIGN.md's Open Question decision).
package frontend

import (
	"fmt"

	"sysyc/src/ast"
	"sysyc/src/util"
)

type parser struct {
	l       *lexer
	tok     token
	haveTok bool
}

// Parse lexes and parses src, returning the root CompUnit node.
func Parse(src string) (*ast.Node, error) {
	l := newLexer(src)
	go l.run()
	p := &parser{l: l}
	root, err := p.parseCompUnit()
	if err != nil {
		return nil, err
	}
	return root, nil
}

func (p *parser) next() token {
	if p.haveTok {
		p.haveTok = false
		return p.tok
	}
	return <-p.l.items
}

func (p *parser) peek() token {
	if !p.haveTok {
		p.tok = <-p.l.items
		p.haveTok = true
	}
	return p.tok
}

func (p *parser) expect(typ tokenType, what string) (token, error) {
	t := p.next()
	if t.typ != typ {
		return t, parseErr(t, "expected "+what)
	}
	return t, nil
}

func parseErr(t token, msg string) error {
	return util.NewError(util.ParseShape, -1, fmt.Sprintf("%s at line %d:%d, got %q", msg, t.line, t.pos, t.val))
}

// parseCompUnit := FuncDef
func (p *parser) parseCompUnit() (*ast.Node, error) {
	fn, err := p.parseFuncDef()
	if err != nil {
		return nil, err
	}
	return ast.New(ast.CompUnit, fn.Line, fn.Pos, fn), nil
}

// parseFuncDef := "int" IDENT "(" ")" Block
func (p *parser) parseFuncDef() (*ast.Node, error) {
	typTok, err := p.expect(tokInt, "return type 'int'")
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(tokIdent, "function name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	n := ast.New(ast.FuncDef, typTok.line, typTok.pos, body)
	n.Name = nameTok.val
	return n, nil
}

// parseBlock := "{" { BlockItem } "}"
func (p *parser) parseBlock() (*ast.Node, error) {
	open, err := p.expect(tokLBrace, "'{'")
	if err != nil {
		return nil, err
	}
	n := ast.New(ast.Block, open.line, open.pos)
	for p.peek().typ != tokRBrace {
		item, err := p.parseBlockItem()
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, item)
	}
	if _, err := p.expect(tokRBrace, "'}'"); err != nil {
		return nil, err
	}
	return n, nil
}

// parseBlockItem := Decl | Stmt
func (p *parser) parseBlockItem() (*ast.Node, error) {
	switch p.peek().typ {
	case tokConst:
		return p.parseConstDecl()
	case tokInt:
		return p.parseVarDecl()
	default:
		return p.parseStmt()
	}
}

// parseConstDecl := "const" "int" ConstDef {"," ConstDef} ";"
func (p *parser) parseConstDecl() (*ast.Node, error) {
	kw, err := p.expect(tokConst, "'const'")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokInt, "'int'"); err != nil {
		return nil, err
	}
	n := ast.New(ast.ConstDecl, kw.line, kw.pos)
	for {
		def, err := p.parseConstDef()
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, def)
		if p.peek().typ != tokComma {
			break
		}
		p.next()
	}
	if _, err := p.expect(tokSemi, "';'"); err != nil {
		return nil, err
	}
	return n, nil
}

// parseConstDef := IDENT "=" ConstExp
func (p *parser) parseConstDef() (*ast.Node, error) {
	name, err := p.expect(tokIdent, "identifier")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokAssign, "'='"); err != nil {
		return nil, err
	}
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	n := ast.New(ast.ConstDef, name.line, name.pos, val)
	n.Name = name.val
	return n, nil
}

// parseVarDecl := "int" VarDef {"," VarDef} ";"
func (p *parser) parseVarDecl() (*ast.Node, error) {
	kw, err := p.expect(tokInt, "'int'")
	if err != nil {
		return nil, err
	}
	n := ast.New(ast.VarDecl, kw.line, kw.pos)
	for {
		def, err := p.parseVarDef()
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, def)
		if p.peek().typ != tokComma {
			break
		}
		p.next()
	}
	if _, err := p.expect(tokSemi, "';'"); err != nil {
		return nil, err
	}
	return n, nil
}

// parseVarDef := IDENT ["=" InitVal]
func (p *parser) parseVarDef() (*ast.Node, error) {
	name, err := p.expect(tokIdent, "identifier")
	if err != nil {
		return nil, err
	}
	n := ast.New(ast.VarDef, name.line, name.pos)
	n.Name = name.val
	if p.peek().typ == tokAssign {
		p.next()
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, val)
	}
	return n, nil
}

// parseStmt := LVal "=" Exp ";"
//            | Block
//            | "if" "(" Exp ")" Stmt ["else" Stmt]
//            | "return" Exp ";"
//            | ";"
func (p *parser) parseStmt() (*ast.Node, error) {
	switch p.peek().typ {
	case tokLBrace:
		return p.parseBlock()
	case tokSemi:
		t := p.next()
		return ast.New(ast.StmtEmpty, t.line, t.pos), nil
	case tokIf:
		return p.parseIf()
	case tokReturn:
		return p.parseReturn()
	case tokIdent:
		return p.parseAssign()
	default:
		t := p.peek()
		return nil, parseErr(t, "expected statement")
	}
}

func (p *parser) parseIf() (*ast.Node, error) {
	kw, err := p.expect(tokIf, "'if'")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}
	then, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	n := ast.New(ast.StmtIf, kw.line, kw.pos, cond, then)
	if p.peek().typ == tokElse {
		p.next()
		els, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, els)
	}
	return n, nil
}

func (p *parser) parseReturn() (*ast.Node, error) {
	kw, err := p.expect(tokReturn, "'return'")
	if err != nil {
		return nil, err
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokSemi, "';'"); err != nil {
		return nil, err
	}
	return ast.New(ast.StmtReturn, kw.line, kw.pos, e), nil
}

func (p *parser) parseAssign() (*ast.Node, error) {
	name, err := p.expect(tokIdent, "identifier")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokAssign, "'='"); err != nil {
		return nil, err
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokSemi, "';'"); err != nil {
		return nil, err
	}
	n := ast.New(ast.StmtAssign, name.line, name.pos, e)
	n.Name = name.val
	return n, nil
}

// Expression grammar, precedence low to high:
//   LOrExp   -> LAndExp ('||' LAndExp)*
//   LAndExp  -> EqExp ('&&' EqExp)*
//   EqExp    -> RelExp (('=='|'!=') RelExp)*
//   RelExp   -> AddExp (('<'|'<='|'>'|'>=') AddExp)*
//   AddExp   -> MulExp (('+'|'-') MulExp)*
//   MulExp   -> UnaryExp (('*'|'/'|'%') UnaryExp)*
//   UnaryExp -> ('+'|'-'|'!') UnaryExp | PrimaryExp
//   PrimaryExp -> '(' Exp ')' | Number | LVal

func (p *parser) parseExpr() (*ast.Node, error) { return p.parseLOr() }

func (p *parser) parseLOr() (*ast.Node, error) {
	return p.parseBinaryLevel(p.parseLAnd, map[tokenType]ast.BinOp{tokOrOr: ast.OpOr})
}

func (p *parser) parseLAnd() (*ast.Node, error) {
	return p.parseBinaryLevel(p.parseEq, map[tokenType]ast.BinOp{tokAndAnd: ast.OpAnd})
}

func (p *parser) parseEq() (*ast.Node, error) {
	return p.parseBinaryLevel(p.parseRel, map[tokenType]ast.BinOp{tokEq: ast.OpEq, tokNe: ast.OpNe})
}

func (p *parser) parseRel() (*ast.Node, error) {
	return p.parseBinaryLevel(p.parseAdd, map[tokenType]ast.BinOp{
		tokLt: ast.OpLt, tokLe: ast.OpLe, tokGt: ast.OpGt, tokGe: ast.OpGe,
	})
}

func (p *parser) parseAdd() (*ast.Node, error) {
	return p.parseBinaryLevel(p.parseMul, map[tokenType]ast.BinOp{tokPlus: ast.OpAdd, tokMinus: ast.OpSub})
}

func (p *parser) parseMul() (*ast.Node, error) {
	return p.parseBinaryLevel(p.parseUnary, map[tokenType]ast.BinOp{
		tokStar: ast.OpMul, tokSlash: ast.OpDiv, tokPercent: ast.OpMod,
	})
}

// parseBinaryLevel implements one left-associative precedence level shared by
// every binary production above.
func (p *parser) parseBinaryLevel(next func() (*ast.Node, error), ops map[tokenType]ast.BinOp) (*ast.Node, error) {
	l, err := next()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := ops[p.peek().typ]
		if !ok {
			return l, nil
		}
		t := p.next()
		r, err := next()
		if err != nil {
			return nil, err
		}
		n := ast.New(ast.ExprBinary, t.line, t.pos, l, r)
		n.Bin = op
		l = n
	}
}

func (p *parser) parseUnary() (*ast.Node, error) {
	switch p.peek().typ {
	case tokPlus, tokMinus, tokNot:
		t := p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		n := ast.New(ast.ExprUnary, t.line, t.pos, x)
		switch t.typ {
		case tokPlus:
			n.Un = ast.OpPos
		case tokMinus:
			n.Un = ast.OpNeg
		case tokNot:
			n.Un = ast.OpNot
		}
		return n, nil
	default:
		return p.parsePrimary()
	}
}

func (p *parser) parsePrimary() (*ast.Node, error) {
	t := p.peek()
	switch t.typ {
	case tokLParen:
		p.next()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return e, nil
	case tokNumber:
		p.next()
		n := ast.New(ast.ExprNumber, t.line, t.pos)
		if _, err := fmt.Sscanf(t.val, "%d", &n.Num); err != nil {
			return nil, parseErr(t, "malformed integer literal")
		}
		return n, nil
	case tokIdent:
		p.next()
		n := ast.New(ast.ExprLVal, t.line, t.pos)
		n.Name = t.val
		return n, nil
	default:
		return nil, parseErr(t, "expected expression")
	}
}
