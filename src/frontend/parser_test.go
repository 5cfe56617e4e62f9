package frontend

import (
	"testing"

	"sysyc/src/ast"
)

func TestParseSimpleReturn(t *testing.T) {
	root, err := Parse("int main() { return 0; }")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if root.Kind != ast.CompUnit {
		t.Fatalf("root.Kind = %v, want CompUnit", root.Kind)
	}
	fn := root.Children[0]
	if fn.Kind != ast.FuncDef || fn.Name != "main" {
		t.Fatalf("fn = %v, want FuncDef[main]", fn)
	}
	body := fn.Children[0]
	if body.Kind != ast.Block || len(body.Children) != 1 {
		t.Fatalf("body = %v, want Block with 1 item", body)
	}
	ret := body.Children[0]
	if ret.Kind != ast.StmtReturn {
		t.Fatalf("ret.Kind = %v, want StmtReturn", ret.Kind)
	}
}

func TestParseDanglingElseBindsToNearestIf(t *testing.T) {
	root, err := Parse(`int main() {
		if (1)
			if (0)
				return 1;
			else
				return 2;
		return 3;
	}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	body := root.Children[0].Children[0]
	outerIf := body.Children[0]
	if outerIf.Kind != ast.StmtIf || len(outerIf.Children) != 2 {
		t.Fatalf("outer if = %v, want StmtIf with no else", outerIf)
	}
	innerIf := outerIf.Children[1]
	if innerIf.Kind != ast.StmtIf || len(innerIf.Children) != 3 {
		t.Fatalf("inner if = %v, want StmtIf with else bound to it", innerIf)
	}
}

func TestParseExpressionPrecedence(t *testing.T) {
	// 1 + 2 * 3 should parse as 1 + (2 * 3): ExprBinary(+, 1, ExprBinary(*, 2, 3)).
	root, err := Parse("int main() { return 1 + 2 * 3; }")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	e := root.Children[0].Children[0].Children[0].Children[0]
	if e.Kind != ast.ExprBinary || e.Bin != ast.OpAdd {
		t.Fatalf("top expr = %v, want ExprBinary[+]", e)
	}
	rhs := e.Children[1]
	if rhs.Kind != ast.ExprBinary || rhs.Bin != ast.OpMul {
		t.Fatalf("rhs = %v, want ExprBinary[*]", rhs)
	}
}

func TestParseRejectsMalformedInput(t *testing.T) {
	if _, err := Parse("int main() { return ; }"); err == nil {
		t.Fatal("expected a parse error for a missing return expression")
	}
}

func TestParseConstAndVarDecl(t *testing.T) {
	root, err := Parse("int main() { const int c = 1; int x = c + 1; return x; }")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	body := root.Children[0].Children[0]
	if body.Children[0].Kind != ast.ConstDecl {
		t.Fatalf("item 0 = %v, want ConstDecl", body.Children[0])
	}
	if body.Children[1].Kind != ast.VarDecl {
		t.Fatalf("item 1 = %v, want VarDecl", body.Children[1])
	}
}
