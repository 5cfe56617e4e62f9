package irgen

import (
	"strconv"
	"strings"
	"testing"

	"sysyc/src/frontend"
	"sysyc/src/sbt"
)

// compile parses src and lowers it, failing the test on any error.
func compile(t *testing.T, src string) string {
	t.Helper()
	root, err := frontend.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	ir, err := New(sbt.New()).Build(root)
	if err != nil {
		t.Fatalf("Build(%q): %v", src, err)
	}
	return ir
}

func wrap(body string) string { return "int main() { " + body + " }" }

// Seed scenarios from spec §8: fully constant expressions fold to a single
// ret with no intervening IR (testable property 4).
func TestConstantFoldingEmitsNoIntermediateIR(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"return -(-!6);", "0"},
		{"return 1 + 2 * 3;", "7"},
		{"return (1 < 2) && (3 == 3);", "1"},
	}
	for _, c := range cases {
		ir := compile(t, wrap(c.src))
		if strings.Contains(ir, "=") {
			t.Errorf("%q: expected no IR instructions for a fully-constant expression, got:\n%s", c.src, ir)
		}
		want := "ret " + c.want
		if !strings.Contains(ir, want) {
			t.Errorf("%q: expected %q in output, got:\n%s", c.src, want, ir)
		}
	}
}

func TestVariableReassignmentLowersLoadStore(t *testing.T) {
	ir := compile(t, wrap("int x = 5; x = x + 2; return x;"))
	for _, want := range []string{
		"@x_1 = alloc i32",
		"store 5, @x_1",
		"load @x_1",
		"store %1, @x_1",
		"ret %2",
	} {
		if !strings.Contains(ir, want) {
			t.Errorf("expected %q in output, got:\n%s", want, ir)
		}
	}
}

func TestConstUsageFoldsAtUseSite(t *testing.T) {
	ir := compile(t, wrap("const int C = 10; int y = C * 2; return y - C;"))
	if strings.Contains(ir, "@C") {
		t.Errorf("a const must never be spilled to a named alloc, got:\n%s", ir)
	}
	if !strings.Contains(ir, "store 20, @y_1") {
		t.Errorf("expected the const initializer to fold at the declaration, got:\n%s", ir)
	}
}

func TestIfElseBothArmsReturn(t *testing.T) {
	ir := compile(t, wrap("int a = 1; if (a == 1) return 42; else return 0;"))
	for _, want := range []string{"ret 42", "ret 0"} {
		if !strings.Contains(ir, want) {
			t.Errorf("expected %q in output, got:\n%s", want, ir)
		}
	}
	// Every basic block must end with exactly one terminator, including the
	// join label left dangling when both arms of an if/else return.
	lastLabel := strings.LastIndex(ir, ":\n")
	rest := ir[lastLabel+2:]
	if !strings.HasPrefix(strings.TrimSpace(rest), "ret") {
		t.Errorf("expected the trailing join label to carry a synthesised terminator, got:\n%s", ir)
	}
}

func TestDanglingIfChain(t *testing.T) {
	ir := compile(t, wrap("if (0) return 1; if (1) return 2; return 3;"))
	for _, want := range []string{"ret 1", "ret 2", "ret 3"} {
		if !strings.Contains(ir, want) {
			t.Errorf("expected %q in output, got:\n%s", want, ir)
		}
	}
}

func TestNestedScopeShadowingDoesNotLeak(t *testing.T) {
	ir := compile(t, wrap("int a = 3; { int a = 7; } return a;"))
	if !strings.Contains(ir, "@a_1") || !strings.Contains(ir, "@a_2") {
		t.Fatalf("expected both shadowed allocs present, got:\n%s", ir)
	}
	// The final load must read the outer a (mangled with the function's own
	// block id), not the inner shadow.
	loadLine := ir[strings.Index(ir, "load @a"):]
	if !strings.HasPrefix(loadLine, "load @a_1") {
		t.Errorf("expected final load to target @a_1, got:\n%s", loadLine)
	}
}

func TestAssignToConstFails(t *testing.T) {
	root, err := frontend.Parse(wrap("const int c = 1; c = 2; return c;"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, err = New(sbt.New()).Build(root)
	if err == nil || !strings.Contains(err.Error(), "AssignToConst") {
		t.Fatalf("expected AssignToConst error, got %v", err)
	}
}

func TestDivisionByZeroConstantFoldFails(t *testing.T) {
	root, err := frontend.Parse(wrap("return 1 / 0;"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, err = New(sbt.New()).Build(root)
	if err == nil {
		t.Fatal("expected an error folding a constant division by zero")
	}
}

// TestTemporariesAreMonotonic checks universal invariant 1 of spec §8: every
// newly emitted temporary index is strictly greater than any previously
// emitted in the function.
func TestTemporariesAreMonotonic(t *testing.T) {
	ir := compile(t, wrap("int a = 1; int b = 2; int c = 3; return a + b + c;"))
	max := -1
	for _, line := range strings.Split(ir, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "%") {
			continue
		}
		end := strings.IndexAny(line, " \t")
		if end < 0 {
			continue
		}
		idx, err := strconv.Atoi(line[1:end])
		if err != nil {
			continue
		}
		if idx <= max {
			t.Fatalf("temporary %%%d did not strictly increase (max so far %d), in:\n%s", idx, max, ir)
		}
		max = idx
	}
}
