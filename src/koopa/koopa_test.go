package koopa

import "testing"

const sample = `fun @main(): i32 {
%entry:
  @x_1 = alloc i32
  store 5, @x_1
  %0 = load @x_1
  %1 = add %0, 2
  store %1, @x_1
  %2 = load @x_1
  ret %2
}
`

func TestParseFunctionShape(t *testing.T) {
	prog, err := Parse(sample)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(prog.Funcs) != 1 {
		t.Fatalf("len(Funcs) = %d, want 1", len(prog.Funcs))
	}
	fn := prog.Funcs[0]
	if fn.Name != "main" {
		t.Fatalf("fn.Name = %q, want main", fn.Name)
	}
	if len(fn.Blocks) != 1 {
		t.Fatalf("len(Blocks) = %d, want 1", len(fn.Blocks))
	}
	bb := fn.Blocks[0]
	if bb.Name != "%entry" {
		t.Fatalf("bb.Name = %q, want %%entry", bb.Name)
	}
	if len(bb.Insts) != 7 {
		t.Fatalf("len(Insts) = %d, want 7, got %+v", len(bb.Insts), bb.Insts)
	}
}

func TestParseInstructionKinds(t *testing.T) {
	prog, err := Parse(sample)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	insts := prog.Funcs[0].Blocks[0].Insts

	if insts[0].Kind != KAlloc || insts[0].Dst != "@x_1" {
		t.Errorf("insts[0] = %+v, want alloc @x_1", insts[0])
	}
	if insts[1].Kind != KStore || insts[1].Dest != "@x_1" || !insts[1].Src.IsInteger || insts[1].Src.Int != 5 {
		t.Errorf("insts[1] = %+v, want store 5, @x_1", insts[1])
	}
	if insts[2].Kind != KLoad || insts[2].Dst != "%0" || insts[2].Src.Name != "@x_1" {
		t.Errorf("insts[2] = %+v, want %%0 = load @x_1", insts[2])
	}
	if insts[3].Kind != KBinary || insts[3].Op != OpAdd || insts[3].L.Name != "%0" || insts[3].R.Int != 2 {
		t.Errorf("insts[3] = %+v, want %%1 = add %%0, 2", insts[3])
	}
	if insts[6].Kind != KRet || insts[6].Src.Name != "%2" {
		t.Errorf("insts[6] = %+v, want ret %%2", insts[6])
	}
}

func TestParseBranchAndJump(t *testing.T) {
	text := `fun @main(): i32 {
%entry:
  br 1, %L1, %L0
%L1:
  ret 1
%L0:
  jump %L2
%L2:
  ret 0
}
`
	prog, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	fn := prog.Funcs[0]
	if len(fn.Blocks) != 4 {
		t.Fatalf("len(Blocks) = %d, want 4", len(fn.Blocks))
	}
	br := fn.Blocks[0].Insts[0]
	if br.Kind != KBranch || !br.Src.IsInteger || br.Src.Int != 1 || br.TrueLabel != "%L1" || br.FalseLabel != "%L0" {
		t.Errorf("branch inst = %+v", br)
	}
	jump := fn.Blocks[2].Insts[0]
	if jump.Kind != KJump || jump.JumpLabel != "%L2" {
		t.Errorf("jump inst = %+v", jump)
	}
}

func TestParseRejectsInstructionOutsideBlock(t *testing.T) {
	if _, err := Parse("ret 0\n"); err == nil {
		t.Fatal("expected an error parsing an instruction with no enclosing basic block")
	}
}
