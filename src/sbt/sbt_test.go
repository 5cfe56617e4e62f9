package sbt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMangleAndScoping(t *testing.T) {
	c := New()
	inner := c.AllocBlockID(0)

	require.NoError(t, c.AddVarToSBT(0, "x"))
	require.NoError(t, c.AddConstToSBT(inner, "x", 7))

	// Lookup from the inner block finds the inner shadow first.
	mangled, sym, ok := c.FindPureNameInSBT(inner, "x")
	require.True(t, ok)
	assert.Equal(t, Mangle("x", inner), mangled)
	assert.True(t, sym.IsConst)
	assert.Equal(t, 7, sym.ConstVal)

	// Lookup from the root block only ever sees the outer x.
	mangled, sym, ok = c.FindPureNameInSBT(0, "x")
	require.True(t, ok)
	assert.Equal(t, Mangle("x", 0), mangled)
	assert.False(t, sym.IsConst)
}

func TestRedefinitionFails(t *testing.T) {
	c := New()
	require.NoError(t, c.AddVarToSBT(0, "x"))
	err := c.AddVarToSBT(0, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Redefinition")
}

func TestUndefinedLookupFails(t *testing.T) {
	c := New()
	_, _, err := c.GetNodeFromSBT(0, "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Undefined")
}

func TestShadowingDoesNotLeakAfterBlock(t *testing.T) {
	// Mirrors spec §8 boundary behaviour: int a = 3; { int a = 7; } return a;
	c := New()
	require.NoError(t, c.AddVarToSBT(0, "a"))
	inner := c.AllocBlockID(0)
	require.NoError(t, c.AddVarToSBT(inner, "a"))

	// Resolution back at the outer block must not see the inner shadow.
	mangled, _, ok := c.FindPureNameInSBT(0, "a")
	require.True(t, ok)
	assert.Equal(t, Mangle("a", 0), mangled)
}

func TestAllocTempExhaustion(t *testing.T) {
	c := New()
	for i := 0; i < tempPoolSize; i++ {
		if _, err := c.AllocTemp(); err != nil {
			t.Fatalf("unexpected exhaustion at slot %d: %v", i, err)
		}
	}
	_, err := c.AllocTemp()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TempExhausted")
}

func TestFreeTempReleasesSlot(t *testing.T) {
	c := New()
	idx, err := c.AllocTemp()
	require.NoError(t, err)
	c.FreeTemp(idx)
	again, err := c.AllocTemp()
	require.NoError(t, err)
	assert.Equal(t, idx, again)
}

func TestTypesBuiltin(t *testing.T) {
	c := New()
	types := c.Types()
	require.Len(t, types, 1)
	assert.Equal(t, "int", types[0].Name)
	assert.Equal(t, 4, types[0].Width)
}
