// Package sbt implements the Symbol Table and Block Tree of spec §3.2-§3.4 and
// §4.1. Per spec's Design Notes, the block tree is an arena indexed by blockId
// with parent stored as an index (not a pointer) so a block only ever borrows
// its parent, never aliases it; and every mutable pool this package owns
// (block arena, per-block symbol maps, the temporary register free-list) lives
// on a single *Context value threaded explicitly by callers instead of sitting
// behind package-level globals — the teacher's BLOCK_HASH/SBT/TYPE_SBT would
// otherwise be hidden statics shared across compiler invocations.
package sbt

import (
	"strconv"

	"sysyc/src/util"
)

// rootBlock is the blockId of the CompUnit-level scope (spec §3.2).
const rootBlock = 0

// noParent is the parent-index sentinel for the root block.
const noParent = -1

// tempPoolSize is the fixed size of the temporary virtual register free-list
// (spec §3.4).
const tempPoolSize = 1024

// Symbol is one entry of a block's name -> symbol mapping (spec §3.3).
type Symbol struct {
	IsConst  bool
	ConstVal int
}

type blockNode struct {
	parent int
}

// Type describes one entry of TYPE_SBT (spec §3.3). The language currently
// only has a single built-in: 4-byte int.
type Type struct {
	Name  string
	Width int
}

// Context owns every per-invocation mutable pool the symbol table and the IR
// builder need: the block arena, per-block symbol maps, the type table, and
// the temporary register free-list.
type Context struct {
	blocks []blockNode
	syms   []map[string]*Symbol
	types  []Type
	temps  [tempPoolSize]bool
}

// New returns a Context with the root block (id 0) and the built-in int type
// already populated, matching spec §3.3's "populated at startup" TYPE_SBT.
func New() *Context {
	c := &Context{
		blocks: []blockNode{{parent: noParent}},
		syms:   []map[string]*Symbol{make(map[string]*Symbol)},
		types:  []Type{{Name: "int", Width: 4}},
	}
	return c
}

// AllocBlockID creates a new block as a child of parent and returns its id.
func (c *Context) AllocBlockID(parent int) int {
	id := len(c.blocks)
	c.blocks = append(c.blocks, blockNode{parent: parent})
	c.syms = append(c.syms, make(map[string]*Symbol))
	return id
}

// Mangle returns the IR-level name for pureName declared in blockId (spec
// §3.3: "ident + '_' + decimal(blockId)").
func Mangle(pureName string, blockID int) string {
	return pureName + "_" + strconv.Itoa(blockID)
}

func (c *Context) findInBlock(blockID int, mangled string) (*Symbol, bool) {
	s, ok := c.syms[blockID][mangled]
	return s, ok
}

// FindInSBT looks up mangled in blockID; if findParent is set and the lookup
// misses, it recurses into the parent block (spec §4.1 findInSBT).
func (c *Context) FindInSBT(blockID int, mangled string, findParent bool) (*Symbol, bool) {
	if s, ok := c.findInBlock(blockID, mangled); ok {
		return s, true
	}
	if findParent && blockID != rootBlock {
		return c.FindInSBT(c.blocks[blockID].parent, mangled, true)
	}
	return nil, false
}

// AddConstToSBT inserts a const symbol, failing with Redefinition if
// pureName is already declared in blockID (spec §4.1).
func (c *Context) AddConstToSBT(blockID int, pureName string, value int) error {
	mangled := Mangle(pureName, blockID)
	if _, ok := c.findInBlock(blockID, mangled); ok {
		return util.NewError(util.Redefinition, blockID, pureName)
	}
	c.syms[blockID][mangled] = &Symbol{IsConst: true, ConstVal: value}
	return nil
}

// AddVarToSBT inserts a mutable symbol with ConstVal 0 (spec §4.1).
func (c *Context) AddVarToSBT(blockID int, pureName string) error {
	mangled := Mangle(pureName, blockID)
	if _, ok := c.findInBlock(blockID, mangled); ok {
		return util.NewError(util.Redefinition, blockID, pureName)
	}
	c.syms[blockID][mangled] = &Symbol{}
	return nil
}

// FindPureNameInSBT walks the block chain from blockID to the root, mangling
// pureName at each level, and returns the mangled name and symbol on the
// first hit (spec §4.1 findPureNameInSBT).
func (c *Context) FindPureNameInSBT(blockID int, pureName string) (mangled string, sym *Symbol, ok bool) {
	for b := blockID; ; {
		m := Mangle(pureName, b)
		if s, found := c.findInBlock(b, m); found {
			return m, s, true
		}
		if b == rootBlock {
			return "", nil, false
		}
		b = c.blocks[b].parent
	}
}

// GetNodeFromSBT is FindPureNameInSBT but reports Undefined on a miss (spec
// §4.1 getNodeFromSBT).
func (c *Context) GetNodeFromSBT(blockID int, pureName string) (mangled string, sym *Symbol, err error) {
	m, s, ok := c.FindPureNameInSBT(blockID, pureName)
	if !ok {
		return "", nil, util.NewError(util.Undefined, blockID, pureName)
	}
	return m, s, nil
}

// GetNameID returns the mangled name of pureName visible from blockID (spec
// §4.1 getNameId).
func (c *Context) GetNameID(blockID int, pureName string) (string, error) {
	m, _, err := c.GetNodeFromSBT(blockID, pureName)
	return m, err
}

// AllocTemp returns the smallest free index in the temporary pool and marks it
// used, failing with TempExhausted when all 1024 slots are in use (spec
// §3.4, §3.7).
func (c *Context) AllocTemp() (int, error) {
	for i, used := range c.temps {
		if !used {
			c.temps[i] = true
			return i, nil
		}
	}
	return 0, util.NewError(util.TempExhausted, -1, "temporary register pool exhausted")
}

// FreeTemp releases a temporary previously returned by AllocTemp.
func (c *Context) FreeTemp(idx int) {
	if idx >= 0 && idx < tempPoolSize {
		c.temps[idx] = false
	}
}

// Types returns the populated TYPE_SBT (spec §3.3); currently always a single
// "int" entry at index 0.
func (c *Context) Types() []Type { return c.types }
