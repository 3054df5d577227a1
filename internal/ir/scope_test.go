package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScopeNumbering(t *testing.T) {
	var s ScopeStack
	assert.Equal(t, "", s.Current())

	s.Push("a")
	s.Push("b")
	assert.Equal(t, "a.1/b.1", s.Current())

	s.Pop()
	s.Push("b")
	assert.Equal(t, "a.1/b.2", s.Current())
	assert.Equal(t, 2, s.Depth())
}

func TestScopeBlockLoop(t *testing.T) {
	var s ScopeStack
	s.Push("block")
	s.Push("loop")
	assert.Equal(t, "block.1/loop.1", s.Current())
	s.Pop()
	s.Push("loop")
	assert.Equal(t, "block.1/loop.2", s.Current())
}

func TestScopeChildrenResetUnderNewParent(t *testing.T) {
	var s ScopeStack
	s.Push("layer")
	s.Push("mm")
	s.Pop()
	s.Push("mm")
	s.Pop()
	s.Pop()

	s.Push("layer")
	assert.Equal(t, "layer.2", s.Current())
	s.Push("mm")
	assert.Equal(t, "layer.2/mm.1", s.Current())
}

func TestScopeSiblingsAtTopLevel(t *testing.T) {
	var s ScopeStack
	s.Push("x")
	s.Pop()
	s.Push("y")
	assert.Equal(t, "y.2", s.Current())
}

func TestScopePreconditions(t *testing.T) {
	var s ScopeStack
	assert.Panics(t, func() { s.Pop() })
	assert.Panics(t, func() { s.Depth() })
	assert.Equal(t, 0, s.Len())

	s.Push("a")
	assert.Panics(t, func() { s.Reset() })
}

func TestScopeReset(t *testing.T) {
	var s ScopeStack
	s.Push("a")
	s.Pop()
	s.Reset()
	s.Push("a")
	assert.Equal(t, "a.1", s.Current())
}

func TestBuildContextScope(t *testing.T) {
	bc := NewBuildContext()
	func() {
		defer bc.Scope("outer")()
		assert.Equal(t, 1, bc.ScopeDepth())
		func() {
			defer bc.Scope("inner")()
			assert.Equal(t, "outer.1/inner.1", bc.CurrentScope())
		}()
		assert.Equal(t, "outer.1", bc.CurrentScope())
	}()
	assert.Equal(t, "", bc.CurrentScope())
	assert.NotPanics(t, bc.ResetScopes)
}
