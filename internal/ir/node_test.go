package ir

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/irgraph/internal/frames"
	"github.com/born-ml/irgraph/internal/hashing"
	"github.com/born-ml/irgraph/internal/shape"
)

func TestLeafNodeHash(t *testing.T) {
	bc := newTestContext(t)
	s := shape.Array(shape.Float32, 2, 3)

	a := bc.NewLeafNode(opData, s, 1, 7)
	b := bc.NewLeafNode(opData, s, 1, 7)
	assert.Equal(t, a.Hash(), b.Hash())
	assert.Equal(t, GetOpHash(opData, s, 7), a.Hash())
	assert.Equal(t, a.NodeHash(), a.Hash())

	other := bc.NewLeafNode(opData, shape.Array(shape.Float32, 3, 2), 1, 7)
	assert.NotEqual(t, a.Hash(), other.Hash())

	reseeded := bc.NewLeafNode(opData, s, 1, 8)
	assert.NotEqual(t, a.Hash(), reseeded.Hash())
}

func TestNodeHashStructural(t *testing.T) {
	bc := newTestContext(t)
	x, y := leaf(bc, 1), leaf(bc, 2)
	s := shape.Array(shape.Float32, 2, 3)

	n1 := bc.NewNode(opAdd, values(x, y), s, 1, DefaultHashSeed)
	n2 := bc.NewNode(opAdd, values(x, y), s, 1, DefaultHashSeed)
	assert.Equal(t, n1.Hash(), n2.Hash())

	want := hashing.Combine(hashing.Combine(opAdd.Hash(), DefaultHashSeed), Value{Node: x}.Hash(), Value{Node: y}.Hash())
	assert.Equal(t, want, n1.Hash())
	assert.Equal(t, hashing.Combine(opAdd.Hash(), DefaultHashSeed), n1.NodeHash())

	swapped := bc.NewNode(opAdd, values(y, x), s, 1, DefaultHashSeed)
	assert.NotEqual(t, n1.Hash(), swapped.Hash())

	otherOp := bc.NewNode(opMul, values(x, y), s, 1, DefaultHashSeed)
	assert.NotEqual(t, n1.Hash(), otherOp.Hash())
}

func TestNodeHashTransitive(t *testing.T) {
	bc := newTestContext(t)
	s := shape.Array(shape.Float32, 2, 3)

	build := func(seed hashing.Hash) *Node {
		x := leaf(bc, seed)
		return bc.NewNode(opMul, values(bc.NewNode(opAdd, values(x, x), s, 1, DefaultHashSeed)), s, 1, DefaultHashSeed)
	}
	assert.Equal(t, build(1).Hash(), build(1).Hash())
	assert.NotEqual(t, build(1).Hash(), build(2).Hash())
}

func TestNodeHashProperties(t *testing.T) {
	bc := newTestContext(t)
	s := shape.Scalar(shape.Float32)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("identical construction gives identical hashes", prop.ForAll(
		func(seedA, seedB, nodeSeed uint64) bool {
			a, b := leaf(bc, hashing.Hash(seedA)), leaf(bc, hashing.Hash(seedB))
			n1 := bc.NewNode(opAdd, values(a, b), s, 1, hashing.Hash(nodeSeed))
			n2 := bc.NewNode(opAdd, values(a, b), s, 1, hashing.Hash(nodeSeed))
			return n1.Hash() == n2.Hash()
		},
		gen.UInt64(), gen.UInt64(), gen.UInt64(),
	))

	properties.Property("operand order matters", prop.ForAll(
		func(seedA, seedB uint64) bool {
			if seedA == seedB {
				return true
			}
			a, b := leaf(bc, hashing.Hash(seedA)), leaf(bc, hashing.Hash(seedB))
			return bc.NewNode(opAdd, values(a, b), s, 1, DefaultHashSeed).Hash() !=
				bc.NewNode(opAdd, values(b, a), s, 1, DefaultHashSeed).Hash()
		},
		gen.UInt64(), gen.UInt64(),
	))

	properties.TestingRun(t)
}

func TestAddOperandRegistersUse(t *testing.T) {
	bc := newTestContext(t)
	x := leaf(bc, 1)
	n := bc.NewNode(opAdd, values(x, x), x.NodeShape(), 1, DefaultHashSeed)

	require.Equal(t, 2, n.NumOperands())
	assert.Equal(t, Output{Node: x, Index: 0}, n.Operand(1))
	assert.Equal(t, []*Node{x, x}, n.Operands())

	uses := x.Uses()
	require.Len(t, uses, 2)
	assert.Equal(t, Use{Node: n, OperandIndex: 0, Index: 0}, uses[0])
	assert.Equal(t, Use{Node: n, OperandIndex: 1, Index: 0}, uses[1])
	assert.Equal(t, 3, x.RefCount())
}

func TestAddOperandOutOfRange(t *testing.T) {
	bc := newTestContext(t)
	x := leaf(bc, 1)
	n := bc.NewLeafNode(opAdd, x.NodeShape(), 1, DefaultHashSeed)

	assert.Panics(t, func() { n.AddOperand(x, 1) })
	assert.Panics(t, func() { n.AddOperand(x, -1) })
	assert.Panics(t, func() { bc.NewNode(opAdd, []Value{{Node: x, Index: 1}}, x.NodeShape(), 1, DefaultHashSeed) })
	assert.Empty(t, x.Uses())
}

func TestReleaseRemovesUses(t *testing.T) {
	bc := newTestContext(t)
	x, y := leaf(bc, 1), leaf(bc, 2)
	n := bc.NewNode(opAdd, values(x, y), x.NodeShape(), 1, DefaultHashSeed)
	keep := bc.NewNode(opMul, values(x), x.NodeShape(), 1, DefaultHashSeed)

	n.Release()
	assert.Equal(t, 0, n.RefCount())
	assert.Equal(t, []Use{{Node: keep, OperandIndex: 0, Index: 0}}, x.Uses())
	assert.Empty(t, y.Uses())
	assert.Equal(t, 2, x.RefCount())
	assert.Equal(t, 1, y.RefCount())
	assert.Zero(t, n.NumOperands())

	assert.Panics(t, func() { n.Release() })
}

func TestReleaseCascades(t *testing.T) {
	bc := newTestContext(t)
	x := leaf(bc, 1)
	mid := bc.NewNode(opAdd, values(x), x.NodeShape(), 1, DefaultHashSeed)
	top := bc.NewNode(opMul, values(mid), x.NodeShape(), 1, DefaultHashSeed)

	mid.Release() // top still holds mid
	assert.Len(t, x.Uses(), 1)
	assert.Len(t, mid.Uses(), 1)

	top.Release()
	assert.Empty(t, mid.Uses())
	assert.Empty(t, x.Uses())
	assert.Equal(t, 1, x.RefCount())
}

func TestRetainAfterRelease(t *testing.T) {
	bc := newTestContext(t)
	x := leaf(bc, 1)
	x.Release()
	assert.Panics(t, func() { x.Retain() })
}

func TestReplaceOperand(t *testing.T) {
	bc := newTestContext(t)
	x, y := leaf(bc, 1), leaf(bc, 2)
	split := bc.NewLeafNode(opSplit, shape.Tuple(x.NodeShape(), x.NodeShape()), 2, DefaultHashSeed)
	n := bc.NewNode(opAdd, values(x, y), x.NodeShape(), 1, DefaultHashSeed)
	hash := n.Hash()

	n.ReplaceOperand(1, split, 1)

	assert.Equal(t, Output{Node: split, Index: 1}, n.Operand(1))
	assert.Empty(t, y.Uses())
	assert.Equal(t, []Use{{Node: n, OperandIndex: 1, Index: 1}}, split.Uses())
	assert.Equal(t, 1, y.RefCount())
	assert.Equal(t, 2, split.RefCount())
	assert.Equal(t, hash, n.Hash(), "hash is frozen at construction")
}

func TestReplaceOperandPreconditions(t *testing.T) {
	bc := newTestContext(t)
	x, y := leaf(bc, 1), leaf(bc, 2)
	n := bc.NewNode(opAdd, values(x), x.NodeShape(), 1, DefaultHashSeed)

	assert.Panics(t, func() { n.ReplaceOperand(0, y, 1) })
	assert.Panics(t, func() { n.ReplaceOperand(1, y, 0) })
	assert.Panics(t, func() { n.ReplaceOperand(-1, y, 0) })
	assert.Equal(t, Output{Node: x, Index: 0}, n.Operand(0))
	assert.Empty(t, y.Uses())
}

func TestReplaceAllUsesWith(t *testing.T) {
	bc := newTestContext(t)
	a, b := leaf(bc, 1), leaf(bc, 2)
	c1 := bc.NewNode(opAdd, values(a, a), a.NodeShape(), 1, DefaultHashSeed)
	c2 := bc.NewNode(opMul, values(b, a), a.NodeShape(), 1, DefaultHashSeed)

	a.ReplaceAllUsesWith(b, 0)

	assert.Empty(t, a.Uses())
	assert.Equal(t, 1, a.RefCount())
	for _, c := range []*Node{c1, c2} {
		for _, out := range c.OperandsAsOutputs() {
			assert.Same(t, b, out.Node)
		}
	}
	uses := b.Uses()
	assert.Len(t, uses, 4)
	assert.Equal(t, 5, b.RefCount())
}

func TestNodeShape(t *testing.T) {
	bc := newTestContext(t)
	f, i := shape.Array(shape.Float32, 4), shape.Scalar(shape.Int32)
	split := bc.NewLeafNode(opSplit, shape.Tuple(f, i), 2, DefaultHashSeed)

	assert.True(t, split.Shape(0).Equal(f))
	assert.True(t, split.Shape(1).Equal(i))
	assert.True(t, split.NodeShape().IsTuple())
	assert.Panics(t, func() { split.Shape(2) })

	x := leaf(bc, 1)
	assert.True(t, x.Shape(0).Equal(x.NodeShape()))
	assert.Panics(t, func() { x.Shape(1) })
}

func TestNodeNumOutputsPrecondition(t *testing.T) {
	bc := newTestContext(t)
	assert.Panics(t, func() { bc.NewLeafNode(opData, shape.Scalar(shape.Float32), 0, DefaultHashSeed) })
}

func TestNodeString(t *testing.T) {
	bc := newTestContext(t)
	x := leaf(bc, 1)
	assert.Equal(t, "f32[2,3] xla::device_data", x.String())

	done := bc.Scope("block")
	split := bc.NewLeafNode(opSplit, shape.Tuple(shape.Array(shape.Float32, 2), shape.Scalar(shape.Int32)), 2, DefaultHashSeed)
	done()
	assert.Equal(t, "(f32[2], s32[]) aten::split, num_outputs=2, scope=block.1", split.String())

	assert.Equal(t, split.String()+", index=1", Output{Node: split, Index: 1}.String())

	n := bc.NewNode(opAdd, values(x), x.NodeShape(), 1, DefaultHashSeed)
	assert.Equal(t, "f32[2,3] aten::add, operand_index=0, index=0", x.Uses()[0].String())
	assert.Equal(t, n.String()+", operand_index=0, index=0", x.Uses()[0].String())
}

func TestNodeFrameInfo(t *testing.T) {
	prev := frames.SetEnabled(true)
	t.Cleanup(func() { frames.SetEnabled(prev) })

	bc := newTestContext(t)
	n := bc.NewLeafNode(opData, shape.Scalar(shape.Float32), 1, DefaultHashSeed)

	md := n.Metadata()
	require.NotEmpty(t, md.FrameInfo)
	assert.True(t, strings.HasSuffix(md.FrameInfo[0].Function, ".TestNodeFrameInfo"), md.FrameInfo[0].Function)
	assert.Contains(t, n.String(), ", location=")
	assert.Contains(t, n.String(), ".TestNodeFrameInfo@node_test.go:")

	m := bc.NewNode(opAdd, values(n), n.NodeShape(), 1, DefaultHashSeed)
	require.NotEmpty(t, m.Metadata().FrameInfo)
	assert.True(t, strings.HasSuffix(m.Metadata().FrameInfo[0].Function, ".TestNodeFrameInfo"))
}

func TestNodeMetadataSnapshot(t *testing.T) {
	bc := newTestContext(t)
	bc.PushScope("outer")
	p := bc.PushFrontendAttribute("device", "tpu", false)
	n := leaf(bc, 1)
	p.Pop()
	bc.PopScope()
	after := leaf(bc, 2)

	md := n.Metadata()
	assert.Equal(t, "outer.1", md.Scope)
	assert.Equal(t, map[string]string{"device": "tpu"}, md.FrontendAttributes)

	md.FrontendAttributes["device"] = "gpu"
	assert.Equal(t, "tpu", n.Metadata().FrontendAttributes["device"])

	assert.Empty(t, after.Metadata().Scope)
	assert.Empty(t, after.Metadata().FrontendAttributes)
}

func TestLowerAndCloneRequireKind(t *testing.T) {
	bc := newTestContext(t)
	x := leaf(bc, 1)

	assert.PanicsWithError(t, "lowering not implemented for node: f32[2,3] xla::device_data", func() {
		x.Lower(newRecordingLowering())
	})
	assert.Panics(t, func() { x.Clone(bc, nil) })
}

func TestLowerWithKind(t *testing.T) {
	bc := newTestContext(t)
	x := bc.NewLeafNode(opData, shape.Scalar(shape.Float32), 1, DefaultHashSeed, WithKind(nameKind{}))
	split := bc.NewNode(opSplit, values(x), shape.Tuple(shape.Scalar(shape.Float32), shape.Scalar(shape.Float32)), 2,
		DefaultHashSeed, WithKind(nameKind{}))

	lctx := newRecordingLowering()
	assert.Equal(t, OpVector{"xla::device_data"}, x.Lower(lctx))
	assert.Equal(t, OpVector{"aten::split", "aten::split"}, split.Lower(lctx))
	assert.Equal(t, "aten::split", lctx.ops[Output{Node: split, Index: 1}])
	assert.Len(t, lctx.ops, 3)
}

func TestReturnOpPreconditions(t *testing.T) {
	bc := newTestContext(t)
	split := bc.NewLeafNode(opSplit, shape.Tuple(shape.Scalar(shape.Float32), shape.Scalar(shape.Float32)), 2, DefaultHashSeed)
	lctx := newRecordingLowering()

	assert.Panics(t, func() { split.ReturnOp("x", lctx) })
	assert.Panics(t, func() { split.ReturnOps([]Op{"x"}, lctx) })
	assert.Empty(t, lctx.ops)
}

func TestCloneWithKind(t *testing.T) {
	bc := newTestContext(t)
	x, y := leaf(bc, 1), leaf(bc, 2)
	n := bc.NewNode(opAdd, values(x), x.NodeShape(), 1, DefaultHashSeed, WithKind(nameKind{}))

	c := n.Clone(bc, values(y))
	assert.Equal(t, opAdd, c.Op())
	assert.Same(t, y, c.Operand(0).Node)
	assert.NotEqual(t, n.Hash(), c.Hash())
	assert.Equal(t, n.NodeHash(), c.NodeHash())
}

func TestNodeIDsUnique(t *testing.T) {
	bc := newTestContext(t)
	a, b := leaf(bc, 1), leaf(bc, 1)
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, a.Hash(), b.Hash())
}
