package ir

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/born-ml/irgraph/internal/hashing"
	"github.com/born-ml/irgraph/internal/shape"
)

var (
	opData  = GetOpKind("xla::device_data")
	opAdd   = GetOpKind("aten::add")
	opMul   = GetOpKind("aten::mul")
	opSplit = GetOpKind("aten::split")
)

func newTestContext(t *testing.T) *BuildContext {
	t.Helper()
	c, err := NewShapeCache(64, nil)
	require.NoError(t, err)
	return NewBuildContext(WithShapeCache(c))
}

func leaf(bc *BuildContext, seed hashing.Hash) *Node {
	return bc.NewLeafNode(opData, shape.Array(shape.Float32, 2, 3), 1, seed)
}

func values(nodes ...*Node) []Value {
	vs := make([]Value, len(nodes))
	for i, n := range nodes {
		vs[i] = Value{Node: n}
	}
	return vs
}

// recordingLowering remembers the op assigned to every output.
type recordingLowering struct {
	ops map[Output]Op
}

func newRecordingLowering() *recordingLowering {
	return &recordingLowering{ops: make(map[Output]Op)}
}

func (r *recordingLowering) AssignOutputOp(out Output, op Op) {
	r.ops[out] = op
}

// nameKind lowers a node to the name of its operator.
type nameKind struct{}

func (nameKind) Lower(n *Node, lctx LoweringContext) OpVector {
	if n.NumOutputs() == 1 {
		return n.ReturnOp(n.Op().Name(), lctx)
	}
	ops := make([]Op, n.NumOutputs())
	for i := range ops {
		ops[i] = n.Op().Name()
	}
	return n.ReturnOps(ops, lctx)
}

func (nameKind) Clone(bc *BuildContext, n *Node, operands []Value) *Node {
	return bc.NewNode(n.Op(), operands, n.NodeShape(), n.NumOutputs(), DefaultHashSeed, WithKind(nameKind{}))
}
