package ir

import (
	"cmp"
	"strconv"

	"github.com/born-ml/irgraph/internal/hashing"
	"github.com/born-ml/irgraph/internal/shape"
)

// Output names one result of a node: the node and a zero-based output index.
// It does not hold a reference on the node. Outputs are comparable and can be
// used as map keys.
type Output struct {
	Node  *Node
	Index int
}

// Shape returns the shape of this output.
func (o Output) Shape() shape.Shape {
	return o.Node.Shape(o.Index)
}

// NodeShape returns the full shape of the referenced node.
func (o Output) NodeShape() shape.Shape {
	return o.Node.NodeShape()
}

// Hash combines the node hash with the output index.
func (o Output) Hash() hashing.Hash {
	return outputHash(o.Node, o.Index)
}

func (o Output) String() string {
	return o.Node.String() + ", index=" + strconv.Itoa(o.Index)
}

// Value is the handle graph-building code passes around for a node result.
// It carries the same (node, index) pair as Output.
type Value struct {
	Node  *Node
	Index int
}

// Shape returns the shape of this value.
func (v Value) Shape() shape.Shape {
	return v.Node.Shape(v.Index)
}

// NodeShape returns the full shape of the referenced node.
func (v Value) NodeShape() shape.Shape {
	return v.Node.NodeShape()
}

// Hash combines the node hash with the output index.
func (v Value) Hash() hashing.Hash {
	return outputHash(v.Node, v.Index)
}

// Output returns the Output naming the same result.
func (v Value) Output() Output {
	return Output{Node: v.Node, Index: v.Index}
}

func outputHash(n *Node, index int) hashing.Hash {
	return hashing.Combine(n.Hash(), hashing.Int(uint64(index)))
}

// Use records that Node consumes this node as operand OperandIndex, reading
// its output Index. Uses are back-references only: they never keep the
// consumer alive.
type Use struct {
	Node         *Node
	OperandIndex int
	Index        int
}

// compareUses orders uses by consumer OpKind, operand index and output index.
// Consumers that tie on all three are ordered by creation, so distinct
// consumers never collapse into one entry of a use set.
func compareUses(a, b Use) int {
	if a.Node.op != b.Node.op {
		if a.Node.op.Less(b.Node.op) {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(a.OperandIndex, b.OperandIndex); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Index, b.Index); c != 0 {
		return c
	}
	return cmp.Compare(a.Node.id, b.Node.id)
}

// Less reports whether u sorts before other.
func (u Use) Less(other Use) bool {
	return compareUses(u, other) < 0
}

func (u Use) String() string {
	return u.Node.String() + ", operand_index=" + strconv.Itoa(u.OperandIndex) +
		", index=" + strconv.Itoa(u.Index)
}
