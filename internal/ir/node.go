package ir

import (
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/born-ml/irgraph/internal/frames"
	"github.com/born-ml/irgraph/internal/hashing"
	"github.com/born-ml/irgraph/internal/shape"
)

// DefaultHashSeed is the seed used by nodes that have no extra state to hash.
const DefaultHashSeed hashing.Hash = 0x5a2d296e9

// Metadata is the debugging information captured when a node is built.
type Metadata struct {
	Scope              string
	FrameInfo          []frames.SourceLocation
	FrontendAttributes map[string]string
}

var nextNodeID atomic.Uint64

// Node is a vertex of the IR graph: one operator applied to its operands,
// producing NumOutputs results described by its shape.
//
// A node holds a reference on each of its operands and records, on each
// operand, a Use pointing back at itself. References are counted: a new node
// starts with one reference owned by its creator, and Release drops it. When
// the count reaches zero the node unlinks its uses and releases its operands.
//
// Nodes are not synchronized. A graph is built and mutated by one goroutine
// at a time; readers such as lowering run once mutation has finished.
type Node struct {
	id         uint64
	op         OpKind
	numOutputs int
	shape      shape.Shape
	nodeHash   hashing.Hash
	hash       hashing.Hash

	operands          []*Node
	operandsAsOutputs []Output
	uses              []Use // sorted by compareUses

	metadata Metadata
	kind     Kind
	refs     atomic.Int32
}

// NodeOption customizes node construction.
type NodeOption func(*Node)

// WithKind attaches the operator implementation used by Lower and Clone.
func WithKind(k Kind) NodeOption {
	return func(n *Node) {
		n.kind = k
	}
}

func newNode(op OpKind, shp shape.Shape, numOutputs int, nodeHash hashing.Hash, md Metadata, opts []NodeOption) *Node {
	if numOutputs < 1 {
		panic(errors.Errorf("ir.Node(%s): num_outputs must be at least 1, got %d", op, numOutputs))
	}
	n := &Node{
		id:         nextNodeID.Add(1),
		op:         op,
		numOutputs: numOutputs,
		shape:      shp,
		nodeHash:   nodeHash,
		hash:       nodeHash,
		metadata:   md,
	}
	n.refs.Store(1)
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// GetOpHash hashes an operator, its shape and a seed. It is the node hash of
// nodes built without operands.
func GetOpHash(op OpKind, shp shape.Shape, hashSeed hashing.Hash) hashing.Hash {
	h := hashing.Combine(op.Hash(), hashing.String(shp.String()))
	return hashing.Combine(h, hashSeed)
}

// ID returns a process-unique id assigned at construction.
func (n *Node) ID() uint64 {
	return n.id
}

// Op returns the operator kind.
func (n *Node) Op() OpKind {
	return n.op
}

// NumOutputs returns the number of results the node produces.
func (n *Node) NumOutputs() int {
	return n.numOutputs
}

// NodeShape returns the full shape of the node (a tuple for multi-output nodes).
func (n *Node) NodeShape() shape.Shape {
	return n.shape
}

// Shape returns the shape of output i. For tuple-shaped nodes this is the
// i-th tuple element; otherwise i must be 0 and the whole shape is returned.
func (n *Node) Shape(i int) shape.Shape {
	if n.shape.IsTuple() {
		return n.shape.TupleShape(i)
	}
	if i != 0 {
		panic(errors.Errorf("ir.Node.Shape: output index %d on non-tuple node %s", i, n))
	}
	return n.shape
}

// NodeHash returns the hash of the operator, seed and (for leaf nodes) shape.
func (n *Node) NodeHash() hashing.Hash {
	return n.nodeHash
}

// Hash returns the structural hash: NodeHash folded with every operand's hash
// in operand order. Nodes with equal hashes are interchangeable.
//
// The hash is computed once at construction and is not updated by
// ReplaceOperand or ReplaceAllUsesWith.
func (n *Node) Hash() hashing.Hash {
	return n.hash
}

// Kind returns the operator implementation, or nil.
func (n *Node) Kind() Kind {
	return n.kind
}

// Metadata returns the scope, frames and frontend attributes captured when
// the node was built.
func (n *Node) Metadata() Metadata {
	md := n.metadata
	md.FrameInfo = slices.Clone(md.FrameInfo)
	md.FrontendAttributes = maps.Clone(md.FrontendAttributes)
	return md
}

// NumOperands returns the number of operand edges.
func (n *Node) NumOperands() int {
	return len(n.operands)
}

// Operand returns operand i as an Output.
func (n *Node) Operand(i int) Output {
	return n.operandsAsOutputs[i]
}

// Operands returns the operand nodes in order.
func (n *Node) Operands() []*Node {
	return slices.Clone(n.operands)
}

// OperandsAsOutputs returns the operand edges in order.
func (n *Node) OperandsAsOutputs() []Output {
	return slices.Clone(n.operandsAsOutputs)
}

// Uses returns the nodes consuming this one, in use order.
func (n *Node) Uses() []Use {
	return slices.Clone(n.uses)
}

// AddOperand appends (operand, index) to the operand list, takes a reference
// on operand and registers a use on it. It does not fold the operand into the
// node's hash; constructors do that.
func (n *Node) AddOperand(operand *Node, index int) {
	if index < 0 || index >= operand.NumOutputs() {
		panic(errors.Errorf("ir.AddOperand: output index %d out of range for %s (num_outputs=%d)",
			index, operand, operand.NumOutputs()))
	}
	operand.Retain()
	n.operands = append(n.operands, operand)
	n.operandsAsOutputs = append(n.operandsAsOutputs, Output{Node: operand, Index: index})
	operand.addUse(Use{Node: n, OperandIndex: len(n.operands) - 1, Index: index})
}

// ReplaceOperand makes operand slot read (operand, index) instead of its
// current producer. Uses and references move with the edge.
//
// The node's hash and shape are left as they were computed at construction,
// so after a replacement Hash no longer reflects the current operands.
func (n *Node) ReplaceOperand(slot int, operand *Node, index int) {
	if index < 0 || index >= operand.NumOutputs() {
		panic(errors.Errorf("ir.ReplaceOperand: output index %d out of range for %s (num_outputs=%d)",
			index, operand, operand.NumOutputs()))
	}
	if slot < 0 || slot >= len(n.operands) {
		panic(errors.Errorf("ir.ReplaceOperand: operand slot %d out of range for %s (%d operands)",
			slot, n, len(n.operands)))
	}
	old := n.operands[slot]
	old.removeUse(Use{Node: n, OperandIndex: slot, Index: n.operandsAsOutputs[slot].Index})
	operand.Retain()
	operand.addUse(Use{Node: n, OperandIndex: slot, Index: index})
	n.operandsAsOutputs[slot] = Output{Node: operand, Index: index}
	n.operands[slot] = operand
	old.Release()
}

// ReplaceAllUsesWith redirects every consumer of n to (replacement, index).
// Afterwards n has no uses. Consumer hashes are not recomputed.
func (n *Node) ReplaceAllUsesWith(replacement *Node, index int) {
	// ReplaceOperand edits n.uses, so iterate over a snapshot.
	current := slices.Clone(n.uses)
	for _, use := range current {
		use.Node.ReplaceOperand(use.OperandIndex, replacement, index)
	}
}

// Retain takes an additional reference on n and returns it.
func (n *Node) Retain() *Node {
	if n.refs.Add(1) <= 1 {
		panic(errors.Errorf("ir.Retain: node %s was already released", n))
	}
	return n
}

// Release drops a reference. The last release unlinks n from every operand's
// use set and releases the operands in turn.
func (n *Node) Release() {
	refs := n.refs.Add(-1)
	if refs > 0 {
		return
	}
	if refs < 0 {
		panic(errors.Errorf("ir.Release: node %s released more times than retained", n))
	}
	operands, outputs := n.operands, n.operandsAsOutputs
	n.operands, n.operandsAsOutputs = nil, nil
	for i, operand := range operands {
		operand.removeUse(Use{Node: n, OperandIndex: i, Index: outputs[i].Index})
		operand.Release()
	}
}

// RefCount returns the number of live references.
func (n *Node) RefCount() int {
	return int(n.refs.Load())
}

func (n *Node) addUse(u Use) {
	i, found := slices.BinarySearchFunc(n.uses, u, compareUses)
	if found {
		return
	}
	n.uses = slices.Insert(n.uses, i, u)
}

func (n *Node) removeUse(u Use) {
	if i, found := slices.BinarySearchFunc(n.uses, u, compareUses); found {
		n.uses = slices.Delete(n.uses, i, i+1)
	}
}

// Lower emits backend operations for n through its Kind.
// Panics if the node has no Kind.
func (n *Node) Lower(lctx LoweringContext) OpVector {
	if n.kind == nil {
		panic(errors.Errorf("lowering not implemented for node: %s", n))
	}
	return n.kind.Lower(n, lctx)
}

// Clone builds a copy of n over new operands through its Kind.
// Panics if the node has no Kind.
func (n *Node) Clone(bc *BuildContext, operands []Value) *Node {
	if n.kind == nil {
		panic(errors.Errorf("cloning not implemented for node: %s", n))
	}
	return n.kind.Clone(bc, n, operands)
}

// ReturnOp assigns op as the lowering of a single-output node.
func (n *Node) ReturnOp(op Op, lctx LoweringContext) OpVector {
	if n.numOutputs != 1 {
		panic(errors.Errorf("ir.ReturnOp: node %s has %d outputs", n, n.numOutputs))
	}
	lctx.AssignOutputOp(Output{Node: n, Index: 0}, op)
	return OpVector{op}
}

// ReturnOps assigns ops[i] as the lowering of output i.
func (n *Node) ReturnOps(ops []Op, lctx LoweringContext) OpVector {
	if len(ops) != n.numOutputs {
		panic(errors.Errorf("ir.ReturnOps: node %s has %d outputs, got %d ops", n, n.numOutputs, len(ops)))
	}
	result := make(OpVector, len(ops))
	for i, op := range ops {
		lctx.AssignOutputOp(Output{Node: n, Index: i}, op)
		result[i] = op
	}
	return result
}

// String renders shape, operator, output count, scope and the innermost
// captured frame.
func (n *Node) String() string {
	var sb strings.Builder
	sb.WriteString(n.shape.String())
	sb.WriteByte(' ')
	sb.WriteString(n.op.Name())
	if n.numOutputs > 1 {
		sb.WriteString(", num_outputs=")
		sb.WriteString(strconv.Itoa(n.numOutputs))
	}
	if n.metadata.Scope != "" {
		sb.WriteString(", scope=")
		sb.WriteString(n.metadata.Scope)
	}
	if loc := frames.Short(n.metadata.FrameInfo); loc != "" {
		sb.WriteString(", location=")
		sb.WriteString(loc)
	}
	return sb.String()
}
